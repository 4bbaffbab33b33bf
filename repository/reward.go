package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"spa_manager/model"
)

var (
	ErrInsufficientPoints = errors.New("số dư điểm không đủ")
	ErrVoucherNotFound    = errors.New("voucher không tồn tại")
)

type RewardStore struct {
	db *gorm.DB
}

func NewRewardStore(db *gorm.DB) *RewardStore {
	return &RewardStore{db: db}
}

// HasEntry kiểm tra đã có dòng lịch sử (order, reason) cho khách chưa —
// chốt chặn "cộng điểm một lần mỗi đơn" vì DB không có unique index.
func (s *RewardStore) HasEntry(tx *gorm.DB, customerId, orderId uint, reason string) (bool, error) {
	var count int64
	err := tx.Model(&model.RewardHistory{}).
		Where("customer_id = ? AND order_id = ? AND reason = ?", customerId, orderId, reason).
		Count(&count).Error
	return count > 0, err
}

// Append ghi một dòng lịch sử và cộng dồn số dư trong cùng statement set.
func (s *RewardStore) Append(tx *gorm.DB, entry *model.RewardHistory) error {
	if err := tx.Create(entry).Error; err != nil {
		return err
	}
	return tx.Model(&model.Customer{}).
		Where("id = ?", entry.CustomerId).
		Update("reward_points", gorm.Expr("reward_points + ?", entry.Points)).Error
}

// DebitBalance trừ điểm có điều kiện số dư — update nguyên tử,
// không đọc-rồi-ghi.
func (s *RewardStore) DebitBalance(tx *gorm.DB, customerId uint, points int) error {
	result := tx.Model(&model.Customer{}).
		Where("id = ? AND reward_points >= ?", customerId, points).
		Update("reward_points", gorm.Expr("reward_points - ?", points))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrInsufficientPoints
	}
	return nil
}

func (s *RewardStore) CreateVoucher(tx *gorm.DB, customerId uint, points int, discountPercent float64, expiry time.Time) (*model.Voucher, error) {
	voucher := model.Voucher{
		Code:            "VCH-" + strings.ToUpper(uuid.New().String()[:8]),
		CustomerId:      customerId,
		DiscountPercent: discountPercent,
		SpentPoints:     points,
		Status:          model.VoucherActive,
		ExpiryDate:      expiry,
	}
	if err := tx.Create(&voucher).Error; err != nil {
		return nil, err
	}
	return &voucher, nil
}

func (s *RewardStore) GetVoucherByCode(tx *gorm.DB, code string) (*model.Voucher, error) {
	var voucher model.Voucher
	if err := tx.Where("code = ?", code).First(&voucher).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVoucherNotFound
		}
		return nil, err
	}
	return &voucher, nil
}

// MarkVoucherUsed chuyển ACTIVE + chưa hết hạn → USED, gắn đơn áp dụng.
// RowsAffected = 0: voucher đã dùng, đã khóa hoặc hết hạn.
func (s *RewardStore) MarkVoucherUsed(tx *gorm.DB, code string, orderId uint) (int64, error) {
	result := tx.Model(&model.Voucher{}).
		Where("code = ? AND status = ? AND expiry_date > ?", code, model.VoucherActive, time.Now()).
		Updates(map[string]any{
			"status":           model.VoucherUsed,
			"applied_order_id": orderId,
		})
	return result.RowsAffected, result.Error
}

// SweepExpired khóa voucher ACTIVE đã quá hạn. Predicate idempotent —
// job chạy chồng nhau không sao.
func (s *RewardStore) SweepExpired() (int64, error) {
	result := s.db.Model(&model.Voucher{}).
		Where("status = ? AND expiry_date < ?", model.VoucherActive, time.Now()).
		Update("status", model.VoucherInactive)
	return result.RowsAffected, result.Error
}

func (s *RewardStore) History(customerId uint, limit, page *int) ([]model.RewardHistory, int64, error) {
	condition := s.db.Model(&model.RewardHistory{}).Where("customer_id = ?", customerId)

	var totalCount int64
	if err := condition.Count(&totalCount).Error; err != nil {
		return nil, 0, err
	}

	var entries []model.RewardHistory
	if limit != nil && *limit > 0 && page != nil && *page >= 1 {
		condition = condition.Limit(*limit).Offset(*limit * (*page - 1))
	}
	err := condition.Order("created_at desc").Find(&entries).Error
	return entries, totalCount, err
}
