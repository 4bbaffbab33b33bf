package service

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"spa_manager/constants"
	"spa_manager/model"
	"spa_manager/repository"
	"spa_manager/utils"
)

const DefaultVoucherExpiryDays = 30

// RewardService sổ điểm tích lũy + voucher đổi điểm.
type RewardService struct {
	db    *gorm.DB
	store *repository.RewardStore
}

func NewRewardService(db *gorm.DB, store *repository.RewardStore) *RewardService {
	return &RewardService{db: db, store: store}
}

// AddPoints cộng điểm cho một đơn, tối đa một lần cho mỗi (đơn, lý do).
// Trả về false nếu đã cộng từ trước — caller không được coi đó là lỗi.
func (s *RewardService) AddPoints(tx *gorm.DB, customerId, orderId uint, points int, reason string) (bool, error) {
	if points <= 0 {
		return false, nil
	}
	exists, err := s.store.HasEntry(tx, customerId, orderId, reason)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	entry := model.RewardHistory{
		CustomerId: customerId,
		OrderId:    &orderId,
		Points:     points,
		Reason:     reason,
	}
	if err := s.store.Append(tx, &entry); err != nil {
		return false, err
	}
	return true, nil
}

// PointsForOrder quy đổi giá trị thanh toán thành điểm.
func PointsForOrder(order *model.Order) int {
	return int(order.FinalPrice) / constants.REWARD_POINT_UNIT
}

// RedeemPoints trừ điểm và phát hành voucher ACTIVE.
func (s *RewardService) RedeemPoints(customerId uint, input *model.RedeemPointsInput) (*model.Voucher, error) {
	expiryDays := input.ExpiryDays
	if expiryDays <= 0 {
		expiryDays = DefaultVoucherExpiryDays
	}

	var voucher *model.Voucher
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.store.DebitBalance(tx, customerId, input.Points); err != nil {
			return err
		}
		entry := model.RewardHistory{
			CustomerId: customerId,
			Points:     -input.Points,
			Reason:     model.ReasonRedeem,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}
		v, err := s.store.CreateVoucher(tx, customerId, input.Points,
			input.DiscountPercent, time.Now().AddDate(0, 0, expiryDays))
		if err != nil {
			return err
		}
		voucher = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return voucher, nil
}

// ApplyVoucherTx đánh dấu voucher USED cho một đơn và trả về phần trăm giảm.
// Chạy bên trong transaction của caller để thất bại phía đơn hàng
// cũng trả voucher về trạng thái cũ.
func (s *RewardService) ApplyVoucherTx(tx *gorm.DB, code string, order *model.Order) (float64, error) {
	voucher, err := s.store.GetVoucherByCode(tx, code)
	if err != nil {
		if errors.Is(err, repository.ErrVoucherNotFound) {
			return 0, ErrVoucherInvalid
		}
		return 0, err
	}
	if voucher.CustomerId != order.CustomerId {
		return 0, ErrVoucherInvalid
	}

	rows, err := s.store.MarkVoucherUsed(tx, code, order.ID)
	if err != nil {
		return 0, err
	}
	if rows == 0 {
		if voucher.Status == model.VoucherActive && !voucher.ExpiryDate.After(time.Now()) {
			return 0, ErrVoucherExpired
		}
		return 0, ErrVoucherInvalid
	}
	return voucher.DiscountPercent, nil
}

// SweepExpiredVouchers job chạy hàng ngày, khóa voucher quá hạn.
func (s *RewardService) SweepExpiredVouchers() {
	count, err := s.store.SweepExpired()
	if err != nil {
		utils.Logger.Errorf("Lỗi quét voucher hết hạn: %v", err)
		return
	}
	if count > 0 {
		utils.Logger.Infof("Đã khóa %d voucher hết hạn", count)
	}
}

func (s *RewardService) Balance(customerId uint) (int, error) {
	var customer model.Customer
	if err := s.db.First(&customer, customerId).Error; err != nil {
		return 0, err
	}
	return customer.RewardPoints, nil
}

func (s *RewardService) History(customerId uint, limit, page *int) ([]model.RewardHistory, int64, error) {
	return s.store.History(customerId, limit, page)
}
