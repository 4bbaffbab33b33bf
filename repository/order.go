package repository

import (
	"errors"

	"gorm.io/gorm"

	"spa_manager/model"
)

var ErrOrderNotFound = errors.New("đơn hàng không tồn tại")

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Create(tx *gorm.DB, order *model.Order) error {
	return tx.Create(order).Error
}

func (r *OrderRepository) GetByID(tx *gorm.DB, orderId uint) (*model.Order, error) {
	var order model.Order
	if err := tx.Preload("Items").First(&order, orderId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (r *OrderRepository) GetByPublicCode(code string) (*model.Order, error) {
	var order model.Order
	if err := r.db.Preload("Items").Where("public_code = ?", code).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

// UpdateStatusGuard chuyển trạng thái đơn chỉ khi trạng thái hiện tại khớp.
// Trả về số dòng bị ảnh hưởng — 0 nghĩa là thua cuộc đua hoặc chuyển sai luồng.
func (r *OrderRepository) UpdateStatusGuard(tx *gorm.DB, orderId uint, from, to string, extra map[string]any) (int64, error) {
	updates := map[string]any{"status": to}
	for k, v := range extra {
		updates[k] = v
	}
	result := tx.Model(&model.Order{}).
		Where("id = ? AND status = ?", orderId, from).
		Updates(updates)
	return result.RowsAffected, result.Error
}

// UpdateStatusGuardAny như UpdateStatusGuard nhưng chấp nhận nhiều
// trạng thái nguồn (hủy đơn từ PENDING/CONFIRMED/PROCESSING).
func (r *OrderRepository) UpdateStatusGuardAny(tx *gorm.DB, orderId uint, from []string, to string, extra map[string]any) (int64, error) {
	updates := map[string]any{"status": to}
	for k, v := range extra {
		updates[k] = v
	}
	result := tx.Model(&model.Order{}).
		Where("id = ? AND status IN ?", orderId, from).
		Updates(updates)
	return result.RowsAffected, result.Error
}

func (r *OrderRepository) ListByCustomer(customerId uint, filter *model.FilterOrderInput) ([]model.Order, int64, error) {
	condition := r.db.Model(&model.Order{}).
		Preload("Items").
		Where("customer_id = ?", customerId)

	if filter.Status != "" {
		condition = condition.Where("status = ?", filter.Status)
	}
	if filter.StartDate != nil {
		condition = condition.Where("created_at >= ?", filter.StartDate)
	}
	if filter.EndDate != nil {
		condition = condition.Where("created_at <= ?", filter.EndDate)
	}

	var totalCount int64
	if err := condition.Count(&totalCount).Error; err != nil {
		return nil, 0, err
	}

	var orders []model.Order
	if filter.Limit != nil && *filter.Limit > 0 && filter.Page != nil && *filter.Page >= 1 {
		condition = condition.Limit(*filter.Limit).Offset(*filter.Limit * (*filter.Page - 1))
	}
	err := condition.Order("created_at desc").Find(&orders).Error
	return orders, totalCount, err
}
