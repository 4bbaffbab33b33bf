package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"spa_manager/model"
)

var (
	ErrSlotUnavailable  = errors.New("slot không còn trống")
	ErrInvalidSlotState = errors.New("trạng thái slot không hợp lệ")
	ErrSlotNotFound     = errors.New("slot không tồn tại")
)

// SlotStore giữ độc quyền mọi chuyển trạng thái của StaffSlot.
// Mỗi transition là một UPDATE có điều kiện trên trạng thái hiện tại,
// kiểm tra RowsAffected — nhiều writer cùng lúc chỉ có đúng một bên thắng,
// bên thua nhận lỗi ngay chứ không chờ timeout.
type SlotStore struct {
	db *gorm.DB
}

func NewSlotStore(db *gorm.DB) *SlotStore {
	return &SlotStore{db: db}
}

// Reserve chuyển AVAILABLE → PENDING và gắn đơn hàng vào slot.
func (s *SlotStore) Reserve(tx *gorm.DB, slotId, orderId uint) (*model.StaffSlot, error) {
	now := time.Now()
	result := tx.Model(&model.StaffSlot{}).
		Where("id = ? AND status = ?", slotId, model.SlotAvailable).
		Updates(map[string]any{
			"status":     model.SlotPending,
			"order_id":   orderId,
			"pending_at": now,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrSlotUnavailable
	}

	var slot model.StaffSlot
	if err := tx.First(&slot, slotId).Error; err != nil {
		return nil, err
	}
	return &slot, nil
}

// Confirm chuyển PENDING → BOOKED, chỉ khi slot vẫn thuộc đúng đơn —
// slot đã bị giải phóng rồi được đơn khác giữ thì không được chốt hộ.
// Gọi lại lần nữa (webhook replay) không có hiệu lực.
func (s *SlotStore) Confirm(tx *gorm.DB, slotId, orderId uint) (*model.StaffSlot, error) {
	result := tx.Model(&model.StaffSlot{}).
		Where("id = ? AND order_id = ? AND status = ?", slotId, orderId, model.SlotPending).
		Update("status", model.SlotBooked)
	if result.Error != nil {
		return nil, result.Error
	}

	var slot model.StaffSlot
	if err := tx.First(&slot, slotId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}
	if result.RowsAffected == 0 {
		if slot.Status == model.SlotBooked && slot.OrderId != nil && *slot.OrderId == orderId {
			return &slot, nil
		}
		return nil, ErrInvalidSlotState
	}
	return &slot, nil
}

// Release trả slot về AVAILABLE từ PENDING hoặc BOOKED, gỡ đơn hàng.
// Dùng khi hủy đơn, thanh toán thất bại hoặc giữ chỗ quá hạn.
func (s *SlotStore) Release(tx *gorm.DB, slotId uint) (*model.StaffSlot, error) {
	result := tx.Model(&model.StaffSlot{}).
		Where("id = ? AND status IN ?", slotId, []string{model.SlotPending, model.SlotBooked}).
		Updates(map[string]any{
			"status":     model.SlotAvailable,
			"order_id":   nil,
			"pending_at": nil,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrInvalidSlotState
	}

	var slot model.StaffSlot
	if err := tx.First(&slot, slotId).Error; err != nil {
		return nil, err
	}
	return &slot, nil
}

// SweepExpiredReservations giải phóng slot kẹt ở PENDING quá ttl
// (khách bỏ ngang luồng thanh toán). Predicate idempotent nên job
// chạy chồng nhau vẫn an toàn.
func (s *SlotStore) SweepExpiredReservations(ttl time.Duration) (int64, error) {
	cutoff := time.Now().Add(-ttl)
	result := s.db.Model(&model.StaffSlot{}).
		Where("status = ? AND pending_at < ?", model.SlotPending, cutoff).
		Updates(map[string]any{
			"status":     model.SlotAvailable,
			"order_id":   nil,
			"pending_at": nil,
		})
	return result.RowsAffected, result.Error
}

func (s *SlotStore) GetByID(slotId uint) (*model.StaffSlot, error) {
	var slot model.StaffSlot
	if err := s.db.First(&slot, slotId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}
	return &slot, nil
}

// FindByOrder liệt kê slot đang gắn với một đơn hàng (mọi trạng thái trừ CANCELLED)
func (s *SlotStore) FindByOrder(tx *gorm.DB, orderId uint) ([]model.StaffSlot, error) {
	var slots []model.StaffSlot
	err := tx.Where("order_id = ? AND status <> ?", orderId, model.SlotCancelled).
		Find(&slots).Error
	return slots, err
}

// ListAvailable bảng lịch trống cho client chọn giờ.
func (s *SlotStore) ListAvailable(filter *model.FilterSlotInput) ([]model.StaffSlot, error) {
	condition := s.db.Preload("Staff").
		Where("branch_id = ? AND status = ?", filter.BranchId, model.SlotAvailable)

	if filter.StaffId != 0 {
		condition = condition.Where("staff_id = ?", filter.StaffId)
	}
	if filter.Date != nil {
		day := filter.Date.Truncate(24 * time.Hour)
		condition = condition.Where("date >= ? AND date < ?", day, day.AddDate(0, 0, 1))
	} else {
		condition = condition.Where("start_time > ?", time.Now())
	}

	var slots []model.StaffSlot
	err := condition.Order("start_time asc").Find(&slots).Error
	return slots, err
}

// BulkCreate chèn lịch sinh hàng loạt, bỏ qua slot trùng khung giờ đã có.
func (s *SlotStore) BulkCreate(slots []model.StaffSlot) (int, error) {
	created := 0
	err := s.db.Transaction(func(tx *gorm.DB) error {
		for i := range slots {
			var count int64
			if err := tx.Model(&model.StaffSlot{}).
				Where("staff_id = ? AND start_time = ?", slots[i].StaffId, slots[i].StartTime).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				continue
			}
			if err := tx.Create(&slots[i]).Error; err != nil {
				return err
			}
			created++
		}
		return nil
	})
	return created, err
}
