package model

import "time"

const (
	SlotAvailable = "AVAILABLE"
	SlotPending   = "PENDING"
	SlotBooked    = "BOOKED"
	SlotCancelled = "CANCELLED"
)

// StaffSlot một khung giờ có thể đặt của một nhân viên.
// Mọi chuyển trạng thái đều đi qua SlotStore (update có điều kiện),
// không bao giờ đọc-rồi-ghi.
type StaffSlot struct {
	DTO
	StaffId   uint      `gorm:"index:idx_staff_date;not null" json:"staffId"`
	BranchId  uint      `gorm:"index" json:"branchId"`
	Date      time.Time `gorm:"index:idx_staff_date;not null" json:"date"`
	StartTime time.Time `gorm:"not null" json:"startTime"`
	EndTime   time.Time `gorm:"not null" json:"endTime"`
	Status    string    `gorm:"not null;default:'AVAILABLE';index" json:"status"`

	OrderId   *uint      `json:"orderId,omitempty"`
	PendingAt *time.Time `json:"pendingAt,omitempty"` // mốc tính timeout giữ chỗ

	Staff Staff `gorm:"foreignKey:StaffId" json:"-"`
}

type SlotResponse struct {
	ID        uint      `json:"id"`
	StaffId   uint      `json:"staffId"`
	StaffName string    `json:"staffName"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	Status    string    `json:"status"`
}
