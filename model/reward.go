package model

import "time"

const (
	VoucherActive   = "ACTIVE"
	VoucherUsed     = "USED"
	VoucherInactive = "INACTIVE"
)

const (
	ReasonOrderConfirmed = "ORDER_CONFIRMED"
	ReasonRedeem         = "REDEEM"
)

// RewardHistory một dòng biến động điểm. Không có unique index
// (customer, order, reason) ở tầng DB — RewardService phải kiểm tra
// lịch sử trước khi ghi.
type RewardHistory struct {
	DTO
	CustomerId uint   `gorm:"index;not null" json:"customerId"`
	OrderId    *uint  `gorm:"index" json:"orderId,omitempty"`
	Points     int    `gorm:"not null" json:"points"` // âm khi đổi điểm
	Reason     string `gorm:"not null" json:"reason"`

	Customer Customer `gorm:"foreignKey:CustomerId" json:"-"`
}

// Voucher mã giảm giá dùng một lần, đổi từ điểm tích lũy
type Voucher struct {
	DTO
	Code            string    `gorm:"uniqueIndex;size:20" json:"code"` // VCH-XXXXXXXX
	CustomerId      uint      `gorm:"index;not null" json:"customerId"`
	DiscountPercent float64   `gorm:"not null" json:"discountPercent"`
	SpentPoints     int       `gorm:"not null" json:"spentPoints"`
	Status          string    `gorm:"not null;default:'ACTIVE'" json:"status"`
	ExpiryDate      time.Time `gorm:"not null" json:"expiryDate"`

	AppliedOrderId *uint `json:"appliedOrderId,omitempty"`

	Customer Customer `gorm:"foreignKey:CustomerId" json:"-"`
}

type RedeemPointsInput struct {
	Points          int     `json:"points" validate:"required,gt=0"`
	DiscountPercent float64 `json:"discountPercent" validate:"required,gt=0,lte=50"`
	ExpiryDays      int     `json:"expiryDays" validate:"omitempty,gt=0"`
}

type ApplyVoucherInput struct {
	Code      string `json:"code" validate:"required"`
	OrderCode string `json:"orderCode" validate:"required"`
}
