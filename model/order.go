package model

import "time"

const (
	OrderPending    = "PENDING"
	OrderConfirmed  = "CONFIRMED"
	OrderProcessing = "PROCESSING"
	OrderCompleted  = "COMPLETED"
	OrderCancelled  = "CANCELLED"
)

const (
	ItemService = "SERVICE"
	ItemProduct = "PRODUCT"
)

const (
	MethodCash   = "CASH"
	MethodStripe = "STRIPE"
	MethodMomo   = "MOMO"
)

type Order struct {
	DTO
	PublicCode     string  `gorm:"uniqueIndex;size:20" json:"publicCode"` // ORD-XXXXXXXX
	CustomerId     uint    `gorm:"index" json:"customerId"`
	BranchId       uint    `json:"branchId"`
	Status         string  `gorm:"not null;default:'PENDING'" json:"status"`
	TotalPrice     float64 `json:"totalPrice"`
	DiscountAmount float64 `json:"discountAmount"`
	FinalPrice     float64 `json:"finalPrice"` // = TotalPrice - DiscountAmount, luôn >= 0
	PaymentMethod  string  `json:"paymentMethod"`
	VoucherCode    string  `gorm:"size:20" json:"voucherCode,omitempty"`
	Note           string  `gorm:"type:text" json:"note"`

	BookingTime *time.Time `json:"bookingTime,omitempty"`
	StartTime   *time.Time `json:"startTime,omitempty"`
	EndTime     *time.Time `json:"endTime,omitempty"`

	TransactionId *uint      `json:"transactionId,omitempty"` // giao dịch đã tất toán đơn
	ConfirmedAt   *time.Time `json:"confirmedAt,omitempty"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
	CancelledAt   *time.Time `json:"cancelledAt,omitempty"`
	CancelReason  string     `json:"cancelReason,omitempty"`

	Customer Customer    `gorm:"foreignKey:CustomerId" json:"-"`
	Branch   Branch      `gorm:"foreignKey:BranchId" json:"-"`
	Items    []OrderItem `gorm:"foreignKey:OrderId" json:"items"`
}

type OrderItem struct {
	DTO
	OrderId  uint    `gorm:"index;not null" json:"orderId"`
	ItemType string  `gorm:"not null" json:"itemType"` // SERVICE | PRODUCT
	ItemId   uint    `gorm:"not null" json:"itemId"`
	Name     string  `json:"name"` // denormalize tại thời điểm đặt
	Price    float64 `json:"price"`
	Discount float64 `json:"discount"`
	Quantity int     `gorm:"default:1" json:"quantity"`
	Note     string  `json:"note"`

	SlotId    *uint      `json:"slotId,omitempty"`
	StaffId   *uint      `json:"staffId,omitempty"`
	StartTime *time.Time `json:"startTime,omitempty"`
	EndTime   *time.Time `json:"endTime,omitempty"`

	Slot *StaffSlot `gorm:"foreignKey:SlotId" json:"-"`
}

type BookingItemInput struct {
	ItemType string `json:"itemType" validate:"required,oneof=SERVICE PRODUCT"`
	ItemId   uint   `json:"itemId" validate:"required,gt=0"`
	Quantity int    `json:"quantity" validate:"omitempty,gt=0"`
	SlotId   *uint  `json:"slotId" validate:"omitempty,gt=0"` // bắt buộc với SERVICE
	Note     string `json:"note"`
}

type BookServiceInput struct {
	BranchId      uint               `json:"branchId" validate:"required,gt=0"`
	Items         []BookingItemInput `json:"items" validate:"required,min=1,dive"`
	PaymentMethod string             `json:"paymentMethod" validate:"required,oneof=CASH STRIPE MOMO"`
	VoucherCode   string             `json:"voucherCode"`
	Note          string             `json:"note"`
}

type ProcessPaymentInput struct {
	Method string `json:"method" validate:"required,oneof=STRIPE MOMO"`
}

type ConfirmPaymentInput struct {
	IntentId string `json:"intentId" validate:"required"`
	Method   string `json:"method" validate:"required,oneof=STRIPE MOMO"`
}

type CancelOrderInput struct {
	Reason string `json:"reason"`
}

type FilterOrderInput struct {
	Pagination
	Status    string     `query:"status" validate:"omitempty,oneof=PENDING CONFIRMED PROCESSING COMPLETED CANCELLED"`
	StartDate *time.Time `query:"startDate"`
	EndDate   *time.Time `query:"endDate"`
}
