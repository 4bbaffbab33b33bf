package model

import "time"

const (
	TxnPending   = "PENDING"
	TxnCompleted = "COMPLETED"
	TxnFailed    = "FAILED"
	TxnRefunded  = "REFUNDED"
)

const (
	ProviderStripe = "STRIPE"
	ProviderMomo   = "MOMO"
	ProviderCash   = "CASH"
)

// Transaction một lần thu tiền cho một đơn hàng.
// Cặp (provider, intent_id) là duy nhất — đây là idempotency key
// khi xử lý webhook.
type Transaction struct {
	DTO
	OrderId    uint    `gorm:"index;not null" json:"orderId"`
	CustomerId uint    `gorm:"index" json:"customerId"`
	Provider   string  `gorm:"not null;uniqueIndex:idx_provider_intent" json:"provider"`
	Method     string  `json:"method"`
	Amount     float64 `gorm:"not null" json:"amount"`
	Currency   string  `gorm:"size:3;default:'VND'" json:"currency"`
	Status     string  `gorm:"not null;default:'PENDING'" json:"status"`

	IntentId        string `gorm:"uniqueIndex:idx_provider_intent;size:64" json:"intentId"`
	ChargeId        string `gorm:"size:64" json:"chargeId,omitempty"`
	RefundId        string `gorm:"size:64" json:"refundId,omitempty"`
	ProviderOrderId string `gorm:"size:64" json:"providerOrderId,omitempty"`
	Metadata        string `gorm:"type:text" json:"metadata,omitempty"` // JSON: orderId, slotIds
	Note            string `json:"note,omitempty"`

	CompletedAt *time.Time `json:"completedAt,omitempty"`
	RefundedAt  *time.Time `json:"refundedAt,omitempty"`

	Order Order `gorm:"foreignKey:OrderId" json:"-"`
}
