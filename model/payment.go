package model

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	BaseURL       string
}

type MomoConfig struct {
	PartnerCode string
	AccessKey   string
	SecretKey   string
	BaseURL     string
	ReturnURL   string
	IPNURL      string
}

// IntentRequest yêu cầu mở một lượt thanh toán ở cổng ngoài
type IntentRequest struct {
	Amount    int64             `json:"amount"` // VND, không có phần lẻ
	OrderInfo string            `json:"orderInfo"`
	Metadata  map[string]string `json:"metadata"` // order_id, slot_ids
}

// IntentResponse kết quả mở intent: id do cổng cấp + secret/URL cho client
type IntentResponse struct {
	IntentId     string `json:"intentId"`
	ClientSecret string `json:"clientSecret,omitempty"`
	PayUrl       string `json:"payUrl,omitempty"`
}

type RefundResponse struct {
	RefundId string `json:"refundId"`
	Status   string `json:"status"`
}
