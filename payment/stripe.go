package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"spa_manager/model"
)

// StripeGateway cổng thẻ quốc tế, mô hình push-webhook:
// tạo payment intent, client hoàn tất out-of-band, Stripe bắn
// payment_intent.succeeded / payment_intent.payment_failed về webhook.
type StripeGateway struct {
	Config     model.StripeConfig
	httpClient *http.Client
}

func NewStripeGateway(cfg model.StripeConfig) *StripeGateway {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.stripe.com"
	}
	return &StripeGateway{
		Config:     cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (g *StripeGateway) Provider() string { return model.ProviderStripe }

func (g *StripeGateway) CreateIntent(req model.IntentRequest) (*model.IntentResponse, error) {
	params := url.Values{}
	params.Set("amount", fmt.Sprintf("%d", req.Amount))
	params.Set("currency", "vnd")
	params.Set("description", req.OrderInfo)
	params.Set("automatic_payment_methods[enabled]", "true")
	for k, v := range req.Metadata {
		params.Set(fmt.Sprintf("metadata[%s]", k), v)
	}

	httpReq, err := http.NewRequest(http.MethodPost, g.Config.BaseURL+"/v1/payment_intents",
		strings.NewReader(params.Encode()))
	if err != nil {
		return nil, err
	}
	httpReq.SetBasicAuth(g.Config.SecretKey, "")
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("stripe create intent: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("stripe create intent: status %d: %s", resp.StatusCode, string(body))
	}

	var out struct {
		ID           string `json:"id"`
		ClientSecret string `json:"client_secret"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	return &model.IntentResponse{IntentId: out.ID, ClientSecret: out.ClientSecret}, nil
}

type stripeEvent struct {
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID           string            `json:"id"`
			Amount       int64             `json:"amount"`
			LatestCharge string            `json:"latest_charge"`
			Metadata     map[string]string `json:"metadata"`
			LastPaymentError struct {
				Message string `json:"message"`
			} `json:"last_payment_error"`
			PaymentIntent string `json:"payment_intent"`
			AmountRefunded int64 `json:"amount_refunded"`
		} `json:"object"`
	} `json:"data"`
}

// VerifyCallback kiểm chữ ký header dạng "t=<unix>,v1=<hex>":
// HMAC-SHA256(webhook secret, "<t>.<payload>") phải khớp v1.
func (g *StripeGateway) VerifyCallback(payload []byte, signature string) (Event, error) {
	timestamp, sig := "", ""
	for _, part := range strings.Split(signature, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			timestamp = kv[1]
		case "v1":
			sig = kv[1]
		}
	}
	if timestamp == "" || sig == "" {
		return nil, ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, []byte(g.Config.WebhookSecret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(sig)) {
		return nil, ErrInvalidSignature
	}

	var ev stripeEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, fmt.Errorf("stripe webhook payload: %w", err)
	}

	obj := ev.Data.Object
	switch ev.Type {
	case "payment_intent.succeeded":
		return PaymentSucceeded{
			Provider: model.ProviderStripe,
			IntentId: obj.ID,
			ChargeId: obj.LatestCharge,
			OrderId:  parseOrderId(obj.Metadata),
			SlotIds:  parseSlotIds(obj.Metadata),
			Amount:   obj.Amount,
		}, nil
	case "payment_intent.payment_failed":
		return PaymentFailed{
			Provider: model.ProviderStripe,
			IntentId: obj.ID,
			OrderId:  parseOrderId(obj.Metadata),
			Reason:   obj.LastPaymentError.Message,
		}, nil
	case "charge.refunded":
		return RefundCompleted{
			Provider: model.ProviderStripe,
			IntentId: obj.PaymentIntent,
			RefundId: obj.ID,
			Amount:   obj.AmountRefunded,
		}, nil
	}
	// Sự kiện khác: ack và bỏ qua
	return nil, nil
}

func (g *StripeGateway) Refund(intentId string, amount int64, reason string) (*model.RefundResponse, error) {
	params := url.Values{}
	params.Set("payment_intent", intentId)
	if amount > 0 {
		params.Set("amount", fmt.Sprintf("%d", amount))
	}
	if reason != "" {
		params.Set("metadata[reason]", reason)
	}

	httpReq, err := http.NewRequest(http.MethodPost, g.Config.BaseURL+"/v1/refunds",
		strings.NewReader(params.Encode()))
	if err != nil {
		return nil, err
	}
	httpReq.SetBasicAuth(g.Config.SecretKey, "")
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("stripe refund: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d: %s", ErrRefundRejected, resp.StatusCode, string(body))
	}

	var out struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	return &model.RefundResponse{RefundId: out.ID, Status: out.Status}, nil
}
