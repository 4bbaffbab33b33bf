package payment

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"spa_manager/model"
)

// MomoGateway cổng ví điện tử. Trả về payUrl cho client, xác nhận qua
// IPN ký HMAC-SHA256 hoặc qua lời gọi confirm chủ động từ client
// (với các kênh IPN không ổn định).
type MomoGateway struct {
	Config     model.MomoConfig
	httpClient *http.Client
}

func NewMomoGateway(cfg model.MomoConfig) *MomoGateway {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://test-payment.momo.vn"
	}
	return &MomoGateway{
		Config:     cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (g *MomoGateway) Provider() string { return model.ProviderMomo }

func (g *MomoGateway) sign(raw string) string {
	h := hmac.New(sha256.New, []byte(g.Config.SecretKey))
	h.Write([]byte(raw))
	return hex.EncodeToString(h.Sum(nil))
}

func (g *MomoGateway) CreateIntent(req model.IntentRequest) (*model.IntentResponse, error) {
	requestId := "MM-" + uuid.New().String()[:18]
	orderId := requestId // MoMo yêu cầu orderId duy nhất phía partner

	metaJSON, _ := json.Marshal(req.Metadata)
	extraData := base64.StdEncoding.EncodeToString(metaJSON)

	// Thứ tự field trong chuỗi ký là cố định theo tài liệu MoMo
	raw := fmt.Sprintf("accessKey=%s&amount=%d&extraData=%s&ipnUrl=%s&orderId=%s&orderInfo=%s&partnerCode=%s&redirectUrl=%s&requestId=%s&requestType=captureWallet",
		g.Config.AccessKey, req.Amount, extraData, g.Config.IPNURL, orderId,
		req.OrderInfo, g.Config.PartnerCode, g.Config.ReturnURL, requestId)

	body := map[string]any{
		"partnerCode": g.Config.PartnerCode,
		"requestId":   requestId,
		"amount":      req.Amount,
		"orderId":     orderId,
		"orderInfo":   req.OrderInfo,
		"redirectUrl": g.Config.ReturnURL,
		"ipnUrl":      g.Config.IPNURL,
		"requestType": "captureWallet",
		"extraData":   extraData,
		"lang":        "vi",
		"signature":   g.sign(raw),
	}
	payload, _ := json.Marshal(body)

	resp, err := g.httpClient.Post(g.Config.BaseURL+"/v2/gateway/api/create",
		"application/json", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("momo create: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	var out struct {
		ResultCode int    `json:"resultCode"`
		Message    string `json:"message"`
		PayUrl     string `json:"payUrl"`
	}
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, err
	}
	if out.ResultCode != 0 {
		return nil, fmt.Errorf("momo create: code %d: %s", out.ResultCode, out.Message)
	}
	return &model.IntentResponse{IntentId: requestId, PayUrl: out.PayUrl}, nil
}

type momoIPN struct {
	PartnerCode  string `json:"partnerCode"`
	OrderId      string `json:"orderId"`
	RequestId    string `json:"requestId"`
	Amount       int64  `json:"amount"`
	OrderInfo    string `json:"orderInfo"`
	OrderType    string `json:"orderType"`
	TransId      int64  `json:"transId"`
	ResultCode   int    `json:"resultCode"`
	Message      string `json:"message"`
	PayType      string `json:"payType"`
	ResponseTime int64  `json:"responseTime"`
	ExtraData    string `json:"extraData"`
	Signature    string `json:"signature"`
}

// VerifyCallback xác thực IPN: dựng lại chuỗi ký từ body và so HMAC.
// MoMo ký ngay trong payload nên tham số signature riêng không dùng đến.
func (g *MomoGateway) VerifyCallback(payload []byte, _ string) (Event, error) {
	var ipn momoIPN
	if err := json.Unmarshal(payload, &ipn); err != nil {
		return nil, fmt.Errorf("momo ipn payload: %w", err)
	}

	raw := fmt.Sprintf("accessKey=%s&amount=%d&extraData=%s&message=%s&orderId=%s&orderInfo=%s&orderType=%s&partnerCode=%s&payType=%s&requestId=%s&responseTime=%d&resultCode=%d&transId=%d",
		g.Config.AccessKey, ipn.Amount, ipn.ExtraData, ipn.Message, ipn.OrderId,
		ipn.OrderInfo, ipn.OrderType, ipn.PartnerCode, ipn.PayType, ipn.RequestId,
		ipn.ResponseTime, ipn.ResultCode, ipn.TransId)

	if !hmac.Equal([]byte(g.sign(raw)), []byte(ipn.Signature)) {
		return nil, ErrInvalidSignature
	}

	metadata := map[string]string{}
	if decoded, err := base64.StdEncoding.DecodeString(ipn.ExtraData); err == nil {
		_ = json.Unmarshal(decoded, &metadata)
	}

	if ipn.ResultCode == 0 {
		return PaymentSucceeded{
			Provider: model.ProviderMomo,
			IntentId: ipn.RequestId,
			ChargeId: fmt.Sprintf("%d", ipn.TransId),
			OrderId:  parseOrderId(metadata),
			SlotIds:  parseSlotIds(metadata),
			Amount:   ipn.Amount,
		}, nil
	}
	return PaymentFailed{
		Provider: model.ProviderMomo,
		IntentId: ipn.RequestId,
		OrderId:  parseOrderId(metadata),
		Reason:   ipn.Message,
	}, nil
}

func (g *MomoGateway) Refund(intentId string, amount int64, reason string) (*model.RefundResponse, error) {
	requestId := "RF-" + uuid.New().String()[:18]

	raw := fmt.Sprintf("accessKey=%s&amount=%d&description=%s&orderId=%s&partnerCode=%s&requestId=%s&transId=%s",
		g.Config.AccessKey, amount, reason, intentId, g.Config.PartnerCode, requestId, intentId)

	body := map[string]any{
		"partnerCode": g.Config.PartnerCode,
		"requestId":   requestId,
		"orderId":     intentId,
		"amount":      amount,
		"transId":     intentId,
		"description": reason,
		"lang":        "vi",
		"signature":   g.sign(raw),
	}
	payload, _ := json.Marshal(body)

	resp, err := g.httpClient.Post(g.Config.BaseURL+"/v2/gateway/api/refund",
		"application/json", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("momo refund: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	var out struct {
		ResultCode int    `json:"resultCode"`
		Message    string `json:"message"`
	}
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, err
	}
	if out.ResultCode != 0 {
		return nil, fmt.Errorf("%w: code %d: %s", ErrRefundRejected, out.ResultCode, out.Message)
	}
	return &model.RefundResponse{RefundId: requestId, Status: "completed"}, nil
}
