package payment

import (
	"errors"
	"strconv"
	"strings"

	"spa_manager/model"
)

var (
	ErrInvalidSignature = errors.New("chữ ký callback không hợp lệ")
	ErrRefundRejected   = errors.New("cổng thanh toán từ chối hoàn tiền")
)

// Gateway một cổng thanh toán ngoài. Mỗi provider có payload và mô hình
// xác nhận riêng nhưng đều quy về cùng một bộ Event cho orchestrator.
type Gateway interface {
	Provider() string
	CreateIntent(req model.IntentRequest) (*model.IntentResponse, error)
	// VerifyCallback xác thực chữ ký rồi dịch payload thành Event.
	// Chữ ký sai → ErrInvalidSignature, tuyệt đối không đổi state.
	// Sự kiện không liên quan → (nil, nil), caller ack và bỏ qua.
	VerifyCallback(payload []byte, signature string) (Event, error)
	Refund(intentId string, amount int64, reason string) (*model.RefundResponse, error)
}

// Event là sum type ba biến thể — orchestrator dispatch bằng type switch,
// không switch trên chuỗi "type" của provider.
type Event interface {
	isPaymentEvent()
}

type PaymentSucceeded struct {
	Provider string
	IntentId string
	ChargeId string
	OrderId  uint
	SlotIds  []uint
	Amount   int64
}

type PaymentFailed struct {
	Provider string
	IntentId string
	OrderId  uint
	Reason   string
}

type RefundCompleted struct {
	Provider string
	IntentId string
	RefundId string
	Amount   int64
}

func (PaymentSucceeded) isPaymentEvent() {}
func (PaymentFailed) isPaymentEvent()    {}
func (RefundCompleted) isPaymentEvent()  {}

// Metadata helpers — intent nào cũng phải mang order_id (và slot_ids nếu có)
// để webhook tự phân giải được mà không cần tra cứu phụ.

func MetadataFor(orderId uint, slotIds []uint) map[string]string {
	m := map[string]string{"order_id": strconv.FormatUint(uint64(orderId), 10)}
	if len(slotIds) > 0 {
		parts := make([]string, 0, len(slotIds))
		for _, id := range slotIds {
			parts = append(parts, strconv.FormatUint(uint64(id), 10))
		}
		m["slot_ids"] = strings.Join(parts, ",")
	}
	return m
}

func parseOrderId(m map[string]string) uint {
	v, _ := strconv.ParseUint(m["order_id"], 10, 64)
	return uint(v)
}

func parseSlotIds(m map[string]string) []uint {
	raw := m["slot_ids"]
	if raw == "" {
		return nil
	}
	var ids []uint
	for _, part := range strings.Split(raw, ",") {
		v, err := strconv.ParseUint(strings.TrimSpace(part), 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, uint(v))
	}
	return ids
}
