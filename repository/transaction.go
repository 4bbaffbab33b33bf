package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"spa_manager/constants"
	"spa_manager/model"
)

var ErrTransactionNotFound = errors.New("giao dịch không tồn tại")

// TransactionLedger là sổ cái các lượt thu tiền — nguồn sự thật duy nhất
// cho câu hỏi "sự kiện thanh toán này đã được xử lý chưa".
// Tra cứu luôn theo cặp (provider, intent_id), không theo order id,
// để Finalize tự nhiên idempotent khi webhook gửi lại.
type TransactionLedger struct {
	db *gorm.DB
}

func NewTransactionLedger(db *gorm.DB) *TransactionLedger {
	return &TransactionLedger{db: db}
}

type TxnMetadata struct {
	OrderId uint   `json:"orderId"`
	SlotIds []uint `json:"slotIds,omitempty"`
}

func EncodeMetadata(orderId uint, slotIds []uint) string {
	b, _ := json.Marshal(TxnMetadata{OrderId: orderId, SlotIds: slotIds})
	return string(b)
}

func DecodeMetadata(raw string) TxnMetadata {
	var m TxnMetadata
	_ = json.Unmarshal([]byte(raw), &m)
	return m
}

// Open mở một giao dịch PENDING cho đơn hàng.
func (l *TransactionLedger) Open(tx *gorm.DB, order *model.Order, provider, method string, slotIds []uint) (*model.Transaction, error) {
	txn := model.Transaction{
		OrderId:    order.ID,
		CustomerId: order.CustomerId,
		Provider:   provider,
		Method:     method,
		Amount:     order.FinalPrice,
		Currency:   constants.CURRENCY_VND,
		Status:     model.TxnPending,
		IntentId:   "TXN-" + strings.ToUpper(uuid.New().String()[:8]),
		Metadata:   EncodeMetadata(order.ID, slotIds),
	}
	if err := tx.Create(&txn).Error; err != nil {
		return nil, err
	}
	return &txn, nil
}

// AttachIntent ghi lại intent id do cổng thanh toán cấp (thay id tạm).
func (l *TransactionLedger) AttachIntent(tx *gorm.DB, txnId uint, intentId, providerOrderId string) error {
	return tx.Model(&model.Transaction{}).
		Where("id = ?", txnId).
		Updates(map[string]any{
			"intent_id":         intentId,
			"provider_order_id": providerOrderId,
		}).Error
}

// FinalizeCompleted chốt giao dịch thành COMPLETED theo (provider, intent_id).
// Trả về applied = false khi giao dịch đã COMPLETED từ trước — caller không
// được tạo thêm side effect nào trong trường hợp đó.
func (l *TransactionLedger) FinalizeCompleted(tx *gorm.DB, provider, intentId, chargeId string) (*model.Transaction, bool, error) {
	now := time.Now()
	result := tx.Model(&model.Transaction{}).
		Where("provider = ? AND intent_id = ? AND status = ?", provider, intentId, model.TxnPending).
		Updates(map[string]any{
			"status":       model.TxnCompleted,
			"charge_id":    chargeId,
			"completed_at": now,
		})
	if result.Error != nil {
		return nil, false, result.Error
	}

	var txn model.Transaction
	if err := tx.Where("provider = ? AND intent_id = ?", provider, intentId).First(&txn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, ErrTransactionNotFound
		}
		return nil, false, err
	}

	if result.RowsAffected == 0 {
		if txn.Status == model.TxnCompleted || txn.Status == model.TxnRefunded {
			// Replay webhook, kể cả khi đã hoàn tiền sau hủy —
			// trả bản ghi cũ, không lỗi
			return &txn, false, nil
		}
		return &txn, false, fmt.Errorf("giao dịch %s ở trạng thái %s, không thể chốt", intentId, txn.Status)
	}
	return &txn, true, nil
}

// MarkFailed đánh dấu giao dịch thất bại. Giao dịch đã COMPLETED
// không bị ghi đè (terminal-once-set); applied = false khi chuyển
// PENDING → FAILED không diễn ra — caller không được dọn state theo.
func (l *TransactionLedger) MarkFailed(tx *gorm.DB, provider, intentId, reason string) (*model.Transaction, bool, error) {
	result := tx.Model(&model.Transaction{}).
		Where("provider = ? AND intent_id = ? AND status = ?", provider, intentId, model.TxnPending).
		Updates(map[string]any{
			"status": model.TxnFailed,
			"note":   reason,
		})
	if result.Error != nil {
		return nil, false, result.Error
	}

	var txn model.Transaction
	if err := tx.Where("provider = ? AND intent_id = ?", provider, intentId).First(&txn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, ErrTransactionNotFound
		}
		return nil, false, err
	}
	return &txn, result.RowsAffected > 0, nil
}

// MarkRefunded ghi nhận hoàn tiền cho giao dịch đã COMPLETED.
func (l *TransactionLedger) MarkRefunded(tx *gorm.DB, txnId uint, refundId string) error {
	now := time.Now()
	result := tx.Model(&model.Transaction{}).
		Where("id = ? AND status = ?", txnId, model.TxnCompleted).
		Updates(map[string]any{
			"status":      model.TxnRefunded,
			"refund_id":   refundId,
			"refunded_at": now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("giao dịch %d chưa COMPLETED, không thể hoàn tiền", txnId)
	}
	return nil
}

func (l *TransactionLedger) FindByIntent(provider, intentId string) (*model.Transaction, error) {
	var txn model.Transaction
	if err := l.db.Where("provider = ? AND intent_id = ?", provider, intentId).First(&txn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return &txn, nil
}

// FindCompletedByOrder tìm giao dịch đã COMPLETED của một đơn (nếu có),
// dùng khi hủy đơn để quyết định hoàn tiền.
func (l *TransactionLedger) FindCompletedByOrder(tx *gorm.DB, orderId uint) (*model.Transaction, error) {
	var txn model.Transaction
	err := tx.Where("order_id = ? AND status = ?", orderId, model.TxnCompleted).First(&txn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &txn, nil
}
