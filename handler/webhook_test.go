package handler

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"spa_manager/model"
	"spa_manager/payment"
	"spa_manager/repository"
	"spa_manager/service"
)

const webhookTestSecret = "whsec_test_secret"

type webhookEnv struct {
	app   *fiber.App
	db    *gorm.DB
	order *model.Order
	slot  *model.StaffSlot
}

// newWebhookEnv dựng app fiber với gateway Stripe thật (chỉ phần verify)
// và một đơn PENDING đã giữ slot, giao dịch PENDING gắn intent pi_123.
func newWebhookEnv(t *testing.T) *webhookEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.Customer{}, &model.Branch{}, &model.Staff{}, &model.StaffSlot{},
		&model.Order{}, &model.OrderItem{}, &model.Transaction{},
		&model.RewardHistory{}, &model.Voucher{},
	))

	customer := model.Customer{FullName: "Khách webhook", IsActive: true}
	require.NoError(t, db.Create(&customer).Error)

	start := time.Now().Add(24 * time.Hour)
	slot := model.StaffSlot{
		StaffId: 1, BranchId: 1, Date: start.Truncate(24 * time.Hour),
		StartTime: start, EndTime: start.Add(time.Hour),
		Status: model.SlotAvailable,
	}
	require.NoError(t, db.Create(&slot).Error)

	order := model.Order{
		PublicCode: "ORD-WEBHOOK1", CustomerId: customer.ID, BranchId: 1,
		Status: model.OrderPending, TotalPrice: 450000, FinalPrice: 450000,
		PaymentMethod: model.MethodStripe,
	}
	require.NoError(t, db.Create(&order).Error)

	slots := repository.NewSlotStore(db)
	ledger := repository.NewTransactionLedger(db)
	_, err = slots.Reserve(db, slot.ID, order.ID)
	require.NoError(t, err)

	var txn *model.Transaction
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		txn, err = ledger.Open(tx, &order, model.ProviderStripe, model.MethodStripe, []uint{slot.ID})
		if err != nil {
			return err
		}
		return ledger.AttachIntent(tx, txn.ID, "pi_123", order.PublicCode)
	}))

	rewards := service.NewRewardService(db, repository.NewRewardStore(db))
	stripe := payment.NewStripeGateway(model.StripeConfig{
		SecretKey: "sk_test_xxx", WebhookSecret: webhookTestSecret,
	})
	gateways := map[string]payment.Gateway{model.MethodStripe: stripe}
	orders := service.NewOrderService(
		db, repository.NewOrderRepository(db), slots, ledger, rewards, gateways, nil,
	)

	h := NewWebhookHandler(orders, gateways)
	app := fiber.New()
	app.Post("/webhooks/stripe", h.StripeWebhook)

	return &webhookEnv{app: app, db: db, order: &order, slot: &slot}
}

func (e *webhookEnv) post(t *testing.T, payload []byte, signature string) int {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, "/webhooks/stripe", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set("Stripe-Signature", signature)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	return resp.StatusCode
}

func signStripePayload(payload []byte) string {
	ts := fmt.Sprintf("%d", time.Now().Unix())
	mac := hmac.New(sha256.New, []byte(webhookTestSecret))
	mac.Write([]byte(ts + "."))
	mac.Write(payload)
	return fmt.Sprintf("t=%s,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func successPayload(env *webhookEnv) []byte {
	return []byte(fmt.Sprintf(`{
		"type": "payment_intent.succeeded",
		"data": {"object": {
			"id": "pi_123",
			"amount": 450000,
			"latest_charge": "ch_456",
			"metadata": {"order_id": "%d", "slot_ids": "%d"}
		}}
	}`, env.order.ID, env.slot.ID))
}

func TestStripeWebhookRejectsInvalidSignature(t *testing.T) {
	env := newWebhookEnv(t)
	payload := successPayload(env)

	status := env.post(t, payload, "t=12345,v1=deadbeef")
	assert.Equal(t, fiber.StatusBadRequest, status)

	// Không được đụng vào state
	var order model.Order
	require.NoError(t, env.db.First(&order, env.order.ID).Error)
	assert.Equal(t, model.OrderPending, order.Status)

	var slot model.StaffSlot
	require.NoError(t, env.db.First(&slot, env.slot.ID).Error)
	assert.Equal(t, model.SlotPending, slot.Status)
}

func TestStripeWebhookConfirmsOrder(t *testing.T) {
	env := newWebhookEnv(t)
	payload := successPayload(env)

	status := env.post(t, payload, signStripePayload(payload))
	assert.Equal(t, fiber.StatusOK, status)

	var order model.Order
	require.NoError(t, env.db.First(&order, env.order.ID).Error)
	assert.Equal(t, model.OrderConfirmed, order.Status)
	assert.NotNil(t, order.ConfirmedAt)

	var slot model.StaffSlot
	require.NoError(t, env.db.First(&slot, env.slot.ID).Error)
	assert.Equal(t, model.SlotBooked, slot.Status)

	var txn model.Transaction
	require.NoError(t, env.db.Where("intent_id = ?", "pi_123").First(&txn).Error)
	assert.Equal(t, model.TxnCompleted, txn.Status)
}

func TestStripeWebhookReplayIsAcked(t *testing.T) {
	env := newWebhookEnv(t)
	payload := successPayload(env)

	require.Equal(t, fiber.StatusOK, env.post(t, payload, signStripePayload(payload)))
	// Provider retry cùng sự kiện: vẫn 200, không nhân đôi side effect
	require.Equal(t, fiber.StatusOK, env.post(t, payload, signStripePayload(payload)))

	var historyCount int64
	require.NoError(t, env.db.Model(&model.RewardHistory{}).Count(&historyCount).Error)
	assert.Equal(t, int64(1), historyCount)

	var completed int64
	require.NoError(t, env.db.Model(&model.Transaction{}).
		Where("status = ?", model.TxnCompleted).Count(&completed).Error)
	assert.Equal(t, int64(1), completed)
}

func TestStripeWebhookIgnoresUnknownEvents(t *testing.T) {
	env := newWebhookEnv(t)
	payload := []byte(`{"type": "customer.created", "data": {"object": {"id": "cus_1"}}}`)

	status := env.post(t, payload, signStripePayload(payload))
	assert.Equal(t, fiber.StatusOK, status)
}
