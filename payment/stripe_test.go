package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spa_manager/model"
)

func newTestStripe() *StripeGateway {
	return NewStripeGateway(model.StripeConfig{
		SecretKey:     "sk_test_xxx",
		WebhookSecret: "whsec_test_secret",
	})
}

func stripeSign(t *testing.T, secret string, payload []byte) string {
	t.Helper()
	ts := fmt.Sprintf("%d", time.Now().Unix())
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts + "."))
	mac.Write(payload)
	return fmt.Sprintf("t=%s,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func TestStripeVerifySucceededEvent(t *testing.T) {
	g := newTestStripe()
	payload := []byte(`{
		"type": "payment_intent.succeeded",
		"data": {"object": {
			"id": "pi_123",
			"amount": 450000,
			"latest_charge": "ch_456",
			"metadata": {"order_id": "7", "slot_ids": "3,9"}
		}}
	}`)

	ev, err := g.VerifyCallback(payload, stripeSign(t, "whsec_test_secret", payload))
	require.NoError(t, err)

	succeeded, ok := ev.(PaymentSucceeded)
	require.True(t, ok)
	assert.Equal(t, model.ProviderStripe, succeeded.Provider)
	assert.Equal(t, "pi_123", succeeded.IntentId)
	assert.Equal(t, "ch_456", succeeded.ChargeId)
	assert.Equal(t, uint(7), succeeded.OrderId)
	assert.Equal(t, []uint{3, 9}, succeeded.SlotIds)
	assert.Equal(t, int64(450000), succeeded.Amount)
}

func TestStripeVerifyFailedEvent(t *testing.T) {
	g := newTestStripe()
	payload := []byte(`{
		"type": "payment_intent.payment_failed",
		"data": {"object": {
			"id": "pi_123",
			"metadata": {"order_id": "7"},
			"last_payment_error": {"message": "Your card was declined."}
		}}
	}`)

	ev, err := g.VerifyCallback(payload, stripeSign(t, "whsec_test_secret", payload))
	require.NoError(t, err)

	failed, ok := ev.(PaymentFailed)
	require.True(t, ok)
	assert.Equal(t, "pi_123", failed.IntentId)
	assert.Equal(t, uint(7), failed.OrderId)
	assert.Equal(t, "Your card was declined.", failed.Reason)
}

func TestStripeVerifyRefundEvent(t *testing.T) {
	g := newTestStripe()
	payload := []byte(`{
		"type": "charge.refunded",
		"data": {"object": {
			"id": "ch_456",
			"payment_intent": "pi_123",
			"amount_refunded": 450000
		}}
	}`)

	ev, err := g.VerifyCallback(payload, stripeSign(t, "whsec_test_secret", payload))
	require.NoError(t, err)

	refund, ok := ev.(RefundCompleted)
	require.True(t, ok)
	assert.Equal(t, "pi_123", refund.IntentId)
	assert.Equal(t, "ch_456", refund.RefundId)
	assert.Equal(t, int64(450000), refund.Amount)
}

func TestStripeRejectsBadSignature(t *testing.T) {
	g := newTestStripe()
	payload := []byte(`{"type": "payment_intent.succeeded"}`)

	// Ký bằng secret khác
	_, err := g.VerifyCallback(payload, stripeSign(t, "whsec_wrong", payload))
	assert.ErrorIs(t, err, ErrInvalidSignature)

	// Header thiếu v1
	_, err = g.VerifyCallback(payload, "t=12345")
	assert.ErrorIs(t, err, ErrInvalidSignature)

	// Payload bị sửa sau khi ký
	sig := stripeSign(t, "whsec_test_secret", payload)
	_, err = g.VerifyCallback([]byte(`{"type": "payment_intent.succeeded" }`), sig)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestStripeIgnoresUnknownEventType(t *testing.T) {
	g := newTestStripe()
	payload := []byte(`{"type": "customer.created", "data": {"object": {"id": "cus_1"}}}`)

	ev, err := g.VerifyCallback(payload, stripeSign(t, "whsec_test_secret", payload))
	require.NoError(t, err)
	assert.Nil(t, ev)
}

func TestMetadataForRoundTrip(t *testing.T) {
	meta := MetadataFor(42, []uint{5, 8, 13})
	assert.Equal(t, "42", meta["order_id"])
	assert.Equal(t, "5,8,13", meta["slot_ids"])

	assert.Equal(t, uint(42), parseOrderId(meta))
	assert.Equal(t, []uint{5, 8, 13}, parseSlotIds(meta))

	// Metadata rỗng không panic
	assert.Equal(t, uint(0), parseOrderId(map[string]string{}))
	assert.Empty(t, parseSlotIds(map[string]string{}))
}
