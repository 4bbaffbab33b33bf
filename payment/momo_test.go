package payment

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spa_manager/model"
)

func newTestMomo() *MomoGateway {
	return NewMomoGateway(model.MomoConfig{
		PartnerCode: "MOMOTEST",
		AccessKey:   "access_test",
		SecretKey:   "secret_test",
	})
}

// buildIPN dựng body IPN với chữ ký đúng theo thứ tự field của MoMo.
func buildIPN(t *testing.T, g *MomoGateway, resultCode int, metadata map[string]string) []byte {
	t.Helper()
	metaJSON, err := json.Marshal(metadata)
	require.NoError(t, err)

	ipn := momoIPN{
		PartnerCode:  g.Config.PartnerCode,
		OrderId:      "MM-abc",
		RequestId:    "MM-abc",
		Amount:       450000,
		OrderInfo:    "Thanh toan don ORD-TEST",
		OrderType:    "momo_wallet",
		TransId:      2147483647,
		ResultCode:   resultCode,
		Message:      "Thành công.",
		PayType:      "qr",
		ResponseTime: 1700000000000,
		ExtraData:    base64.StdEncoding.EncodeToString(metaJSON),
	}
	if resultCode != 0 {
		ipn.Message = "Giao dịch bị từ chối bởi người dùng."
	}

	raw := fmt.Sprintf("accessKey=%s&amount=%d&extraData=%s&message=%s&orderId=%s&orderInfo=%s&orderType=%s&partnerCode=%s&payType=%s&requestId=%s&responseTime=%d&resultCode=%d&transId=%d",
		g.Config.AccessKey, ipn.Amount, ipn.ExtraData, ipn.Message, ipn.OrderId,
		ipn.OrderInfo, ipn.OrderType, ipn.PartnerCode, ipn.PayType, ipn.RequestId,
		ipn.ResponseTime, ipn.ResultCode, ipn.TransId)
	ipn.Signature = g.sign(raw)

	payload, err := json.Marshal(ipn)
	require.NoError(t, err)
	return payload
}

func TestMomoVerifySuccessIPN(t *testing.T) {
	g := newTestMomo()
	payload := buildIPN(t, g, 0, MetadataFor(7, []uint{3, 9}))

	ev, err := g.VerifyCallback(payload, "")
	require.NoError(t, err)

	succeeded, ok := ev.(PaymentSucceeded)
	require.True(t, ok)
	assert.Equal(t, model.ProviderMomo, succeeded.Provider)
	assert.Equal(t, "MM-abc", succeeded.IntentId)
	assert.Equal(t, "2147483647", succeeded.ChargeId)
	assert.Equal(t, uint(7), succeeded.OrderId)
	assert.Equal(t, []uint{3, 9}, succeeded.SlotIds)
	assert.Equal(t, int64(450000), succeeded.Amount)
}

func TestMomoVerifyFailedIPN(t *testing.T) {
	g := newTestMomo()
	payload := buildIPN(t, g, 1006, MetadataFor(7, []uint{3}))

	ev, err := g.VerifyCallback(payload, "")
	require.NoError(t, err)

	failed, ok := ev.(PaymentFailed)
	require.True(t, ok)
	assert.Equal(t, "MM-abc", failed.IntentId)
	assert.Equal(t, uint(7), failed.OrderId)
	assert.Equal(t, "Giao dịch bị từ chối bởi người dùng.", failed.Reason)
}

func TestMomoRejectsTamperedIPN(t *testing.T) {
	g := newTestMomo()
	payload := buildIPN(t, g, 0, MetadataFor(7, nil))

	// Sửa amount sau khi ký
	var body map[string]any
	require.NoError(t, json.Unmarshal(payload, &body))
	body["amount"] = 1
	tampered, err := json.Marshal(body)
	require.NoError(t, err)

	_, err = g.VerifyCallback(tampered, "")
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestMomoRejectsForeignSignature(t *testing.T) {
	g := newTestMomo()
	other := NewMomoGateway(model.MomoConfig{
		PartnerCode: "MOMOTEST",
		AccessKey:   "access_test",
		SecretKey:   "secret_khac",
	})
	payload := buildIPN(t, other, 0, MetadataFor(7, nil))

	_, err := g.VerifyCallback(payload, "")
	assert.ErrorIs(t, err, ErrInvalidSignature)
}
