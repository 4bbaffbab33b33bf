package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spa_manager/model"
	"spa_manager/payment"
	"spa_manager/repository"
)

func TestBookServicePricesFromCatalog(t *testing.T) {
	env := newTestEnv(t)
	slot := env.newSlot(t, 24*time.Hour)

	order, err := env.orders.BookService(env.customer.ID, &model.BookServiceInput{
		BranchId:      env.branch.ID,
		PaymentMethod: model.MethodStripe,
		Items: []model.BookingItemInput{
			{ItemType: model.ItemService, ItemId: env.spa.ID, SlotId: &slot.ID},
			{ItemType: model.ItemProduct, ItemId: env.product.ID, Quantity: 2},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, model.OrderPending, order.Status)
	assert.Contains(t, order.PublicCode, "ORD-")
	// Giá lấy từ catalog: 450000 + 2 x 180000
	assert.Equal(t, float64(810000), order.TotalPrice)
	assert.Equal(t, order.TotalPrice-order.DiscountAmount, order.FinalPrice)
	require.Len(t, order.Items, 2)

	var check model.StaffSlot
	require.NoError(t, env.db.First(&check, slot.ID).Error)
	assert.Equal(t, model.SlotPending, check.Status)
	require.NotNil(t, check.OrderId)
	assert.Equal(t, order.ID, *check.OrderId)
}

func TestBookServiceRollbackOnSlotLoss(t *testing.T) {
	env := newTestEnv(t)
	first := env.newSlot(t, 24*time.Hour)
	taken := env.newSlot(t, 26*time.Hour)

	// Slot thứ hai đã có người giữ
	require.NoError(t, env.db.Model(&model.StaffSlot{}).
		Where("id = ?", taken.ID).Update("status", model.SlotPending).Error)

	_, err := env.orders.BookService(env.customer.ID, &model.BookServiceInput{
		BranchId:      env.branch.ID,
		PaymentMethod: model.MethodStripe,
		Items: []model.BookingItemInput{
			{ItemType: model.ItemService, ItemId: env.spa.ID, SlotId: &first.ID},
			{ItemType: model.ItemService, ItemId: env.spa.ID, SlotId: &taken.ID},
		},
	})
	assert.ErrorIs(t, err, repository.ErrSlotUnavailable)

	// Rollback bù trừ: slot thứ nhất phải trở lại AVAILABLE, không có đơn nào sót lại
	var check model.StaffSlot
	require.NoError(t, env.db.First(&check, first.ID).Error)
	assert.Equal(t, model.SlotAvailable, check.Status)
	assert.Nil(t, check.OrderId)

	var orderCount int64
	require.NoError(t, env.db.Model(&model.Order{}).Count(&orderCount).Error)
	assert.Equal(t, int64(0), orderCount)
}

func TestBookServiceCashConfirmsDirectly(t *testing.T) {
	env := newTestEnv(t)
	slot := env.newSlot(t, 24*time.Hour)

	order, err := env.orders.BookService(env.customer.ID, &model.BookServiceInput{
		BranchId:      env.branch.ID,
		PaymentMethod: model.MethodCash,
		Items: []model.BookingItemInput{
			{ItemType: model.ItemService, ItemId: env.spa.ID, SlotId: &slot.ID},
		},
	})
	require.NoError(t, err)

	// Tiền mặt: PENDING → CONFIRMED không qua bước intent
	assert.Equal(t, model.OrderConfirmed, order.Status)
	assert.NotNil(t, order.ConfirmedAt)

	var check model.StaffSlot
	require.NoError(t, env.db.First(&check, slot.ID).Error)
	assert.Equal(t, model.SlotBooked, check.Status)

	// Sổ cái vẫn có giao dịch CASH đã tất toán để đối soát
	var txn model.Transaction
	require.NoError(t, env.db.Where("order_id = ?", order.ID).First(&txn).Error)
	assert.Equal(t, model.ProviderCash, txn.Provider)
	assert.Equal(t, model.TxnCompleted, txn.Status)

	// 450000 / 10000 = 45 điểm, cộng ngay khi xác nhận
	balance, err := env.rewards.Balance(env.customer.ID)
	require.NoError(t, err)
	assert.Equal(t, 45, balance)
}

func TestBookServiceRejectsPastSlot(t *testing.T) {
	env := newTestEnv(t)
	slot := env.newSlot(t, -2*time.Hour)

	_, err := env.orders.BookService(env.customer.ID, &model.BookServiceInput{
		BranchId:      env.branch.ID,
		PaymentMethod: model.MethodStripe,
		Items: []model.BookingItemInput{
			{ItemType: model.ItemService, ItemId: env.spa.ID, SlotId: &slot.ID},
		},
	})
	assert.ErrorIs(t, err, ErrSlotInPast)
}

func TestProcessAndConfirmPaymentFlow(t *testing.T) {
	env := newTestEnv(t)
	slot := env.newSlot(t, 24*time.Hour)
	order := env.bookStripe(t, slot)

	intent, err := env.orders.ProcessPayment(env.customer.ID, order.PublicCode, &model.ProcessPaymentInput{Method: model.MethodStripe})
	require.NoError(t, err)
	assert.Equal(t, "pi_fake_1", intent.IntentId)
	assert.NotEmpty(t, intent.ClientSecret)

	confirmed, err := env.orders.ConfirmPayment(env.customer.ID, order.PublicCode, &model.ConfirmPaymentInput{
		IntentId: "pi_fake_1",
		Method:   model.MethodStripe,
	})
	require.NoError(t, err)
	assert.Equal(t, model.OrderConfirmed, confirmed.Status)
	require.NotNil(t, confirmed.TransactionId)

	var checkSlot model.StaffSlot
	require.NoError(t, env.db.First(&checkSlot, slot.ID).Error)
	assert.Equal(t, model.SlotBooked, checkSlot.Status)

	balance, err := env.rewards.Balance(env.customer.ID)
	require.NoError(t, err)
	assert.Equal(t, 45, balance)
}

func TestConfirmPaymentReplayHasNoSideEffects(t *testing.T) {
	env := newTestEnv(t)
	slot := env.newSlot(t, 24*time.Hour)
	order := env.bookStripe(t, slot)

	_, err := env.orders.ProcessPayment(env.customer.ID, order.PublicCode, &model.ProcessPaymentInput{Method: model.MethodStripe})
	require.NoError(t, err)

	event := payment.PaymentSucceeded{
		Provider: model.ProviderStripe,
		IntentId: "pi_fake_1",
		ChargeId: "ch_1",
	}
	require.NoError(t, env.orders.HandleEvent(event))

	// Webhook gửi lại đúng sự kiện đó
	require.NoError(t, env.orders.HandleEvent(event))
	require.NoError(t, env.orders.HandleEvent(event))

	// Điểm chỉ cộng một lần
	balance, err := env.rewards.Balance(env.customer.ID)
	require.NoError(t, err)
	assert.Equal(t, 45, balance)

	var historyCount int64
	require.NoError(t, env.db.Model(&model.RewardHistory{}).Count(&historyCount).Error)
	assert.Equal(t, int64(1), historyCount)

	// Và chỉ có đúng một giao dịch COMPLETED
	var txnCount int64
	require.NoError(t, env.db.Model(&model.Transaction{}).
		Where("status = ?", model.TxnCompleted).Count(&txnCount).Error)
	assert.Equal(t, int64(1), txnCount)
}

func TestConfirmPaymentChecksOwnershipOfIntent(t *testing.T) {
	env := newTestEnv(t)
	slotA := env.newSlot(t, 24*time.Hour)
	slotB := env.newSlot(t, 26*time.Hour)
	orderA := env.bookStripe(t, slotA)
	orderB := env.bookStripe(t, slotB)

	_, err := env.orders.ProcessPayment(env.customer.ID, orderA.PublicCode, &model.ProcessPaymentInput{Method: model.MethodStripe})
	require.NoError(t, err)

	// Intent của đơn A nhưng path trỏ tới đơn B → từ chối
	_, err = env.orders.ConfirmPayment(env.customer.ID, orderB.PublicCode, &model.ConfirmPaymentInput{
		IntentId: "pi_fake_1",
		Method:   model.MethodStripe,
	})
	assert.ErrorIs(t, err, ErrTransactionMismatch)

	var check model.Order
	require.NoError(t, env.db.First(&check, orderB.ID).Error)
	assert.Equal(t, model.OrderPending, check.Status)
}

func TestFailureEventAfterSuccessKeepsSlotBooked(t *testing.T) {
	env := newTestEnv(t)
	slot := env.newSlot(t, 24*time.Hour)
	order := env.bookStripe(t, slot)

	_, err := env.orders.ProcessPayment(env.customer.ID, order.PublicCode, &model.ProcessPaymentInput{Method: model.MethodStripe})
	require.NoError(t, err)

	require.NoError(t, env.orders.HandleEvent(payment.PaymentSucceeded{
		Provider: model.ProviderStripe, IntentId: "pi_fake_1",
	}))

	// Sự kiện failed đến muộn sau khi intent đã COMPLETED: rác out-of-order,
	// không được tháo slot của đơn đã xác nhận
	require.NoError(t, env.orders.HandleEvent(payment.PaymentFailed{
		Provider: model.ProviderStripe, IntentId: "pi_fake_1", Reason: "card_declined",
	}))

	var checkOrder model.Order
	require.NoError(t, env.db.First(&checkOrder, order.ID).Error)
	assert.Equal(t, model.OrderConfirmed, checkOrder.Status)

	var checkSlot model.StaffSlot
	require.NoError(t, env.db.First(&checkSlot, slot.ID).Error)
	assert.Equal(t, model.SlotBooked, checkSlot.Status)
	require.NotNil(t, checkSlot.OrderId)
	assert.Equal(t, order.ID, *checkSlot.OrderId)

	var txn model.Transaction
	require.NoError(t, env.db.Where("intent_id = ?", "pi_fake_1").First(&txn).Error)
	assert.Equal(t, model.TxnCompleted, txn.Status)
}

func TestSuccessEventAfterCancelRefunds(t *testing.T) {
	env := newTestEnv(t)
	slot := env.newSlot(t, 24*time.Hour)
	order := env.bookStripe(t, slot)

	_, err := env.orders.ProcessPayment(env.customer.ID, order.PublicCode, &model.ProcessPaymentInput{Method: model.MethodStripe})
	require.NoError(t, err)

	_, err = env.orders.CancelOrder(env.customer.ID, order.PublicCode, &model.CancelOrderInput{Reason: "đổi ý"})
	require.NoError(t, err)
	require.Equal(t, 0, env.gateway.refundCalls)

	// Tiền về sau khi đơn đã hủy: ack, hoàn tiền, không đụng slot
	require.NoError(t, env.orders.HandleEvent(payment.PaymentSucceeded{
		Provider: model.ProviderStripe, IntentId: "pi_fake_1",
	}))

	var checkOrder model.Order
	require.NoError(t, env.db.First(&checkOrder, order.ID).Error)
	assert.Equal(t, model.OrderCancelled, checkOrder.Status)

	var checkSlot model.StaffSlot
	require.NoError(t, env.db.First(&checkSlot, slot.ID).Error)
	assert.Equal(t, model.SlotAvailable, checkSlot.Status)

	var txn model.Transaction
	require.NoError(t, env.db.Where("intent_id = ?", "pi_fake_1").First(&txn).Error)
	assert.Equal(t, model.TxnRefunded, txn.Status)
	assert.Equal(t, 1, env.gateway.refundCalls)

	// Provider retry: hội tụ, không hoàn tiền lần hai
	require.NoError(t, env.orders.HandleEvent(payment.PaymentSucceeded{
		Provider: model.ProviderStripe, IntentId: "pi_fake_1",
	}))
	assert.Equal(t, 1, env.gateway.refundCalls)

	balance, err := env.rewards.Balance(env.customer.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, balance)
}

func TestSuccessEventAfterCancelLeavesReReservedSlotAlone(t *testing.T) {
	env := newTestEnv(t)
	slot := env.newSlot(t, 24*time.Hour)
	first := env.bookStripe(t, slot)

	_, err := env.orders.ProcessPayment(env.customer.ID, first.PublicCode, &model.ProcessPaymentInput{Method: model.MethodStripe})
	require.NoError(t, err)
	_, err = env.orders.CancelOrder(env.customer.ID, first.PublicCode, &model.CancelOrderInput{Reason: "đổi ý"})
	require.NoError(t, err)

	// Khách khác giữ lại đúng slot đó
	other := model.Customer{FullName: "Khách đến sau", Email: "khach-den-sau-1@test.local", IsActive: true}
	require.NoError(t, env.db.Create(&other).Error)
	second, err := env.orders.BookService(other.ID, &model.BookServiceInput{
		BranchId:      env.branch.ID,
		PaymentMethod: model.MethodStripe,
		Items: []model.BookingItemInput{
			{ItemType: model.ItemService, ItemId: env.spa.ID, SlotId: &slot.ID},
		},
	})
	require.NoError(t, err)

	require.NoError(t, env.orders.HandleEvent(payment.PaymentSucceeded{
		Provider: model.ProviderStripe, IntentId: "pi_fake_1",
	}))

	// Giữ chỗ của đơn sau nguyên vẹn, không bị chốt hộ
	var checkSlot model.StaffSlot
	require.NoError(t, env.db.First(&checkSlot, slot.ID).Error)
	assert.Equal(t, model.SlotPending, checkSlot.Status)
	require.NotNil(t, checkSlot.OrderId)
	assert.Equal(t, second.ID, *checkSlot.OrderId)
}

func TestSuccessEventAfterSweepDoesNotStealSlot(t *testing.T) {
	env := newTestEnv(t)
	slot := env.newSlot(t, 24*time.Hour)
	first := env.bookStripe(t, slot)

	_, err := env.orders.ProcessPayment(env.customer.ID, first.PublicCode, &model.ProcessPaymentInput{Method: model.MethodStripe})
	require.NoError(t, err)

	// Job quét giữ chỗ quá hạn trả slot về kho trong lúc chờ thanh toán
	_, err = env.orders.slots.Release(env.db, slot.ID)
	require.NoError(t, err)

	other := model.Customer{FullName: "Khách đến sau", Email: "khach-den-sau-2@test.local", IsActive: true}
	require.NoError(t, env.db.Create(&other).Error)
	second, err := env.orders.BookService(other.ID, &model.BookServiceInput{
		BranchId:      env.branch.ID,
		PaymentMethod: model.MethodStripe,
		Items: []model.BookingItemInput{
			{ItemType: model.ItemService, ItemId: env.spa.ID, SlotId: &slot.ID},
		},
	})
	require.NoError(t, err)

	// Webhook đến muộn cho đơn đầu: vẫn ack, nhưng slot đang do đơn sau
	// giữ thì không được chốt hộ
	require.NoError(t, env.orders.HandleEvent(payment.PaymentSucceeded{
		Provider: model.ProviderStripe, IntentId: "pi_fake_1",
	}))

	var checkSlot model.StaffSlot
	require.NoError(t, env.db.First(&checkSlot, slot.ID).Error)
	assert.Equal(t, model.SlotPending, checkSlot.Status)
	require.NotNil(t, checkSlot.OrderId)
	assert.Equal(t, second.ID, *checkSlot.OrderId)
}

func TestPaymentFailureReleasesSlotKeepsOrderPending(t *testing.T) {
	env := newTestEnv(t)
	slot := env.newSlot(t, 24*time.Hour)
	order := env.bookStripe(t, slot)

	_, err := env.orders.ProcessPayment(env.customer.ID, order.PublicCode, &model.ProcessPaymentInput{Method: model.MethodStripe})
	require.NoError(t, err)

	require.NoError(t, env.orders.HandleEvent(payment.PaymentFailed{
		Provider: model.ProviderStripe,
		IntentId: "pi_fake_1",
		Reason:   "card_declined",
	}))

	// Slot trả về kho để khách khác đặt được, đơn vẫn PENDING để thử lại
	var checkSlot model.StaffSlot
	require.NoError(t, env.db.First(&checkSlot, slot.ID).Error)
	assert.Equal(t, model.SlotAvailable, checkSlot.Status)

	var checkOrder model.Order
	require.NoError(t, env.db.First(&checkOrder, order.ID).Error)
	assert.Equal(t, model.OrderPending, checkOrder.Status)

	var txn model.Transaction
	require.NoError(t, env.db.Where("intent_id = ?", "pi_fake_1").First(&txn).Error)
	assert.Equal(t, model.TxnFailed, txn.Status)
}

func TestProcessPaymentGatewayError(t *testing.T) {
	env := newTestEnv(t)
	slot := env.newSlot(t, 24*time.Hour)
	order := env.bookStripe(t, slot)

	env.gateway.createErr = errors.New("stripe tạm thời không phản hồi")

	_, err := env.orders.ProcessPayment(env.customer.ID, order.PublicCode, &model.ProcessPaymentInput{Method: model.MethodStripe})
	assert.ErrorIs(t, err, ErrPaymentProvider)

	// Giao dịch FAILED, slot trả về kho
	var txn model.Transaction
	require.NoError(t, env.db.Where("order_id = ?", order.ID).First(&txn).Error)
	assert.Equal(t, model.TxnFailed, txn.Status)

	var checkSlot model.StaffSlot
	require.NoError(t, env.db.First(&checkSlot, slot.ID).Error)
	assert.Equal(t, model.SlotAvailable, checkSlot.Status)
}

func TestCancelConfirmedOrderRefunds(t *testing.T) {
	env := newTestEnv(t)
	slot := env.newSlot(t, 24*time.Hour)
	order := env.bookStripe(t, slot)

	_, err := env.orders.ProcessPayment(env.customer.ID, order.PublicCode, &model.ProcessPaymentInput{Method: model.MethodStripe})
	require.NoError(t, err)
	_, err = env.orders.ConfirmPayment(env.customer.ID, order.PublicCode, &model.ConfirmPaymentInput{
		IntentId: "pi_fake_1", Method: model.MethodStripe,
	})
	require.NoError(t, err)

	cancelled, err := env.orders.CancelOrder(env.customer.ID, order.PublicCode, &model.CancelOrderInput{Reason: "bận đột xuất"})
	require.NoError(t, err)
	assert.Equal(t, model.OrderCancelled, cancelled.Status)
	assert.Equal(t, "bận đột xuất", cancelled.CancelReason)

	// Slot không còn BOOKED
	var checkSlot model.StaffSlot
	require.NoError(t, env.db.First(&checkSlot, slot.ID).Error)
	assert.Equal(t, model.SlotAvailable, checkSlot.Status)

	// Đúng một lần gọi refund, đúng một giao dịch REFUNDED
	assert.Equal(t, 1, env.gateway.refundCalls)
	assert.Equal(t, []string{"pi_fake_1"}, env.gateway.refundIntents)

	var refunded int64
	require.NoError(t, env.db.Model(&model.Transaction{}).
		Where("order_id = ? AND status = ?", order.ID, model.TxnRefunded).Count(&refunded).Error)
	assert.Equal(t, int64(1), refunded)
}

func TestCancelPendingOrderNoRefund(t *testing.T) {
	env := newTestEnv(t)
	slot := env.newSlot(t, 24*time.Hour)
	order := env.bookStripe(t, slot)

	cancelled, err := env.orders.CancelOrder(env.customer.ID, order.PublicCode, &model.CancelOrderInput{Reason: "đổi ý"})
	require.NoError(t, err)
	assert.Equal(t, model.OrderCancelled, cancelled.Status)
	assert.Equal(t, 0, env.gateway.refundCalls)

	// Hủy lần nữa phải bị chặn (đã terminal)
	_, err = env.orders.CancelOrder(env.customer.ID, order.PublicCode, &model.CancelOrderInput{Reason: "lặp lại"})
	assert.ErrorIs(t, err, ErrOrderNotCancellable)
}

func TestCompleteOrderLifecycle(t *testing.T) {
	env := newTestEnv(t)
	slot := env.newSlot(t, 24*time.Hour)

	order, err := env.orders.BookService(env.customer.ID, &model.BookServiceInput{
		BranchId:      env.branch.ID,
		PaymentMethod: model.MethodCash,
		Items: []model.BookingItemInput{
			{ItemType: model.ItemService, ItemId: env.spa.ID, SlotId: &slot.ID},
		},
	})
	require.NoError(t, err)
	require.Equal(t, model.OrderConfirmed, order.Status)

	processing, err := env.orders.StartProcessing(order.PublicCode)
	require.NoError(t, err)
	assert.Equal(t, model.OrderProcessing, processing.Status)

	completed, err := env.orders.CompleteOrder(order.PublicCode)
	require.NoError(t, err)
	assert.Equal(t, model.OrderCompleted, completed.Status)
	assert.NotNil(t, completed.CompletedAt)

	// Điểm đã cộng lúc xác nhận, hoàn tất không cộng thêm
	balance, err := env.rewards.Balance(env.customer.ID)
	require.NoError(t, err)
	assert.Equal(t, 45, balance)
}

func TestBookServiceFoldsCatalogDiscountIntoDiscountAmount(t *testing.T) {
	env := newTestEnv(t)
	onSale := model.SpaService{
		Name: "Gội đầu dưỡng sinh", Slug: "goi-dau-duong-sinh",
		Price: 300000, Discount: 50000, Duration: 45, Status: model.StatusActive,
	}
	require.NoError(t, env.db.Create(&onSale).Error)
	slot := env.newSlot(t, 24*time.Hour)

	order, err := env.orders.BookService(env.customer.ID, &model.BookServiceInput{
		BranchId:      env.branch.ID,
		PaymentMethod: model.MethodStripe,
		Items: []model.BookingItemInput{
			{ItemType: model.ItemService, ItemId: onSale.ID, SlotId: &slot.ID},
			{ItemType: model.ItemProduct, ItemId: env.product.ID, Quantity: 2},
		},
	})
	require.NoError(t, err)

	// total_price = tổng giá gốc, khuyến mãi catalog nằm trong discount_amount
	assert.Equal(t, float64(660000), order.TotalPrice)
	assert.Equal(t, float64(50000), order.DiscountAmount)
	assert.Equal(t, float64(610000), order.FinalPrice)
}

func TestStaffTransitionsRequireProperState(t *testing.T) {
	env := newTestEnv(t)
	slot := env.newSlot(t, 24*time.Hour)
	order := env.bookStripe(t, slot)

	// Đơn còn PENDING thì chưa phục vụ và chưa hoàn tất được
	_, err := env.orders.StartProcessing(order.PublicCode)
	assert.ErrorIs(t, err, ErrOrderNotConfirmed)

	_, err = env.orders.CompleteOrder(order.PublicCode)
	assert.ErrorIs(t, err, ErrOrderNotCompletable)
}

func TestBookServiceGuardsOwnershipAndStatus(t *testing.T) {
	env := newTestEnv(t)
	slot := env.newSlot(t, 24*time.Hour)
	order := env.bookStripe(t, slot)

	other := model.Customer{FullName: "Người khác", Email: "nguoi-khac@test.local", IsActive: true}
	require.NoError(t, env.db.Create(&other).Error)

	_, err := env.orders.ProcessPayment(other.ID, order.PublicCode, &model.ProcessPaymentInput{Method: model.MethodStripe})
	assert.ErrorIs(t, err, ErrOrderNotOwned)

	_, err = env.orders.ProcessPayment(env.customer.ID, order.PublicCode, &model.ProcessPaymentInput{Method: "PAYPAL"})
	assert.ErrorIs(t, err, ErrUnknownMethod)
}
