package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"spa_manager/model"
	"spa_manager/payment"
	"spa_manager/repository"
	"spa_manager/utils"
)

// SlotNotifier đẩy thông báo lịch trống thay đổi cho client realtime.
type SlotNotifier interface {
	SlotChanged(branchId uint)
}

// OrderService điều phối toàn bộ vòng đời đơn hàng: giữ chỗ, mở giao dịch,
// gọi cổng thanh toán, tất toán và hủy/hoàn tiền. Mọi bước ghi nhiều bảng
// đều gói trong db.Transaction, và không bao giờ gọi I/O ngoài trong đó.
type OrderService struct {
	db       *gorm.DB
	orders   *repository.OrderRepository
	slots    *repository.SlotStore
	ledger   *repository.TransactionLedger
	rewards  *RewardService
	gateways map[string]payment.Gateway
	notifier SlotNotifier
}

func NewOrderService(
	db *gorm.DB,
	orders *repository.OrderRepository,
	slots *repository.SlotStore,
	ledger *repository.TransactionLedger,
	rewards *RewardService,
	gateways map[string]payment.Gateway,
	notifier SlotNotifier,
) *OrderService {
	return &OrderService{
		db:       db,
		orders:   orders,
		slots:    slots,
		ledger:   ledger,
		rewards:  rewards,
		gateways: gateways,
		notifier: notifier,
	}
}

func (s *OrderService) gatewayFor(method string) (payment.Gateway, error) {
	gw, ok := s.gateways[method]
	if !ok {
		return nil, ErrUnknownMethod
	}
	return gw, nil
}

func newOrderCode() string {
	return "ORD-" + strings.ToUpper(uuid.NewString()[:8])
}

// BookService tạo đơn + giữ chỗ trong một transaction duy nhất.
// Giá lấy từ catalog tại thời điểm đặt, không tin giá client gửi lên.
// Giữ chỗ thất bại giữa chừng thì rollback trả lại mọi slot đã giữ.
func (s *OrderService) BookService(customerId uint, input *model.BookServiceInput) (*model.Order, error) {
	var order model.Order

	err := s.db.Transaction(func(tx *gorm.DB) error {
		order = model.Order{
			PublicCode:    newOrderCode(),
			CustomerId:    customerId,
			BranchId:      input.BranchId,
			Status:        model.OrderPending,
			PaymentMethod: input.PaymentMethod,
			Note:          input.Note,
		}
		if err := s.orders.Create(tx, &order); err != nil {
			return err
		}

		var total, itemDiscount float64
		var firstStart, lastEnd *time.Time

		for _, it := range input.Items {
			qty := it.Quantity
			if qty <= 0 {
				qty = 1
			}
			item := model.OrderItem{
				OrderId:  order.ID,
				ItemType: it.ItemType,
				ItemId:   it.ItemId,
				Quantity: qty,
				Note:     it.Note,
			}

			switch it.ItemType {
			case model.ItemService:
				var svc model.SpaService
				if err := tx.Where("id = ? AND status = ? AND (branch_id IS NULL OR branch_id = ?)",
					it.ItemId, model.StatusActive, input.BranchId).First(&svc).Error; err != nil {
					if errors.Is(err, gorm.ErrRecordNotFound) {
						return ErrItemUnavailable
					}
					return err
				}
				if it.SlotId == nil {
					return ErrSlotRequired
				}
				slot, err := s.slots.Reserve(tx, *it.SlotId, order.ID)
				if err != nil {
					return err
				}
				if slot.StartTime.Before(time.Now()) {
					return ErrSlotInPast
				}
				item.Name = svc.Name
				item.Price = svc.Price
				item.Discount = svc.Discount
				item.SlotId = &slot.ID
				item.StaffId = &slot.StaffId
				item.StartTime = &slot.StartTime
				item.EndTime = &slot.EndTime
				if firstStart == nil || slot.StartTime.Before(*firstStart) {
					firstStart = &slot.StartTime
				}
				if lastEnd == nil || slot.EndTime.After(*lastEnd) {
					lastEnd = &slot.EndTime
				}
			case model.ItemProduct:
				var prod model.Product
				if err := tx.Where("id = ? AND status = ?", it.ItemId, model.StatusActive).
					First(&prod).Error; err != nil {
					if errors.Is(err, gorm.ErrRecordNotFound) {
						return ErrItemUnavailable
					}
					return err
				}
				item.Name = prod.Name
				item.Price = prod.Price
				item.Discount = prod.Discount
			default:
				return ErrItemUnavailable
			}

			if err := tx.Create(&item).Error; err != nil {
				return err
			}
			// total_price là tổng giá gốc; giảm giá catalog và voucher
			// đều gom vào discount_amount
			total += item.Price * float64(item.Quantity)
			itemDiscount += item.Discount * float64(item.Quantity)
		}

		discount := itemDiscount
		if input.VoucherCode != "" {
			percent, err := s.rewards.ApplyVoucherTx(tx, input.VoucherCode, &order)
			if err != nil {
				return err
			}
			discount += (total - itemDiscount) * percent / 100
			order.VoucherCode = input.VoucherCode
		}
		if discount > total {
			discount = total
		}

		order.TotalPrice = total
		order.DiscountAmount = discount
		order.FinalPrice = total - discount
		order.BookingTime = firstStart
		order.StartTime = firstStart
		order.EndTime = lastEnd

		if err := tx.Model(&model.Order{}).Where("id = ?", order.ID).Updates(map[string]any{
			"total_price":     order.TotalPrice,
			"discount_amount": order.DiscountAmount,
			"final_price":     order.FinalPrice,
			"voucher_code":    order.VoucherCode,
			"booking_time":    order.BookingTime,
			"start_time":      order.StartTime,
			"end_time":        order.EndTime,
		}).Error; err != nil {
			return err
		}

		// Thanh toán tại quầy: xác nhận thẳng, sổ giao dịch vẫn ghi
		// một giao dịch CASH đã tất toán để đối soát.
		if input.PaymentMethod == model.MethodCash {
			return s.confirmCashTx(tx, &order)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifySlotChanged(order.BranchId)
	full, err := s.orders.GetByPublicCode(order.PublicCode)
	if err != nil {
		return nil, err
	}
	s.sendConfirmationEmail(full)
	return full, nil
}

func (s *OrderService) confirmCashTx(tx *gorm.DB, order *model.Order) error {
	slots, err := s.slots.FindByOrder(tx, order.ID)
	if err != nil {
		return err
	}
	slotIds := make([]uint, 0, len(slots))
	for _, sl := range slots {
		slotIds = append(slotIds, sl.ID)
	}
	txn, err := s.ledger.Open(tx, order, model.ProviderCash, model.MethodCash, slotIds)
	if err != nil {
		return err
	}
	if err := s.ledger.AttachIntent(tx, txn.ID, "CASH-"+order.PublicCode, order.PublicCode); err != nil {
		return err
	}
	txn, _, err = s.ledger.FinalizeCompleted(tx, model.ProviderCash, "CASH-"+order.PublicCode, "")
	if err != nil {
		return err
	}
	_, err = s.settleOrderTx(tx, txn, slotIds)
	return err
}

// ProcessPayment mở giao dịch PENDING rồi mới gọi cổng thanh toán, để
// không có khóa DB nào sống qua một call HTTP ra ngoài.
func (s *OrderService) ProcessPayment(customerId uint, orderCode string, input *model.ProcessPaymentInput) (*model.IntentResponse, error) {
	order, err := s.orders.GetByPublicCode(orderCode)
	if err != nil {
		return nil, err
	}
	if order.CustomerId != customerId {
		return nil, ErrOrderNotOwned
	}
	if order.Status != model.OrderPending {
		return nil, ErrOrderNotPending
	}
	gw, err := s.gatewayFor(input.Method)
	if err != nil {
		return nil, err
	}

	var txn *model.Transaction
	var slotIds []uint
	err = s.db.Transaction(func(tx *gorm.DB) error {
		slots, err := s.slots.FindByOrder(tx, order.ID)
		if err != nil {
			return err
		}
		for _, sl := range slots {
			slotIds = append(slotIds, sl.ID)
		}
		txn, err = s.ledger.Open(tx, order, gw.Provider(), input.Method, slotIds)
		return err
	})
	if err != nil {
		return nil, err
	}

	resp, err := gw.CreateIntent(model.IntentRequest{
		Amount:    int64(order.FinalPrice),
		OrderInfo: "Thanh toán đơn hàng " + order.PublicCode,
		Metadata:  payment.MetadataFor(order.ID, slotIds),
	})
	if err != nil {
		// Cổng lỗi: đánh dấu giao dịch FAILED và trả slot về kho,
		// đơn vẫn PENDING để khách đặt lại.
		s.failAndRelease(gw.Provider(), txn.IntentId, err.Error(), slotIds, order.BranchId)
		return nil, fmt.Errorf("%w: %v", ErrPaymentProvider, err)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		return s.ledger.AttachIntent(tx, txn.ID, resp.IntentId, order.PublicCode)
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// ConfirmPayment đường xác nhận chủ động từ client, cho provider không có
// webhook tin cậy. Giao dịch phải thuộc đúng đơn hàng trong path, không
// tin order id client gửi kèm.
func (s *OrderService) ConfirmPayment(customerId uint, orderCode string, input *model.ConfirmPaymentInput) (*model.Order, error) {
	order, err := s.orders.GetByPublicCode(orderCode)
	if err != nil {
		return nil, err
	}
	if order.CustomerId != customerId {
		return nil, ErrOrderNotOwned
	}
	gw, err := s.gatewayFor(input.Method)
	if err != nil {
		return nil, err
	}
	txn, err := s.ledger.FindByIntent(gw.Provider(), input.IntentId)
	if err != nil {
		return nil, err
	}
	if txn.OrderId != order.ID {
		return nil, ErrTransactionMismatch
	}

	meta := repository.DecodeMetadata(txn.Metadata)
	if err := s.applySuccess(payment.PaymentSucceeded{
		Provider: gw.Provider(),
		IntentId: input.IntentId,
		OrderId:  order.ID,
		SlotIds:  meta.SlotIds,
		Amount:   int64(order.FinalPrice),
	}); err != nil {
		return nil, err
	}
	return s.orders.GetByPublicCode(orderCode)
}

// HandleEvent điểm vào duy nhất cho mọi sự kiện thanh toán, webhook hay
// confirm chủ động đều đi qua đây.
func (s *OrderService) HandleEvent(ev payment.Event) error {
	switch e := ev.(type) {
	case nil:
		return nil
	case payment.PaymentSucceeded:
		return s.applySuccess(e)
	case payment.PaymentFailed:
		return s.applyFailure(e)
	case payment.RefundCompleted:
		return s.applyRefund(e)
	default:
		return fmt.Errorf("sự kiện thanh toán không xác định: %T", ev)
	}
}

// applySuccess tất toán: finalize giao dịch trước (ghi có idempotency key),
// replay thì dừng ngay, không side effect nào chạy lại.
func (s *OrderService) applySuccess(e payment.PaymentSucceeded) error {
	var branchId uint
	var confirmed *model.Order
	var lateTxn *model.Transaction

	err := s.db.Transaction(func(tx *gorm.DB) error {
		txn, applied, err := s.ledger.FinalizeCompleted(tx, e.Provider, e.IntentId, e.ChargeId)
		if err != nil {
			return err
		}
		if !applied {
			return nil
		}

		slotIds := e.SlotIds
		if len(slotIds) == 0 {
			slotIds = repository.DecodeMetadata(txn.Metadata).SlotIds
		}
		cancelled, err := s.settleOrderTx(tx, txn, slotIds)
		if err != nil {
			return err
		}
		if cancelled {
			// Tiền về sau khi đơn đã hủy: giữ finalize làm idempotency
			// key, không đụng slot, chuyển sang hoàn tiền sau commit
			lateTxn = txn
			return nil
		}

		order, err := s.orders.GetByID(tx, txn.OrderId)
		if err != nil {
			return err
		}
		branchId = order.BranchId
		confirmed = order
		return nil
	})
	if err != nil {
		return err
	}

	if lateTxn != nil {
		if err := s.refundTransaction(lateTxn, "Đơn đã hủy trước khi thanh toán hoàn tất"); err != nil {
			// Giao dịch giữ COMPLETED để đối soát xử lý tay; vẫn ack
			// webhook, provider retry không giúp được gì ở đây
			utils.Logger.Errorf("Hoàn tiền giao dịch %d sau hủy thất bại: %v", lateTxn.ID, err)
		}
		return nil
	}

	if confirmed != nil {
		s.notifySlotChanged(branchId)
		s.sendConfirmationEmail(confirmed)
	}
	return nil
}

// settleOrderTx các bước sau finalize: chuyển đơn, chốt slot, cộng điểm.
// Tất cả đều idempotent nên an toàn khi retry sau partial failure.
// Trả về cancelled = true khi đơn đã hủy trước đó — caller phải hoàn tiền
// thay vì xác nhận.
func (s *OrderService) settleOrderTx(tx *gorm.DB, txn *model.Transaction, slotIds []uint) (bool, error) {
	now := time.Now()
	rows, err := s.orders.UpdateStatusGuard(tx, txn.OrderId, model.OrderPending, model.OrderConfirmed, map[string]any{
		"confirmed_at":   now,
		"transaction_id": txn.ID,
	})
	if err != nil {
		return false, err
	}
	if rows == 0 {
		order, err := s.orders.GetByID(tx, txn.OrderId)
		if err != nil {
			return false, err
		}
		if order.Status == model.OrderCancelled {
			return true, nil
		}
		utils.Logger.Warnf("Đơn %d không còn ở PENDING khi tất toán giao dịch %d", txn.OrderId, txn.ID)
	}

	for _, slotId := range slotIds {
		if _, err := s.slots.Confirm(tx, slotId, txn.OrderId); err != nil {
			if errors.Is(err, repository.ErrInvalidSlotState) {
				// Slot đã bị sweep giải phóng hoặc đơn khác đang giữ
				utils.Logger.Warnf("Slot %d không còn thuộc đơn %d khi tất toán", slotId, txn.OrderId)
				continue
			}
			return false, err
		}
	}

	order, err := s.orders.GetByID(tx, txn.OrderId)
	if err != nil {
		return false, err
	}
	_, err = s.rewards.AddPoints(tx, order.CustomerId, order.ID,
		PointsForOrder(order), model.ReasonOrderConfirmed)
	return false, err
}

// applyFailure: giao dịch FAILED, trả slot về kho, đơn giữ nguyên PENDING
// để khách thử phương thức khác. Giao dịch đã COMPLETED thì sự kiện failed
// đến muộn là rác out-of-order — không được tháo slot của đơn đã xác nhận.
func (s *OrderService) applyFailure(e payment.PaymentFailed) error {
	var branchId uint
	err := s.db.Transaction(func(tx *gorm.DB) error {
		txn, applied, err := s.ledger.MarkFailed(tx, e.Provider, e.IntentId, e.Reason)
		if err != nil {
			if errors.Is(err, repository.ErrTransactionNotFound) {
				return nil
			}
			return err
		}
		if !applied {
			return nil
		}
		meta := repository.DecodeMetadata(txn.Metadata)
		for _, slotId := range meta.SlotIds {
			if _, err := s.slots.Release(tx, slotId); err != nil &&
				!errors.Is(err, repository.ErrInvalidSlotState) {
				return err
			}
		}
		order, err := s.orders.GetByID(tx, txn.OrderId)
		if err == nil {
			branchId = order.BranchId
		}
		return nil
	})
	if err != nil {
		return err
	}
	if branchId != 0 {
		s.notifySlotChanged(branchId)
	}
	return nil
}

// applyRefund: webhook hoàn tiền từ provider. Giao dịch đã REFUNDED từ
// trước (hủy chủ động) thì đây là replay, bỏ qua.
func (s *OrderService) applyRefund(e payment.RefundCompleted) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		txn, err := s.ledger.FindByIntent(e.Provider, e.IntentId)
		if err != nil {
			if errors.Is(err, repository.ErrTransactionNotFound) {
				return nil
			}
			return err
		}
		if txn.Status == model.TxnRefunded {
			return nil
		}
		return s.ledger.MarkRefunded(tx, txn.ID, e.RefundId)
	})
}

// CancelOrder hai pha: pha DB chuyển đơn sang CANCELLED và trả slot, rồi
// mới gọi hoàn tiền ra ngoài. Hoàn tiền lỗi thì đơn vẫn đã hủy, giao dịch
// giữ COMPLETED để đối soát xử lý tay.
func (s *OrderService) CancelOrder(customerId uint, orderCode string, input *model.CancelOrderInput) (*model.Order, error) {
	order, err := s.orders.GetByPublicCode(orderCode)
	if err != nil {
		return nil, err
	}
	if customerId != 0 && order.CustomerId != customerId {
		return nil, ErrOrderNotOwned
	}

	var completedTxn *model.Transaction
	err = s.db.Transaction(func(tx *gorm.DB) error {
		rows, err := s.orders.UpdateStatusGuardAny(tx, order.ID,
			[]string{model.OrderPending, model.OrderConfirmed, model.OrderProcessing},
			model.OrderCancelled, map[string]any{
				"cancelled_at":  time.Now(),
				"cancel_reason": input.Reason,
			})
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrOrderNotCancellable
		}

		slots, err := s.slots.FindByOrder(tx, order.ID)
		if err != nil {
			return err
		}
		for _, sl := range slots {
			if _, err := s.slots.Release(tx, sl.ID); err != nil &&
				!errors.Is(err, repository.ErrInvalidSlotState) {
				return err
			}
		}

		completedTxn, err = s.ledger.FindCompletedByOrder(tx, order.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notifySlotChanged(order.BranchId)

	if completedTxn != nil {
		if err := s.refundTransaction(completedTxn, input.Reason); err != nil {
			return nil, err
		}
	}
	return s.orders.GetByPublicCode(orderCode)
}

func (s *OrderService) refundTransaction(txn *model.Transaction, reason string) error {
	refundId := ""
	if txn.Provider != model.ProviderCash {
		gw, err := s.gatewayFor(txn.Method)
		if err != nil {
			return err
		}
		refund, err := gw.Refund(txn.IntentId, int64(txn.Amount), reason)
		if err != nil {
			utils.Logger.Errorf("Hoàn tiền giao dịch %d thất bại: %v", txn.ID, err)
			return fmt.Errorf("%w: %v", ErrRefundFailed, err)
		}
		refundId = refund.RefundId
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		return s.ledger.MarkRefunded(tx, txn.ID, refundId)
	})
}

// StartProcessing nhân viên bắt đầu phục vụ.
func (s *OrderService) StartProcessing(orderCode string) (*model.Order, error) {
	order, err := s.orders.GetByPublicCode(orderCode)
	if err != nil {
		return nil, err
	}
	rows, err := s.orders.UpdateStatusGuard(s.db, order.ID,
		model.OrderConfirmed, model.OrderProcessing, nil)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, ErrOrderNotConfirmed
	}
	return s.orders.GetByPublicCode(orderCode)
}

// CompleteOrder khách đã sử dụng dịch vụ. Cộng điểm nếu vì lý do nào đó
// lúc xác nhận chưa cộng (AddPoints tự chặn cộng trùng).
func (s *OrderService) CompleteOrder(orderCode string) (*model.Order, error) {
	order, err := s.orders.GetByPublicCode(orderCode)
	if err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		rows, err := s.orders.UpdateStatusGuardAny(tx, order.ID,
			[]string{model.OrderConfirmed, model.OrderProcessing},
			model.OrderCompleted, map[string]any{"completed_at": time.Now()})
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrOrderNotCompletable
		}
		_, err = s.rewards.AddPoints(tx, order.CustomerId, order.ID,
			PointsForOrder(order), model.ReasonOrderConfirmed)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.orders.GetByPublicCode(orderCode)
}

// ApplyVoucher áp voucher cho đơn PENDING đã tạo, tính lại tổng tiền.
func (s *OrderService) ApplyVoucher(customerId uint, input *model.ApplyVoucherInput) (*model.Order, error) {
	order, err := s.orders.GetByPublicCode(input.OrderCode)
	if err != nil {
		return nil, err
	}
	if order.CustomerId != customerId {
		return nil, ErrOrderNotOwned
	}
	if order.Status != model.OrderPending {
		return nil, ErrOrderNotPending
	}
	if order.VoucherCode != "" {
		return nil, ErrVoucherApplied
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		percent, err := s.rewards.ApplyVoucherTx(tx, input.Code, order)
		if err != nil {
			return err
		}
		// Cộng dồn lên giảm giá catalog đã có, voucher tính trên phần còn lại
		discount := order.DiscountAmount + order.FinalPrice*percent/100
		if discount > order.TotalPrice {
			discount = order.TotalPrice
		}
		return tx.Model(&model.Order{}).Where("id = ?", order.ID).Updates(map[string]any{
			"voucher_code":    input.Code,
			"discount_amount": discount,
			"final_price":     order.TotalPrice - discount,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return s.orders.GetByPublicCode(input.OrderCode)
}

func (s *OrderService) GetOrder(customerId uint, orderCode string) (*model.Order, error) {
	order, err := s.orders.GetByPublicCode(orderCode)
	if err != nil {
		return nil, err
	}
	if customerId != 0 && order.CustomerId != customerId {
		return nil, ErrOrderNotOwned
	}
	return order, nil
}

func (s *OrderService) ListOrders(customerId uint, filter *model.FilterOrderInput) ([]model.Order, int64, error) {
	return s.orders.ListByCustomer(customerId, filter)
}

func (s *OrderService) failAndRelease(provider, intentId, reason string, slotIds []uint, branchId uint) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if _, _, err := s.ledger.MarkFailed(tx, provider, intentId, reason); err != nil {
			return err
		}
		for _, slotId := range slotIds {
			if _, err := s.slots.Release(tx, slotId); err != nil &&
				!errors.Is(err, repository.ErrInvalidSlotState) {
				return err
			}
		}
		return nil
	})
	if err != nil {
		utils.Logger.Errorf("Lỗi dọn giao dịch thất bại %s/%s: %v", provider, intentId, err)
		return
	}
	s.notifySlotChanged(branchId)
}

func (s *OrderService) notifySlotChanged(branchId uint) {
	if s.notifier != nil && branchId != 0 {
		s.notifier.SlotChanged(branchId)
	}
}

func (s *OrderService) sendConfirmationEmail(order *model.Order) {
	if order.Status != model.OrderConfirmed {
		return
	}
	var customer model.Customer
	if err := s.db.First(&customer, order.CustomerId).Error; err != nil || customer.Email == "" {
		return
	}
	bookingTime := ""
	if order.BookingTime != nil {
		bookingTime = order.BookingTime.Format("15:04 02/01/2006")
	}
	names := make([]string, 0, len(order.Items))
	for _, it := range order.Items {
		names = append(names, it.Name)
	}
	utils.SendBookingConfirmationEmail(customer.Email, utils.BookingConfirmationData{
		OrderCode:     order.PublicCode,
		Services:      strings.Join(names, ", "),
		BookingTime:   bookingTime,
		TotalAmount:   order.FinalPrice,
		PaymentMethod: order.PaymentMethod,
	})
}
