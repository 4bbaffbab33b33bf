package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"spa_manager/constants"
	"spa_manager/helper"
	"spa_manager/model"
	"spa_manager/repository"
	"spa_manager/service"
	"spa_manager/utils"
)

// OrderHandler expose vòng đời đơn hàng qua HTTP. Mọi nghiệp vụ nằm trong
// OrderService, handler chỉ parse request và map lỗi sang status code.
type OrderHandler struct {
	orders *service.OrderService
}

func NewOrderHandler(orders *service.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// mapOrderError dịch lỗi nghiệp vụ sang HTTP status
func mapOrderError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, repository.ErrOrderNotFound),
		errors.Is(err, repository.ErrSlotNotFound),
		errors.Is(err, repository.ErrTransactionNotFound):
		return utils.ErrorResponse(c, fiber.StatusNotFound, constants.NOT_FOUND, err)
	case errors.Is(err, repository.ErrSlotUnavailable):
		// Thua cuộc đua giữ chỗ: client chọn slot khác, không retry slot cũ
		return utils.ErrorResponse(c, fiber.StatusConflict, "Khung giờ vừa có người đặt, vui lòng chọn khung giờ khác", err)
	case errors.Is(err, service.ErrOrderNotOwned),
		errors.Is(err, service.ErrTransactionMismatch):
		return utils.ErrorResponse(c, fiber.StatusForbidden, constants.NOT_ADMIN, err)
	case errors.Is(err, service.ErrOrderNotPending),
		errors.Is(err, service.ErrOrderNotConfirmed),
		errors.Is(err, service.ErrOrderNotCompletable),
		errors.Is(err, service.ErrOrderNotCancellable),
		errors.Is(err, service.ErrVoucherApplied):
		return utils.ErrorResponse(c, fiber.StatusConflict, err.Error(), err)
	case errors.Is(err, service.ErrItemUnavailable),
		errors.Is(err, service.ErrSlotRequired),
		errors.Is(err, service.ErrSlotInPast),
		errors.Is(err, service.ErrUnknownMethod),
		errors.Is(err, service.ErrVoucherInvalid),
		errors.Is(err, service.ErrVoucherExpired),
		errors.Is(err, repository.ErrInsufficientPoints):
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), err)
	case errors.Is(err, service.ErrPaymentProvider),
		errors.Is(err, service.ErrRefundFailed):
		return utils.ErrorResponse(c, fiber.StatusBadGateway, err.Error(), err)
	default:
		utils.Logger.Errorf("Lỗi không mong đợi: %v", err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, nil)
	}
}

func customerIdFromCtx(c *fiber.Ctx) (uint, error) {
	claim := helper.GetInfoCustomerFromToken(c)
	if claim.CustomerId == 0 {
		return 0, errors.New("chưa đăng nhập")
	}
	return claim.CustomerId, nil
}

// CreateBooking POST /orders/services
func (h *OrderHandler) CreateBooking(c *fiber.Ctx) error {
	customerId, err := customerIdFromCtx(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Vui lòng đăng nhập để đặt lịch", err)
	}
	input, ok := c.Locals("input").(*model.BookServiceInput)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_PARSE_DATA_TO_LOCALS, nil)
	}

	order, err := h.orders.BookService(customerId, input)
	if err != nil {
		return mapOrderError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusCreated, order)
}

// ListOrders GET /orders
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	customerId, err := customerIdFromCtx(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Vui lòng đăng nhập", err)
	}

	var filter model.FilterOrderInput
	if err := c.QueryParser(&filter); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.ERROR_INPUT, err)
	}

	orders, total, err := h.orders.ListOrders(customerId, &filter)
	if err != nil {
		return mapOrderError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, model.ResponseCustom{
		Rows:       orders,
		Limit:      filter.Limit,
		Page:       filter.Page,
		TotalCount: total,
	})
}

// GetOrder GET /orders/:orderCode
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	customerId, err := customerIdFromCtx(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Vui lòng đăng nhập", err)
	}
	order, err := h.orders.GetOrder(customerId, c.Params("orderCode"))
	if err != nil {
		return mapOrderError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, order)
}

// ProcessPayment POST /orders/:orderCode/payment
func (h *OrderHandler) ProcessPayment(c *fiber.Ctx) error {
	customerId, err := customerIdFromCtx(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Vui lòng đăng nhập", err)
	}
	input, ok := c.Locals("input").(*model.ProcessPaymentInput)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_PARSE_DATA_TO_LOCALS, nil)
	}

	intent, err := h.orders.ProcessPayment(customerId, c.Params("orderCode"), input)
	if err != nil {
		return mapOrderError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, intent)
}

// ConfirmPayment POST /orders/:orderCode/payment/confirm
func (h *OrderHandler) ConfirmPayment(c *fiber.Ctx) error {
	customerId, err := customerIdFromCtx(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Vui lòng đăng nhập", err)
	}
	input, ok := c.Locals("input").(*model.ConfirmPaymentInput)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_PARSE_DATA_TO_LOCALS, nil)
	}

	order, err := h.orders.ConfirmPayment(customerId, c.Params("orderCode"), input)
	if err != nil {
		return mapOrderError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, order)
}

// CancelOrder POST /orders/:orderCode/cancel
func (h *OrderHandler) CancelOrder(c *fiber.Ctx) error {
	customerId, err := customerIdFromCtx(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Vui lòng đăng nhập", err)
	}
	input, ok := c.Locals("input").(*model.CancelOrderInput)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_PARSE_DATA_TO_LOCALS, nil)
	}

	order, err := h.orders.CancelOrder(customerId, c.Params("orderCode"), input)
	if err != nil {
		return mapOrderError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, order)
}

// StartProcessing POST /orders/:orderCode/process — nhân viên quầy
func (h *OrderHandler) StartProcessing(c *fiber.Ctx) error {
	order, err := h.orders.StartProcessing(c.Params("orderCode"))
	if err != nil {
		return mapOrderError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, order)
}

// CompleteOrder POST /orders/:orderCode/complete — nhân viên quầy
func (h *OrderHandler) CompleteOrder(c *fiber.Ctx) error {
	order, err := h.orders.CompleteOrder(c.Params("orderCode"))
	if err != nil {
		return mapOrderError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, order)
}

// OrderQR GET /orders/:orderCode/qr — mã QR check-in tại quầy
func (h *OrderHandler) OrderQR(c *fiber.Ctx) error {
	customerId, err := customerIdFromCtx(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Vui lòng đăng nhập", err)
	}
	order, err := h.orders.GetOrder(customerId, c.Params("orderCode"))
	if err != nil {
		return mapOrderError(c, err)
	}
	png, err := utils.GenerateQRCode(order.PublicCode, 256)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}
	c.Type("png")
	return c.Send(png)
}

// ApplyVoucher POST /orders/apply-voucher
func (h *OrderHandler) ApplyVoucher(c *fiber.Ctx) error {
	customerId, err := customerIdFromCtx(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Vui lòng đăng nhập", err)
	}
	input, ok := c.Locals("input").(*model.ApplyVoucherInput)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_PARSE_DATA_TO_LOCALS, nil)
	}

	order, err := h.orders.ApplyVoucher(customerId, input)
	if err != nil {
		return mapOrderError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, order)
}
