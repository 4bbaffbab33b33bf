package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"spa_manager/model"
	"spa_manager/payment"
	"spa_manager/service"
	"spa_manager/utils"
)

// WebhookHandler nhận thông báo thanh toán từ provider. Quy tắc trả mã:
// 400 cho chữ ký sai (không đụng state), 200 cho cả xử lý lần đầu lẫn
// replay (tránh provider retry bão), 500 chỉ khi lỗi nội bộ thật sự.
type WebhookHandler struct {
	orders   *service.OrderService
	gateways map[string]payment.Gateway
}

func NewWebhookHandler(orders *service.OrderService, gateways map[string]payment.Gateway) *WebhookHandler {
	return &WebhookHandler{orders: orders, gateways: gateways}
}

func (h *WebhookHandler) handle(c *fiber.Ctx, gw payment.Gateway, signature string) error {
	event, err := gw.VerifyCallback(c.Body(), signature)
	if err != nil {
		if errors.Is(err, payment.ErrInvalidSignature) {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Chữ ký không hợp lệ", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Payload không hợp lệ", err)
	}
	if event == nil {
		// Loại sự kiện không quan tâm: ack để provider không gửi lại
		return c.SendStatus(fiber.StatusOK)
	}

	if err := h.orders.HandleEvent(event); err != nil {
		utils.Logger.Errorf("Lỗi xử lý webhook %s: %v", gw.Provider(), err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Lỗi xử lý sự kiện", nil)
	}
	return c.SendStatus(fiber.StatusOK)
}

// StripeWebhook POST /webhooks/stripe
func (h *WebhookHandler) StripeWebhook(c *fiber.Ctx) error {
	gw, ok := h.gateways[model.MethodStripe]
	if !ok {
		return c.SendStatus(fiber.StatusNotFound)
	}
	return h.handle(c, gw, c.Get("Stripe-Signature"))
}

// MomoWebhook POST /webhooks/momo — chữ ký nằm trong body IPN
func (h *WebhookHandler) MomoWebhook(c *fiber.Ctx) error {
	gw, ok := h.gateways[model.MethodMomo]
	if !ok {
		return c.SendStatus(fiber.StatusNotFound)
	}
	return h.handle(c, gw, "")
}
