package router

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"

	"spa_manager/handler"
	"spa_manager/middleware"
	"spa_manager/validate"
)

// Handlers gom các handler được inject từ main, thay cho service singleton.
type Handlers struct {
	Orders   *handler.OrderHandler
	Webhooks *handler.WebhookHandler
	Rewards  *handler.RewardHandler
	Slots    *handler.SlotHandler
}

func SetupRoutes(app *fiber.App, h *Handlers) {
	// Webhook từ provider: ngoài /api, không auth, chữ ký là cơ chế xác thực
	app.Post("/webhooks/stripe", h.Webhooks.StripeWebhook)
	app.Post("/webhooks/momo", h.Webhooks.MomoWebhook)

	api := app.Group("/api", logger.New())
	v1 := api.Group("/v1", logger.New())

	auth := v1.Group("/auth")
	auth.Post("/login", handler.Login)
	auth.Post("/refresh-token", handler.RefreshToken)
	auth.Post("/logout", handler.Logout)

	khachhang := v1.Group("/khach-hang")
	khachhang.Post("/register", validate.RegisterCustomer(), handler.RegisterCustomer)
	khachhang.Post("/login", validate.CustomerLogin(), handler.CustomerLogin)
	khachhang.Post("/refresh-token", handler.RefreshToken)
	khachhang.Get("/me", middleware.OptionalJWT(), middleware.OptionalAuth(), handler.CustomerProfile)
	khachhang.Post("/change-password", middleware.OptionalJWT(), middleware.OptionalAuth(), validate.ChangePassword(), handler.ChangePassword)
	khachhang.Post("/forgot-password", validate.ForgotPassword(), handler.ForgotPassword)
	khachhang.Post("/reset-password", validate.ResetPassword(), handler.ResetPassword)

	branches := v1.Group("/branches")
	branches.Get("/", handler.GetBranches)
	branches.Get("/:slug", handler.GetBranchBySlug)

	v1.Get("/services", handler.GetSpaServices)
	v1.Get("/products", handler.GetProducts)

	slots := v1.Group("/slots")
	slots.Get("/", validate.FilterSlots(), h.Slots.ListAvailable)
	slots.Get("/ws/:branchId", validate.GetById("branchId"), websocket.New(handler.SlotWebsocket))

	schedules := v1.Group("/schedules")
	schedules.Post("/generate", middleware.Protected(), validate.GenerateSlots(), h.Slots.GenerateSchedule)

	orders := v1.Group("/orders", middleware.OptionalJWT(), middleware.OptionalAuth())
	orders.Post("/services", validate.BookService(), h.Orders.CreateBooking)
	orders.Post("/apply-voucher", validate.ApplyVoucher(), h.Orders.ApplyVoucher)
	orders.Get("/", h.Orders.ListOrders)
	orders.Get("/:orderCode", h.Orders.GetOrder)
	orders.Get("/:orderCode/qr", h.Orders.OrderQR)
	orders.Post("/:orderCode/payment", validate.ProcessPayment(), h.Orders.ProcessPayment)
	orders.Post("/:orderCode/payment/confirm", validate.ConfirmPayment(), h.Orders.ConfirmPayment)
	orders.Post("/:orderCode/cancel", validate.CancelOrder(), h.Orders.CancelOrder)
	orders.Post("/:orderCode/process", middleware.Protected(), h.Orders.StartProcessing)
	orders.Post("/:orderCode/complete", middleware.Protected(), h.Orders.CompleteOrder)

	rewards := v1.Group("/reward-points", middleware.OptionalJWT(), middleware.OptionalAuth())
	rewards.Get("/balance", h.Rewards.Balance)
	rewards.Get("/history", h.Rewards.History)
	rewards.Post("/redeem", validate.RedeemPoints(), h.Rewards.Redeem)
	rewards.Post("/apply-voucher", validate.ApplyVoucher(), h.Orders.ApplyVoucher)
}
