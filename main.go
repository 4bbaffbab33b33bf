package main

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"spa_manager/config"
	"spa_manager/database"
	"spa_manager/handler"
	"spa_manager/helper"
	"spa_manager/model"
	"spa_manager/payment"
	"spa_manager/repository"
	"spa_manager/router"
	"spa_manager/service"
)

func main() {
	app := fiber.New(fiber.Config{
		BodyLimit: 10 * 1024 * 1024,
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:     config.ConfigOr("CORS_ORIGIN", "http://localhost:5173"),
		AllowMethods:     "GET,POST,PUT,DELETE,PATCH,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Authorization, Accept",
		AllowCredentials: true,
		ExposeHeaders:    "Set-Cookie",
		MaxAge:           600,
	}))

	database.ConnectDB()
	db := database.DB

	orderRepo := repository.NewOrderRepository(db)
	slotStore := repository.NewSlotStore(db)
	ledger := repository.NewTransactionLedger(db)
	rewardStore := repository.NewRewardStore(db)

	gateways := map[string]payment.Gateway{
		model.MethodStripe: payment.NewStripeGateway(model.StripeConfig{
			SecretKey:     config.Config("STRIPE_SECRET_KEY"),
			WebhookSecret: config.Config("STRIPE_WEBHOOK_SECRET"),
			BaseURL:       config.ConfigOr("STRIPE_BASE_URL", "https://api.stripe.com"),
		}),
		model.MethodMomo: payment.NewMomoGateway(model.MomoConfig{
			PartnerCode: config.Config("MOMO_PARTNER_CODE"),
			AccessKey:   config.Config("MOMO_ACCESS_KEY"),
			SecretKey:   config.Config("MOMO_SECRET_KEY"),
			BaseURL:     config.ConfigOr("MOMO_BASE_URL", "https://test-payment.momo.vn"),
			ReturnURL:   config.Config("MOMO_RETURN_URL"),
			IPNURL:      config.Config("MOMO_IPN_URL"),
		}),
	}

	notifier := handler.NewRedisSlotNotifier()
	rewardService := service.NewRewardService(db, rewardStore)
	orderService := service.NewOrderService(db, orderRepo, slotStore, ledger, rewardService, gateways, notifier)

	helper.StartSlotScheduler(slotStore, notifier)
	helper.StartVoucherScheduler(rewardService)

	router.SetupRoutes(app, &router.Handlers{
		Orders:   handler.NewOrderHandler(orderService),
		Webhooks: handler.NewWebhookHandler(orderService, gateways),
		Rewards:  handler.NewRewardHandler(rewardService),
		Slots:    handler.NewSlotHandler(db, slotStore),
	})

	log.Fatal(app.Listen(":" + config.ConfigOr("PORT", "8002")))
}
