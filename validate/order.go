package validate

import (
	"github.com/gofiber/fiber/v2"

	"spa_manager/model"
)

func BookService() fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := parseAndValidate[model.BookServiceInput](c)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		// Dịch vụ bắt buộc chọn khung giờ, chặn sớm trước khi vào service
		for _, item := range input.Items {
			if item.ItemType == model.ItemService && item.SlotId == nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Dịch vụ phải kèm khung giờ",
					"field": "items.slotId",
				})
			}
		}

		c.Locals("input", input)
		return c.Next()
	}
}

func ProcessPayment() fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := parseAndValidate[model.ProcessPaymentInput](c)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		c.Locals("input", input)
		return c.Next()
	}
}

func ConfirmPayment() fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := parseAndValidate[model.ConfirmPaymentInput](c)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		c.Locals("input", input)
		return c.Next()
	}
}

func CancelOrder() fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := parseAndValidate[model.CancelOrderInput](c)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		c.Locals("input", input)
		return c.Next()
	}
}
