package validate

import (
	"github.com/gofiber/fiber/v2"

	"spa_manager/model"
)

func RedeemPoints() fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := parseAndValidate[model.RedeemPointsInput](c)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		c.Locals("input", input)
		return c.Next()
	}
}

func ApplyVoucher() fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := parseAndValidate[model.ApplyVoucherInput](c)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		c.Locals("input", input)
		return c.Next()
	}
}
