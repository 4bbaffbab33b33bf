package validate

import (
	"github.com/gofiber/fiber/v2"

	"spa_manager/model"
)

func GenerateSlots() fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := parseAndValidate[model.GenerateSlotsInput](c)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		c.Locals("input", input)
		return c.Next()
	}
}

func FilterSlots() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var input model.FilterSlotInput
		if err := c.QueryParser(&input); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		if err := validate.Struct(&input); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		c.Locals("input", &input)
		return c.Next()
	}
}
