package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"spa_manager/constants"
	"spa_manager/model"
	"spa_manager/repository"
	"spa_manager/service"
	"spa_manager/utils"
)

type RewardHandler struct {
	rewards *service.RewardService
}

func NewRewardHandler(rewards *service.RewardService) *RewardHandler {
	return &RewardHandler{rewards: rewards}
}

// Balance GET /reward-points/balance
func (h *RewardHandler) Balance(c *fiber.Ctx) error {
	customerId, err := customerIdFromCtx(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Vui lòng đăng nhập", err)
	}
	balance, err := h.rewards.Balance(customerId)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{"balance": balance})
}

// History GET /reward-points/history
func (h *RewardHandler) History(c *fiber.Ctx) error {
	customerId, err := customerIdFromCtx(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Vui lòng đăng nhập", err)
	}
	var pagination model.Pagination
	if err := c.QueryParser(&pagination); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.ERROR_INPUT, err)
	}
	rows, total, err := h.rewards.History(customerId, pagination.Limit, pagination.Page)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, model.ResponseCustom{
		Rows:       rows,
		Limit:      pagination.Limit,
		Page:       pagination.Page,
		TotalCount: total,
	})
}

// Redeem POST /reward-points/redeem
func (h *RewardHandler) Redeem(c *fiber.Ctx) error {
	customerId, err := customerIdFromCtx(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Vui lòng đăng nhập", err)
	}
	input, ok := c.Locals("input").(*model.RedeemPointsInput)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_PARSE_DATA_TO_LOCALS, nil)
	}

	voucher, err := h.rewards.RedeemPoints(customerId, input)
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientPoints) {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), err)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}
	return utils.SuccessResponse(c, fiber.StatusCreated, voucher)
}
