package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jinzhu/copier"

	"spa_manager/constants"
	"spa_manager/database"
	"spa_manager/model"
	"spa_manager/utils"
)

// GetBranches GET /branches
func GetBranches(c *fiber.Ctx) error {
	db := database.DB
	var branches []model.Branch
	if err := db.Where("is_active = ?", true).Order("name asc").Find(&branches).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	var rows []model.BranchResponse
	copier.Copy(&rows, &branches)
	return utils.SuccessResponse(c, fiber.StatusOK, rows)
}

// GetBranchBySlug GET /branches/:slug
func GetBranchBySlug(c *fiber.Ctx) error {
	db := database.DB
	var branch model.Branch
	if err := db.Where("slug = ? AND is_active = ?", c.Params("slug"), true).First(&branch).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, constants.NOT_FOUND, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, branch)
}

// GetSpaServices GET /services
func GetSpaServices(c *fiber.Ctx) error {
	db := database.DB
	condition := db.Where("status = ?", model.StatusActive)

	if branchId := c.QueryInt("branchId"); branchId > 0 {
		condition = condition.Where("branch_id IS NULL OR branch_id = ?", branchId)
	}

	var services []model.SpaService
	if err := condition.Order("name asc").Find(&services).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	var rows []model.SpaServiceResponse
	copier.Copy(&rows, &services)
	return utils.SuccessResponse(c, fiber.StatusOK, rows)
}

// GetProducts GET /products
func GetProducts(c *fiber.Ctx) error {
	db := database.DB
	var products []model.Product
	if err := db.Where("status = ?", model.StatusActive).Order("name asc").Find(&products).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, products)
}
