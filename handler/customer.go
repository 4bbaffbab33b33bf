package handler

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/smtp"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jinzhu/copier"
	"github.com/jordan-wright/email"

	"spa_manager/config"
	"spa_manager/constants"
	"spa_manager/database"
	"spa_manager/helper"
	"spa_manager/model"
	"spa_manager/utils"
)

// RegisterCustomer POST /khach-hang/register
func RegisterCustomer(c *fiber.Ctx) error {
	db := database.DB

	// Lấy input từ locals (đã validate ở middleware)
	input, ok := c.Locals("input").(*model.RegisterCustomerInput)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_PARSE_DATA_TO_LOCALS, nil)
	}

	var existing model.Customer
	if err := db.Where("email = ?", input.Email).First(&existing).Error; err == nil {
		return utils.ErrorResponse(c, fiber.StatusConflict, "Email đã tồn tại", nil)
	}
	if err := db.Where("phone = ?", input.Phone).First(&existing).Error; err == nil {
		return utils.ErrorResponse(c, fiber.StatusConflict, "Số điện thoại đã tồn tại", nil)
	}

	hash, err := helper.HashPassword(input.Password)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.CAN_NOT_HASH_PASSWORD, err)
	}

	newCustomer := new(model.Customer)
	copier.Copy(&newCustomer, input)
	newCustomer.Password = hash
	newCustomer.IsActive = true

	if err := db.Create(&newCustomer).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	return utils.SuccessResponse(c, fiber.StatusCreated, fiber.Map{
		"id":       newCustomer.ID,
		"fullName": newCustomer.FullName,
		"email":    newCustomer.Email,
	})
}

// CustomerLogin POST /khach-hang/login
func CustomerLogin(c *fiber.Ctx) error {
	input, ok := c.Locals("input").(*model.CustomerLoginInput)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_PARSE_DATA_TO_LOCALS, nil)
	}

	customer, err := helper.GetCustomerByEmail(input.Email)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}
	if customer == nil {
		return utils.ErrorResponse(c, fiber.StatusConflict, "Email không tồn tại", errors.New("email not exists"))
	}
	if !helper.CheckPasswordHash(input.Password, customer.Password) {
		return utils.ErrorResponse(c, fiber.StatusNotFound, constants.INVALID_PASSWORD, errors.New("password does not match"))
	}
	if !customer.IsActive {
		return utils.ErrorResponse(c, fiber.StatusForbidden, constants.ACCOUNT_NOT_ACTIVE, errors.New("active false"))
	}

	tokenClaim := model.TokenClaim{
		CustomerId: customer.ID,
		Username:   customer.Email,
	}
	token, err := helper.GenerateAccessToken(tokenClaim)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}
	refreshToken, err := helper.GenerateRefreshToken(tokenClaim)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	c.Cookie(&fiber.Cookie{
		Name:     "access_token",
		Value:    token,
		HTTPOnly: true,
		SameSite: "None",
		Secure:   false,
		Path:     "/",
	})
	c.Cookie(&fiber.Cookie{
		Name:     "refresh_token",
		Value:    refreshToken,
		HTTPOnly: true,
		SameSite: "None",
		Secure:   false,
		Path:     "/",
	})

	return c.JSON(fiber.Map{
		"message": "login success",
		"customer": fiber.Map{
			"id":           customer.ID,
			"fullName":     customer.FullName,
			"email":        customer.Email,
			"rewardPoints": customer.RewardPoints,
		},
	})
}

// ChangePassword POST /khach-hang/change-password
func ChangePassword(c *fiber.Ctx) error {
	db := database.DB
	claim := helper.GetInfoCustomerFromToken(c)
	if claim.CustomerId == 0 {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Vui lòng đăng nhập", nil)
	}
	input, ok := c.Locals("input").(*model.ChangePasswordInput)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_PARSE_DATA_TO_LOCALS, nil)
	}

	var customer model.Customer
	if err := db.First(&customer, claim.CustomerId).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Không tìm thấy khách hàng", err)
	}
	if !helper.CheckPasswordHash(input.CurrentPassword, customer.Password) {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Mật khẩu hiện tại không đúng", nil)
	}

	hash, err := helper.HashPassword(input.NewPassword)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.CAN_NOT_HASH_PASSWORD, err)
	}
	customer.Password = hash
	if err := db.Save(&customer).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}
	return c.JSON(fiber.Map{"message": "Đổi mật khẩu thành công"})
}

// ForgotPassword POST /khach-hang/forgot-password
func ForgotPassword(c *fiber.Ctx) error {
	db := database.DB
	input, ok := c.Locals("input").(*model.ForgotPasswordInput)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_PARSE_DATA_TO_LOCALS, nil)
	}

	var customer model.Customer
	if err := db.Where("email = ?", input.Email).First(&customer).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Không tìm thấy khách hàng"})
	}

	// Tạo token khôi phục
	tokenBytes := make([]byte, 16)
	if _, err := rand.Read(tokenBytes); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Không thể tạo token"})
	}
	token := hex.EncodeToString(tokenBytes)

	resetToken := model.PasswordResetToken{
		CustomerId: customer.ID,
		Token:      token,
		ExpiresAt:  time.Now().Add(1 * time.Hour).Unix(), // Hết hạn sau 1 giờ
	}
	if err := db.Create(&resetToken).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Không thể lưu token"})
	}

	// Gửi email với liên kết khôi phục
	resetLink := fmt.Sprintf("%s/reset-password?token=%s", config.ConfigOr("APP_URL", "http://localhost:3000"), token)
	e := email.NewEmail()
	e.From = os.Getenv("SMTP_FROM")
	e.To = []string{input.Email}
	e.Subject = "Khôi phục mật khẩu"
	e.Text = []byte(fmt.Sprintf("Nhấp vào liên kết để đặt lại mật khẩu: %s", resetLink))
	smtpAddr := os.Getenv("SMTP_HOST") + ":" + os.Getenv("SMTP_PORT")
	err := e.Send(smtpAddr, smtp.PlainAuth("", os.Getenv("SMTP_USERNAME"), os.Getenv("SMTP_PASSWORD"), os.Getenv("SMTP_HOST")))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Không thể gửi email"})
	}

	return c.JSON(fiber.Map{"message": "Liên kết khôi phục đã được gửi tới email"})
}

// ResetPassword POST /khach-hang/reset-password
func ResetPassword(c *fiber.Ctx) error {
	db := database.DB
	input, ok := c.Locals("input").(*model.ResetPasswordInput)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_PARSE_DATA_TO_LOCALS, nil)
	}

	var resetToken model.PasswordResetToken
	if err := db.Where("token = ? AND expires_at > ? AND used = ?", input.Token, time.Now().Unix(), false).
		First(&resetToken).Error; err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Token không hợp lệ hoặc đã hết hạn"})
	}

	var customer model.Customer
	if err := db.First(&customer, resetToken.CustomerId).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Không tìm thấy khách hàng"})
	}

	hash, err := helper.HashPassword(input.NewPassword)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.CAN_NOT_HASH_PASSWORD, err)
	}

	customer.Password = hash
	if err := db.Save(&customer).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}
	db.Model(&resetToken).Update("used", true)

	return c.JSON(fiber.Map{"message": "Đặt lại mật khẩu thành công"})
}

// CustomerProfile GET /khach-hang/profile
func CustomerProfile(c *fiber.Ctx) error {
	db := database.DB
	claim := helper.GetInfoCustomerFromToken(c)
	if claim.CustomerId == 0 {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Vui lòng đăng nhập", nil)
	}
	var customer model.Customer
	if err := db.First(&customer, claim.CustomerId).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Không tìm thấy khách hàng", err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, customer)
}
