package model

type Customer struct {
	DTO
	FullName     string `json:"fullName"`
	Email        string `gorm:"uniqueIndex" validate:"omitempty,email" json:"email"`
	Phone        string `gorm:"size:15" json:"phone"`
	Password     string `json:"-"`
	IsActive     bool   `gorm:"default:true" json:"isActive"`
	RewardPoints int    `gorm:"default:0" json:"rewardPoints"` // Số dư điểm tích lũy hiện tại

	Orders []Order `gorm:"foreignKey:CustomerId" json:"-"`
}

type RegisterCustomerInput struct {
	FullName string `json:"fullName" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
}

type CustomerLoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ChangePasswordInput struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
	RepeatPassword  string `json:"repeatPassword" validate:"required,eqfield=NewPassword"`
}

type ForgotPasswordInput struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordInput struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=6"`
}
