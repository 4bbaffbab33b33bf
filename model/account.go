package model

type Account struct {
	DTO
	Username string `gorm:"unique;not null" validate:"required" json:"username"`
	Password string `gorm:"not null" validate:"required" json:"-"`
	Role     string `gorm:"not null" json:"role"` // ADMIN, MANAGER, STAFF
	Active   bool   `gorm:"default:true" json:"active"`

	BranchId *uint   `json:"branchId"`
	Branch   *Branch `gorm:"foreignKey:BranchId" json:"branch,omitempty"`
}

type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type PasswordResetToken struct {
	DTO
	CustomerId uint   `gorm:"index;not null" json:"customerId"`
	Token      string `gorm:"uniqueIndex;size:64" json:"-"`
	ExpiresAt  int64  `json:"expiresAt"`
	Used       bool   `gorm:"default:false" json:"used"`
}
