package model

const StatusActive = "ACTIVE"

// SpaService dịch vụ spa (massage, chăm sóc da...)
type SpaService struct {
	DTO
	Name        string  `gorm:"not null" validate:"required" json:"name"`
	Slug        string  `gorm:"uniqueIndex;size:120" json:"slug"`
	Description string  `gorm:"type:text" json:"description"`
	Price       float64 `gorm:"not null" validate:"required,gt=0" json:"price"`
	Discount    float64 `gorm:"default:0" json:"discount"` // Giảm giá niêm yết trên mỗi lượt
	Duration    int     `gorm:"not null" json:"duration"`  // Thời lượng (phút)
	Status      string  `gorm:"default:'ACTIVE'" json:"status"`

	BranchId *uint   `json:"branchId"`
	Branch   *Branch `gorm:"foreignKey:BranchId" json:"-"`
}

type Product struct {
	DTO
	Name     string  `gorm:"not null" validate:"required" json:"name"`
	Slug     string  `gorm:"uniqueIndex;size:120" json:"slug"`
	Price    float64 `gorm:"not null" validate:"required,gt=0" json:"price"`
	Discount float64 `gorm:"default:0" json:"discount"`
	Stock    int     `gorm:"default:0" json:"stock"`
	Status   string  `gorm:"default:'ACTIVE'" json:"status"`
}

type BranchResponse struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	Address  string `json:"address"`
	Province string `json:"province"`
	Phone    string `json:"phone"`
}

type SpaServiceResponse struct {
	ID       uint    `json:"id"`
	Name     string  `json:"name"`
	Slug     string  `json:"slug"`
	Price    float64 `json:"price"`
	Discount float64 `json:"discount"`
	Duration int     `json:"duration"`
}
