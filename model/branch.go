package model

type Branch struct {
	DTO
	Name     string `gorm:"not null" validate:"required" json:"name"`
	Slug     string `gorm:"uniqueIndex;size:100" json:"slug"`
	Address  string `json:"address"`
	Province string `json:"province"`
	Phone    string `gorm:"size:15" json:"phone"`
	OpenTime string `gorm:"size:5" json:"openTime"`  // "08:00"
	CloseTime string `gorm:"size:5" json:"closeTime"` // "21:00"
	IsActive bool   `gorm:"default:true" json:"isActive"`

	Staffs []Staff `gorm:"foreignKey:BranchId" json:"-"`
}
