package model

import "time"

type Staff struct {
	DTO
	FullName  string `gorm:"not null" validate:"required" json:"fullName"`
	Phone     string `gorm:"size:15" json:"phone"`
	Specialty string `json:"specialty"`
	IsActive  bool   `gorm:"default:true" json:"isActive"`

	BranchId uint   `json:"branchId"`
	Branch   Branch `gorm:"foreignKey:BranchId" json:"-"`

	Shifts []WorkShift `gorm:"foreignKey:StaffId" json:"-"`
}

// WorkShift ca làm việc trong tuần, dùng để sinh slot hàng loạt
type WorkShift struct {
	DTO
	StaffId   uint   `gorm:"index;not null" json:"staffId"`
	Weekday   int    `gorm:"not null" validate:"min=0,max=6" json:"weekday"` // 0 = Chủ nhật
	StartTime string `gorm:"size:5;not null" json:"startTime"`               // "09:00"
	EndTime   string `gorm:"size:5;not null" json:"endTime"`                 // "17:00"

	Staff Staff `gorm:"foreignKey:StaffId" json:"-"`
}

type GenerateSlotsInput struct {
	BranchId     uint   `json:"branchId" validate:"required,gt=0"`
	StartDate    string `json:"startDate" validate:"required"` // YYYY-MM-DD
	EndDate      string `json:"endDate" validate:"required"`
	SlotDuration int    `json:"slotDuration" validate:"omitempty,gt=0"` // phút, mặc định 60
}

type FilterSlotInput struct {
	BranchId uint       `query:"branchId" validate:"required,gt=0"`
	StaffId  uint       `query:"staffId" validate:"omitempty,gt=0"`
	Date     *time.Time `query:"date"`
}
