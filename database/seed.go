package database

import (
	"log"

	"github.com/gosimple/slug"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"spa_manager/constants"
	"spa_manager/model"
	"spa_manager/utils"
)

func SeedData(db *gorm.DB) {
	bytes, err := bcrypt.GenerateFromPassword([]byte("123456cn"), 10)
	HashPassword := string(bytes)
	if err != nil {
		HashPassword = "123456cn"
	}
	accounts := []model.Account{
		{Username: "Administration", Password: HashPassword, Active: true, Role: constants.ROLE_ADMIN},
	}

	for _, account := range accounts {
		// Tạo mới nếu không tồn tại
		if err := db.Where(model.Account{Username: account.Username}).FirstOrCreate(&account).Error; err != nil {
			log.Println("failed to seed data for account:", account.Username, "error:", err)
		}
	}

	branches := []model.Branch{
		{Name: "Serenity Spa Quận 1", Address: "12 Lê Lợi, Quận 1", Province: "Hồ Chí Minh", Phone: "0281234567", OpenTime: "08:00", CloseTime: "21:00", IsActive: true},
		{Name: "Serenity Spa Cầu Giấy", Address: "88 Trần Thái Tông, Cầu Giấy", Province: "Hà Nội", Phone: "0241234567", OpenTime: "08:30", CloseTime: "20:30", IsActive: true},
	}
	for _, branch := range branches {
		branch.Slug = slug.Make(branch.Name)
		if err := db.Where(model.Branch{Slug: branch.Slug}).FirstOrCreate(&branch).Error; err != nil {
			log.Println("failed to seed data for branch:", branch.Name, "error:", err)
		}
	}

	services := []model.SpaService{
		{Name: "Massage thư giãn toàn thân", Price: 450000, Duration: 60, Status: model.StatusActive},
		{Name: "Chăm sóc da mặt chuyên sâu", Price: 550000, Duration: 75, Status: model.StatusActive},
		{Name: "Tẩy tế bào chết toàn thân", Price: 350000, Duration: 45, Status: model.StatusActive},
		{Name: "Gội đầu dưỡng sinh", Price: 200000, Duration: 40, Status: model.StatusActive},
	}
	for _, svc := range services {
		svc.Slug = slug.Make(svc.Name)
		if err := db.Where(model.SpaService{Slug: svc.Slug}).FirstOrCreate(&svc).Error; err != nil {
			log.Println("failed to seed data for service:", svc.Name, "error:", err)
		}
	}

	products := []model.Product{
		{Name: "Tinh dầu tràm trà 30ml", Price: 180000, Stock: 50, Status: model.StatusActive},
		{Name: "Mặt nạ dưỡng ẩm (hộp 5)", Price: 250000, Stock: 100, Status: model.StatusActive},
		{Name: "Nến thơm lavender", Price: 150000, Stock: 40, Status: model.StatusActive},
	}
	for _, p := range products {
		p.Slug = slug.Make(p.Name)
		if err := db.Where(model.Product{Slug: p.Slug}).FirstOrCreate(&p).Error; err != nil {
			log.Println("failed to seed data for product:", p.Name, "error:", err)
		}
	}

	staffs := []model.Staff{
		{FullName: "Nguyễn Thị Mai", Phone: "0901111222", Specialty: "Massage trị liệu", IsActive: true, BranchId: 1},
		{FullName: "Trần Văn Hùng", Phone: "0903333444", Specialty: "Chăm sóc da", IsActive: true, BranchId: 1},
		{FullName: "Lê Thu Hằng", Phone: "0905555666", Specialty: "Massage thư giãn", IsActive: true, BranchId: 2},
	}
	for _, st := range staffs {
		if err := db.Where(model.Staff{FullName: st.FullName, BranchId: st.BranchId}).FirstOrCreate(&st).Error; err != nil {
			log.Println("failed to seed data for staff:", st.FullName, "error:", err)
			continue
		}
		// Ca mặc định thứ 2 đến thứ 7
		for weekday := 1; weekday <= 6; weekday++ {
			shift := model.WorkShift{StaffId: st.ID, Weekday: weekday, StartTime: "09:00", EndTime: "17:00"}
			if err := db.Where(model.WorkShift{StaffId: st.ID, Weekday: weekday}).FirstOrCreate(&shift).Error; err != nil {
				log.Println("failed to seed work shift for staff:", st.FullName, "error:", err)
			}
		}
	}

	utils.Logger.Info("Seed dữ liệu hoàn tất")
}
