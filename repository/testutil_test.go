package repository

import (
	"fmt"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"spa_manager/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("không mở được sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&model.Customer{},
		&model.Branch{},
		&model.Staff{},
		&model.StaffSlot{},
		&model.Order{},
		&model.OrderItem{},
		&model.Transaction{},
		&model.RewardHistory{},
		&model.Voucher{},
	); err != nil {
		t.Fatalf("migrate thất bại: %v", err)
	}
	return db
}

func seedSlot(t *testing.T, db *gorm.DB, status string) *model.StaffSlot {
	t.Helper()
	start := time.Now().Add(24 * time.Hour)
	slot := model.StaffSlot{
		StaffId:   1,
		BranchId:  1,
		Date:      start.Truncate(24 * time.Hour),
		StartTime: start,
		EndTime:   start.Add(time.Hour),
		Status:    status,
	}
	if err := db.Create(&slot).Error; err != nil {
		t.Fatalf("seed slot thất bại: %v", err)
	}
	return &slot
}

func seedOrder(t *testing.T, db *gorm.DB, customerId uint, finalPrice float64) *model.Order {
	t.Helper()
	order := model.Order{
		PublicCode: fmt.Sprintf("ORD-%s-%d", t.Name()[len(t.Name())-4:], time.Now().UnixNano()%100000),
		CustomerId: customerId,
		BranchId:   1,
		Status:     model.OrderPending,
		TotalPrice: finalPrice,
		FinalPrice: finalPrice,
	}
	if err := db.Create(&order).Error; err != nil {
		t.Fatalf("seed order thất bại: %v", err)
	}
	return &order
}
