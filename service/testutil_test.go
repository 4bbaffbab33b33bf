package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"spa_manager/model"
	"spa_manager/payment"
	"spa_manager/repository"
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
		&model.SpaService{},
		&model.Product{},
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

// fakeGateway cổng thanh toán giả cho test orchestrator
type fakeGateway struct {
	provider      string
	nextIntent    string
	createErr     error
	refundErr     error
	refundCalls   int
	refundIntents []string
}

func (g *fakeGateway) Provider() string { return g.provider }

func (g *fakeGateway) CreateIntent(req model.IntentRequest) (*model.IntentResponse, error) {
	if g.createErr != nil {
		return nil, g.createErr
	}
	return &model.IntentResponse{IntentId: g.nextIntent, ClientSecret: g.nextIntent + "_secret"}, nil
}

func (g *fakeGateway) VerifyCallback(payload []byte, signature string) (payment.Event, error) {
	return nil, errors.New("not used in tests")
}

func (g *fakeGateway) Refund(intentId string, amount int64, reason string) (*model.RefundResponse, error) {
	g.refundCalls++
	g.refundIntents = append(g.refundIntents, intentId)
	if g.refundErr != nil {
		return nil, g.refundErr
	}
	return &model.RefundResponse{RefundId: "re_fake_1", Status: "succeeded"}, nil
}

type fakeNotifier struct {
	calls []uint
}

func (n *fakeNotifier) SlotChanged(branchId uint) {
	n.calls = append(n.calls, branchId)
}

type testEnv struct {
	db       *gorm.DB
	orders   *OrderService
	rewards  *RewardService
	gateway  *fakeGateway
	notifier *fakeNotifier
	customer *model.Customer
	branch   *model.Branch
	spa      *model.SpaService
	product  *model.Product
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)

	customer := model.Customer{FullName: "Nguyễn Văn Test", IsActive: true}
	if err := db.Create(&customer).Error; err != nil {
		t.Fatal(err)
	}
	branch := model.Branch{Name: "Chi nhánh test", Slug: "chi-nhanh-test", IsActive: true}
	if err := db.Create(&branch).Error; err != nil {
		t.Fatal(err)
	}
	spa := model.SpaService{Name: "Massage test", Slug: "massage-test", Price: 450000, Duration: 60, Status: model.StatusActive}
	if err := db.Create(&spa).Error; err != nil {
		t.Fatal(err)
	}
	product := model.Product{Name: "Tinh dầu test", Slug: "tinh-dau-test", Price: 180000, Stock: 10, Status: model.StatusActive}
	if err := db.Create(&product).Error; err != nil {
		t.Fatal(err)
	}

	gateway := &fakeGateway{provider: model.ProviderStripe, nextIntent: "pi_fake_1"}
	notifier := &fakeNotifier{}
	rewards := NewRewardService(db, repository.NewRewardStore(db))
	orders := NewOrderService(
		db,
		repository.NewOrderRepository(db),
		repository.NewSlotStore(db),
		repository.NewTransactionLedger(db),
		rewards,
		map[string]payment.Gateway{model.MethodStripe: gateway},
		notifier,
	)

	return &testEnv{
		db: db, orders: orders, rewards: rewards,
		gateway: gateway, notifier: notifier,
		customer: &customer, branch: &branch, spa: &spa, product: &product,
	}
}

func (e *testEnv) newSlot(t *testing.T, offset time.Duration) *model.StaffSlot {
	t.Helper()
	start := time.Now().Add(offset)
	slot := model.StaffSlot{
		StaffId:   1,
		BranchId:  e.branch.ID,
		Date:      start.Truncate(24 * time.Hour),
		StartTime: start,
		EndTime:   start.Add(time.Hour),
		Status:    model.SlotAvailable,
	}
	if err := e.db.Create(&slot).Error; err != nil {
		t.Fatal(err)
	}
	return &slot
}

func (e *testEnv) bookStripe(t *testing.T, slot *model.StaffSlot) *model.Order {
	t.Helper()
	order, err := e.orders.BookService(e.customer.ID, &model.BookServiceInput{
		BranchId:      e.branch.ID,
		PaymentMethod: model.MethodStripe,
		Items: []model.BookingItemInput{
			{ItemType: model.ItemService, ItemId: e.spa.ID, SlotId: &slot.ID},
		},
	})
	if err != nil {
		t.Fatalf("đặt lịch thất bại: %v", err)
	}
	return order
}
