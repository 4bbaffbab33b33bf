package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"spa_manager/constants"
	"spa_manager/helper"
	"spa_manager/model"
	"spa_manager/repository"
	"spa_manager/service"
	"spa_manager/utils"
)

type SlotHandler struct {
	db    *gorm.DB
	slots *repository.SlotStore
}

func NewSlotHandler(db *gorm.DB, slots *repository.SlotStore) *SlotHandler {
	return &SlotHandler{db: db, slots: slots}
}

// ListAvailable GET /slots
func (h *SlotHandler) ListAvailable(c *fiber.Ctx) error {
	input, ok := c.Locals("input").(*model.FilterSlotInput)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_PARSE_DATA_TO_LOCALS, nil)
	}

	slots, err := h.slots.ListAvailable(input)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	rows := make([]model.SlotResponse, 0, len(slots))
	for _, s := range slots {
		rows = append(rows, model.SlotResponse{
			ID:        s.ID,
			StaffId:   s.StaffId,
			StaffName: s.Staff.FullName,
			StartTime: s.StartTime,
			EndTime:   s.EndTime,
			Status:    s.Status,
		})
	}
	return utils.SuccessResponse(c, fiber.StatusOK, rows)
}

// GenerateSchedule POST /schedules/generate — quản lý chi nhánh
func (h *SlotHandler) GenerateSchedule(c *fiber.Ctx) error {
	_, isAdmin, isManager, _ := helper.GetInfoAccountFromToken(c)
	if !isAdmin && !isManager {
		return utils.ErrorResponse(c, fiber.StatusForbidden, constants.NOT_ADMIN, nil)
	}

	input, ok := c.Locals("input").(*model.GenerateSlotsInput)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_PARSE_DATA_TO_LOCALS, nil)
	}

	created, err := helper.GenerateSlots(h.db, h.slots, input)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), err)
	}
	return utils.SuccessResponse(c, fiber.StatusCreated, fiber.Map{"created": created})
}

// --- Realtime lịch trống qua websocket + redis pub/sub ---

var (
	redisClient = redis.NewClient(&redis.Options{Addr: "localhost:6379"})

	slotClients = make(map[uint]map[*websocket.Conn]bool)
	slotMu      sync.Mutex
)

func slotChannel(branchId uint) string {
	return fmt.Sprintf("branch_slots:%d", branchId)
}

// RedisSlotNotifier fan-out thay đổi lịch trống qua redis để mọi instance
// của service đều đẩy được cho client websocket của mình.
type RedisSlotNotifier struct {
	client *redis.Client
}

func NewRedisSlotNotifier() *RedisSlotNotifier {
	return &RedisSlotNotifier{client: redisClient}
}

var _ service.SlotNotifier = (*RedisSlotNotifier)(nil)

// SlotChanged branchId 0 nghĩa là thay đổi diện rộng (job quét), phát cho
// mọi phòng đang mở.
func (n *RedisSlotNotifier) SlotChanged(branchId uint) {
	payload, _ := json.Marshal(fiber.Map{
		"event":    "slots_changed",
		"branchId": branchId,
		"at":       time.Now().Unix(),
	})
	ctx := context.Background()
	if branchId != 0 {
		n.client.Publish(ctx, slotChannel(branchId), payload)
		return
	}
	slotMu.Lock()
	branchIds := make([]uint, 0, len(slotClients))
	for id := range slotClients {
		branchIds = append(branchIds, id)
	}
	slotMu.Unlock()
	for _, id := range branchIds {
		n.client.Publish(ctx, slotChannel(id), payload)
	}
}

// SlotWebsocket xử lý WS connection theo chi nhánh. branchId đã được
// validate.GetById ép kiểu trước khi upgrade.
func SlotWebsocket(c *websocket.Conn) {
	id, _ := c.Locals("inputId").(int)
	branchId := uint(id)

	// Khi WS disconnect → xoá client
	defer func() {
		slotMu.Lock()
		if slotClients[branchId] != nil {
			delete(slotClients[branchId], c)
		}
		slotMu.Unlock()
		c.Close()
	}()

	// Thêm client mới vào room
	slotMu.Lock()
	if slotClients[branchId] == nil {
		slotClients[branchId] = make(map[*websocket.Conn]bool)
	}
	slotClients[branchId][c] = true
	slotMu.Unlock()

	// Sub kênh Redis
	pubsub := redisClient.Subscribe(context.Background(), slotChannel(branchId))
	defer pubsub.Close()

	// Lắng nghe message từ Redis
	channel := pubsub.Channel()

	for msg := range channel {
		payload := []byte(msg.Payload)

		slotMu.Lock()
		for conn := range slotClients[branchId] {
			// Nếu client lỗi → xoá
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				conn.Close()
				delete(slotClients[branchId], conn)
			}
		}
		slotMu.Unlock()
	}
}
