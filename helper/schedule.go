package helper

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"spa_manager/model"
	"spa_manager/repository"
	"spa_manager/service"
	"spa_manager/utils"
)

// ReservationTTL thời gian tối đa một slot được giữ ở PENDING trước khi
// bị thu hồi về kho. Giới hạn thiệt hại khi khách bỏ ngang checkout.
const ReservationTTL = 15 * time.Minute

const DefaultSlotDuration = 60 // phút

func parseHHMM(day time.Time, hhmm string) (time.Time, error) {
	parts := strings.Split(hhmm, ":")
	if len(parts) != 2 {
		return time.Time{}, fmt.Errorf("giờ không hợp lệ: %s", hhmm)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return time.Time{}, err
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location()), nil
}

// GenerateSlots sinh slot hàng loạt từ ca làm việc trong tuần của nhân viên.
// Slot trùng khung giờ đã tồn tại sẽ được bỏ qua.
func GenerateSlots(db *gorm.DB, slots *repository.SlotStore, input *model.GenerateSlotsInput) (int, error) {
	startDate, err := time.Parse("2006-01-02", input.StartDate)
	if err != nil {
		return 0, fmt.Errorf("startDate không hợp lệ: %w", err)
	}
	endDate, err := time.Parse("2006-01-02", input.EndDate)
	if err != nil {
		return 0, fmt.Errorf("endDate không hợp lệ: %w", err)
	}
	duration := input.SlotDuration
	if duration <= 0 {
		duration = DefaultSlotDuration
	}

	var staffs []model.Staff
	if err := db.Preload("Shifts").
		Where("branch_id = ? AND is_active = ?", input.BranchId, true).
		Find(&staffs).Error; err != nil {
		return 0, err
	}

	var batch []model.StaffSlot
	for day := startDate; !day.After(endDate); day = day.AddDate(0, 0, 1) {
		weekday := int(day.Weekday())
		for _, staff := range staffs {
			for _, shift := range staff.Shifts {
				if shift.Weekday != weekday {
					continue
				}
				shiftStart, err := parseHHMM(day, shift.StartTime)
				if err != nil {
					return 0, err
				}
				shiftEnd, err := parseHHMM(day, shift.EndTime)
				if err != nil {
					return 0, err
				}
				for t := shiftStart; !t.Add(time.Duration(duration) * time.Minute).After(shiftEnd); t = t.Add(time.Duration(duration) * time.Minute) {
					batch = append(batch, model.StaffSlot{
						StaffId:   staff.ID,
						BranchId:  input.BranchId,
						Date:      day,
						StartTime: t,
						EndTime:   t.Add(time.Duration(duration) * time.Minute),
						Status:    model.SlotAvailable,
					})
				}
			}
		}
	}

	return slots.BulkCreate(batch)
}

var slotScheduler *cron.Cron

// StartSlotScheduler quét slot PENDING quá hạn mỗi 5 phút.
func StartSlotScheduler(slots *repository.SlotStore, notifier service.SlotNotifier) {
	slotScheduler = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
	))

	_, err := slotScheduler.AddFunc("*/5 * * * *", func() {
		count, err := slots.SweepExpiredReservations(ReservationTTL)
		if err != nil {
			utils.Logger.Errorf("Lỗi quét slot giữ chỗ quá hạn: %v", err)
			return
		}
		if count > 0 {
			utils.Logger.Infof("Đã thu hồi %d slot giữ chỗ quá hạn", count)
			if notifier != nil {
				notifier.SlotChanged(0)
			}
		}
	})
	if err != nil {
		utils.Logger.Errorf("Lỗi khởi tạo scheduler slot: %v", err)
		return
	}

	slotScheduler.Start()
	utils.Logger.Info("Scheduler thu hồi slot đã khởi động (mỗi 5 phút)")
}

var voucherScheduler gocron.Scheduler

// StartVoucherScheduler khóa voucher hết hạn lúc 00:05 mỗi ngày.
func StartVoucherScheduler(rewards *service.RewardService) {
	s, err := gocron.NewScheduler(
		gocron.WithLocation(time.FixedZone("ICT", 7*3600)),
	)
	if err != nil {
		utils.Logger.Errorf("Lỗi khởi tạo scheduler voucher: %v", err)
		return
	}

	voucherScheduler = s

	_, err = s.NewJob(
		gocron.DailyJob(
			1,
			gocron.NewAtTimes(
				gocron.NewAtTime(0, 5, 0),
			),
		),
		gocron.NewTask(rewards.SweepExpiredVouchers),
	)
	if err != nil {
		utils.Logger.Errorf("Lỗi đăng ký job quét voucher: %v", err)
		return
	}

	s.Start()
	utils.Logger.Info("Scheduler quét voucher đã khởi động (00:05 ICT)")
}
