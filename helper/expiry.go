package helper

import (
	"log"
	"time"

	"marketplace_manager/constants"
	"marketplace_manager/database"
	"marketplace_manager/model"
	"marketplace_manager/utils"

	"github.com/go-co-op/gocron/v2"
	"github.com/robfig/cron/v3"
)

var (
	scheduler        *cron.Cron
	summaryScheduler gocron.Scheduler
)

// sweepMethods chỉ các phương thức qua cổng thanh toán mới có hạn chờ xác
// nhận. COD hợp lệ nằm PENDING cho tới khi giao hàng, không được quét.
var sweepMethods = []string{constants.METHOD_WALLET, constants.METHOD_PAYPAL}

// PaymentSweeper chuyển FAILED các thanh toán cổng còn PENDING quá TTL.
// Lần tạo bị timeout không được tự coi là COMPLETED: bản ghi PENDING nằm
// lại chờ IPN muộn, quá hạn thì Sweep chuyển FAILED qua đúng UPDATE có
// điều kiện như hai kênh xác nhận.
type PaymentSweeper struct {
	Payments PaymentStore
	History  HistoryStore
	TTL      time.Duration
}

// Sweep trả về số thanh toán vừa chuyển FAILED
func (s *PaymentSweeper) Sweep() int {
	cutoff := time.Now().Add(-s.TTL)

	stale, err := s.Payments.FindStalePending(sweepMethods, cutoff)
	if err != nil {
		log.Printf("Lỗi truy vấn thanh toán quá hạn: %v", err)
		return 0
	}

	expired := 0
	for _, p := range stale {
		// Cùng kỷ luật UPDATE có điều kiện: IPN muộn đến trước thì thua race là đúng
		updated, err := s.Payments.UpdateStatusIfNotTerminal(p.OrderId, constants.PAYMENT_FAILED, map[string]interface{}{})
		if err != nil {
			log.Printf("Lỗi chuyển FAILED thanh toán orderId=%d: %v", p.OrderId, err)
			continue
		}
		if !updated {
			continue
		}
		s.History.Append(&model.OrderStatusHistory{
			OrderId: p.OrderId,
			Status:  constants.ORDER_PENDING,
			Note:    "Thanh toán " + p.Method + " quá hạn chờ xác nhận, hệ thống chuyển FAILED",
		})
		utils.PaymentsExpiredTotal.Inc()
		expired++
	}

	if expired > 0 {
		log.Printf("Đã chuyển %d thanh toán quá hạn thành FAILED", expired)
	}
	return expired
}

// StartPaymentScheduler quét thanh toán PENDING quá hạn mỗi 5 phút
func StartPaymentScheduler(ttl time.Duration) {
	sweeper := &PaymentSweeper{
		Payments: database.GormPaymentStore{},
		History:  database.GormHistoryStore{},
		TTL:      ttl,
	}

	scheduler = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
	))

	_, err := scheduler.AddFunc("*/5 * * * *", func() { sweeper.Sweep() })
	if err != nil {
		log.Printf("Lỗi khởi tạo scheduler: %v", err)
		return
	}

	scheduler.Start()
	log.Println("Scheduler quét thanh toán quá hạn đã khởi động (mỗi 5 phút)")
}

// StartReconcileSummaryScheduler mỗi ngày log tổng kết đối soát 24h gần nhất
func StartReconcileSummaryScheduler() {
	s, err := gocron.NewScheduler()
	if err != nil {
		log.Printf("Lỗi khởi tạo scheduler tổng kết: %v", err)
		return
	}
	summaryScheduler = s

	_, err = s.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(0, 5, 0))),
		gocron.NewTask(logReconcileSummary),
	)
	if err != nil {
		log.Printf("Lỗi đăng ký job tổng kết: %v", err)
		return
	}

	s.Start()
	log.Println("Scheduler tổng kết đối soát đã khởi động (hàng ngày)")
}

func logReconcileSummary() {
	since := time.Now().Add(-24 * time.Hour)
	type row struct {
		Status string
		Count  int64
		Amount int64
	}
	var rows []row
	if err := database.DB.Model(&model.Payment{}).
		Select("status, count(*) as count, coalesce(sum(amount),0) as amount").
		Where("updated_at >= ?", since).
		Group("status").
		Scan(&rows).Error; err != nil {
		log.Printf("Lỗi tổng kết đối soát: %v", err)
		return
	}
	for _, r := range rows {
		log.Printf("Tổng kết 24h: %s có %d giao dịch, tổng %d VND", r.Status, r.Count, r.Amount)
	}
}

// StopPaymentSchedulers dừng scheduler khi tắt server
func StopPaymentSchedulers() {
	if scheduler != nil {
		scheduler.Stop()
	}
	if summaryScheduler != nil {
		summaryScheduler.Shutdown()
	}
}
