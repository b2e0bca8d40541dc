package helper

import (
	"log"
	"strconv"
	"time"

	"marketplace_manager/constants"
	"marketplace_manager/model"
	"marketplace_manager/utils"
)

// PaymentStore cổng persistence cho Payment. Bản GORM nằm ở package database;
// test dùng fake in-memory.
type PaymentStore interface {
	FindByOrderId(orderId uint) (*model.Payment, error) // (nil, nil) nếu không có
	FindByTransactionId(transId string) (*model.Payment, error)
	Save(p *model.Payment) error
	// UpdateStatusIfNotTerminal cập nhật có điều kiện ngay tại tầng DB
	// (WHERE status chưa terminal). Trả về false nếu không còn dòng nào
	// để cập nhật, tức là kênh kia đã chốt trước.
	UpdateStatusIfNotTerminal(orderId uint, newStatus string, fields map[string]interface{}) (bool, error)
	// FindStalePending liệt kê thanh toán PENDING của các phương thức cho
	// trước đã quá cutoff, phục vụ job quét quá hạn
	FindStalePending(methods []string, cutoff time.Time) ([]model.Payment, error)
}

type OrderStore interface {
	FindById(orderId uint) (*model.Order, error) // (nil, nil) nếu không có
	UpdateStatus(orderId uint, status string, paidAt *time.Time) error
}

type HistoryStore interface {
	Append(entry *model.OrderStatusHistory) error
}

// StatusPublisher đẩy trạng thái realtime (redis pub/sub), có thể nil
type StatusPublisher interface {
	PublishPaymentStatus(orderId uint, status, transId string)
}

// ConfirmationMailer gửi email xác nhận, có thể nil
type ConfirmationMailer interface {
	SendPaymentConfirmation(order model.Order, payment model.Payment)
}

// Kết cục của một lần đối soát
const (
	OutcomeCompleted   = "COMPLETED"
	OutcomeAlreadyDone = "ALREADY_PROCESSED"
	OutcomeDeclined    = "DECLINED"
	OutcomeRejected    = "REJECTED" // lỗi an ninh: sai chữ ký, sai tiền, id không phân giải được
	OutcomeError       = "ERROR"    // lỗi tạm thời phía mình, provider nên retry
)

type ReconcileResult struct {
	Outcome       string `json:"outcome"`
	OrderId       uint   `json:"orderId,omitempty"`
	TransactionId string `json:"transactionId,omitempty"`
	// Status trạng thái thanh toán sau đối soát; với OutcomeAlreadyDone cho
	// biết kết cục terminal thật sự (COMPLETED hay FAILED) để boundary không
	// báo thành công cho một thanh toán đã bị chuyển FAILED
	Status        string `json:"status,omitempty"`
	Message       string `json:"message"`
	Updated       bool   `json:"updated"`
}

// Reconciler máy trạng thái đối soát thanh toán. Cả hai kênh xác nhận
// (redirect và IPN) và bước execute của cổng PayPal đều đi qua đây;
// chống double-apply bằng UPDATE có điều kiện ở tầng DB, không phải
// read-then-write ở tầng ứng dụng.
type Reconciler struct {
	Payments PaymentStore
	Orders   OrderStore
	History  HistoryStore
	Secret   string // secret key ví, dùng kiểm chữ ký bản tin xác nhận
	Events   StatusPublisher
	Mailer   ConfirmationMailer
}

// Confirm xử lý một bản tin xác nhận từ ví, bất kể kênh nào đưa tới
func (r *Reconciler) Confirm(conf *model.MoMoConfirmation, channel string) ReconcileResult {
	// Provider báo thất bại: không phải sự kiện đã xác thực, không đụng vào DB
	if conf.ErrorCode != "0" {
		ge := MapMoMoError(conf.ErrorCode, conf.Message)
		log.Printf("Thanh toán thất bại từ %s: code=%s category=%s orderId=%s", channel, ge.Code, ge.Category, conf.OrderId)
		utils.PaymentsDeclinedTotal.WithLabelValues(channel, ge.Category).Inc()
		return ReconcileResult{Outcome: OutcomeDeclined, Message: ge.Message}
	}

	canonical := BuildCanonicalString(conf.CanonicalPairs())
	if !VerifyHMAC(canonical, r.Secret, conf.Signature) {
		log.Printf("⚠️ SAI CHỮ KÝ xác nhận từ %s: orderId=%s transId=%s", channel, conf.OrderId, conf.TransId)
		utils.PaymentsRejectedTotal.WithLabelValues(channel, "bad_signature").Inc()
		return ReconcileResult{Outcome: OutcomeRejected, Message: "Chữ ký không hợp lệ"}
	}

	orderId, ok := DecodeOrderID(conf.OrderId)
	if !ok {
		log.Printf("⚠️ Không phân giải được mã đơn từ %s: %q", channel, conf.OrderId)
		utils.PaymentsRejectedTotal.WithLabelValues(channel, "bad_order_id").Inc()
		return ReconcileResult{Outcome: OutcomeRejected, Message: "Mã đơn hàng không hợp lệ"}
	}

	amount, err := strconv.ParseInt(conf.Amount, 10, 64)
	if err != nil || amount <= 0 {
		utils.PaymentsRejectedTotal.WithLabelValues(channel, "bad_amount").Inc()
		return ReconcileResult{Outcome: OutcomeRejected, OrderId: orderId, Message: "Số tiền không hợp lệ"}
	}

	return r.Complete(orderId, conf.TransId, amount, channel, nil)
}

// Complete chuyển thanh toán sang COMPLETED đúng một lần.
// Gọi lại với cùng input là no-op an toàn. extra cho phép adapter lưu thêm
// trường tương quan (payer_id, capture_id) trong cùng một UPDATE.
func (r *Reconciler) Complete(orderId uint, transId string, amount int64, channel string, extra map[string]interface{}) ReconcileResult {
	payment, err := r.Payments.FindByOrderId(orderId)
	if err != nil {
		log.Printf("Lỗi truy vấn thanh toán orderId=%d: %v", orderId, err)
		return ReconcileResult{Outcome: OutcomeError, OrderId: orderId, Message: constants.ERROR_INTERNAL_ERROR}
	}
	if payment == nil {
		log.Printf("⚠️ Xác nhận cho đơn không có thanh toán: orderId=%d kênh=%s", orderId, channel)
		utils.PaymentsRejectedTotal.WithLabelValues(channel, "payment_not_found").Inc()
		return ReconcileResult{Outcome: OutcomeRejected, OrderId: orderId, Message: "Không tìm thấy thanh toán"}
	}

	if payment.IsTerminal() {
		return ReconcileResult{
			Outcome: OutcomeAlreadyDone, OrderId: orderId, Status: payment.Status,
			TransactionId: transId, Message: "Thanh toán đã được xử lý trước đó",
		}
	}

	// Chốt chặn số tiền: chữ ký đúng nhưng tiền lệch vẫn từ chối
	if amount != payment.Amount {
		log.Printf("⚠️ LỆCH SỐ TIỀN orderId=%d: chờ %d, xác nhận %d (kênh %s)", orderId, payment.Amount, amount, channel)
		utils.PaymentsRejectedTotal.WithLabelValues(channel, "amount_mismatch").Inc()
		return ReconcileResult{Outcome: OutcomeRejected, OrderId: orderId, Message: "Số tiền xác nhận không khớp"}
	}

	now := time.Now()
	fields := map[string]interface{}{
		"transaction_id": transId,
		"paid_at":        now,
	}
	for k, v := range extra {
		fields[k] = v
	}
	updated, err := r.Payments.UpdateStatusIfNotTerminal(orderId, constants.PAYMENT_COMPLETED, fields)
	if err != nil {
		log.Printf("Lỗi cập nhật thanh toán orderId=%d: %v", orderId, err)
		return ReconcileResult{Outcome: OutcomeError, OrderId: orderId, Message: constants.ERROR_INTERNAL_ERROR}
	}
	if !updated {
		// Kênh kia thắng race; đọc lại xem terminal đã chốt là gì
		// (kênh kia có thể là job quét đã chuyển FAILED)
		status := ""
		if cur, err := r.Payments.FindByOrderId(orderId); err == nil && cur != nil {
			status = cur.Status
		}
		return ReconcileResult{
			Outcome: OutcomeAlreadyDone, OrderId: orderId, Status: status,
			TransactionId: transId, Message: "Thanh toán đã được xử lý trước đó",
		}
	}

	if err := r.Orders.UpdateStatus(orderId, constants.ORDER_PAID, &now); err != nil {
		log.Printf("Lỗi cập nhật đơn hàng orderId=%d: %v", orderId, err)
	}
	if err := r.History.Append(&model.OrderStatusHistory{
		OrderId: orderId,
		Status:  constants.ORDER_PAID,
		Note:    "Thanh toán thành công qua " + channel + ", mã giao dịch " + transId,
	}); err != nil {
		log.Printf("Lỗi ghi lịch sử đơn hàng orderId=%d: %v", orderId, err)
	}

	utils.PaymentsConfirmedTotal.WithLabelValues(payment.Method, channel).Inc()
	if r.Events != nil {
		r.Events.PublishPaymentStatus(orderId, constants.PAYMENT_COMPLETED, transId)
	}
	if r.Mailer != nil {
		if order, err := r.Orders.FindById(orderId); err == nil && order != nil && order.Email != "" {
			payment.TransactionId = &transId
			payment.PaidAt = &now
			r.Mailer.SendPaymentConfirmation(*order, *payment)
		}
	}

	return ReconcileResult{
		Outcome: OutcomeCompleted, OrderId: orderId, Status: constants.PAYMENT_COMPLETED,
		TransactionId: transId, Message: "Thanh toán thành công", Updated: true,
	}
}
