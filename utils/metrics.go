package utils

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metric đối soát thanh toán. Label channel: return / ipn / execute / sweep.
var (
	PaymentsCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payments_created_total",
		Help: "Số thanh toán được khởi tạo, theo phương thức",
	}, []string{"method"})

	PaymentsConfirmedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payments_confirmed_total",
		Help: "Số thanh toán chuyển COMPLETED, theo phương thức và kênh xác nhận",
	}, []string{"method", "channel"})

	PaymentsDeclinedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payments_declined_total",
		Help: "Số bản tin xác nhận provider báo thất bại, theo kênh và nhóm lỗi",
	}, []string{"channel", "category"})

	PaymentsRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payments_rejected_total",
		Help: "Số bản tin bị từ chối vì lý do an ninh (sai chữ ký, lệch tiền, id hỏng)",
	}, []string{"channel", "reason"})

	PaymentsExpiredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payments_expired_total",
		Help: "Số thanh toán PENDING bị job quét chuyển FAILED vì quá hạn",
	})

	GatewayRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gateway_request_duration_seconds",
		Help:    "Thời gian gọi HTTP sang cổng thanh toán",
		Buckets: prometheus.DefBuckets,
	}, []string{"gateway", "operation"})
)
