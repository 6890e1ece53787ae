package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketplace_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "marketplace_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	PaymentIntentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketplace_payment_intents_total",
			Help: "Total number of payment intents created",
		},
		[]string{"result"},
	)

	WebhooksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketplace_payment_webhooks_total",
			Help: "Total number of payment webhooks processed",
		},
		[]string{"result"},
	)

	WithdrawalsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketplace_withdrawals_total",
			Help: "Total number of withdrawal state changes",
		},
		[]string{"action"},
	)

	RefundsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "marketplace_refunds_total",
			Help: "Total number of refunds issued",
		},
	)

	ReconciledPaymentsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "marketplace_reconciled_payments_total",
			Help: "Total number of gateway payments repaired by the reconciliation pass",
		},
	)

	GatewayRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketplace_gateway_requests_total",
			Help: "Total number of payment gateway API calls",
		},
		[]string{"op", "result"},
	)

	NotificationsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketplace_notifications_sent_total",
			Help: "Total number of notifications sent",
		},
		[]string{"type", "status"},
	)

	NotificationQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "marketplace_notification_queue_length",
			Help: "Current length of the notification queue",
		},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordPaymentIntent(result string) {
	PaymentIntentsTotal.WithLabelValues(result).Inc()
}

func RecordWebhook(result string) {
	WebhooksTotal.WithLabelValues(result).Inc()
}

func RecordWithdrawal(action string) {
	WithdrawalsTotal.WithLabelValues(action).Inc()
}

func RecordRefund() {
	RefundsTotal.Inc()
}

func RecordGatewayRequest(op, result string) {
	GatewayRequestsTotal.WithLabelValues(op, result).Inc()
}

func RecordNotification(notifType, status string) {
	NotificationsSentTotal.WithLabelValues(notifType, status).Inc()
}
