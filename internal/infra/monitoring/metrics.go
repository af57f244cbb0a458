package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method", "status_code"},
	)

	CheckoutSessionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_sessions_total",
			Help: "Checkout session attempts by result",
		},
		[]string{"result"},
	)

	WebhookEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_webhook_events_total",
			Help: "Payment webhook deliveries by outcome",
		},
		[]string{"outcome"},
	)

	ReconciliationErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reconciliation_errors_total",
			Help: "Webhook deliveries that failed to reconcile and were left for provider retry",
		},
	)

	OrdersCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "orders_created_total",
			Help: "Orders created from confirmed payments",
		},
	)

	CheckoutAnomaliesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_anomalies_total",
			Help: "Anomalies recorded for out-of-band cleanup",
		},
		[]string{"kind"},
	)
)

func RecordCheckout(result string) {
	CheckoutSessionsTotal.WithLabelValues(result).Inc()
}

func RecordWebhook(outcome string) {
	WebhookEventsTotal.WithLabelValues(outcome).Inc()
}

func RecordReconciliationError() {
	ReconciliationErrorsTotal.Inc()
}

func RecordOrdersCreated(n int) {
	OrdersCreatedTotal.Add(float64(n))
}

func RecordAnomaly(kind string) {
	CheckoutAnomaliesTotal.WithLabelValues(kind).Inc()
}
