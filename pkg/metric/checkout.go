package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	_ Gateway      = (*gatewayMetrics)(nil)
	_ Checkout     = (*checkoutMetrics)(nil)
	_ Notification = (*notificationMetrics)(nil)
	_ Webhook      = (*webhookMetrics)(nil)
)

type gatewayMetrics struct {
	duration *prometheus.HistogramVec
	failures *prometheus.CounterVec
}

func newGatewayMetrics(registry *promRegistry) *gatewayMetrics {
	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_request_duration_seconds",
			Help:    "Payment provider request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		},
		[]string{"operation", "status"},
	)

	failures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_request_failures_total",
			Help: "Total number of failed payment provider requests",
		},
		[]string{"operation", "reason"},
	)

	registry.registry.MustRegister(duration, failures)

	return &gatewayMetrics{duration: duration, failures: failures}
}

func (m *gatewayMetrics) Request(operation string, status int, duration time.Duration) {
	m.duration.WithLabelValues(operation, StatusClass(status)).Observe(duration.Seconds())
}

func (m *gatewayMetrics) Failure(operation string, reason string) {
	m.failures.WithLabelValues(operation, reason).Add(1)
}

type checkoutMetrics struct {
	ordersCreated *prometheus.CounterVec
	amount        prometheus.Counter
	verifications *prometheus.CounterVec
}

func newCheckoutMetrics(registry *promRegistry) *checkoutMetrics {
	orders := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_orders_total",
			Help: "Total number of order creation attempts by result",
		},
		[]string{"result"},
	)

	amount := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "checkout_order_amount_minor_total",
			Help: "Sum of created order amounts in minor currency units",
		},
	)

	verifications := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_verifications_total",
			Help: "Total number of payment verifications by outcome",
		},
		[]string{"outcome"},
	)

	registry.registry.MustRegister(orders, amount, verifications)

	return &checkoutMetrics{
		ordersCreated: orders,
		amount:        amount,
		verifications: verifications,
	}
}

func (m *checkoutMetrics) OrderCreated(amountMinor int64) {
	m.ordersCreated.WithLabelValues("created").Add(1)
	m.amount.Add(float64(amountMinor))
}

func (m *checkoutMetrics) OrderFailed(reason string) {
	m.ordersCreated.WithLabelValues(reason).Add(1)
}

func (m *checkoutMetrics) Verification(outcome string) {
	m.verifications.WithLabelValues(outcome).Add(1)
}

type notificationMetrics struct {
	results *prometheus.CounterVec
}

func newNotificationMetrics(registry *promRegistry) *notificationMetrics {
	results := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_total",
			Help: "Total number of order notifications by result",
		},
		[]string{"result", "reason"},
	)

	registry.registry.MustRegister(results)

	return &notificationMetrics{results: results}
}

func (m *notificationMetrics) Sent() {
	m.results.WithLabelValues("sent", "").Add(1)
}

func (m *notificationMetrics) Failed(reason string) {
	m.results.WithLabelValues("failed", reason).Add(1)
}

func (m *notificationMetrics) Dropped() {
	m.results.WithLabelValues("dropped", "queue_full").Add(1)
}

type webhookMetrics struct {
	events *prometheus.CounterVec
}

func newWebhookMetrics(registry *promRegistry) *webhookMetrics {
	events := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "Total number of provider webhook deliveries by event and outcome",
		},
		[]string{"event", "outcome"},
	)

	registry.registry.MustRegister(events)

	return &webhookMetrics{events: events}
}

func (m *webhookMetrics) Event(eventType string, outcome string) {
	m.events.WithLabelValues(eventType, outcome).Add(1)
}
