package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

var _ DLQ = (*dlqMetrics)(nil)

type dlqMetrics struct {
	messagesSent *prometheus.CounterVec
	errors       *prometheus.CounterVec
}

func newDLQMetrics(registry *promRegistry) *dlqMetrics {
	sent := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dlq_messages_sent_total",
			Help: "Total number of messages sent to the Dead Letter Queue",
		},
		[]string{"dlq_topic", "source"},
	)

	errors := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dlq_errors_total",
			Help: "Total number of errors related to DLQ operations (e.g. send failure)",
		},
		[]string{"dlq_topic", "reason"},
	)

	registry.registry.MustRegister(sent, errors)

	return &dlqMetrics{
		messagesSent: sent,
		errors:       errors,
	}
}

func (m *dlqMetrics) DLSent(dlqTopic string, source string) {
	m.messagesSent.WithLabelValues(dlqTopic, source).Add(1)
}

func (m *dlqMetrics) DLError(dlqTopic string, reason string) {
	m.errors.WithLabelValues(dlqTopic, reason).Add(1)
}
