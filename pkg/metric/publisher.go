package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

var _ Publisher = (*publisherMetrics)(nil)

type publisherMetrics struct {
	published *prometheus.CounterVec
	failed    *prometheus.CounterVec
}

func newPublisherMetrics(registry *promRegistry) *publisherMetrics {
	published := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_messages_published_total",
			Help: "Total number of messages written to Kafka",
		},
		[]string{"topic"},
	)

	failed := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_messages_failed_total",
			Help: "Total number of Kafka writes that failed",
		},
		[]string{"topic", "reason"},
	)

	registry.registry.MustRegister(published, failed)

	return &publisherMetrics{
		published: published,
		failed:    failed,
	}
}

func (m *publisherMetrics) MessagePublished(topic string) {
	m.published.WithLabelValues(topic).Add(1)
}

func (m *publisherMetrics) MessageFailed(topic string, reason string) {
	m.failed.WithLabelValues(topic, reason).Add(1)
}
