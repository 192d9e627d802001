package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Names of the caches the checkout service runs. They become the "cache"
// label value on every cache series.
const (
	CachePendingOrders = "pending_orders"
	CacheWebhookEvents = "webhook_events"
)

var _ Cache = (*cacheMetrics)(nil)

type cacheMetrics struct {
	lookups    *prometheus.CounterVec
	evictions  *prometheus.CounterVec
	rejections *prometheus.CounterVec
	entries    *prometheus.GaugeVec
}

func newCacheMetrics(registry *promRegistry) *cacheMetrics {
	m := &cacheMetrics{
		lookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_lookups_total",
				Help: "Cache lookups by cache and result (hit, miss)",
			},
			[]string{"cache", "result"},
		),
		evictions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_evictions_total",
				Help: "Entries dropped from a cache, by reason (expired, lru)",
			},
			[]string{"cache", "reason"},
		),
		rejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_rejections_total",
				Help: "Writes refused because the cache was full of live entries",
			},
			[]string{"cache"},
		),
		entries: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "cache_entries",
				Help: "Entries currently held by a cache",
			},
			[]string{"cache"},
		),
	}

	registry.registry.MustRegister(m.lookups, m.evictions, m.rejections, m.entries)

	// Known caches report zero before their first write.
	for _, name := range []string{CachePendingOrders, CacheWebhookEvents} {
		m.lookups.WithLabelValues(name, "hit")
		m.lookups.WithLabelValues(name, "miss")
		m.rejections.WithLabelValues(name)
		m.entries.WithLabelValues(name)
	}

	return m
}

func (m *cacheMetrics) Hit(cache string) {
	m.lookups.WithLabelValues(cache, "hit").Inc()
}

func (m *cacheMetrics) Miss(cache string) {
	m.lookups.WithLabelValues(cache, "miss").Inc()
}

func (m *cacheMetrics) Eviction(cache string, reason string) {
	m.evictions.WithLabelValues(cache, reason).Inc()
}

func (m *cacheMetrics) Rejected(cache string) {
	m.rejections.WithLabelValues(cache).Inc()
}

func (m *cacheMetrics) Size(cache string, size int) {
	m.entries.WithLabelValues(cache).Set(float64(size))
}
