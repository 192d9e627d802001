package metric

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ Factory = (*prometheusFactory)(nil)

type prometheusFactory struct {
	registry     *promRegistry
	http         *httpMetrics
	cache        *cacheMetrics
	gateway      *gatewayMetrics
	checkout     *checkoutMetrics
	notification *notificationMetrics
	webhook      *webhookMetrics
	publisher    *publisherMetrics
	dlq          *dlqMetrics
}

// NewFactory builds every collector on a private registry, so tests can
// create as many factories as they like.
func NewFactory() Factory {
	registry := newPromRegistry()

	return &prometheusFactory{
		registry:     registry,
		http:         newHTTPMetrics(registry),
		cache:        newCacheMetrics(registry),
		gateway:      newGatewayMetrics(registry),
		checkout:     newCheckoutMetrics(registry),
		notification: newNotificationMetrics(registry),
		webhook:      newWebhookMetrics(registry),
		publisher:    newPublisherMetrics(registry),
		dlq:          newDLQMetrics(registry),
	}
}

func (f *prometheusFactory) HTTP() HTTP {
	return f.http
}

func (f *prometheusFactory) Cache() Cache {
	return f.cache
}

func (f *prometheusFactory) Gateway() Gateway {
	return f.gateway
}

func (f *prometheusFactory) Checkout() Checkout {
	return f.checkout
}

func (f *prometheusFactory) Notification() Notification {
	return f.notification
}

func (f *prometheusFactory) Webhook() Webhook {
	return f.webhook
}

func (f *prometheusFactory) Publisher() Publisher {
	return f.publisher
}

func (f *prometheusFactory) DLQ() DLQ {
	return f.dlq
}

func (f *prometheusFactory) Handler() http.Handler {
	return promhttp.HandlerFor(f.registry.registry,
		promhttp.HandlerOpts{
			EnableOpenMetrics: true,
		})
}

type promRegistry struct {
	registry *prometheus.Registry
}

func newPromRegistry() *promRegistry {
	reg := prometheus.NewRegistry()

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &promRegistry{registry: reg}
}
