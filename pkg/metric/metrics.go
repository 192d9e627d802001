package metric

import (
	"net/http"
	"time"
)

//go:generate mockgen -source=metrics.go -destination=mock/metrics.go -package=mock_metric

type (
	Factory interface {
		HTTP() HTTP
		Cache() Cache
		Gateway() Gateway
		Checkout() Checkout
		Notification() Notification
		Webhook() Webhook
		Publisher() Publisher
		DLQ() DLQ
		Handler() http.Handler
	}

	HTTP interface {
		Request(method, path string, status int, duration time.Duration)
		SlowRequest(method, path string, status int, duration time.Duration)
	}

	Cache interface {
		Hit(cacheType string)
		Miss(cacheType string)
		Eviction(cacheType string, reason string)
		Rejected(cacheType string)
		Size(cacheType string, size int)
	}

	Gateway interface {
		Request(operation string, status int, duration time.Duration)
		Failure(operation string, reason string)
	}

	Checkout interface {
		OrderCreated(amountMinor int64)
		OrderFailed(reason string)
		Verification(outcome string)
	}

	Notification interface {
		Sent()
		Failed(reason string)
		Dropped()
	}

	Webhook interface {
		Event(eventType string, outcome string)
	}

	Publisher interface {
		MessagePublished(topic string)
		MessageFailed(topic string, reason string)
	}

	DLQ interface {
		DLSent(topic string, source string)
		DLError(topic string, reason string)
	}
)
