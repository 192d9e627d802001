package httpt

import (
	"context"
	"time"

	"checkout/internal/catalog"
	"checkout/internal/entity"
	"checkout/pkg/logger"
	"checkout/pkg/metric"

	"github.com/gin-gonic/gin"
)

//go:generate mockgen -source=checkout_transport.go -destination=mock/checkout_transport.go -package=mock_httpt

const (
	_defaultRequestTimeout = 20 * time.Second
	_defaultMaxBodyBytes   = 1 << 20
	_slowRequestThreshold  = 2 * time.Second
)

type (
	OrderCreator interface {
		CreateOrder(ctx context.Context, customerName, phoneNumber string, items []entity.CartLine) (*entity.CreatedOrder, error)
	}

	PaymentVerifier interface {
		Verify(ctx context.Context, callback entity.PaymentCallback) entity.VerificationResult
	}

	WebhookProcessor interface {
		HandleWebhook(ctx context.Context, rawBody []byte, signatureHeader string) (*entity.WebhookAck, error)
	}
)

type CheckoutHandler struct {
	orders   OrderCreator
	verifier PaymentVerifier
	webhooks WebhookProcessor
	catalog  *catalog.Catalog
	log      logger.Logger
	metrics  metric.HTTP
	router   *gin.Engine

	requestTimeout      time.Duration
	maxWebhookBodyBytes int64
}

type Option func(*CheckoutHandler)

func RequestTimeout(d time.Duration) Option {
	return func(h *CheckoutHandler) {
		if d > 0 {
			h.requestTimeout = d
		}
	}
}

func MaxWebhookBodyBytes(n int64) Option {
	return func(h *CheckoutHandler) {
		if n > 0 {
			h.maxWebhookBodyBytes = n
		}
	}
}

func NewCheckoutHandler(
	orders OrderCreator,
	verifier PaymentVerifier,
	webhooks WebhookProcessor,
	menu *catalog.Catalog,
	log logger.Logger,
	metrics metric.HTTP,
	opts ...Option,
) *CheckoutHandler {
	h := &CheckoutHandler{
		orders:   orders,
		verifier: verifier,
		webhooks: webhooks,
		catalog:  menu,
		log:      log,
		metrics:  metrics,

		requestTimeout:      _defaultRequestTimeout,
		maxWebhookBodyBytes: _defaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(h)
	}

	router := gin.New()

	router.Use(h.requestIDMiddleware())
	router.Use(h.loggingMiddleware())
	router.Use(gin.Recovery())

	h.router = router

	h.setupRoutes()

	return h
}

func (h *CheckoutHandler) Engine() *gin.Engine {
	return h.router
}
