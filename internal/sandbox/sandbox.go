// Package sandbox fakes the payment provider's REST API and hosted checkout
// so the whole order-to-verification flow can run locally.
package sandbox

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"checkout/internal/entity"
	"checkout/pkg/logger"
	"checkout/pkg/signature"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	_minAmount      = 100
	_idLength       = 14
	_webhookTimeout = 5 * time.Second
)

var _paymentMethods = []string{"upi", "card", "netbanking", "wallet"}

type Config struct {
	KeyID         string
	KeySecret     string
	WebhookSecret string
	// WebhookURL, when set, receives a signed event for every simulated payment.
	WebhookURL string
}

type Sandbox struct {
	cfg        Config
	log        logger.Logger
	httpClient *http.Client
	router     *gin.Engine
	now        func() time.Time

	mu       sync.RWMutex
	orders   map[string]*entity.ProviderOrder
	payments map[string]*entity.ProviderPayment
}

func New(cfg Config, log logger.Logger) *Sandbox {
	s := &Sandbox{
		cfg:        cfg,
		log:        log,
		httpClient: &http.Client{Timeout: _webhookTimeout},
		now:        time.Now,
		orders:     make(map[string]*entity.ProviderOrder),
		payments:   make(map[string]*entity.ProviderPayment),
	}

	router := gin.New()
	router.Use(gin.Recovery())

	v1 := router.Group("/v1", gin.BasicAuth(gin.Accounts{cfg.KeyID: cfg.KeySecret}))
	{
		v1.POST("/orders", s.createOrder)
		v1.GET("/orders/:id", s.getOrder)
		v1.GET("/payments/:id", s.getPayment)
	}
	router.POST("/sandbox/pay", s.pay)

	s.router = router
	return s
}

func (s *Sandbox) Handler() http.Handler {
	return s.router
}

type createOrderRequest struct {
	Amount   int64  `json:"amount"   binding:"required"`
	Currency string `json:"currency" binding:"required,len=3"`
	Receipt  string `json:"receipt"  binding:"max=40"`
}

func (s *Sandbox) createOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		providerError(c, http.StatusBadRequest, "BAD_REQUEST_ERROR", err.Error())
		return
	}
	if req.Amount < _minAmount {
		providerError(c, http.StatusBadRequest, "BAD_REQUEST_ERROR", "Order amount less than minimum amount allowed")
		return
	}

	order := &entity.ProviderOrder{
		ID:       newID("order_"),
		Amount:   req.Amount,
		Currency: req.Currency,
		Receipt:  req.Receipt,
		Status:   "created",
	}

	s.mu.Lock()
	s.orders[order.ID] = order
	s.mu.Unlock()

	s.log.Infow("sandbox order created", "order_id", order.ID, "amount", order.Amount, "receipt", order.Receipt)
	c.JSON(http.StatusOK, order)
}

func (s *Sandbox) getOrder(c *gin.Context) {
	s.mu.RLock()
	order, ok := s.orders[c.Param("id")]
	s.mu.RUnlock()

	if !ok {
		providerError(c, http.StatusBadRequest, "BAD_REQUEST_ERROR", "The id provided does not exist")
		return
	}
	c.JSON(http.StatusOK, order)
}

func (s *Sandbox) getPayment(c *gin.Context) {
	s.mu.RLock()
	payment, ok := s.payments[c.Param("id")]
	s.mu.RUnlock()

	if !ok {
		providerError(c, http.StatusBadRequest, "BAD_REQUEST_ERROR", "The id provided does not exist")
		return
	}
	c.JSON(http.StatusOK, payment)
}

type payRequest struct {
	OrderID string `json:"orderId" binding:"required"`
	Status  string `json:"status"  binding:"omitempty,oneof=captured authorized failed"`
}

// CheckoutResult is what the hosted checkout hands back to the storefront.
type CheckoutResult struct {
	PaymentID string `json:"razorpay_payment_id"`
	OrderID   string `json:"razorpay_order_id"`
	Signature string `json:"razorpay_signature"`
}

// pay simulates the customer completing the hosted checkout.
func (s *Sandbox) pay(c *gin.Context) {
	var req payRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		providerError(c, http.StatusBadRequest, "BAD_REQUEST_ERROR", err.Error())
		return
	}
	if req.Status == "" {
		req.Status = entity.PaymentStatusCaptured
	}

	s.mu.Lock()
	order, ok := s.orders[req.OrderID]
	if !ok {
		s.mu.Unlock()
		providerError(c, http.StatusBadRequest, "BAD_REQUEST_ERROR", "The id provided does not exist")
		return
	}

	payment := &entity.ProviderPayment{
		ID:       newID("pay_"),
		OrderID:  order.ID,
		Amount:   order.Amount,
		Currency: order.Currency,
		Status:   req.Status,
		Method:   gofakeit.RandomString(_paymentMethods),
	}
	s.payments[payment.ID] = payment
	if req.Status != entity.PaymentStatusFailed {
		order.Status = "paid"
	}
	s.mu.Unlock()

	s.log.Infow("sandbox payment made", "payment_id", payment.ID, "order_id", order.ID, "status", payment.Status)

	if s.cfg.WebhookURL != "" {
		s.sendWebhook(c.Request.Context(), payment)
	}

	c.JSON(http.StatusOK, CheckoutResult{
		PaymentID: payment.ID,
		OrderID:   order.ID,
		Signature: signature.Sign(s.cfg.KeySecret, order.ID+"|"+payment.ID),
	})
}

func (s *Sandbox) sendWebhook(ctx context.Context, payment *entity.ProviderPayment) {
	event := entity.WebhookEvent{
		Entity:    "event",
		AccountID: "acc_sandbox",
		Event:     "payment." + payment.Status,
		Contains:  []string{"payment"},
		CreatedAt: s.now().Unix(),
	}
	event.Payload.Payment = &struct {
		Entity entity.ProviderPayment `json:"entity"`
	}{Entity: *payment}

	body, err := json.Marshal(event)
	if err != nil {
		s.log.Errorw("sandbox webhook marshal failed", "error", err)
		return
	}

	req, err := http.NewRequestWithContext(context.WithoutCancel(ctx), http.MethodPost, s.cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		s.log.Errorw("sandbox webhook request failed", "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Razorpay-Signature", signature.SignBytes(s.cfg.WebhookSecret, body))

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.log.Warnw("sandbox webhook delivery failed", "url", s.cfg.WebhookURL, "error", err)
		return
	}
	defer resp.Body.Close()

	s.log.Infow("sandbox webhook delivered", "event", event.Event, "status", resp.StatusCode)
}

func providerError(c *gin.Context, status int, code, description string) {
	c.JSON(status, gin.H{"error": gin.H{"code": code, "description": description}})
}

func newID(prefix string) string {
	return prefix + strings.ReplaceAll(uuid.NewString(), "-", "")[:_idLength]
}
