package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"checkout/internal/entity"
	"checkout/pkg/cache"
	"checkout/pkg/logger"
	"checkout/pkg/metric"
	"checkout/pkg/signature"
)

const (
	_webhookProcessed = "processed"
	_webhookDuplicate = "duplicate"
	_webhookIgnored   = "ignored"
	_webhookRejected  = "rejected"

	_ackStatus = "ok"
)

// WebhookService authenticates provider webhooks and records payment events
// at most once per event and payment.
type WebhookService struct {
	secret    string
	processed cache.Cache[string, struct{}]
	dedupTTL  time.Duration
	events    EventPublisher
	logger    logger.Logger
	metrics   metric.Webhook
	now       func() time.Time
}

// NewWebhookService wires the handler; an empty secret makes every call fail
// with ErrMissingConfiguration, and events may be nil.
func NewWebhookService(
	secret string,
	processed cache.Cache[string, struct{}],
	dedupTTL time.Duration,
	events EventPublisher,
	logger logger.Logger,
	metrics metric.Webhook,
) *WebhookService {
	return &WebhookService{
		secret:    secret,
		processed: processed,
		dedupTTL:  dedupTTL,
		events:    events,
		logger:    logger,
		metrics:   metrics,
		now:       time.Now,
	}
}

// HandleWebhook checks the signature over the exact bytes received before
// anything is parsed.
func (s *WebhookService) HandleWebhook(
	ctx context.Context,
	rawBody []byte,
	signatureHeader string,
) (*entity.WebhookAck, error) {
	const op = "service.HandleWebhook"
	log := s.logger.Ctx(ctx)

	signatureHeader = strings.TrimSpace(signatureHeader)
	if signatureHeader == "" {
		s.metrics.Event("unknown", _webhookRejected)
		return nil, fmt.Errorf("%s: %w", op, entity.ErrMissingSignature)
	}

	if s.secret == "" {
		s.metrics.Event("unknown", _webhookRejected)
		log.LogAttrs(ctx, logger.ErrorLevel, "webhook secret not configured",
			logger.String("op", op),
		)
		return nil, fmt.Errorf("%s: webhook secret: %w", op, entity.ErrMissingConfiguration)
	}

	if !signature.VerifyBytes(s.secret, rawBody, signatureHeader) {
		s.metrics.Event("unknown", _webhookRejected)
		log.LogAttrs(ctx, logger.WarnLevel, "webhook signature mismatch",
			logger.String("op", op),
			logger.Int("body_size", len(rawBody)),
		)
		return nil, fmt.Errorf("%s: %w", op, entity.ErrSignatureMismatch)
	}

	var event entity.WebhookEvent
	if err := json.Unmarshal(rawBody, &event); err != nil {
		s.metrics.Event("unknown", _webhookRejected)
		return nil, fmt.Errorf("%s: %w: %w", op, entity.ErrMalformedEvent, err)
	}

	ack := &entity.WebhookAck{Status: _ackStatus, Event: event.Event}

	if !event.Reconcilable() {
		s.metrics.Event(event.Event, _webhookIgnored)
		log.LogAttrs(ctx, logger.InfoLevel, "webhook event acknowledged",
			logger.String("op", op),
			logger.String("event", event.Event),
		)
		return ack, nil
	}

	payment, ok := event.PaymentEntity()
	if !ok {
		s.metrics.Event(event.Event, _webhookIgnored)
		log.LogAttrs(ctx, logger.WarnLevel, "webhook payment event without payment entity",
			logger.String("op", op),
			logger.String("event", event.Event),
		)
		return ack, nil
	}

	s.reconcile(ctx, event.Event, payment)
	return ack, nil
}

func (s *WebhookService) reconcile(ctx context.Context, eventType string, payment *entity.ProviderPayment) {
	const op = "service.reconcile"
	log := s.logger.Ctx(ctx)

	key := eventType + ":" + payment.ID
	if !s.processed.PutIfAbsent(key, struct{}{}, s.dedupTTL) {
		s.metrics.Event(eventType, _webhookDuplicate)
		log.LogAttrs(ctx, logger.InfoLevel, "duplicate webhook event skipped",
			logger.String("op", op),
			logger.String("event", eventType),
			logger.String("payment_id", payment.ID),
		)
		return
	}

	s.metrics.Event(eventType, _webhookProcessed)
	log.LogAttrs(ctx, logger.InfoLevel, "payment reconciled from webhook",
		logger.String("op", op),
		logger.String("event", eventType),
		logger.String("payment_id", payment.ID),
		logger.String("order_id", payment.OrderID),
		logger.Int64("amount", payment.Amount),
		logger.String("status", payment.Status),
	)

	if s.events == nil {
		return
	}

	err := s.events.Publish(ctx, entity.PaymentEvent{
		Type:       eventType,
		Source:     entity.EventSourceWebhook,
		PaymentID:  payment.ID,
		OrderID:    payment.OrderID,
		Amount:     payment.Amount,
		Currency:   payment.Currency,
		Status:     payment.Status,
		OccurredAt: s.now().UTC(),
	})
	if err != nil {
		log.LogAttrs(ctx, logger.WarnLevel, "payment event not published",
			logger.String("op", op),
			logger.String("payment_id", payment.ID),
			logger.Err(err),
		)
	}
}
