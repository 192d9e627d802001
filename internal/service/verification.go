package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"checkout/internal/entity"
	"checkout/pkg/logger"
	"checkout/pkg/metric"
	"checkout/pkg/signature"
)

const (
	_outcomeSuccess          = "success"
	_outcomeInvalidOrder     = "invalid_order"
	_outcomeInvalidSignature = "invalid_signature"
	_outcomeIncomplete       = "incomplete"
	_outcomeFailed           = "failed"
)

type VerificationService struct {
	gateway       Gateway
	pending       PendingOrders
	notifications NotificationQueue
	events        EventPublisher
	keySecret     string
	logger        logger.Logger
	metrics       metric.Checkout
	now           func() time.Time
}

// NewVerificationService wires the verifier; events may be nil.
func NewVerificationService(
	gateway Gateway,
	pending PendingOrders,
	notifications NotificationQueue,
	events EventPublisher,
	keySecret string,
	logger logger.Logger,
	metrics metric.Checkout,
) *VerificationService {
	return &VerificationService{
		gateway:       gateway,
		pending:       pending,
		notifications: notifications,
		events:        events,
		keySecret:     keySecret,
		logger:        logger,
		metrics:       metrics,
		now:           time.Now,
	}
}

// Verify settles a checkout callback. A pending order is consumed only when
// the signature and the provider both confirm the payment; any earlier
// failure leaves it in place so the customer can retry until it expires.
func (s *VerificationService) Verify(ctx context.Context, cb entity.PaymentCallback) entity.VerificationResult {
	const op = "service.Verify"
	log := s.logger.Ctx(ctx)

	order, payment, err := s.verify(ctx, cb)
	if err != nil {
		result := entity.VerificationFailure(err)
		s.metrics.Verification(outcome(err))
		log.LogAttrs(ctx, logger.WarnLevel, "payment verification failed",
			logger.String("op", op),
			logger.String("receipt_id", cb.ReceiptID),
			logger.String("order_id", cb.OrderID),
			logger.String("payment_id", cb.PaymentID),
			logger.String("reason", result.Error),
			logger.Err(err),
		)
		return result
	}

	if !s.notifications.Enqueue(ctx, order.Summary(cb.PaymentID)) {
		log.LogAttrs(ctx, logger.WarnLevel, "order notification not scheduled",
			logger.String("op", op),
			logger.String("order_id", order.ProviderOrderID),
		)
	}
	s.publish(ctx, order, payment)

	s.metrics.Verification(_outcomeSuccess)
	log.LogAttrs(ctx, logger.InfoLevel, "payment verified",
		logger.String("op", op),
		logger.String("receipt_id", cb.ReceiptID),
		logger.String("order_id", order.ProviderOrderID),
		logger.String("payment_id", cb.PaymentID),
		logger.Int64("amount", order.AmountMinor),
	)

	return entity.VerificationSuccess(order.Details())
}

func (s *VerificationService) verify(
	ctx context.Context,
	cb entity.PaymentCallback,
) (*entity.PendingOrder, *entity.ProviderPayment, error) {
	if err := validateStruct(cb, map[string]error{"Signature": entity.ErrSignatureMismatch}); err != nil {
		return nil, nil, fmt.Errorf("callback: %w", err)
	}

	order, ok := s.pending.Get(cb.ReceiptID)
	if !ok {
		return nil, nil, fmt.Errorf("receipt %s: %w", cb.ReceiptID, entity.ErrOrderNotFound)
	}
	if order.ProviderOrderID != cb.OrderID {
		return nil, nil, fmt.Errorf("receipt %s bound to order %q, callback for %q: %w",
			cb.ReceiptID, order.ProviderOrderID, cb.OrderID, entity.ErrOrderNotFound)
	}

	if !signature.Verify(s.keySecret, cb.Message(), cb.Signature) {
		return nil, nil, fmt.Errorf("order %s: %w", cb.OrderID, entity.ErrSignatureMismatch)
	}

	payment, err := s.gateway.FetchPayment(ctx, cb.PaymentID)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch payment %s: %w", cb.PaymentID, err)
	}
	if payment.OrderID != order.ProviderOrderID || payment.Amount != order.AmountMinor {
		return nil, nil, fmt.Errorf("payment %s for order %q amount %d, expected order %q amount %d: %w",
			payment.ID, payment.OrderID, payment.Amount, order.ProviderOrderID, order.AmountMinor,
			entity.ErrPaymentMismatch)
	}
	if !payment.Completed() {
		return nil, nil, fmt.Errorf("payment %s status %q: %w", payment.ID, payment.Status, entity.ErrPaymentIncomplete)
	}

	taken, ok := s.pending.Take(cb.ReceiptID)
	if !ok {
		return nil, nil, fmt.Errorf("receipt %s already settled: %w", cb.ReceiptID, entity.ErrOrderNotFound)
	}
	return taken, payment, nil
}

func (s *VerificationService) publish(ctx context.Context, order *entity.PendingOrder, payment *entity.ProviderPayment) {
	if s.events == nil {
		return
	}

	event := entity.PaymentEvent{
		Type:       entity.PaymentEventVerified,
		Source:     entity.EventSourceCheckout,
		PaymentID:  payment.ID,
		OrderID:    order.ProviderOrderID,
		ReceiptID:  order.ReceiptID,
		Amount:     order.AmountMinor,
		Currency:   order.Currency,
		Status:     payment.Status,
		OccurredAt: s.now().UTC(),
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Ctx(ctx).LogAttrs(ctx, logger.WarnLevel, "payment event not published",
			logger.String("order_id", order.ProviderOrderID),
			logger.Err(err),
		)
	}
}

func outcome(err error) string {
	switch {
	case errors.Is(err, entity.ErrOrderNotFound), errors.Is(err, entity.ErrInvalidData):
		return _outcomeInvalidOrder
	case errors.Is(err, entity.ErrSignatureMismatch):
		return _outcomeInvalidSignature
	case errors.Is(err, entity.ErrPaymentIncomplete):
		return _outcomeIncomplete
	default:
		return _outcomeFailed
	}
}
