package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"checkout/internal/entity"
	"checkout/pkg/logger"
	"checkout/pkg/metric"
)

type OrderService struct {
	gateway    Gateway
	pending    PendingOrders
	keyID      string
	currency   string
	pendingTTL time.Duration
	logger     logger.Logger
	metrics    metric.Checkout
	now        func() time.Time
}

func NewOrderService(
	gateway Gateway,
	pending PendingOrders,
	keyID string,
	currency string,
	pendingTTL time.Duration,
	logger logger.Logger,
	metrics metric.Checkout,
) *OrderService {
	return &OrderService{
		gateway:    gateway,
		pending:    pending,
		keyID:      keyID,
		currency:   currency,
		pendingTTL: pendingTTL,
		logger:     logger,
		metrics:    metrics,
		now:        time.Now,
	}
}

// CreateOrder prices the cart, remembers it under a fresh receipt id and
// registers the amount with the provider. Prices come only from items; the
// caller cannot influence the amount any other way.
func (s *OrderService) CreateOrder(
	ctx context.Context,
	customerName string,
	phoneNumber string,
	items []entity.CartLine,
) (*entity.CreatedOrder, error) {
	const op = "service.CreateOrder"
	log := s.logger.Ctx(ctx)

	customerName = strings.TrimSpace(customerName)
	phoneNumber = strings.TrimSpace(phoneNumber)
	if customerName == "" || phoneNumber == "" {
		s.metrics.OrderFailed("invalid_customer")
		return nil, fmt.Errorf("%s: customer name and phone are required: %w", op, entity.ErrInvalidData)
	}

	quote, err := PriceCart(items)
	if err != nil {
		s.metrics.OrderFailed("invalid_cart")
		log.LogAttrs(ctx, logger.WarnLevel, "order rejected",
			logger.String("op", op),
			logger.Err(err),
			logger.Int("items_count", len(items)),
		)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	startTime := s.now()
	receiptID := NewReceiptID(startTime)

	defer func() {
		duration := time.Since(startTime)
		if duration > _slowOperationThreshold {
			log.LogAttrs(ctx, logger.WarnLevel, "slow service operation",
				logger.String("op", op),
				logger.String("receipt_id", receiptID),
				logger.String("duration", duration.String()),
			)
		}
	}()

	order := &entity.PendingOrder{
		ReceiptID:      receiptID,
		CustomerName:   customerName,
		PhoneNumber:    phoneNumber,
		Items:          items,
		Subtotal:       quote.Subtotal,
		ConvenienceFee: quote.ConvenienceFee,
		Total:          quote.Total,
		AmountMinor:    quote.AmountMinor,
		Currency:       s.currency,
		CreatedAt:      startTime,
	}
	if err = s.pending.Put(receiptID, order, s.pendingTTL); err != nil {
		s.metrics.OrderFailed("store_full")
		log.LogAttrs(ctx, logger.ErrorLevel, "pending order store full",
			logger.String("op", op),
			logger.String("receipt_id", receiptID),
			logger.Err(err),
		)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.LogAttrs(ctx, logger.InfoLevel, "create order started",
		logger.String("op", op),
		logger.String("receipt_id", receiptID),
		logger.Int("items_count", len(items)),
		logger.Int64("amount", quote.AmountMinor),
	)

	providerOrder, err := s.gateway.CreateOrder(ctx, quote.AmountMinor, s.currency, receiptID)
	if err != nil {
		s.pending.Delete(receiptID)
		s.metrics.OrderFailed("provider")
		log.LogAttrs(ctx, logger.ErrorLevel, "provider order creation failed",
			logger.String("op", op),
			logger.String("receipt_id", receiptID),
			logger.Err(err),
		)
		return nil, fmt.Errorf("%s: %w", op, entity.ErrOrderCreationFailed)
	}

	order.ProviderOrderID = providerOrder.ID
	if err = s.pending.Put(receiptID, order, s.pendingTTL); err != nil {
		s.metrics.OrderFailed("store_full")
		log.LogAttrs(ctx, logger.ErrorLevel, "pending order lost before provider id was recorded",
			logger.String("op", op),
			logger.String("receipt_id", receiptID),
			logger.String("order_id", providerOrder.ID),
			logger.Err(err),
		)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.metrics.OrderCreated(quote.AmountMinor)
	log.LogAttrs(ctx, logger.InfoLevel, "order created",
		logger.String("op", op),
		logger.String("receipt_id", receiptID),
		logger.String("order_id", providerOrder.ID),
		logger.Int64("amount", quote.AmountMinor),
	)

	return &entity.CreatedOrder{
		OrderID:   providerOrder.ID,
		Amount:    quote.AmountMinor,
		Currency:  s.currency,
		KeyID:     s.keyID,
		ReceiptID: receiptID,
	}, nil
}
