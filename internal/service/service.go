package service

import (
	"context"
	"time"

	"checkout/internal/entity"
)

//go:generate mockgen -source=service.go -destination=mock/service.go -package=mock_service

const (
	_slowOperationThreshold = 2 * time.Second
)

type (
	Gateway interface {
		CreateOrder(ctx context.Context, amount int64, currency string, receipt string) (*entity.ProviderOrder, error)
		FetchPayment(ctx context.Context, paymentID string) (*entity.ProviderPayment, error)
	}

	PendingOrders interface {
		Put(receiptID string, order *entity.PendingOrder, ttl time.Duration) error
		Get(receiptID string) (*entity.PendingOrder, bool)
		Delete(receiptID string)
		Take(receiptID string) (*entity.PendingOrder, bool)
	}

	// NotificationQueue accepts a paid order for asynchronous delivery.
	NotificationQueue interface {
		Enqueue(ctx context.Context, summary entity.OrderSummary) bool
	}

	EventPublisher interface {
		Publish(ctx context.Context, event entity.PaymentEvent) error
	}
)
