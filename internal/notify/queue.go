package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"checkout/internal/entity"
	"checkout/pkg/logger"
	"checkout/pkg/metric"

	"golang.org/x/sync/errgroup"
)

//go:generate mockgen -source=queue.go -destination=mock/notify.go -package=mock_notify

var errDeliveryFailed = errors.New("notification delivery failed")

type (
	Notifier interface {
		Notify(ctx context.Context, summary entity.OrderSummary) bool
	}

	// DeadLetter records notifications that could not be delivered.
	DeadLetter interface {
		Send(ctx context.Context, key string, payload []byte, cause error) error
	}

	job struct {
		ctx     context.Context
		summary entity.OrderSummary
	}
)

// Queue hands notifications to a fixed pool of workers so the caller never
// waits on the webhook. A full or stopped queue drops the notification.
type Queue struct {
	notifier   Notifier
	deadLetter DeadLetter
	jobs       chan job
	workers    int
	logger     logger.Logger
	metrics    metric.Notification

	mu     sync.RWMutex
	closed bool
}

// NewQueue builds a queue; deadLetter may be nil.
func NewQueue(
	notifier Notifier,
	deadLetter DeadLetter,
	size int,
	workers int,
	log logger.Logger,
	metrics metric.Notification,
) *Queue {
	if size < 1 {
		size = 1
	}
	if workers < 1 {
		workers = 1
	}

	return &Queue{
		notifier:   notifier,
		deadLetter: deadLetter,
		jobs:       make(chan job, size),
		workers:    workers,
		logger:     log,
		metrics:    metrics,
	}
}

// Enqueue schedules a notification. The request context is detached from
// its cancellation so the response finishing does not abort delivery.
func (q *Queue) Enqueue(ctx context.Context, summary entity.OrderSummary) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		q.metrics.Dropped()
		q.logger.Ctx(ctx).LogAttrs(ctx, logger.WarnLevel, "notification queue stopped, dropping",
			logger.String("order_id", summary.OrderID),
		)
		return false
	}

	select {
	case q.jobs <- job{ctx: context.WithoutCancel(ctx), summary: summary}:
		return true
	default:
		q.metrics.Dropped()
		q.logger.Ctx(ctx).LogAttrs(ctx, logger.WarnLevel, "notification queue full, dropping",
			logger.String("order_id", summary.OrderID),
			logger.Int("capacity", cap(q.jobs)),
		)
		return false
	}
}

// Run delivers queued notifications until ctx is done. It then refuses new
// work and delivers whatever is still buffered before returning.
func (q *Queue) Run(ctx context.Context) error {
	g := new(errgroup.Group)

	for range q.workers {
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case j := <-q.jobs:
					q.deliver(j)
				}
			}
		})
	}

	err := g.Wait()

	// No Enqueue holds the read lock past this point.
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	q.drain()
	return err
}

func (q *Queue) drain() {
	for {
		select {
		case j := <-q.jobs:
			q.deliver(j)
		default:
			return
		}
	}
}

func (q *Queue) deliver(j job) {
	if q.notifier.Notify(j.ctx, j.summary) {
		return
	}
	if q.deadLetter == nil {
		return
	}

	const op = "notify.Queue.deliver"
	log := q.logger.Ctx(j.ctx)

	payload, err := json.Marshal(j.summary)
	if err != nil {
		log.LogAttrs(j.ctx, logger.ErrorLevel, "failed to marshal undelivered notification",
			logger.String("op", op),
			logger.Err(err),
		)
		return
	}

	cause := fmt.Errorf("order %s: %w", j.summary.OrderID, errDeliveryFailed)
	if err = q.deadLetter.Send(j.ctx, j.summary.OrderID, payload, cause); err != nil {
		log.LogAttrs(j.ctx, logger.ErrorLevel, "failed to dead-letter notification",
			logger.String("op", op),
			logger.String("order_id", j.summary.OrderID),
			logger.Err(err),
		)
	}
}
