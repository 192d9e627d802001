package kafkat

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"checkout/internal/entity"
	"checkout/pkg/logger"
	"checkout/pkg/metric"
)

var (
	ErrPublisherBusy   = errors.New("event buffer full")
	ErrPublisherClosed = errors.New("event publisher stopped")
)

// EventWriter delivers one payment event to the broker.
type EventWriter interface {
	Publish(ctx context.Context, event entity.PaymentEvent) error
}

type pendingEvent struct {
	ctx   context.Context
	event entity.PaymentEvent
}

// AsyncPublisher buffers payment events and writes them from a single
// goroutine, so request handlers never wait on the broker.
type AsyncPublisher struct {
	next   EventWriter
	events chan pendingEvent
	topic  string
	metric metric.Publisher
	log    logger.Logger

	mu     sync.RWMutex
	closed bool
}

func NewAsyncPublisher(
	next EventWriter,
	size int,
	topic string,
	metric metric.Publisher,
	log logger.Logger,
) *AsyncPublisher {
	if size < 1 {
		size = 1
	}

	return &AsyncPublisher{
		next:   next,
		events: make(chan pendingEvent, size),
		topic:  topic,
		metric: metric,
		log:    log,
	}
}

// Publish buffers event and returns at once. It fails only when the buffer
// is full or Run has returned.
func (p *AsyncPublisher) Publish(ctx context.Context, event entity.PaymentEvent) error {
	const op = "transport.kafka.async_publisher.Publish"

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		p.metric.MessageFailed(p.topic, "closed")
		return fmt.Errorf("%s: %w", op, ErrPublisherClosed)
	}

	select {
	case p.events <- pendingEvent{ctx: context.WithoutCancel(ctx), event: event}:
		return nil
	default:
		p.metric.MessageFailed(p.topic, "buffer_full")
		return fmt.Errorf("%s: %d events waiting: %w", op, cap(p.events), ErrPublisherBusy)
	}
}

// Run writes buffered events until ctx is done, then stops accepting new
// ones and flushes the rest.
func (p *AsyncPublisher) Run(ctx context.Context) error {
	for running := true; running; {
		select {
		case <-ctx.Done():
			running = false
		case e := <-p.events:
			p.write(e)
		}
	}

	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	for {
		select {
		case e := <-p.events:
			p.write(e)
		default:
			return nil
		}
	}
}

func (p *AsyncPublisher) write(e pendingEvent) {
	if err := p.next.Publish(e.ctx, e.event); err != nil {
		p.log.Ctx(e.ctx).LogAttrs(e.ctx, logger.WarnLevel, "buffered payment event dropped",
			logger.String("topic", p.topic),
			logger.String("order_id", e.event.OrderID),
			logger.Err(err),
		)
	}
}
