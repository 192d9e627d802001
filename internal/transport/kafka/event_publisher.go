package kafkat

import (
	"context"
	"encoding/json"
	"fmt"

	"checkout/internal/entity"
	pkgkafka "checkout/pkg/kafka"
	"checkout/pkg/logger"
	"checkout/pkg/metric"

	"github.com/segmentio/kafka-go"
)

// PaymentEventPublisher writes payment events keyed by provider order id, so
// every event for one order lands on the same partition.
type PaymentEventPublisher struct {
	writer pkgkafka.Writer
	topic  string
	metric metric.Publisher
	log    logger.Logger
}

func NewPaymentEventPublisher(
	writer pkgkafka.Writer,
	topic string,
	metric metric.Publisher,
	log logger.Logger,
) *PaymentEventPublisher {
	return &PaymentEventPublisher{
		writer: writer,
		topic:  topic,
		metric: metric,
		log:    log,
	}
}

func (p *PaymentEventPublisher) Publish(ctx context.Context, event entity.PaymentEvent) error {
	const op = "transport.kafka.event_publisher.Publish"

	value, err := json.Marshal(event)
	if err != nil {
		p.metric.MessageFailed(p.topic, "marshal")
		return fmt.Errorf("%s: marshal event: %w", op, err)
	}

	headers := []kafka.Header{
		{Key: "event_type", Value: []byte(event.Type)},
		{Key: "source", Value: []byte(event.Source)},
	}
	if requestID := p.log.GetRequestID(ctx); requestID != "" {
		headers = append(headers, kafka.Header{Key: "request_id", Value: []byte(requestID)})
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:     []byte(event.OrderID),
		Value:   value,
		Headers: headers,
		Time:    event.OccurredAt,
	})
	if err != nil {
		p.metric.MessageFailed(p.topic, "write")
		p.log.Errorw("failed to publish payment event",
			"op", op,
			"topic", p.topic,
			"order_id", event.OrderID,
			"payment_id", event.PaymentID,
			"error", err,
		)
		return fmt.Errorf("%s: write: %w", op, err)
	}

	p.metric.MessagePublished(p.topic)
	p.log.Infow("payment event published",
		"topic", p.topic,
		"type", event.Type,
		"order_id", event.OrderID,
	)
	return nil
}

func (p *PaymentEventPublisher) Close() error {
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("transport.kafka.event_publisher.Close: %w", err)
	}
	return nil
}
