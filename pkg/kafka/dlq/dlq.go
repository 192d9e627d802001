package dlq

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	pkgkafka "checkout/pkg/kafka"
	"checkout/pkg/logger"
	"checkout/pkg/metric"

	"github.com/segmentio/kafka-go"
)

const (
	_defaultSource          = "notification"
	_defaultMaxPayloadBytes = 64 << 10

	_encodingJSON   = "json"
	_encodingBase64 = "base64"
)

type (
	metadata struct {
		Source      string `json:"source"`
		Error       string `json:"error"`
		Timestamp   string `json:"timestamp"`
		PayloadSize int    `json:"payload_size"`
		Encoding    string `json:"payload_encoding"`
		Truncated   bool   `json:"truncated,omitempty"`
	}

	message struct {
		Metadata metadata        `json:"metadata"`
		Payload  json.RawMessage `json:"payload"`
	}
)

// DLQ writes work that could not be completed to a dead-letter topic so it
// can be replayed by hand. It never retries.
type DLQ struct {
	writer  pkgkafka.Writer
	topic   string
	log     logger.Logger
	metrics metric.DLQ

	source          string
	maxPayloadBytes int
	now             func() time.Time
}

func NewDLQ(w pkgkafka.Writer, topic string, log logger.Logger, metrics metric.DLQ, opts ...Option) (*DLQ, error) {
	dlq := &DLQ{
		writer:  w,
		topic:   topic,
		log:     log,
		metrics: metrics,

		source:          _defaultSource,
		maxPayloadBytes: _defaultMaxPayloadBytes,
		now:             time.Now,
	}

	for _, opt := range opts {
		opt(dlq)
	}

	if err := dlq.validate(); err != nil {
		return nil, fmt.Errorf("kafka.dlq.NewDLQ: validation: %w", err)
	}

	return dlq, nil
}

func (d *DLQ) Close() error {
	if err := d.writer.Close(); err != nil {
		return fmt.Errorf("kafka.dlq.Close: %w", err)
	}
	return nil
}

// Send records payload together with the reason it was dead-lettered.
func (d *DLQ) Send(ctx context.Context, key string, payload []byte, cause error) error {
	const op = "kafka.dlq.Send"

	value, err := json.Marshal(d.envelope(payload, cause))
	if err != nil {
		d.metrics.DLError(d.topic, "marshal_failed")
		return fmt.Errorf("%s: marshal message: %w", op, err)
	}

	err = d.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: value,
	})
	if err != nil {
		d.log.Errorw("failed to send message to dlq",
			"op", op,
			"error", err,
			"topic", d.topic,
			"key", key,
		)
		d.metrics.DLError(d.topic, "write_failed")
		return fmt.Errorf("%s: send message: %w", op, err)
	}

	d.metrics.DLSent(d.topic, d.source)
	d.log.Infow("message sent to dlq",
		"op", op,
		"topic", d.topic,
		"key", key,
	)

	return nil
}

func (d *DLQ) envelope(payload []byte, cause error) message {
	meta := metadata{
		Source:      d.source,
		Error:       "unknown",
		Timestamp:   d.now().UTC().Format(time.RFC3339),
		PayloadSize: len(payload),
		Encoding:    _encodingJSON,
	}
	if cause != nil {
		meta.Error = cause.Error()
	}

	if len(payload) > d.maxPayloadBytes {
		payload = payload[:d.maxPayloadBytes]
		meta.Truncated = true
	}

	// anything that is not a whole JSON document travels base64-encoded
	if !json.Valid(payload) {
		meta.Encoding = _encodingBase64
		encoded, _ := json.Marshal(base64.StdEncoding.EncodeToString(payload))
		return message{Metadata: meta, Payload: encoded}
	}

	return message{Metadata: meta, Payload: payload}
}
