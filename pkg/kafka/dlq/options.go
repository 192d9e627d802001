package dlq

import (
	"errors"
	"time"
)

type Option func(*DLQ)

// Source labels where the dead-lettered work came from.
func Source(name string) Option {
	return func(d *DLQ) {
		d.source = name
	}
}

func MaxPayloadBytes(n int) Option {
	return func(d *DLQ) {
		d.maxPayloadBytes = n
	}
}

func Clock(now func() time.Time) Option {
	return func(d *DLQ) {
		d.now = now
	}
}

func (d *DLQ) validate() error {
	if d.writer == nil {
		return errors.New("writer is required")
	}

	if d.topic == "" {
		return errors.New("topic is required")
	}

	if d.source == "" {
		return errors.New("invalid source: must not be empty")
	}

	if d.maxPayloadBytes <= 0 {
		return errors.New("invalid maxPayloadBytes: must be > 0")
	}

	if d.now == nil {
		return errors.New("clock is required")
	}
	return nil
}
