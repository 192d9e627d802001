package kafkat_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"checkout/internal/entity"
	kafkat "checkout/internal/transport/kafka"
	mock_kafka "checkout/pkg/kafka/mock"
	"checkout/pkg/logger"
	mock_metric "checkout/pkg/metric/mock"

	"github.com/golang/mock/gomock"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const testTopic = "checkout.payments"

func paymentEvent() entity.PaymentEvent {
	return entity.PaymentEvent{
		Type:       entity.WebhookPaymentCaptured,
		Source:     entity.EventSourceCheckout,
		PaymentID:  "pay_1",
		OrderID:    "order_1",
		ReceiptID:  "receipt_1",
		Amount:     40596,
		Currency:   "INR",
		Status:     entity.PaymentStatusCaptured,
		OccurredAt: time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC),
	}
}

func TestPaymentEventPublisher_Publish(t *testing.T) {
	ctrl := gomock.NewController(t)
	writer := mock_kafka.NewMockWriter(ctrl)
	metrics := mock_metric.NewMockPublisher(ctrl)
	log := logger.NewFromZap(zaptest.NewLogger(t))

	p := kafkat.NewPaymentEventPublisher(writer, testTopic, metrics, log)

	ctx := log.WithRequestID(context.Background(), "req-1")
	event := paymentEvent()

	writer.EXPECT().WriteMessages(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, msgs ...kafka.Message) error {
			require.Len(t, msgs, 1)
			msg := msgs[0]
			require.Equal(t, "order_1", string(msg.Key))
			require.Equal(t, event.OccurredAt, msg.Time)

			var got entity.PaymentEvent
			require.NoError(t, json.Unmarshal(msg.Value, &got))
			require.Equal(t, event, got)

			headers := map[string]string{}
			for _, h := range msg.Headers {
				headers[h.Key] = string(h.Value)
			}
			require.Equal(t, entity.WebhookPaymentCaptured, headers["event_type"])
			require.Equal(t, entity.EventSourceCheckout, headers["source"])
			require.Equal(t, "req-1", headers["request_id"])
			return nil
		}).Times(1)
	metrics.EXPECT().MessagePublished(testTopic).Times(1)

	require.NoError(t, p.Publish(ctx, event))
}

func TestPaymentEventPublisher_PublishError(t *testing.T) {
	ctrl := gomock.NewController(t)
	writer := mock_kafka.NewMockWriter(ctrl)
	metrics := mock_metric.NewMockPublisher(ctrl)

	p := kafkat.NewPaymentEventPublisher(writer, testTopic, metrics, logger.NewFromZap(zaptest.NewLogger(t)))

	writeErr := errors.New("broker unreachable")
	writer.EXPECT().WriteMessages(gomock.Any(), gomock.Any()).Return(writeErr).Times(1)
	metrics.EXPECT().MessageFailed(testTopic, "write").Times(1)

	err := p.Publish(context.Background(), paymentEvent())
	require.ErrorIs(t, err, writeErr)
}
