package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"checkout/internal/entity"
	"checkout/internal/service"
	mock_service "checkout/internal/service/mock"
	"checkout/pkg/cache"
	"checkout/pkg/logger"
	"checkout/pkg/metric"
	mock_metric "checkout/pkg/metric/mock"
	"checkout/pkg/signature"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const testWebhookSecret = "whsec_test"

func webhookBody(event, paymentID string) []byte {
	return []byte(fmt.Sprintf(`{"entity":"event","account_id":"acc_1","event":%q,"contains":["payment"],`+
		`"payload":{"payment":{"entity":{"id":%q,"order_id":"order_ABC","amount":40596,"currency":"INR","status":"captured"}}},`+
		`"created_at":1700000000}`, event, paymentID))
}

func newWebhookService(
	t *testing.T,
	secret string,
	events service.EventPublisher,
) (*service.WebhookService, *mock_metric.MockWebhook) {
	t.Helper()

	log := logger.NewFromZap(zaptest.NewLogger(t))
	processed, err := cache.NewLRUCache[string, struct{}]("webhook_events", 64, log, metric.NewFactory().Cache())
	require.NoError(t, err)

	metrics := mock_metric.NewMockWebhook(gomock.NewController(t))
	return service.NewWebhookService(secret, processed, time.Hour, events, log, metrics), metrics
}

func TestWebhookService_Rejections(t *testing.T) {
	body := webhookBody(entity.WebhookPaymentCaptured, "pay_1")

	testCases := []struct {
		desc    string
		secret  string
		body    []byte
		header  string
		wantErr error
	}{
		{
			desc:    "MissingHeader",
			secret:  testWebhookSecret,
			body:    body,
			header:  "",
			wantErr: entity.ErrMissingSignature,
		},
		{
			desc:    "MissingSecret",
			secret:  "",
			body:    body,
			header:  signature.SignBytes(testWebhookSecret, body),
			wantErr: entity.ErrMissingConfiguration,
		},
		{
			desc:    "TamperedBody",
			secret:  testWebhookSecret,
			body:    append([]byte(" "), body...),
			header:  signature.SignBytes(testWebhookSecret, body),
			wantErr: entity.ErrSignatureMismatch,
		},
		{
			desc:    "WrongSecret",
			secret:  testWebhookSecret,
			body:    body,
			header:  signature.SignBytes("other", body),
			wantErr: entity.ErrSignatureMismatch,
		},
		{
			desc:    "MalformedJSON",
			secret:  testWebhookSecret,
			body:    []byte(`{"event":`),
			header:  signature.SignBytes(testWebhookSecret, []byte(`{"event":`)),
			wantErr: entity.ErrMalformedEvent,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			events := mock_service.NewMockEventPublisher(ctrl)

			svc, metrics := newWebhookService(t, tc.secret, events)
			metrics.EXPECT().Event("unknown", "rejected").Times(1)

			ack, err := svc.HandleWebhook(context.Background(), tc.body, tc.header)
			require.ErrorIs(t, err, tc.wantErr)
			require.Nil(t, ack)
		})
	}
}

func TestWebhookService_CapturedIsIdempotent(t *testing.T) {
	ctrl := gomock.NewController(t)
	events := mock_service.NewMockEventPublisher(ctrl)
	svc, metrics := newWebhookService(t, testWebhookSecret, events)

	body := webhookBody(entity.WebhookPaymentCaptured, "pay_1")
	header := signature.SignBytes(testWebhookSecret, body)

	events.EXPECT().Publish(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, event entity.PaymentEvent) error {
			require.Equal(t, entity.WebhookPaymentCaptured, event.Type)
			require.Equal(t, entity.EventSourceWebhook, event.Source)
			require.Equal(t, "pay_1", event.PaymentID)
			require.Equal(t, "order_ABC", event.OrderID)
			require.Equal(t, int64(40596), event.Amount)
			return nil
		}).Times(1)
	metrics.EXPECT().Event(entity.WebhookPaymentCaptured, "processed").Times(1)
	metrics.EXPECT().Event(entity.WebhookPaymentCaptured, "duplicate").Times(1)

	for range 2 {
		ack, err := svc.HandleWebhook(context.Background(), body, header)
		require.NoError(t, err)
		require.Equal(t, "ok", ack.Status)
		require.Equal(t, entity.WebhookPaymentCaptured, ack.Event)
	}
}

func TestWebhookService_AuthorizedThenCapturedAreDistinct(t *testing.T) {
	ctrl := gomock.NewController(t)
	events := mock_service.NewMockEventPublisher(ctrl)
	svc, metrics := newWebhookService(t, testWebhookSecret, events)

	events.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil).Times(2)
	metrics.EXPECT().Event(gomock.Any(), "processed").Times(2)

	for _, event := range []string{entity.WebhookPaymentAuthorized, entity.WebhookPaymentCaptured} {
		body := webhookBody(event, "pay_1")
		_, err := svc.HandleWebhook(context.Background(), body, signature.SignBytes(testWebhookSecret, body))
		require.NoError(t, err)
	}
}

func TestWebhookService_OtherEventsAcknowledged(t *testing.T) {
	ctrl := gomock.NewController(t)
	events := mock_service.NewMockEventPublisher(ctrl)
	svc, metrics := newWebhookService(t, testWebhookSecret, events)

	metrics.EXPECT().Event(entity.WebhookPaymentFailed, "ignored").Times(1)
	metrics.EXPECT().Event("refund.created", "ignored").Times(1)

	for _, event := range []string{entity.WebhookPaymentFailed, "refund.created"} {
		body := webhookBody(event, "pay_1")
		ack, err := svc.HandleWebhook(context.Background(), body, signature.SignBytes(testWebhookSecret, body))
		require.NoError(t, err)
		require.Equal(t, event, ack.Event)
	}
}

func TestWebhookService_WithoutPublisher(t *testing.T) {
	svc, metrics := newWebhookService(t, testWebhookSecret, nil)
	metrics.EXPECT().Event(entity.WebhookPaymentCaptured, "processed").Times(1)

	body := webhookBody(entity.WebhookPaymentCaptured, "pay_2")
	ack, err := svc.HandleWebhook(context.Background(), body, signature.SignBytes(testWebhookSecret, body))
	require.NoError(t, err)
	require.Equal(t, "ok", ack.Status)
}
