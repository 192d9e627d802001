package notify_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"checkout/internal/entity"
	"checkout/internal/notify"
	mock_notify "checkout/internal/notify/mock"
	"checkout/pkg/logger"
	mock_metric "checkout/pkg/metric/mock"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestQueue_DeliversAsync(t *testing.T) {
	ctrl := gomock.NewController(t)
	notifier := mock_notify.NewMockNotifier(ctrl)
	metrics := mock_metric.NewMockNotification(ctrl)

	delivered := make(chan entity.OrderSummary, 1)
	notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, s entity.OrderSummary) bool {
			require.NoError(t, ctx.Err())
			delivered <- s
			return true
		}).Times(1)

	q := notify.NewQueue(notifier, nil, 4, 2, logger.NewFromZap(zaptest.NewLogger(t)), metrics)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- q.Run(ctx) }()

	reqCtx, reqCancel := context.WithCancel(context.Background())
	require.True(t, q.Enqueue(reqCtx, entity.OrderSummary{OrderID: "order_1"}))
	reqCancel()

	select {
	case s := <-delivered:
		require.Equal(t, "order_1", s.OrderID)
	case <-time.After(time.Second):
		t.Fatal("notification was not delivered")
	}

	cancel()
	require.NoError(t, <-done)
}

func TestQueue_DropsWhenFull(t *testing.T) {
	ctrl := gomock.NewController(t)
	notifier := mock_notify.NewMockNotifier(ctrl)
	metrics := mock_metric.NewMockNotification(ctrl)

	q := notify.NewQueue(notifier, nil, 1, 1, logger.NewFromZap(zaptest.NewLogger(t)), metrics)

	metrics.EXPECT().Dropped().Times(1)

	require.True(t, q.Enqueue(context.Background(), entity.OrderSummary{OrderID: "order_1"}))
	require.False(t, q.Enqueue(context.Background(), entity.OrderSummary{OrderID: "order_2"}))

	// the buffered job is still delivered on shutdown
	notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(true).Times(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, q.Run(ctx))
}

func TestQueue_DeadLettersFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	notifier := mock_notify.NewMockNotifier(ctrl)
	deadLetter := mock_notify.NewMockDeadLetter(ctrl)
	metrics := mock_metric.NewMockNotification(ctrl)

	var wg sync.WaitGroup
	wg.Add(2)

	notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(false).Times(2)
	deadLetter.EXPECT().Send(gomock.Any(), "order_1", gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, payload []byte, cause error) error {
			defer wg.Done()
			require.Contains(t, string(payload), `"order_id":"order_1"`)
			require.Error(t, cause)
			return nil
		})
	deadLetter.EXPECT().Send(gomock.Any(), "order_2", gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, string, []byte, error) error {
			defer wg.Done()
			return errors.New("broker down")
		})

	q := notify.NewQueue(notifier, deadLetter, 4, 1, logger.NewFromZap(zaptest.NewLogger(t)), metrics)
	require.True(t, q.Enqueue(context.Background(), entity.OrderSummary{OrderID: "order_1"}))
	require.True(t, q.Enqueue(context.Background(), entity.OrderSummary{OrderID: "order_2"}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- q.Run(ctx) }()

	wg.Wait()
	cancel()
	require.NoError(t, <-done)
}

func TestQueue_RefusesAfterStop(t *testing.T) {
	ctrl := gomock.NewController(t)
	notifier := mock_notify.NewMockNotifier(ctrl)
	metrics := mock_metric.NewMockNotification(ctrl)

	q := notify.NewQueue(notifier, nil, 4, 2, logger.NewFromZap(zaptest.NewLogger(t)), metrics)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, q.Run(ctx))

	// nothing is left to deliver it, so the caller must learn it was dropped
	notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Times(0)
	metrics.EXPECT().Dropped().Times(1)

	require.False(t, q.Enqueue(context.Background(), entity.OrderSummary{OrderID: "order_late"}))
}
