package app

import (
	"context"
	"fmt"
	"time"

	"checkout/internal/catalog"
	"checkout/internal/config"
	"checkout/internal/entity"
	"checkout/internal/gateway"
	"checkout/internal/notify"
	"checkout/internal/service"
	"checkout/internal/store"
	httpt "checkout/internal/transport/http"
	kafkat "checkout/internal/transport/kafka"
	"checkout/pkg/cache"
	"checkout/pkg/kafka"
	"checkout/pkg/kafka/dlq"
	"checkout/pkg/logger"
	"checkout/pkg/metric"

	"golang.org/x/sync/errgroup"
)

// Run wires the checkout service and blocks until ctx is cancelled or one of
// its servers fails. Background workers stop only after the API server has
// shut down.
func Run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	eg, ctx := errgroup.WithContext(ctx)

	metrics := metric.NewFactory()

	pendingCache, err := initCache[string, *entity.PendingOrder](
		metric.CachePendingOrders, cfg.Pending.Capacity, cfg.Pending.CleanupInterval, log, metrics)
	if err != nil {
		return err
	}
	defer pendingCache.StopCleanup()

	webhookCache, err := initCache[string, struct{}](
		metric.CacheWebhookEvents, cfg.Webhook.DedupCapacity, cfg.Pending.CleanupInterval, log, metrics)
	if err != nil {
		return err
	}
	defer webhookCache.StopCleanup()

	streams, err := initKafkaComponents(cfg, log, metrics)
	if err != nil {
		return err
	}
	defer streams.close(log)

	workersCtx, stopWorkers := context.WithCancel(context.WithoutCancel(ctx))
	defer stopWorkers()

	queue := initNotifications(workersCtx, eg, cfg, streams.deadLetter, log, metrics)
	events := initEventPublisher(workersCtx, eg, cfg, streams.publisher, log, metrics)

	handler := initCheckoutHandler(
		cfg,
		store.NewPendingOrderStore(pendingCache),
		webhookCache,
		queue,
		events,
		log,
		metrics,
	)

	startMetricsServer(ctx, eg, cfg, metrics, log)
	initHTTPServer(ctx, eg, cfg, handler, log, stopWorkers)

	return waitForShutdown(eg)
}

func startMetricsServer(
	ctx context.Context,
	eg *errgroup.Group,
	cfg *config.Config,
	metrics metric.Factory,
	log logger.Logger,
) {
	metricsServer := httpt.NewHTTPServer(metrics.Handler(), httpt.ServerConfig{
		Name:              "metrics",
		Host:              cfg.Metrics.Host,
		Port:              cfg.Metrics.Port,
		ReadTimeout:       cfg.Metrics.ReadTimeout,
		WriteTimeout:      cfg.Metrics.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
		ReadHeaderTimeout: cfg.Metrics.ReadHeaderTimeout,
		ShutdownTimeout:   cfg.HTTP.ShutdownTimeout,
	}, log.With("component", "metrics server"))

	eg.Go(func() error {
		return metricsServer.Start(ctx)
	})
}

func initCache[K comparable, V any](
	name string,
	capacity int,
	cleanupInterval time.Duration,
	log logger.Logger,
	metrics metric.Factory,
) (cache.Cache[K, V], error) {
	c, err := cache.NewLRUCache[K, V](name, capacity, log.With("component", "cache", "cache", name), metrics.Cache())
	if err != nil {
		return nil, fmt.Errorf("app.initCache: %s: %w", name, err)
	}
	c.StartCleanup(cleanupInterval)
	return c, nil
}

// streams holds the optional Kafka side of the service. Both fields stay nil
// when Kafka is disabled.
type streams struct {
	publisher  *kafkat.PaymentEventPublisher
	deadLetter notify.DeadLetter
	closers    []func() error
}

func (s *streams) close(log logger.Logger) {
	for _, closeFn := range s.closers {
		if err := closeFn(); err != nil {
			log.Errorw("failed to close kafka writer", "error", err)
		}
	}
}

func initKafkaComponents(cfg *config.Config, log logger.Logger, metrics metric.Factory) (*streams, error) {
	s := &streams{}
	if !cfg.Kafka.Enabled {
		log.Infow("kafka disabled, payment events and dead letters are not published")
		return s, nil
	}

	eventsWriter, err := kafka.NewWriter(cfg.Kafka, cfg.Kafka.EventsTopic, log.With("component", "kafka writer"))
	if err != nil {
		return nil, fmt.Errorf("app.initKafkaComponents: events writer creation: %w", err)
	}
	publisher := kafkat.NewPaymentEventPublisher(
		eventsWriter,
		cfg.Kafka.EventsTopic,
		metrics.Publisher(),
		log.With("component", "event publisher"),
	)
	s.publisher = publisher
	s.closers = append(s.closers, publisher.Close)

	dlqWriter, err := kafka.NewWriter(cfg.Kafka, cfg.Kafka.DeadLetterTopic, log.With("component", "kafka writer"))
	if err != nil {
		s.close(log)
		return nil, fmt.Errorf("app.initKafkaComponents: dead letter writer creation: %w", err)
	}
	deadLetterQueue, err := dlq.NewDLQ(
		dlqWriter,
		cfg.Kafka.DeadLetterTopic,
		log.With("component", "dlq"),
		metrics.DLQ(),
		dlq.Source("notifications"),
	)
	if err != nil {
		_ = dlqWriter.Close()
		s.close(log)
		return nil, fmt.Errorf("app.initKafkaComponents: dead letter queue creation: %w", err)
	}
	s.deadLetter = deadLetterQueue
	s.closers = append(s.closers, deadLetterQueue.Close)

	return s, nil
}

func initNotifications(
	ctx context.Context,
	eg *errgroup.Group,
	cfg *config.Config,
	deadLetter notify.DeadLetter,
	log logger.Logger,
	metrics metric.Factory,
) *notify.Queue {
	notifier := notify.NewDiscordNotifier(cfg.Notify, log.With("component", "notifier"), metrics.Notification())
	if cfg.Notify.WebhookURL == "" {
		log.Warnw("notification webhook url not set, orders will not be announced")
	}

	queue := notify.NewQueue(
		notifier,
		deadLetter,
		cfg.Notify.QueueSize,
		cfg.Notify.Workers,
		log.With("component", "notification queue"),
		metrics.Notification(),
	)

	eg.Go(func() error {
		return queue.Run(ctx)
	})

	return queue
}

// initEventPublisher returns a nil interface when Kafka is disabled.
func initEventPublisher(
	ctx context.Context,
	eg *errgroup.Group,
	cfg *config.Config,
	publisher *kafkat.PaymentEventPublisher,
	log logger.Logger,
	metrics metric.Factory,
) service.EventPublisher {
	if publisher == nil {
		return nil
	}

	async := kafkat.NewAsyncPublisher(
		publisher,
		cfg.Kafka.EventBuffer,
		cfg.Kafka.EventsTopic,
		metrics.Publisher(),
		log.With("component", "event buffer"),
	)

	eg.Go(func() error {
		return async.Run(ctx)
	})

	return async
}

func initCheckoutHandler(
	cfg *config.Config,
	pending service.PendingOrders,
	processed cache.Cache[string, struct{}],
	queue service.NotificationQueue,
	events service.EventPublisher,
	log logger.Logger,
	metrics metric.Factory,
) *httpt.CheckoutHandler {
	gatewayClient := gateway.NewClient(cfg.Gateway, log.With("component", "gateway"), metrics.Gateway())

	orderService := service.NewOrderService(
		gatewayClient,
		pending,
		cfg.Gateway.KeyID,
		cfg.Gateway.Currency,
		cfg.Pending.TTL,
		log.With("component", "order service"),
		metrics.Checkout(),
	)

	verificationService := service.NewVerificationService(
		gatewayClient,
		pending,
		queue,
		events,
		cfg.Gateway.KeySecret,
		log.With("component", "verification service"),
		metrics.Checkout(),
	)

	if cfg.Gateway.WebhookSecret == "" {
		log.Warnw("webhook secret not set, provider webhooks will be rejected")
	}
	webhookService := service.NewWebhookService(
		cfg.Gateway.WebhookSecret,
		processed,
		cfg.Webhook.DedupTTL,
		events,
		log.With("component", "webhook service"),
		metrics.Webhook(),
	)

	return httpt.NewCheckoutHandler(
		orderService,
		verificationService,
		webhookService,
		catalog.Default(),
		log.With("component", "http handler"),
		metrics.HTTP(),
		httpt.RequestTimeout(cfg.HTTP.RequestTimeout),
		httpt.MaxWebhookBodyBytes(cfg.Webhook.MaxBodyBytes),
	)
}

func initHTTPServer(
	ctx context.Context,
	eg *errgroup.Group,
	cfg *config.Config,
	handler *httpt.CheckoutHandler,
	log logger.Logger,
	onStop context.CancelFunc,
) {
	httpServer := httpt.NewHTTPServer(handler.Engine(), httpt.ServerConfig{
		Name:              "api",
		Host:              cfg.HTTP.Host,
		Port:              cfg.HTTP.Port,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		ShutdownTimeout:   cfg.HTTP.ShutdownTimeout,
	}, log.With("component", "http server"))

	eg.Go(func() error {
		defer onStop()
		return httpServer.Start(ctx)
	})
}

func waitForShutdown(eg *errgroup.Group) error {
	if err := eg.Wait(); err != nil {
		return fmt.Errorf("app.waitForShutdown: application failed: %w", err)
	}
	return nil
}
