package app_test

import (
	"context"
	"net"
	"testing"
	"time"

	"checkout/internal/app"
	"checkout/internal/config"
	"checkout/pkg/logger"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func freePort(t *testing.T) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	_, port, err := net.SplitHostPort(l.Addr().String())
	require.NoError(t, err)
	require.NoError(t, l.Close())
	return port
}

func TestRun_FailedStartupLeavesNoListener(t *testing.T) {
	cfg := &config.Config{}
	cfg.Metrics.Host = "127.0.0.1"
	cfg.Metrics.Port = freePort(t)
	cfg.Metrics.ReadTimeout = time.Second
	cfg.Metrics.WriteTimeout = time.Second
	cfg.Metrics.ReadHeaderTimeout = time.Second
	cfg.HTTP.ShutdownTimeout = time.Second
	cfg.Pending.Capacity = 0
	cfg.Pending.CleanupInterval = time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := app.Run(ctx, cfg, logger.NewFromZap(zaptest.NewLogger(t)))
	require.Error(t, err)

	time.Sleep(100 * time.Millisecond)

	l, err := net.Listen("tcp", net.JoinHostPort(cfg.Metrics.Host, cfg.Metrics.Port))
	require.NoError(t, err, "metrics port still held after startup failed")
	require.NoError(t, l.Close())
}
