package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"checkout/internal/sandbox"
	httpt "checkout/internal/transport/http"
	"checkout/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:8090", "Address to listen on")
	keyID := flag.String("key-id", "rzp_test_sandbox", "API key id accepted by the sandbox")
	keySecret := flag.String("key-secret", "sandbox_secret", "API key secret, also used to sign checkout callbacks")
	webhookSecret := flag.String("webhook-secret", "sandbox_webhook_secret", "Secret used to sign webhook deliveries")
	webhookURL := flag.String("webhook-url", "", "Checkout webhook endpoint to notify after each payment")

	flag.Parse()

	z, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	log := logger.NewFromZap(z)
	defer func() { _ = log.Sync() }()

	gin.SetMode(gin.ReleaseMode)

	sb := sandbox.New(sandbox.Config{
		KeyID:         *keyID,
		KeySecret:     *keySecret,
		WebhookSecret: *webhookSecret,
		WebhookURL:    *webhookURL,
	}, log)

	host, port, err := net.SplitHostPort(*addr)
	if err != nil {
		log.Errorw("invalid listen address", "addr", *addr, "error", err)
		os.Exit(1)
	}

	server := httpt.NewHTTPServer(sb.Handler(), httpt.ServerConfig{
		Name:              "provider-sandbox",
		Host:              host,
		Port:              port,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
	}, log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Infow("provider sandbox starting", "addr", *addr, "webhook_url", *webhookURL)

	if err := server.Start(ctx); err != nil {
		log.Errorw("provider sandbox failed", "error", err)
		return
	}

	log.Infow("provider sandbox exited normally")
}
