// Package notify tells the kitchen channel about paid orders. Delivery is
// best effort: a failure is logged and counted, never returned to the payer.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"checkout/internal/config"
	"checkout/internal/entity"
	"checkout/pkg/logger"
	"checkout/pkg/metric"
)

const (
	_embedTitle = "🍔 New Order Received!"
	_embedColor = 0x00ff00

	// Discord rejects field values longer than this.
	_maxFieldValue = 1024
)

type (
	embedField struct {
		Name   string `json:"name"`
		Value  string `json:"value"`
		Inline bool   `json:"inline,omitempty"`
	}

	embed struct {
		Title     string       `json:"title"`
		Color     int          `json:"color"`
		Fields    []embedField `json:"fields"`
		Timestamp string       `json:"timestamp"`
	}

	webhookMessage struct {
		Embeds []embed `json:"embeds"`
	}
)

type DiscordNotifier struct {
	webhookURL string
	httpClient *http.Client
	logger     logger.Logger
	metrics    metric.Notification
	now        func() time.Time
}

func NewDiscordNotifier(cfg config.Notify, log logger.Logger, metrics metric.Notification) *DiscordNotifier {
	return &DiscordNotifier{
		webhookURL: cfg.WebhookURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     log,
		metrics:    metrics,
		now:        time.Now,
	}
}

// Notify posts the order to the webhook and reports whether it was accepted.
func (n *DiscordNotifier) Notify(ctx context.Context, summary entity.OrderSummary) bool {
	const op = "notify.Notify"
	log := n.logger.Ctx(ctx)

	if n.webhookURL == "" {
		n.metrics.Failed("not_configured")
		log.LogAttrs(ctx, logger.WarnLevel, "notification webhook url not configured",
			logger.String("op", op),
			logger.String("order_id", summary.OrderID),
		)
		return false
	}

	body, err := json.Marshal(webhookMessage{Embeds: []embed{n.buildEmbed(summary)}})
	if err != nil {
		n.metrics.Failed("marshal")
		log.LogAttrs(ctx, logger.ErrorLevel, "failed to marshal notification",
			logger.String("op", op),
			logger.Err(err),
		)
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		n.metrics.Failed("request")
		log.LogAttrs(ctx, logger.ErrorLevel, "failed to build notification request",
			logger.String("op", op),
			logger.Err(err),
		)
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		n.metrics.Failed("transport")
		log.LogAttrs(ctx, logger.WarnLevel, "notification request failed",
			logger.String("op", op),
			logger.String("order_id", summary.OrderID),
			logger.Err(err),
		)
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		n.metrics.Failed("status_" + metric.StatusClass(resp.StatusCode))
		log.LogAttrs(ctx, logger.WarnLevel, "notification webhook returned non-2xx",
			logger.String("op", op),
			logger.String("order_id", summary.OrderID),
			logger.Int("status", resp.StatusCode),
		)
		return false
	}

	n.metrics.Sent()
	log.LogAttrs(ctx, logger.InfoLevel, "order notification sent",
		logger.String("op", op),
		logger.String("order_id", summary.OrderID),
		logger.Int("status", resp.StatusCode),
	)
	return true
}

func (n *DiscordNotifier) buildEmbed(s entity.OrderSummary) embed {
	lines := make([]string, 0, len(s.Items))
	for _, item := range s.Items {
		lines = append(lines, fmt.Sprintf("• %dx %s - ₹%s", item.Quantity, item.Name, item.UnitPrice.StringFixed(2)))
	}

	totals := fmt.Sprintf("Subtotal: ₹%s\nConvenience Fee (2%%): ₹%s\nTotal: ₹%s",
		s.Subtotal.StringFixed(2),
		s.ConvenienceFee.StringFixed(2),
		s.Total.StringFixed(2),
	)

	return embed{
		Title: _embedTitle,
		Color: _embedColor,
		Fields: []embedField{
			{Name: "📋 Order ID", Value: s.OrderID, Inline: true},
			{Name: "👤 Customer", Value: s.CustomerName, Inline: true},
			{Name: "📱 Phone", Value: s.PhoneNumber, Inline: true},
			{Name: "🛒 Order Items", Value: truncate(strings.Join(lines, "\n"), _maxFieldValue)},
			{Name: "💰 Total Amount", Value: totals},
		},
		Timestamp: n.now().UTC().Format(time.RFC3339Nano),
	}
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
