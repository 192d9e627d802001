// Package gateway talks to the Razorpay-compatible payment provider.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"checkout/internal/config"
	"checkout/internal/entity"
	"checkout/pkg/logger"
	"checkout/pkg/metric"
)

const (
	_opCreateOrder  = "create_order"
	_opFetchPayment = "fetch_payment"

	_maxErrorBody = 4 << 10
)

type Client struct {
	baseURL    string
	keyID      string
	keySecret  string
	httpClient *http.Client
	logger     logger.Logger
	metrics    metric.Gateway
}

func NewClient(cfg config.Gateway, log logger.Logger, metrics metric.Gateway) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		keyID:      cfg.KeyID,
		keySecret:  cfg.KeySecret,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     log,
		metrics:    metrics,
	}
}

type createOrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

// providerError is the error envelope the provider returns with 4xx/5xx.
type providerError struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// CreateOrder registers an order of amount minor units with the provider.
func (c *Client) CreateOrder(
	ctx context.Context,
	amount int64,
	currency string,
	receipt string,
) (*entity.ProviderOrder, error) {
	const op = "gateway.CreateOrder"

	body, err := json.Marshal(createOrderRequest{Amount: amount, Currency: currency, Receipt: receipt})
	if err != nil {
		return nil, fmt.Errorf("%s: marshal request: %w", op, err)
	}

	var order entity.ProviderOrder
	if err = c.do(ctx, _opCreateOrder, http.MethodPost, "/v1/orders", body, &order); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if order.ID == "" {
		c.metrics.Failure(_opCreateOrder, "empty_id")
		return nil, fmt.Errorf("%s: provider returned order without id: %w", op, entity.ErrProviderTransport)
	}

	return &order, nil
}

// FetchPayment reads the provider's current view of a payment.
func (c *Client) FetchPayment(ctx context.Context, paymentID string) (*entity.ProviderPayment, error) {
	const op = "gateway.FetchPayment"

	var payment entity.ProviderPayment
	path := "/v1/payments/" + url.PathEscape(paymentID)
	if err := c.do(ctx, _opFetchPayment, http.MethodGet, path, nil, &payment); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &payment, nil
}

func (c *Client) do(ctx context.Context, operation, method, path string, body []byte, out any) error {
	log := c.logger.Ctx(ctx)

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.SetBasicAuth(c.keyID, c.keySecret)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		reason := "transport"
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			reason = "timeout"
		}
		c.metrics.Failure(operation, reason)
		log.LogAttrs(ctx, logger.WarnLevel, "payment provider request failed",
			logger.String("operation", operation),
			logger.String("reason", reason),
			logger.Err(err),
		)
		return fmt.Errorf("%s %s: %w: %w", method, path, entity.ErrProviderTransport, err)
	}
	defer resp.Body.Close()

	c.metrics.Request(operation, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, _maxErrorBody))
		var perr providerError
		_ = json.Unmarshal(raw, &perr)

		c.metrics.Failure(operation, "status_"+metric.StatusClass(resp.StatusCode))
		log.LogAttrs(ctx, logger.WarnLevel, "payment provider returned error",
			logger.String("operation", operation),
			logger.Int("status", resp.StatusCode),
			logger.String("code", perr.Error.Code),
			logger.String("description", perr.Error.Description),
		)
		return fmt.Errorf("%s %s: status %d: %w", method, path, resp.StatusCode, entity.ErrProviderTransport)
	}

	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.metrics.Failure(operation, "decode")
		return fmt.Errorf("%s %s: decode response: %w: %w", method, path, entity.ErrProviderTransport, err)
	}

	return nil
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
