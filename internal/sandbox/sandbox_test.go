package sandbox_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"checkout/internal/entity"
	"checkout/internal/sandbox"
	"checkout/pkg/logger"
	"checkout/pkg/signature"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const (
	testKeyID         = "rzp_test_sandbox"
	testKeySecret     = "sandbox_secret"
	testWebhookSecret = "sandbox_webhook_secret"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newSandbox(t *testing.T, webhookURL string) *httptest.Server {
	t.Helper()

	sb := sandbox.New(sandbox.Config{
		KeyID:         testKeyID,
		KeySecret:     testKeySecret,
		WebhookSecret: testWebhookSecret,
		WebhookURL:    webhookURL,
	}, logger.NewFromZap(zaptest.NewLogger(t)))

	srv := httptest.NewServer(sb.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url string, body any, auth bool) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if auth {
		req.SetBasicAuth(testKeyID, testKeySecret)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func createOrder(t *testing.T, baseURL string, amount int64) entity.ProviderOrder {
	t.Helper()

	resp := do(t, http.MethodPost, baseURL+"/v1/orders",
		map[string]any{"amount": amount, "currency": "INR", "receipt": "receipt_1"}, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var order entity.ProviderOrder
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&order))
	return order
}

func TestSandbox_CreateOrder(t *testing.T) {
	srv := newSandbox(t, "")

	t.Run("RequiresBasicAuth", func(t *testing.T) {
		resp := do(t, http.MethodPost, srv.URL+"/v1/orders",
			map[string]any{"amount": 50694, "currency": "INR"}, false)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("BelowMinimum", func(t *testing.T) {
		resp := do(t, http.MethodPost, srv.URL+"/v1/orders",
			map[string]any{"amount": 99, "currency": "INR"}, true)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("Created", func(t *testing.T) {
		order := createOrder(t, srv.URL, 50694)
		require.Regexp(t, `^order_[0-9a-f]{14}$`, order.ID)
		require.Equal(t, int64(50694), order.Amount)
		require.Equal(t, "receipt_1", order.Receipt)
		require.Equal(t, "created", order.Status)
	})
}

func TestSandbox_PayAndFetch(t *testing.T) {
	testCases := []struct {
		desc   string
		status string
		want   string
	}{
		{"DefaultsToCaptured", "", entity.PaymentStatusCaptured},
		{"Authorized", entity.PaymentStatusAuthorized, entity.PaymentStatusAuthorized},
		{"Failed", entity.PaymentStatusFailed, entity.PaymentStatusFailed},
	}

	srv := newSandbox(t, "")

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			order := createOrder(t, srv.URL, 40596)

			resp := do(t, http.MethodPost, srv.URL+"/sandbox/pay",
				map[string]any{"orderId": order.ID, "status": tc.status}, false)
			require.Equal(t, http.StatusOK, resp.StatusCode)

			var result sandbox.CheckoutResult
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
			require.Equal(t, order.ID, result.OrderID)
			require.True(t, signature.Verify(testKeySecret, order.ID+"|"+result.PaymentID, result.Signature))

			resp = do(t, http.MethodGet, srv.URL+"/v1/payments/"+result.PaymentID, nil, true)
			require.Equal(t, http.StatusOK, resp.StatusCode)

			var payment entity.ProviderPayment
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&payment))
			require.Equal(t, order.ID, payment.OrderID)
			require.Equal(t, order.Amount, payment.Amount)
			require.Equal(t, tc.want, payment.Status)
			require.NotEmpty(t, payment.Method)
		})
	}
}

func TestSandbox_UnknownIDs(t *testing.T) {
	srv := newSandbox(t, "")

	resp := do(t, http.MethodPost, srv.URL+"/sandbox/pay", map[string]any{"orderId": "order_missing"}, false)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/v1/payments/pay_missing", nil, true)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, http.MethodPost, srv.URL+"/sandbox/pay",
		map[string]any{"orderId": "order_missing", "status": "refunded"}, false)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSandbox_SendsSignedWebhook(t *testing.T) {
	received := make(chan entity.WebhookEvent, 1)

	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil || !signature.VerifyBytes(testWebhookSecret, body, r.Header.Get("X-Razorpay-Signature")) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		var event entity.WebhookEvent
		if err := json.Unmarshal(body, &event); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		received <- event
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(hook.Close)

	srv := newSandbox(t, hook.URL)
	order := createOrder(t, srv.URL, 50694)

	resp := do(t, http.MethodPost, srv.URL+"/sandbox/pay", map[string]any{"orderId": order.ID}, false)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result sandbox.CheckoutResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))

	select {
	case event := <-received:
		require.Equal(t, entity.WebhookPaymentCaptured, event.Event)
		payment, ok := event.PaymentEntity()
		require.True(t, ok)
		require.Equal(t, result.PaymentID, payment.ID)
	default:
		t.Fatal("webhook was not delivered")
	}
}
