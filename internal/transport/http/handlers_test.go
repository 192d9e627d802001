package httpt_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"checkout/internal/catalog"
	"checkout/internal/entity"
	httpt "checkout/internal/transport/http"
	mock_httpt "checkout/internal/transport/http/mock"
	"checkout/pkg/logger"
	mock_metric "checkout/pkg/metric/mock"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type handlerDeps struct {
	orders   *mock_httpt.MockOrderCreator
	verifier *mock_httpt.MockPaymentVerifier
	webhooks *mock_httpt.MockWebhookProcessor
}

func newHandler(t *testing.T, opts ...httpt.Option) (*httpt.CheckoutHandler, handlerDeps) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctrl := gomock.NewController(t)
	deps := handlerDeps{
		orders:   mock_httpt.NewMockOrderCreator(ctrl),
		verifier: mock_httpt.NewMockPaymentVerifier(ctrl),
		webhooks: mock_httpt.NewMockWebhookProcessor(ctrl),
	}

	metrics := mock_metric.NewMockHTTP(ctrl)
	metrics.EXPECT().Request(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
	metrics.EXPECT().SlowRequest(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()

	h := httpt.NewCheckoutHandler(deps.orders, deps.verifier, deps.webhooks, catalog.Default(),
		logger.NewFromZap(zaptest.NewLogger(t)), metrics, opts...)
	return h, deps
}

func do(h *httpt.CheckoutHandler, method, path string, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.Engine().ServeHTTP(w, req)
	return w
}

func TestHealthAndRequestID(t *testing.T) {
	h, _ := newHandler(t)

	w := do(h, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = do(h, http.MethodGet, "/health", "", map[string]string{"X-Request-ID": "storefront-123"})
	require.Equal(t, "storefront-123", w.Header().Get("X-Request-ID"))
}

func TestGetMenu(t *testing.T) {
	h, _ := newHandler(t)

	w := do(h, http.MethodGet, "/api/v1/menu", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Items []struct {
			ID    string  `json:"id"`
			Name  string  `json:"name"`
			Price float64 `json:"price"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 6)
	require.Equal(t, "Margherita Pizza", resp.Items[0].Name)
	require.InDelta(t, 199.0, resp.Items[0].Price, 0.001)
}

func TestCreateOrder(t *testing.T) {
	testCases := []struct {
		desc   string
		body   string
		mocks  func(d handlerDeps)
		status int
		check  func(t *testing.T, body []byte)
	}{
		{
			desc: "UsesMenuPrices",
			body: `{"customerName":"Asha","phoneNumber":"9876543210","items":[{"id":"1","quantity":2,"price":1,"name":"x"}]}`,
			mocks: func(d handlerDeps) {
				d.orders.EXPECT().CreateOrder(gomock.Any(), "Asha", "9876543210", gomock.Any()).
					DoAndReturn(func(_ context.Context, _, _ string, items []entity.CartLine) (*entity.CreatedOrder, error) {
						require.Len(t, items, 1)
						require.Equal(t, "Margherita Pizza", items[0].Name)
						require.True(t, items[0].UnitPrice.Equal(decimal.NewFromInt(199)))
						require.Equal(t, 2, items[0].Quantity)
						return &entity.CreatedOrder{
							OrderID: "order_ABC", Amount: 40596, Currency: "INR", KeyID: "rzp_test", ReceiptID: "receipt_1_abcdef01",
						}, nil
					}).Times(1)
			},
			status: http.StatusCreated,
			check: func(t *testing.T, body []byte) {
				require.JSONEq(t,
					`{"orderId":"order_ABC","amount":40596,"currency":"INR","keyId":"rzp_test","receiptId":"receipt_1_abcdef01"}`,
					string(body))
			},
		},
		{
			desc:   "ShortPhone",
			body:   `{"customerName":"Asha","phoneNumber":"98765","items":[{"id":"1","quantity":1}]}`,
			mocks:  func(handlerDeps) {},
			status: http.StatusBadRequest,
		},
		{
			desc:   "PhoneWithLetters",
			body:   `{"customerName":"Asha","phoneNumber":"98765abcde","items":[{"id":"1","quantity":1}]}`,
			mocks:  func(handlerDeps) {},
			status: http.StatusBadRequest,
		},
		{
			desc:   "MissingName",
			body:   `{"phoneNumber":"9876543210","items":[{"id":"1","quantity":1}]}`,
			mocks:  func(handlerDeps) {},
			status: http.StatusBadRequest,
		},
		{
			desc:   "EmptyItems",
			body:   `{"customerName":"Asha","phoneNumber":"9876543210","items":[]}`,
			mocks:  func(handlerDeps) {},
			status: http.StatusBadRequest,
		},
		{
			desc:   "ZeroQuantity",
			body:   `{"customerName":"Asha","phoneNumber":"9876543210","items":[{"id":"1","quantity":0}]}`,
			mocks:  func(handlerDeps) {},
			status: http.StatusBadRequest,
		},
		{
			desc:   "UnknownItem",
			body:   `{"customerName":"Asha","phoneNumber":"9876543210","items":[{"id":"99","quantity":1}]}`,
			mocks:  func(handlerDeps) {},
			status: http.StatusBadRequest,
			check: func(t *testing.T, body []byte) {
				require.JSONEq(t, `{"error":"Unknown menu item"}`, string(body))
			},
		},
		{
			desc: "ProviderFailure",
			body: `{"customerName":"Asha","phoneNumber":"9876543210","items":[{"id":"1","quantity":1}]}`,
			mocks: func(d handlerDeps) {
				d.orders.EXPECT().CreateOrder(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil, fmt.Errorf("service.CreateOrder: %w", entity.ErrOrderCreationFailed)).Times(1)
			},
			status: http.StatusBadGateway,
			check: func(t *testing.T, body []byte) {
				require.JSONEq(t, `{"error":"Failed to create order"}`, string(body))
			},
		},
		{
			desc: "PendingStoreFull",
			body: `{"customerName":"Asha","phoneNumber":"9876543210","items":[{"id":"1","quantity":1}]}`,
			mocks: func(d handlerDeps) {
				d.orders.EXPECT().CreateOrder(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil, fmt.Errorf("service.CreateOrder: %w", entity.ErrTooManyPendingOrders)).Times(1)
			},
			status: http.StatusServiceUnavailable,
			check: func(t *testing.T, body []byte) {
				require.JSONEq(t, `{"error":"Too many pending orders, try again later"}`, string(body))
			},
		},
		{
			desc:   "NotJSON",
			body:   `customerName=Asha`,
			mocks:  func(handlerDeps) {},
			status: http.StatusBadRequest,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			h, deps := newHandler(t)
			tc.mocks(deps)

			w := do(h, http.MethodPost, "/api/v1/orders", tc.body, nil)
			require.Equal(t, tc.status, w.Code, w.Body.String())
			if tc.check != nil {
				tc.check(t, w.Body.Bytes())
			}
		})
	}
}

func TestVerifyPayment(t *testing.T) {
	const body = `{"paymentId":"pay_XYZ","orderId":"order_ABC","signature":"abc123","receiptId":"receipt_1_abcdef01"}`

	testCases := []struct {
		desc   string
		result entity.VerificationResult
		status int
		error  string
	}{
		{
			desc: "Success",
			result: entity.VerificationSuccess(&entity.OrderDetails{
				Items:          []entity.CartLine{{ID: "1", Name: "Margherita Pizza", UnitPrice: decimal.NewFromInt(199), Quantity: 2}},
				Subtotal:       decimal.NewFromInt(398),
				ConvenienceFee: decimal.RequireFromString("7.96"),
				Total:          decimal.RequireFromString("405.96"),
			}),
			status: http.StatusOK,
		},
		{"InvalidOrder", entity.VerificationFailure(entity.ErrOrderNotFound), http.StatusBadRequest, "Invalid order"},
		{"InvalidSignature", entity.VerificationFailure(entity.ErrSignatureMismatch), http.StatusBadRequest, "Invalid payment signature"},
		{"NotCompleted", entity.VerificationFailure(entity.ErrPaymentIncomplete), http.StatusPaymentRequired, "Payment not completed"},
		{"ProviderDown", entity.VerificationFailure(entity.ErrProviderTransport), http.StatusBadGateway, "Payment verification failed"},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			h, deps := newHandler(t)
			deps.verifier.EXPECT().Verify(gomock.Any(), entity.PaymentCallback{
				PaymentID: "pay_XYZ", OrderID: "order_ABC", Signature: "abc123", ReceiptID: "receipt_1_abcdef01",
			}).Return(tc.result).Times(1)

			w := do(h, http.MethodPost, "/api/v1/payments/verify", body, nil)
			require.Equal(t, tc.status, w.Code)

			var resp struct {
				Success      bool   `json:"success"`
				Error        string `json:"error"`
				OrderDetails *struct {
					Total          float64 `json:"total"`
					ConvenienceFee float64 `json:"convenienceFee"`
				} `json:"orderDetails"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			require.Equal(t, tc.result.Success, resp.Success)
			require.Equal(t, tc.error, resp.Error)
			if tc.result.Success {
				require.NotNil(t, resp.OrderDetails)
				require.InDelta(t, 405.96, resp.OrderDetails.Total, 0.0001)
				require.InDelta(t, 7.96, resp.OrderDetails.ConvenienceFee, 0.0001)
			}
		})
	}
}

func TestVerifyPayment_MalformedBody(t *testing.T) {
	testCases := []struct {
		desc string
		body string
	}{
		{"MissingFields", `{"paymentId":"pay_XYZ"}`},
		{"NotJSON", `paymentId=pay_XYZ`},
		{"WrongTypes", `{"paymentId":1,"orderId":2,"signature":3,"receiptId":4}`},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			h, deps := newHandler(t)
			deps.verifier.EXPECT().Verify(gomock.Any(), gomock.Any()).Times(0)

			w := do(h, http.MethodPost, "/api/v1/payments/verify", tc.body, nil)
			require.Equal(t, http.StatusBadRequest, w.Code)
			require.JSONEq(t, `{"success":false,"error":"Invalid order"}`, w.Body.String())
		})
	}
}

func TestPaymentWebhook(t *testing.T) {
	const payload = `{"event":"payment.captured"}`

	testCases := []struct {
		desc   string
		err    error
		status int
		body   string
	}{
		{"Accepted", nil, http.StatusOK, `{"status":"ok","event":"payment.captured"}`},
		{"MissingSignature", entity.ErrMissingSignature, http.StatusBadRequest, `{"error":"Missing signature"}`},
		{"BadSignature", entity.ErrSignatureMismatch, http.StatusBadRequest, `{"error":"Invalid signature"}`},
		{"MalformedEvent", entity.ErrMalformedEvent, http.StatusBadRequest, `{"error":"Invalid payload"}`},
		{"NoSecret", entity.ErrMissingConfiguration, http.StatusInternalServerError, `{"error":"Service not configured"}`},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			h, deps := newHandler(t)

			var ack *entity.WebhookAck
			if tc.err == nil {
				ack = &entity.WebhookAck{Status: "ok", Event: "payment.captured"}
			}
			deps.webhooks.EXPECT().HandleWebhook(gomock.Any(), []byte(payload), "sig").
				Return(ack, tc.err).Times(1)

			w := do(h, http.MethodPost, "/api/v1/webhooks/payment", payload, map[string]string{"X-Razorpay-Signature": "sig"})
			require.Equal(t, tc.status, w.Code)
			require.JSONEq(t, tc.body, w.Body.String())
		})
	}
}

func TestPaymentWebhook_TooLarge(t *testing.T) {
	h, _ := newHandler(t, httpt.MaxWebhookBodyBytes(16))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/payment", bytes.NewReader(bytes.Repeat([]byte("a"), 64)))
	req.Header.Set("X-Razorpay-Signature", "sig")
	w := httptest.NewRecorder()
	h.Engine().ServeHTTP(w, req)

	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}
