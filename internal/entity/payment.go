package entity

import (
	"errors"
	"time"
)

const (
	PaymentStatusCreated    = "created"
	PaymentStatusAuthorized = "authorized"
	PaymentStatusCaptured   = "captured"
	PaymentStatusFailed     = "failed"
	PaymentStatusRefunded   = "refunded"
)

type ProviderPayment struct {
	ID       string `json:"id"`
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
	Method   string `json:"method,omitempty"`
}

// Completed reports whether the provider considers the money secured.
func (p *ProviderPayment) Completed() bool {
	return p.Status == PaymentStatusCaptured || p.Status == PaymentStatusAuthorized
}

type PaymentCallback struct {
	PaymentID string `json:"paymentId" validate:"required,max=64"`
	OrderID   string `json:"orderId"   validate:"required,max=64"`
	Signature string `json:"signature" validate:"required,hexadecimal,len=64"`
	ReceiptID string `json:"receiptId" validate:"required,max=64"`
}

// Message is the string the provider signs for a checkout callback.
func (c PaymentCallback) Message() string {
	return c.OrderID + "|" + c.PaymentID
}

type VerificationResult struct {
	Success      bool          `json:"success"`
	Error        string        `json:"error,omitempty"`
	OrderDetails *OrderDetails `json:"orderDetails,omitempty"`

	err error
}

func (r VerificationResult) Err() error {
	return r.err
}

func VerificationSuccess(details *OrderDetails) VerificationResult {
	return VerificationResult{Success: true, OrderDetails: details}
}

// VerificationFailure converts a verification error into the client-facing
// result. Unknown errors surface as a generic verification failure.
func VerificationFailure(err error) VerificationResult {
	reason := "Payment verification failed"
	switch {
	case errors.Is(err, ErrOrderNotFound), errors.Is(err, ErrInvalidData):
		reason = "Invalid order"
	case errors.Is(err, ErrSignatureMismatch):
		reason = "Invalid payment signature"
	case errors.Is(err, ErrPaymentIncomplete):
		reason = "Payment not completed"
	}
	return VerificationResult{Success: false, Error: reason, err: err}
}

// PaymentEvent is published downstream once a payment is known to be good.
type PaymentEvent struct {
	Type       string    `json:"type"`
	Source     string    `json:"source"`
	PaymentID  string    `json:"payment_id"`
	OrderID    string    `json:"order_id"`
	ReceiptID  string    `json:"receipt_id,omitempty"`
	Amount     int64     `json:"amount"`
	Currency   string    `json:"currency"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurred_at"`
}

const (
	PaymentEventVerified = "payment.verified"

	EventSourceCheckout = "checkout"
	EventSourceWebhook  = "webhook"
)
