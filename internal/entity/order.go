package entity

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// amounts leave the service as JSON numbers (405.96), not strings
	decimal.MarshalJSONWithoutQuotes = true
}

type PendingOrder struct {
	ReceiptID       string          `json:"receipt_id"`
	ProviderOrderID string          `json:"provider_order_id,omitempty"`
	CustomerName    string          `json:"customer_name"`
	PhoneNumber     string          `json:"phone_number"`
	Items           []CartLine      `json:"items"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	ConvenienceFee  decimal.Decimal `json:"convenience_fee"`
	Total           decimal.Decimal `json:"total"`
	AmountMinor     int64           `json:"amount_minor"`
	Currency        string          `json:"currency"`
	CreatedAt       time.Time       `json:"created_at"`
}

// Clone returns a deep copy so stored snapshots never share the items slice.
func (o *PendingOrder) Clone() *PendingOrder {
	if o == nil {
		return nil
	}
	c := *o
	c.Items = slices.Clone(o.Items)
	return &c
}

// Details is the part of a pending order the client gets back after a
// successful verification.
func (o *PendingOrder) Details() *OrderDetails {
	return &OrderDetails{
		Items:          slices.Clone(o.Items),
		Subtotal:       o.Subtotal,
		ConvenienceFee: o.ConvenienceFee,
		Total:          o.Total,
	}
}

type ProviderOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status,omitempty"`
}

// CreatedOrder is everything the client needs to open the hosted checkout.
// The key id is public; the key secret never leaves the server.
type CreatedOrder struct {
	OrderID   string `json:"orderId"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	KeyID     string `json:"keyId"`
	ReceiptID string `json:"receiptId"`
}

type OrderDetails struct {
	Items          []CartLine      `json:"items"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	ConvenienceFee decimal.Decimal `json:"convenienceFee"`
	Total          decimal.Decimal `json:"total"`
}

// OrderSummary is what the kitchen channel is told about a paid order.
type OrderSummary struct {
	OrderID        string          `json:"order_id"`
	PaymentID      string          `json:"payment_id"`
	CustomerName   string          `json:"customer_name"`
	PhoneNumber    string          `json:"phone_number"`
	Items          []CartLine      `json:"items"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	ConvenienceFee decimal.Decimal `json:"convenience_fee"`
	Total          decimal.Decimal `json:"total"`
}

func (o *PendingOrder) Summary(paymentID string) OrderSummary {
	return OrderSummary{
		OrderID:        o.ProviderOrderID,
		PaymentID:      paymentID,
		CustomerName:   o.CustomerName,
		PhoneNumber:    o.PhoneNumber,
		Items:          slices.Clone(o.Items),
		Subtotal:       o.Subtotal,
		ConvenienceFee: o.ConvenienceFee,
		Total:          o.Total,
	}
}
