package httpt

import "checkout/internal/entity"

type ErrorResponse struct {
	Error string `json:"error"`
}

type CartItemRequest struct {
	ID       string `json:"id"       binding:"required,max=50"`
	Quantity int    `json:"quantity" binding:"required,gte=1,lte=100"`
}

// CreateOrderRequest carries only what the customer chose. Names and prices
// sent alongside the items are ignored; the menu supplies them.
type CreateOrderRequest struct {
	CustomerName string            `json:"customerName" binding:"required,max=100"`
	PhoneNumber  string            `json:"phoneNumber"  binding:"required,numeric,len=10"`
	Items        []CartItemRequest `json:"items"        binding:"required,min=1,max=50,dive"`
}

type VerifyPaymentRequest struct {
	PaymentID string `json:"paymentId" binding:"required,max=64"`
	OrderID   string `json:"orderId"   binding:"required,max=64"`
	Signature string `json:"signature" binding:"required,max=128"`
	ReceiptID string `json:"receiptId" binding:"required,max=64"`
}

func (r VerifyPaymentRequest) callback() entity.PaymentCallback {
	return entity.PaymentCallback{
		PaymentID: r.PaymentID,
		OrderID:   r.OrderID,
		Signature: r.Signature,
		ReceiptID: r.ReceiptID,
	}
}

type MenuResponse struct {
	Items []entity.MenuItem `json:"items"`
}
