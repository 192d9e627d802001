package entity

const (
	WebhookPaymentCaptured   = "payment.captured"
	WebhookPaymentAuthorized = "payment.authorized"
	WebhookPaymentFailed     = "payment.failed"
)

type WebhookEvent struct {
	Entity    string         `json:"entity"`
	AccountID string         `json:"account_id"`
	Event     string         `json:"event"`
	Contains  []string       `json:"contains"`
	Payload   WebhookPayload `json:"payload"`
	CreatedAt int64          `json:"created_at"`
}

type WebhookPayload struct {
	Payment *struct {
		Entity ProviderPayment `json:"entity"`
	} `json:"payment,omitempty"`
}

// PaymentEntity returns the payment carried by the event, if any.
func (e *WebhookEvent) PaymentEntity() (*ProviderPayment, bool) {
	if e.Payload.Payment == nil || e.Payload.Payment.Entity.ID == "" {
		return nil, false
	}
	return &e.Payload.Payment.Entity, true
}

// Reconcilable reports whether the event moves an order to paid.
func (e *WebhookEvent) Reconcilable() bool {
	return e.Event == WebhookPaymentCaptured || e.Event == WebhookPaymentAuthorized
}

type WebhookAck struct {
	Status string `json:"status"`
	Event  string `json:"event,omitempty"`
}
