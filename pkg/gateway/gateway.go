// Package gateway adapts the card payment provider to the shapes the order
// flow needs.
package gateway

import "errors"

const (
	IntentSucceeded       = "succeeded"
	IntentProcessing      = "processing"
	IntentRequiresPayment = "requires_payment_method"
	IntentCanceled        = "canceled"

	EventIntentSucceeded   = "payment_intent.succeeded"
	EventIntentFailed      = "payment_intent.payment_failed"
	EventCheckoutCompleted = "checkout.session.completed"

	MetaOrderID = "orderId"
)

var (
	ErrNotConfigured    = errors.New("payment gateway is not configured")
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

// Intent is the gateway's in-progress charge. Amount is in minor units.
type Intent struct {
	ID           string            `json:"id"`
	ClientSecret string            `json:"-"`
	Status       string            `json:"status"`
	Amount       int64             `json:"amount"`
	Currency     string            `json:"currency"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

type IntentParams struct {
	Amount       int64
	Currency     string
	ReceiptEmail string
	Description  string
	Metadata     map[string]string
}

type LineItem struct {
	Name      string
	Image     string
	UnitPrice int64
	Quantity  int64
}

type CheckoutParams struct {
	Currency      string
	Items         []LineItem
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
	Metadata      map[string]string
}

type CheckoutSession struct {
	ID            string
	URL           string
	PaymentStatus string
	IntentID      string
	AmountTotal   int64
	Currency      string
	Metadata      map[string]string
}

// WebhookEvent is a verified gateway callback. Exactly one of Intent and
// Session is set for the event types we handle.
type WebhookEvent struct {
	ID      string
	Type    string
	Intent  *Intent
	Session *CheckoutSession
}
