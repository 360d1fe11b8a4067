package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

// Stripe talks to the Stripe API with its own client, no package globals.
type Stripe struct {
	api           *client.API
	webhookSecret string
}

// NewStripe returns a gateway; with an empty secret key every API call
// fails with ErrNotConfigured, which keeps local development bootable.
func NewStripe(secretKey, webhookSecret string) *Stripe {
	s := &Stripe{webhookSecret: webhookSecret}
	if secretKey != "" {
		s.api = client.New(secretKey, nil)
	}
	return s
}

func (s *Stripe) CreateIntent(ctx context.Context, p IntentParams) (*Intent, error) {
	if s.api == nil {
		return nil, ErrNotConfigured
	}
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(p.Amount),
		Currency: stripe.String(strings.ToLower(p.Currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	if p.ReceiptEmail != "" {
		params.ReceiptEmail = stripe.String(p.ReceiptEmail)
	}
	if p.Description != "" {
		params.Description = stripe.String(p.Description)
	}
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}

	pi, err := s.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}
	return fromStripeIntent(pi), nil
}

func (s *Stripe) GetIntent(ctx context.Context, id string) (*Intent, error) {
	if s.api == nil {
		return nil, ErrNotConfigured
	}
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := s.api.PaymentIntents.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("retrieve payment intent %s: %w", id, err)
	}
	return fromStripeIntent(pi), nil
}

func (s *Stripe) CreateCheckoutSession(ctx context.Context, p CheckoutParams) (*CheckoutSession, error) {
	if s.api == nil {
		return nil, ErrNotConfigured
	}
	currency := strings.ToLower(p.Currency)
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(p.SuccessURL),
		CancelURL:  stripe.String(p.CancelURL),
	}
	params.Context = ctx
	if p.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(p.CustomerEmail)
	}
	for _, it := range p.Items {
		product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(it.Name),
		}
		if it.Image != "" {
			product.Images = stripe.StringSlice([]string{it.Image})
		}
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(currency),
				ProductData: product,
				UnitAmount:  stripe.Int64(it.UnitPrice),
			},
			Quantity: stripe.Int64(it.Quantity),
		})
	}
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}
	// the intent carries the order id too, so intent webhooks can find it
	params.PaymentIntentData = &stripe.CheckoutSessionPaymentIntentDataParams{
		Metadata: p.Metadata,
	}

	cs, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	return fromStripeSession(cs), nil
}

// ParseWebhook verifies the Stripe-Signature header against the endpoint
// secret before decoding anything.
func (s *Stripe) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	if s.webhookSecret == "" {
		return nil, ErrNotConfigured
	}
	ev, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := &WebhookEvent{ID: ev.ID, Type: string(ev.Type)}
	switch out.Type {
	case EventIntentSucceeded, EventIntentFailed:
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(ev.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("decode payment intent: %w", err)
		}
		out.Intent = fromStripeIntent(&pi)
	case EventCheckoutCompleted:
		var cs stripe.CheckoutSession
		if err := json.Unmarshal(ev.Data.Raw, &cs); err != nil {
			return nil, fmt.Errorf("decode checkout session: %w", err)
		}
		out.Session = fromStripeSession(&cs)
	}
	return out, nil
}

func fromStripeIntent(pi *stripe.PaymentIntent) *Intent {
	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		Metadata:     pi.Metadata,
	}
}

func fromStripeSession(cs *stripe.CheckoutSession) *CheckoutSession {
	out := &CheckoutSession{
		ID:            cs.ID,
		URL:           cs.URL,
		PaymentStatus: string(cs.PaymentStatus),
		AmountTotal:   cs.AmountTotal,
		Currency:      string(cs.Currency),
		Metadata:      cs.Metadata,
	}
	if cs.PaymentIntent != nil {
		out.IntentID = cs.PaymentIntent.ID
	}
	return out
}
