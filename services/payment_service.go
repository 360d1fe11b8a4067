package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"caketime/entity"
	"caketime/events"
	"caketime/pkg/gateway"
	"caketime/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PaymentGateway is the slice of the card processor the order flow uses.
type PaymentGateway interface {
	CreateIntent(ctx context.Context, p gateway.IntentParams) (*gateway.Intent, error)
	GetIntent(ctx context.Context, id string) (*gateway.Intent, error)
	CreateCheckoutSession(ctx context.Context, p gateway.CheckoutParams) (*gateway.CheckoutSession, error)
	ParseWebhook(payload []byte, signature string) (*gateway.WebhookEvent, error)
}

type PaymentService struct {
	DB             *gorm.DB
	Repo           *repository.PaymentRepository
	Orders         *OrderService
	Gateway        PaymentGateway
	PublishableKey string
	FrontendURL    string
	Logger         *zap.Logger
}

func NewPaymentService(
	db *gorm.DB,
	repo *repository.PaymentRepository,
	orders *OrderService,
	gw PaymentGateway,
	publishableKey, frontendURL string,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		DB:             db,
		Repo:           repo,
		Orders:         orders,
		Gateway:        gw,
		PublishableKey: publishableKey,
		FrontendURL:    strings.TrimRight(frontendURL, "/"),
		Logger:         logger,
	}
}

// ----- DTOs from Controller -----
type CreateIntentInput struct {
	OrderID  uint          `json:"orderId"`
	Items    []OrderItemIn `json:"items" binding:"omitempty,dive"`
	Currency string        `json:"currency" binding:"omitempty,len=3"`
	Email    string        `json:"email" binding:"omitempty,email"`
}

type IntentResult struct {
	ClientSecret    string          `json:"clientSecret"`
	PaymentIntentID string          `json:"paymentIntentId"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	PublishableKey  string          `json:"publishableKey"`
}

type CheckoutResult struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

type VerifyInput struct {
	PaymentIntentID string            `json:"paymentIntentId" binding:"required"`
	OrderID         uint              `json:"orderId"`
	Order           *CreateOrderInput `json:"order"`
}

type IntentStatus struct {
	ID       string          `json:"id"`
	Status   string          `json:"status"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// Webhook outcomes.
const (
	WebhookProcessed = "processed"
	WebhookDuplicate = "duplicate"
	WebhookIgnored   = "ignored"
)

// ----- Intent / checkout -----

// CreateIntent charges the server-side total. With an order id the amount is
// the order's, otherwise it is priced from the items. Nothing is written
// locally; the order id travels in the intent metadata.
func (s *PaymentService) CreateIntent(ctx context.Context, in CreateIntentInput) (*IntentResult, error) {
	currency := strings.ToLower(in.Currency)
	if currency == "" {
		currency = s.Orders.Currency
	}
	params := gateway.IntentParams{Metadata: map[string]string{}}

	var amount decimal.Decimal
	switch {
	case in.OrderID != 0:
		o, err := s.Orders.Get(ctx, in.OrderID)
		if err != nil {
			return nil, err
		}
		if o.Payment.Status == entity.PaymentPaid || o.Status == entity.OrderCancelled {
			return nil, ErrOrderNotPayable
		}
		amount = o.Payment.Amount
		currency = o.Payment.Currency
		params.ReceiptEmail = o.Customer.Email
		params.Description = "TheCakeTime order " + o.OrderNumber
		params.Metadata[gateway.MetaOrderID] = strconv.FormatUint(uint64(o.ID), 10)
		params.Metadata["orderNumber"] = o.OrderNumber
	case len(in.Items) > 0:
		_, total, err := s.Orders.priceItems(ctx, in.Items)
		if err != nil {
			return nil, err
		}
		amount = total
		params.ReceiptEmail = in.Email
	default:
		return nil, ErrOrderRequired
	}
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	params.Amount = entity.ToMinor(amount, currency)
	params.Currency = currency

	intent, err := s.Gateway.CreateIntent(ctx, params)
	if err != nil {
		return nil, gatewayErr(err)
	}
	return &IntentResult{
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.ID,
		Amount:          amount,
		Currency:        currency,
		PublishableKey:  s.PublishableKey,
	}, nil
}

func (s *PaymentService) CreateCheckoutSession(ctx context.Context, orderID uint) (*CheckoutResult, error) {
	o, err := s.Orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status != entity.OrderPending || o.Payment.Status == entity.PaymentPaid {
		return nil, ErrOrderNotPayable
	}

	id := strconv.FormatUint(uint64(o.ID), 10)
	params := gateway.CheckoutParams{
		Currency:      o.Payment.Currency,
		CustomerEmail: o.Customer.Email,
		SuccessURL:    s.FrontendURL + "/order-success?session_id={CHECKOUT_SESSION_ID}&orderId=" + id,
		CancelURL:     s.FrontendURL + "/checkout?cancelled=true&orderId=" + id,
		Metadata:      map[string]string{gateway.MetaOrderID: id, "orderNumber": o.OrderNumber},
	}
	for _, it := range o.Items {
		params.Items = append(params.Items, gateway.LineItem{
			Name:      it.Name,
			Image:     it.Image,
			UnitPrice: entity.ToMinor(it.UnitPrice, o.Payment.Currency),
			Quantity:  int64(it.Quantity),
		})
	}

	cs, err := s.Gateway.CreateCheckoutSession(ctx, params)
	if err != nil {
		return nil, gatewayErr(err)
	}
	if err := s.Orders.Repo.SetCheckoutSession(ctx, o.ID, cs.ID); err != nil {
		s.Logger.Warn("store checkout session id", zap.Uint("order_id", o.ID), zap.Error(err))
	}
	return &CheckoutResult{SessionID: cs.ID, URL: cs.URL}, nil
}

func (s *PaymentService) Status(ctx context.Context, intentID string) (*IntentStatus, error) {
	intent, err := s.Gateway.GetIntent(ctx, intentID)
	if err != nil {
		return nil, gatewayErr(err)
	}
	return &IntentStatus{
		ID:       intent.ID,
		Status:   intent.Status,
		Amount:   entity.FromMinor(intent.Amount, intent.Currency),
		Currency: intent.Currency,
	}, nil
}

// ----- Verify -----

// Verify asks the gateway, never the client, whether the charge went
// through. Only a succeeded intent changes anything.
func (s *PaymentService) Verify(ctx context.Context, in VerifyInput) (*entity.Order, error) {
	intent, err := s.Gateway.GetIntent(ctx, in.PaymentIntentID)
	if err != nil {
		return nil, gatewayErr(err)
	}
	if intent.Status != gateway.IntentSucceeded {
		return nil, fmt.Errorf("%w: intent is %s", ErrPaymentNotSucceeded, intent.Status)
	}
	charged := entity.FromMinor(intent.Amount, intent.Currency)

	o, err := s.orderForIntent(ctx, intent.ID, in.OrderID, intent.Metadata)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if o == nil {
		if in.Order == nil {
			if in.OrderID != 0 {
				return nil, ErrNotFound
			}
			return nil, ErrOrderRequired
		}
		return s.createPaidOrder(ctx, in.Order, intent, charged)
	}

	if o.Payment.Status == entity.PaymentPaid {
		return o, nil
	}
	if o.Status == entity.OrderCancelled {
		s.refundNeeded(o, intent.ID, charged)
		return nil, ErrOrderNotPayable
	}
	if charged.LessThan(o.Payment.Amount) {
		s.Logger.Error("charged amount below order total",
			zap.Uint("order_id", o.ID),
			zap.String("intent_id", intent.ID),
			zap.String("charged", charged.String()),
			zap.String("total", o.Payment.Amount.String()))
		return nil, ErrAmountMismatch
	}
	return s.markPaid(ctx, o.ID, intent.ID, charged, intent.Currency)
}

// orderForIntent prefers the order already bound to the intent, then the
// explicit order id, then the id in the intent metadata.
func (s *PaymentService) orderForIntent(ctx context.Context, intentID string, orderID uint, meta map[string]string) (*entity.Order, error) {
	if intentID != "" {
		o, err := s.Orders.Repo.GetByIntentID(ctx, intentID)
		if err == nil {
			return o, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	if orderID == 0 {
		orderID = metaOrderID(meta)
	}
	if orderID == 0 {
		return nil, ErrNotFound
	}
	return s.Orders.Get(ctx, orderID)
}

func (s *PaymentService) createPaidOrder(ctx context.Context, in *CreateOrderInput, intent *gateway.Intent, charged decimal.Decimal) (*entity.Order, error) {
	o, err := s.Orders.build(ctx, in)
	if err != nil {
		return nil, err
	}
	if charged.LessThan(o.Payment.Amount) {
		s.Logger.Error("charged amount below order total",
			zap.String("intent_id", intent.ID),
			zap.String("charged", charged.String()),
			zap.String("total", o.Payment.Amount.String()))
		return nil, ErrAmountMismatch
	}

	now := time.Now()
	o.Status = entity.OrderConfirmed
	o.Payment.Status = entity.PaymentPaid
	o.Payment.IntentID = intent.ID
	o.Payment.Amount = charged
	o.Payment.Currency = strings.ToLower(intent.Currency)
	o.Payment.PaidAt = &now

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.Orders.Repo.CreateOrder(tx, o)
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.Orders.Publisher, s.Logger, orderEvent(events.OrderCreated, o))
	publish(ctx, s.Orders.Publisher, s.Logger, orderEvent(events.OrderPaid, o))
	s.Orders.Notifier.OrderPlaced(o)
	s.Orders.Notifier.PaymentReceived(o)
	return o, nil
}

// markPaid records the charge once. A repeat, from a webhook racing the
// client, returns the order as it is without notifying again.
func (s *PaymentService) markPaid(ctx context.Context, orderID uint, intentID string, amount decimal.Decimal, currency string) (*entity.Order, error) {
	var affected int64
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := s.Orders.Repo.MarkPaid(tx, orderID, intentID, amount, strings.ToLower(currency), time.Now())
		affected = n
		return err
	})
	if err != nil {
		return nil, err
	}
	o, err := s.Orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if affected == 1 {
		s.paid(ctx, o)
		return o, nil
	}
	// lost to a cancellation between the read and the write
	if o.Status == entity.OrderCancelled && o.Payment.Status != entity.PaymentPaid {
		s.refundNeeded(o, intentID, amount)
		return nil, ErrOrderNotPayable
	}
	return o, nil
}

// refundNeeded flags a captured charge that no order will absorb.
func (s *PaymentService) refundNeeded(o *entity.Order, intentID string, charged decimal.Decimal) {
	s.Logger.Warn("charge on cancelled order needs a manual refund",
		zap.Uint("order_id", o.ID),
		zap.String("order_number", o.OrderNumber),
		zap.String("intent_id", intentID),
		zap.String("charged", charged.String()))
}

func (s *PaymentService) paid(ctx context.Context, o *entity.Order) {
	s.Logger.Info("order paid",
		zap.Uint("order_id", o.ID),
		zap.String("intent_id", o.Payment.IntentID),
		zap.String("amount", o.Payment.Amount.String()))
	publish(ctx, s.Orders.Publisher, s.Logger, orderEvent(events.OrderPaid, o))
	s.Orders.Notifier.PaymentReceived(o)
}

// ----- Webhook -----

// HandleWebhook applies a verified gateway event at most once.
func (s *PaymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) (string, error) {
	ev, err := s.Gateway.ParseWebhook(payload, signature)
	if err != nil {
		if errors.Is(err, gateway.ErrInvalidSignature) {
			return "", fmt.Errorf("%w: %v", ErrInvalidSignature, err)
		}
		return "", gatewayErr(err)
	}
	log := s.Logger.With(zap.String("event_id", ev.ID), zap.String("event_type", ev.Type))

	// resolve the target before the write transaction
	var (
		target   *entity.Order
		intentID string
		amount   decimal.Decimal
		currency string
	)
	switch {
	case ev.Type == gateway.EventIntentSucceeded && ev.Intent != nil,
		ev.Type == gateway.EventIntentFailed && ev.Intent != nil:
		intentID = ev.Intent.ID
		amount = entity.FromMinor(ev.Intent.Amount, ev.Intent.Currency)
		currency = ev.Intent.Currency
		target, err = s.orderForIntent(ctx, ev.Intent.ID, 0, ev.Intent.Metadata)
	case ev.Type == gateway.EventCheckoutCompleted && ev.Session != nil:
		if ev.Session.PaymentStatus != "paid" {
			break
		}
		intentID = ev.Session.IntentID
		amount = entity.FromMinor(ev.Session.AmountTotal, ev.Session.Currency)
		currency = ev.Session.Currency
		if id := metaOrderID(ev.Session.Metadata); id != 0 {
			target, err = s.Orders.Get(ctx, id)
		} else {
			target, err = s.orderForIntent(ctx, intentID, 0, nil)
		}
	}
	if err != nil && !errors.Is(err, ErrNotFound) {
		return "", err
	}

	var affected int64
	claimed := false
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := s.Repo.ClaimWebhookEvent(tx, ev.ID, ev.Type)
		if err != nil || !ok {
			return err
		}
		claimed = true
		if target == nil {
			return nil
		}
		if ev.Type == gateway.EventIntentFailed {
			affected, err = s.Orders.Repo.MarkPaymentFailed(tx, target.ID, intentID)
			return err
		}
		affected, err = s.Orders.Repo.MarkPaid(tx, target.ID, intentID, amount, strings.ToLower(currency), time.Now())
		return err
	})
	if err != nil {
		return "", err
	}
	if !claimed {
		log.Info("duplicate webhook event")
		return WebhookDuplicate, nil
	}
	if target == nil {
		log.Info("webhook event has no matching order")
		return WebhookIgnored, nil
	}
	if affected == 0 {
		if ev.Type != gateway.EventIntentFailed && target.Status == entity.OrderCancelled {
			s.refundNeeded(target, intentID, amount)
			return WebhookProcessed, nil
		}
		log.Info("order already settled", zap.Uint("order_id", target.ID))
		return WebhookProcessed, nil
	}

	o, err := s.Orders.Get(ctx, target.ID)
	if err != nil {
		return "", err
	}
	if ev.Type == gateway.EventIntentFailed {
		log.Warn("payment failed", zap.Uint("order_id", o.ID))
		publish(ctx, s.Orders.Publisher, s.Logger, orderEvent(events.OrderPaymentFailed, o))
		return WebhookProcessed, nil
	}
	s.paid(ctx, o)
	return WebhookProcessed, nil
}

func metaOrderID(meta map[string]string) uint {
	id, err := strconv.ParseUint(meta[gateway.MetaOrderID], 10, 64)
	if err != nil {
		return 0
	}
	return uint(id)
}

func gatewayErr(err error) error {
	if errors.Is(err, gateway.ErrNotConfigured) {
		return fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	return err
}
