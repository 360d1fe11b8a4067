package events

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	OrderCreated       = "order.created"
	OrderStatusChanged = "order.status_changed"
	OrderPaid          = "order.paid"
	OrderPaymentFailed = "order.payment_failed"
	CustomOrderCreated = "custom_order.created"
	CustomOrderUpdated = "custom_order.updated"
)

type OrderEvent struct {
	EventID       string          `json:"eventId"`
	Type          string          `json:"type"`
	OrderID       uint            `json:"orderId"`
	OrderNumber   string          `json:"orderNumber,omitempty"`
	Status        string          `json:"status"`
	PaymentStatus string          `json:"paymentStatus,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	CustomerName  string          `json:"customerName"`
	Timestamp     time.Time       `json:"timestamp"`
}

func NewOrderEvent(typ string, orderID uint) OrderEvent {
	return OrderEvent{
		EventID:   uuid.NewString(),
		Type:      typ,
		OrderID:   orderID,
		Timestamp: time.Now().UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, ev OrderEvent) error
	Close() error
}

// Multi fans an event out to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, ev OrderEvent) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, p := range m {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type Nop struct{}

func (Nop) Publish(context.Context, OrderEvent) error { return nil }
func (Nop) Close() error                              { return nil }
