package services

import (
	"context"

	"caketime/entity"
	"caketime/events"

	"go.uber.org/zap"
)

func orderEvent(typ string, o *entity.Order) events.OrderEvent {
	ev := events.NewOrderEvent(typ, o.ID)
	ev.OrderNumber = o.OrderNumber
	ev.Status = string(o.Status)
	ev.PaymentStatus = string(o.Payment.Status)
	ev.Amount = o.Payment.Amount
	ev.CustomerName = o.Customer.Name
	return ev
}

func customOrderEvent(typ string, co *entity.CustomOrder) events.OrderEvent {
	ev := events.NewOrderEvent(typ, co.ID)
	ev.Status = string(co.Status)
	ev.CustomerName = co.Customer.Name
	if co.FinalPrice.Valid {
		ev.Amount = co.FinalPrice.Decimal
	} else if co.EstimatedPrice.Valid {
		ev.Amount = co.EstimatedPrice.Decimal
	}
	return ev
}

// publish never fails the caller; the database is the source of truth.
func publish(ctx context.Context, pub events.Publisher, logger *zap.Logger, ev events.OrderEvent) {
	if err := pub.Publish(context.WithoutCancel(ctx), ev); err != nil {
		logger.Warn("publish order event",
			zap.String("type", ev.Type),
			zap.Uint("order_id", ev.OrderID),
			zap.Error(err))
	}
}
