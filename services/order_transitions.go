package services

import (
	"context"
	"fmt"

	"caketime/entity"
	"caketime/events"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UpdateStatus moves an order to status. The write only lands if the order
// is still in the status that was read, so a concurrent change is reported
// as ErrStatusConflict instead of being overwritten.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID uint, status string) (*entity.Order, error) {
	to := entity.OrderStatus(status)
	if !to.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	o, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status == to {
		return o, nil
	}
	if o.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: order is %s", ErrStatusConflict, o.Status)
	}

	from := o.Status
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		affected, err := s.Repo.UpdateStatusGuard(tx, o.ID, from, to)
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrStatusConflict
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	o.Status = to

	s.Logger.Info("order status changed",
		zap.Uint("order_id", o.ID),
		zap.String("from", string(from)),
		zap.String("to", string(to)))
	publish(ctx, s.Publisher, s.Logger, orderEvent(events.OrderStatusChanged, o))
	s.Notifier.OrderStatusChanged(o)
	return o, nil
}

// Cancel is how orders are deleted.
func (s *OrderService) Cancel(ctx context.Context, orderID uint) (*entity.Order, error) {
	return s.UpdateStatus(ctx, orderID, string(entity.OrderCancelled))
}
