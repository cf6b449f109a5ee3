package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/snake-eaterr/Snake-Way-Server/internal/logging"
)

// MarkShipped flips an order to shipped. Repeating it is a no-op; changed
// reports whether this call did the transition.
func (uc *Orders) MarkShipped(ctx context.Context, orderID string) (changed bool, err error) {
	changed, err = uc.orders.MarkShipped(ctx, orderID)
	if errors.Is(err, ErrNotFound) {
		return false, InvalidArgument("order not found", orderID)
	}
	if err != nil {
		return false, Internal("mark shipped", err)
	}
	return changed, nil
}

// HandleShippingNotice applies a notice from the fulfillment service.
// Statuses other than SHIPPED are ignored, and so are unknown orders:
// redelivering them would never succeed.
func (uc *Orders) HandleShippingNotice(ctx context.Context, msg ShippingNoticeMsg) error {
	if !strings.EqualFold(msg.Status, ShippingStatusShipped) {
		logging.FromCtx(ctx).Debug("ignoring shipping notice", "order_id", msg.OrderID, "status", msg.Status)
		return nil
	}
	changed, err := uc.MarkShipped(ctx, msg.OrderID)
	if KindOf(err) == KindInvalidArgument {
		logging.FromCtx(ctx).Warn("shipping notice for unknown order", "order_id", msg.OrderID)
		return nil
	}
	if err != nil {
		return err
	}
	logging.FromCtx(ctx).Info("order shipped", "order_id", msg.OrderID, "changed", changed)
	return nil
}
