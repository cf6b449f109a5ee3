package queue

import (
	"context"

	"github.com/snake-eaterr/Snake-Way-Server/internal/adapter/observ"
	"github.com/snake-eaterr/Snake-Way-Server/internal/usecase"
)

// ShippingNotices is what consumes fulfillment notices; *usecase.Orders implements it.
type ShippingNotices interface {
	HandleShippingNotice(ctx context.Context, msg usecase.ShippingNoticeMsg) error
}

// NewShippedHandler decodes {orderId,status} deliveries from the shipped queue.
func NewShippedHandler(svc ShippingNotices) Handler {
	return JSONHandler[usecase.ShippingNoticeMsg]{
		HandleFunc: func(ctx context.Context, msg usecase.ShippingNoticeMsg) error {
			err := svc.HandleShippingNotice(ctx, msg)
			result := observ.OutcomeOK
			if err != nil {
				result = observ.OutcomeError
			}
			observ.ShippingNotices.WithLabelValues("rabbitmq", result).Inc()
			return err
		},
	}
}
