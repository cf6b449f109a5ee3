package kafka

import (
	"context"

	"github.com/snake-eaterr/Snake-Way-Server/internal/adapter/observ"
	"github.com/snake-eaterr/Snake-Way-Server/internal/usecase"
)

type ShippingNotices interface {
	HandleShippingNotice(ctx context.Context, msg usecase.ShippingNoticeMsg) error
}

// NewFulfillmentStatusHandler feeds fulfillment.status events into svc.
func NewFulfillmentStatusHandler(svc ShippingNotices) HandlerFunc {
	return func(ctx context.Context, ev usecase.ShippingNoticeMsg) error {
		err := svc.HandleShippingNotice(ctx, ev)
		result := observ.OutcomeOK
		if err != nil {
			result = observ.OutcomeError
		}
		observ.ShippingNotices.WithLabelValues("kafka", result).Inc()
		return err
	}
}
