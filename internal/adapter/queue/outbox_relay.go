package queue

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/snake-eaterr/Snake-Way-Server/internal/usecase"
)

// OutboxStore is the durable side of the relay.
type OutboxStore interface {
	Pending(ctx context.Context, limit int) ([]usecase.OutboxEvent, error)
	MarkSent(ctx context.Context, id int64) error
	MarkRetry(ctx context.Context, id int64, next time.Time) error
}

// RawPublisher sends an encoded event body under a routing key.
type RawPublisher interface {
	Publish(ctx context.Context, key, id string, body []byte) error
}

var _ RawPublisher = (*RabbitPublisher)(nil)

// OutboxRelay moves recorded events to the broker. Events stay PENDING
// until the broker confirms them, so nothing is lost while it is down.
type OutboxRelay struct {
	store    OutboxStore
	pub      RawPublisher
	log      *zap.Logger
	interval time.Duration
	batch    int
	maxDelay time.Duration
	now      func() time.Time
}

func NewOutboxRelay(store OutboxStore, pub RawPublisher, log *zap.Logger) *OutboxRelay {
	return &OutboxRelay{
		store:    store,
		pub:      pub,
		log:      log,
		interval: time.Second,
		batch:    100,
		maxDelay: 5 * time.Minute,
		now:      time.Now,
	}
}

// Run drains the outbox every interval until ctx is done.
func (r *OutboxRelay) Run(ctx context.Context) error {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		if _, err := r.Drain(ctx); err != nil && ctx.Err() == nil {
			r.log.Warn("outbox drain failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
}

// Drain publishes one batch of due events and returns how many were sent.
// The first publish failure reschedules that event and ends the batch.
func (r *OutboxRelay) Drain(ctx context.Context) (int, error) {
	events, err := r.store.Pending(ctx, r.batch)
	if err != nil {
		return 0, err
	}
	sent := 0
	for _, e := range events {
		if err := r.pub.Publish(ctx, e.Channel, e.MessageID, e.Payload); err != nil {
			next := r.now().Add(r.backoff(e.Retries))
			if merr := r.store.MarkRetry(ctx, e.ID, next); merr != nil {
				r.log.Error("outbox reschedule failed", zap.Int64("id", e.ID), zap.Error(merr))
			}
			r.log.Warn("outbox publish failed",
				zap.Int64("id", e.ID),
				zap.String("channel", e.Channel),
				zap.Int("retries", e.Retries+1),
				zap.Error(err))
			return sent, nil
		}
		// delivery is at least once: if this fails the event goes out again
		if err := r.store.MarkSent(ctx, e.ID); err != nil {
			return sent, err
		}
		sent++
	}
	return sent, nil
}

func (r *OutboxRelay) backoff(retries int) time.Duration {
	if retries > 16 {
		return r.maxDelay
	}
	d := r.interval << retries
	if d > r.maxDelay {
		return r.maxDelay
	}
	return d
}
