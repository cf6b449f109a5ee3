package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/snake-eaterr/Snake-Way-Server/internal/usecase"
)

// HandlerFunc processes a decoded shipping notice.
type HandlerFunc func(ctx context.Context, ev usecase.ShippingNoticeMsg) error

// Consumer consumes a topic with a single handler.
type Consumer struct {
	Group   sarama.ConsumerGroup
	Topics  []string
	Handle  HandlerFunc
	Logger  *zap.Logger
	Backoff time.Duration
}

func NewConsumer(group sarama.ConsumerGroup, topics []string, h HandlerFunc, l *zap.Logger) *Consumer {
	return &Consumer{
		Group:   group,
		Topics:  topics,
		Handle:  h,
		Logger:  l,
		Backoff: 2 * time.Second,
	}
}

// Start blocks until ctx is cancelled. A failed message ends the session
// without committing it, so it is read again when Consume rejoins.
func (c *Consumer) Start(ctx context.Context) error {
	go c.drainErrors(ctx)

	handler := &cgHandler{handle: c.Handle, logger: c.Logger}
	for {
		err := c.Group.Consume(ctx, c.Topics, handler)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, sarama.ErrClosedConsumerGroup) {
			return err
		}
		if err != nil {
			c.Logger.Warn("kafka session ended", zap.Error(err))
			select {
			case <-time.After(c.Backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

func (c *Consumer) drainErrors(ctx context.Context) {
	for {
		select {
		case err, ok := <-c.Group.Errors():
			if !ok {
				return
			}
			c.Logger.Warn("kafka consumer error", zap.Error(err))
		case <-ctx.Done():
			return
		}
	}
}

type cgHandler struct {
	handle HandlerFunc
	logger *zap.Logger
}

func (h *cgHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *cgHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *cgHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		var ev usecase.ShippingNoticeMsg
		if err := json.Unmarshal(msg.Value, &ev); err != nil {
			h.logger.Warn("kafka decode error",
				zap.Error(err), zap.String("topic", msg.Topic), zap.Int64("offset", msg.Offset))
			// mark to avoid reprocessing poison
			sess.MarkMessage(msg, "decode-error")
			continue
		}
		if err := h.handle(sess.Context(), ev); err != nil {
			h.logger.Error("handler error",
				zap.Error(err), zap.ByteString("key", msg.Key), zap.Int64("offset", msg.Offset))
			return err
		}
		sess.MarkMessage(msg, "")
	}
	return nil
}
