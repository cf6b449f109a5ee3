package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/snake-eaterr/Snake-Way-Server/internal/usecase"
)

// RabbitPublisher implements usecase.EventPublisher on a topic exchange
// with publisher confirms.
type RabbitPublisher struct {
	mu       sync.Mutex
	ch       *amqp.Channel
	exchange string
	timeout  time.Duration
}

var _ usecase.EventPublisher = (*RabbitPublisher)(nil)

// NewRabbitPublisher puts ch into confirm mode. The exchange must already be
// declared (see DeclareTopology).
func NewRabbitPublisher(ch *amqp.Channel, exchange string) (*RabbitPublisher, error) {
	if err := ch.Confirm(false); err != nil {
		return nil, fmt.Errorf("enable confirm mode: %w", err)
	}
	return &RabbitPublisher{ch: ch, exchange: exchange, timeout: 5 * time.Second}, nil
}

func (p *RabbitPublisher) PublishOrderPlaced(ctx context.Context, msg usecase.OrderPlacedMsg) error {
	return p.publish(ctx, KeyOrderPlaced, msg.OrderID, msg)
}

func (p *RabbitPublisher) PublishOrderReceived(ctx context.Context, msg usecase.OrderReceivedMsg) error {
	return p.publish(ctx, KeyOrderReceived, msg.OrderID, msg)
}

func (p *RabbitPublisher) publish(ctx context.Context, key, id string, msg any) error {
	pub, err := newPublishing(id, msg, time.Now())
	if err != nil {
		return err
	}
	return p.send(ctx, key, pub)
}

// Publish sends an already encoded JSON body. The outbox relay uses it.
func (p *RabbitPublisher) Publish(ctx context.Context, key, id string, body []byte) error {
	pub := persistentJSON(id, body, time.Now())
	return p.send(ctx, key, pub)
}

func (p *RabbitPublisher) send(ctx context.Context, key string, pub amqp.Publishing) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()

	conf, err := p.ch.PublishWithDeferredConfirmWithContext(
		ctx,
		p.exchange, // exchange
		key,        // routing key
		false,      // mandatory
		false,      // immediate
		pub,
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", key, err)
	}
	ok, err := conf.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("await confirm %s: %w", key, err)
	}
	if !ok {
		return fmt.Errorf("publish %s: broker nacked", key)
	}
	return nil
}

func newPublishing(id string, msg any, now time.Time) (amqp.Publishing, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal message: %w", err)
	}
	return persistentJSON(id, body, now), nil
}

func persistentJSON(id string, body []byte, now time.Time) amqp.Publishing {
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // survive broker restarts
		MessageId:    id,
		Timestamp:    now.UTC(),
		Body:         body,
	}
}
