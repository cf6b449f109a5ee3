package queue

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/snake-eaterr/Snake-Way-Server/internal/usecase"
)

// Routing keys on the shop exchange.
const (
	KeyOrderPlaced        = usecase.EventOrderPlaced
	KeyOrderReceived      = usecase.EventOrderReceived
	KeyFulfillmentShipped = "fulfillment.shipped"
)

// declarer is the subset of *amqp.Channel used to set up topology.
type declarer interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
}

// DeclareTopology declares the durable topic exchange and the shipped-notice
// queue bound to it. Safe to call on every start.
func DeclareTopology(ch declarer, exchange, shippedQueue string) error {
	if err := ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	if shippedQueue == "" {
		return nil
	}
	q, err := ch.QueueDeclare(
		shippedQueue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, KeyFulfillmentShipped, exchange, false, nil); err != nil {
		return fmt.Errorf("queue bind: %w", err)
	}
	return nil
}
