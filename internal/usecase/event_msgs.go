package usecase

import (
	"context"
	"time"
)

// Event names, also used as routing keys on the shop exchange.
const (
	EventOrderPlaced   = "order.placed"
	EventOrderReceived = "order.received"
)

// OutboxEvent is an event recorded for later delivery.
type OutboxEvent struct {
	ID        int64
	Channel   string
	MessageID string
	Payload   []byte
	Retries   int
}

// Published on order placement.
type OrderPlacedMsg struct {
	OrderID   string    `json:"orderId"`
	UserID    string    `json:"userId"`
	ProductID string    `json:"productId"`
	Quantity  int       `json:"quantity"`
	Address   string    `json:"address"`
	Created   time.Time `json:"created"`
}

type OrderReceivedMsg struct {
	OrderID string    `json:"orderId"`
	UserID  string    `json:"userId"`
	At      time.Time `json:"at"`
}

// Sent by the fulfillment service on Kafka and RabbitMQ.
type ShippingNoticeMsg struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"` // e.g. "SHIPPED"
}

const ShippingStatusShipped = "SHIPPED"

type nopPublisher struct{}

func (nopPublisher) PublishOrderPlaced(_ context.Context, _ OrderPlacedMsg) error     { return nil }
func (nopPublisher) PublishOrderReceived(_ context.Context, _ OrderReceivedMsg) error { return nil }
