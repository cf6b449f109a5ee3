package queue

import (
	"context"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// consumerChannel is the subset of *amqp.Channel the Router needs.
type consumerChannel interface {
	Qos(prefetchCount, prefetchSize int, global bool) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Cancel(consumer string, noWait bool) error
}

// Router manages multiple consumers (one per registered queue) on a single AMQP channel.
type Router struct {
	ch            consumerChannel
	log           *zap.Logger
	prefetch      int
	callTimeout   time.Duration
	requeueOnErr  bool
	registrations []registration
	wg            sync.WaitGroup
}

type registration struct {
	queueName   string
	handler     Handler
	consumerTag string
}

// --- Options ---

type RouterOption func(*Router)

func WithPrefetch(n int) RouterOption          { return func(r *Router) { r.prefetch = n } }
func WithTimeout(d time.Duration) RouterOption { return func(r *Router) { r.callTimeout = d } }
func WithRequeue(b bool) RouterOption          { return func(r *Router) { r.requeueOnErr = b } }

// NewRouter constructs a Router. Defaults: prefetch=50, timeout=10s, requeueOnErr=true.
func NewRouter(ch consumerChannel, log *zap.Logger, opts ...RouterOption) *Router {
	r := &Router{
		ch:           ch,
		log:          log,
		prefetch:     50,
		callTimeout:  10 * time.Second,
		requeueOnErr: true,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register associates a queue with a handler. Call multiple times for multiple queues.
func (r *Router) Register(queueName string, h Handler) {
	r.registrations = append(r.registrations, registration{
		queueName:   queueName,
		handler:     h,
		consumerTag: "c_" + queueName,
	})
}

// Start begins consuming; non-blocking (spawns one goroutine per queue).
// QoS (prefetch) is set per-channel and applies to all consumers on this channel.
func (r *Router) Start() error {
	if err := r.ch.Qos(r.prefetch, 0, false); err != nil {
		return err
	}

	for _, reg := range r.registrations {
		deliveries, err := r.ch.Consume(
			reg.queueName,
			reg.consumerTag,
			false, // manual ack
			false, // exclusive
			false, // no-local
			false, // no-wait
			nil,
		)
		if err != nil {
			return err
		}

		r.wg.Add(1)
		go r.consume(reg, deliveries)
	}
	return nil
}

func (r *Router) consume(reg registration, msgs <-chan amqp.Delivery) {
	defer r.wg.Done()
	log := r.log.With(zap.String("queue", reg.queueName), zap.String("tag", reg.consumerTag))

	for d := range msgs {
		ctx, cancel := context.WithTimeout(context.Background(), r.callTimeout)
		err := reg.handler.Handle(ctx, d)
		cancel()

		if err != nil {
			requeue := r.requeueOnErr && !IsPermanent(err)
			log.Warn("handler error",
				zap.String("rk", d.RoutingKey),
				zap.Error(err),
				zap.Bool("requeue", requeue))
			_ = d.Nack(false, requeue)
			continue
		}
		_ = d.Ack(false)
	}
	log.Info("consumer stopped")
}

// Stop cancels every consumer and waits for in-flight deliveries to finish
// or ctx to expire.
func (r *Router) Stop(ctx context.Context) error {
	for _, reg := range r.registrations {
		if err := r.ch.Cancel(reg.consumerTag, false); err != nil {
			r.log.Warn("cancel consumer", zap.String("tag", reg.consumerTag), zap.Error(err))
		}
	}
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
