package observ

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values for GraphQLOperations.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route template and status code",
		},
		[]string{"method", "path", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_ms",
			Help:    "HTTP request latency in milliseconds",
			Buckets: []float64{5, 10, 25, 50, 100, 200, 400, 800, 1600},
		},
		[]string{"method", "path"},
	)

	HTTPInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "HTTP requests currently being served",
		},
	)

	GraphQLOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "graphql_operations_total",
			Help: "GraphQL operations by operation name and outcome",
		},
		[]string{"operation", "outcome"},
	)

	OrdersPlaced = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shop_orders_placed_total",
			Help: "Orders accepted by placeOrder",
		},
	)

	OrderRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shop_order_rejections_total",
			Help: "placeOrder calls that failed, by reason",
		},
		[]string{"reason"},
	)

	ShippingNotices = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shop_shipping_notices_total",
			Help: "Shipping notices consumed, by source and result",
		},
		[]string{"source", "result"},
	)
)
