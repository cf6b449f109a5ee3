package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/snake-eaterr/Snake-Way-Server/internal/adapter/observ"
)

// unmatchedRoute keeps requests to unknown paths from creating one series per URL.
const unmatchedRoute = "unmatched"

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		observ.HTTPInFlight.Inc()
		defer observ.HTTPInFlight.Dec()

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		method := c.Request.Method
		observ.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		observ.HTTPDuration.WithLabelValues(method, route).Observe(float64(time.Since(start).Microseconds()) / 1000)
	}
}
