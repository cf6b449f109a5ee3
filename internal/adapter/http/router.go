package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/snake-eaterr/Snake-Way-Server/internal/adapter/http/middleware"
	"github.com/snake-eaterr/Snake-Way-Server/internal/logging"
	"github.com/snake-eaterr/Snake-Way-Server/internal/security"
	"github.com/snake-eaterr/Snake-Way-Server/internal/usecase"
)

type Handlers struct {
	GraphQL     *GraphQLHandler
	Token       *TokenHandler
	Fulfillment *FulfillmentHandler
}

func NewRouter(h Handlers, authz *middleware.Authz, auth *usecase.Authenticator, l *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.MetricsMiddleware())
	r.Use(middleware.Logging(l))

	r.GET("/healthz", func(c *gin.Context) {
		logging.From(c).Debug("health check")
		c.JSON(200, gin.H{"ok": true})
	})
	// Prometheus endpoint (scraped by Prometheus)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	gql := r.Group("/graphql", middleware.CurrentUser(auth))
	{
		gql.GET("", h.GraphQL.Serve)
		gql.POST("", h.GraphQL.Serve)
	}

	v1 := r.Group("/v1")
	{
		v1.POST("/token", h.Token.IssueToken)
		v1.GET("/orders/:id", authz.Require(security.PermOrdersRead), h.Fulfillment.GetOrderByID)
		v1.POST("/orders/:id/shipped", authz.Require(security.PermOrdersShip), h.Fulfillment.MarkShipped)
	}

	return r
}
