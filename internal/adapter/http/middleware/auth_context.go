package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/snake-eaterr/Snake-Way-Server/internal/logging"
	"github.com/snake-eaterr/Snake-Way-Server/internal/usecase"
)

const IdempotencyHeader = "X-Idempotency-Key"

// CurrentUser resolves the caller from the Authorization header and stores it,
// together with the idempotency key, in the request context. A missing or
// invalid token leaves the request anonymous.
func CurrentUser(auth *usecase.Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		u, err := auth.Resolve(ctx, c.GetHeader("Authorization"))
		if err != nil {
			logging.From(c).Error("resolve current user", "err", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
			return
		}
		if u != nil {
			ctx = usecase.WithCurrentUser(ctx, u)
			logging.With(c, logging.From(c).With("user_id", u.ID))
			ctx = logging.WithCtx(ctx, logging.From(c))
		}
		ctx = usecase.WithIdempotencyKey(ctx, c.GetHeader(IdempotencyHeader))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
