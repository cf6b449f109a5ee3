package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/snake-eaterr/Snake-Way-Server/internal/security"
)

const ClientIDKey = "client_id"

// Authz guards the machine-client endpoints with client-credential tokens.
type Authz struct {
	tokens *security.Tokens
}

func NewAuthz(tokens *security.Tokens) *Authz {
	return &Authz{tokens: tokens}
}

// Require checks the JWT and ensures all required permissions are present.
func (a *Authz) Require(requiredPerms ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearer(c.GetHeader("Authorization"))
		if !ok {
			unauth(c, "invalid_request", "missing bearer token")
			return
		}

		claims, err := a.tokens.VerifyClient(raw)
		if err != nil {
			unauth(c, "invalid_token", "invalid jwt")
			return
		}

		if !hasAll(claims.Perms, requiredPerms) {
			forbidden(c, "insufficient_scope", "missing required permissions")
			return
		}

		c.Set(ClientIDKey, claims.ClientID)
		c.Next()
	}
}

// bearer strips a case-insensitive "Bearer " prefix.
func bearer(h string) (string, bool) {
	const p = "bearer "
	if len(h) <= len(p) || !strings.EqualFold(h[:len(p)], p) {
		return "", false
	}
	return strings.TrimSpace(h[len(p):]), true
}

func hasAll(have, req []string) bool {
	set := make(map[string]struct{}, len(have))
	for _, p := range have {
		set[p] = struct{}{}
	}
	for _, r := range req {
		if _, ok := set[r]; !ok {
			return false
		}
	}
	return true
}

func unauth(c *gin.Context, code, desc string) {
	c.Header("WWW-Authenticate", `Bearer error="`+code+`", error_description="`+desc+`"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": code, "error_description": desc})
}

func forbidden(c *gin.Context, code, desc string) {
	c.Header("WWW-Authenticate", `Bearer error="`+code+`", error_description="`+desc+`"`)
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": code, "error_description": desc})
}
