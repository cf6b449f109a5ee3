package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/snake-eaterr/Snake-Way-Server/internal/logging"
	"github.com/snake-eaterr/Snake-Way-Server/internal/security"
)

type TokenHandler struct {
	clients *security.ClientRegistry
	tokens  *security.Tokens
}

func NewTokenHandler(clients *security.ClientRegistry, tokens *security.Tokens) *TokenHandler {
	return &TokenHandler{clients: clients, tokens: tokens}
}

type tokenReq struct {
	ClientID     string `form:"client_id" json:"client_id"`
	ClientSecret string `form:"client_secret" json:"client_secret"`
}

// IssueToken is the client-credentials grant for machine clients.
// POST /v1/token (form or JSON): client_id, client_secret
func (h *TokenHandler) IssueToken(c *gin.Context) {
	var req tokenReq
	if err := c.ShouldBind(&req); err != nil || req.ClientID == "" || req.ClientSecret == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_client"})
		return
	}

	cl, ok := h.clients.Authenticate(req.ClientID, req.ClientSecret)
	if !ok {
		logging.From(c).Warn("client authentication failed", "client_id", req.ClientID)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_client"})
		return
	}

	signed, err := h.tokens.IssueClient(cl)
	if err != nil {
		logging.From(c).Error("issue client token", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": signed,
		"token_type":   "Bearer",
		"expires_in":   int64(h.tokens.TTL().Seconds()),
	})
}
