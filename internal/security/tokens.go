package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	domain "github.com/snake-eaterr/Snake-Way-Server/internal/entity"
	"github.com/snake-eaterr/Snake-Way-Server/internal/usecase"
)

const (
	TokenTypeUser   = "user"
	TokenTypeClient = "client"

	clockSkew = 30 * time.Second
)

var ErrWrongTokenType = errors.New("wrong token type")

type Claims struct {
	Username  string   `json:"username,omitempty"`
	ClientID  string   `json:"clientID,omitempty"`
	Perms     []string `json:"perms,omitempty"`
	TokenType string   `json:"typ"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies both user tokens (GraphQL) and
// client-credential tokens (fulfillment endpoints).
type Tokens struct {
	keys     KeyMaterial
	issuer   string
	audience string
	ttl      time.Duration
	now      func() time.Time
}

func NewTokens(keys KeyMaterial, issuer, audience string, ttl time.Duration) *Tokens {
	return &Tokens{keys: keys, issuer: issuer, audience: audience, ttl: ttl, now: time.Now}
}

var _ usecase.TokenService = (*Tokens)(nil)

func (t *Tokens) TTL() time.Duration { return t.ttl }

func (t *Tokens) registered(subject string) jwt.RegisteredClaims {
	now := t.now()
	return jwt.RegisteredClaims{
		Issuer:    t.issuer,
		Subject:   subject,
		Audience:  jwt.ClaimStrings{t.audience},
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
	}
}

func (t *Tokens) sign(c Claims) (string, error) {
	key, err := t.keys.signingKey()
	if err != nil {
		return "", err
	}
	signed, err := jwt.NewWithClaims(t.keys.Method, c).SignedString(key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Issue returns a user token whose subject is the user id.
func (t *Tokens) Issue(u *domain.User) (string, error) {
	return t.sign(Claims{
		Username:         u.Username,
		TokenType:        TokenTypeUser,
		RegisteredClaims: t.registered(u.ID),
	})
}

func (t *Tokens) Verify(raw string) (*usecase.Identity, error) {
	c, err := t.parse(raw)
	if err != nil {
		return nil, err
	}
	if c.TokenType != TokenTypeUser || c.Subject == "" {
		return nil, ErrWrongTokenType
	}
	return &usecase.Identity{UserID: c.Subject, Username: c.Username}, nil
}

func (t *Tokens) IssueClient(cl Client) (string, error) {
	return t.sign(Claims{
		ClientID:         cl.ID,
		Perms:            cl.Perms,
		TokenType:        TokenTypeClient,
		RegisteredClaims: t.registered(cl.ID),
	})
}

func (t *Tokens) VerifyClient(raw string) (*Claims, error) {
	c, err := t.parse(raw)
	if err != nil {
		return nil, err
	}
	if c.TokenType != TokenTypeClient {
		return nil, ErrWrongTokenType
	}
	return c, nil
}

func (t *Tokens) parse(raw string) (*Claims, error) {
	var c Claims
	_, err := jwt.ParseWithClaims(raw, &c, func(*jwt.Token) (any, error) {
		return t.keys.verifyKey(), nil
	},
		jwt.WithValidMethods([]string{t.keys.Method.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithAudience(t.audience),
		jwt.WithLeeway(clockSkew),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
