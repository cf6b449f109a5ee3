package usecase

import (
	"context"
	"errors"
	"strings"

	domain "github.com/snake-eaterr/Snake-Way-Server/internal/entity"
	"github.com/snake-eaterr/Snake-Way-Server/internal/logging"
)

type currentUserKey struct{}
type idempotencyKey struct{}

func WithCurrentUser(ctx context.Context, u *domain.User) context.Context {
	return context.WithValue(ctx, currentUserKey{}, u)
}

// CurrentUser returns the authenticated caller, if any.
func CurrentUser(ctx context.Context) (*domain.User, bool) {
	u, ok := ctx.Value(currentUserKey{}).(*domain.User)
	return u, ok && u != nil
}

func WithIdempotencyKey(ctx context.Context, key string) context.Context {
	if key == "" {
		return ctx
	}
	return context.WithValue(ctx, idempotencyKey{}, key)
}

func IdempotencyKey(ctx context.Context) string {
	k, _ := ctx.Value(idempotencyKey{}).(string)
	return k
}

func requireUser(ctx context.Context) (*domain.User, error) {
	u, ok := CurrentUser(ctx)
	if !ok {
		return nil, Unauthenticated()
	}
	return u, nil
}

const bearerPrefix = "bearer "

// Authenticator turns an Authorization header into the current user.
type Authenticator struct {
	tokens TokenService
	users  UserRepo
}

func NewAuthenticator(tokens TokenService, users UserRepo) *Authenticator {
	return &Authenticator{tokens: tokens, users: users}
}

// Verify checks a raw bearer token.
func (a *Authenticator) Verify(token string) (*Identity, bool) {
	id, err := a.tokens.Verify(token)
	if err != nil || id == nil || id.UserID == "" {
		return nil, false
	}
	return id, true
}

// Resolve returns the user behind header, or nil when there is none.
// A token that fails verification is not an error: the request simply
// continues unauthenticated. Only store failures are returned.
func (a *Authenticator) Resolve(ctx context.Context, header string) (*domain.User, error) {
	if len(header) < len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return nil, nil
	}
	raw := strings.TrimSpace(header[len(bearerPrefix):])

	id, ok := a.Verify(raw)
	if !ok {
		logging.FromCtx(ctx).Debug("bearer token rejected")
		return nil, nil
	}

	u, err := a.users.GetByID(ctx, id.UserID)
	if errors.Is(err, ErrNotFound) {
		logging.FromCtx(ctx).Debug("token subject no longer exists", "user_id", id.UserID)
		return nil, nil
	}
	if err != nil {
		return nil, Internal("load current user", err)
	}
	return u, nil
}
