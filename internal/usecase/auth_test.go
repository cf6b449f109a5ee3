package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snake-eaterr/Snake-Way-Server/internal/adapter/repo"
	domain "github.com/snake-eaterr/Snake-Way-Server/internal/entity"
	"github.com/snake-eaterr/Snake-Way-Server/internal/usecase"
)

type brokenUsers struct{ *repo.MemoryUserRepo }

func (brokenUsers) GetByID(context.Context, string) (*domain.User, error) {
	return nil, errors.New("connection refused")
}

func TestAuthenticatorResolve(t *testing.T) {
	f := newFixture(t)
	u, _ := f.user(t, "luke")
	auth := usecase.NewAuthenticator(fakeTokens{}, f.users)
	ctx := context.Background()
	valid := "tok:" + u.ID + ":luke"

	tests := []struct {
		name   string
		header string
		want   bool
	}{
		{"no header", "", false},
		{"basic scheme", "Basic abc", false},
		{"bearer", "bearer " + valid, true},
		{"mixed case prefix", "BeArEr " + valid, true},
		{"malformed token", "Bearer garbage", false},
		{"unknown subject", "Bearer tok:ghost:luke", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := auth.Resolve(ctx, tt.header)
			require.NoError(t, err)
			if !tt.want {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, u.ID, got.ID)
		})
	}
}

func TestAuthenticatorResolveStoreFailure(t *testing.T) {
	auth := usecase.NewAuthenticator(fakeTokens{}, brokenUsers{repo.NewMemoryUserRepo()})
	_, err := auth.Resolve(context.Background(), "Bearer tok:u1:luke")
	requireKind(t, err, usecase.KindInternal, "")
}

func TestCurrentUserContext(t *testing.T) {
	_, ok := usecase.CurrentUser(context.Background())
	assert.False(t, ok)

	ctx := usecase.WithCurrentUser(context.Background(), nil)
	_, ok = usecase.CurrentUser(ctx)
	assert.False(t, ok)

	assert.Equal(t, "", usecase.IdempotencyKey(context.Background()))
	assert.Equal(t, "k", usecase.IdempotencyKey(usecase.WithIdempotencyKey(context.Background(), "k")))
}

func TestErrorKinds(t *testing.T) {
	assert.Equal(t, usecase.KindInternal, usecase.KindOf(errors.New("boom")))
	err := usecase.Internal("load", errors.New("boom"))
	assert.Equal(t, "load: boom", err.Error())
	assert.Equal(t, "permission_denied", usecase.KindPermissionDenied.String())

	wrapped := usecase.InvalidArgument("product not found", "id")
	assert.Equal(t, usecase.KindInvalidArgument, usecase.KindOf(wrapped))
	assert.Equal(t, "id", wrapped.Args)
}
