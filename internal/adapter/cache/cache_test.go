package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/snake-eaterr/Snake-Way-Server/internal/entity"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestRedisCacheProductRoundTrip(t *testing.T) {
	mr, rdb := newTestRedis(t)
	c := NewRedisCache(rdb, time.Minute)
	ctx := context.Background()

	_, ok, err := c.GetProduct(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, ok)

	rating := 4
	p := &domain.Product{
		ID: "p1", Label: "atari", Description: "console", Stock: 50, Rating: &rating,
		Image:   &domain.Image{Data: []byte("png")},
		Reviews: []domain.Review{{ID: "r1", Text: "nice", PostedBy: "u1"}},
		Created: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, c.SetProduct(ctx, p))
	assert.True(t, mr.Exists("product:p1"))
	assert.Equal(t, time.Minute, mr.TTL("product:p1"))

	got, ok, err := c.GetProduct(ctx, "p1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "atari", got.Label)
	assert.Equal(t, 4, *got.Rating)
	assert.Nil(t, got.Image)
	assert.Len(t, got.Reviews, 1)
	assert.True(t, p.Created.Equal(got.Created))

	require.NoError(t, c.InvalidateProduct(ctx, "p1"))
	_, ok, err = c.GetProduct(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisCacheCorruptEntry(t *testing.T) {
	mr, rdb := newTestRedis(t)
	require.NoError(t, mr.Set("product:bad", "{not json"))

	_, ok, err := NewRedisCache(rdb, time.Minute).GetProduct(context.Background(), "bad")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestRedisIdempotencyStore(t *testing.T) {
	mr, rdb := newTestRedis(t)
	s := NewRedisIdempotencyStore(rdb, 10*time.Minute)
	ctx := context.Background()

	locked, err := s.TryLock(ctx, "u1", "k1")
	require.NoError(t, err)
	assert.True(t, locked)

	locked, err = s.TryLock(ctx, "u1", "k1")
	require.NoError(t, err)
	assert.False(t, locked, "second attempt must not get the lock")

	// a different user may use the same key
	locked, err = s.TryLock(ctx, "u2", "k1")
	require.NoError(t, err)
	assert.True(t, locked)

	_, ok, err := s.Recall(ctx, "u1", "k1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Remember(ctx, "u1", "k1", "order-1"))
	v, ok, err := s.Recall(ctx, "u1", "k1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "order-1", v)

	require.NoError(t, s.Release(ctx, "u2", "k1"))
	locked, err = s.TryLock(ctx, "u2", "k1")
	require.NoError(t, err)
	assert.True(t, locked)

	mr.FastForward(11 * time.Minute)
	_, ok, err = s.Recall(ctx, "u1", "k1")
	require.NoError(t, err)
	assert.False(t, ok)
}
