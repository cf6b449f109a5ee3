package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	domain "github.com/snake-eaterr/Snake-Way-Server/internal/entity"
	"github.com/snake-eaterr/Snake-Way-Server/internal/usecase"
)

const productKeyPrefix = "product:"

// RedisCache is the cache-aside store for products looked up by id.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

func (r *RedisCache) GetProduct(ctx context.Context, id string) (*domain.Product, bool, error) {
	data, err := r.rdb.Get(ctx, productKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get: %w", err)
	}
	var p domain.Product
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, false, fmt.Errorf("cache unmarshal: %w", err)
	}
	return &p, true, nil
}

func (r *RedisCache) SetProduct(ctx context.Context, p *domain.Product) error {
	// image bytes are never cached
	data, err := json.Marshal(p.Clone())
	if err != nil {
		return fmt.Errorf("cache marshal: %w", err)
	}
	return r.rdb.Set(ctx, productKeyPrefix+p.ID, data, r.ttl).Err()
}

func (r *RedisCache) InvalidateProduct(ctx context.Context, id string) error {
	return r.rdb.Del(ctx, productKeyPrefix+id).Err()
}

var _ usecase.ProductCache = (*RedisCache)(nil)
