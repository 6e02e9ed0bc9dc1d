package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"cadastro/internal/address/models"
	"cadastro/pkg/platform/sentinel"
)

const addressKeyPrefix = "address:postal:"

// RedisCache shares resolved addresses across instances. Expiry is delegated to
// Redis through SET with a TTL.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, key string) (*models.PostalAddress, error) {
	raw, err := c.client.Get(ctx, addressKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get cached address: %w", err)
	}
	var addr models.PostalAddress
	if err := json.Unmarshal(raw, &addr); err != nil {
		return nil, fmt.Errorf("decode cached address: %w", err)
	}
	return &addr, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, address models.PostalAddress, ttl time.Duration) error {
	if ttl <= 0 {
		return sentinel.ErrInvalidState
	}
	raw, err := json.Marshal(address)
	if err != nil {
		return fmt.Errorf("encode address: %w", err)
	}
	if err := c.client.Set(ctx, addressKeyPrefix+key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("set cached address: %w", err)
	}
	return nil
}
