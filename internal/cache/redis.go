package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"shortlink-backend/internal/domain"
)

const keyPrefix = "link:"

// RedisCache stores link snapshots as JSON strings in Redis. Backend and
// decode failures are reported as misses so a degraded Redis never takes the
// redirect path down with it.
type RedisCache struct {
	client *redis.Client
	log    *zap.Logger
}

func NewRedis(client *redis.Client, log *zap.Logger) *RedisCache {
	return &RedisCache{
		client: client,
		log:    log,
	}
}

func (c *RedisCache) Get(ctx context.Context, code string) (*domain.Link, error) {
	data, err := c.client.Get(ctx, keyPrefix+code).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		c.log.Warn("cache read failed, treating as miss", zap.String("code", code), zap.Error(err))
		return nil, ErrMiss
	}

	var link domain.Link
	if err := json.Unmarshal(data, &link); err != nil {
		c.log.Warn("dropping undecodable cache entry", zap.String("code", code), zap.Error(err))
		return nil, ErrMiss
	}
	return &link, nil
}

func (c *RedisCache) Set(ctx context.Context, code string, link *domain.Link, ttl time.Duration) error {
	data, err := json.Marshal(link)
	if err != nil {
		return fmt.Errorf("failed to serialize link: %w", err)
	}

	if err := c.client.Set(ctx, keyPrefix+code, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

var _ Cache = (*RedisCache)(nil)
