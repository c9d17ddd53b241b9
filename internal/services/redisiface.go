package services

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClient is the subset of redis commands the session store needs.
// Tests provide an in-memory implementation.
type RedisClient interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Expire(ctx context.Context, key string, ttl time.Duration) error
}

// RedisAdapter satisfies RedisClient with a real *redis.Client.
type RedisAdapter struct {
	c *redis.Client
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{c: client}
}

func (a *RedisAdapter) Get(ctx context.Context, key string) (string, error) {
	return a.c.Get(ctx, key).Result()
}

func (a *RedisAdapter) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	return a.c.Set(ctx, key, value, ttl).Err()
}

func (a *RedisAdapter) Del(ctx context.Context, keys ...string) error {
	return a.c.Del(ctx, keys...).Err()
}

func (a *RedisAdapter) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return a.c.Expire(ctx, key, ttl).Err()
}
