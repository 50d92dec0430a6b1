package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const idempotencyKeyPrefix = "idempotency:"

// IdempotencyGuard remembers request keys so a retried request is not executed twice.
type IdempotencyGuard interface {
	// Acquire claims key. It returns false when the key was already claimed and
	// has not expired or been released.
	Acquire(ctx context.Context, key string) (bool, error)
	// Release frees key so the request can be retried.
	Release(ctx context.Context, key string) error
}

var _ IdempotencyGuard = (*RedisIdempotencyGuard)(nil)

type RedisIdempotencyGuard struct {
	cl  *redis.Client
	ttl time.Duration
}

func NewRedisIdempotencyGuard(cl *redis.Client, ttl time.Duration) *RedisIdempotencyGuard {
	return &RedisIdempotencyGuard{cl: cl, ttl: ttl}
}

func (g *RedisIdempotencyGuard) Acquire(ctx context.Context, key string) (bool, error) {
	ok, err := g.cl.SetNX(ctx, idempotencyKeyPrefix+key, time.Now().Unix(), g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}

	return ok, nil
}

func (g *RedisIdempotencyGuard) Release(ctx context.Context, key string) error {
	if err := g.cl.Del(ctx, idempotencyKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}

	return nil
}
