package ratelimit

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "inkwell:rl:"

// RedisLimiter is a fixed-window limiter on Redis counters.
type RedisLimiter struct {
	client redis.UniversalClient
	cfg    Config
}

// NewRedisLimiter creates a limiter backed by client.
func NewRedisLimiter(client redis.UniversalClient, cfg Config) *RedisLimiter {
	return &RedisLimiter{client: client, cfg: cfg}
}

// Allow implements Limiter. The window starts on the first hit: SET NX EX
// creates the counter with its TTL and INCR counts the hit, both inside one
// MULTI so a counter never exists without an expiry.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if key == "" || l.cfg.Limit <= 0 || l.cfg.Window <= 0 {
		return true, nil
	}

	k := keyPrefix + key
	var incr *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, k, 0, l.cfg.Window)
		incr = pipe.Incr(ctx, k)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrRedisUnavailable, err)
	}

	return incr.Val() <= int64(l.cfg.Limit), nil
}

// Ping checks the Redis connection.
func (l *RedisLimiter) Ping(ctx context.Context) error {
	if err := l.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrRedisUnavailable, err)
	}
	return nil
}
