package ratelimit

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/marketlens/backend/internal/domain"
	"github.com/redis/go-redis/v9"
)

//go:embed scripts/sliding_window.lua
var slidingWindowLua string

// RedisLimiter is a sliding-window limiter shared across instances through
// Redis sorted sets, evaluated atomically by a Lua script.
//
// Key schema:
//
//	ratelimit:{key} - sorted set of request timestamps in microseconds
type RedisLimiter struct {
	rdb           *redis.Client
	slidingWindow *redis.Script
	limit         int
	window        time.Duration
}

// NewRedisLimiter connects to redisURL, pings it, and allows perMinute
// requests per key per sliding minute.
func NewRedisLimiter(ctx context.Context, redisURL string, perMinute int) (*RedisLimiter, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: parse url: %w", err)
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}

	return newRedisLimiter(rdb, perMinute, time.Minute), nil
}

func newRedisLimiter(rdb *redis.Client, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		rdb:           rdb,
		slidingWindow: redis.NewScript(slidingWindowLua),
		limit:         limit,
		window:        window,
	}
}

func rateLimitKey(key string) string {
	return "ratelimit:" + key
}

// Allow checks whether a request for the given key is permitted under the
// sliding window. Allowed requests are counted.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	result, err := l.slidingWindow.Run(
		ctx,
		l.rdb,
		[]string{rateLimitKey(key)},
		time.Now().UnixMicro(),
		l.window.Microseconds(),
		l.limit,
	).Int64Slice()
	if err != nil {
		return false, fmt.Errorf("redis: rate limit allow %s: %w", key, err)
	}

	if len(result) < 2 {
		return false, fmt.Errorf("redis: rate limit allow %s: unexpected result length %d", key, len(result))
	}

	return result[0] == 1, nil
}

// Close releases the Redis connection pool
func (l *RedisLimiter) Close() error {
	return l.rdb.Close()
}

// Compile-time interface check.
var _ domain.RateLimiter = (*RedisLimiter)(nil)
