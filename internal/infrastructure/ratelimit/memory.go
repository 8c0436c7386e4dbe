package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/marketlens/backend/internal/domain"
	"golang.org/x/time/rate"
)

// visitor tracks the token bucket of a single key
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// MemoryLimiter is a thread-safe per-key token bucket limiter held in memory.
// Keys idle for longer than the idle timeout are evicted periodically.
type MemoryLimiter struct {
	visitors    map[string]*visitor
	mutex       sync.Mutex
	limit       rate.Limit
	burst       int
	idleTimeout time.Duration
	now         func() time.Time
}

// NewMemoryLimiter allows perMinute requests per key per minute with a burst
// of the same size. The eviction goroutine stops when ctx is done.
func NewMemoryLimiter(ctx context.Context, perMinute int) *MemoryLimiter {
	if perMinute <= 0 {
		perMinute = 1
	}

	l := &MemoryLimiter{
		visitors:    make(map[string]*visitor),
		limit:       rate.Limit(float64(perMinute) / 60.0),
		burst:       perMinute,
		idleTimeout: 10 * time.Minute,
		now:         time.Now,
	}

	go l.cleanupIdle(ctx, time.Minute)

	return l
}

// Allow reports whether a request for key may proceed, consuming a token if so
func (l *MemoryLimiter) Allow(ctx context.Context, key string) (bool, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	now := l.now()
	v, exists := l.visitors[key]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now

	return v.limiter.AllowN(now, 1), nil
}

// cleanupIdle removes keys that have not been seen for idleTimeout
func (l *MemoryLimiter) cleanupIdle(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.evictIdle()
		}
	}
}

func (l *MemoryLimiter) evictIdle() {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	cutoff := l.now().Add(-l.idleTimeout)
	for key, v := range l.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(l.visitors, key)
		}
	}
}

// Size returns the number of tracked keys
func (l *MemoryLimiter) Size() int {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return len(l.visitors)
}

// Compile-time interface check.
var _ domain.RateLimiter = (*MemoryLimiter)(nil)
