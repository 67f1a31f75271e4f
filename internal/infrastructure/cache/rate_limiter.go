package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRateLimitKeyPrefix = "media:ratelimit:"

// RedisRateLimiter is a fixed-window request counter shared by every
// server instance. A nil client allows everything.
type RedisRateLimiter struct {
	client    *redis.Client
	keyPrefix string
	limit     int
	window    time.Duration
}

// NewRedisRateLimiter allows limit requests per key within window
func NewRedisRateLimiter(client *redis.Client, limit int, window time.Duration) *RedisRateLimiter {
	return &RedisRateLimiter{
		client:    client,
		keyPrefix: defaultRateLimitKeyPrefix,
		limit:     limit,
		window:    window,
	}
}

// Limit returns the number of requests allowed per window
func (l *RedisRateLimiter) Limit() int {
	return l.limit
}

// Allow counts one request for key and reports whether it fits the window
// along with the requests left.
func (l *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, int, error) {
	if l.client == nil || l.limit <= 0 {
		return true, l.limit, nil
	}

	redisKey := l.keyPrefix + key
	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, 0, fmt.Errorf("failed to count request: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, redisKey, l.window).Err(); err != nil {
			return false, 0, fmt.Errorf("failed to set rate limit window: %w", err)
		}
	}

	remaining := l.limit - int(count)
	if remaining < 0 {
		return false, 0, nil
	}
	return true, remaining, nil
}
