package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/uv/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Limiter counts requests per key
type Limiter interface {
	Allow(ctx context.Context, key string) (allowed bool, remaining int, err error)
	Limit() int
}

// RateLimiter is a per-process fixed-window limiter, used when no shared
// Redis limiter is configured.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*client
	limit   int
	window  time.Duration
}

type client struct {
	tokens    int
	lastReset time.Time
}

// NewRateLimiter creates a limiter. Expired clients are pruned until ctx ends.
func NewRateLimiter(ctx context.Context, limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		clients: make(map[string]*client),
		limit:   limit,
		window:  window,
	}
	go rl.cleanup(ctx, window*2)
	return rl
}

func (rl *RateLimiter) cleanup(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.mu.Lock()
			now := time.Now()
			for key, c := range rl.clients {
				if now.Sub(c.lastReset) > rl.window*2 {
					delete(rl.clients, key)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// Limit returns the number of requests allowed per window
func (rl *RateLimiter) Limit() int {
	return rl.limit
}

// Allow counts one request for key
func (rl *RateLimiter) Allow(_ context.Context, key string) (bool, int, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	c, exists := rl.clients[key]
	if !exists || now.Sub(c.lastReset) >= rl.window {
		rl.clients[key] = &client{tokens: rl.limit - 1, lastReset: now}
		return true, rl.limit - 1, nil
	}

	if c.tokens > 0 {
		c.tokens--
		return true, c.tokens, nil
	}
	return false, 0, nil
}

// RateLimitKeyByUser keys on the authenticated user, falling back to the client IP
func RateLimitKeyByUser(c *gin.Context) string {
	if userID := GetJWTUserID(c); userID != "" {
		return "user:" + userID
	}
	return "ip:" + c.ClientIP()
}

// RateLimit rejects requests over the limiter's budget with 429. Limiter
// failures are logged and the request is let through.
func RateLimit(limiter Limiter, keyFunc func(*gin.Context) string, log *zap.Logger) gin.HandlerFunc {
	if keyFunc == nil {
		keyFunc = RateLimitKeyByUser
	}
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		key := keyFunc(c)

		allowed, remaining, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			log.Warn("rate limiter unavailable, allowing request",
				zap.String("key", key),
				zap.Error(err),
			)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.Limit()))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeRateLimited,
				"Too many requests. Please try again later.",
				GetRequestID(c),
			))
			return
		}

		c.Next()
	}
}
