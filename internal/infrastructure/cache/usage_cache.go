package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	mediaapp "github.com/uv/backend/internal/application/media"
	"github.com/uv/backend/internal/domain/media"
)

const (
	defaultUsageKeyPrefix = "media:usage:"
	defaultUsageTTL       = 5 * time.Minute
)

// RedisUsageCache caches per-owner storage reports in Redis.
// A nil client turns every call into a no-op miss.
type RedisUsageCache struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

var _ mediaapp.UsageCache = (*RedisUsageCache)(nil)

// NewRedisUsageCache creates a usage cache. ttl <= 0 uses five minutes.
func NewRedisUsageCache(client *redis.Client, ttl time.Duration) *RedisUsageCache {
	if ttl <= 0 {
		ttl = defaultUsageTTL
	}
	return &RedisUsageCache{
		client:    client,
		keyPrefix: defaultUsageKeyPrefix,
		ttl:       ttl,
	}
}

func (c *RedisUsageCache) key(ownerID uuid.UUID) string {
	return c.keyPrefix + ownerID.String()
}

// Get returns the cached report, or nil on a miss
func (c *RedisUsageCache) Get(ctx context.Context, ownerID uuid.UUID) (*media.StorageUsage, error) {
	if c.client == nil {
		return nil, nil
	}

	raw, err := c.client.Get(ctx, c.key(ownerID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read storage usage cache: %w", err)
	}

	var usage media.StorageUsage
	if err := json.Unmarshal(raw, &usage); err != nil {
		// corrupt entries are treated as a miss and dropped
		_ = c.client.Del(ctx, c.key(ownerID)).Err()
		return nil, nil
	}
	return &usage, nil
}

// Set stores the report for its owner
func (c *RedisUsageCache) Set(ctx context.Context, usage *media.StorageUsage) error {
	if c.client == nil || usage == nil {
		return nil
	}

	raw, err := json.Marshal(usage)
	if err != nil {
		return fmt.Errorf("failed to encode storage usage: %w", err)
	}
	if err := c.client.Set(ctx, c.key(usage.OwnerID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write storage usage cache: %w", err)
	}
	return nil
}

// Invalidate drops the cached report for ownerID
func (c *RedisUsageCache) Invalidate(ctx context.Context, ownerID uuid.UUID) error {
	if c.client == nil {
		return nil
	}
	if err := c.client.Del(ctx, c.key(ownerID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate storage usage cache: %w", err)
	}
	return nil
}

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}
