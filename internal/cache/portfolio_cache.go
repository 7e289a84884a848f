// Package cache provides the redis-backed portfolio aggregate cache.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ColourfulRhythm/subxadmin/backend/internal/domain"
)

const keyPrefix = "portfolio:"

// RedisCache stores computed portfolios in Redis with a TTL. Every failure
// mode degrades to a cache miss; the engine recomputes and the read path is
// never blocked by the cache.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisCache connects to Redis using a redis:// URL.
func NewRedisCache(redisURL string, ttl time.Duration, logger *slog.Logger) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisCacheWithClient(client, ttl, logger), nil
}

// NewRedisCacheWithClient wraps an existing Redis client.
func NewRedisCacheWithClient(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func (c *RedisCache) key(userID string) string {
	return keyPrefix + userID
}

// Get returns the cached portfolio for a user, ok=false on miss or failure.
func (c *RedisCache) Get(ctx context.Context, userID string) (domain.Portfolio, bool) {
	payload, err := c.client.Get(ctx, c.key(userID)).Result()
	if err == redis.Nil {
		return domain.Portfolio{}, false
	}
	if err != nil {
		c.logger.Debug("portfolio cache read failed", "userId", userID, "error", err)
		return domain.Portfolio{}, false
	}

	var p domain.Portfolio
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		c.logger.Debug("portfolio cache payload corrupt", "userId", userID, "error", err)
		return domain.Portfolio{}, false
	}
	return p, true
}

// Set stores the portfolio under the configured TTL.
func (c *RedisCache) Set(ctx context.Context, userID string, p domain.Portfolio) {
	payload, err := json.Marshal(p)
	if err != nil {
		c.logger.Debug("portfolio cache marshal failed", "userId", userID, "error", err)
		return
	}
	if err := c.client.Set(ctx, c.key(userID), payload, c.ttl).Err(); err != nil {
		c.logger.Debug("portfolio cache write failed", "userId", userID, "error", err)
	}
}

// Invalidate drops the cached portfolio after a mutation touching the user.
func (c *RedisCache) Invalidate(ctx context.Context, userID string) {
	if err := c.client.Del(ctx, c.key(userID)).Err(); err != nil {
		c.logger.Debug("portfolio cache invalidation failed", "userId", userID, "error", err)
	}
}

// Ping checks if Redis is reachable.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
