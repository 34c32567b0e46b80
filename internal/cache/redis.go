package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"slideforge/internal/core"
)

// keyPrefix namespaces response cache keys in a shared Redis instance.
const keyPrefix = "slideforge:response:"

// RedisCache implements Cache on Redis for multi-instance deployments.
// Backend failures degrade to misses and dropped writes.
type RedisCache struct {
	counters
	client *redis.Client
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(url string) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	slog.Info("redis response cache connected")
	return &RedisCache{client: client}, nil
}

// NewRedisCacheWithClient wraps an existing client. Tests only.
func NewRedisCacheWithClient(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Get fetches and decodes a cached artifact. Any backend or decode error is
// a miss.
func (c *RedisCache) Get(ctx context.Context, fingerprint string) (*core.GeneratedArtifact, bool) {
	data, err := c.client.Get(ctx, keyPrefix+fingerprint).Bytes()
	if err != nil {
		if err != redis.Nil {
			slog.Debug("redis cache read failed, treating as miss", "error", err)
		}
		c.miss()
		return nil, false
	}

	var artifact core.GeneratedArtifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		slog.Debug("redis cache entry undecodable, treating as miss", "error", err)
		c.miss()
		return nil, false
	}
	c.hit()
	return &artifact, true
}

// Put stores an artifact with the given TTL. Failures are logged and dropped.
func (c *RedisCache) Put(ctx context.Context, fingerprint string, artifact *core.GeneratedArtifact, ttl time.Duration) {
	if artifact == nil || ttl <= 0 {
		return
	}
	data, err := json.Marshal(artifact)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, keyPrefix+fingerprint, data, ttl).Err(); err != nil {
		slog.Debug("redis cache write failed", "error", err)
	}
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}
