package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	catalogKeyPrefix  = "catalog:v:"
	catalogVersionKey = "catalog:version"
	backgroundTimeout = 5 * time.Second
)

// CatalogCache caches catalog reads in Redis. Every write bumps a version
// counter so stale list entries are never read again and expire on their TTL.
type CatalogCache struct {
	redis  *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisClient parses url (redis://host:port/db) and checks the server answers.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func NewCatalogCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *CatalogCache {
	return &CatalogCache{redis: client, ttl: ttl, logger: logger}
}

// Get decodes the cached value for key into dest and reports a hit. The
// returned version is the one the lookup used, 0 when it is unknown.
func (c *CatalogCache) Get(ctx context.Context, key string, dest interface{}) (int64, bool) {
	version, err := c.version(ctx)
	if err != nil {
		c.logger.Warn("Catalog cache version read failed", zap.Error(err))
		return 0, false
	}
	raw, err := c.redis.Get(ctx, c.versionedKey(version, key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("Catalog cache read failed", zap.String("key", key), zap.Error(err))
		}
		return version, false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		c.logger.Warn("Failed to unmarshal cached catalog entry", zap.String("key", key), zap.Error(err))
		return version, false
	}
	return version, true
}

// Set stores value under key for the given version in the background.
// Version 0 is ignored. An entry written for a superseded version is
// never read.
func (c *CatalogCache) Set(version int64, key string, value interface{}) {
	if version <= 0 {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("Failed to marshal catalog entry for cache", zap.String("key", key), zap.Error(err))
		return
	}
	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), backgroundTimeout)
		defer cancel()

		if err := c.redis.Set(bgCtx, c.versionedKey(version, key), data, c.ttl).Err(); err != nil {
			c.logger.Warn("Failed to cache catalog entry", zap.String("key", key), zap.Error(err))
		}
	}()
}

// Invalidate bumps the catalog version.
func (c *CatalogCache) Invalidate(ctx context.Context) {
	newVersion, err := c.redis.Incr(ctx, catalogVersionKey).Result()
	if err != nil {
		c.logger.Error("Failed to invalidate catalog cache", zap.Error(err))
		return
	}
	c.logger.Debug("Catalog cache invalidated", zap.Int64("new_version", newVersion))
}

func (c *CatalogCache) version(ctx context.Context) (int64, error) {
	ver, err := c.redis.Get(ctx, catalogVersionKey).Int64()
	if err == nil {
		return ver, nil
	}
	if errors.Is(err, redis.Nil) {
		// SETNX so two readers racing on a fresh server agree on version 1.
		if err := c.redis.SetNX(ctx, catalogVersionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return c.redis.Get(ctx, catalogVersionKey).Int64()
	}
	return 0, err
}

func (c *CatalogCache) versionedKey(version int64, key string) string {
	return fmt.Sprintf("%s%d:%s", catalogKeyPrefix, version, key)
}

// Noop is the cache used when Redis is not configured.
type Noop struct{}

func (Noop) Get(context.Context, string, interface{}) (int64, bool) { return 0, false }
func (Noop) Set(int64, string, interface{})                         {}
func (Noop) Invalidate(context.Context)                             {}
