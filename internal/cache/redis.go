package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"remarkcli/pkg/contracts/domain"
)

// RedisCache shares results between processes. Entries are JSON with a TTL.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisCache connects to the redis instance named by url.
func NewRedisCache(url, prefix string, ttl time.Duration, logger *slog.Logger) (*RedisCache, error) {
	if logger == nil {
		logger = slog.Default()
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return &RedisCache{
		client: redis.NewClient(opts),
		prefix: prefix,
		ttl:    ttl,
		logger: logger.With(slog.String("component", "redis_cache")),
	}, nil
}

// Get loads a report. Connection and decode failures count as a miss.
func (c *RedisCache) Get(ctx context.Context, key string) (*domain.Report, bool) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WarnContext(ctx, "cache read failed",
				slog.String("key", key),
				slog.String("error", err.Error()))
		}
		return nil, false
	}

	var report domain.Report
	if err := json.Unmarshal(data, &report); err != nil {
		c.logger.WarnContext(ctx, "cache entry undecodable",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return nil, false
	}
	return &report, true
}

// Set stores a report with the cache TTL.
func (c *RedisCache) Set(ctx context.Context, key string, report *domain.Report) error {
	if report == nil {
		return nil
	}
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := c.client.Set(ctx, c.prefix+key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Ping checks connectivity.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the client connections.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
