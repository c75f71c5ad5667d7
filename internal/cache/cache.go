// Package cache memoizes per-file report results keyed by the file content and
// the report options. Report correctness never depends on a cache hit.
package cache

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/blake2b"

	"remarkcli/internal/config"
	"remarkcli/pkg/contracts/domain"
)

// ResultCache stores finished reports.
type ResultCache interface {
	Get(ctx context.Context, key string) (*domain.Report, bool)
	Set(ctx context.Context, key string, report *domain.Report) error
}

// Key derives the cache key from the raw file bytes and the options fingerprint.
func Key(file []byte, fingerprint string) string {
	h, _ := blake2b.New256(nil)
	h.Write(file)
	h.Write([]byte{0})
	h.Write([]byte(fingerprint))
	return hex.EncodeToString(h.Sum(nil))
}

// New builds the configured cache. It returns nil when caching is disabled.
func New(cfg config.CacheConfig, logger *slog.Logger) (ResultCache, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	if cfg.EnableRedis {
		rc, err := NewRedisCache(cfg.RedisURL, cfg.KeyPrefix, cfg.TTL, logger)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		return rc, nil
	}
	return NewMemoryCache(cfg.TTL, cfg.MaxEntries), nil
}
