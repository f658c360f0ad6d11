package di

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"scanner_backend/internal/platform/cache"
	"scanner_backend/internal/platform/config"
	"scanner_backend/internal/platform/db"
	infraredis "scanner_backend/internal/platform/redis"
)

const (
	cacheDBTimeout     = 10 * time.Second
	upstashHTTPTimeout = 5 * time.Second
)

// NewCacheStore selects the cache backend: Upstash REST when both URL and token are set,
// then Redis, then the SQL table. A backend that cannot be reached is skipped.
// It returns nil when no backend is available, which disables caching.
// The returned func releases the backend's connections.
func NewCacheStore(ctx context.Context, cfg config.CacheConfig) (cache.Store, func()) {
	noop := func() {}

	if cfg.UseUpstash() {
		slog.Info("cache backend selected", "backend", "upstash")
		client := &http.Client{Timeout: upstashHTTPTimeout}
		return cache.NewUpstashStore(cfg.UpstashURL, cfg.UpstashToken, client), noop
	}

	if cfg.RedisURL != "" {
		rdb, err := infraredis.NewRedisClient(ctx, cfg.RedisURL)
		if err == nil {
			slog.Info("cache backend selected", "backend", "redis")
			return cache.NewRedisStore(rdb), func() {
				if err := rdb.Close(); err != nil {
					slog.Error("failed to close Redis client", "error", err)
				}
			}
		}
		slog.Warn("Redis unavailable, trying next cache backend", "error", err)
	}

	if cfg.DatabaseURL != "" {
		gdb, err := db.Open(cfg.DatabaseURL, cacheDBTimeout)
		if err == nil {
			store := cache.NewSQLStore(gdb)
			if err = store.Migrate(); err == nil {
				slog.Info("cache backend selected", "backend", "sql")
				return store, func() {
					if sqlDB, err := gdb.DB(); err == nil {
						_ = sqlDB.Close()
					}
				}
			}
		}
		slog.Warn("cache database unavailable", "error", err)
	}

	slog.Warn("no cache backend configured. Running without cache.")
	return nil, noop
}

// NewMemo wraps store with the configured freshness policy.
func NewMemo(store cache.Store, cfg config.CacheConfig) *cache.Memo {
	return cache.NewMemo(store, cache.Options{
		TTL:        cfg.TTL,
		StaleTTL:   cfg.StaleTTL,
		ServeStale: cfg.ServeStale,
		RetryAfter: cfg.RetryAfter,
	})
}
