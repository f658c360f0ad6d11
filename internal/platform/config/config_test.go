package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, time.Hour, cfg.Cache.StaleTTL)
	assert.False(t, cfg.Cache.ServeStale)
	assert.Equal(t, 2*time.Second, cfg.Cache.RetryAfter)
	assert.False(t, cfg.Cache.UseUpstash())
	assert.Equal(t, 1.5, cfg.MinPrice)

	assert.Equal(t, RelVolConfig{
		Method:                "recent_k_1m",
		Interval:              "1m",
		HistoryDays:           5,
		BaselineDays:          4,
		KBars:                 5,
		IncludeToday:          true,
		ExcludeLastKFromToday: true,
		ReuseIntraday:         true,
	}, cfg.RelVol)

	assert.Equal(t, "https://query1.finance.yahoo.com", cfg.Yahoo.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.Yahoo.Timeout)
	assert.Equal(t, 8, cfg.Yahoo.MaxConcurrency)
	assert.Equal(t, 10.0, cfg.Yahoo.RateLimitRPS)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("UPSTASH_REDIS_REST_URL", "https://example.upstash.io")
	t.Setenv("UPSTASH_REDIS_REST_TOKEN", "token")
	t.Setenv("CACHE_TTL_SECONDS", "60")
	t.Setenv("SERVE_STALE_WHILE_REVALIDATE", "true")
	t.Setenv("MIN_PRICE_FLOOR", "2.5")
	t.Setenv("RVOL_METHOD", "TOD")
	t.Setenv("RVOL_INCLUDE_TODAY", "false")
	t.Setenv("YAHOO_BASE_URL", "http://localhost:9999/")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.True(t, cfg.Cache.UseUpstash())
	assert.Equal(t, time.Minute, cfg.Cache.TTL)
	assert.True(t, cfg.Cache.ServeStale)
	assert.Equal(t, 2.5, cfg.MinPrice)
	assert.Equal(t, "tod", cfg.RelVol.Method)
	assert.False(t, cfg.RelVol.IncludeToday)
	assert.Equal(t, "http://localhost:9999", cfg.Yahoo.BaseURL)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"log level", "LOG_LEVEL", "verbose"},
		{"ttl", "CACHE_TTL_SECONDS", "0"},
		{"baseline days", "RVOL_BASELINE_DAYS", "0"},
		{"price floor", "MIN_PRICE_FLOOR", "-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
