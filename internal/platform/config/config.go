// Package config は環境変数からプロセス全体の設定を読み込みます。
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config は起動時に一度だけ組み立てる不変の設定です。
type Config struct {
	Port     string
	LogLevel slog.Level

	Cache    CacheConfig
	RelVol   RelVolConfig
	Yahoo    YahooConfig
	MinPrice float64 // 絶対下限価格
}

// CacheConfig はキャッシュバックエンドと有効期限の設定です。
// バックエンドは Upstash、Redis、SQL の順に採用します。
type CacheConfig struct {
	RedisURL     string
	UpstashURL   string
	UpstashToken string
	DatabaseURL  string
	TTL          time.Duration
	StaleTTL     time.Duration
	ServeStale   bool
	RetryAfter   time.Duration
}

// RelVolConfig は相対出来高の設定です。
type RelVolConfig struct {
	Method                string
	Interval              string
	HistoryDays           int
	BaselineDays          int
	KBars                 int
	IncludeToday          bool
	ExcludeLastKFromToday bool
	ReuseIntraday         bool
}

// YahooConfig はマーケットデータプロバイダーの設定です。
type YahooConfig struct {
	BaseURL        string
	Timeout        time.Duration
	MaxConcurrency int
	RateLimitRPS   float64
	UserAgent      string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("REDIS_URL", "")
	v.SetDefault("UPSTASH_REDIS_REST_URL", "")
	v.SetDefault("UPSTASH_REDIS_REST_TOKEN", "")
	v.SetDefault("CACHE_DATABASE_URL", "")
	v.SetDefault("CACHE_TTL_SECONDS", 300)
	v.SetDefault("CACHE_STALE_TTL_SECONDS", 3600)
	v.SetDefault("SERVE_STALE_WHILE_REVALIDATE", false)
	v.SetDefault("STALE_RETRY_AFTER_MS", 2000)

	v.SetDefault("MIN_PRICE_FLOOR", 1.5)

	v.SetDefault("RVOL_METHOD", "recent_k_1m")
	v.SetDefault("RVOL_INTERVAL", "1m")
	v.SetDefault("RVOL_HISTORY_DAYS", 5)
	v.SetDefault("RVOL_BASELINE_DAYS", 4)
	v.SetDefault("RVOL_K_BARS", 5)
	v.SetDefault("RVOL_INCLUDE_TODAY", true)
	v.SetDefault("RVOL_EXCLUDE_LAST_K_FROM_TODAY", true)
	v.SetDefault("RVOL_REUSE_INTRADAY", true)

	v.SetDefault("YAHOO_BASE_URL", "https://query1.finance.yahoo.com")
	v.SetDefault("YAHOO_TIMEOUT_SECONDS", 15)
	v.SetDefault("YAHOO_MAX_CONCURRENCY", 8)
	v.SetDefault("YAHOO_RATE_LIMIT_RPS", 10)
	v.SetDefault("YAHOO_USER_AGENT", "")
}

// Load は環境変数から Config を組み立てます。
func Load() (Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)
	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(v.GetString("LOG_LEVEL")))); err != nil {
		return Config{}, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	cfg := Config{
		Port:     strings.TrimSpace(v.GetString("PORT")),
		LogLevel: level,
		Cache: CacheConfig{
			RedisURL:     strings.TrimSpace(v.GetString("REDIS_URL")),
			UpstashURL:   strings.TrimSpace(v.GetString("UPSTASH_REDIS_REST_URL")),
			UpstashToken: strings.TrimSpace(v.GetString("UPSTASH_REDIS_REST_TOKEN")),
			DatabaseURL:  strings.TrimSpace(v.GetString("CACHE_DATABASE_URL")),
			TTL:          time.Duration(v.GetInt("CACHE_TTL_SECONDS")) * time.Second,
			StaleTTL:     time.Duration(v.GetInt("CACHE_STALE_TTL_SECONDS")) * time.Second,
			ServeStale:   v.GetBool("SERVE_STALE_WHILE_REVALIDATE"),
			RetryAfter:   time.Duration(v.GetInt("STALE_RETRY_AFTER_MS")) * time.Millisecond,
		},
		RelVol: RelVolConfig{
			Method:                strings.ToLower(strings.TrimSpace(v.GetString("RVOL_METHOD"))),
			Interval:              strings.TrimSpace(v.GetString("RVOL_INTERVAL")),
			HistoryDays:           v.GetInt("RVOL_HISTORY_DAYS"),
			BaselineDays:          v.GetInt("RVOL_BASELINE_DAYS"),
			KBars:                 v.GetInt("RVOL_K_BARS"),
			IncludeToday:          v.GetBool("RVOL_INCLUDE_TODAY"),
			ExcludeLastKFromToday: v.GetBool("RVOL_EXCLUDE_LAST_K_FROM_TODAY"),
			ReuseIntraday:         v.GetBool("RVOL_REUSE_INTRADAY"),
		},
		Yahoo: YahooConfig{
			BaseURL:        strings.TrimRight(strings.TrimSpace(v.GetString("YAHOO_BASE_URL")), "/"),
			Timeout:        time.Duration(v.GetInt("YAHOO_TIMEOUT_SECONDS")) * time.Second,
			MaxConcurrency: v.GetInt("YAHOO_MAX_CONCURRENCY"),
			RateLimitRPS:   v.GetFloat64("YAHOO_RATE_LIMIT_RPS"),
			UserAgent:      v.GetString("YAHOO_USER_AGENT"),
		},
		MinPrice: v.GetFloat64("MIN_PRICE_FLOOR"),
	}

	switch {
	case cfg.Port == "":
		return Config{}, fmt.Errorf("PORT must not be empty")
	case cfg.Cache.TTL <= 0:
		return Config{}, fmt.Errorf("CACHE_TTL_SECONDS must be positive")
	case cfg.RelVol.HistoryDays < 1 || cfg.RelVol.BaselineDays < 1 || cfg.RelVol.KBars < 1:
		return Config{}, fmt.Errorf("RVOL_HISTORY_DAYS, RVOL_BASELINE_DAYS and RVOL_K_BARS must be positive")
	case cfg.MinPrice < 0:
		return Config{}, fmt.Errorf("MIN_PRICE_FLOOR must not be negative")
	}
	return cfg, nil
}

// UseUpstash は Upstash REST の URL とトークンが揃っているかを返します。
func (c CacheConfig) UseUpstash() bool {
	return c.UpstashURL != "" && c.UpstashToken != ""
}
