// Package di provides dependency injection factories for creating application components.
package di

import (
	"scanner_backend/internal/platform/config"
	"scanner_backend/internal/platform/externalapi/yahoo"
	infrahttp "scanner_backend/internal/platform/http"
	"scanner_backend/internal/shared/ratelimiter"
)

// NewMarket creates a Yahoo Finance client with a pooled HTTP client and a request throttle.
func NewMarket(cfg config.YahooConfig) *yahoo.Client {
	httpClient := infrahttp.NewHTTPClient(cfg.Timeout, cfg.MaxConcurrency)
	limiter := ratelimiter.NewRateLimiter("yahoo", cfg.RateLimitRPS, max(cfg.MaxConcurrency, 1))
	return yahoo.NewClient(yahoo.Config{
		BaseURL:        cfg.BaseURL,
		Timeout:        cfg.Timeout,
		MaxConcurrency: cfg.MaxConcurrency,
		RateLimitRPS:   cfg.RateLimitRPS,
		UserAgent:      cfg.UserAgent,
	}, httpClient, limiter)
}
