package di

import (
	"context"
	"fmt"

	mdhandler "scanner_backend/internal/feature/marketdata/transport/handler"
	mdusecase "scanner_backend/internal/feature/marketdata/usecase"
	"scanner_backend/internal/feature/scanner/analytics"
	scanhandler "scanner_backend/internal/feature/scanner/transport/handler"
	scanusecase "scanner_backend/internal/feature/scanner/usecase"
	screenhandler "scanner_backend/internal/feature/screener/transport/handler"
	screenusecase "scanner_backend/internal/feature/screener/usecase"
	"scanner_backend/internal/platform/cache"
	"scanner_backend/internal/platform/config"
)

// App holds the HTTP handlers and the resources the process must release on shutdown.
type App struct {
	MarketData *mdhandler.MarketDataHandler
	Screener   *screenhandler.ScreenerHandler
	Scanner    *scanhandler.ScannerHandler
	Memo       *cache.Memo

	closeCache func()
}

// Close waits for background cache refreshes and closes the cache backend.
func (a *App) Close() {
	a.Memo.Wait()
	a.closeCache()
}

// NewRelVolConfig converts the environment settings into the feature engine's configuration.
func NewRelVolConfig(cfg config.RelVolConfig) (analytics.RelVolConfig, error) {
	method, err := analytics.ParseMethod(cfg.Method)
	if err != nil {
		return analytics.RelVolConfig{}, fmt.Errorf("RVOL_METHOD: %w", err)
	}
	return analytics.RelVolConfig{
		Method:                method,
		Interval:              cfg.Interval,
		HistoryDays:           cfg.HistoryDays,
		BaselineDays:          cfg.BaselineDays,
		KBars:                 cfg.KBars,
		IncludeToday:          cfg.IncludeToday,
		ExcludeLastKFromToday: cfg.ExcludeLastKFromToday,
		ReuseIntraday:         cfg.ReuseIntraday,
	}, nil
}

// NewApp wires the provider, cache, usecases and handlers.
func NewApp(ctx context.Context, cfg config.Config) (*App, error) {
	rv, err := NewRelVolConfig(cfg.RelVol)
	if err != nil {
		return nil, err
	}

	market := NewMarket(cfg.Yahoo)
	store, closeCache := NewCacheStore(ctx, cfg.Cache)
	memo := NewMemo(store, cfg.Cache)

	fetcher := mdusecase.NewBarFetcher(market)
	engine := analytics.NewFeatureEngine(rv)

	historyUC := mdusecase.NewHistoryUsecase(fetcher, memo)
	quotesUC := mdusecase.NewQuotesUsecase(fetcher, market, memo)
	screenerUC := screenusecase.NewScreenerUsecase(market, memo)
	scannerUC := scanusecase.NewScannerUsecase(market, fetcher, engine, memo, cfg.MinPrice)

	return &App{
		MarketData: mdhandler.NewMarketDataHandler(historyUC, quotesUC),
		Screener:   screenhandler.NewScreenerHandler(screenerUC),
		Scanner:    scanhandler.NewScannerHandler(scannerUC),
		Memo:       memo,
		closeCache: closeCache,
	}, nil
}
