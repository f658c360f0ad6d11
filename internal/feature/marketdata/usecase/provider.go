package usecase

import (
	"context"

	"scanner_backend/internal/feature/marketdata/domain/entity"
)

// MarketDataProvider は外部マーケットデータ取得元を抽象化します。
// スクリーナー一覧、日中バー、クォートの3操作を提供します。
type MarketDataProvider interface {
	// FetchScreener はスクリーナー結果を生クォートのまま返します。
	FetchScreener(ctx context.Context, q entity.ScreenerQuery) ([]entity.RawQuote, error)
	// FetchBars は ticker -> バー列 を返します。データの無い銘柄はマップに含めません。
	FetchBars(ctx context.Context, tickers []string, interval, period string, prepost bool) (map[string]entity.BarSeries, error)
	// FetchQuotes は指定銘柄の生クォートを返します。
	FetchQuotes(ctx context.Context, tickers []string) ([]entity.RawQuote, error)
}
