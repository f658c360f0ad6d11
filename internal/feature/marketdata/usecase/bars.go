package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"scanner_backend/internal/feature/marketdata/domain"
	"scanner_backend/internal/feature/marketdata/domain/entity"
)

// BarSource は日中バーの取得元です。
type BarSource interface {
	FetchBars(ctx context.Context, tickers []string, interval, period string, prepost bool) (map[string]entity.BarSeries, error)
}

// BarFetcher はティッカーを BatchSize 件ずつに分け、バッチ単位で順番にバーを取得します。
// 1バッチでも失敗した場合は呼び出し全体を ErrProvider で失敗させます。
type BarFetcher struct {
	source    BarSource
	batchSize int
}

// NewBarFetcher は BarFetcher を生成します。
func NewBarFetcher(source BarSource) *BarFetcher {
	return &BarFetcher{source: source, batchSize: BatchSize}
}

// Fetch は ticker -> バー列 を返します。データの無い銘柄はマップに含めません。
// interval / period の検証は呼び出し側で行います。
func (f *BarFetcher) Fetch(ctx context.Context, tickers []string, interval, period string, prepost bool) (map[string]entity.BarSeries, error) {
	tickers = NormalizeTickers(tickers)
	out := make(map[string]entity.BarSeries, len(tickers))
	if len(tickers) == 0 {
		return out, nil
	}

	batches := Chunk(tickers, f.batchSize)
	for i, batch := range batches {
		got, err := f.source.FetchBars(ctx, batch, interval, period, prepost)
		if err != nil {
			slog.Error("bar batch failed", "batch", i+1, "batches", len(batches), "interval", interval, "period", period, "error", err)
			return nil, fmt.Errorf("%w: bars batch %d/%d: %v", domain.ErrProvider, i+1, len(batches), err)
		}
		for ticker, series := range got {
			if clean := sanitize(series); len(clean) > 0 {
				out[ticker] = clean
			}
		}
	}
	return out, nil
}

// sanitize は High < Low のバーを除き、負の出来高を 0 にして時刻昇順に並べます。
func sanitize(series entity.BarSeries) entity.BarSeries {
	out := make(entity.BarSeries, 0, len(series))
	for _, b := range series {
		if b.High < b.Low {
			continue
		}
		if b.Volume < 0 {
			b.Volume = 0
		}
		out = append(out, b)
	}
	slices.SortStableFunc(out, func(a, b entity.Bar) int { return a.Time.Compare(b.Time) })
	return out
}

// NormalizeTickers は前後空白を除いて大文字化し、空要素と重複を取り除きます。順序は維持します。
func NormalizeTickers(tickers []string) []string {
	seen := make(map[string]struct{}, len(tickers))
	out := make([]string, 0, len(tickers))
	for _, t := range tickers {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
