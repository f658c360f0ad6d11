package usecase

import (
	"context"
	"fmt"
	"strings"

	"scanner_backend/internal/feature/marketdata/domain"
	"scanner_backend/internal/feature/marketdata/domain/entity"
	"scanner_backend/internal/platform/cache"
)

// HistoryQuery は単一銘柄の日中バー取得条件です。
type HistoryQuery struct {
	Ticker   string
	Interval string
	Period   string
	Prepost  bool
}

// HistoryUsecase は単一銘柄の日中バーを返します。
type HistoryUsecase struct {
	fetcher *BarFetcher
	memo    *cache.Memo
}

// NewHistoryUsecase は HistoryUsecase を生成します。memo は nil でも構いません。
func NewHistoryUsecase(fetcher *BarFetcher, memo *cache.Memo) *HistoryUsecase {
	return &HistoryUsecase{fetcher: fetcher, memo: memo}
}

// GetHistory は検証後にバーを取得します。データが無い銘柄は空のバー列を返します。
func (u *HistoryUsecase) GetHistory(ctx context.Context, q HistoryQuery) (entity.BarSeries, cache.Info, error) {
	ticker := strings.ToUpper(strings.TrimSpace(q.Ticker))
	if ticker == "" {
		return nil, cache.Info{}, fmt.Errorf("%w: ticker is required", domain.ErrInvalidRequest)
	}
	if err := ValidateIntraday(q.Interval, q.Period); err != nil {
		return nil, cache.Info{}, err
	}

	key := cache.NewKey("md", "history").
		Str("ticker", ticker).
		Str("interval", q.Interval).
		Str("period", q.Period).
		Bool("prepost", q.Prepost).
		String()

	return cache.Do(ctx, u.memo, key, func(ctx context.Context) (entity.BarSeries, error) {
		bars, err := u.fetcher.Fetch(ctx, []string{ticker}, q.Interval, q.Period, q.Prepost)
		if err != nil {
			return nil, err
		}
		series := bars[ticker]
		if series == nil {
			series = entity.BarSeries{}
		}
		return series, nil
	})
}
