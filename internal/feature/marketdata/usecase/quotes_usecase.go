package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/guregu/null/v6"

	"scanner_backend/internal/feature/marketdata/domain"
	"scanner_backend/internal/feature/marketdata/domain/entity"
	"scanner_backend/internal/platform/cache"
)

// QuoteSource は生クォートの取得元です。
type QuoteSource interface {
	FetchQuotes(ctx context.Context, tickers []string) ([]entity.RawQuote, error)
}

// QuotesQuery は複数銘柄の直近価格の取得条件です。
type QuotesQuery struct {
	Tickers  []string
	Interval string
	Period   string
	Prepost  bool
}

// QuotePrice は1銘柄の直近価格です。価格が得られない場合 Price は null です。
type QuotePrice struct {
	Symbol string     `json:"symbol"`
	Price  null.Float `json:"price"`
}

// QuotesUsecase は直近バーの終値を価格として返し、バーの無い銘柄はクォートで補完します。
type QuotesUsecase struct {
	fetcher *BarFetcher
	quotes  QuoteSource
	memo    *cache.Memo
}

// NewQuotesUsecase は QuotesUsecase を生成します。quotes が nil の場合は補完しません。
func NewQuotesUsecase(fetcher *BarFetcher, quotes QuoteSource, memo *cache.Memo) *QuotesUsecase {
	return &QuotesUsecase{fetcher: fetcher, quotes: quotes, memo: memo}
}

// GetQuotes はリクエスト順に銘柄ごとの価格を返します。
func (u *QuotesUsecase) GetQuotes(ctx context.Context, q QuotesQuery) ([]QuotePrice, cache.Info, error) {
	tickers := NormalizeTickers(q.Tickers)
	if len(tickers) == 0 {
		return nil, cache.Info{}, fmt.Errorf("%w: tickers is required", domain.ErrInvalidRequest)
	}
	if err := ValidateIntraday(q.Interval, q.Period); err != nil {
		return nil, cache.Info{}, err
	}

	sorted := slices.Clone(tickers)
	slices.Sort(sorted)
	key := cache.NewKey("md", "quotes").
		Str("tickers", strings.Join(sorted, ",")).
		Str("interval", q.Interval).
		Str("period", q.Period).
		Bool("prepost", q.Prepost).
		String()

	return cache.Do(ctx, u.memo, key, func(ctx context.Context) ([]QuotePrice, error) {
		bars, err := u.fetcher.Fetch(ctx, tickers, q.Interval, q.Period, q.Prepost)
		if err != nil {
			return nil, err
		}

		out := make([]QuotePrice, 0, len(tickers))
		var missing []string
		for _, t := range tickers {
			p := QuotePrice{Symbol: t}
			if last, ok := bars[t].Last(); ok {
				p.Price = null.FloatFrom(last.Close)
			} else {
				missing = append(missing, t)
			}
			out = append(out, p)
		}

		if len(missing) > 0 && u.quotes != nil {
			fallback := u.quotePrices(ctx, missing)
			for i := range out {
				if !out[i].Price.Valid {
					out[i].Price = fallback[out[i].Symbol]
				}
			}
		}
		return out, nil
	})
}

// quotePrices はクォートから最終価格を引きます。失敗しても価格欠損として扱います。
func (u *QuotesUsecase) quotePrices(ctx context.Context, tickers []string) map[string]null.Float {
	out := make(map[string]null.Float, len(tickers))
	raws, err := u.quotes.FetchQuotes(ctx, tickers)
	if err != nil {
		slog.Warn("quote fallback failed", "tickers", len(tickers), "error", err)
		return out
	}
	for _, q := range NormalizeQuotes(raws) {
		if q.Last.Valid {
			out[strings.ToUpper(q.Ticker)] = q.Last
		}
	}
	return out
}
