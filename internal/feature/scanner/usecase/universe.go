// Package usecase はユニバース構築から特徴量計算、各スキャナーの抽出・並び替えまでを実装します。
package usecase

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"
	"unicode"

	"scanner_backend/internal/feature/marketdata/domain"
	"scanner_backend/internal/feature/marketdata/domain/entity"
	mdusecase "scanner_backend/internal/feature/marketdata/usecase"
)

// ScreenerSource はスクリーナー結果の取得元です。
type ScreenerSource interface {
	FetchScreener(ctx context.Context, q entity.ScreenerQuery) ([]entity.RawQuote, error)
}

// UniverseLists はユニバース構築で問い合わせるスクリーナーです。
// 同じ銘柄が複数のリストに含まれる場合は、この順序で後に来たリストの値で上書きします。
var UniverseLists = []string{
	entity.ScreenerDayGainers,
	entity.ScreenerMostActives,
	entity.ScreenerSmallCapGainers,
}

var (
	majorExchangeCodes = []string{"NYQ", "NYS", "NMS", "NGM", "NCM", "NAS", "ASE", "AMX"}
	majorExchangeNames = []string{"NYSE", "NASDAQ", "AMEX"}
	excludedNameTokens = []string{"ETF", "TRUST", "FUND", "INDEX"}
)

// UniverseParams はユニバースのフィルター条件です。価格帯は下限価格を適用済みの値です。
type UniverseParams struct {
	Limit        int
	MinPrice     float64
	MaxPrice     float64
	MinAvgVol    float64
	MinChangePct float64 // パーセントポイント
}

// EffectivePriceBounds はリクエストの価格帯に絶対下限 floor を適用します。
// 下限・上限とも floor を下回ることはありません。
func EffectivePriceBounds(minPrice, maxPrice, floor float64) (float64, float64) {
	return math.Max(minPrice, floor), math.Max(maxPrice, floor)
}

// UniverseBuilder は複数のスクリーナー結果を統合し、フィルター・並び替えした候補銘柄を返します。
type UniverseBuilder struct {
	source ScreenerSource
	lists  []string
	floor  float64
}

// NewUniverseBuilder は UniverseBuilder を生成します。floor は絶対下限価格です。
func NewUniverseBuilder(source ScreenerSource, floor float64) *UniverseBuilder {
	return &UniverseBuilder{source: source, lists: UniverseLists, floor: floor}
}

// ScreenerCount はリストごとに要求する件数です。limit の4倍を [50, 250] に収めます。
func ScreenerCount(limit int) int {
	return min(max(limit*4, 50), 250)
}

// Build は各スクリーナーを順に問い合わせて統合します。
// 一部のリストの失敗は許容し、すべてのリストが失敗または有効なクォートを返さなかった場合のみ
// ErrProvider でリストごとの原因をまとめて返します。
func (b *UniverseBuilder) Build(ctx context.Context, p UniverseParams) ([]entity.Quote, error) {
	count := ScreenerCount(p.Limit)

	merged := make(map[string]entity.Quote)
	var order []string
	var causes []string
	for _, id := range b.lists {
		raws, err := b.source.FetchScreener(ctx, entity.ScreenerQuery{ID: id, Count: count})
		if err != nil {
			slog.Warn("screener list failed", "list", id, "error", err)
			causes = append(causes, fmt.Sprintf("%s: %v", id, err))
			continue
		}
		quotes := mdusecase.NormalizeQuotes(raws)
		if len(quotes) == 0 {
			causes = append(causes, id+": no usable quotes")
			continue
		}
		for _, q := range quotes {
			q.Ticker = strings.ToUpper(q.Ticker)
			if _, seen := merged[q.Ticker]; !seen {
				order = append(order, q.Ticker)
			}
			merged[q.Ticker] = q
		}
	}
	if len(merged) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrProvider, strings.Join(causes, "; "))
	}

	all := make([]entity.Quote, 0, len(order))
	for _, t := range order {
		all = append(all, merged[t])
	}
	return FilterUniverse(all, p, b.floor), nil
}

// FilterUniverse はユニバースの条件で絞り込み、騰落率・出来高・流動性の降順に並べて Limit 件に切り詰めます。
// 入力は変更せず、同じ条件で再適用しても結果は変わりません。
func FilterUniverse(quotes []entity.Quote, p UniverseParams, floor float64) []entity.Quote {
	minPrice, maxPrice := EffectivePriceBounds(p.MinPrice, p.MaxPrice, floor)
	minChange := p.MinChangePct / 100

	out := make([]entity.Quote, 0, len(quotes))
	for _, q := range quotes {
		if !isEquity(q) || !isMajorExchange(q) || isFundLike(q) {
			continue
		}
		if !q.Last.Valid {
			continue
		}
		price := q.Last.Float64
		if price <= floor || price < minPrice || price > maxPrice {
			continue
		}
		if liq := q.LiquidityRef(); !liq.Valid || liq.Float64 < p.MinAvgVol {
			continue
		}
		if !q.ChangePct.Valid || q.ChangePct.Float64 < minChange {
			continue
		}
		out = append(out, q)
	}

	slices.SortStableFunc(out, func(a, b entity.Quote) int {
		if c := cmp.Compare(floatOr(b.ChangePct.Float64, b.ChangePct.Valid), floatOr(a.ChangePct.Float64, a.ChangePct.Valid)); c != 0 {
			return c
		}
		if c := cmp.Compare(intOr(b.Volume.Int64, b.Volume.Valid), intOr(a.Volume.Int64, a.Volume.Valid)); c != 0 {
			return c
		}
		la, lb := a.LiquidityRef(), b.LiquidityRef()
		if c := cmp.Compare(floatOr(lb.Float64, lb.Valid), floatOr(la.Float64, la.Valid)); c != 0 {
			return c
		}
		return cmp.Compare(a.Ticker, b.Ticker)
	})

	if p.Limit > 0 && len(out) > p.Limit {
		out = out[:p.Limit]
	}
	return out
}

func isEquity(q entity.Quote) bool {
	return q.QuoteType == "" || strings.EqualFold(q.QuoteType, "EQUITY")
}

func isMajorExchange(q entity.Quote) bool {
	if slices.Contains(majorExchangeCodes, strings.ToUpper(q.Exchange)) {
		return true
	}
	name := strings.ToUpper(q.ExchangeName)
	for _, n := range majorExchangeNames {
		if strings.Contains(name, n) {
			return true
		}
	}
	return false
}

// isFundLike は銘柄名に ETF / TRUST / FUND / INDEX の単語を含むかを判定します。
func isFundLike(q entity.Quote) bool {
	if !q.ShortName.Valid {
		return false
	}
	tokens := strings.FieldsFunc(strings.ToUpper(q.ShortName.String), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, t := range tokens {
		if slices.Contains(excludedNameTokens, t) {
			return true
		}
	}
	return false
}

// floatOr は欠損値を最小値として扱います。
func floatOr(v float64, valid bool) float64 {
	if !valid {
		return math.Inf(-1)
	}
	return v
}

func intOr(v int64, valid bool) int64 {
	if !valid {
		return math.MinInt64
	}
	return v
}
