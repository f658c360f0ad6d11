// Package usecase はレガシースクリーナー（gappers / momentum / custom）を実装します。
package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/guregu/null/v6"

	"scanner_backend/internal/feature/marketdata/domain"
	mdentity "scanner_backend/internal/feature/marketdata/domain/entity"
	mdusecase "scanner_backend/internal/feature/marketdata/usecase"
	"scanner_backend/internal/feature/screener/domain/entity"
	"scanner_backend/internal/platform/cache"
)

const (
	defaultLimit   = 100
	customRegion   = "us"
	defaultSession = "regular"
)

// ScreenerSource はスクリーナー結果の取得元です。
type ScreenerSource interface {
	FetchScreener(ctx context.Context, q mdentity.ScreenerQuery) ([]mdentity.RawQuote, error)
}

// Query はスクリーナーの条件です。
type Query struct {
	Type      string
	Limit     int
	MinPrice  float64
	MinAvgVol int64
	Session   string
}

// ScreenerUsecase はスクリーナー種別をプロバイダーの検索に対応付け、候補銘柄を返します。
type ScreenerUsecase struct {
	source ScreenerSource
	memo   *cache.Memo
}

// NewScreenerUsecase は ScreenerUsecase を生成します。memo は nil でも構いません。
func NewScreenerUsecase(source ScreenerSource, memo *cache.Memo) *ScreenerUsecase {
	return &ScreenerUsecase{source: source, memo: memo}
}

// Screen は候補銘柄を最大 Limit 件返します。未対応の種別は ErrInvalidRequest です。
func (u *ScreenerUsecase) Screen(ctx context.Context, q Query) ([]entity.Candidate, cache.Info, error) {
	q.Type = strings.ToLower(strings.TrimSpace(q.Type))
	if q.Type == "" {
		q.Type = entity.TypeGappers
	}
	if q.Limit <= 0 {
		q.Limit = defaultLimit
	}
	if q.Session == "" {
		q.Session = defaultSession
	}

	sq, err := toScreenerQuery(q)
	if err != nil {
		return nil, cache.Info{}, err
	}

	key := cache.NewKey("md", "screener", q.Type, q.Session).
		Int("limit", int64(q.Limit)).
		Float("minPrice", q.MinPrice).
		Int("minAvgVol", q.MinAvgVol).
		String()
	return cache.Do(ctx, u.memo, key, func(ctx context.Context) ([]entity.Candidate, error) {
		raws, err := u.source.FetchScreener(ctx, sq)
		if err != nil {
			return nil, fmt.Errorf("%w: screener %s: %v", domain.ErrProvider, q.Type, err)
		}
		out := make([]entity.Candidate, 0, min(len(raws), q.Limit))
		for _, raw := range raws {
			c, ok := toCandidate(raw)
			if !ok {
				continue
			}
			out = append(out, c)
			if len(out) >= q.Limit {
				break
			}
		}
		return out, nil
	})
}

func toScreenerQuery(q Query) (mdentity.ScreenerQuery, error) {
	switch q.Type {
	case entity.TypeGappers:
		return mdentity.ScreenerQuery{ID: mdentity.ScreenerDayGainers, Count: q.Limit}, nil
	case entity.TypeMomentum:
		return mdentity.ScreenerQuery{ID: mdentity.ScreenerMostActives, Count: q.Limit}, nil
	case entity.TypeCustom:
		return mdentity.ScreenerQuery{
			Count:     q.Limit,
			MinPrice:  q.MinPrice,
			MinVolume: q.MinAvgVol,
			Region:    customRegion,
		}, nil
	default:
		return mdentity.ScreenerQuery{}, fmt.Errorf("%w: unsupported screener type %q", domain.ErrInvalidRequest, q.Type)
	}
}

// toCandidate は生クォートを候補に変換します。
// ギャップ率は始値と前日終値から求め、計算できない場合は騰落率で代用します。
func toCandidate(raw mdentity.RawQuote) (entity.Candidate, bool) {
	q, ok := mdusecase.NormalizeQuote(raw)
	if !ok {
		return entity.Candidate{}, false
	}
	c := entity.Candidate{
		Ticker:    q.Ticker,
		Last:      q.Last,
		Open:      q.Open,
		PrevClose: q.PrevClose,
		Volume:    q.Volume,
	}
	if q.Open.Valid && q.PrevClose.Valid && q.PrevClose.Float64 != 0 {
		c.GapPct = null.FloatFrom((q.Open.Float64 - q.PrevClose.Float64) / q.PrevClose.Float64)
	} else {
		c.GapPct = q.ChangePct
	}
	return c, true
}
