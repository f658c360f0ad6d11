package usecase

import (
	"fmt"

	"scanner_backend/internal/feature/marketdata/domain"
	mdusecase "scanner_backend/internal/feature/marketdata/usecase"
	"scanner_backend/internal/feature/scanner/analytics"
	"scanner_backend/internal/platform/cache"
)

// UniverseRequest は全スキャナー共通のユニバース・バー取得条件です。
// MinChangePct はパーセントポイントです。
type UniverseRequest struct {
	UniverseLimit int
	Limit         int
	MinPrice      float64
	MaxPrice      float64
	MinAvgVol     float64
	MinChangePct  float64
	Interval      string
	Period        string
	Prepost       bool
	CloseSlopeN   int
}

// Validate はプロバイダー呼び出し前にリクエストを検証します。
func (r UniverseRequest) Validate() error {
	if err := mdusecase.ValidateIntraday(r.Interval, r.Period); err != nil {
		return err
	}
	switch {
	case r.UniverseLimit < 1 || r.UniverseLimit > 500:
		return fmt.Errorf("%w: universeLimit must be within 1..500", domain.ErrInvalidRequest)
	case r.Limit < 1 || r.Limit > 200:
		return fmt.Errorf("%w: limit must be within 1..200", domain.ErrInvalidRequest)
	case r.CloseSlopeN < 2 || r.CloseSlopeN > 30:
		return fmt.Errorf("%w: closeSlopeN must be within 2..30", domain.ErrInvalidRequest)
	}
	return nil
}

// universeParams は下限価格を適用したユニバース条件を返します。
func (r UniverseRequest) universeParams(floor float64) UniverseParams {
	minP, maxP := EffectivePriceBounds(r.MinPrice, r.MaxPrice, floor)
	return UniverseParams{
		Limit:        r.UniverseLimit,
		MinPrice:     minP,
		MaxPrice:     maxP,
		MinAvgVol:    r.MinAvgVol,
		MinChangePct: r.MinChangePct,
	}
}

// DayGainersRequest は day_gainers の条件です。
type DayGainersRequest struct {
	UniverseRequest
	MinTodayVolume int64
}

// MomentumRequest は hod_vwap_momentum / hod_breakouts / vwap_breakouts の条件です。
// MaxDistToHOD はパーセントポイントです。
type MomentumRequest struct {
	UniverseRequest
	MinTodayVolume   int64
	MinRelVol        float64
	MaxDistToHOD     float64
	RequireHodBreak  bool
	RequireVwapBreak bool
}

// VolumeSpikesRequest は volume_spikes の条件です。
type VolumeSpikesRequest struct {
	UniverseRequest
	MinTodayVolume int64
	MinRelVol      float64
}

// ApproachRequest は接近系スキャナーの条件です。
type ApproachRequest struct {
	UniverseRequest
	MinSetupPrice      float64
	MaxSetupPrice      float64
	MinTodayVolume     int64
	MinRangePct        float64
	MinPosInRange      float64
	MaxPosInRange      float64
	MaxAbsVwapDistance float64
	MaxDistToHOD       float64
	MinRelVol          float64
	AdaptiveThresholds bool
}

// --- cache keys ---

func universeKey(p UniverseParams, floor float64) string {
	return cache.NewKey("scan", "universe").
		Int("limit", int64(p.Limit)).
		Float("minPrice", p.MinPrice).
		Float("maxPrice", p.MaxPrice).
		Float("minAvgVol", p.MinAvgVol).
		Float("minChangePct", p.MinChangePct).
		Float("floor", floor).
		String()
}

// withFeatureParams は特徴量の値を左右するすべての条件をキーに追加します。
func withFeatureParams(b *cache.KeyBuilder, r UniverseRequest, floor float64, rv analytics.RelVolConfig) *cache.KeyBuilder {
	p := r.universeParams(floor)
	return b.
		Int("ul", int64(p.Limit)).
		Float("minPrice", p.MinPrice).
		Float("maxPrice", p.MaxPrice).
		Float("minAvgVol", p.MinAvgVol).
		Float("minChangePct", p.MinChangePct).
		Float("floor", floor).
		Str("interval", r.Interval).
		Str("period", r.Period).
		Bool("prepost", r.Prepost).
		Int("slopeN", int64(r.CloseSlopeN)).
		Str("rv", string(rv.Method)).
		Str("rvInterval", rv.Interval).
		Int("rvHist", int64(rv.HistoryDays)).
		Int("rvBase", int64(rv.BaselineDays)).
		Int("rvK", int64(rv.KBars)).
		Bool("rvToday", rv.IncludeToday).
		Bool("rvExclK", rv.ExcludeLastKFromToday).
		Bool("rvReuse", rv.ReuseIntraday)
}
