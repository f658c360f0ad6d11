package usecase

import (
	"context"
	"log/slog"

	mdentity "scanner_backend/internal/feature/marketdata/domain/entity"
	mdusecase "scanner_backend/internal/feature/marketdata/usecase"
	"scanner_backend/internal/feature/scanner/analytics"
	"scanner_backend/internal/feature/scanner/domain/entity"
	"scanner_backend/internal/platform/cache"
)

// ScannerUsecase はユニバース、特徴量、各スキャナー結果をそれぞれ独立にキャッシュしながらスキャンを実行します。
type ScannerUsecase struct {
	universe *UniverseBuilder
	fetcher  *mdusecase.BarFetcher
	engine   *analytics.FeatureEngine
	memo     *cache.Memo
	floor    float64
}

// NewScannerUsecase は ScannerUsecase を生成します。memo は nil でも構いません。
func NewScannerUsecase(
	screeners ScreenerSource,
	fetcher *mdusecase.BarFetcher,
	engine *analytics.FeatureEngine,
	memo *cache.Memo,
	floor float64,
) *ScannerUsecase {
	return &ScannerUsecase{
		universe: NewUniverseBuilder(screeners, floor),
		fetcher:  fetcher,
		engine:   engine,
		memo:     memo,
		floor:    floor,
	}
}

// Universe はフィルター済みのユニバースを返します。
func (u *ScannerUsecase) Universe(ctx context.Context, r UniverseRequest) ([]mdentity.Quote, error) {
	p := r.universeParams(u.floor)
	quotes, _, err := cache.Do(ctx, u.memo, universeKey(p, u.floor), func(ctx context.Context) ([]mdentity.Quote, error) {
		return u.universe.Build(ctx, p)
	})
	return quotes, err
}

// Features はユニバースの各銘柄について特徴量を計算します。バーの無い銘柄は結果に含めません。
func (u *ScannerUsecase) Features(ctx context.Context, r UniverseRequest) ([]analytics.FeatureRecord, error) {
	key := withFeatureParams(cache.NewKey("scan", "features"), r, u.floor, u.engine.RelVolConfig()).String()
	records, _, err := cache.Do(ctx, u.memo, key, func(ctx context.Context) ([]analytics.FeatureRecord, error) {
		return u.computeFeatures(ctx, r)
	})
	return records, err
}

func (u *ScannerUsecase) computeFeatures(ctx context.Context, r UniverseRequest) ([]analytics.FeatureRecord, error) {
	quotes, err := u.Universe(ctx, r)
	if err != nil {
		return nil, err
	}
	out := []analytics.FeatureRecord{}
	if len(quotes) == 0 {
		return out, nil
	}

	tickers := make([]string, 0, len(quotes))
	for _, q := range quotes {
		tickers = append(tickers, q.Ticker)
	}

	primary, err := u.fetcher.Fetch(ctx, tickers, r.Interval, r.Period, r.Prepost)
	if err != nil {
		return nil, err
	}

	rvSeries := primary
	if !u.engine.CanReusePrimary(r.Interval, r.Period) {
		cfg := u.engine.RelVolConfig()
		rvSeries, err = u.fetcher.Fetch(ctx, tickers, cfg.Interval, u.engine.RelVolFetchPeriod(), false)
		if err != nil {
			return nil, err
		}
	}

	for _, q := range quotes {
		rec, ok := u.engine.Build(q, primary[q.Ticker], rvSeries[q.Ticker], r.CloseSlopeN)
		if !ok {
			slog.Debug("ticker dropped: no bars", "ticker", q.Ticker)
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// runScan はスキャナー結果のキャッシュ層を通して scan を実行します。
func runScan[R any](
	ctx context.Context,
	u *ScannerUsecase,
	r UniverseRequest,
	name, sortedBy string,
	key *cache.KeyBuilder,
	scan func([]analytics.FeatureRecord) []R,
) (entity.ScanResult[R], cache.Info, error) {
	if err := r.Validate(); err != nil {
		return entity.ScanResult[R]{}, cache.Info{}, err
	}
	k := withFeatureParams(key, r, u.floor, u.engine.RelVolConfig()).Int("limit", int64(r.Limit)).String()
	return cache.Do(ctx, u.memo, k, func(ctx context.Context) (entity.ScanResult[R], error) {
		records, err := u.Features(ctx, r)
		if err != nil {
			return entity.ScanResult[R]{}, err
		}
		return entity.ScanResult[R]{Scanner: name, SortedBy: sortedBy, Results: scan(records)}, nil
	})
}

func (u *ScannerUsecase) band(minPrice, maxPrice float64) PriceBand {
	lo, hi := EffectivePriceBounds(minPrice, maxPrice, u.floor)
	return PriceBand{Min: lo, Max: hi}
}

// DayGainers は day_gainers スキャナーを実行します。
func (u *ScannerUsecase) DayGainers(ctx context.Context, r DayGainersRequest) (entity.ScanResult[entity.DayGainerRow], cache.Info, error) {
	p := DayGainersPolicy{
		Band:           u.band(r.MinPrice, r.MaxPrice),
		MinTodayVolume: r.MinTodayVolume,
		MinChangePct:   r.MinChangePct,
		Limit:          r.Limit,
	}
	key := cache.NewKey("scan", entity.ScannerDayGainers).Int("minTodayVol", r.MinTodayVolume)
	return runScan(ctx, u, r.UniverseRequest, entity.ScannerDayGainers, SortDayGainers, key,
		func(recs []analytics.FeatureRecord) []entity.DayGainerRow { return ScanDayGainers(recs, p) })
}

func (u *ScannerUsecase) momentumPolicy(r MomentumRequest) MomentumPolicy {
	return MomentumPolicy{
		Band:             u.band(r.MinPrice, r.MaxPrice),
		MinTodayVolume:   r.MinTodayVolume,
		MinRelVol:        r.MinRelVol,
		MaxDistToHOD:     r.MaxDistToHOD,
		RequireHodBreak:  r.RequireHodBreak,
		RequireVwapBreak: r.RequireVwapBreak,
		Limit:            r.Limit,
	}
}

func momentumKey(name string, r MomentumRequest) *cache.KeyBuilder {
	return cache.NewKey("scan", name).
		Int("minTodayVol", r.MinTodayVolume).
		Float("minRelVol", r.MinRelVol).
		Float("maxDistToHod", r.MaxDistToHOD).
		Bool("reqHod", r.RequireHodBreak).
		Bool("reqVwap", r.RequireVwapBreak)
}

// HodVwapMomentum は hod_vwap_momentum スキャナーを実行します。
func (u *ScannerUsecase) HodVwapMomentum(ctx context.Context, r MomentumRequest) (entity.ScanResult[entity.MomentumRow], cache.Info, error) {
	p := u.momentumPolicy(r)
	return runScan(ctx, u, r.UniverseRequest, entity.ScannerHodVwapMomentum, SortMomentum,
		momentumKey(entity.ScannerHodVwapMomentum, r),
		func(recs []analytics.FeatureRecord) []entity.MomentumRow { return ScanMomentum(recs, p) })
}

// HodBreakouts は hod_breakouts スキャナーを実行します。
func (u *ScannerUsecase) HodBreakouts(ctx context.Context, r MomentumRequest) (entity.ScanResult[entity.MomentumRow], cache.Info, error) {
	r.RequireHodBreak, r.RequireVwapBreak = true, false
	p := u.momentumPolicy(r)
	return runScan(ctx, u, r.UniverseRequest, entity.ScannerHodBreakouts, SortBreakouts,
		momentumKey(entity.ScannerHodBreakouts, r),
		func(recs []analytics.FeatureRecord) []entity.MomentumRow { return ScanHodBreakouts(recs, p) })
}

// VwapBreakouts は vwap_breakouts スキャナーを実行します。
func (u *ScannerUsecase) VwapBreakouts(ctx context.Context, r MomentumRequest) (entity.ScanResult[entity.MomentumRow], cache.Info, error) {
	r.MaxDistToHOD, r.RequireHodBreak, r.RequireVwapBreak = 0, false, true
	p := u.momentumPolicy(r)
	return runScan(ctx, u, r.UniverseRequest, entity.ScannerVwapBreakouts, SortBreakouts,
		momentumKey(entity.ScannerVwapBreakouts, r),
		func(recs []analytics.FeatureRecord) []entity.MomentumRow { return ScanVwapBreakouts(recs, p) })
}

// VolumeSpikes は volume_spikes スキャナーを実行します。
func (u *ScannerUsecase) VolumeSpikes(ctx context.Context, r VolumeSpikesRequest) (entity.ScanResult[entity.MomentumRow], cache.Info, error) {
	p := VolumeSpikesPolicy{
		Band:           u.band(r.MinPrice, r.MaxPrice),
		MinTodayVolume: r.MinTodayVolume,
		MinRelVol:      r.MinRelVol,
		MinChangePct:   r.MinChangePct,
		Limit:          r.Limit,
	}
	key := cache.NewKey("scan", entity.ScannerVolumeSpikes).
		Int("minTodayVol", r.MinTodayVolume).
		Float("minRelVol", r.MinRelVol)
	return runScan(ctx, u, r.UniverseRequest, entity.ScannerVolumeSpikes, SortVolumeSpikes, key,
		func(recs []analytics.FeatureRecord) []entity.MomentumRow { return ScanVolumeSpikes(recs, p) })
}

func (u *ScannerUsecase) approachPolicy(r ApproachRequest) ApproachPolicy {
	return ApproachPolicy{
		SetupBand:          u.band(r.MinSetupPrice, r.MaxSetupPrice),
		MinTodayVolume:     r.MinTodayVolume,
		MinRangePct:        r.MinRangePct,
		MinPosInRange:      r.MinPosInRange,
		MaxPosInRange:      r.MaxPosInRange,
		MaxAbsVwapDistance: r.MaxAbsVwapDistance,
		MaxDistToHOD:       r.MaxDistToHOD,
		MinRelVol:          r.MinRelVol,
		AdaptiveThresholds: r.AdaptiveThresholds,
		Limit:              r.Limit,
	}
}

func approachKey(name string, r ApproachRequest) *cache.KeyBuilder {
	return cache.NewKey("scan", name).
		Float("minSetup", r.MinSetupPrice).
		Float("maxSetup", r.MaxSetupPrice).
		Int("minTodayVol", r.MinTodayVolume).
		Float("minRange", r.MinRangePct).
		Float("minPos", r.MinPosInRange).
		Float("maxPos", r.MaxPosInRange).
		Float("maxVwapDist", r.MaxAbsVwapDistance).
		Float("maxDistToHod", r.MaxDistToHOD).
		Float("minRelVol", r.MinRelVol).
		Bool("adaptive", r.AdaptiveThresholds)
}

// HodVwapApproach は hod_vwap_approach スキャナーを実行します。
func (u *ScannerUsecase) HodVwapApproach(ctx context.Context, r ApproachRequest) (entity.ScanResult[entity.ApproachRow], cache.Info, error) {
	p := u.approachPolicy(r)
	return runScan(ctx, u, r.UniverseRequest, entity.ScannerHodVwapApproach, SortApproach,
		approachKey(entity.ScannerHodVwapApproach, r),
		func(recs []analytics.FeatureRecord) []entity.ApproachRow { return ScanApproach(recs, p) })
}

// HodApproach は hod_approach スキャナーを実行します。
func (u *ScannerUsecase) HodApproach(ctx context.Context, r ApproachRequest) (entity.ScanResult[entity.ApproachRow], cache.Info, error) {
	r.MaxAbsVwapDistance = 0
	p := u.approachPolicy(r)
	return runScan(ctx, u, r.UniverseRequest, entity.ScannerHodApproach, SortHodApproach,
		approachKey(entity.ScannerHodApproach, r),
		func(recs []analytics.FeatureRecord) []entity.ApproachRow { return ScanHodApproach(recs, p) })
}

// VwapApproach は vwap_approach スキャナーを実行します。
func (u *ScannerUsecase) VwapApproach(ctx context.Context, r ApproachRequest) (entity.ScanResult[entity.ApproachRow], cache.Info, error) {
	r.MaxDistToHOD = 0
	p := u.approachPolicy(r)
	return runScan(ctx, u, r.UniverseRequest, entity.ScannerVwapApproach, SortVwapApproach,
		approachKey(entity.ScannerVwapApproach, r),
		func(recs []analytics.FeatureRecord) []entity.ApproachRow { return ScanVwapApproach(recs, p) })
}
