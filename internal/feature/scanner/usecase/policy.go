package usecase

import (
	"cmp"
	"math"
	"slices"

	"github.com/guregu/null/v6"

	"scanner_backend/internal/feature/scanner/analytics"
	"scanner_backend/internal/feature/scanner/domain/entity"
)

const (
	hodBreakTolerance = 0.999999
	adaptiveHodCap    = 0.025
	adaptiveVwapCap   = 0.0175
)

// 並び順の説明。レスポンスの sorted_by にそのまま返します。
const (
	SortDayGainers   = "change_pct desc, relative_volume desc, volume desc"
	SortMomentum     = "break_type_priority desc, price_change_pct desc, relative_volume desc"
	SortBreakouts    = "price_change_pct desc, relative_volume desc"
	SortVolumeSpikes = "relative_volume desc, price_change_pct desc"
	SortApproach     = "distance_to_hod asc, abs(vwap_distance) asc, relative_volume desc"
	SortHodApproach  = "distance_to_hod asc, relative_volume desc"
	SortVwapApproach = "abs(vwap_distance) asc, relative_volume desc"
)

// PriceBand は下限価格適用済みの価格帯です。
type PriceBand struct {
	Min, Max float64
}

func (b PriceBand) contains(p float64) bool { return p >= b.Min && p <= b.Max }

// DayGainersPolicy は day_gainers の条件です。MinChangePct はパーセントポイントです。
type DayGainersPolicy struct {
	Band           PriceBand
	MinTodayVolume int64
	MinChangePct   float64
	Limit          int
}

// MomentumPolicy は HOD / VWAP ブレイクの条件です。MaxDistToHOD はパーセントポイントで、0以下なら HOD 判定を無効にします。
type MomentumPolicy struct {
	Band             PriceBand
	MinTodayVolume   int64
	MinRelVol        float64
	MaxDistToHOD     float64
	RequireHodBreak  bool
	RequireVwapBreak bool
	Limit            int
}

// VolumeSpikesPolicy は volume_spikes の条件です。
type VolumeSpikesPolicy struct {
	Band           PriceBand
	MinTodayVolume int64
	MinRelVol      float64
	MinChangePct   float64
	Limit          int
}

// ApproachPolicy は HOD / VWAP 接近の条件です。
// MinRangePct / MaxAbsVwapDistance / MaxDistToHOD はパーセントポイント、PosInRange は比率です。
// 距離の上限が0以下の脚は無効になります。
type ApproachPolicy struct {
	SetupBand          PriceBand
	MinTodayVolume     int64
	MinRangePct        float64
	MinPosInRange      float64
	MaxPosInRange      float64
	MaxAbsVwapDistance float64
	MaxDistToHOD       float64
	MinRelVol          float64
	AdaptiveThresholds bool
	Limit              int
}

// ScanDayGainers は当日の値上がり銘柄を抽出します。
func ScanDayGainers(records []analytics.FeatureRecord, p DayGainersPolicy) []entity.DayGainerRow {
	minChange := p.MinChangePct / 100
	var rows []entity.DayGainerRow
	for _, r := range records {
		if !r.LastPrice.Valid || !p.Band.contains(r.LastPrice.Float64) {
			continue
		}
		if !r.PrevClose.Valid || r.PrevClose.Float64 == 0 {
			continue
		}
		if r.TodayVolume.Int64 < p.MinTodayVolume {
			continue
		}
		if !r.PriceChangePct.Valid || r.PriceChangePct.Float64 < minChange {
			continue
		}
		rows = append(rows, entity.DayGainerRow{
			Symbol:         r.Ticker,
			Exchange:       r.Exchange,
			Price:          r.LastPrice,
			PrevClose:      r.PrevClose,
			ChangePct:      pct(r.PriceChangePct),
			Volume:         r.TodayVolume,
			RelativeVolume: r.RelVol,
			FloatShares:    r.FloatShares,
			MarketCap:      r.MarketCap,
		})
	}
	slices.SortStableFunc(rows, func(a, b entity.DayGainerRow) int {
		return cmpChain(
			desc(a.ChangePct, b.ChangePct),
			desc(a.RelativeVolume, b.RelativeVolume),
			cmp.Compare(b.Volume.Int64, a.Volume.Int64),
			cmp.Compare(a.Symbol, b.Symbol),
		)
	})
	return limit(rows, p.Limit)
}

// ScanMomentum は HOD / VWAP ブレイクの2脚スキャナーです。ブレイク種別の優先度、値上がり率、相対出来高の順に並べます。
func ScanMomentum(records []analytics.FeatureRecord, p MomentumPolicy) []entity.MomentumRow {
	rows := momentumRows(records, p)
	slices.SortStableFunc(rows, func(a, b entity.MomentumRow) int {
		return cmpChain(
			cmp.Compare(b.BreakPriority(), a.BreakPriority()),
			desc(a.PriceChangePct, b.PriceChangePct),
			desc(a.RelativeVolume, b.RelativeVolume),
			cmp.Compare(a.Symbol, b.Symbol),
		)
	})
	return limit(rows, p.Limit)
}

// ScanHodBreakouts は HOD ブレイク必須で2脚スキャナーを実行し、VWAP 項目を空にして並べ直します。
func ScanHodBreakouts(records []analytics.FeatureRecord, p MomentumPolicy) []entity.MomentumRow {
	p.RequireHodBreak, p.RequireVwapBreak = true, false
	lim := p.Limit
	p.Limit = 0
	rows := ScanMomentum(records, p)
	for i := range rows {
		rows[i].VWAP = null.Float{}
		rows[i].VWAPDistance = null.Float{}
		rows[i].BreakType = null.StringFrom(entity.BreakHod)
	}
	sortBreakouts(rows)
	return limit(rows, lim)
}

// ScanVwapBreakouts は HOD 脚を無効化し VWAP ブレイク必須で2脚スキャナーを実行し、HOD 項目を空にして並べ直します。
func ScanVwapBreakouts(records []analytics.FeatureRecord, p MomentumPolicy) []entity.MomentumRow {
	p.MaxDistToHOD, p.RequireHodBreak, p.RequireVwapBreak = 0, false, true
	lim := p.Limit
	p.Limit = 0
	rows := ScanMomentum(records, p)
	for i := range rows {
		rows[i].DayHigh = null.Float{}
		rows[i].DayLow = null.Float{}
		rows[i].LastBarHigh = null.Float{}
		rows[i].DistanceToHOD = null.Float{}
		rows[i].BreakType = null.StringFrom(entity.BreakVwap)
	}
	sortBreakouts(rows)
	return limit(rows, lim)
}

func sortBreakouts(rows []entity.MomentumRow) {
	slices.SortStableFunc(rows, func(a, b entity.MomentumRow) int {
		return cmpChain(
			desc(a.PriceChangePct, b.PriceChangePct),
			desc(a.RelativeVolume, b.RelativeVolume),
			cmp.Compare(a.Symbol, b.Symbol),
		)
	})
}

func momentumRows(records []analytics.FeatureRecord, p MomentumPolicy) []entity.MomentumRow {
	maxDist := p.MaxDistToHOD / 100
	var rows []entity.MomentumRow
	for _, r := range records {
		if !r.HOD.Valid || !r.LOD.Valid || !r.RangePct.Valid {
			continue
		}
		if !r.LastPrice.Valid || !p.Band.contains(r.LastPrice.Float64) {
			continue
		}
		if r.TodayVolume.Int64 < p.MinTodayVolume {
			continue
		}
		if r.RelVol.Valid && r.RelVol.Float64 < p.MinRelVol {
			continue
		}
		if !r.PrevClose.Valid {
			continue
		}
		if !r.CloseSlope.Valid || r.CloseSlope.Float64 <= 0 {
			continue
		}

		price, hod := r.LastPrice.Float64, r.HOD.Float64
		hodBreak := maxDist > 0 &&
			r.LastBarHigh.Valid && r.LastBarHigh.Float64 >= hodBreakTolerance*hod &&
			r.DistanceToHOD.Valid && r.DistanceToHOD.Float64 <= maxDist
		vwapBreak := r.VWAP.Valid && price >= r.VWAP.Float64

		if p.RequireHodBreak && !hodBreak {
			continue
		}
		if p.RequireVwapBreak && !vwapBreak {
			continue
		}
		if !hodBreak && !vwapBreak {
			continue
		}

		var bt string
		switch {
		case hodBreak && vwapBreak:
			bt = entity.BreakHodVwap
		case hodBreak:
			bt = entity.BreakHod
		default:
			bt = entity.BreakVwap
		}

		row := momentumRow(r)
		row.BreakType = null.StringFrom(bt)
		rows = append(rows, row)
	}
	return rows
}

func momentumRow(r analytics.FeatureRecord) entity.MomentumRow {
	return entity.MomentumRow{
		Symbol:         r.Ticker,
		Exchange:       r.Exchange,
		Price:          r.LastPrice,
		DayHigh:        r.HOD,
		DayLow:         r.LOD,
		LastBarHigh:    r.LastBarHigh,
		RangePct:       pct(r.RangePct),
		RelativeVolume: r.RelVol,
		PriceChangePct: pct(r.PriceChangePct),
		AvgVolume:      r.AvgVolume,
		VWAP:           r.VWAP,
		VWAPDistance:   pct(r.VWAPDistance),
		DistanceToHOD:  pct(r.DistanceToHOD),
	}
}

// ScanVolumeSpikes は相対出来高の急増銘柄を抽出します。相対出来高が無い銘柄は対象外です。
func ScanVolumeSpikes(records []analytics.FeatureRecord, p VolumeSpikesPolicy) []entity.MomentumRow {
	minChange := p.MinChangePct / 100
	var rows []entity.MomentumRow
	for _, r := range records {
		if !r.LastPrice.Valid || !p.Band.contains(r.LastPrice.Float64) {
			continue
		}
		if !r.PrevClose.Valid {
			continue
		}
		if r.TodayVolume.Int64 < p.MinTodayVolume {
			continue
		}
		if !r.RelVol.Valid || r.RelVol.Float64 < p.MinRelVol {
			continue
		}
		if !r.PriceChangePct.Valid || r.PriceChangePct.Float64 < minChange {
			continue
		}
		rows = append(rows, momentumRow(r))
	}
	slices.SortStableFunc(rows, func(a, b entity.MomentumRow) int {
		return cmpChain(
			desc(a.RelativeVolume, b.RelativeVolume),
			desc(a.PriceChangePct, b.PriceChangePct),
			cmp.Compare(a.Symbol, b.Symbol),
		)
	})
	return limit(rows, p.Limit)
}

// ScanApproach は HOD / VWAP への接近を判定する2脚スキャナーです。
func ScanApproach(records []analytics.FeatureRecord, p ApproachPolicy) []entity.ApproachRow {
	rows := approachRows(records, p)
	slices.SortStableFunc(rows, func(a, b entity.ApproachRow) int {
		return cmpChain(
			asc(a.DistanceToHOD, b.DistanceToHOD),
			asc(abs(a.VWAPDistance), abs(b.VWAPDistance)),
			desc(a.RelativeVolume, b.RelativeVolume),
			cmp.Compare(a.Symbol, b.Symbol),
		)
	})
	return limit(rows, p.Limit)
}

// ScanHodApproach は VWAP 脚を無効化した接近スキャナーです。
func ScanHodApproach(records []analytics.FeatureRecord, p ApproachPolicy) []entity.ApproachRow {
	p.MaxAbsVwapDistance = 0
	lim := p.Limit
	p.Limit = 0
	rows := ScanApproach(records, p)
	for i := range rows {
		rows[i].VWAP = null.Float{}
		rows[i].VWAPDistance = null.Float{}
	}
	slices.SortStableFunc(rows, func(a, b entity.ApproachRow) int {
		return cmpChain(
			asc(a.DistanceToHOD, b.DistanceToHOD),
			desc(a.RelativeVolume, b.RelativeVolume),
			cmp.Compare(a.Symbol, b.Symbol),
		)
	})
	return limit(rows, lim)
}

// ScanVwapApproach は HOD 脚を無効化した接近スキャナーです。
func ScanVwapApproach(records []analytics.FeatureRecord, p ApproachPolicy) []entity.ApproachRow {
	p.MaxDistToHOD = 0
	lim := p.Limit
	p.Limit = 0
	rows := ScanApproach(records, p)
	for i := range rows {
		rows[i].HOD = null.Float{}
		rows[i].DistanceToHOD = null.Float{}
	}
	slices.SortStableFunc(rows, func(a, b entity.ApproachRow) int {
		return cmpChain(
			asc(abs(a.VWAPDistance), abs(b.VWAPDistance)),
			desc(a.RelativeVolume, b.RelativeVolume),
			cmp.Compare(a.Symbol, b.Symbol),
		)
	})
	return limit(rows, lim)
}

// AdaptiveThreshold は max(threshold, min(atr/price, cap)) を返します。ATR や価格が無い場合は threshold のままです。
func AdaptiveThreshold(threshold float64, atr null.Float, price, capRatio float64) float64 {
	if !atr.Valid || price <= 0 {
		return threshold
	}
	return math.Max(threshold, math.Min(atr.Float64/price, capRatio))
}

func approachRows(records []analytics.FeatureRecord, p ApproachPolicy) []entity.ApproachRow {
	minRange := p.MinRangePct / 100
	var rows []entity.ApproachRow
	for _, r := range records {
		if !r.LastPrice.Valid || !p.SetupBand.contains(r.LastPrice.Float64) {
			continue
		}
		if r.TodayVolume.Int64 < p.MinTodayVolume {
			continue
		}
		if !r.RangePct.Valid || r.RangePct.Float64 < minRange {
			continue
		}
		if !r.PosInRange.Valid || r.PosInRange.Float64 < p.MinPosInRange || r.PosInRange.Float64 > p.MaxPosInRange {
			continue
		}
		if r.RelVol.Valid && r.RelVol.Float64 < p.MinRelVol {
			continue
		}
		if !r.CloseSlope.Valid || r.CloseSlope.Float64 < 0 {
			continue
		}

		price := r.LastPrice.Float64
		hodThr := p.MaxDistToHOD / 100
		vwapThr := p.MaxAbsVwapDistance / 100
		if p.AdaptiveThresholds {
			if hodThr > 0 {
				hodThr = AdaptiveThreshold(hodThr, r.ATR, price, adaptiveHodCap)
			}
			if vwapThr > 0 {
				vwapThr = AdaptiveThreshold(vwapThr, r.ATR, price, adaptiveVwapCap)
			}
		}

		nearHod := hodThr > 0 && r.HOD.Valid && r.DistanceToHOD.Valid &&
			r.DistanceToHOD.Float64 <= hodThr && price < r.HOD.Float64
		nearVwap := vwapThr > 0 && r.VWAPDistance.Valid && math.Abs(r.VWAPDistance.Float64) <= vwapThr
		if !nearHod && !nearVwap {
			continue
		}

		rows = append(rows, entity.ApproachRow{
			Symbol:         r.Ticker,
			Exchange:       r.Exchange,
			Price:          r.LastPrice,
			HOD:            r.HOD,
			DistanceToHOD:  pct(r.DistanceToHOD),
			VWAP:           r.VWAP,
			VWAPDistance:   pct(r.VWAPDistance),
			RangePct:       pct(r.RangePct),
			PosInRange:     r.PosInRange,
			RelativeVolume: r.RelVol,
		})
	}
	return rows
}

// pct は比率をパーセントポイントに変換します。
func pct(v null.Float) null.Float {
	if !v.Valid {
		return v
	}
	return null.FloatFrom(v.Float64 * 100)
}

func abs(v null.Float) null.Float {
	if !v.Valid {
		return v
	}
	return null.FloatFrom(math.Abs(v.Float64))
}

// desc は降順比較です。欠損値は常に後ろに並びます。
func desc(a, b null.Float) int {
	switch {
	case !a.Valid && !b.Valid:
		return 0
	case !a.Valid:
		return 1
	case !b.Valid:
		return -1
	}
	return cmp.Compare(b.Float64, a.Float64)
}

// asc は昇順比較です。欠損値は常に後ろに並びます。
func asc(a, b null.Float) int {
	switch {
	case !a.Valid && !b.Valid:
		return 0
	case !a.Valid:
		return 1
	case !b.Valid:
		return -1
	}
	return cmp.Compare(a.Float64, b.Float64)
}

func cmpChain(cs ...int) int {
	for _, c := range cs {
		if c != 0 {
			return c
		}
	}
	return 0
}

func limit[R any](rows []R, n int) []R {
	if rows == nil {
		rows = []R{}
	}
	if n > 0 && len(rows) > n {
		return rows[:n]
	}
	return rows
}
