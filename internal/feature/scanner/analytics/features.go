package analytics

import (
	"math"
	"strconv"

	"github.com/guregu/null/v6"

	"scanner_backend/internal/feature/marketdata/domain/entity"
	mdusecase "scanner_backend/internal/feature/marketdata/usecase"
)

const (
	hodTestTolerance = 0.003
	atrPeriod        = 14
)

// FeatureRecord は1銘柄分のユニバース情報と日中特徴量です。
// 比率系の項目は比率（0.05 == 5%）で保持し、数値項目はそれぞれ独立に欠損し得ます。
type FeatureRecord struct {
	Ticker           string      `json:"ticker"`
	Exchange         string      `json:"exchange"`
	ShortName        null.String `json:"shortName"`
	QuotePrice       null.Float  `json:"quotePrice"`
	PrevClose        null.Float  `json:"prevClose"`
	ChangePct        null.Float  `json:"changePct"`
	AvgVolume        null.Float  `json:"avgVolume"`
	MarketCap        null.Float  `json:"marketCap"`
	FloatShares      null.Float  `json:"floatShares"`
	QuoteVolume      null.Int    `json:"quoteVolume"`
	SessionDate      string      `json:"sessionDate"`
	BarCount         int         `json:"barCount"`
	LastPrice        null.Float  `json:"lastPrice"`
	TodayVolume      null.Int    `json:"todayVolume"`
	PriceChangePct   null.Float  `json:"priceChangePct"`
	VWAP             null.Float  `json:"vwap"`
	VWAPDistance     null.Float  `json:"vwapDistance"`
	HOD              null.Float  `json:"hod"`
	LOD              null.Float  `json:"lod"`
	DistanceToHOD    null.Float  `json:"distanceToHod"`
	HODTestCount     null.Int    `json:"hodTestCount"`
	RangePct         null.Float  `json:"rangePct"`
	PosInRange       null.Float  `json:"posInRange"`
	CloseSlope       null.Float  `json:"closeSlope"`
	ATR              null.Float  `json:"atr"`
	IntradayVol      null.Float  `json:"intradayVol"`
	LastBarHigh      null.Float  `json:"lastBarHigh"`
	PremarketHigh    null.Float  `json:"premarketHigh"`
	PremarketVolume  null.Int    `json:"premarketVolume"`
	PostmarketVolume null.Int    `json:"postmarketVolume"`
	GapPct           null.Float  `json:"gapPct"`
	RelVol           null.Float  `json:"relVol"`
	RelVolTod        null.Float  `json:"relVolTod"`
}

// FeatureEngine は最新セッションのバーと相対出来高から特徴量を組み立てます。
type FeatureEngine struct {
	relvol *RelVolEngine
}

// NewFeatureEngine は FeatureEngine を生成します。
func NewFeatureEngine(cfg RelVolConfig) *FeatureEngine {
	return &FeatureEngine{relvol: NewRelVolEngine(cfg)}
}

// RelVolConfig は相対出来高の設定を返します。
func (e *FeatureEngine) RelVolConfig() RelVolConfig { return e.relvol.Config() }

// CanReusePrimary は一次取得のバー列を相対出来高の算出に流用できるかを返します。
// 時間足が相対出来高用と同じで、期間が HistoryDays 以上ある場合のみ流用します。
func (e *FeatureEngine) CanReusePrimary(interval, period string) bool {
	cfg := e.relvol.Config()
	if !cfg.ReuseIntraday || interval != cfg.Interval {
		return false
	}
	days, ok := mdusecase.PeriodDays(period)
	return ok && days >= cfg.HistoryDays
}

// RelVolFetchPeriod は相対出来高専用にバーを取得する場合の期間です。
func (e *FeatureEngine) RelVolFetchPeriod() string {
	days := max(e.relvol.Config().HistoryDays, 1)
	return strconv.Itoa(days) + "d"
}

// Build は1銘柄分の特徴量を計算します。バーが1本も無い場合は ok=false を返します。
// rvSeries は相対出来高の算出に使うバー列で、nil の場合は相対出来高を欠損とします。
func (e *FeatureEngine) Build(q entity.Quote, series, rvSeries entity.BarSeries, closeSlopeN int) (FeatureRecord, bool) {
	if len(series) == 0 {
		return FeatureRecord{}, false
	}
	sess, _ := SliceLatest(series)

	rec := FeatureRecord{
		Ticker:      q.Ticker,
		Exchange:    q.Exchange,
		ShortName:   q.ShortName,
		QuotePrice:  q.Last,
		PrevClose:   q.PrevClose,
		ChangePct:   q.ChangePct,
		AvgVolume:   q.LiquidityRef(),
		MarketCap:   q.MarketCap,
		FloatShares: q.FloatShares,
		QuoteVolume: q.Volume,
		SessionDate: sess.Date,
		BarCount:    len(sess.All),
	}
	reg := sess.Regular

	// 最終価格: 通常取引の終値 → セッション内の終値 → クォート価格
	switch {
	case len(reg) > 0:
		rec.LastPrice = null.FloatFrom(reg[len(reg)-1].Close)
	case len(sess.All) > 0:
		rec.LastPrice = null.FloatFrom(sess.All[len(sess.All)-1].Close)
	default:
		rec.LastPrice = q.Last
	}

	if len(reg) > 0 {
		rec.TodayVolume = null.IntFrom(sumVolume(reg))
	} else {
		rec.TodayVolume = q.Volume
	}

	if rec.LastPrice.Valid && q.PrevClose.Valid && q.PrevClose.Float64 != 0 {
		rec.PriceChangePct = null.FloatFrom((rec.LastPrice.Float64 - q.PrevClose.Float64) / q.PrevClose.Float64)
	}

	if len(reg) > 0 {
		e.regularFeatures(&rec, reg, closeSlopeN)
		if q.PrevClose.Valid && q.PrevClose.Float64 != 0 {
			rec.GapPct = null.FloatFrom((reg[0].Open - q.PrevClose.Float64) / q.PrevClose.Float64)
		}
	}

	if len(sess.Pre) > 0 {
		hi := sess.Pre[0].High
		for _, b := range sess.Pre[1:] {
			hi = math.Max(hi, b.High)
		}
		rec.PremarketHigh = null.FloatFrom(hi)
		rec.PremarketVolume = null.IntFrom(sumVolume(sess.Pre))
	}
	if len(sess.Post) > 0 {
		rec.PostmarketVolume = null.IntFrom(sumVolume(sess.Post))
	}

	if rvSeries != nil {
		rv := e.relvol.Compute(rvSeries)
		rec.RelVol = rv.RelVol
		rec.RelVolTod = rv.RelVolTod
	}
	return rec, true
}

func (e *FeatureEngine) regularFeatures(rec *FeatureRecord, reg entity.BarSeries, closeSlopeN int) {
	var pv float64
	var vol int64
	hod, lod := reg[0].High, reg[0].Low
	for _, b := range reg {
		pv += (b.High + b.Low + b.Close) / 3 * float64(b.Volume)
		vol += b.Volume
		hod = math.Max(hod, b.High)
		lod = math.Min(lod, b.Low)
	}
	if vol > 0 {
		rec.VWAP = null.FloatFrom(pv / float64(vol))
	}
	rec.HOD = null.FloatFrom(hod)
	rec.LOD = null.FloatFrom(lod)

	last := reg[len(reg)-1]
	rec.LastBarHigh = null.FloatFrom(last.High)
	if last.Low > 0 {
		rec.IntradayVol = null.FloatFrom((last.High - last.Low) / last.Low)
	}

	price := rec.LastPrice
	if hod != 0 {
		if price.Valid {
			rec.DistanceToHOD = null.FloatFrom((hod - price.Float64) / hod)
		}
		tests := 0
		for _, b := range reg {
			if math.Abs(hod-b.Close)/math.Abs(hod) <= hodTestTolerance {
				tests++
			}
		}
		rec.HODTestCount = null.IntFrom(int64(tests))
	}
	if hod > lod {
		if lod != 0 {
			rec.RangePct = null.FloatFrom((hod - lod) / lod)
		}
		if price.Valid {
			rec.PosInRange = null.FloatFrom((price.Float64 - lod) / (hod - lod))
		}
	}
	if rec.VWAP.Valid && rec.VWAP.Float64 != 0 && price.Valid {
		rec.VWAPDistance = null.FloatFrom((price.Float64 - rec.VWAP.Float64) / rec.VWAP.Float64)
	}

	rec.CloseSlope = CloseSlope(reg, closeSlopeN)
	rec.ATR = ATR(reg)
}

// CloseSlope は直近 n 本の終値の傾き (close[-1] - close[-n]) / (n - 1) です。
// n < 2 またはバーが n 本未満の場合は null です。
func CloseSlope(bars entity.BarSeries, n int) null.Float {
	if n < 2 || len(bars) < n {
		return null.Float{}
	}
	first, last := bars[len(bars)-n].Close, bars[len(bars)-1].Close
	return null.FloatFrom((last - first) / float64(n-1))
}

// ATR は直近最大15本から求めた真の値幅のうち、最後の14個の平均です。
// バーが1本の場合はその高値-安値を返します。
func ATR(bars entity.BarSeries) null.Float {
	if len(bars) == 0 {
		return null.Float{}
	}
	if len(bars) == 1 {
		return null.FloatFrom(bars[0].High - bars[0].Low)
	}
	tail := bars[max(0, len(bars)-(atrPeriod+1)):]
	trs := make([]float64, 0, len(tail)-1)
	for i := 1; i < len(tail); i++ {
		b, prev := tail[i], tail[i-1].Close
		trs = append(trs, math.Max(b.High-b.Low, math.Max(math.Abs(b.High-prev), math.Abs(b.Low-prev))))
	}
	if len(trs) > atrPeriod {
		trs = trs[len(trs)-atrPeriod:]
	}
	var sum float64
	for _, tr := range trs {
		sum += tr
	}
	return null.FloatFrom(sum / float64(len(trs)))
}

func sumVolume(bars entity.BarSeries) int64 {
	var v int64
	for _, b := range bars {
		v += b.Volume
	}
	return v
}
