package analytics

import (
	"testing"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scanner_backend/internal/feature/marketdata/domain/entity"
)

func testQuote() entity.Quote {
	return entity.Quote{
		Ticker:         "ABC",
		Exchange:       "NMS",
		Last:           null.FloatFrom(9.99),
		PrevClose:      null.FloatFrom(8),
		Volume:         null.IntFrom(123),
		AvgDailyVol10d: null.FloatFrom(2_000_000),
	}
}

func TestFeatureEngine_Build(t *testing.T) {
	t.Parallel()

	series := entity.BarSeries{
		nyBar(t, "2024-01-03", "08:00", 8.5, 9.2, 8.4, 9.0, 500),
		nyBar(t, "2024-01-03", "09:30", 9.0, 10.0, 9.0, 9.5, 100),
		nyBar(t, "2024-01-03", "09:31", 9.5, 11.0, 9.4, 10.97, 300),
		nyBar(t, "2024-01-03", "09:32", 10.9, 10.99, 10.5, 10.8, 100),
		nyBar(t, "2024-01-03", "16:05", 10.8, 10.9, 10.7, 10.85, 40),
	}

	e := NewFeatureEngine(DefaultRelVolConfig())
	rec, ok := e.Build(testQuote(), series, nil, 3)
	require.True(t, ok)

	assert.Equal(t, "ABC", rec.Ticker)
	assert.Equal(t, "2024-01-03", rec.SessionDate)
	assert.Equal(t, 5, rec.BarCount)
	assert.Equal(t, 10.8, rec.LastPrice.Float64)
	assert.Equal(t, int64(500), rec.TodayVolume.Int64)
	assert.InDelta(t, (10.8-8)/8, rec.PriceChangePct.Float64, 1e-12)
	assert.InDelta(t, (9.0-8)/8, rec.GapPct.Float64, 1e-12)

	// VWAP = Σ((H+L+C)/3 * V) / ΣV
	wantVWAP := ((10.0+9.0+9.5)/3*100 + (11.0+9.4+10.97)/3*300 + (10.99+10.5+10.8)/3*100) / 500
	assert.InDelta(t, wantVWAP, rec.VWAP.Float64, 1e-9)
	assert.InDelta(t, (10.8-wantVWAP)/wantVWAP, rec.VWAPDistance.Float64, 1e-9)

	assert.Equal(t, 11.0, rec.HOD.Float64)
	assert.Equal(t, 9.0, rec.LOD.Float64)
	assert.InDelta(t, (11.0-10.8)/11.0, rec.DistanceToHOD.Float64, 1e-12)
	assert.Equal(t, int64(1), rec.HODTestCount.Int64, "10.97 is within 0.3% of 11")
	assert.InDelta(t, 2.0/9.0, rec.RangePct.Float64, 1e-12)
	assert.InDelta(t, 1.8/2.0, rec.PosInRange.Float64, 1e-12)
	assert.InDelta(t, (10.8-9.5)/2, rec.CloseSlope.Float64, 1e-12)
	assert.InDelta(t, (10.99-10.5)/10.5, rec.IntradayVol.Float64, 1e-12)
	assert.Equal(t, 10.99, rec.LastBarHigh.Float64)

	// ATR: TR = max(H-L, |H-prevC|, |L-prevC|)
	tr1 := 11.0 - 9.4
	tr2 := 10.99 - 10.5
	assert.InDelta(t, (tr1+tr2)/2, rec.ATR.Float64, 1e-12)

	assert.Equal(t, 9.2, rec.PremarketHigh.Float64)
	assert.Equal(t, int64(500), rec.PremarketVolume.Int64)
	assert.Equal(t, int64(40), rec.PostmarketVolume.Int64)
	assert.Equal(t, 2_000_000.0, rec.AvgVolume.Float64)
	assert.False(t, rec.RelVol.Valid)
}

func TestFeatureEngine_Build_NoRegularSession(t *testing.T) {
	t.Parallel()

	series := entity.BarSeries{
		nyBar(t, "2024-01-03", "08:00", 8.5, 9.2, 8.4, 9.1, 500),
	}

	rec, ok := NewFeatureEngine(DefaultRelVolConfig()).Build(testQuote(), series, series, 6)
	require.True(t, ok)
	assert.Equal(t, 9.1, rec.LastPrice.Float64, "falls back to latest session close")
	assert.Equal(t, int64(123), rec.TodayVolume.Int64, "falls back to quote volume")
	for name, f := range map[string]null.Float{
		"vwap": rec.VWAP, "hod": rec.HOD, "lod": rec.LOD, "dist": rec.DistanceToHOD,
		"range": rec.RangePct, "pos": rec.PosInRange, "slope": rec.CloseSlope, "atr": rec.ATR,
		"gap": rec.GapPct, "relvol": rec.RelVol,
	} {
		assert.False(t, f.Valid, name)
	}
}

func TestFeatureEngine_Build_NoBars(t *testing.T) {
	t.Parallel()

	_, ok := NewFeatureEngine(DefaultRelVolConfig()).Build(testQuote(), nil, nil, 6)
	assert.False(t, ok)
}

func TestFeatureEngine_Build_RelVolFromSeparateSeries(t *testing.T) {
	t.Parallel()

	primary := entity.BarSeries{nyBar(t, "2024-01-03", "10:00", 1, 1, 1, 1, 10)}
	rv := entity.BarSeries{
		flat(t, "2024-01-02", "10:00", 1, 100),
		flat(t, "2024-01-03", "10:00", 1, 300),
	}
	cfg := DefaultRelVolConfig()
	cfg.IncludeToday = false

	rec, ok := NewFeatureEngine(cfg).Build(testQuote(), primary, rv, 6)
	require.True(t, ok)
	assert.InDelta(t, 3.0, rec.RelVol.Float64, 1e-9)
	assert.InDelta(t, 3.0, rec.RelVolTod.Float64, 1e-9)
}

func TestFeatureEngine_CanReusePrimary(t *testing.T) {
	t.Parallel()

	cfg := DefaultRelVolConfig()
	e := NewFeatureEngine(cfg)
	assert.True(t, e.CanReusePrimary("1m", "5d"))
	assert.False(t, e.CanReusePrimary("1m", "1d"))
	assert.False(t, e.CanReusePrimary("5m", "5d"))
	assert.Equal(t, "5d", e.RelVolFetchPeriod())

	cfg.ReuseIntraday = false
	assert.False(t, NewFeatureEngine(cfg).CanReusePrimary("1m", "5d"))
}

func TestCloseSlope(t *testing.T) {
	t.Parallel()

	bars := entity.BarSeries{{Close: 1}, {Close: 2}, {Close: 4}}
	assert.InDelta(t, 1.5, CloseSlope(bars, 3).Float64, 1e-12)
	assert.InDelta(t, 2.0, CloseSlope(bars, 2).Float64, 1e-12)
	assert.False(t, CloseSlope(bars, 4).Valid)
	assert.False(t, CloseSlope(bars, 1).Valid)
}

func TestATR(t *testing.T) {
	t.Parallel()

	assert.False(t, ATR(nil).Valid)
	assert.Equal(t, 2.0, ATR(entity.BarSeries{{High: 5, Low: 3}}).Float64)

	// 20本すべて TR=1 の場合でも直近14個の平均になる
	bars := make(entity.BarSeries, 0, 20)
	for range 20 {
		bars = append(bars, entity.Bar{High: 11, Low: 10, Close: 10.5})
	}
	bars[0].High = 100 // 範囲外のバーは影響しない
	assert.InDelta(t, 1.0, ATR(bars).Float64, 1e-12)

	// ギャップは前バー終値との差で拾う
	gap := entity.BarSeries{{High: 10, Low: 9, Close: 10}, {High: 13, Low: 12, Close: 12.5}}
	assert.InDelta(t, 3.0, ATR(gap).Float64, 1e-12)
}
