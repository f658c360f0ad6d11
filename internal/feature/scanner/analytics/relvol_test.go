package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scanner_backend/internal/feature/marketdata/domain/entity"
)

func TestRecentK_WorkedExample(t *testing.T) {
	t.Parallel()

	series := entity.BarSeries{
		flat(t, "2024-01-02", "10:00", 1, 100),
		flat(t, "2024-01-02", "10:05", 1, 100),
		flat(t, "2024-01-03", "10:00", 1, 200),
		flat(t, "2024-01-03", "10:05", 1, 200),
	}

	got := RecentK(series, 1, 2, false, true)
	assert.Equal(t, int64(400), got.TodayBarVol.Int64)
	assert.Equal(t, int64(400), got.TodayCumVol.Int64)
	assert.Equal(t, 200.0, got.BaselineBarVol.Float64)
	assert.InDelta(t, 2.0, got.RelVol.Float64, 1e-9)
	assert.InDelta(t, 2.0, got.RelVolTod.Float64, 1e-9)
	assert.Equal(t, "10:05", got.BarTime.String)
	assert.Equal(t, 1, got.PriorDays)
}

func TestRecentK_IncludeTodayExcludingLastK(t *testing.T) {
	t.Parallel()

	series := entity.BarSeries{
		flat(t, "2024-01-02", "10:00", 1, 100),
		flat(t, "2024-01-02", "10:01", 1, 100),
		flat(t, "2024-01-03", "10:00", 1, 100),
		flat(t, "2024-01-03", "10:01", 1, 400),
	}

	// プール: 前日2本 + 当日の直近1本を除いた1本 = 300 / 3 = 100
	got := RecentK(series, 4, 1, true, true)
	assert.InDelta(t, 100.0, got.BaselineBarVol.Float64, 1e-9)
	assert.InDelta(t, 4.0, got.RelVol.Float64, 1e-9)
	assert.InDelta(t, 2.5, got.RelVolTod.Float64, 1e-9)

	// 直近Kバーも含める: 700 / 4 = 175
	got = RecentK(series, 4, 1, true, false)
	assert.InDelta(t, 175.0, got.BaselineBarVol.Float64, 1e-9)
}

func TestRecentK_KClampedToTodayBars(t *testing.T) {
	t.Parallel()

	series := entity.BarSeries{
		flat(t, "2024-01-02", "10:00", 1, 50),
		flat(t, "2024-01-03", "10:00", 1, 150),
	}
	got := RecentK(series, 4, 5, false, true)
	assert.Equal(t, int64(150), got.TodayBarVol.Int64)
	assert.InDelta(t, 50.0, got.BaselineBarVol.Float64, 1e-9)
	assert.InDelta(t, 3.0, got.RelVol.Float64, 1e-9)
}

func TestRecentK_NoBaseline(t *testing.T) {
	t.Parallel()

	series := entity.BarSeries{flat(t, "2024-01-03", "10:00", 1, 150)}
	got := RecentK(series, 4, 5, false, true)
	assert.True(t, got.TodayBarVol.Valid)
	assert.False(t, got.RelVol.Valid)
	assert.False(t, got.RelVolTod.Valid)
	assert.False(t, got.BaselineBarVol.Valid)

	// ベースラインの出来高が0
	series = entity.BarSeries{
		flat(t, "2024-01-02", "10:00", 1, 0),
		flat(t, "2024-01-03", "10:00", 1, 150),
	}
	got = RecentK(series, 4, 5, false, true)
	assert.False(t, got.RelVol.Valid)
}

func TestRecentK_EmptyOrNoRegular(t *testing.T) {
	t.Parallel()

	assert.Equal(t, RelVol{}, RecentK(nil, 4, 5, true, true))

	pre := entity.BarSeries{flat(t, "2024-01-03", "08:00", 1, 150)}
	assert.Equal(t, RelVol{}, RecentK(pre, 4, 5, true, true))
}

func TestTimeOfDay(t *testing.T) {
	t.Parallel()

	series := entity.BarSeries{
		// 2日前: 10:01 までの累積 = 300
		flat(t, "2024-01-01", "10:00", 1, 100),
		flat(t, "2024-01-01", "10:01", 1, 200),
		flat(t, "2024-01-01", "10:02", 1, 999),
		// 前日: 10:01 までの累積 = 100
		flat(t, "2024-01-02", "10:00", 1, 100),
		flat(t, "2024-01-02", "15:00", 1, 999),
		// 当日
		flat(t, "2024-01-03", "10:00", 1, 300),
		flat(t, "2024-01-03", "10:01", 1, 300),
	}

	got := TimeOfDay(series, 5)
	assert.Equal(t, int64(600), got.TodayCumVol.Int64)
	assert.InDelta(t, 200.0, got.BaselineCumVol.Float64, 1e-9)
	assert.InDelta(t, 3.0, got.RelVol.Float64, 1e-9)
	assert.InDelta(t, 3.0, got.RelVolTod.Float64, 1e-9)
	assert.Equal(t, 2, got.PriorDays)
	assert.Equal(t, "10:01", got.BarTime.String)

	// lookback を1日に絞ると前日のみ
	got = TimeOfDay(series, 1)
	assert.InDelta(t, 6.0, got.RelVol.Float64, 1e-9)
}

func TestTimeOfDay_NoValidPriorDay(t *testing.T) {
	t.Parallel()

	series := entity.BarSeries{
		flat(t, "2024-01-02", "11:00", 1, 100), // カットオフより後のみ
		flat(t, "2024-01-03", "10:00", 1, 300),
	}
	got := TimeOfDay(series, 5)
	assert.True(t, got.TodayCumVol.Valid)
	assert.False(t, got.RelVol.Valid)
	assert.Equal(t, 0, got.PriorDays)
}

func TestRelVolEngine_Dispatch(t *testing.T) {
	t.Parallel()

	series := entity.BarSeries{
		flat(t, "2024-01-02", "10:00", 1, 100),
		flat(t, "2024-01-03", "10:00", 1, 300),
	}

	cfg := DefaultRelVolConfig()
	got := NewRelVolEngine(cfg).Compute(series)
	require.True(t, got.TodayBarVol.Valid)

	cfg.Method = MethodTimeOfDay
	got = NewRelVolEngine(cfg).Compute(series)
	assert.False(t, got.TodayBarVol.Valid)
	assert.InDelta(t, 3.0, got.RelVol.Float64, 1e-9)
}

func TestParseMethod(t *testing.T) {
	t.Parallel()

	m, err := ParseMethod("tod")
	require.NoError(t, err)
	assert.Equal(t, MethodTimeOfDay, m)

	_, err = ParseMethod("vwap")
	assert.Error(t, err)
}
