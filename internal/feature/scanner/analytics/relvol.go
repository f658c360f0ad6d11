package analytics

import (
	"fmt"

	"github.com/guregu/null/v6"

	"scanner_backend/internal/feature/marketdata/domain/entity"
)

// Method は相対出来高の算出方式です。
type Method string

const (
	// MethodTimeOfDay は当日の累積出来高を過去日の同時刻までの累積出来高と比較します。
	MethodTimeOfDay Method = "tod"
	// MethodRecentK は直近Kバーの出来高をバー平均出来高×Kと比較します。
	MethodRecentK Method = "recent_k_1m"
)

// ParseMethod は設定値を Method に変換します。
func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case MethodTimeOfDay, MethodRecentK:
		return Method(s), nil
	default:
		return "", fmt.Errorf("unknown relative volume method %q", s)
	}
}

// RelVolConfig はプロセス起動時に一度だけ組み立てる不変の相対出来高設定です。
type RelVolConfig struct {
	Method                Method
	Interval              string // 相対出来高の算出に使う時間足
	HistoryDays           int    // 専用取得時の期間（日数）
	BaselineDays          int    // 比較対象にする過去セッション数
	KBars                 int
	IncludeToday          bool // 当日のバーをベースラインに含めるか
	ExcludeLastKFromToday bool // 含める場合に直近Kバーを除くか
	ReuseIntraday         bool // 一次取得のバー列を流用できる場合は流用するか
}

// DefaultRelVolConfig は既定の相対出来高設定を返します。
func DefaultRelVolConfig() RelVolConfig {
	return RelVolConfig{
		Method:                MethodRecentK,
		Interval:              "1m",
		HistoryDays:           5,
		BaselineDays:          4,
		KBars:                 5,
		IncludeToday:          true,
		ExcludeLastKFromToday: true,
		ReuseIntraday:         true,
	}
}

// RelVol は1銘柄分の相対出来高の計算結果です。入力不足の項目は null になります。
type RelVol struct {
	TodayBarVol    null.Int    `json:"todayBarVol"`
	TodayCumVol    null.Int    `json:"todayCumVol"`
	BaselineBarVol null.Float  `json:"baselineBarVol"`
	BaselineCumVol null.Float  `json:"baselineCumVol"`
	RelVol         null.Float  `json:"relVol"`
	RelVolTod      null.Float  `json:"relVolTod"`
	BarTime        null.String `json:"barTime"`
	PriorDays      int         `json:"priorDays"`
}

// RelVolEngine は設定に従って相対出来高を計算します。
type RelVolEngine struct {
	cfg RelVolConfig
}

// NewRelVolEngine は RelVolEngine を生成します。
func NewRelVolEngine(cfg RelVolConfig) *RelVolEngine {
	return &RelVolEngine{cfg: cfg}
}

// Config は設定を返します。
func (e *RelVolEngine) Config() RelVolConfig { return e.cfg }

// Compute は設定された方式で相対出来高を計算します。
func (e *RelVolEngine) Compute(series entity.BarSeries) RelVol {
	if e.cfg.Method == MethodTimeOfDay {
		return TimeOfDay(series, e.cfg.BaselineDays)
	}
	return RecentK(series, e.cfg.BaselineDays, e.cfg.KBars, e.cfg.IncludeToday, e.cfg.ExcludeLastKFromToday)
}

// splitToday は最新セッションの通常取引バーと、それ以前のセッション（日付昇順）を返します。
func splitToday(series entity.BarSeries) (entity.BarSeries, []DaySession, bool) {
	sess, ok := SliceLatest(series)
	if !ok || len(sess.Regular) == 0 {
		return nil, nil, false
	}
	var prior []DaySession
	for _, d := range RegularSessions(series) {
		if d.Date < sess.Date {
			prior = append(prior, d)
		}
	}
	return sess.Regular, prior, true
}

// RecentK は直近Kバー方式の相対出来高を計算します。
//
//	todayBarVol    = 当日の直近kバー出来高合計（k = min(K, 当日バー数)）
//	perBarAvg      = 直近 baselineDays セッション（＋設定により当日分）のバー平均出来高
//	relVol         = todayBarVol / (perBarAvg * k)
//	relVolTod      = todayCumVol / (perBarAvg * 当日バー数)
func RecentK(series entity.BarSeries, baselineDays, kBars int, includeToday, excludeLastK bool) RelVol {
	today, prior, ok := splitToday(series)
	if !ok {
		return RelVol{}
	}

	k := min(max(kBars, 1), len(today))
	var barVol, cumVol int64
	for i, b := range today {
		cumVol += b.Volume
		if i >= len(today)-k {
			barVol += b.Volume
		}
	}

	out := RelVol{
		TodayBarVol: null.IntFrom(barVol),
		TodayCumVol: null.IntFrom(cumVol),
		BarTime:     null.StringFrom(today[len(today)-1].Time.Format("15:04")),
	}

	if baselineDays > 0 && len(prior) > baselineDays {
		prior = prior[len(prior)-baselineDays:]
	} else if baselineDays <= 0 {
		prior = nil
	}
	out.PriorDays = len(prior)

	var poolVol int64
	var poolBars int
	for _, d := range prior {
		for _, b := range d.Regular {
			poolVol += b.Volume
			poolBars++
		}
	}
	if includeToday {
		pool := today
		if excludeLastK {
			pool = today[:len(today)-k]
		}
		for _, b := range pool {
			poolVol += b.Volume
			poolBars++
		}
	}
	if poolBars == 0 {
		return out
	}

	avg := float64(poolVol) / float64(poolBars)
	if avg <= 0 {
		return out
	}
	out.BaselineBarVol = null.FloatFrom(avg * float64(k))
	out.RelVol = null.FloatFrom(float64(barVol) / (avg * float64(k)))
	out.RelVolTod = null.FloatFrom(float64(cumVol) / (avg * float64(len(today))))
	return out
}

// TimeOfDay は時刻別累積方式の相対出来高を計算します。
// 当日の最終バー時刻までの累積出来高を、直近 lookbackDays セッションの同時刻までの累積出来高の平均と比較します。
// 有効な過去日が無い、または平均が0以下の場合は比率を null にします。
func TimeOfDay(series entity.BarSeries, lookbackDays int) RelVol {
	today, prior, ok := splitToday(series)
	if !ok {
		return RelVol{}
	}

	last := today[len(today)-1]
	cutoff := secondsOfDay(last.Time)
	var todayCum int64
	for _, b := range today {
		todayCum += b.Volume
	}

	out := RelVol{
		TodayCumVol: null.IntFrom(todayCum),
		BarTime:     null.StringFrom(last.Time.Format("15:04")),
	}

	var sum float64
	valid := 0
	for i := len(prior) - 1; i >= 0 && i >= len(prior)-lookbackDays; i-- {
		var cum int64
		seen := false
		for _, b := range prior[i].Regular {
			if secondsOfDay(b.Time) > cutoff {
				break
			}
			seen = true
			cum += b.Volume
		}
		if seen && cum > 0 {
			sum += float64(cum)
			valid++
		}
	}
	out.PriorDays = valid
	if valid == 0 {
		return out
	}

	baseline := sum / float64(valid)
	if baseline <= 0 {
		return out
	}
	out.BaselineCumVol = null.FloatFrom(baseline)
	ratio := float64(todayCum) / baseline
	out.RelVol = null.FloatFrom(ratio)
	out.RelVolTod = null.FloatFrom(ratio)
	return out
}
