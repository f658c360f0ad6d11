// Package entity はスキャナー結果の行を定義します。
// パーセント表記の項目はパーセントポイント（5.0 == 5%）で保持します。
package entity

import "github.com/guregu/null/v6"

// スキャナー名。
const (
	ScannerDayGainers      = "day_gainers"
	ScannerHodVwapMomentum = "hod_vwap_momentum"
	ScannerHodBreakouts    = "hod_breakouts"
	ScannerVwapBreakouts   = "vwap_breakouts"
	ScannerVolumeSpikes    = "volume_spikes"
	ScannerHodVwapApproach = "hod_vwap_approach"
	ScannerHodApproach     = "hod_approach"
	ScannerVwapApproach    = "vwap_approach"
)

// ブレイク種別。
const (
	BreakHodVwap = "hod+vwap"
	BreakHod     = "hod"
	BreakVwap    = "vwap"
)

// DayGainerRow は day_gainers の1行です。
type DayGainerRow struct {
	Symbol         string     `json:"symbol"`
	Exchange       string     `json:"exchange"`
	Price          null.Float `json:"price"`
	PrevClose      null.Float `json:"prev_close"`
	ChangePct      null.Float `json:"change_pct"`
	Volume         null.Int   `json:"volume"`
	RelativeVolume null.Float `json:"relative_volume"`
	FloatShares    null.Float `json:"float_shares"`
	MarketCap      null.Float `json:"market_cap"`
}

// MomentumRow はブレイクアウト系と volume_spikes の1行です。
type MomentumRow struct {
	Symbol         string      `json:"symbol"`
	Exchange       string      `json:"exchange"`
	Price          null.Float  `json:"price"`
	DayHigh        null.Float  `json:"day_high"`
	DayLow         null.Float  `json:"day_low"`
	LastBarHigh    null.Float  `json:"last_bar_high"`
	RangePct       null.Float  `json:"range_pct"`
	RelativeVolume null.Float  `json:"relative_volume"`
	PriceChangePct null.Float  `json:"price_change_pct"`
	AvgVolume      null.Float  `json:"avg_volume"`
	VWAP           null.Float  `json:"vwap"`
	VWAPDistance   null.Float  `json:"vwap_distance"`
	DistanceToHOD  null.Float  `json:"distance_to_hod"`
	BreakType      null.String `json:"break_type"`
}

// BreakPriority はブレイク種別の優先度です（hod+vwap=3, hod=2, vwap=1, その他=0）。
func (r MomentumRow) BreakPriority() int {
	switch r.BreakType.String {
	case BreakHodVwap:
		return 3
	case BreakHod:
		return 2
	case BreakVwap:
		return 1
	default:
		return 0
	}
}

// ApproachRow は HOD / VWAP 接近系の1行です。
type ApproachRow struct {
	Symbol         string     `json:"symbol"`
	Exchange       string     `json:"exchange"`
	Price          null.Float `json:"price"`
	HOD            null.Float `json:"hod"`
	DistanceToHOD  null.Float `json:"distance_to_hod"`
	VWAP           null.Float `json:"vwap"`
	VWAPDistance   null.Float `json:"vwap_distance"`
	RangePct       null.Float `json:"range_pct"`
	PosInRange     null.Float `json:"pos_in_range"`
	RelativeVolume null.Float `json:"relative_volume"`
}

// ScanResult はスキャナー1回分の結果です。
type ScanResult[R any] struct {
	Scanner  string `json:"scanner"`
	SortedBy string `json:"sorted_by"`
	Results  []R    `json:"results"`
}
