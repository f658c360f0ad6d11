// Package dto はmarketdataフィーチャーのリクエスト・レスポンスDTOを定義します。
package dto

import "scanner_backend/internal/platform/cache"

// HistoryQuery は GET /history のクエリパラメータです。
type HistoryQuery struct {
	Ticker   string `form:"ticker" binding:"required"`
	Interval string `form:"interval"`
	Period   string `form:"period"`
	Prepost  bool   `form:"prepost"`
}

// ApplyDefaults は未指定の interval / period を補完します。
func (q *HistoryQuery) ApplyDefaults() {
	if q.Interval == "" {
		q.Interval = "1m"
	}
	if q.Period == "" {
		q.Period = "1d"
	}
}

// BarResponse は1本のバーです。t はUTCのISO-8601文字列です。
type BarResponse struct {
	T string  `json:"t"`
	O float64 `json:"o"`
	H float64 `json:"h"`
	L float64 `json:"l"`
	C float64 `json:"c"`
	V int64   `json:"v"`
}

// HistoryResponse は GET /history のレスポンスです。
type HistoryResponse struct {
	Ticker   string        `json:"ticker"`
	Interval string        `json:"interval"`
	Period   string        `json:"period"`
	Prepost  bool          `json:"prepost"`
	Timezone string        `json:"timezone"`
	Bars     []BarResponse `json:"bars"`
	Cache    cache.Info    `json:"cache"`
}
