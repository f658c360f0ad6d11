package entity

import "time"

// ExchangeTimezone は取引セッションを判定する取引所のタイムゾーンです。
const ExchangeTimezone = "America/New_York"

// Bar は1銘柄・1時点のOHLCVデータです。
// Time はタイムゾーン付きで保持し、High >= Low を満たします。
type Bar struct {
	Time   time.Time `json:"t"`
	Open   float64   `json:"o"`
	High   float64   `json:"h"`
	Low    float64   `json:"l"`
	Close  float64   `json:"c"`
	Volume int64     `json:"v"`
}

// BarSeries は時刻昇順に並んだ1銘柄分のバー列です。
type BarSeries []Bar

// Last は末尾のバーを返します。空の場合は false を返します。
func (s BarSeries) Last() (Bar, bool) {
	if len(s) == 0 {
		return Bar{}, false
	}
	return s[len(s)-1], true
}
