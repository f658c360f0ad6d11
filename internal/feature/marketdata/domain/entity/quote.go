// Package entity はマーケットデータのドメインモデルを定義します。
package entity

import "github.com/guregu/null/v6"

// RawQuote はプロバイダーから受け取った加工前のクォートです。
// エンドポイントごとにフィールド名が揃っていないため、マップのまま保持します。
type RawQuote map[string]any

// Quote は正規化済みのクォートです。
// ChangePct は常に比率で保持します（0.12 == 12%）。
type Quote struct {
	Ticker         string      `json:"ticker"`
	Last           null.Float  `json:"last"`
	Open           null.Float  `json:"open"`
	PrevClose      null.Float  `json:"prevClose"`
	Volume         null.Int    `json:"volume"`
	ChangePct      null.Float  `json:"changePct"`
	Exchange       string      `json:"exchange,omitempty"`
	ExchangeName   string      `json:"exchangeName,omitempty"`
	QuoteType      string      `json:"quoteType,omitempty"`
	AvgDailyVol3m  null.Float  `json:"avgDailyVol3m"`
	AvgDailyVol10d null.Float  `json:"avgDailyVol10d"`
	MarketCap      null.Float  `json:"marketCap"`
	FloatShares    null.Float  `json:"floatShares"`
	ShortName      null.String `json:"shortName"`
}

// LiquidityRef は流動性の基準値を返します。
// 10日平均出来高、3ヶ月平均出来高、当日出来高の順にフォールバックします。
func (q Quote) LiquidityRef() null.Float {
	if q.AvgDailyVol10d.Valid {
		return q.AvgDailyVol10d
	}
	if q.AvgDailyVol3m.Valid {
		return q.AvgDailyVol3m
	}
	if q.Volume.Valid {
		return null.FloatFrom(float64(q.Volume.Int64))
	}
	return null.Float{}
}
