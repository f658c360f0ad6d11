// Package entity はレガシースクリーナーの候補銘柄を定義します。
package entity

import "github.com/guregu/null/v6"

// スクリーナー種別。
const (
	TypeGappers  = "gappers"
	TypeMomentum = "momentum"
	TypeCustom   = "custom"
)

// Candidate はスクリーナーが返す1銘柄です。GapPct は比率です。
type Candidate struct {
	Ticker    string     `json:"ticker"`
	Last      null.Float `json:"last"`
	Open      null.Float `json:"open"`
	PrevClose null.Float `json:"prevClose"`
	GapPct    null.Float `json:"gapPct"`
	Volume    null.Int   `json:"volume"`
}
