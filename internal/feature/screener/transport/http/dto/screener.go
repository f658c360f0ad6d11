// Package dto はscreenerフィーチャーのリクエスト・レスポンスDTOを定義します。
package dto

import "scanner_backend/internal/feature/screener/domain/entity"

// ScreenerRequest は POST /screener のボディです。
type ScreenerRequest struct {
	Type      string  `json:"type"`
	Limit     int     `json:"limit" binding:"max=1000"`
	MinPrice  float64 `json:"minPrice" binding:"min=0"`
	MinAvgVol int64   `json:"minAvgVol" binding:"min=0"`
	Session   string  `json:"session"`
	AsOf      string  `json:"asOf"`
}

// NewScreenerRequest は既定値を埋めたリクエストを返します。
func NewScreenerRequest() ScreenerRequest {
	return ScreenerRequest{
		Type:      entity.TypeGappers,
		Limit:     100,
		MinPrice:  1.0,
		MinAvgVol: 1_000_000,
		Session:   "regular",
	}
}

// ScreenerResponse は POST /screener のレスポンスです。
type ScreenerResponse struct {
	AsOf       string             `json:"asOf"`
	Candidates []entity.Candidate `json:"candidates"`
}
