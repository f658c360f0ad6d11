package dto

import (
	"scanner_backend/internal/feature/marketdata/usecase"
	"scanner_backend/internal/platform/cache"
)

// QuotesRequest は POST /quotes のリクエストボディです。
type QuotesRequest struct {
	Tickers  []string `json:"tickers" binding:"required,min=1,max=500"`
	Interval string   `json:"interval"`
	Period   string   `json:"period"`
	Prepost  bool     `json:"prepost"`
	AsOf     string   `json:"asOf"`
}

// ApplyDefaults は未指定の interval / period を補完します。
func (r *QuotesRequest) ApplyDefaults() {
	if r.Interval == "" {
		r.Interval = "1m"
	}
	if r.Period == "" {
		r.Period = "1d"
	}
}

// QuotesResponse は POST /quotes のレスポンスです。
type QuotesResponse struct {
	AsOf    string               `json:"asOf"`
	Results []usecase.QuotePrice `json:"results"`
	Cache   cache.Info           `json:"cache"`
}
