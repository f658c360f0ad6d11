// Package dto は Yahoo Finance API のレスポンス形状を定義します。
package dto

// APIError は各エンドポイント共通のエラー表現です。
type APIError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// ChartResponse は /v8/finance/chart のレスポンスです。
// 欠損値は null で返るため、ポインタで受けます。
type ChartResponse struct {
	Chart struct {
		Result []ChartResult `json:"result"`
		Error  *APIError     `json:"error"`
	} `json:"chart"`
}

// ChartResult は1銘柄分のチャートです。
type ChartResult struct {
	Meta struct {
		Symbol           string `json:"symbol"`
		ExchangeTimezone string `json:"exchangeTimezoneName"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []ChartQuote `json:"quote"`
	} `json:"indicators"`
}

// ChartQuote は timestamp と同じ長さを持つOHLCV配列です。
type ChartQuote struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*float64 `json:"volume"`
}
