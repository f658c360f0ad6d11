package dto

// ScreenerResponse は /v1/finance/screener 系のレスポンスです。
type ScreenerResponse struct {
	Finance struct {
		Result []struct {
			ID     string           `json:"id"`
			Quotes []map[string]any `json:"quotes"`
		} `json:"result"`
		Error *APIError `json:"error"`
	} `json:"finance"`
}

// ScreenerOperand はカスタムスクリーナーの条件ツリーの1ノードです。
type ScreenerOperand struct {
	Operator string `json:"operator"`
	Operands []any  `json:"operands"`
}

// CustomScreenerRequest はカスタムスクリーナーのリクエストボディです。
type CustomScreenerRequest struct {
	Size      int             `json:"size"`
	Offset    int             `json:"offset"`
	SortField string          `json:"sortField"`
	SortType  string          `json:"sortType"`
	QuoteType string          `json:"quoteType"`
	Query     ScreenerOperand `json:"query"`
}

// QuoteResponse は /v7/finance/quote のレスポンスです。
type QuoteResponse struct {
	QuoteResponse struct {
		Result []map[string]any `json:"result"`
		Error  *APIError        `json:"error"`
	} `json:"quoteResponse"`
}
