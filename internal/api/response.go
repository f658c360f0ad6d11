// Package api はHTTPレスポンスで共有されるボディ型とエラー変換を定義します。
package api

// ErrorResponse はエラー時のレスポンスボディです。
type ErrorResponse struct {
	Error string `json:"error"`
}
