// Package handler はプラットフォームレベルのエンドポイント用HTTPハンドラーを提供します。
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthResponse は /health のレスポンスです。
type HealthResponse struct {
	Status string `json:"status"`
	Cache  string `json:"cache"`
}

// NewHealth はサービスヘルスチェック用ハンドラーを生成します。
// cacheBackend は稼働中のキャッシュストア名（"redis" / "upstash" / "sql" / "none"）です。
func NewHealth(cacheBackend string) gin.HandlerFunc {
	if cacheBackend == "" {
		cacheBackend = "none"
	}
	return func(c *gin.Context) {
		// 明示的にキャッシュを防止
		c.Header("Cache-Control", "no-store")

		switch c.Request.Method {
		case http.MethodHead:
			c.Status(http.StatusOK)
		case http.MethodOptions:
			c.Status(http.StatusNoContent)
		default:
			c.JSON(http.StatusOK, HealthResponse{Status: "ok", Cache: cacheBackend})
		}
	}
}
