package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"scanner_backend/internal/feature/marketdata/domain"
)

// StatusFor はユースケースのエラーをHTTPステータスに変換します。
//
//	ErrInvalidRequest -> 400
//	ErrProvider       -> 502
//	それ以外           -> 500
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrProvider):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// WriteError はエラーをステータス付きの ErrorResponse として返します。
func WriteError(c *gin.Context, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "path", c.FullPath(), "status", status, "error", err)
	}
	c.JSON(status, ErrorResponse{Error: err.Error()})
}

// AsOf はリクエストの asOf を優先し、未指定なら now を秒精度のUTC ISO-8601 で返します。
func AsOf(requested string, now time.Time) string {
	if requested != "" {
		return requested
	}
	return now.UTC().Truncate(time.Second).Format(time.RFC3339)
}
