// Package handler はmarketdataフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"scanner_backend/internal/api"
	"scanner_backend/internal/feature/marketdata/domain/entity"
	"scanner_backend/internal/feature/marketdata/transport/http/dto"
	"scanner_backend/internal/feature/marketdata/usecase"
	"scanner_backend/internal/platform/cache"
)

// HistoryUsecase は単一銘柄のバー取得ユースケースです。
type HistoryUsecase interface {
	GetHistory(ctx context.Context, q usecase.HistoryQuery) (entity.BarSeries, cache.Info, error)
}

// QuotesUsecase は複数銘柄の価格取得ユースケースです。
type QuotesUsecase interface {
	GetQuotes(ctx context.Context, q usecase.QuotesQuery) ([]usecase.QuotePrice, cache.Info, error)
}

// MarketDataHandler は /history と /quotes のHTTPリクエストを処理します。
type MarketDataHandler struct {
	history HistoryUsecase
	quotes  QuotesUsecase
	now     func() time.Time
}

// NewMarketDataHandler は MarketDataHandler を生成します。
func NewMarketDataHandler(history HistoryUsecase, quotes QuotesUsecase) *MarketDataHandler {
	return &MarketDataHandler{history: history, quotes: quotes, now: time.Now}
}

// GetHistory は単一銘柄の日中バーをJSONで返します。
//
// エンドポイント例:
// GET /history?ticker=AAPL&interval=5m&period=1d&prepost=false
func (h *MarketDataHandler) GetHistory(c *gin.Context) {
	var q dto.HistoryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}
	q.ApplyDefaults()

	bars, info, err := h.history.GetHistory(c.Request.Context(), usecase.HistoryQuery{
		Ticker:   q.Ticker,
		Interval: q.Interval,
		Period:   q.Period,
		Prepost:  q.Prepost,
	})
	if err != nil {
		api.WriteError(c, err)
		return
	}

	out := make([]dto.BarResponse, 0, len(bars))
	for _, b := range bars {
		out = append(out, dto.BarResponse{
			T: b.Time.UTC().Format(time.RFC3339),
			O: b.Open,
			H: b.High,
			L: b.Low,
			C: b.Close,
			V: b.Volume,
		})
	}

	c.JSON(http.StatusOK, dto.HistoryResponse{
		Ticker:   q.Ticker,
		Interval: q.Interval,
		Period:   q.Period,
		Prepost:  q.Prepost,
		Timezone: entity.ExchangeTimezone,
		Bars:     out,
		Cache:    info,
	})
}

// PostQuotes は複数銘柄の直近価格を返します。
func (h *MarketDataHandler) PostQuotes(c *gin.Context) {
	var req dto.QuotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}
	req.ApplyDefaults()

	results, info, err := h.quotes.GetQuotes(c.Request.Context(), usecase.QuotesQuery{
		Tickers:  req.Tickers,
		Interval: req.Interval,
		Period:   req.Period,
		Prepost:  req.Prepost,
	})
	if err != nil {
		api.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.QuotesResponse{
		AsOf:    api.AsOf(req.AsOf, h.now()),
		Results: results,
		Cache:   info,
	})
}
