// Package handler はscreenerフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"scanner_backend/internal/api"
	"scanner_backend/internal/feature/screener/domain/entity"
	"scanner_backend/internal/feature/screener/transport/http/dto"
	"scanner_backend/internal/feature/screener/usecase"
	"scanner_backend/internal/platform/cache"
)

// ScreenerUsecase はレガシースクリーナーのユースケースです。
type ScreenerUsecase interface {
	Screen(ctx context.Context, q usecase.Query) ([]entity.Candidate, cache.Info, error)
}

// ScreenerHandler は POST /screener を処理します。
type ScreenerHandler struct {
	uc  ScreenerUsecase
	now func() time.Time
}

// NewScreenerHandler は ScreenerHandler を生成します。
func NewScreenerHandler(uc ScreenerUsecase) *ScreenerHandler {
	return &ScreenerHandler{uc: uc, now: time.Now}
}

// PostScreener は種別に応じた候補銘柄を返します。
//
// リクエスト例:
// POST /screener {"type":"gappers","limit":20}
func (h *ScreenerHandler) PostScreener(c *gin.Context) {
	req := dto.NewScreenerRequest()
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
			return
		}
	}

	candidates, _, err := h.uc.Screen(c.Request.Context(), usecase.Query{
		Type:      req.Type,
		Limit:     req.Limit,
		MinPrice:  req.MinPrice,
		MinAvgVol: req.MinAvgVol,
		Session:   req.Session,
	})
	if err != nil {
		api.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ScreenerResponse{
		AsOf:       api.AsOf(req.AsOf, h.now()),
		Candidates: candidates,
	})
}
