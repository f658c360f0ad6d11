// Package handler はscannerフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"scanner_backend/internal/api"
	"scanner_backend/internal/feature/scanner/domain/entity"
	"scanner_backend/internal/feature/scanner/transport/http/dto"
	"scanner_backend/internal/feature/scanner/usecase"
	"scanner_backend/internal/platform/cache"
)

// ScannerUsecase は8種類のスキャナーを実行するユースケースです。
type ScannerUsecase interface {
	DayGainers(ctx context.Context, r usecase.DayGainersRequest) (entity.ScanResult[entity.DayGainerRow], cache.Info, error)
	HodVwapMomentum(ctx context.Context, r usecase.MomentumRequest) (entity.ScanResult[entity.MomentumRow], cache.Info, error)
	HodBreakouts(ctx context.Context, r usecase.MomentumRequest) (entity.ScanResult[entity.MomentumRow], cache.Info, error)
	VwapBreakouts(ctx context.Context, r usecase.MomentumRequest) (entity.ScanResult[entity.MomentumRow], cache.Info, error)
	VolumeSpikes(ctx context.Context, r usecase.VolumeSpikesRequest) (entity.ScanResult[entity.MomentumRow], cache.Info, error)
	HodVwapApproach(ctx context.Context, r usecase.ApproachRequest) (entity.ScanResult[entity.ApproachRow], cache.Info, error)
	HodApproach(ctx context.Context, r usecase.ApproachRequest) (entity.ScanResult[entity.ApproachRow], cache.Info, error)
	VwapApproach(ctx context.Context, r usecase.ApproachRequest) (entity.ScanResult[entity.ApproachRow], cache.Info, error)
}

// ScannerHandler は /scan/* のHTTPリクエストを処理します。
type ScannerHandler struct {
	uc  ScannerUsecase
	now func() time.Time
}

// NewScannerHandler は ScannerHandler を生成します。
func NewScannerHandler(uc ScannerUsecase) *ScannerHandler {
	return &ScannerHandler{uc: uc, now: time.Now}
}

type defaultable interface {
	ApplyDefaults()
}

// bind はボディを既定値入りの req にデコードし、失敗時は400を返して false を返します。
// 空のボディはすべて既定値として扱います。
func bind[T defaultable](c *gin.Context, req T) bool {
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(req); err != nil {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
			return false
		}
	}
	req.ApplyDefaults()
	return true
}

func respond[R any](c *gin.Context, asOf string, res entity.ScanResult[R], info cache.Info, err error) {
	if err != nil {
		api.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ScanResponse[R]{
		Scanner:  res.Scanner,
		AsOf:     asOf,
		SortedBy: res.SortedBy,
		Results:  res.Results,
		Cache:    info,
	})
}

// DayGainers は POST /scan/day-gainers を処理します。
func (h *ScannerHandler) DayGainers(c *gin.Context) {
	req := dto.NewDayGainersRequest()
	if !bind(c, &req) {
		return
	}
	res, info, err := h.uc.DayGainers(c.Request.Context(), req.ToUsecase())
	respond(c, api.AsOf(req.AsOf, h.now()), res, info, err)
}

// HodVwapMomentum は POST /scan/hod-vwap-momentum を処理します。
func (h *ScannerHandler) HodVwapMomentum(c *gin.Context) {
	req := dto.NewHodVwapMomentumRequest()
	if !bind(c, &req) {
		return
	}
	res, info, err := h.uc.HodVwapMomentum(c.Request.Context(), req.ToUsecase())
	respond(c, api.AsOf(req.AsOf, h.now()), res, info, err)
}

// HodBreakouts は POST /scan/hod-breakouts を処理します。
func (h *ScannerHandler) HodBreakouts(c *gin.Context) {
	req := dto.NewHodBreakoutsRequest()
	if !bind(c, &req) {
		return
	}
	res, info, err := h.uc.HodBreakouts(c.Request.Context(), req.ToUsecase())
	respond(c, api.AsOf(req.AsOf, h.now()), res, info, err)
}

// VwapBreakouts は POST /scan/vwap-breakouts を処理します。
func (h *ScannerHandler) VwapBreakouts(c *gin.Context) {
	req := dto.NewVwapBreakoutsRequest()
	if !bind(c, &req) {
		return
	}
	res, info, err := h.uc.VwapBreakouts(c.Request.Context(), req.ToUsecase())
	respond(c, api.AsOf(req.AsOf, h.now()), res, info, err)
}

// VolumeSpikes は POST /scan/volume-spikes を処理します。
func (h *ScannerHandler) VolumeSpikes(c *gin.Context) {
	req := dto.NewVolumeSpikesRequest()
	if !bind(c, &req) {
		return
	}
	res, info, err := h.uc.VolumeSpikes(c.Request.Context(), req.ToUsecase())
	respond(c, api.AsOf(req.AsOf, h.now()), res, info, err)
}

// HodVwapApproach は POST /scan/hod-vwap-approach を処理します。
func (h *ScannerHandler) HodVwapApproach(c *gin.Context) {
	req := dto.NewApproachRequest()
	if !bind(c, &req) {
		return
	}
	res, info, err := h.uc.HodVwapApproach(c.Request.Context(), req.ToUsecase())
	respond(c, api.AsOf(req.AsOf, h.now()), res, info, err)
}

// HodApproach は POST /scan/hod-approach を処理します。
func (h *ScannerHandler) HodApproach(c *gin.Context) {
	req := dto.NewApproachRequest()
	if !bind(c, &req) {
		return
	}
	res, info, err := h.uc.HodApproach(c.Request.Context(), req.ToUsecase())
	respond(c, api.AsOf(req.AsOf, h.now()), res, info, err)
}

// VwapApproach は POST /scan/vwap-approach を処理します。
func (h *ScannerHandler) VwapApproach(c *gin.Context) {
	req := dto.NewApproachRequest()
	if !bind(c, &req) {
		return
	}
	res, info, err := h.uc.VwapApproach(c.Request.Context(), req.ToUsecase())
	respond(c, api.AsOf(req.AsOf, h.now()), res, info, err)
}

// RegisterRoutes は /scan 配下に全スキャナーのルートを登録します。
func (h *ScannerHandler) RegisterRoutes(g *gin.RouterGroup) {
	g.POST("/day-gainers", h.DayGainers)
	g.POST("/hod-vwap-momentum", h.HodVwapMomentum)
	g.POST("/hod-breakouts", h.HodBreakouts)
	g.POST("/vwap-breakouts", h.VwapBreakouts)
	g.POST("/volume-spikes", h.VolumeSpikes)
	g.POST("/hod-vwap-approach", h.HodVwapApproach)
	g.POST("/hod-approach", h.HodApproach)
	g.POST("/vwap-approach", h.VwapApproach)
}
