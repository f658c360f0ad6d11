// Package dto はscannerフィーチャーのリクエスト・レスポンスDTOを定義します。
//
// 各リクエストは既定値を埋めた構造体にボディをデコードするため、
// 省略したフィールドには既定値が入ります。
package dto

import (
	"strings"

	"scanner_backend/internal/feature/scanner/usecase"
	"scanner_backend/internal/platform/cache"
)

// UniverseRequest は全スキャナー共通のユニバース・バー取得条件です。
// minChangePct はパーセントポイント（3.0 == +3%）です。
type UniverseRequest struct {
	UniverseLimit int     `json:"universeLimit" binding:"max=500"`
	Limit         int     `json:"limit" binding:"max=200"`
	MinPrice      float64 `json:"minPrice" binding:"min=0"`
	MaxPrice      float64 `json:"maxPrice" binding:"min=0"`
	MinAvgVol     float64 `json:"minAvgVol" binding:"min=0"`
	MinChangePct  float64 `json:"minChangePct" binding:"min=0,max=1000"`
	Interval      string  `json:"interval"`
	Period        string  `json:"period"`
	Prepost       bool    `json:"prepost"`
	CloseSlopeN   int     `json:"closeSlopeN"`
	AsOf          string  `json:"asOf"`
}

func defaultUniverse() UniverseRequest {
	return UniverseRequest{
		UniverseLimit: 50,
		Limit:         25,
		MinPrice:      1.5,
		MaxPrice:      30,
		MinAvgVol:     1_000_000,
		MinChangePct:  3,
		Interval:      "5m",
		Period:        "1d",
		CloseSlopeN:   6,
	}
}

// ApplyDefaults は0以下の件数と空の interval / period を既定値に戻します。
func (r *UniverseRequest) ApplyDefaults() {
	if r.UniverseLimit <= 0 {
		r.UniverseLimit = 50
	}
	if r.Limit <= 0 {
		r.Limit = 25
	}
	if strings.TrimSpace(r.Interval) == "" {
		r.Interval = "5m"
	}
	if strings.TrimSpace(r.Period) == "" {
		r.Period = "1d"
	}
}

// ToUsecase はユースケースの条件に変換します。
func (r UniverseRequest) ToUsecase() usecase.UniverseRequest {
	return usecase.UniverseRequest{
		UniverseLimit: r.UniverseLimit,
		Limit:         r.Limit,
		MinPrice:      r.MinPrice,
		MaxPrice:      r.MaxPrice,
		MinAvgVol:     r.MinAvgVol,
		MinChangePct:  r.MinChangePct,
		Interval:      strings.TrimSpace(r.Interval),
		Period:        strings.TrimSpace(r.Period),
		Prepost:       r.Prepost,
		CloseSlopeN:   r.CloseSlopeN,
	}
}

// DayGainersRequest は POST /scan/day-gainers のボディです。
type DayGainersRequest struct {
	UniverseRequest
	MinTodayVolume int64 `json:"minTodayVolume" binding:"min=0"`
}

// NewDayGainersRequest は既定値を埋めたリクエストを返します。
func NewDayGainersRequest() DayGainersRequest {
	return DayGainersRequest{UniverseRequest: defaultUniverse()}
}

func (r DayGainersRequest) ToUsecase() usecase.DayGainersRequest {
	return usecase.DayGainersRequest{UniverseRequest: r.UniverseRequest.ToUsecase(), MinTodayVolume: r.MinTodayVolume}
}

// MomentumRequest は hod-vwap-momentum / hod-breakouts / vwap-breakouts のボディです。
// maxDistToHod はパーセントポイントです。
type MomentumRequest struct {
	UniverseRequest
	MinTodayVolume   int64   `json:"minTodayVolume" binding:"min=0"`
	MinRelVol        float64 `json:"minRelVol" binding:"min=0,max=100"`
	MaxDistToHod     float64 `json:"maxDistToHod" binding:"min=0,max=100"`
	RequireHodBreak  bool    `json:"requireHodBreak"`
	RequireVwapBreak bool    `json:"requireVwapBreak"`
}

// NewHodVwapMomentumRequest は hod-vwap-momentum の既定値を埋めたリクエストを返します。
func NewHodVwapMomentumRequest() MomentumRequest {
	return MomentumRequest{UniverseRequest: defaultUniverse(), MinTodayVolume: 200_000, MinRelVol: 1.7, MaxDistToHod: 1.0}
}

// NewHodBreakoutsRequest は hod-breakouts の既定値を埋めたリクエストを返します。
func NewHodBreakoutsRequest() MomentumRequest {
	return MomentumRequest{UniverseRequest: defaultUniverse(), MinTodayVolume: 150_000, MinRelVol: 1.4, MaxDistToHod: 1.0}
}

// NewVwapBreakoutsRequest は vwap-breakouts の既定値を埋めたリクエストを返します。
func NewVwapBreakoutsRequest() MomentumRequest {
	return MomentumRequest{UniverseRequest: defaultUniverse(), MinTodayVolume: 200_000, MinRelVol: 1.7}
}

func (r MomentumRequest) ToUsecase() usecase.MomentumRequest {
	return usecase.MomentumRequest{
		UniverseRequest:  r.UniverseRequest.ToUsecase(),
		MinTodayVolume:   r.MinTodayVolume,
		MinRelVol:        r.MinRelVol,
		MaxDistToHOD:     r.MaxDistToHod,
		RequireHodBreak:  r.RequireHodBreak,
		RequireVwapBreak: r.RequireVwapBreak,
	}
}

// VolumeSpikesRequest は POST /scan/volume-spikes のボディです。
type VolumeSpikesRequest struct {
	UniverseRequest
	MinTodayVolume int64   `json:"minTodayVolume" binding:"min=0"`
	MinRelVol      float64 `json:"minRelVol" binding:"min=0,max=100"`
}

// NewVolumeSpikesRequest は既定値を埋めたリクエストを返します。
func NewVolumeSpikesRequest() VolumeSpikesRequest {
	return VolumeSpikesRequest{UniverseRequest: defaultUniverse(), MinTodayVolume: 200_000, MinRelVol: 2.0}
}

func (r VolumeSpikesRequest) ToUsecase() usecase.VolumeSpikesRequest {
	return usecase.VolumeSpikesRequest{
		UniverseRequest: r.UniverseRequest.ToUsecase(),
		MinTodayVolume:  r.MinTodayVolume,
		MinRelVol:       r.MinRelVol,
	}
}

// ApproachRequest は接近系3エンドポイントのボディです。
// hod-approach では maxAbsVwapDistance、vwap-approach では maxDistToHod を無視します。
type ApproachRequest struct {
	UniverseRequest
	MinSetupPrice      float64 `json:"minSetupPrice" binding:"min=0"`
	MaxSetupPrice      float64 `json:"maxSetupPrice" binding:"min=0"`
	MinTodayVolume     int64   `json:"minTodayVolume" binding:"min=0"`
	MinRangePct        float64 `json:"minRangePct" binding:"min=0,max=100"`
	MinPosInRange      float64 `json:"minPosInRange" binding:"min=0,max=1"`
	MaxPosInRange      float64 `json:"maxPosInRange" binding:"min=0,max=1"`
	MaxAbsVwapDistance float64 `json:"maxAbsVwapDistance" binding:"min=0,max=100"`
	MaxDistToHod       float64 `json:"maxDistToHod" binding:"min=0,max=100"`
	MinRelVol          float64 `json:"minRelVol" binding:"min=0,max=100"`
	AdaptiveThresholds bool    `json:"adaptiveThresholds"`
}

// NewApproachRequest は既定値を埋めたリクエストを返します。
func NewApproachRequest() ApproachRequest {
	return ApproachRequest{
		UniverseRequest:    defaultUniverse(),
		MinSetupPrice:      2,
		MaxSetupPrice:      60,
		MinTodayVolume:     200_000,
		MinRangePct:        7,
		MinPosInRange:      0.50,
		MaxPosInRange:      0.995,
		MaxAbsVwapDistance: 1.7,
		MaxDistToHod:       2.0,
		MinRelVol:          1.2,
		AdaptiveThresholds: true,
	}
}

func (r ApproachRequest) ToUsecase() usecase.ApproachRequest {
	return usecase.ApproachRequest{
		UniverseRequest:    r.UniverseRequest.ToUsecase(),
		MinSetupPrice:      r.MinSetupPrice,
		MaxSetupPrice:      r.MaxSetupPrice,
		MinTodayVolume:     r.MinTodayVolume,
		MinRangePct:        r.MinRangePct,
		MinPosInRange:      r.MinPosInRange,
		MaxPosInRange:      r.MaxPosInRange,
		MaxAbsVwapDistance: r.MaxAbsVwapDistance,
		MaxDistToHOD:       r.MaxDistToHod,
		MinRelVol:          r.MinRelVol,
		AdaptiveThresholds: r.AdaptiveThresholds,
	}
}

// ScanResponse は /scan/* 共通のレスポンスです。
type ScanResponse[R any] struct {
	Scanner  string     `json:"scanner"`
	AsOf     string     `json:"asOf"`
	SortedBy string     `json:"sorted_by"`
	Results  []R        `json:"results"`
	Cache    cache.Info `json:"cache"`
}
