// Package ratelimiter は外部API呼び出しの頻度を制限します。
package ratelimiter

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiterInterface は、API呼び出しなどの操作の頻度を制限するインターフェースです。
type RateLimiterInterface interface {
	Wait(ctx context.Context) error
}

// RateLimiter はトークンバケットで呼び出し頻度を制限します。
type RateLimiter struct {
	name string
	l    *rate.Limiter
}

var _ RateLimiterInterface = (*RateLimiter)(nil)

// NewRateLimiter は毎秒 rps 回、最大 burst 回の同時取得を許すリミッターを生成します。
// rps <= 0 の場合は無制限になります。
func NewRateLimiter(name string, rps float64, burst int) *RateLimiter {
	if rps <= 0 {
		return &RateLimiter{name: name}
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{name: name, l: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Wait はトークンが得られるまで待機します。ctx がキャンセルされた場合はそのエラーを返します。
func (r *RateLimiter) Wait(ctx context.Context) error {
	if r == nil || r.l == nil {
		return nil
	}
	res := r.l.Reserve()
	delay := res.Delay()
	if delay <= 0 {
		return nil
	}
	slog.Debug("rate limit hit, waiting", "limiter", r.name, "delay", delay)

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		res.Cancel()
		return ctx.Err()
	}
}
