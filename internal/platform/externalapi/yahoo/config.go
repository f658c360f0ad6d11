// Package yahoo は Yahoo Finance の公開エンドポイント（スクリーナー・チャート・クォート）のクライアントを提供します。
package yahoo

import "time"

// DefaultBaseURL は Yahoo Finance API のベースURLです。
const DefaultBaseURL = "https://query1.finance.yahoo.com"

// DefaultUserAgent は User-Agent 未指定時に送るヘッダー値です。
const DefaultUserAgent = "Mozilla/5.0 (compatible; scanner-backend/1.0)"

// Config は Yahoo Finance クライアントの設定です。
type Config struct {
	BaseURL        string        // e.g. "https://query1.finance.yahoo.com"
	Timeout        time.Duration // HTTP request timeout
	MaxConcurrency int           // チャート取得の同時実行数
	RateLimitRPS   float64       // 毎秒のリクエスト上限（0以下で無制限）
	UserAgent      string
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.MaxConcurrency <= 0 {
		c.MaxConcurrency = 1
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	return c
}
