// Package db はキャッシュ用SQLデータベースへの接続を提供します。
package db

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const retryInterval = 3 * time.Second

// Opener は DSN から gorm.DB を開く関数です。テストで差し替えます。
type Opener func(dsn string) (*gorm.DB, error)

// Dialector は接続URLのスキームから gorm のダイアレクタと DSN を決定します。
//
//	postgres://... / postgresql://...  -> PostgreSQL
//	sqlite://path / file:path / *.db   -> SQLite
func Dialector(url string) (gorm.Dialector, error) {
	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return postgres.Open(url), nil
	case strings.HasPrefix(url, "sqlite://"):
		return sqlite.Open(strings.TrimPrefix(url, "sqlite://")), nil
	case strings.HasPrefix(url, "file:"), strings.HasSuffix(url, ".db"), url == ":memory:":
		return sqlite.Open(url), nil
	default:
		return nil, fmt.Errorf("unsupported database url scheme: %q", url)
	}
}

// Open は URL に対応するドライバで接続します。接続に失敗した場合は timeout までリトライします。
func Open(url string, timeout time.Duration) (*gorm.DB, error) {
	if _, err := Dialector(url); err != nil {
		return nil, err
	}
	opener := func(u string) (*gorm.DB, error) {
		d, err := Dialector(u)
		if err != nil {
			return nil, err
		}
		return gorm.Open(d, &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
	}
	return ConnectWithRetry(url, timeout, opener)
}

// ConnectWithRetry は接続成功まで retryInterval 間隔で再試行し、timeout 経過後にエラーを返します。
func ConnectWithRetry(dsn string, timeout time.Duration, open Opener) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	for {
		db, err := open(dsn)
		if err == nil {
			return db, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("db connect failed after %s: %w", timeout, err)
		}
		slog.Warn("DB connect failed, retrying", "error", err)
		time.Sleep(retryInterval)
	}
}
