// Package domain はマーケットデータ系フィーチャー共通のドメインエラーを定義します。
package domain

import "errors"

// 上位レイヤー（ハンドラー）は errors.Is で判定し、HTTPステータスに変換します。
var (
	// ErrInvalidRequest はプロバイダー呼び出し前に弾くべき不正なリクエストを表します（400）。
	ErrInvalidRequest = errors.New("invalid request")

	// ErrProvider はマーケットデータ取得元のネットワーク・パースエラーを表します（502）。
	ErrProvider = errors.New("market data provider error")
)
