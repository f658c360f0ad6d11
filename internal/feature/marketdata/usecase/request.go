package usecase

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"scanner_backend/internal/feature/marketdata/domain"
)

// BatchSize はプロバイダーへ一度に渡すティッカー数の上限です。
const BatchSize = 50

// SupportedIntervals は日中バー取得で受け付ける時間足です。
var SupportedIntervals = []string{"1m", "2m", "5m", "15m", "30m", "60m", "90m", "1h"}

// SupportedPeriods は日中バー取得で受け付ける期間です。
var SupportedPeriods = []string{"1d", "5d"}

// ValidateIntraday は interval / period の組み合わせを検証します。
// 不正な場合は ErrInvalidRequest をラップしたエラーを返します。
func ValidateIntraday(interval, period string) error {
	if !slices.Contains(SupportedIntervals, interval) {
		return fmt.Errorf("%w: unsupported interval %q (allowed: %s)",
			domain.ErrInvalidRequest, interval, strings.Join(SupportedIntervals, ","))
	}
	if !slices.Contains(SupportedPeriods, period) {
		return fmt.Errorf("%w: unsupported period %q (allowed: %s)",
			domain.ErrInvalidRequest, period, strings.Join(SupportedPeriods, ","))
	}
	return nil
}

// PeriodDays は "5d" 形式の期間を日数に変換します。大文字・前後空白は許容します。
func PeriodDays(period string) (int, bool) {
	p := strings.ToLower(strings.TrimSpace(period))
	if !strings.HasSuffix(p, "d") {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSuffix(p, "d"))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// Chunk はスライスを size 件ずつの連続した部分スライスに分割します。
// size <= 0 の場合は全体を1つのチャンクとして返します。
func Chunk[T any](items []T, size int) [][]T {
	if size <= 0 {
		return [][]T{items}
	}
	out := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		out = append(out, items[start:end])
	}
	return out
}
