// Package usecase はマーケットデータの正規化・検証・取得ユースケースを実装します。
package usecase

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// SafeFloat は任意の値を float64 へベストエフォートで変換します。
// 数値でない値、NaN、Inf は ok=false になります。例外は発生させません。
func SafeFloat(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case nil:
		return 0, false
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case int32:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	case map[string]any:
		// Yahoo の一部エンドポイントは {"raw": 1.23, "fmt": "1.23"} 形式で返す
		return SafeFloat(n["raw"])
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// SafeInt は任意の値を int64 へベストエフォートで変換します。小数部は切り捨てます。
func SafeInt(v any) (int64, bool) {
	f, ok := SafeFloat(v)
	if !ok {
		return 0, false
	}
	return int64(math.Trunc(f)), true
}

// SafeString は文字列フィールドを取り出し、前後の空白を除去します。
func SafeString(v any) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}
