package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyBuilder(t *testing.T) {
	t.Parallel()

	key := NewKey("md", "universe").
		Int("limit", 50).
		Float("minPrice", 1.5).
		Float("maxPrice", 30).
		Bool("prepost", false).
		Str("interval", "5m").
		String()

	assert.Equal(t, "md:universe:limit=50:minPrice=1.5:maxPrice=30:prepost=false:interval=5m", key)
}

func TestKeyBuilder_Deterministic(t *testing.T) {
	t.Parallel()

	build := func() string {
		return NewKey("md", "scan", "day_gainers").Float("minChangePct", 3).Int("limit", 25).String()
	}
	assert.Equal(t, build(), build())
}

// TestSafe はsafe関数がRedisキーで問題となる文字を正しくエスケープすることを検証します。
func TestSafe(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected string
	}{
		{"AAPL", "AAPL"},
		{"BRK A", "BRK_A"},
		{"key:value", "key_value"},
		{"a b:c", "a_b_c"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, safe(tt.input))
		})
	}
}
