package analytics

import (
	"testing"
	"time"

	"scanner_backend/internal/feature/marketdata/domain/entity"
)

// nyBar は America/New_York のローカル時刻でバーを作り、UTCに変換して返します。
func nyBar(t *testing.T, date, clock string, o, h, l, c float64, v int64) entity.Bar {
	t.Helper()
	tm, err := time.ParseInLocation("2006-01-02 15:04", date+" "+clock, ExchangeLocation())
	if err != nil {
		t.Fatalf("parse %s %s: %v", date, clock, err)
	}
	return entity.Bar{Time: tm.UTC(), Open: o, High: h, Low: l, Close: c, Volume: v}
}

// flat は OHLC がすべて同じ値のバーです。
func flat(t *testing.T, date, clock string, px float64, v int64) entity.Bar {
	t.Helper()
	return nyBar(t, date, clock, px, px, px, px, v)
}
