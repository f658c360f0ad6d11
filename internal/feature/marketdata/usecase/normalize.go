package usecase

import (
	"github.com/guregu/null/v6"

	"scanner_backend/internal/feature/marketdata/domain/entity"
)

// 出力フィールドごとの参照優先順位です。先頭から順に、変換できた最初の値を採用します。
var (
	tickerFields      = []string{"symbol", "ticker"}
	lastFields        = []string{"regularMarketPrice", "postMarketPrice", "preMarketPrice", "price", "last"}
	openFields        = []string{"regularMarketOpen", "open"}
	prevCloseFields   = []string{"regularMarketPreviousClose", "previousClose", "prevClose"}
	volumeFields      = []string{"regularMarketVolume", "volume"}
	percentFields     = []string{"regularMarketChangePercent", "changePercent"}
	exchangeFields    = []string{"exchange", "exchangeCode"}
	exchangeNameField = []string{"fullExchangeName", "exchangeName"}
	quoteTypeFields   = []string{"quoteType", "typeDisp"}
	avgVol3mFields    = []string{"averageDailyVolume3Month", "avgDailyVol3m"}
	avgVol10dFields   = []string{"averageDailyVolume10Day", "avgDailyVol10d"}
	marketCapFields   = []string{"marketCap"}
	floatSharesFields = []string{"floatShares", "sharesFloat"}
	nameFields        = []string{"shortName", "longName", "displayName", "name"}
)

// NormalizeQuote はフィールド名の揃っていない生クォートを正規化済み Quote に変換します。
// symbol / ticker のどちらも無い場合は ok=false を返します。
//
// ChangePct は (last - prevClose) / prevClose を最優先とし、計算できない場合のみ
// プロバイダーのパーセント値を100で割って比率に変換します。
func NormalizeQuote(raw entity.RawQuote) (entity.Quote, bool) {
	ticker, ok := pickString(raw, tickerFields)
	if !ok {
		return entity.Quote{}, false
	}

	q := entity.Quote{
		Ticker:         ticker,
		Last:           pickFloat(raw, lastFields),
		Open:           pickFloat(raw, openFields),
		PrevClose:      pickFloat(raw, prevCloseFields),
		Volume:         pickVolume(raw, volumeFields),
		AvgDailyVol3m:  pickFloat(raw, avgVol3mFields),
		AvgDailyVol10d: pickFloat(raw, avgVol10dFields),
		MarketCap:      pickFloat(raw, marketCapFields),
		FloatShares:    pickFloat(raw, floatSharesFields),
	}
	q.Exchange, _ = pickString(raw, exchangeFields)
	q.ExchangeName, _ = pickString(raw, exchangeNameField)
	q.QuoteType, _ = pickString(raw, quoteTypeFields)
	if name, ok := pickString(raw, nameFields); ok {
		q.ShortName = null.StringFrom(name)
	}

	switch {
	case q.Last.Valid && q.PrevClose.Valid && q.PrevClose.Float64 != 0:
		q.ChangePct = null.FloatFrom((q.Last.Float64 - q.PrevClose.Float64) / q.PrevClose.Float64)
	default:
		if pct := pickFloat(raw, percentFields); pct.Valid {
			q.ChangePct = null.FloatFrom(pct.Float64 / 100)
		}
	}
	return q, true
}

// NormalizeQuotes はクォートをまとめて正規化し、ティッカーを持たないものを除外します。
func NormalizeQuotes(raws []entity.RawQuote) []entity.Quote {
	out := make([]entity.Quote, 0, len(raws))
	for _, r := range raws {
		if q, ok := NormalizeQuote(r); ok {
			out = append(out, q)
		}
	}
	return out
}

func pickFloat(raw entity.RawQuote, fields []string) null.Float {
	for _, f := range fields {
		if v, ok := SafeFloat(raw[f]); ok {
			return null.FloatFrom(v)
		}
	}
	return null.Float{}
}

func pickVolume(raw entity.RawQuote, fields []string) null.Int {
	for _, f := range fields {
		if v, ok := SafeInt(raw[f]); ok && v >= 0 {
			return null.IntFrom(v)
		}
	}
	return null.Int{}
}

func pickString(raw entity.RawQuote, fields []string) (string, bool) {
	for _, f := range fields {
		if s, ok := SafeString(raw[f]); ok {
			return s, true
		}
	}
	return "", false
}
