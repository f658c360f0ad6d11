// Package analytics は日中バーから取引セッション・相対出来高・特徴量を計算する純粋関数群です。
// 入力のバー列は変更しません。
package analytics

import (
	"time"
	_ "time/tzdata" // コンテナに zoneinfo が無くても America/New_York を解決する

	"scanner_backend/internal/feature/marketdata/domain/entity"
)

// 取引所ローカル時刻の秒数（0時起点）で表したセッション境界。
const (
	preOpen      = 4 * 3600
	regularOpen  = 9*3600 + 30*60
	regularClose = 16 * 3600
	postClose    = 20 * 3600
)

const dateLayout = "2006-01-02"

var exchangeLoc = mustLoadLocation(entity.ExchangeTimezone)

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// ExchangeLocation は取引所タイムゾーンを返します。
func ExchangeLocation() *time.Location { return exchangeLoc }

// Window はバーが属する時間帯です。
type Window int

const (
	WindowNone Window = iota
	WindowPre
	WindowRegular
	WindowPost
)

// Session は最新取引日のバーを時間帯ごとに分割したものです。
// 各バーの Time は取引所ローカル時刻に変換済みです。
type Session struct {
	Date    string // YYYY-MM-DD（取引所ローカル）
	Pre     entity.BarSeries
	Regular entity.BarSeries
	Post    entity.BarSeries
	// All はその日の pre/regular/post を時刻順に並べたものです。
	All entity.BarSeries
}

// Localize はバー列の時刻を取引所タイムゾーンに変換した新しいバー列を返します。
// 時刻はすでにタイムゾーン付きのため、UTC として解釈してから変換します。
func Localize(series entity.BarSeries) entity.BarSeries {
	out := make(entity.BarSeries, len(series))
	for i, b := range series {
		b.Time = b.Time.UTC().In(exchangeLoc)
		out[i] = b
	}
	return out
}

// WindowOf はローカル時刻が属する時間帯を返します。
// pre: [04:00, 09:30)、regular: [09:30, 16:00]、post: (16:00, 20:00]。
func WindowOf(local time.Time) Window {
	s := secondsOfDay(local)
	switch {
	case s >= regularOpen && s <= regularClose:
		return WindowRegular
	case s >= preOpen && s < regularOpen:
		return WindowPre
	case s > regularClose && s <= postClose:
		return WindowPost
	default:
		return WindowNone
	}
}

// SliceLatest は最後のバーの取引所ローカル日付を最新セッションとし、その日のバーを分割します。
// 前営業日のデータしか返らない場合もその日をセッションとして扱います。
func SliceLatest(series entity.BarSeries) (Session, bool) {
	if len(series) == 0 {
		return Session{}, false
	}
	local := Localize(series)
	date := local[len(local)-1].Time.Format(dateLayout)

	sess := Session{Date: date}
	for _, b := range local {
		if b.Time.Format(dateLayout) != date {
			continue
		}
		switch WindowOf(b.Time) {
		case WindowPre:
			sess.Pre = append(sess.Pre, b)
		case WindowRegular:
			sess.Regular = append(sess.Regular, b)
		case WindowPost:
			sess.Post = append(sess.Post, b)
		default:
			continue
		}
		sess.All = append(sess.All, b)
	}
	return sess, true
}

// DaySession は1取引日分の通常取引時間のバーです。
type DaySession struct {
	Date    string
	Regular entity.BarSeries
}

// RegularSessions は通常取引時間のバーを取引日ごとにまとめ、日付昇順で返します。
// 通常取引時間のバーが無い日は含めません。
func RegularSessions(series entity.BarSeries) []DaySession {
	var out []DaySession
	for _, b := range Localize(series) {
		if WindowOf(b.Time) != WindowRegular {
			continue
		}
		date := b.Time.Format(dateLayout)
		if n := len(out); n > 0 && out[n-1].Date == date {
			out[n-1].Regular = append(out[n-1].Regular, b)
			continue
		}
		out = append(out, DaySession{Date: date, Regular: entity.BarSeries{b}})
	}
	return out
}

func secondsOfDay(t time.Time) int {
	h, m, s := t.Clock()
	return h*3600 + m*60 + s
}
