package entity

// 定義済みスクリーナーID。
const (
	ScreenerDayGainers      = "day_gainers"
	ScreenerMostActives     = "most_actives"
	ScreenerSmallCapGainers = "small_cap_gainers"
)

// ScreenerQuery はプロバイダーのスクリーナー呼び出し条件です。
// ID が空の場合は MinPrice / MinVolume / Region によるカスタム検索になります。
type ScreenerQuery struct {
	ID        string
	Count     int
	MinPrice  float64
	MinVolume int64
	Region    string
}

// IsCustom はカスタム検索かどうかを返します。
func (q ScreenerQuery) IsCustom() bool { return q.ID == "" }
