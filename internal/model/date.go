package model

import (
	"time"
)

// DateLayout は日付の永続化フォーマット（ISO-8601）です
const DateLayout = "2006-01-02"

// DateOf は時刻を UTC の日付（0時0分）に正規化します
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Date は年月日から日付を作成します
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// ParseDate は YYYY-MM-DD 形式の文字列を日付に変換します
// 存在しない日付（2025-02-30 など）はエラーになります
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

// FormatDate は日付を YYYY-MM-DD 形式で返します
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
