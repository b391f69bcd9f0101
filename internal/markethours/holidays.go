package markethours

import "time"

// TWSE market closures for 2026.
// Source: TWSE published holiday schedule.
var twseHolidays2026 = []struct {
	month time.Month
	day   int
}{
	{time.January, 1},    // 元旦
	{time.February, 13},  // 農曆春節前調整放假
	{time.February, 16},  // 農曆除夕
	{time.February, 17},  // 春節
	{time.February, 18},  // 春節
	{time.February, 19},  // 春節
	{time.February, 20},  // 春節
	{time.March, 2},      // 和平紀念日補假
	{time.April, 3},      // 兒童節調整放假
	{time.April, 6},      // 清明節補假
	{time.May, 1},        // 勞動節
	{time.June, 19},      // 端午節
	{time.September, 25}, // 中秋節
	{time.October, 9},    // 國慶日調整放假
	{time.October, 26},   // 光復節補假
}

var holidaySet map[string]bool

func init() {
	holidaySet = make(map[string]bool, len(twseHolidays2026))
	for _, h := range twseHolidays2026 {
		holidaySet[dateKey(2026, h.month, h.day)] = true
	}
}

// IsHoliday returns true if the date (in Taipei) is a market closure.
func IsHoliday(t time.Time) bool {
	local := t.In(Taipei)
	return holidaySet[dateKey(local.Year(), local.Month(), local.Day())]
}

func dateKey(year int, month time.Month, day int) string {
	return time.Date(year, month, day, 0, 0, 0, 0, Taipei).Format("2006-01-02")
}
