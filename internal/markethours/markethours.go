// Package markethours answers "is the Taiwan stock market trading
// right now" so the poller stays quiet outside the session.
package markethours

import "time"

// Taipei is the exchange-local zone (UTC+8, no DST).
var Taipei = time.FixedZone("Asia/Taipei", 8*3600)

// TWSE regular session, Taipei time.
const (
	OpenHour    = 9
	OpenMinute  = 0
	CloseHour   = 13
	CloseMinute = 30
)

// IsOpen returns true if t falls within the TWSE regular session
// (09:00–13:30 Taipei, Mon–Fri, excluding holidays).
func IsOpen(t time.Time) bool {
	local := t.In(Taipei)
	if !IsTradingDay(local) {
		return false
	}
	hm := local.Hour()*60 + local.Minute()
	return hm >= OpenHour*60+OpenMinute && hm < CloseHour*60+CloseMinute
}

// IsTradingDay returns true if t is a weekday and not a holiday.
func IsTradingDay(t time.Time) bool {
	local := t.In(Taipei)
	wd := local.Weekday()
	if wd == time.Saturday || wd == time.Sunday {
		return false
	}
	return !IsHoliday(local)
}

// NextOpen returns the next session open (09:00 Taipei on the next
// trading day). If t is before today's open on a trading day, today's
// open is returned.
func NextOpen(t time.Time) time.Time {
	local := t.In(Taipei)

	todayOpen := time.Date(local.Year(), local.Month(), local.Day(), OpenHour, OpenMinute, 0, 0, Taipei)
	if local.Before(todayOpen) && IsTradingDay(local) {
		return todayOpen
	}

	d := local.AddDate(0, 0, 1)
	for i := 0; i < 30; i++ { // Lunar New Year closures can span over a week
		if IsTradingDay(d) {
			return time.Date(d.Year(), d.Month(), d.Day(), OpenHour, OpenMinute, 0, 0, Taipei)
		}
		d = d.AddDate(0, 0, 1)
	}
	return time.Date(local.Year(), local.Month(), local.Day()+1, OpenHour, OpenMinute, 0, 0, Taipei)
}

// TodayClose returns today's session close (13:30 Taipei).
func TodayClose(t time.Time) time.Time {
	local := t.In(Taipei)
	return time.Date(local.Year(), local.Month(), local.Day(), CloseHour, CloseMinute, 0, 0, Taipei)
}
