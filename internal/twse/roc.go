// Package twse fetches real-time quotes and daily history from the
// Taiwan Stock Exchange and TPEx public endpoints. Dates arrive in the
// ROC (Minguo) calendar and prices as comma-grouped strings with "-"
// placeholders; everything is normalized here, at ingestion, so the
// rest of the system only ever sees Gregorian dates and plain floats.
package twse

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// taipei is the exchange-local zone for all parsed dates.
var taipei = time.FixedZone("Asia/Taipei", 8*3600)

// ParseROCDate converts a Minguo-calendar date string such as
// "114/08/23" to a Gregorian time in the exchange zone.
// ROC year + 1911 = Gregorian year.
func ParseROCDate(s string) (time.Time, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("roc date %q: want year/month/day", s)
	}
	y, err := strconv.Atoi(parts[0])
	if err != nil {
		return time.Time{}, fmt.Errorf("roc date %q: year: %w", s, err)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("roc date %q: month: %w", s, err)
	}
	d, err := strconv.Atoi(parts[2])
	if err != nil {
		return time.Time{}, fmt.Errorf("roc date %q: day: %w", s, err)
	}
	if m < 1 || m > 12 || d < 1 || d > 31 {
		return time.Time{}, fmt.Errorf("roc date %q: out of range", s)
	}
	return time.Date(y+1911, time.Month(m), d, 0, 0, 0, 0, taipei), nil
}

// rocMonth formats a month for TPEx query strings ("114/08").
func rocMonth(t time.Time) string {
	return fmt.Sprintf("%d/%02d", t.Year()-1911, int(t.Month()))
}

// parsePrice strips comma grouping from an exchange price field.
// Placeholders ("-", "--", empty) become NaN rather than an error so a
// single suspended instrument degrades to a null indicator point
// instead of aborting the whole series.
func parsePrice(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" || s == "-" || s == "--" {
		return math.NaN(), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN(), err
	}
	return f, nil
}

// parseShares parses a comma-grouped integer volume field.
// Placeholders become zero.
func parseShares(s string) (int64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" || s == "-" || s == "--" {
		return 0, nil
	}
	return strconv.ParseInt(s, 10, 64)
}
