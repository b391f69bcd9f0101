// Package indicator derives technical series (SMA, MACD, RSI) and
// coarser-granularity bars (weekly, monthly) from ordered daily OHLC
// bars. All functions are pure and deterministic: the same input
// always yields the same output, input slices are never mutated, and
// nothing panics on malformed numbers.
package indicator

import (
	"math"

	"gujian/internal/model"
)

// Series wraps an ordered run of daily bars for one instrument.
// Internally bars are always held oldest→newest; the constructor
// detects the caller's orientation by comparing the boundary dates and
// every output is re-expressed in that orientation, so results align
// 1:1 by position and date with the input.
type Series struct {
	bars       []model.Bar // ascending by date
	descending bool        // caller supplied newest-first
}

// NewSeries copies bars into canonical chronological order.
// The input slice is left untouched.
func NewSeries(bars []model.Bar) *Series {
	s := &Series{bars: make([]model.Bar, len(bars))}
	copy(s.bars, bars)
	if len(bars) >= 2 && bars[0].Date.After(bars[len(bars)-1].Date) {
		s.descending = true
		reverse(s.bars)
	}
	return s
}

// Len returns the number of bars in the series.
func (s *Series) Len() int { return len(s.bars) }

// Bars returns a copy of the bars in the caller's original orientation.
func (s *Series) Bars() []model.Bar {
	out := make([]model.Bar, len(s.bars))
	copy(out, s.bars)
	if s.descending {
		reverse(out)
	}
	return out
}

// orient re-expresses a chronologically ordered result in the caller's
// original orientation.
func orient[T any](s *Series, pts []T) []T {
	if s.descending {
		reverse(pts)
	}
	return pts
}

func reverse[T any](v []T) {
	for i, j := 0, len(v)-1; i < j; i, j = i+1, j-1 {
		v[i], v[j] = v[j], v[i]
	}
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func ptr(f float64) *float64 { return &f }
