package indicator

import (
	"time"

	"gujian/internal/model"
)

// Weekly buckets daily bars into one bar per ISO week (keyed by the
// Monday of each bar's week) with full OHLCV aggregation: open = first
// chronological open in the bucket, high = max, low = min, close =
// last chronological close, volume = sum, date = last trading day in
// the bucket. Output orientation matches the input's.
func (s *Series) Weekly() *Series {
	return s.aggregate(mondayOf)
}

// Monthly buckets daily bars into one bar per calendar (year, month),
// with the same OHLCV merge rules as Weekly.
func (s *Series) Monthly() *Series {
	return s.aggregate(monthOf)
}

// WeeklyCloseOnly is the legacy close-only chart feed: open, high, and
// low collapse to the close and volume is dropped.
func (s *Series) WeeklyCloseOnly() *Series {
	return closeOnly(s.Weekly())
}

// MonthlyCloseOnly is the close-only variant of Monthly.
func (s *Series) MonthlyCloseOnly() *Series {
	return closeOnly(s.Monthly())
}

// aggregate scans chronologically and merges runs of bars sharing a
// bucket key. Ascending order makes each bucket contiguous.
func (s *Series) aggregate(bucket func(time.Time) time.Time) *Series {
	out := &Series{descending: s.descending}
	var cur model.Bar
	var curKey time.Time
	started := false
	for _, b := range s.bars {
		key := bucket(b.Date)
		if !started || !key.Equal(curKey) {
			if started {
				out.bars = append(out.bars, cur)
			}
			cur = b
			curKey = key
			started = true
			continue
		}
		if b.High > cur.High {
			cur.High = b.High
		}
		if b.Low < cur.Low {
			cur.Low = b.Low
		}
		cur.Close = b.Close
		cur.Volume += b.Volume
		cur.Date = b.Date
	}
	if started {
		out.bars = append(out.bars, cur)
	}
	return out
}

// mondayOf returns midnight on the Monday of t's ISO week.
func mondayOf(t time.Time) time.Time {
	d := t.AddDate(0, 0, -((int(t.Weekday()) + 6) % 7))
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, t.Location())
}

func monthOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

func closeOnly(s *Series) *Series {
	for i := range s.bars {
		c := s.bars[i].Close
		s.bars[i].Open, s.bars[i].High, s.bars[i].Low = c, c, c
		s.bars[i].Volume = 0
	}
	return s
}
