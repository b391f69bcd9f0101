package indicator

import "gujian/internal/model"

// SMA computes the simple moving average of Close over a trailing
// window of period bars, one point per input bar, aligned by position
// and date. The first period-1 chronological points are nil, as is any
// window still containing a non-finite close; later windows recover
// once the bad bar slides out of the lookback. period < 1 or an
// undersized series degrades to an all-nil result, never an error.
// Values are exact floating-point means; display rounding is left to
// the consumer.
func (s *Series) SMA(period int) []model.IndicatorPoint {
	pts := make([]model.IndicatorPoint, len(s.bars))
	for i, b := range s.bars {
		pts[i].Date = b.Date
	}
	if period < 1 || len(s.bars) < period {
		return orient(s, pts)
	}

	// Running-sum sliding window, O(n). bad counts non-finite closes
	// currently inside the window; any such close poisons the mean.
	var sum float64
	bad := 0
	for i, b := range s.bars {
		if finite(b.Close) {
			sum += b.Close
		} else {
			bad++
		}
		if i >= period {
			old := s.bars[i-period].Close
			if finite(old) {
				sum -= old
			} else {
				bad--
			}
		}
		if i >= period-1 && bad == 0 {
			pts[i].Value = ptr(sum / float64(period))
		}
	}
	return orient(s, pts)
}
