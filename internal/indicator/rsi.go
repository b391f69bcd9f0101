package indicator

import "gujian/internal/model"

// DefaultRSIPeriod is the conventional RSI lookback.
const DefaultRSIPeriod = 14

// RSI computes the Wilder-smoothed relative strength index, one point
// per input bar, aligned by position and date. The first period
// chronological points are nil: seeding needs period consecutive
// deltas, averaged into the initial gain/loss, after which the Wilder
// recurrence avg = (avg*(period-1) + current)/period takes over.
// Deltas are taken between consecutive finite closes; a non-finite
// close yields nil at its own index, is skipped by the recurrence, and
// the next finite close resumes from the last good one. A zero-loss
// window yields exactly 100, never a division fault.
func (s *Series) RSI(period int) []model.IndicatorPoint {
	pts := make([]model.IndicatorPoint, len(s.bars))
	for i, b := range s.bars {
		pts[i].Date = b.Date
	}
	if period < 1 || len(s.bars) < period+1 {
		return orient(s, pts)
	}

	var avgGain, avgLoss float64
	deltas := 0
	havePrev := false
	var prev float64
	for i, b := range s.bars {
		if !finite(b.Close) {
			continue
		}
		if !havePrev {
			prev = b.Close
			havePrev = true
			continue
		}
		delta := b.Close - prev
		prev = b.Close
		gain, loss := 0.0, 0.0
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}
		deltas++
		switch {
		case deltas < period:
			avgGain += gain
			avgLoss += loss
		case deltas == period:
			avgGain = (avgGain + gain) / float64(period)
			avgLoss = (avgLoss + loss) / float64(period)
		default:
			avgGain = (avgGain*float64(period-1) + gain) / float64(period)
			avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		}
		if deltas >= period {
			if avgLoss == 0 {
				pts[i].Value = ptr(100.0)
			} else {
				rs := avgGain / avgLoss
				pts[i].Value = ptr(100.0 - 100.0/(1.0+rs))
			}
		}
	}
	return orient(s, pts)
}
