package indicator

import "gujian/internal/model"

// Conventional MACD parameters.
const (
	DefaultMACDFast   = 12
	DefaultMACDSlow   = 26
	DefaultMACDSignal = 9
)

// MACD computes the MACD line, signal line, and histogram, one point
// per input bar, aligned by position and date. The MACD line is
// EMA(fast) minus EMA(slow) wherever both are defined (from the
// slow-th finite close onward). The signal line smooths the compacted
// sequence of defined MACD values only (the lookback counts defined
// points, not calendar bars) and each smoothed value is re-placed at
// its source index. The histogram is macd minus signal wherever both
// are defined. An undersized series yields a same-length all-nil result,
// uniform with SMA and RSI.
func (s *Series) MACD(fast, slow, signal int) []model.MACDPoint {
	pts := make([]model.MACDPoint, len(s.bars))
	closes := make([]float64, len(s.bars))
	for i, b := range s.bars {
		pts[i].Date = b.Date
		closes[i] = b.Close
	}
	if fast < 1 || slow < 1 || signal < 1 {
		return orient(s, pts)
	}

	emaFast := ema(closes, fast)
	emaSlow := ema(closes, slow)

	var compact []float64
	var srcIdx []int
	for i := range closes {
		if emaFast[i] != nil && emaSlow[i] != nil {
			m := *emaFast[i] - *emaSlow[i]
			pts[i].MACD = ptr(m)
			compact = append(compact, m)
			srcIdx = append(srcIdx, i)
		}
	}

	sig := ema(compact, signal)
	for j, i := range srcIdx {
		if sig[j] == nil {
			continue
		}
		pts[i].Signal = ptr(*sig[j])
		pts[i].Histogram = ptr(*pts[i].MACD - *sig[j])
	}
	return orient(s, pts)
}
