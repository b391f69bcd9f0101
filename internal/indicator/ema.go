package indicator

// ema applies a standard exponential moving average over closes held in
// chronological order. The seed is the arithmetic mean of the first
// period finite closes, emitted at the index of the period-th finite
// close; from there the recurrence ema = (close-prev)*k + prev with
// k = 2/(period+1) runs strictly forward. Non-finite closes yield nil
// at their own index and do not advance the recurrence.
func ema(closes []float64, period int) []*float64 {
	out := make([]*float64, len(closes))
	if period < 1 {
		return out
	}
	k := 2.0 / float64(period+1)
	var sum, prev float64
	seen := 0
	seeded := false
	for i, c := range closes {
		if !finite(c) {
			continue
		}
		if !seeded {
			sum += c
			seen++
			if seen == period {
				prev = sum / float64(period)
				seeded = true
				out[i] = ptr(prev)
			}
			continue
		}
		prev = (c-prev)*k + prev
		out[i] = ptr(prev)
	}
	return out
}
