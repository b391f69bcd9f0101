package model

import "time"

// IndicatorPoint is one derived value aligned to a bar by date.
// A nil Value marks "not yet computable" (insufficient lookback) or
// "not applicable"; it serializes to JSON null so the chart renderer
// can skip the gap.
type IndicatorPoint struct {
	Date  time.Time `json:"date"`
	Value *float64  `json:"value"`
}

// MACDPoint is one MACD sample. The three components are independently
// nilable: Signal and Histogram only populate once enough defined MACD
// values feed the secondary smoothing.
type MACDPoint struct {
	Date      time.Time `json:"date"`
	MACD      *float64  `json:"macd"`
	Signal    *float64  `json:"signal"`
	Histogram *float64  `json:"histogram"`
}
