package indicator

import (
	"math"
	"testing"
)

func risingCloses(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 100 + float64(i)
	}
	return out
}

func TestRSI_SeedWindowNil(t *testing.T) {
	pts := NewSeries(dailyBars(risingCloses(20)...)).RSI(14)
	for i := 0; i < 14; i++ {
		if pts[i].Value != nil {
			t.Errorf("point %d: expected nil inside seed window, got %v", i, *pts[i].Value)
		}
	}
	if pts[14].Value == nil {
		t.Error("point 14: first computable value missing")
	}
}

func TestRSI_StrictlyRisingIs100(t *testing.T) {
	pts := NewSeries(dailyBars(risingCloses(30)...)).RSI(14)
	for i := 14; i < len(pts); i++ {
		if pts[i].Value == nil {
			t.Fatalf("point %d: expected value, got nil", i)
		}
		assertClose(t, *pts[i].Value, 100)
	}
}

func TestRSI_StrictlyFallingIs0(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 200 - float64(i)
	}
	pts := NewSeries(dailyBars(closes...)).RSI(14)
	for i := 14; i < len(pts); i++ {
		if pts[i].Value == nil {
			t.Fatalf("point %d: expected value, got nil", i)
		}
		assertClose(t, *pts[i].Value, 0)
	}
}

func TestRSI_FlatSeriesIs100(t *testing.T) {
	// Constant closes mean zero gains and zero losses; a zero-loss
	// window must yield exactly 100, never NaN or Inf.
	closes := make([]float64, 16)
	for i := range closes {
		closes[i] = 100
	}
	pts := NewSeries(dailyBars(closes...)).RSI(14)
	for i := 14; i < len(pts); i++ {
		if pts[i].Value == nil {
			t.Fatalf("point %d: expected value, got nil", i)
		}
		if math.IsNaN(*pts[i].Value) || math.IsInf(*pts[i].Value, 0) {
			t.Fatalf("point %d: non-finite RSI %v", i, *pts[i].Value)
		}
		assertClose(t, *pts[i].Value, 100)
	}
}

func TestRSI_WilderRecurrence(t *testing.T) {
	// period 2 over [10, 11, 10, 12]. Seed deltas +1, -1:
	// avgGain = avgLoss = 0.5 → RSI = 50 at index 2. Next delta +2:
	// avgGain = (0.5 + 2)/2 = 1.25, avgLoss = 0.25, RS = 5 → RSI = 83.33...
	pts := NewSeries(dailyBars(10, 11, 10, 12)).RSI(2)
	if pts[2].Value == nil || pts[3].Value == nil {
		t.Fatal("expected values at indices 2 and 3")
	}
	assertClose(t, *pts[2].Value, 50)
	assertClose(t, *pts[3].Value, 100-100/6.0)
}

func TestRSI_UndersizedSeriesAllNil(t *testing.T) {
	pts := NewSeries(dailyBars(10, 11, 12)).RSI(14)
	if len(pts) != 3 {
		t.Fatalf("expected 3 points, got %d", len(pts))
	}
	for i, p := range pts {
		if p.Value != nil {
			t.Errorf("point %d: expected nil, got %v", i, *p.Value)
		}
	}
}

func TestRSI_BadCloseYieldsNilAndResumes(t *testing.T) {
	closes := risingCloses(20)
	bars := dailyBars(closes...)
	bars[16].Close = math.NaN()
	pts := NewSeries(bars).RSI(14)
	if pts[16].Value != nil {
		t.Errorf("bad close should yield nil, got %v", *pts[16].Value)
	}
	if pts[17].Value == nil {
		t.Error("recurrence should resume on the next finite close")
	}
}

func TestRSI_NewestFirstAlignment(t *testing.T) {
	bars := reversed(dailyBars(risingCloses(20)...))
	pts := NewSeries(bars).RSI(14)
	for i, p := range pts {
		if !p.Date.Equal(bars[i].Date) {
			t.Fatalf("point %d: date misaligned with input", i)
		}
	}
	// Newest-first: computable values lead, the seed window trails.
	if pts[0].Value == nil {
		t.Error("newest point should be computable")
	}
	if pts[len(pts)-1].Value != nil {
		t.Error("oldest point should be nil")
	}
}
