package store

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"gujian/internal/model"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestUpsertDailyBars_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	bars := []model.Bar{
		{Date: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), Open: 23.5, High: 24, Low: 23.1, Close: 23.95, Volume: 1000},
		{Date: time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC), Open: 23.95, High: 24.2, Low: 23.8, Close: 24.1, Volume: 2000},
	}
	if err := s.UpsertDailyBars("2330", bars); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := s.DailyBars("2330", time.Time{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(got))
	}
	if got[0].Close != 23.95 || got[1].Close != 24.1 {
		t.Errorf("closes mismatch: %+v", got)
	}
	if !got[0].Date.Before(got[1].Date) {
		t.Error("bars should return ascending")
	}

	// Re-upserting the same dates replaces in place, no duplicates.
	bars[1].Close = 25
	if err := s.UpsertDailyBars("2330", bars); err != nil {
		t.Fatalf("re-upsert: %v", err)
	}
	got, _ = s.DailyBars("2330", time.Time{})
	if len(got) != 2 {
		t.Fatalf("upsert duplicated rows: %d", len(got))
	}
	if got[1].Close != 25 {
		t.Errorf("updated close: got %v, want 25", got[1].Close)
	}
}

func TestDailyBars_FromFilterAndIsolation(t *testing.T) {
	s := openTestStore(t)
	s.UpsertDailyBars("2330", []model.Bar{
		{Date: time.Date(2026, 2, 27, 0, 0, 0, 0, time.UTC), Close: 10},
		{Date: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), Close: 11},
	})
	s.UpsertDailyBars("2317", []model.Bar{
		{Date: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), Close: 99},
	})

	got, err := s.DailyBars("2330", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 1 || got[0].Close != 11 {
		t.Errorf("from filter failed: %+v", got)
	}
}

func TestUpsertDailyBars_NaNPricesSurviveAsNaN(t *testing.T) {
	s := openTestStore(t)
	s.UpsertDailyBars("2330", []model.Bar{
		{Date: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), Close: math.NaN(), Volume: 500},
	})
	got, err := s.DailyBars("2330", time.Time{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 bar, got %d", len(got))
	}
	if !math.IsNaN(got[0].Close) {
		t.Errorf("NaN close should round-trip via NULL, got %v", got[0].Close)
	}
	if got[0].Volume != 500 {
		t.Errorf("volume: got %d, want 500", got[0].Volume)
	}
}

func TestQuoteLog_AppendAndPrune(t *testing.T) {
	s := openTestStore(t)
	old := time.Now().Add(-48 * time.Hour)
	s.LogQuote(model.Quote{Symbol: "2330", Price: 1000, Time: old})
	s.LogQuote(model.Quote{Symbol: "2330", Price: 1010, Time: time.Now()})

	if err := s.PruneQuoteLog(time.Now().Add(-24 * time.Hour)); err != nil {
		t.Fatalf("prune: %v", err)
	}
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM quotes_log`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 row after prune, got %d", n)
	}
}

func TestDigest_SaveAndLatest(t *testing.T) {
	s := openTestStore(t)
	if d, err := s.LatestDigest("2330"); err != nil || d != nil {
		t.Fatalf("empty store should return nil, nil; got %v, %v", d, err)
	}

	s.SaveDigest(&model.NewsDigest{
		ID: "a", Symbol: "2330", Summary: "舊摘要", Sentiment: "neutral", Score: 0,
		GeneratedAt: time.Now().Add(-time.Hour),
	})
	s.SaveDigest(&model.NewsDigest{
		ID: "b", Symbol: "2330", Summary: "新摘要", Sentiment: "positive", Score: 0.6,
		GeneratedAt: time.Now(),
	})

	d, err := s.LatestDigest("2330")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if d == nil || d.ID != "b" {
		t.Fatalf("expected newest digest b, got %+v", d)
	}
	if d.Sentiment != "positive" || d.Score != 0.6 {
		t.Errorf("digest fields mismatch: %+v", d)
	}
}
