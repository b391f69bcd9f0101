package scheduler

import (
	"context"
	"testing"
	"time"

	"gujian/internal/fetch"
	"gujian/internal/markethours"
	"gujian/internal/metrics"
	"gujian/internal/model"
	"gujian/internal/server"
	"gujian/internal/store"
)

// countingSource records how often the exchange would have been hit.
type countingSource struct {
	quoteCalls int
	barCalls   int
}

func (c *countingSource) Name() string { return "counting" }

func (c *countingSource) DailyBars(_ context.Context, _ model.StockInfo, _ int) ([]model.Bar, error) {
	c.barCalls++
	return []model.Bar{{Date: time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC), Close: 1000, Volume: 1}}, nil
}

func (c *countingSource) Quotes(_ context.Context, stocks []model.StockInfo) ([]model.Quote, error) {
	c.quoteCalls++
	quotes := make([]model.Quote, len(stocks))
	for i, st := range stocks {
		quotes[i] = model.Quote{Symbol: st.Symbol, Price: 1000}
	}
	return quotes, nil
}

func testScheduler(src fetch.Source) *Scheduler {
	m := metrics.New()
	watch := func() []model.StockInfo {
		return []model.StockInfo{{Symbol: "2330", Name: "台積電", Market: "tse"}}
	}
	return NewScheduler(context.Background(),
		fetch.NewCollector(src, store.NewNoopStore()),
		server.NewHub(m), store.NewNoopStore(), nil, nil, m, watch)
}

func TestPollTask_SkipsWhileMarketClosed(t *testing.T) {
	src := &countingSource{}
	s := testScheduler(src)

	// After close, a Saturday, and the lunar new year closure.
	closed := []time.Time{
		time.Date(2026, time.March, 4, 20, 0, 0, 0, markethours.Taipei),
		time.Date(2026, time.March, 7, 10, 30, 0, 0, markethours.Taipei),
		time.Date(2026, time.February, 17, 10, 0, 0, 0, markethours.Taipei),
	}
	for _, at := range closed {
		s.now = func() time.Time { return at }
		s.pollTask()
	}
	if src.quoteCalls != 0 {
		t.Errorf("closed-market ticks should not hit the exchange, got %d calls", src.quoteCalls)
	}
}

func TestPollTask_PollsDuringSession(t *testing.T) {
	src := &countingSource{}
	s := testScheduler(src)
	s.now = func() time.Time {
		return time.Date(2026, time.March, 4, 10, 30, 0, 0, markethours.Taipei)
	}

	s.pollTask()
	if src.quoteCalls != 1 {
		t.Fatalf("expected 1 quote fetch during the session, got %d", src.quoteCalls)
	}
}

func TestPollTask_SkipsEmptyWatchlist(t *testing.T) {
	src := &countingSource{}
	s := testScheduler(src)
	s.Watchlist = func() []model.StockInfo { return nil }
	s.now = func() time.Time {
		return time.Date(2026, time.March, 4, 10, 30, 0, 0, markethours.Taipei)
	}

	s.pollTask()
	if src.quoteCalls != 0 {
		t.Errorf("empty watchlist should not hit the exchange, got %d calls", src.quoteCalls)
	}
}

func TestRefreshTask_PullsEveryWatchedStock(t *testing.T) {
	src := &countingSource{}
	s := testScheduler(src)

	s.RunRefreshNow()
	if src.barCalls != 1 {
		t.Errorf("expected 1 history pull for the single watched stock, got %d", src.barCalls)
	}
}

func TestRegisterAll_RejectsBadCronSpec(t *testing.T) {
	s := testScheduler(&countingSource{})
	if err := s.RegisterAll("not a cron", "0 30 14 * * 1-5", "0 30 8 * * 1-5"); err == nil {
		t.Error("expected error for malformed cron spec")
	}
	if err := s.RegisterAll("*/10 * * * * *", "0 30 14 * * 1-5", "0 30 8 * * 1-5"); err != nil {
		t.Errorf("valid specs should register: %v", err)
	}
}
