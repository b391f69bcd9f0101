package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"gujian/internal/ai"
	"gujian/internal/fetch"
	"gujian/internal/markethours"
	"gujian/internal/metrics"
	"gujian/internal/model"
	"gujian/internal/news"
	"gujian/internal/server"
	"gujian/internal/store"

	"github.com/robfig/cron/v3"
)

// quote log rows older than this get pruned weekly
const quoteLogRetention = 30 * 24 * time.Hour

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron       *cron.Cron
	Collector  *fetch.Collector
	Hub        *server.Hub
	Store      store.Store
	Summarizer *ai.Summarizer
	News       *news.Fetcher
	Metrics    *metrics.Metrics
	Watchlist  func() []model.StockInfo
	Ctx        context.Context

	// now is injectable for tests; defaults to time.Now.
	now func() time.Time
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, col *fetch.Collector, hub *server.Hub, st store.Store,
	sum *ai.Summarizer, nf *news.Fetcher, m *metrics.Metrics, watchlist func() []model.StockInfo) *Scheduler {
	return &Scheduler{
		Cron:       cron.New(cron.WithSeconds()),
		Collector:  col,
		Hub:        hub,
		Store:      st,
		Summarizer: sum,
		News:       nf,
		Metrics:    m,
		Watchlist:  watchlist,
		Ctx:        ctx,
		now:        time.Now,
	}
}

// RegisterAll registers the quote poll, daily refresh, digest, and prune tasks.
func (s *Scheduler) RegisterAll(pollCron, refreshCron, digestCron string) error {
	if _, err := s.Cron.AddFunc(pollCron, s.pollTask); err != nil {
		return fmt.Errorf("register quote poll: %w", err)
	}
	if _, err := s.Cron.AddFunc(refreshCron, s.refreshTask); err != nil {
		return fmt.Errorf("register daily refresh: %w", err)
	}
	if _, err := s.Cron.AddFunc(digestCron, s.digestTask); err != nil {
		return fmt.Errorf("register news digest: %w", err)
	}
	// Quote log prune: every Monday 00:05
	if _, err := s.Cron.AddFunc("0 5 0 * * 1", s.pruneTask); err != nil {
		return fmt.Errorf("register quote prune: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	log.Println("[INFO] scheduler stopped")
}

// RunRefreshNow executes the daily history refresh immediately (for manual trigger / RUN_ON_START).
func (s *Scheduler) RunRefreshNow() {
	s.refreshTask()
}

// RunDigestNow executes the news digest task immediately.
func (s *Scheduler) RunDigestNow() {
	s.digestTask()
}

// pollTask fetches realtime quotes during trading hours and pushes them
// to websocket clients. Outside trading hours it is a no-op.
func (s *Scheduler) pollTask() {
	if !markethours.IsOpen(s.now()) {
		return
	}
	stocks := s.Watchlist()
	if len(stocks) == 0 {
		return
	}
	s.Metrics.QuotePolls.Inc()
	quotes, err := s.Collector.Quotes(s.Ctx, stocks)
	if err != nil {
		s.Metrics.QuotePollErrors.Inc()
		log.Printf("[ERROR] quote poll: %v", err)
		return
	}
	s.Hub.Broadcast(quotes)
}

// refreshTask pulls the latest daily bars for every watched stock after
// the session close.
func (s *Scheduler) refreshTask() {
	log.Println("[INFO] running daily history refresh")
	for _, stock := range s.Watchlist() {
		if err := s.Collector.Refresh(s.Ctx, stock); err != nil {
			log.Printf("[ERROR] refresh %s: %v", stock.Symbol, err)
			continue
		}
		log.Printf("[INFO] refreshed daily bars for %s", stock.Symbol)
	}
}

// digestTask rebuilds the LLM news digest for every watched stock.
func (s *Scheduler) digestTask() {
	log.Println("[INFO] running news digest")
	items, err := s.News.Fetch(s.Ctx)
	if err != nil {
		log.Printf("[ERROR] digest news fetch: %v", err)
		return
	}
	for _, stock := range s.Watchlist() {
		matched := news.FilterBySymbol(items, stock.Symbol, stock.Name)
		if len(matched) == 0 {
			continue
		}
		s.Summarizer.Rebuild(s.Ctx, stock.Symbol, stock.Name, matched)
		log.Printf("[INFO] digest rebuilt for %s (%d items)", stock.Symbol, len(matched))
	}
}

func (s *Scheduler) pruneTask() {
	before := s.now().Add(-quoteLogRetention)
	if err := s.Store.PruneQuoteLog(before); err != nil {
		log.Printf("[ERROR] prune quote log: %v", err)
		return
	}
	log.Println("[INFO] quote log pruned")
}
