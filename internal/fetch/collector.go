package fetch

import (
	"context"
	"fmt"
	"log"
	"time"

	"gujian/internal/metrics"
	"gujian/internal/model"
	"gujian/internal/store"
)

// Collector ties a Source to the cache: successful fetches write
// through, failed fetches degrade to whatever the cache still holds.
type Collector struct {
	Source  Source
	Store   store.Store
	Metrics *metrics.Metrics // optional
}

// NewCollector creates a new Collector.
func NewCollector(src Source, st store.Store) *Collector {
	return &Collector{Source: src, Store: st}
}

func (c *Collector) observeFetch(start time.Time) {
	if c.Metrics != nil {
		c.Metrics.FetchDur.WithLabelValues(c.Source.Name()).Observe(time.Since(start).Seconds())
	}
}

// History returns up to months of daily bars for one instrument,
// ascending by date. The exchange is asked first; on success the bars
// are cached, on failure the stale cache is served with a warning so a
// flaky exchange doesn't blank the dashboard.
func (c *Collector) History(ctx context.Context, stock model.StockInfo, months int) ([]model.Bar, error) {
	from := monthsAgo(months)

	start := time.Now()
	bars, err := c.Source.DailyBars(ctx, stock, months)
	c.observeFetch(start)
	if err != nil || len(bars) == 0 {
		cached, cerr := c.Store.DailyBars(stock.Symbol, from)
		if cerr == nil && len(cached) > 0 {
			log.Printf("[WARN] fetch %s history from %s: %v, serving %d cached bars",
				stock.Symbol, c.Source.Name(), err, len(cached))
			return cached, nil
		}
		if err == nil {
			err = fmt.Errorf("source %s returned no bars", c.Source.Name())
		}
		return nil, fmt.Errorf("fetch history %s: %w", stock.Symbol, err)
	}

	if serr := c.Store.UpsertDailyBars(stock.Symbol, bars); serr != nil {
		log.Printf("[WARN] cache %s history: %v", stock.Symbol, serr)
	}
	return bars, nil
}

// Refresh pulls the current month into the cache. Used by the
// after-close scheduler job.
func (c *Collector) Refresh(ctx context.Context, stock model.StockInfo) error {
	start := time.Now()
	bars, err := c.Source.DailyBars(ctx, stock, 1)
	c.observeFetch(start)
	if err != nil {
		return fmt.Errorf("refresh %s: %w", stock.Symbol, err)
	}
	if err := c.Store.UpsertDailyBars(stock.Symbol, bars); err != nil {
		return fmt.Errorf("cache refresh %s: %w", stock.Symbol, err)
	}
	return nil
}

// Quotes fetches current quotes and appends each tick to the intraday
// quote log. Log failures are non-fatal.
func (c *Collector) Quotes(ctx context.Context, stocks []model.StockInfo) ([]model.Quote, error) {
	start := time.Now()
	quotes, err := c.Source.Quotes(ctx, stocks)
	c.observeFetch(start)
	if err != nil {
		return nil, fmt.Errorf("fetch quotes: %w", err)
	}
	for _, q := range quotes {
		if err := c.Store.LogQuote(q); err != nil {
			log.Printf("[WARN] log quote %s: %v", q.Symbol, err)
		}
	}
	return quotes, nil
}

func monthsAgo(months int) time.Time {
	t := time.Now().AddDate(0, -months, 0)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
