package store

import (
	"time"

	"gujian/internal/model"
)

// Store caches fetched market data and news digests so restarts and
// repeated dashboard loads don't re-hit the exchange or re-bill the
// LLM. Implementations must be safe for concurrent use.
type Store interface {
	// UpsertDailyBars inserts or replaces daily bars for one symbol.
	UpsertDailyBars(symbol string, bars []model.Bar) error
	// DailyBars returns cached bars on or after from, ascending by date.
	DailyBars(symbol string, from time.Time) ([]model.Bar, error)

	// LogQuote appends one tick to the intraday quote log.
	LogQuote(q model.Quote) error
	// PruneQuoteLog removes quote log rows older than before.
	PruneQuoteLog(before time.Time) error

	// SaveDigest persists an LLM news digest.
	SaveDigest(d *model.NewsDigest) error
	// LatestDigest returns the most recent digest for a symbol, or nil.
	LatestDigest(symbol string) (*model.NewsDigest, error)

	Close() error
}
