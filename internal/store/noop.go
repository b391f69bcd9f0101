package store

import (
	"time"

	"gujian/internal/model"
)

// NoopStore is a no-op implementation used when SQLite is not configured.
type NoopStore struct{}

func NewNoopStore() *NoopStore { return &NoopStore{} }

func (n *NoopStore) UpsertDailyBars(_ string, _ []model.Bar) error          { return nil }
func (n *NoopStore) DailyBars(_ string, _ time.Time) ([]model.Bar, error)   { return nil, nil }
func (n *NoopStore) LogQuote(_ model.Quote) error                           { return nil }
func (n *NoopStore) PruneQuoteLog(_ time.Time) error                        { return nil }
func (n *NoopStore) SaveDigest(_ *model.NewsDigest) error                   { return nil }
func (n *NoopStore) LatestDigest(_ string) (*model.NewsDigest, error)       { return nil, nil }
func (n *NoopStore) Close() error                                           { return nil }
