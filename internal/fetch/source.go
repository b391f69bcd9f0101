// Package fetch orchestrates market data retrieval: source selection,
// cache write-through, and degradation to stale data when the
// exchange misbehaves.
package fetch

import (
	"context"

	"gujian/internal/model"
	"gujian/internal/twse"
)

// Source supplies market data for watched instruments.
type Source interface {
	DailyBars(ctx context.Context, stock model.StockInfo, months int) ([]model.Bar, error)
	Quotes(ctx context.Context, stocks []model.StockInfo) ([]model.Quote, error)
	Name() string
}

// TWSESource adapts the exchange clients to the Source interface.
type TWSESource struct {
	Quote   *twse.QuoteClient
	History *twse.HistoryClient
}

func NewTWSESource(quote *twse.QuoteClient, history *twse.HistoryClient) *TWSESource {
	return &TWSESource{Quote: quote, History: history}
}

func (s *TWSESource) Name() string { return "twse" }

func (s *TWSESource) DailyBars(ctx context.Context, stock model.StockInfo, months int) ([]model.Bar, error) {
	return s.History.DailyBars(ctx, stock.Symbol, stock.Market, months)
}

func (s *TWSESource) Quotes(ctx context.Context, stocks []model.StockInfo) ([]model.Quote, error) {
	return s.Quote.Quotes(ctx, stocks)
}
