package fetch

import (
	"context"
	"time"

	"gujian/internal/model"
)

// MockSource returns controllable fixed data for development and testing.
type MockSource struct {
	Price     float64
	BarData   []model.Bar
	QuoteData []model.Quote
	Err       error
}

func (m *MockSource) Name() string { return "mock" }

func (m *MockSource) DailyBars(_ context.Context, stock model.StockInfo, months int) ([]model.Bar, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.BarData != nil {
		return m.BarData, nil
	}
	return generateMockBars(m.Price, months*22), nil
}

func (m *MockSource) Quotes(_ context.Context, stocks []model.StockInfo) ([]model.Quote, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.QuoteData != nil {
		return m.QuoteData, nil
	}
	quotes := make([]model.Quote, len(stocks))
	for i, st := range stocks {
		quotes[i] = model.Quote{
			Symbol: st.Symbol,
			Name:   st.Name,
			Price:  m.Price,
			Time:   time.Now(),
		}
	}
	return quotes, nil
}

func generateMockBars(basePrice float64, count int) []model.Bar {
	bars := make([]model.Bar, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		day := time.Now().AddDate(0, 0, -(count - i))
		bars[i] = model.Bar{
			Date:   time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}
