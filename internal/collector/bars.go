package collector

import (
	"context"
	"fmt"

	"StockAnalyst/internal/calculator"
	"StockAnalyst/internal/model"
)

// BarSource derives records from raw bars: MA-20 and RSI are computed from the
// closes and sentiment is joined by date. Dates without sentiment get 0.
type BarSource struct {
	Fetcher   Fetcher
	Sentiment map[string]float64
	RSIPeriod int
}

// NewBarSource wraps fetcher. sentiment may be nil.
func NewBarSource(fetcher Fetcher, sentiment map[string]float64) *BarSource {
	return &BarSource{Fetcher: fetcher, Sentiment: sentiment, RSIPeriod: calculator.RSIPeriod}
}

func (s *BarSource) Name() string { return s.Fetcher.Name() }

func (s *BarSource) FetchRecords(ctx context.Context, symbol string, days int) ([]model.DailyRecord, error) {
	// Fetch extra history so the first returned day already has a full MA window.
	bars, err := s.Fetcher.FetchDailyBars(ctx, symbol, days+calculator.MAPeriod)
	if err != nil {
		return nil, fmt.Errorf("fetch daily bars: %w", err)
	}

	ma, err := calculator.CalculateMA20Series(bars)
	if err != nil {
		return nil, fmt.Errorf("ma20: %w", err)
	}
	rsi, err := calculator.CalculateRSISeries(bars, s.RSIPeriod)
	if err != nil {
		return nil, fmt.Errorf("rsi: %w", err)
	}

	records := make([]model.DailyRecord, len(bars))
	for i, b := range bars {
		day := calendarDay(b.Time.UTC())
		records[i] = model.DailyRecord{
			Date:      day,
			Close:     b.Close,
			MA20:      ma[i],
			RSI:       rsi[i],
			Sentiment: s.Sentiment[day.Format(model.DateLayout)],
		}
	}
	sortRecords(records)
	return lastN(records, days), nil
}
