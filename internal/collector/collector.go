package collector

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"StockAnalyst/internal/calculator"
	"StockAnalyst/internal/model"
)

// Collector orchestrates fetching and validating the record series for one symbol.
type Collector struct {
	Source RecordSource
	Symbol string
	Days   int
	log    zerolog.Logger
}

// NewCollector creates a new Collector.
func NewCollector(source RecordSource, symbol string, days int, log zerolog.Logger) *Collector {
	return &Collector{
		Source: source,
		Symbol: symbol,
		Days:   days,
		log:    log.With().Str("component", "collector").Str("source", source.Name()).Logger(),
	}
}

// Collect fetches the series and checks it is usable: non-empty, ascending by
// date and with positive closes.
func (c *Collector) Collect(ctx context.Context) ([]model.DailyRecord, error) {
	records, err := c.Source.FetchRecords(ctx, c.Symbol, c.Days)
	if err != nil {
		return nil, fmt.Errorf("fetch records: %w", err)
	}
	if err := calculator.ValidateRecords(records); err != nil {
		return nil, err
	}
	for _, r := range records {
		if math.IsNaN(r.Close) || math.IsInf(r.Close, 0) || r.Close <= 0 {
			return nil, fmt.Errorf("record %s: close must be positive, got %.4f", r.Day(), r.Close)
		}
	}

	c.log.Debug().
		Str("symbol", c.Symbol).
		Int("records", len(records)).
		Str("first", records[0].Day()).
		Str("last", records[len(records)-1].Day()).
		Msg("records collected")
	return records, nil
}
