package collector

import (
	"context"

	"StockAnalyst/internal/model"
)

// Fetcher defines the interface for fetching raw daily bars.
type Fetcher interface {
	FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.OHLCV, error)
	Name() string
}

// RecordSource yields daily records with indicators and sentiment already attached,
// sorted ascending by date.
type RecordSource interface {
	FetchRecords(ctx context.Context, symbol string, days int) ([]model.DailyRecord, error)
	Name() string
}
