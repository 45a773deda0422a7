package store

import (
	"context"
	"errors"
	"time"

	"StockAnalyst/internal/model"
)

// ErrNoRecords is returned when no cached records exist for a symbol.
var ErrNoRecords = errors.New("no cached records")

// RefreshEvent records the outcome of one dataset refresh.
type RefreshEvent struct {
	Symbol    string
	Source    string
	Records   int
	FirstDate string
	LastDate  string
	Status    string // "OK", "FALLBACK" or "FAILED"
	Error     string
	Duration  time.Duration
	At        time.Time // set when read back from the store
}

// Refresh statuses.
const (
	StatusOK       = "OK"
	StatusFallback = "FALLBACK"
	StatusFailed   = "FAILED"
)

// Store caches daily records so the dashboard can start when the source is down.
type Store interface {
	SaveRecords(ctx context.Context, symbol string, records []model.DailyRecord) error
	LoadRecords(ctx context.Context, symbol string) ([]model.DailyRecord, error)
	RecordRefresh(ctx context.Context, evt *RefreshEvent) error
	// LastRefresh returns the most recent refresh event, or nil when none was recorded.
	LastRefresh(ctx context.Context) (*RefreshEvent, error)
	Close() error
}

var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*NoopStore)(nil)
)
