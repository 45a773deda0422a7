package store

import (
	"context"

	"StockAnalyst/internal/model"
)

// NoopStore is a no-op implementation used when SQLite is not configured.
type NoopStore struct{}

func NewNoopStore() *NoopStore { return &NoopStore{} }

func (n *NoopStore) SaveRecords(_ context.Context, _ string, _ []model.DailyRecord) error {
	return nil
}

func (n *NoopStore) LoadRecords(_ context.Context, _ string) ([]model.DailyRecord, error) {
	return nil, ErrNoRecords
}

func (n *NoopStore) RecordRefresh(_ context.Context, _ *RefreshEvent) error { return nil }

func (n *NoopStore) LastRefresh(_ context.Context) (*RefreshEvent, error) { return nil, nil }

func (n *NoopStore) Close() error { return nil }
