package dataset

import (
	"errors"
	"sync"
	"time"

	"StockAnalyst/internal/calculator"
	"StockAnalyst/internal/model"
)

// ErrNotLoaded is returned before the first snapshot has been stored.
var ErrNotLoaded = errors.New("dataset not loaded")

// Snapshot is an immutable view of the loaded record series.
type Snapshot struct {
	Symbol   string
	Company  string
	Records  []model.DailyRecord
	Metric   model.ModelMetric
	Source   string
	LoadedAt time.Time
}

// Holder keeps the current snapshot. Refreshes swap the whole snapshot so
// readers never observe a partially updated series.
type Holder struct {
	mu   sync.RWMutex
	snap *Snapshot
}

// NewHolder creates an empty Holder.
func NewHolder() *Holder {
	return &Holder{}
}

// Set replaces the current snapshot. Records must be non-empty and ascending by date.
func (h *Holder) Set(s Snapshot) error {
	if err := calculator.ValidateRecords(s.Records); err != nil {
		return err
	}
	s.Records = append([]model.DailyRecord(nil), s.Records...)
	if s.LoadedAt.IsZero() {
		s.LoadedAt = time.Now()
	}

	h.mu.Lock()
	h.snap = &s
	h.mu.Unlock()
	return nil
}

// SetMetric updates the model metric of the current snapshot.
func (h *Holder) SetMetric(m model.ModelMetric) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.snap == nil {
		return
	}
	next := *h.snap
	next.Metric = m
	h.snap = &next
}

// Get returns the current snapshot.
func (h *Holder) Get() (Snapshot, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.snap == nil {
		return Snapshot{}, ErrNotLoaded
	}
	return *h.snap, nil
}

// Loaded reports whether a snapshot is available.
func (h *Holder) Loaded() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.snap != nil
}

// Summary derives the series summary of this snapshot's own records.
func (s Snapshot) Summary() (model.SeriesSummary, error) {
	return calculator.Summarize(s.Records)
}

// Summary recomputes the series summary from the current snapshot.
func (h *Holder) Summary() (model.SeriesSummary, model.ModelMetric, error) {
	s, err := h.Get()
	if err != nil {
		return model.SeriesSummary{}, model.ModelMetric{}, err
	}
	summary, err := s.Summary()
	if err != nil {
		return model.SeriesSummary{}, model.ModelMetric{}, err
	}
	return summary, s.Metric, nil
}
