package metric

import (
	"fmt"
	"math"
	"sync"

	"github.com/rs/zerolog"

	"StockAnalyst/internal/model"
)

// DefaultModel names the price model when the state file does not.
const DefaultModel = "Random Forest"

// DefaultFeatures are the inputs the price model is trained on.
var DefaultFeatures = []string{"Close", "MA_20", "RSI", "Sentiment"}

// Manager holds the metric of the externally trained price model.
// The training pipeline rewrites the state file; Reload picks up the change.
type Manager struct {
	mu       sync.Mutex
	metric   *model.ModelMetric
	filePath string
	log      zerolog.Logger
}

// NewManager creates a Manager, loading the metric from disk or seeding the
// file from the given metric when none exists yet.
func NewManager(filePath string, seed model.ModelMetric, log zerolog.Logger) (*Manager, error) {
	m := &Manager{
		filePath: filePath,
		log:      log.With().Str("component", "metric").Logger(),
	}

	state, err := LoadState(filePath)
	if err != nil {
		return nil, fmt.Errorf("load metric state: %w", err)
	}

	// Fresh state: nothing written by the training pipeline yet.
	if state.Model == "" && state.RMSE == 0 {
		state = withDefaults(seed)
		if err := SaveState(filePath, state); err != nil {
			return nil, fmt.Errorf("seed metric state: %w", err)
		}
		m.log.Info().Str("path", filePath).Float64("rmse", state.RMSE).Msg("metric state seeded")
	} else {
		state = withDefaults(*state)
	}

	if err := validate(state); err != nil {
		return nil, err
	}
	m.metric = state
	return m, nil
}

// Get returns a copy of the current metric.
func (m *Manager) Get() model.ModelMetric {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := *m.metric
	out.Features = append([]string(nil), m.metric.Features...)
	return out
}

// Reload re-reads the state file. The previous metric is kept when the file
// is missing or invalid.
func (m *Manager) Reload() (model.ModelMetric, error) {
	state, err := LoadState(m.filePath)
	if err != nil {
		return m.Get(), fmt.Errorf("reload metric state: %w", err)
	}
	if state.Model == "" && state.RMSE == 0 {
		return m.Get(), nil
	}
	state = withDefaults(*state)
	if err := validate(state); err != nil {
		return m.Get(), err
	}

	m.mu.Lock()
	changed := m.metric.RMSE != state.RMSE
	m.metric = state
	m.mu.Unlock()

	if changed {
		m.log.Info().Float64("rmse", state.RMSE).Msg("metric reloaded")
	}
	return m.Get(), nil
}

func withDefaults(in model.ModelMetric) *model.ModelMetric {
	out := in
	if out.Model == "" {
		out.Model = DefaultModel
	}
	if len(out.Features) == 0 {
		out.Features = append([]string(nil), DefaultFeatures...)
	}
	return &out
}

func validate(m *model.ModelMetric) error {
	if math.IsNaN(m.RMSE) || math.IsInf(m.RMSE, 0) || m.RMSE < 0 {
		return fmt.Errorf("invalid model rmse %v", m.RMSE)
	}
	return nil
}
