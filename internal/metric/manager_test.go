package metric

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockAnalyst/internal/model"
)

func TestNewManager_SeedsMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metric.json")

	m, err := NewManager(path, model.ModelMetric{RMSE: 3.42}, zerolog.Nop())
	require.NoError(t, err)

	got := m.Get()
	assert.Equal(t, 3.42, got.RMSE)
	assert.Equal(t, DefaultModel, got.Model)
	assert.Equal(t, DefaultFeatures, got.Features)

	_, err = os.Stat(path)
	require.NoError(t, err, "seed should be written to disk")

	onDisk, err := LoadState(path)
	require.NoError(t, err)
	assert.Equal(t, 3.42, onDisk.RMSE)
}

func TestNewManager_PrefersExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metric.json")
	require.NoError(t, SaveState(path, &model.ModelMetric{Model: "GBM", RMSE: 1.5}))

	m, err := NewManager(path, model.ModelMetric{RMSE: 9}, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "GBM", m.Get().Model)
	assert.Equal(t, 1.5, m.Get().RMSE)
}

func TestNewManager_RejectsNegativeRMSE(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metric.json")
	_, err := NewManager(path, model.ModelMetric{RMSE: -1}, zerolog.Nop())
	assert.Error(t, err)
}

func TestManager_Reload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metric.json")
	m, err := NewManager(path, model.ModelMetric{RMSE: 3}, zerolog.Nop())
	require.NoError(t, err)

	require.NoError(t, SaveState(path, &model.ModelMetric{Model: DefaultModel, RMSE: 2.25}))
	got, err := m.Reload()
	require.NoError(t, err)
	assert.Equal(t, 2.25, got.RMSE)
	assert.Equal(t, 2.25, m.Get().RMSE)
}

func TestManager_ReloadKeepsMetricOnBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metric.json")
	m, err := NewManager(path, model.ModelMetric{RMSE: 3}, zerolog.Nop())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))
	got, err := m.Reload()
	assert.Error(t, err)
	assert.Equal(t, 3.0, got.RMSE)
}

func TestManager_GetReturnsCopy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metric.json")
	m, err := NewManager(path, model.ModelMetric{RMSE: 3}, zerolog.Nop())
	require.NoError(t, err)

	got := m.Get()
	got.Features[0] = "mutated"
	assert.Equal(t, "Close", m.Get().Features[0])
}
