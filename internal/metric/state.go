package metric

import (
	"encoding/json"
	"os"
	"time"

	"StockAnalyst/internal/model"
)

// LoadState reads the model metric from a JSON file. Returns a zero metric if the file doesn't exist.
func LoadState(filePath string) (*model.ModelMetric, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &model.ModelMetric{}, nil
		}
		return nil, err
	}
	var m model.ModelMetric
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// SaveState writes the model metric to a JSON file.
func SaveState(filePath string, m *model.ModelMetric) error {
	if m.UpdatedAt.IsZero() {
		m.UpdatedAt = time.Now()
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filePath, data, 0644)
}
