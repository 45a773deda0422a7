package calculator

import (
	"errors"

	"gonum.org/v1/gonum/floats"

	"StockAnalyst/internal/model"
)

// CalculateCloseRange returns the highest and lowest close of the records.
func CalculateCloseRange(records []model.DailyRecord) (high, low float64, err error) {
	if len(records) == 0 {
		return 0, 0, errors.New("no records provided")
	}
	closes := make([]float64, len(records))
	for i, r := range records {
		closes[i] = r.Close
	}
	return floats.Max(closes), floats.Min(closes), nil
}

// CalculateRangePosition returns where the current price sits within [low, high] (0.0~1.0).
func CalculateRangePosition(current, high, low float64) (float64, error) {
	if high == low {
		return 0.5, nil
	}
	if high < low {
		return 0, errors.New("high must be >= low")
	}
	pos := (current - low) / (high - low)
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	return pos, nil
}
