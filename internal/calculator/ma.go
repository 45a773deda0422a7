package calculator

import (
	"errors"
	"math"

	"github.com/markcheno/go-talib"

	"StockAnalyst/internal/model"
)

// MAPeriod is the window of the dashboard moving average.
const MAPeriod = 20

// CalculateSMASeries returns the simple moving average for every position of prices.
// Positions without a full window are NaN.
func CalculateSMASeries(prices []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, errors.New("period must be positive")
	}
	out := nanSeries(len(prices))
	if len(prices) < period {
		return out, nil
	}
	sma := talib.Sma(prices, period)
	copy(out[period-1:], sma[period-1:])
	return out, nil
}

// CalculateMA20Series returns the 20-day moving average series from daily bars.
func CalculateMA20Series(dailyBars []model.OHLCV) ([]float64, error) {
	return CalculateSMASeries(extractCloses(dailyBars), MAPeriod)
}

func extractCloses(bars []model.OHLCV) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}

func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
