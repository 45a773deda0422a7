package calculator

import (
	"errors"

	"github.com/markcheno/go-talib"

	"StockAnalyst/internal/model"
)

// RSIPeriod is the default RSI lookback.
const RSIPeriod = 14

// CalculateRSISeries computes the Wilder-smoothed RSI for every position of the bars.
// The first `period` positions have no value and are NaN.
func CalculateRSISeries(bars []model.OHLCV, period int) ([]float64, error) {
	if period <= 0 {
		return nil, errors.New("period must be positive")
	}
	closes := extractCloses(bars)
	out := nanSeries(len(closes))
	if len(closes) < period+1 {
		return out, nil
	}
	rsi := talib.Rsi(closes, period)
	copy(out[period:], rsi[period:])
	return out, nil
}
