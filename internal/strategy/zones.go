package strategy

import (
	"math"

	"StockAnalyst/internal/model"
)

// RSI thresholds. Readings exactly on a threshold are neutral.
const (
	RSIOverbought = 70.0
	RSIOversold   = 30.0
)

var (
	ZoneOverbought = model.Zone{Label: "Overbought (>70)", Marker: "🔴"}
	ZoneOversold   = model.Zone{Label: "Oversold (<30)", Marker: "🟢"}
	ZoneNeutral    = model.Zone{Label: "Neutral", Marker: "🟡"}

	ZoneAboveMA = model.Zone{Label: "Above MA", Marker: "📈"}
	ZoneBelowMA = model.Zone{Label: "Below MA", Marker: "📉"}
)

// rsiZones is checked in order; the first matching bound wins.
var rsiZones = []struct {
	Match func(rsi float64) bool
	Zone  model.Zone
}{
	{func(rsi float64) bool { return rsi > RSIOverbought }, ZoneOverbought},
	{func(rsi float64) bool { return rsi < RSIOversold }, ZoneOversold},
}

// ClassifyRSI maps an RSI reading to its zone. NaN is neutral.
func ClassifyRSI(rsi float64) model.Zone {
	for _, z := range rsiZones {
		if z.Match(rsi) {
			return z.Zone
		}
	}
	return ZoneNeutral
}

// ClassifyTrend reports whether the close sits strictly above its moving average.
// An undefined average compares as below.
func ClassifyTrend(close, ma float64) model.Zone {
	if close > ma {
		return ZoneAboveMA
	}
	return ZoneBelowMA
}

// MADeviation returns the percentage distance of close from ma, or NaN when ma is unusable.
func MADeviation(close, ma float64) float64 {
	if ma == 0 || math.IsNaN(ma) {
		return math.NaN()
	}
	return (close - ma) / ma * 100
}
