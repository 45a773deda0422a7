package dataset

import (
	"fmt"
	"math"

	"StockAnalyst/internal/model"
)

// StatCard is one headline figure shown above the chart.
type StatCard struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Delta string `json:"delta,omitempty"`
}

// StatCards renders the four headline figures: latest price, RSI with its
// change since the previous record, mean sentiment and model RMSE.
func StatCards(s model.SeriesSummary, m model.ModelMetric) []StatCard {
	rsi := StatCard{Title: "RSI", Value: fmt.Sprintf("%.1f", s.Latest.RSI)}
	if s.HasPrevious && !math.IsNaN(s.Latest.RSI) && !math.IsNaN(s.Previous.RSI) {
		rsi.Delta = fmt.Sprintf("%+.1f", s.Latest.RSI-s.Previous.RSI)
	}
	return []StatCard{
		{Title: "Latest Price", Value: fmt.Sprintf("$%.2f", s.Latest.Close)},
		rsi,
		{Title: "Sentiment", Value: fmt.Sprintf("%.3f", s.SentimentMean)},
		{Title: "Model RMSE", Value: fmt.Sprintf("%.2f", m.RMSE)},
	}
}
