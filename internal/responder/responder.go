// Package responder answers free-text questions about a stock series by
// first-match keyword lookup over a fixed, ordered table.
package responder

import (
	"fmt"
	"math"
	"strings"

	"StockAnalyst/internal/model"
	"StockAnalyst/internal/strategy"
)

// DefaultCompany is the company named in replies when none is configured.
const DefaultCompany = "Apple"

// Topics lists the subjects advertised by the fallback reply.
var Topics = []string{"price", "prediction", "sentiment", "RSI", "trend", "performance"}

// QuickQuestions are the suggested queries offered next to the chat.
var QuickQuestions = []string{
	"What's the current price?",
	"What is the prediction accuracy?",
	"How is the sentiment?",
	"What is RSI status?",
	"What is the trend?",
}

// rule pairs a keyword with the reply rendered when the query contains it.
type rule struct {
	keyword string
	render  func(r Responder, s model.SeriesSummary, m model.ModelMetric) string
}

// rules is scanned in order and the first hit wins. "current price" can never
// be reached because "price" comes first; the order is kept as is.
var rules = []rule{
	{"price", renderPrice},
	{"current price", renderPrice},
	{"prediction", renderPrediction},
	{"forecast", renderPrediction},
	{"sentiment", renderSentiment},
	{"rsi", renderRSI},
	{"trend", renderTrend},
	{"performance", renderPerformance},
	{"data", renderData},
}

// Responder formats replies for one company. The zero value uses DefaultCompany.
type Responder struct {
	Company string
}

// New returns a Responder for company.
func New(company string) Responder {
	return Responder{Company: company}
}

// Respond answers query using the default company name.
func Respond(query string, summary model.SeriesSummary, metric model.ModelMetric) string {
	return Responder{}.Respond(query, summary, metric)
}

// Respond returns the reply for the first keyword contained in query, or the
// fallback listing of supported topics. It never fails and has no side effects.
func (r Responder) Respond(query string, summary model.SeriesSummary, metric model.ModelMetric) string {
	q := strings.ToLower(query)
	for _, rl := range rules {
		if strings.Contains(q, rl.keyword) {
			return rl.render(r, summary, metric)
		}
	}
	return r.Fallback()
}

// Fallback is the reply for queries that match no keyword.
func (r Responder) Fallback() string {
	return fmt.Sprintf("🤖 I can answer about **price**, **prediction**, **sentiment**, **RSI**, **trend**, or **performance**. Ask me anything about %s stock!", r.company())
}

func (r Responder) company() string {
	if r.Company == "" {
		return DefaultCompany
	}
	return r.Company
}

func renderPrice(r Responder, s model.SeriesSummary, _ model.ModelMetric) string {
	return fmt.Sprintf("**Latest %s closing price: $%s** (as of %s)", r.company(), num(s.Latest.Close, 2), s.Latest.Day())
}

func renderPrediction(_ Responder, _ model.SeriesSummary, m model.ModelMetric) string {
	return fmt.Sprintf("**Model RMSE: %s**. Random Forest predicts next day price using Close, MA, RSI, Sentiment features.", num(m.RMSE, 2))
}

func renderSentiment(_ Responder, s model.SeriesSummary, _ model.ModelMetric) string {
	return fmt.Sprintf("**Average sentiment: %s** (range: %s to %s)",
		num(s.SentimentMean, 3), num(s.SentimentMin, 3), num(s.SentimentMax, 3))
}

func renderRSI(_ Responder, s model.SeriesSummary, _ model.ModelMetric) string {
	rsi := s.Latest.RSI
	return fmt.Sprintf("**Latest RSI: %s** - %s", num(rsi, 1), strategy.ClassifyRSI(rsi))
}

func renderTrend(_ Responder, s model.SeriesSummary, _ model.ModelMetric) string {
	ma, price := s.Latest.MA20, s.Latest.Close
	return fmt.Sprintf("**20-day MA: $%s** vs Current: $%s %s", num(ma, 2), num(price, 2), strategy.ClassifyTrend(price, ma))
}

func renderPerformance(_ Responder, _ model.SeriesSummary, m model.ModelMetric) string {
	return fmt.Sprintf("**Random Forest RMSE: %s** - Lower is better for price prediction accuracy.", num(m.RMSE, 2))
}

func renderData(r Responder, s model.SeriesSummary, _ model.ModelMetric) string {
	return fmt.Sprintf("**Dataset: %d days** of %s stock data with technical indicators and sentiment analysis.", s.RecordCount, r.company())
}

// num formats v with prec decimals; undefined values read "nan", "inf" or "-inf".
func num(v float64, prec int) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	return fmt.Sprintf("%.*f", prec, v)
}
