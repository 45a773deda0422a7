package model

import "time"

// DateLayout is the calendar-date format used for display and storage.
const DateLayout = "2006-01-02"

// DailyRecord is one trading day with its precomputed indicators.
// MA20 is NaN until 20 closes are available.
type DailyRecord struct {
	Date      time.Time `json:"date"`
	Close     float64   `json:"close"`
	MA20      float64   `json:"ma_20"`
	RSI       float64   `json:"rsi"`
	Sentiment float64   `json:"sentiment"`
}

// Day returns the record date formatted as YYYY-MM-DD.
func (r DailyRecord) Day() string {
	return r.Date.Format(DateLayout)
}

// SeriesSummary is a read-only view over an ordered record sequence.
// It is recomputed for every query and never stored.
type SeriesSummary struct {
	Latest        DailyRecord
	Previous      DailyRecord
	HasPrevious   bool
	SentimentMean float64
	SentimentMin  float64
	SentimentMax  float64
	RecordCount   int
}

// ModelMetric describes the externally trained price model.
type ModelMetric struct {
	Model     string    `json:"model"`
	RMSE      float64   `json:"rmse"`
	Features  []string  `json:"features"`
	UpdatedAt time.Time `json:"updated_at"`
}
