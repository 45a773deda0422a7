package calculator

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"StockAnalyst/internal/model"
)

// ErrPreconditionViolation is returned when a record sequence is empty or out of date order.
var ErrPreconditionViolation = errors.New("precondition violation")

// ValidateRecords checks that records are non-empty and sorted ascending by date.
func ValidateRecords(records []model.DailyRecord) error {
	if len(records) == 0 {
		return fmt.Errorf("%w: record sequence is empty", ErrPreconditionViolation)
	}
	for i := 1; i < len(records); i++ {
		if records[i].Date.Before(records[i-1].Date) {
			return fmt.Errorf("%w: record %d (%s) precedes record %d (%s)",
				ErrPreconditionViolation, i, records[i].Day(), i-1, records[i-1].Day())
		}
	}
	return nil
}

// Summarize derives the SeriesSummary of an ordered record sequence.
// NaN sentiment values are skipped by the aggregates.
func Summarize(records []model.DailyRecord) (model.SeriesSummary, error) {
	if err := ValidateRecords(records); err != nil {
		return model.SeriesSummary{}, err
	}

	n := len(records)
	s := model.SeriesSummary{
		Latest:        records[n-1],
		RecordCount:   n,
		SentimentMean: math.NaN(),
		SentimentMin:  math.NaN(),
		SentimentMax:  math.NaN(),
	}
	if n > 1 {
		s.Previous = records[n-2]
		s.HasPrevious = true
	}

	sentiments := make([]float64, 0, n)
	for _, r := range records {
		if !math.IsNaN(r.Sentiment) {
			sentiments = append(sentiments, r.Sentiment)
		}
	}
	if len(sentiments) > 0 {
		s.SentimentMean = stat.Mean(sentiments, nil)
		s.SentimentMin = floats.Min(sentiments)
		s.SentimentMax = floats.Max(sentiments)
	}
	return s, nil
}
