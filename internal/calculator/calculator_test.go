package calculator

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockAnalyst/internal/model"
)

func barsFromCloses(closes ...float64) []model.OHLCV {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]model.OHLCV, len(closes))
	for i, c := range closes {
		bars[i] = model.OHLCV{Time: start.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c}
	}
	return bars
}

func recordsFrom(sentiments ...float64) []model.DailyRecord {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	recs := make([]model.DailyRecord, len(sentiments))
	for i, s := range sentiments {
		recs[i] = model.DailyRecord{
			Date:      start.AddDate(0, 0, i),
			Close:     100 + float64(i),
			MA20:      math.NaN(),
			RSI:       50,
			Sentiment: s,
		}
	}
	return recs
}

func TestCalculateSMASeries(t *testing.T) {
	out, err := CalculateSMASeries([]float64{1, 2, 3, 4, 5}, 3)
	require.NoError(t, err)
	require.Len(t, out, 5)

	assert.True(t, math.IsNaN(out[0]))
	assert.True(t, math.IsNaN(out[1]))
	assert.InDelta(t, 2.0, out[2], 1e-9)
	assert.InDelta(t, 3.0, out[3], 1e-9)
	assert.InDelta(t, 4.0, out[4], 1e-9)
}

func TestCalculateSMASeries_ShortInput(t *testing.T) {
	out, err := CalculateSMASeries([]float64{1, 2}, 20)
	require.NoError(t, err)
	require.Len(t, out, 2)
	for _, v := range out {
		assert.True(t, math.IsNaN(v))
	}
}

func TestCalculateSMASeries_InvalidPeriod(t *testing.T) {
	_, err := CalculateSMASeries([]float64{1, 2, 3}, 0)
	assert.Error(t, err)
}

func TestCalculateMA20Series_FirstNineteenUndefined(t *testing.T) {
	closes := make([]float64, 25)
	for i := range closes {
		closes[i] = 10
	}
	out, err := CalculateMA20Series(barsFromCloses(closes...))
	require.NoError(t, err)

	for i := 0; i < 19; i++ {
		assert.True(t, math.IsNaN(out[i]), "index %d should be NaN", i)
	}
	for i := 19; i < 25; i++ {
		assert.InDelta(t, 10.0, out[i], 1e-9)
	}
}

func TestCalculateRSISeries_Extremes(t *testing.T) {
	rising := make([]float64, 30)
	falling := make([]float64, 30)
	for i := range rising {
		rising[i] = 100 + float64(i)
		falling[i] = 200 - float64(i)
	}

	up, err := CalculateRSISeries(barsFromCloses(rising...), RSIPeriod)
	require.NoError(t, err)
	down, err := CalculateRSISeries(barsFromCloses(falling...), RSIPeriod)
	require.NoError(t, err)

	for i := 0; i < RSIPeriod; i++ {
		assert.True(t, math.IsNaN(up[i]))
	}
	assert.InDelta(t, 100.0, up[len(up)-1], 1e-9)
	assert.InDelta(t, 0.0, down[len(down)-1], 1e-9)
}

func TestCalculateRSISeries_InsufficientData(t *testing.T) {
	out, err := CalculateRSISeries(barsFromCloses(1, 2, 3), RSIPeriod)
	require.NoError(t, err)
	for _, v := range out {
		assert.True(t, math.IsNaN(v))
	}
}

func TestCalculateCloseRange(t *testing.T) {
	recs := recordsFrom(0, 0, 0, 0)
	high, low, err := CalculateCloseRange(recs)
	require.NoError(t, err)
	assert.Equal(t, 103.0, high)
	assert.Equal(t, 100.0, low)

	_, _, err = CalculateCloseRange(nil)
	assert.Error(t, err)
}

func TestCalculateRangePosition(t *testing.T) {
	tests := []struct {
		current, high, low float64
		want               float64
	}{
		{150, 200, 100, 0.5},
		{250, 200, 100, 1},
		{50, 200, 100, 0},
		{100, 100, 100, 0.5},
	}
	for _, tt := range tests {
		got, err := CalculateRangePosition(tt.current, tt.high, tt.low)
		require.NoError(t, err)
		assert.InDelta(t, tt.want, got, 1e-9)
	}

	_, err := CalculateRangePosition(1, 1, 2)
	assert.Error(t, err)
}

func TestSummarize(t *testing.T) {
	recs := recordsFrom(0.1, -0.2, 0.4)
	s, err := Summarize(recs)
	require.NoError(t, err)

	assert.Equal(t, recs[2], s.Latest)
	assert.Equal(t, recs[1], s.Previous)
	assert.True(t, s.HasPrevious)
	assert.Equal(t, 3, s.RecordCount)
	assert.InDelta(t, 0.1, s.SentimentMean, 1e-9)
	assert.InDelta(t, -0.2, s.SentimentMin, 1e-9)
	assert.InDelta(t, 0.4, s.SentimentMax, 1e-9)
}

func TestSummarize_SkipsNaNSentiment(t *testing.T) {
	s, err := Summarize(recordsFrom(math.NaN(), 0.2, 0.4))
	require.NoError(t, err)
	assert.InDelta(t, 0.3, s.SentimentMean, 1e-9)
	assert.InDelta(t, 0.2, s.SentimentMin, 1e-9)
}

func TestSummarize_SingleRecord(t *testing.T) {
	s, err := Summarize(recordsFrom(0.5))
	require.NoError(t, err)
	assert.False(t, s.HasPrevious)
	assert.Equal(t, 1, s.RecordCount)
}

func TestSummarize_EmptyIsPreconditionViolation(t *testing.T) {
	_, err := Summarize(nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPreconditionViolation))
}

func TestSummarize_UnsortedIsPreconditionViolation(t *testing.T) {
	recs := recordsFrom(0.1, 0.2, 0.3)
	recs[0], recs[2] = recs[2], recs[0]

	_, err := Summarize(recs)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPreconditionViolation)
	assert.Contains(t, err.Error(), "precedes")
}
