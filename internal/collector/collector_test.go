package collector

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockAnalyst/internal/calculator"
	"StockAnalyst/internal/model"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

const recordsCSV = `Date,Close,MA_20,RSI,Sentiment
2024-01-12,149.10,,44.0,0.05
2024-01-10,148.00,nan,40.5,-0.10
2024-01-15,150.25,148.40,45.2,0.12
`

func TestCSVSource_FetchRecords(t *testing.T) {
	src := NewCSVSource(writeFile(t, "aapl.csv", recordsCSV))

	recs, err := src.FetchRecords(context.Background(), "AAPL", 0)
	require.NoError(t, err)
	require.Len(t, recs, 3)

	assert.Equal(t, "2024-01-10", recs[0].Day())
	assert.Equal(t, "2024-01-15", recs[2].Day())
	assert.True(t, math.IsNaN(recs[0].MA20))
	assert.True(t, math.IsNaN(recs[1].MA20))
	assert.Equal(t, 150.25, recs[2].Close)
	assert.Equal(t, 148.40, recs[2].MA20)
	assert.Equal(t, 45.2, recs[2].RSI)
	assert.Equal(t, 0.12, recs[2].Sentiment)
}

func TestWriteCSV_ReadableByCSVSource(t *testing.T) {
	src := NewCSVSource(writeFile(t, "aapl.csv", recordsCSV))
	recs, err := src.FetchRecords(context.Background(), "AAPL", 0)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, recs))
	assert.True(t, strings.HasPrefix(buf.String(), "Date,Close,MA_20,RSI,Sentiment\n2024-01-10,148,,40.5,-0.1\n"))

	again, err := NewCSVSource(writeFile(t, "copy.csv", buf.String())).FetchRecords(context.Background(), "AAPL", 0)
	require.NoError(t, err)
	require.Len(t, again, 3)
	assert.Equal(t, recs[2], again[2])
}

func TestCSVSource_TrimsToDays(t *testing.T) {
	src := NewCSVSource(writeFile(t, "aapl.csv", recordsCSV))

	recs, err := src.FetchRecords(context.Background(), "AAPL", 2)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "2024-01-12", recs[0].Day())
}

func TestCSVSource_Errors(t *testing.T) {
	_, err := NewCSVSource(filepath.Join(t.TempDir(), "missing.csv")).FetchRecords(context.Background(), "AAPL", 0)
	assert.Error(t, err)

	bad := writeFile(t, "bad.csv", "Date,Close,MA_20,RSI,Sentiment\nyesterday,1,1,1,1\n")
	_, err = NewCSVSource(bad).FetchRecords(context.Background(), "AAPL", 0)
	assert.Error(t, err)
}

func TestLoadSentiment(t *testing.T) {
	p := writeFile(t, "sentiment.csv", "Date,Sentiment\n2024-01-15,0.3\n2024-01-16 00:00:00,-0.2\n")

	m, err := LoadSentiment(p)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"2024-01-15": 0.3, "2024-01-16": -0.2}, m)
}

func TestRemoteSource_FetchRecords(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/records", r.URL.Path)
		assert.Equal(t, "AAPL", r.URL.Query().Get("symbol"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		assert.Equal(t, "secret", r.Header.Get("X-API-Key"))
		fmt.Fprint(w, `[
			{"date":"2024-01-15","close":150.25,"ma_20":148.4,"rsi":45.2,"sentiment":0.12},
			{"date":"2024-01-12","close":149.1,"ma_20":null,"rsi":44.0,"sentiment":0.05}
		]`)
	}))
	defer srv.Close()

	src := NewRemoteSource(srv.URL, "secret", "")
	recs, err := src.FetchRecords(context.Background(), "AAPL", 5)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "2024-01-12", recs[0].Day())
	assert.True(t, math.IsNaN(recs[0].MA20))
	assert.Equal(t, 148.4, recs[1].MA20)
}

func TestRemoteSource_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewRemoteSource(srv.URL, "", "").FetchRecords(context.Background(), "AAPL", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}

func TestYahooFetcher_FetchDailyBars(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/^GSPC", r.URL.Path)
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		fmt.Fprint(w, `{"chart":{"result":[{"timestamp":[1705329000,1705069800,1705415400],
			"indicators":{"quote":[{"open":[150,149,null],"high":[151,150,null],"low":[149,148,null],
			"close":[150.25,149.1,null],"volume":[1000,900,null]}]}}],"error":null}}`)
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL

	bars, err := f.FetchDailyBars(context.Background(), "SPX500", 10)
	require.NoError(t, err)
	require.Len(t, bars, 2, "null bars are skipped")
	assert.True(t, bars[0].Time.Before(bars[1].Time))
	assert.Equal(t, 150.25, bars[1].Close)
}

type stubFetcher struct {
	bars []model.OHLCV
	err  error
}

func (s *stubFetcher) Name() string { return "stub" }

func (s *stubFetcher) FetchDailyBars(_ context.Context, _ string, _ int) ([]model.OHLCV, error) {
	return s.bars, s.err
}

func risingBars(n int) []model.OHLCV {
	start := time.Date(2024, 1, 1, 14, 30, 0, 0, time.UTC)
	bars := make([]model.OHLCV, n)
	for i := range bars {
		c := 100 + float64(i)
		bars[i] = model.OHLCV{Time: start.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c}
	}
	return bars
}

func TestBarSource_DerivesIndicators(t *testing.T) {
	sentiment := map[string]float64{"2024-01-30": 0.4}
	src := NewBarSource(&stubFetcher{bars: risingBars(30)}, sentiment)

	recs, err := src.FetchRecords(context.Background(), "AAPL", 30)
	require.NoError(t, err)
	require.Len(t, recs, 30)

	assert.Equal(t, "2024-01-01", recs[0].Day())
	assert.True(t, math.IsNaN(recs[18].MA20))
	assert.InDelta(t, 109.5, recs[19].MA20, 1e-9)
	assert.True(t, math.IsNaN(recs[calculator.RSIPeriod-1].RSI))
	assert.InDelta(t, 100.0, recs[29].RSI, 1e-9)
	assert.Equal(t, 0.4, recs[29].Sentiment)
	assert.Equal(t, 0.0, recs[28].Sentiment)
	assert.Equal(t, "stub", src.Name())
}

func TestBarSource_FetchError(t *testing.T) {
	src := NewBarSource(&stubFetcher{err: errors.New("offline")}, nil)
	_, err := src.FetchRecords(context.Background(), "AAPL", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "offline")
}

type stubSource struct {
	recs []model.DailyRecord
}

func (s *stubSource) Name() string { return "stub" }

func (s *stubSource) FetchRecords(_ context.Context, _ string, _ int) ([]model.DailyRecord, error) {
	return s.recs, nil
}

func TestCollector_Collect(t *testing.T) {
	recs, err := NewCSVSource(writeFile(t, "aapl.csv", recordsCSV)).FetchRecords(context.Background(), "", 0)
	require.NoError(t, err)

	c := NewCollector(&stubSource{recs: recs}, "AAPL", 0, zerolog.Nop())
	got, err := c.Collect(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestCollector_RejectsBlankCloseCell(t *testing.T) {
	path := writeFile(t, "blank.csv", "Date,Close,MA_20,RSI,Sentiment\n2024-01-12,149.1,,44.0,0.1\n2024-01-15,,148.4,45.2,0.12\n")

	c := NewCollector(NewCSVSource(path), "AAPL", 0, zerolog.Nop())
	_, err := c.Collect(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2024-01-15")
}

func TestCollector_RejectsBadSeries(t *testing.T) {
	d := func(day int) time.Time { return time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC) }
	tests := []struct {
		name string
		recs []model.DailyRecord
		want string
	}{
		{"empty", nil, "empty"},
		{"unsorted", []model.DailyRecord{{Date: d(2), Close: 1}, {Date: d(1), Close: 1}}, "precedes"},
		{"non-positive close", []model.DailyRecord{{Date: d(1), Close: 1}, {Date: d(2), Close: 0}}, "close must be positive"},
		{"missing close", []model.DailyRecord{{Date: d(1), Close: 1}, {Date: d(2), Close: math.NaN()}}, "close must be positive"},
		{"infinite close", []model.DailyRecord{{Date: d(1), Close: math.Inf(1)}}, "close must be positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCollector(&stubSource{recs: tt.recs}, "AAPL", 0, zerolog.Nop())
			_, err := c.Collect(context.Background())
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), tt.want), err.Error())
		})
	}
}
