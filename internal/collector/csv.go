package collector

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	"StockAnalyst/internal/model"
)

var dateLayouts = []string{model.DateLayout, "2006-01-02 15:04:05", time.RFC3339}

// csvDate parses the Date column of exported indicator tables.
type csvDate struct {
	time.Time
}

func (d *csvDate) UnmarshalCSV(s string) error {
	t, err := parseDate(s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

func (d csvDate) MarshalCSV() (string, error) {
	return d.Format(model.DateLayout), nil
}

// csvFloat maps blank and "nan" cells to NaN.
type csvFloat struct {
	Value float64
}

func (f *csvFloat) UnmarshalCSV(s string) error {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") {
		f.Value = math.NaN()
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("parse number %q: %w", s, err)
	}
	f.Value = v
	return nil
}

func (f csvFloat) MarshalCSV() (string, error) {
	if math.IsNaN(f.Value) {
		return "", nil
	}
	return strconv.FormatFloat(f.Value, 'f', -1, 64), nil
}

// csvRow is one line of a Date,Close,MA_20,RSI,Sentiment table.
type csvRow struct {
	Date      csvDate  `csv:"Date"`
	Close     csvFloat `csv:"Close"`
	MA20      csvFloat `csv:"MA_20"`
	RSI       csvFloat `csv:"RSI"`
	Sentiment csvFloat `csv:"Sentiment"`
}

// sentimentRow is one line of a Date,Sentiment table.
type sentimentRow struct {
	Date      csvDate  `csv:"Date"`
	Sentiment csvFloat `csv:"Sentiment"`
}

// CSVSource reads precomputed records from a CSV export. The symbol is ignored;
// one file holds one series.
type CSVSource struct {
	Path string
}

// NewCSVSource creates a source reading path.
func NewCSVSource(path string) *CSVSource {
	return &CSVSource{Path: path}
}

func (s *CSVSource) Name() string { return "csv" }

func (s *CSVSource) FetchRecords(_ context.Context, _ string, days int) ([]model.DailyRecord, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	var rows []*csvRow
	if err := gocsv.Unmarshal(f, &rows); err != nil {
		return nil, fmt.Errorf("decode csv %s: %w", s.Path, err)
	}

	records := make([]model.DailyRecord, 0, len(rows))
	for _, r := range rows {
		records = append(records, model.DailyRecord{
			Date:      r.Date.Time,
			Close:     r.Close.Value,
			MA20:      r.MA20.Value,
			RSI:       r.RSI.Value,
			Sentiment: r.Sentiment.Value,
		})
	}
	sortRecords(records)
	return lastN(records, days), nil
}

// WriteCSV writes records in the layout CSVSource reads. NaN cells are left blank.
func WriteCSV(w io.Writer, records []model.DailyRecord) error {
	rows := make([]*csvRow, len(records))
	for i, r := range records {
		rows[i] = &csvRow{
			Date:      csvDate{r.Date},
			Close:     csvFloat{r.Close},
			MA20:      csvFloat{r.MA20},
			RSI:       csvFloat{r.RSI},
			Sentiment: csvFloat{r.Sentiment},
		}
	}
	return gocsv.Marshal(rows, w)
}

// LoadSentiment reads a Date,Sentiment CSV into a map keyed by YYYY-MM-DD.
func LoadSentiment(path string) (map[string]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sentiment csv: %w", err)
	}
	defer f.Close()

	var rows []*sentimentRow
	if err := gocsv.Unmarshal(f, &rows); err != nil {
		return nil, fmt.Errorf("decode sentiment csv %s: %w", path, err)
	}
	out := make(map[string]float64, len(rows))
	for _, r := range rows {
		out[r.Date.Format(model.DateLayout)] = r.Sentiment.Value
	}
	return out, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return calendarDay(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

// calendarDay drops the time of day, keeping the date as seen in t's zone.
func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sortRecords(records []model.DailyRecord) {
	sort.SliceStable(records, func(i, j int) bool { return records[i].Date.Before(records[j].Date) })
}

func lastN(records []model.DailyRecord, n int) []model.DailyRecord {
	if n > 0 && len(records) > n {
		return records[len(records)-n:]
	}
	return records
}
