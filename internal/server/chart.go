package server

import (
	"bytes"
	"fmt"
	"html/template"
	"math"
	"net/http"
	"strings"

	"StockAnalyst/internal/collector"
	"StockAnalyst/internal/dataset"
	"StockAnalyst/internal/model"
)

// ChartPoint is one day of the price chart.
type ChartPoint struct {
	Date  string   `json:"date"`
	Close float64  `json:"close"`
	MA20  *float64 `json:"ma_20"`
}

// ChartResponse is the body of GET /api/chart.
type ChartResponse struct {
	Title  string       `json:"title"`
	Symbol string       `json:"symbol"`
	Points []ChartPoint `json:"points"`
}

func chartTitle(company string) string {
	return fmt.Sprintf("%s Stock Price & Moving Average", company)
}

func buildChart(snap dataset.Snapshot) ChartResponse {
	points := make([]ChartPoint, len(snap.Records))
	for i, r := range snap.Records {
		points[i] = ChartPoint{Date: r.Day(), Close: r.Close, MA20: nullable(r.MA20)}
	}
	return ChartResponse{Title: chartTitle(snap.Company), Symbol: snap.Symbol, Points: points}
}

func (s *Server) handleRecordsCSV(w http.ResponseWriter, r *http.Request) {
	snap, err := s.holder.Get()
	if err != nil {
		s.writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	var buf bytes.Buffer
	if err := collector.WriteCSV(&buf, snap.Records); err != nil {
		s.log.Error().Err(err).Msg("encode records csv")
		s.writeError(w, http.StatusInternalServerError, "encode failed")
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.csv"`, strings.ToLower(snap.Symbol)))
	w.Write(buf.Bytes())
}

func (s *Server) handleChartSVG(w http.ResponseWriter, r *http.Request) {
	snap, err := s.holder.Get()
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write([]byte(renderSVG(chartTitle(snap.Company), snap.Records, 960, 420)))
}

const (
	chartPad      = 56.0
	chartGridRows = 5
	closeColor    = "#1f77b4"
	maColor       = "#ff7f0e"
)

// renderSVG draws the close series and its 20-day average as polylines.
// Days without an average leave a gap in the MA line.
func renderSVG(title string, records []model.DailyRecord, width, height int) string {
	w, h := float64(width), float64(height)
	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" width="%d" height="%d" font-family="sans-serif" font-size="12">`,
		width, height, width, height)
	b.WriteString(`<rect width="100%" height="100%" fill="#ffffff"/>`)
	fmt.Fprintf(&b, `<text x="%.0f" y="24" text-anchor="middle" font-size="16">%s</text>`, w/2, template.HTMLEscapeString(title))

	lo, hi, ok := valueRange(records)
	if !ok {
		b.WriteString(`</svg>`)
		return b.String()
	}
	if hi == lo {
		lo, hi = lo-1, hi+1
	}

	plotW, plotH := w-2*chartPad, h-2*chartPad
	x := func(i int) float64 {
		if len(records) == 1 {
			return chartPad + plotW/2
		}
		return chartPad + float64(i)*plotW/float64(len(records)-1)
	}
	y := func(v float64) float64 {
		return chartPad + (hi-v)/(hi-lo)*plotH
	}

	// Grid and price labels.
	for row := 0; row <= chartGridRows; row++ {
		v := lo + (hi-lo)*float64(row)/chartGridRows
		gy := y(v)
		fmt.Fprintf(&b, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#000" stroke-opacity="0.1"/>`, chartPad, gy, w-chartPad, gy)
		fmt.Fprintf(&b, `<text x="%.1f" y="%.1f" text-anchor="end">%.2f</text>`, chartPad-6, gy+4, v)
	}
	fmt.Fprintf(&b, `<text x="%.1f" y="%.1f">%s</text>`, chartPad, h-chartPad/2, records[0].Day())
	fmt.Fprintf(&b, `<text x="%.1f" y="%.1f" text-anchor="end">%s</text>`, w-chartPad, h-chartPad/2, records[len(records)-1].Day())

	closes := make([]string, 0, len(records))
	for i, r := range records {
		closes = append(closes, fmt.Sprintf("%.1f,%.1f", x(i), y(r.Close)))
	}
	fmt.Fprintf(&b, `<polyline class="close" fill="none" stroke="%s" stroke-width="2" points="%s"/>`, closeColor, strings.Join(closes, " "))

	var segment []string
	flush := func() {
		if len(segment) > 0 {
			fmt.Fprintf(&b, `<polyline class="ma20" fill="none" stroke="%s" stroke-opacity="0.7" stroke-width="1.5" points="%s"/>`, maColor, strings.Join(segment, " "))
		}
		segment = segment[:0]
	}
	for i, r := range records {
		if math.IsNaN(r.MA20) {
			flush()
			continue
		}
		segment = append(segment, fmt.Sprintf("%.1f,%.1f", x(i), y(r.MA20)))
	}
	flush()

	// Legend
	fmt.Fprintf(&b, `<line x1="%.1f" y1="44" x2="%.1f" y2="44" stroke="%s" stroke-width="2"/><text x="%.1f" y="48">Close Price</text>`,
		chartPad+8, chartPad+28, closeColor, chartPad+34)
	fmt.Fprintf(&b, `<line x1="%.1f" y1="62" x2="%.1f" y2="62" stroke="%s" stroke-width="1.5"/><text x="%.1f" y="66">20-day MA</text>`,
		chartPad+8, chartPad+28, maColor, chartPad+34)

	b.WriteString(`</svg>`)
	return b.String()
}

// valueRange returns the bounds over closes and defined averages.
func valueRange(records []model.DailyRecord) (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, r := range records {
		for _, v := range []float64{r.Close, r.MA20} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	return lo, hi, !math.IsInf(lo, 1)
}
