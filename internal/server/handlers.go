package server

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"StockAnalyst/internal/calculator"
	"StockAnalyst/internal/dataset"
	"StockAnalyst/internal/model"
	"StockAnalyst/internal/session"
	"StockAnalyst/internal/strategy"
)

// maxQueryLength bounds chat queries in bytes.
const maxQueryLength = 2000

type recordJSON struct {
	Date      string   `json:"date"`
	Close     float64  `json:"close"`
	MA20      *float64 `json:"ma_20"`
	RSI       *float64 `json:"rsi"`
	Sentiment *float64 `json:"sentiment"`
}

// SummaryResponse is the body of GET /api/summary.
type SummaryResponse struct {
	Symbol      string              `json:"symbol"`
	Company     string              `json:"company"`
	Source      string              `json:"source"`
	LoadedAt    time.Time           `json:"loaded_at"`
	RecordCount int                 `json:"record_count"`
	Latest      recordJSON          `json:"latest"`
	Previous    *recordJSON         `json:"previous,omitempty"`
	Sentiment   map[string]*float64 `json:"sentiment"`
	Model       model.ModelMetric   `json:"model"`
	RSIZone     string              `json:"rsi_zone"`
	Trend       string              `json:"trend"`
	Range       *rangeJSON          `json:"range,omitempty"`
	Cards       []dataset.StatCard  `json:"cards"`
}

// rangeJSON describes where the latest close sits in the loaded window.
type rangeJSON struct {
	High        float64  `json:"high"`
	Low         float64  `json:"low"`
	Position    float64  `json:"position"`
	MADeviation *float64 `json:"ma_deviation_pct"`
}

type lastRefreshJSON struct {
	At       time.Time `json:"at"`
	Status   string    `json:"status"`
	Source   string    `json:"source"`
	Records  int       `json:"records"`
	LastDate string    `json:"last_date,omitempty"`
	Error    string    `json:"error,omitempty"`
	Duration int64     `json:"duration_ms"`
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	SessionID string `json:"session_id"`
	Query     string `json:"query"`
}

// ChatResponse is the reply to POST /api/chat.
type ChatResponse struct {
	SessionID string `json:"session_id"`
	Response  string `json:"response"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	if !s.holder.Loaded() {
		status = "loading"
	}
	body := map[string]interface{}{
		"status":   status,
		"service":  "stockanalyst",
		"sessions": s.sessions.Len(),
	}
	if s.store != nil {
		evt, err := s.store.LastRefresh(r.Context())
		if err != nil {
			s.log.Warn().Err(err).Msg("read last refresh")
		} else if evt != nil {
			body["last_refresh"] = lastRefreshJSON{
				At:       evt.At,
				Status:   evt.Status,
				Source:   evt.Source,
				Records:  evt.Records,
				LastDate: evt.LastDate,
				Error:    evt.Error,
				Duration: evt.Duration.Milliseconds(),
			}
		}
	}
	s.writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	snap, summary, metric, ok := s.loadSummary(w)
	if !ok {
		return
	}

	resp := SummaryResponse{
		Symbol:      snap.Symbol,
		Company:     snap.Company,
		Source:      snap.Source,
		LoadedAt:    snap.LoadedAt,
		RecordCount: summary.RecordCount,
		Latest:      toRecordJSON(summary.Latest),
		Sentiment: map[string]*float64{
			"mean": nullable(summary.SentimentMean),
			"min":  nullable(summary.SentimentMin),
			"max":  nullable(summary.SentimentMax),
		},
		Model:   metric,
		RSIZone: strategy.ClassifyRSI(summary.Latest.RSI).String(),
		Trend:   strategy.ClassifyTrend(summary.Latest.Close, summary.Latest.MA20).String(),
		Cards:   dataset.StatCards(summary, metric),
	}
	if summary.HasPrevious {
		prev := toRecordJSON(summary.Previous)
		resp.Previous = &prev
	}
	if high, low, err := calculator.CalculateCloseRange(snap.Records); err == nil {
		if pos, err := calculator.CalculateRangePosition(summary.Latest.Close, high, low); err == nil {
			resp.Range = &rangeJSON{
				High:        high,
				Low:         low,
				Position:    pos,
				MADeviation: nullable(strategy.MADeviation(summary.Latest.Close, summary.Latest.MA20)),
			}
		}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	snap, err := s.holder.Get()
	if err != nil {
		s.writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, buildChart(snap))
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 16<<10)).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	query, err := cleanQuery(req.Query)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	reply, err := s.answer(query)
	if err != nil {
		s.writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	t := s.sessions.GetOrCreate(req.SessionID)
	s.sessions.Exchange(t, query, reply)
	s.writeJSON(w, http.StatusOK, ChatResponse{SessionID: t.ID(), Response: reply})
}

func (s *Server) handleSessionMessages(w http.ResponseWriter, r *http.Request) {
	t, err := s.sessions.Get(chi.URLParam(r, "id"))
	if errors.Is(err, session.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"session_id": t.ID(),
		"messages":   t.Messages(),
	})
}

// answer runs the responder over a freshly computed summary.
func (s *Server) answer(query string) (string, error) {
	summary, metric, err := s.holder.Summary()
	if err != nil {
		return "", err
	}
	return s.responder.Respond(query, summary, metric), nil
}

// loadSummary reads one snapshot and summarizes its own records, so the
// response never mixes two refreshes.
func (s *Server) loadSummary(w http.ResponseWriter) (dataset.Snapshot, model.SeriesSummary, model.ModelMetric, bool) {
	snap, err := s.holder.Get()
	if err != nil {
		s.writeError(w, http.StatusServiceUnavailable, err.Error())
		return dataset.Snapshot{}, model.SeriesSummary{}, model.ModelMetric{}, false
	}
	summary, err := snap.Summary()
	if err != nil {
		s.writeError(w, http.StatusServiceUnavailable, err.Error())
		return dataset.Snapshot{}, model.SeriesSummary{}, model.ModelMetric{}, false
	}
	return snap, summary, snap.Metric, true
}

var (
	errEmptyQuery = errors.New("query must not be empty")
	errLongQuery  = errors.New("query is too long")
)

func cleanQuery(q string) (string, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return "", errEmptyQuery
	}
	if len(q) > maxQueryLength {
		return "", errLongQuery
	}
	return q, nil
}

func toRecordJSON(r model.DailyRecord) recordJSON {
	return recordJSON{
		Date:      r.Day(),
		Close:     r.Close,
		MA20:      nullable(r.MA20),
		RSI:       nullable(r.RSI),
		Sentiment: nullable(r.Sentiment),
	}
}

// nullable maps NaN to JSON null.
func nullable(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("failed to encode JSON response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]interface{}{
		"error": message,
	})
}
