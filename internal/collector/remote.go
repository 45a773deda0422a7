package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"time"

	"StockAnalyst/internal/model"
)

// RemoteSource pulls precomputed records from an indicator service REST API.
type RemoteSource struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewRemoteSource creates a new source with optional proxy support.
func NewRemoteSource(baseURL, apiKey, proxyURL string) *RemoteSource {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &RemoteSource{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

func (s *RemoteSource) Name() string { return "remote" }

// remoteRecord is the expected JSON shape from the indicator API.
// Indicators that are not yet defined arrive as null.
type remoteRecord struct {
	Date      string   `json:"date"`
	Close     float64  `json:"close"`
	MA20      *float64 `json:"ma_20"`
	RSI       *float64 `json:"rsi"`
	Sentiment *float64 `json:"sentiment"`
}

func (s *RemoteSource) FetchRecords(ctx context.Context, symbol string, days int) ([]model.DailyRecord, error) {
	endpoint := fmt.Sprintf("%s/api/v1/records?symbol=%s&limit=%d", s.BaseURL, url.QueryEscape(symbol), days)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if s.APIKey != "" {
		req.Header.Set("X-API-Key", s.APIKey)
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remote fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("remote read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("remote: status %d, body: %s", resp.StatusCode, string(body))
	}

	var raw []remoteRecord
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("remote decode: %w", err)
	}

	records := make([]model.DailyRecord, 0, len(raw))
	for _, r := range raw {
		date, err := parseDate(r.Date)
		if err != nil {
			return nil, fmt.Errorf("remote record: %w", err)
		}
		records = append(records, model.DailyRecord{
			Date:      date,
			Close:     r.Close,
			MA20:      orNaN(r.MA20),
			RSI:       orNaN(r.RSI),
			Sentiment: orNaN(r.Sentiment),
		})
	}
	sortRecords(records)
	return lastN(records, days), nil
}

func orNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}
