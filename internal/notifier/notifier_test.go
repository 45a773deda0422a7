package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockAnalyst/internal/model"
	"StockAnalyst/internal/store"
)

func TestFormatStats(t *testing.T) {
	s := model.SeriesSummary{
		Latest:        model.DailyRecord{Date: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), Close: 184.25, RSI: 41.3},
		Previous:      model.DailyRecord{RSI: 40.1},
		HasPrevious:   true,
		SentimentMean: 0.1,
		RecordCount:   250,
	}
	out := FormatStats("Apple", "AAPL", s, model.ModelMetric{RMSE: 3.42})

	assert.Contains(t, out, "Apple (AAPL) | 2024-01-03")
	assert.Contains(t, out, "Latest Price: $184.25")
	assert.Contains(t, out, "RSI: 41.3 (+1.2)")
	assert.Contains(t, out, "Sentiment: 0.100")
	assert.Contains(t, out, "Model RMSE: 3.42")
	assert.Contains(t, out, "Records: 250")
}

func TestFormatHelp(t *testing.T) {
	out := FormatHelp([]string{"What is the trend?"})
	assert.Contains(t, out, "/stats")
	assert.Contains(t, out, "/refresh")
	assert.Contains(t, out, `"What is the trend?"`)
}

func TestFormatRefreshReport(t *testing.T) {
	ok := FormatRefreshReport(&store.RefreshEvent{
		Symbol: "AAPL", Source: "csv", Status: store.StatusOK,
		Records: 2, FirstDate: "2024-01-02", LastDate: "2024-01-03",
	})
	assert.Contains(t, ok, "✅ AAPL refreshed from csv")
	assert.Contains(t, ok, "Records: 2 (2024-01-02 to 2024-01-03)")

	failed := FormatRefreshReport(&store.RefreshEvent{Symbol: "AAPL", Source: "yahoo", Status: store.StatusFailed, Error: "timeout"})
	assert.Contains(t, failed, "❌")
	assert.Contains(t, failed, "Error: timeout")
	assert.NotContains(t, failed, "Records")

	fallback := FormatRefreshReport(&store.RefreshEvent{Symbol: "AAPL", Source: "remote", Status: store.StatusFallback})
	assert.Contains(t, fallback, "serving cached records")
}

func newTestNotifier(url string) *TelegramNotifier {
	n := NewTelegramNotifier("TOKEN", "42", "", zerolog.Nop())
	n.APIBase = url
	return n
}

func TestTelegramNotifier_Send(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	require.NoError(t, newTestNotifier(srv.URL).Send(context.Background(), "**bold** text"))
	assert.Equal(t, "42", got["chat_id"])
	assert.Equal(t, "**bold** text", got["text"])
	_, hasParseMode := got["parse_mode"]
	assert.False(t, hasParseMode)
}

func TestTelegramNotifier_SendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"ok":false}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	err := newTestNotifier(srv.URL).Send(context.Background(), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
}

func TestTelegramNotifier_RetrySucceeds(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	err := newTestNotifier(srv.URL).sendWithBackoff(context.Background(), "hi", 3, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestTelegramNotifier_RetryExhausted(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := newTestNotifier(srv.URL).sendWithBackoff(context.Background(), "hi", 2, time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 3 retries exhausted")
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestTelegramNotifier_PollingDispatchesMessages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	replies := make(chan string, 1)
	var polls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/botTOKEN/getUpdates", func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&polls, 1) == 1 {
			w.Write([]byte(`{"ok":true,"result":[{"update_id":7,"message":{"text":" /stats ","chat":{"id":42}}}]}`))
			return
		}
		assert.Equal(t, "8", r.URL.Query().Get("offset"))
		<-ctx.Done()
	})
	mux.HandleFunc("/botTOKEN/sendMessage", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		replies <- body["text"]
		w.Write([]byte(`{"ok":true}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	n := newTestNotifier(srv.URL)
	done := make(chan struct{})
	go func() {
		n.StartPolling(ctx, func(cmd string) string { return "echo " + cmd })
		close(done)
	}()

	select {
	case got := <-replies:
		assert.Equal(t, "echo /stats", got)
	case <-time.After(5 * time.Second):
		t.Fatal("no reply sent")
	}
	cancel()
	<-done
}

func TestTelegramNotifier_PollingIgnoresOtherChats(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	replies := make(chan string, 2)
	var polls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/botTOKEN/getUpdates", func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&polls, 1) == 1 {
			w.Write([]byte(`{"ok":true,"result":[
				{"update_id":1,"message":{"text":"/refresh","chat":{"id":99}}},
				{"update_id":2,"message":{"text":"/stats","chat":{"id":42}}}]}`))
			return
		}
		<-ctx.Done()
	})
	mux.HandleFunc("/botTOKEN/sendMessage", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		replies <- body["text"]
		w.Write([]byte(`{"ok":true}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	var handled []string
	var mu sync.Mutex
	n := newTestNotifier(srv.URL)
	done := make(chan struct{})
	go func() {
		n.StartPolling(ctx, func(cmd string) string {
			mu.Lock()
			handled = append(handled, cmd)
			mu.Unlock()
			return "echo " + cmd
		})
		close(done)
	}()

	select {
	case got := <-replies:
		assert.Equal(t, "echo /stats", got)
	case <-time.After(5 * time.Second):
		t.Fatal("no reply sent")
	}
	cancel()
	<-done

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"/stats"}, handled)
}
