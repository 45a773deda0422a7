package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"StockAnalyst/internal/collector"
	"StockAnalyst/internal/dataset"
	"StockAnalyst/internal/metric"
	"StockAnalyst/internal/notifier"
	"StockAnalyst/internal/responder"
	"StockAnalyst/internal/session"
	"StockAnalyst/internal/store"
)

// NotLoadedReply is sent to chat users before the first successful refresh.
const NotLoadedReply = "⏳ The dataset is not loaded yet. Please try again shortly."

// Notifier delivers refresh reports. TelegramNotifier satisfies it.
type Notifier interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler manages the cron tasks and owns the refresh of the dataset snapshot.
type Scheduler struct {
	Cron       *cron.Cron
	Collector  *collector.Collector
	Store      store.Store
	Metric     *metric.Manager
	Holder     *dataset.Holder
	Sessions   *session.Manager
	Responder  responder.Responder
	Notifier   Notifier // nil disables notifications
	SessionTTL time.Duration
	Ctx        context.Context
	log        zerolog.Logger
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, col *collector.Collector, st store.Store, mm *metric.Manager,
	holder *dataset.Holder, sessions *session.Manager, resp responder.Responder, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Collector: col,
		Store:     st,
		Metric:    mm,
		Holder:    holder,
		Sessions:  sessions,
		Responder: resp,
		Ctx:       ctx,
		log:       log.With().Str("component", "scheduler").Logger(),
	}
}

// RegisterAll registers the refresh and session pruning tasks.
func (s *Scheduler) RegisterAll(refreshCron, pruneCron string) error {
	if _, err := s.Cron.AddFunc(refreshCron, s.refreshTask); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	if _, err := s.Cron.AddFunc(pruneCron, s.pruneTask); err != nil {
		return fmt.Errorf("register prune task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info().Int("jobs", len(s.Cron.Entries())).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info().Msg("scheduler stopped")
}

// RefreshNow collects the series and swaps the snapshot. When the source fails
// the cached records are served instead; the previous snapshot is kept when
// there is no cache either.
func (s *Scheduler) RefreshNow(ctx context.Context) (*store.RefreshEvent, error) {
	start := time.Now()
	evt := &store.RefreshEvent{
		Symbol: s.Collector.Symbol,
		Source: s.Collector.Source.Name(),
	}

	records, collectErr := s.Collector.Collect(ctx)
	source := evt.Source
	if collectErr == nil {
		evt.Status = store.StatusOK
		if err := s.Store.SaveRecords(ctx, s.Collector.Symbol, records); err != nil {
			s.log.Error().Err(err).Msg("cache records")
		}
	} else {
		s.log.Error().Err(collectErr).Str("source", evt.Source).Msg("collect records")
		evt.Error = collectErr.Error()
		cached, err := s.Store.LoadRecords(ctx, s.Collector.Symbol)
		switch {
		case err == nil:
			evt.Status = store.StatusFallback
			records = cached
			source = "cache"
		case s.Holder.Loaded():
			evt.Status = store.StatusFallback
		default:
			evt.Status = store.StatusFailed
		}
	}

	m, err := s.Metric.Reload()
	if err != nil {
		s.log.Warn().Err(err).Msg("reload model metric")
	}

	if len(records) > 0 {
		if err := s.Holder.Set(dataset.Snapshot{
			Symbol:   s.Collector.Symbol,
			Company:  s.Responder.Company,
			Records:  records,
			Metric:   m,
			Source:   source,
			LoadedAt: time.Now(),
		}); err != nil {
			evt.Status = store.StatusFailed
			evt.Error = err.Error()
		}
		evt.Records = len(records)
		evt.FirstDate = records[0].Day()
		evt.LastDate = records[len(records)-1].Day()
	} else {
		s.Holder.SetMetric(m)
	}
	evt.Duration = time.Since(start)

	if err := s.Store.RecordRefresh(ctx, evt); err != nil {
		s.log.Error().Err(err).Msg("record refresh")
	}

	s.log.Info().
		Str("status", evt.Status).
		Str("source", source).
		Int("records", evt.Records).
		Dur("duration", evt.Duration).
		Msg("refresh finished")

	if evt.Status == store.StatusFailed {
		return evt, fmt.Errorf("refresh %s: %s", evt.Symbol, evt.Error)
	}
	return evt, nil
}

func (s *Scheduler) refreshTask() {
	evt, _ := s.RefreshNow(s.Ctx)
	s.trySend(notifier.FormatRefreshReport(evt))
}

func (s *Scheduler) pruneTask() {
	if s.Sessions == nil || s.SessionTTL <= 0 {
		return
	}
	if removed := s.Sessions.Prune(s.SessionTTL); removed > 0 {
		s.log.Debug().Int("removed", removed).Int("live", s.Sessions.Len()).Msg("sessions pruned")
	}
}

// Answer returns the responder reply for a free-text query.
func (s *Scheduler) Answer(query string) (string, error) {
	summary, m, err := s.Holder.Summary()
	if err != nil {
		return "", err
	}
	return s.Responder.Respond(query, summary, m), nil
}

// HandleCommand processes a chat message and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	switch strings.ToLower(strings.TrimSpace(command)) {
	case "/start", "/help":
		return notifier.FormatHelp(responder.QuickQuestions)
	case "/stats":
		snap, err := s.Holder.Get()
		if err != nil {
			return NotLoadedReply
		}
		summary, err := snap.Summary()
		if err != nil {
			return NotLoadedReply
		}
		return notifier.FormatStats(snap.Company, snap.Symbol, summary, snap.Metric)
	case "/refresh":
		evt, _ := s.RefreshNow(s.Ctx)
		return notifier.FormatRefreshReport(evt)
	}

	reply, err := s.Answer(command)
	if errors.Is(err, dataset.ErrNotLoaded) {
		return NotLoadedReply
	}
	if err != nil {
		s.log.Error().Err(err).Msg("answer query")
		return NotLoadedReply
	}
	return reply
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		s.log.Error().Err(err).Msg("send notification")
	}
}
