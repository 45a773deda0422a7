package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"StockAnalyst/internal/collector"
	"StockAnalyst/internal/config"
	"StockAnalyst/internal/dataset"
	"StockAnalyst/internal/metric"
	"StockAnalyst/internal/model"
	"StockAnalyst/internal/responder"
	"StockAnalyst/internal/scheduler"
	"StockAnalyst/internal/session"
	"StockAnalyst/internal/store"
)

// app wires the components shared by every command.
type app struct {
	cfg       *config.Config
	store     store.Store
	holder    *dataset.Holder
	sessions  *session.Manager
	responder responder.Responder
	sched     *scheduler.Scheduler
}

func newApp(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*app, error) {
	source, err := newSource(cfg)
	if err != nil {
		return nil, err
	}
	log.Info().Str("source", source.Name()).Str("symbol", cfg.DataSource.Symbol).Msg("data source selected")

	col := collector.NewCollector(source, cfg.DataSource.Symbol, cfg.DataSource.Days, log)

	mm, err := metric.NewManager(cfg.Model.StateFile, model.ModelMetric{
		Model: cfg.Model.Name,
		RMSE:  cfg.Model.RMSE,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("init metric manager: %w", err)
	}

	var st store.Store
	if cfg.Database.SQLitePath != "" {
		ss, err := store.NewSQLiteStore(cfg.Database.SQLitePath, log)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite store failed, using noop")
			st = store.NewNoopStore()
		} else {
			st = ss
		}
	} else {
		st = store.NewNoopStore()
	}

	a := &app{
		cfg:       cfg,
		store:     st,
		holder:    dataset.NewHolder(),
		sessions:  session.NewManager(),
		responder: responder.New(cfg.DataSource.Company),
	}
	a.sched = scheduler.NewScheduler(ctx, col, st, mm, a.holder, a.sessions, a.responder, log)
	a.sched.SessionTTL = cfg.Session.TTL.Std()
	return a, nil
}

// newSource builds the record source named by data_source.kind.
func newSource(cfg *config.Config) (collector.RecordSource, error) {
	ds := cfg.DataSource
	switch ds.Kind {
	case config.SourceCSV:
		return collector.NewCSVSource(ds.CSVPath), nil
	case config.SourceRemote:
		return collector.NewRemoteSource(ds.BaseURL, ds.APIKey, cfg.Proxy), nil
	case config.SourceYahoo:
		var sentiment map[string]float64
		if ds.SentimentPath != "" {
			var err error
			sentiment, err = collector.LoadSentiment(ds.SentimentPath)
			if err != nil {
				return nil, fmt.Errorf("load sentiment: %w", err)
			}
		}
		return collector.NewBarSource(collector.NewYahooFetcher(cfg.Proxy), sentiment), nil
	default:
		return nil, fmt.Errorf("unknown data source %q", ds.Kind)
	}
}

func (a *app) Close() error {
	return a.store.Close()
}
