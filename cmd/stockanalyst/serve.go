package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"StockAnalyst/internal/notifier"
	"StockAnalyst/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dashboard, the refresh schedule and the optional Telegram bot",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	// A failed first load is not fatal: the page reports it and the
	// scheduled refresh retries.
	if _, err := a.sched.RefreshNow(ctx); err != nil {
		log.Warn().Err(err).Msg("initial refresh failed")
	}

	if cfg.TelegramEnabled() {
		tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, log)
		a.sched.Notifier = tn
		go tn.StartPolling(ctx, a.sched.HandleCommand)
		log.Info().Msg("telegram polling started")
	}

	if err := a.sched.RegisterAll(cfg.Schedule.RefreshCron, cfg.Schedule.PruneCron); err != nil {
		return err
	}
	a.sched.Start()
	defer a.sched.Stop()

	srv := server.New(server.Config{
		Port:           cfg.Server.Port,
		Log:            log,
		Holder:         a.holder,
		Sessions:       a.sessions,
		Responder:      a.responder,
		Store:          a.store,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RequestTimeout: cfg.Server.RequestTimeout.Std(),
		SessionTTL:     cfg.Session.TTL.Std(),
	})

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		log.Info().Msg("shutdown signal received, stopping")
	case err := <-errCh:
		return err
	}

	cancel()
	shutdownCtx, done := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Std())
	defer done()
	return srv.Shutdown(shutdownCtx)
}
