package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	httphandler "github.com/nurpe/contracts-service/internal/http"
	"github.com/nurpe/contracts-service/internal/scheduler"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the export scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx)
		},
	}
}

func runServe(ctx context.Context) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.close()

	ledger := a.ledger()
	exports := a.exports()

	if a.cfg.Export.Enabled {
		exportScheduler := scheduler.NewExportScheduler(exports, a.cfg.Export.Dir, a.log)
		if err := exportScheduler.Schedule(a.cfg.Export.Schedule); err != nil {
			return err
		}
		exportScheduler.Start()
		defer exportScheduler.Stop()
		a.log.Info().Time("next_run", exportScheduler.Next()).Msg("export scheduler started")
	}

	handler := httphandler.NewHandler(ledger, exports, a.log)
	router := httphandler.NewRouter(handler, a.log, a.cfg.Environment, a.cfg.HTTP.AllowedOrigins)

	addr := fmt.Sprintf("%s:%d", a.cfg.HTTP.Host, a.cfg.HTTP.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info().
			Str("addr", addr).
			Str("ledger_mode", a.cfg.Ledger.Concurrency).
			Msg("starting contracts service")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		a.log.Error().Err(err).Msg("server stopped")
		return err
	case <-ctx.Done():
	}

	a.log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
