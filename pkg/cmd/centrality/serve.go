package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/gilchrisn/graph-centrality-service/pkg/api"
	"github.com/gilchrisn/graph-centrality-service/pkg/metrics"
	"github.com/gilchrisn/graph-centrality-service/pkg/service"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP centrality job service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}

	cmd.Flags().String("address", "", "listen address")
	_ = a.config.Viper().BindPFlag("server.address", cmd.Flags().Lookup("address"))
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	cfg := a.config

	log.Info().
		Str("address", cfg.ServerAddress()).
		Int("max_workers", cfg.MaxJobWorkers()).
		Dur("job_timeout", cfg.JobTimeout()).
		Msg("Configuration loaded")

	collector := metrics.NewCollector("centrality")
	datasetService := service.NewDatasetService(collector, cfg.MaxUploadBytes())
	jobService := service.NewJobService(datasetService, cfg, collector)
	defer jobService.Close()

	handlers := api.NewHandlers(datasetService, jobService, cfg.TopN())

	server := &http.Server{
		Addr:         cfg.ServerAddress(),
		Handler:      api.NewRouter(handlers, collector),
		ReadTimeout:  cfg.ReadTimeout(),
		WriteTimeout: cfg.WriteTimeout(),
	}

	// From here on the watcher goroutine owns cfg; the services above work
	// on their own snapshots.
	if a.configFile != "" {
		cfg.Viper().OnConfigChange(func(e fsnotify.Event) {
			if e.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				return
			}
			if err := applyLogLevel(cfg.LogLevel()); err != nil {
				log.Warn().Err(err).Str("file", e.Name).Msg("Ignoring config change")
				return
			}
			log.Info().
				Str("file", e.Name).
				Str("level", cfg.LogLevel()).
				Msg("Configuration reloaded")
		})
		cfg.Viper().WatchConfig()
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("address", server.Addr).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		log.Info().Msg("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info().Msg("Server shutdown complete")
	return nil
}
