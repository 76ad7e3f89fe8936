package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Narevka/toknowai/internal/catalog"
	"github.com/Narevka/toknowai/internal/config"
	"github.com/Narevka/toknowai/internal/health"
	"github.com/Narevka/toknowai/internal/observe"
	"github.com/Narevka/toknowai/internal/server"
	"github.com/Narevka/toknowai/internal/source"
	"github.com/Narevka/toknowai/internal/store/postgres"
	"github.com/Narevka/toknowai/internal/transcripts"
)

// shutdownTimeout bounds the graceful drain of in-flight requests.
const shutdownTimeout = 10 * time.Second

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}
}

func runServe(parent context.Context, cfg *config.Config) error {
	if cfg.Storage.PostgresDSN == "" {
		return errors.New("serve: storage.postgres_dsn is required")
	}
	if cfg.Source.BaseURL == "" {
		return errors.New("serve: source.base_url is required")
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observe.InitProvider(ctx, observe.ProviderConfig{})
	if err != nil {
		return fmt.Errorf("serve: init telemetry: %w", err)
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			slog.Warn("telemetry shutdown failed", "err", err)
		}
	}()
	metrics := observe.DefaultMetrics()

	st, err := postgres.NewStore(ctx, cfg.Storage.PostgresDSN)
	if err != nil {
		return fmt.Errorf("serve: open store: %w", err)
	}
	defer st.Close()

	var fetchOpts []source.Option
	if d := cfg.Source.Timeout.Std(); d > 0 {
		fetchOpts = append(fetchOpts, source.WithTimeout(d))
	}
	fetcher, err := source.New(cfg.Source.BaseURL, fetchOpts...)
	if err != nil {
		return fmt.Errorf("serve: build fetcher: %w", err)
	}

	var cat *catalog.Catalog
	if cfg.Catalog.Path != "" {
		cat, err = catalog.Load(cfg.Catalog.Path)
		if err != nil {
			return fmt.Errorf("serve: load catalog: %w", err)
		}
		slog.Info("catalog loaded", "path", cfg.Catalog.Path, "courses", len(cat.Courses))
	}

	logger := slog.Default()
	srv := server.New(server.Options{
		Reader:   transcripts.NewReader(st, cfg.Cache.FreshFor.Std(), logger, metrics),
		Resolver: transcripts.NewResolver(st, fetcher, logger, metrics),
		Searcher: st,
		Catalog:  cat,
		Health:   health.New(health.Database(st)),
		Logger:   logger,
		Metrics:  metrics,
	})

	addr := cfg.Server.ListenAddr
	if addr == "" {
		addr = ":8080"
	}
	httpSrv := &http.Server{
		Addr:    addr,
		Handler: srv.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("toknowai listening", "addr", addr)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("serve: shutdown: %w", err)
	}
	return nil
}
