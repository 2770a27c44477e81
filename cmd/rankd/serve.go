package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httpapi "github.com/fyrsmithlabs/rankd/internal/http"
	"github.com/fyrsmithlabs/rankd/internal/monitor"
	"github.com/fyrsmithlabs/rankd/internal/telemetry"
	"github.com/fyrsmithlabs/rankd/internal/tracelog"
	"github.com/fyrsmithlabs/rankd/internal/weights"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the rankd HTTP server",
	Long: `Run the rankd HTTP server.

The server exposes aggregated trace metrics, the currently served weight
vectors, a reload endpoint, and a Prometheus scrape endpoint. When
weights.watch is enabled the learned-weights artifact is hot-reloaded
whenever the optimizer replaces it.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := newLogger()
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()
	zl := logger.Underlying()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		zl.Info("received signal, shutting down", zap.String("signal", sig.String()))
		cancel()
	}()

	telCfg := telemetry.NewDefaultConfig()
	telCfg.Enabled = cfg.Observability.Enabled
	telCfg.ServiceName = cfg.Observability.ServiceName
	telCfg.Protocol = cfg.Observability.Protocol
	telCfg.Insecure = cfg.Observability.Insecure
	if cfg.Observability.Endpoint != "" {
		telCfg.Endpoint = cfg.Observability.Endpoint
	}

	tel, err := telemetry.New(ctx, telCfg, zl)
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	defer func() {
		_ = tel.Shutdown(context.Background())
	}()

	store, err := tracelog.NewStore(cfg.Trace.Path, zl.Named("tracelog"))
	if err != nil {
		return fmt.Errorf("opening trace store: %w", err)
	}

	aggregator, err := monitor.NewAggregator(store)
	if err != nil {
		return fmt.Errorf("creating aggregator: %w", err)
	}

	table := weights.NewTable(cfg.Weights.Path, zl.Named("weights"))
	defer func() {
		_ = table.Close()
	}()

	if cfg.Weights.Watch {
		if err := table.Watch(ctx); err != nil {
			zl.Warn("artifact watch unavailable, reload via api only", zap.Error(err))
		} else {
			zl.Info("watching weights artifact", zap.String("path", cfg.Weights.Path))
		}
	}

	srv, err := httpapi.NewServer(aggregator, table, zl.Named("http"), &httpapi.Config{
		Host: cfg.Server.Host,
		Port: cfg.Server.Port,
	})
	if err != nil {
		return fmt.Errorf("creating http server: %w", err)
	}

	httpMetrics := httpapi.NewHTTPMetrics(zl.Named("metrics"))
	srv.Echo().Use(httpMetrics.MetricsMiddleware())

	zl.Info("rankd starting",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.String("trace_path", cfg.Trace.Path),
		zap.String("weights_path", cfg.Weights.Path),
		zap.Bool("telemetry", tel.IsEnabled()))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	zl.Info("rankd stopped")
	return nil
}
