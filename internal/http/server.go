// Package http provides the HTTP API for rankd.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/rankd/internal/monitor"
	"github.com/fyrsmithlabs/rankd/internal/weights"
)

// defaultMetricsWindow bounds /api/v1/metrics when the caller gives no range.
const defaultMetricsWindow = time.Hour

// Server provides HTTP endpoints for rankd.
type Server struct {
	echo       *echo.Echo
	aggregator *monitor.Aggregator
	table      *weights.Table
	logger     *zap.Logger
	config     *Config
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int
}

// NewServer creates a new HTTP server.
func NewServer(aggregator *monitor.Aggregator, table *weights.Table, logger *zap.Logger, cfg *Config) (*Server, error) {
	if aggregator == nil {
		return nil, fmt.Errorf("aggregator cannot be nil")
	}
	if table == nil {
		return nil, fmt.Errorf("weights table cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host: "localhost",
			Port: 9190,
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)

			return err
		}
	})

	s := &Server{
		echo:       e,
		aggregator: aggregator,
		table:      table,
		logger:     logger,
		config:     cfg,
	}

	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	// Health check and Prometheus scrape endpoint
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// API v1 routes
	v1 := s.echo.Group("/api/v1")
	v1.GET("/metrics", s.handleMetrics)
	v1.GET("/weights", s.handleWeights)
	v1.POST("/weights/reload", s.handleWeightsReload)
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// MetricsResponse is the response body for GET /api/v1/metrics.
type MetricsResponse struct {
	Since   time.Time       `json:"since"`
	Until   time.Time       `json:"until"`
	Summary monitor.Summary `json:"summary"`
}

// WeightsResponse is the response body for GET /api/v1/weights.
type WeightsResponse struct {
	Intents map[string]weights.Optimized `json:"intents"`
}

// ReloadResponse is the response body for POST /api/v1/weights/reload.
type ReloadResponse struct {
	Status  string `json:"status"`
	Intents int    `json:"intents"`
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// handleMetrics aggregates trace events over the requested window.
// The window is given either as ?window=30m or as explicit RFC3339
// ?since= and ?until= bounds. Without parameters the last hour is used.
func (s *Server) handleMetrics(c echo.Context) error {
	until := time.Now()
	since := until.Add(-defaultMetricsWindow)

	if w := c.QueryParam("window"); w != "" {
		d, err := time.ParseDuration(w)
		if err != nil || d <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "window must be a positive duration like 30m")
		}
		since = until.Add(-d)
	}
	if raw := c.QueryParam("since"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "since must be an RFC3339 timestamp")
		}
		since = t
	}
	if raw := c.QueryParam("until"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "until must be an RFC3339 timestamp")
		}
		until = t
	}
	if !since.Before(until) {
		return echo.NewHTTPError(http.StatusBadRequest, "since must be before until")
	}

	summary, err := s.aggregator.ComputeMetrics(c.Request().Context(), since, until)
	if err != nil {
		s.logger.Error("metrics aggregation failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "metrics aggregation failed")
	}

	return c.JSON(http.StatusOK, MetricsResponse{
		Since:   since,
		Until:   until,
		Summary: summary,
	})
}

// handleWeights returns the currently served weight vectors per intent.
func (s *Server) handleWeights(c echo.Context) error {
	return c.JSON(http.StatusOK, WeightsResponse{Intents: s.table.Snapshot()})
}

// handleWeightsReload re-reads the learned weights artifact from disk and
// swaps in the new table. Reload never fails; a corrupt artifact falls back
// to defaults.
func (s *Server) handleWeightsReload(c echo.Context) error {
	s.table.Reload()
	snapshot := s.table.Snapshot()

	s.logger.Info("weights reloaded via api", zap.Int("intents", len(snapshot)))

	return c.JSON(http.StatusOK, ReloadResponse{
		Status:  "reloaded",
		Intents: len(snapshot),
	})
}

// Echo exposes the underlying router for middleware registration and tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
