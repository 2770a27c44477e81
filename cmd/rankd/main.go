// Package main implements the rankd CLI.
//
// rankd learns intent-specific re-ranking weights from pipeline telemetry.
// The serve command runs the HTTP API; extract, optimize, metrics, monitor,
// and trace are operational commands against the same data files or a
// running server.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/rankd/internal/config"
	"github.com/fyrsmithlabs/rankd/internal/logging"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
)

var (
	configPath string
	logLevel   string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "rankd",
	Short: "Adaptive re-ranking weight learning from pipeline telemetry",
	Long: `rankd closes the loop between retrieval telemetry and serving quality.

Pipeline stages append trace events to a JSONL log. rankd extracts
quality-filtered training pairs from those traces, grid-searches
per-intent weight vectors maximizing NDCG@5, and publishes the learned
weights as a JSON artifact that the serving re-ranker hot-reloads.`,
	Version: fmt.Sprintf("%s (%s)", version, gitCommit),
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (YAML)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(optimizeCmd)
	rootCmd.AddCommand(metricsCmd)
	rootCmd.AddCommand(monitorCmd)
	rootCmd.AddCommand(traceCmd)
}

// loadConfig loads the effective configuration for a command run.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// newLogger builds the process logger, honoring the --log-level override.
func newLogger() (*logging.Logger, error) {
	logCfg := logging.NewDefaultConfig()
	if logLevel != "" {
		level, err := zapcore.ParseLevel(logLevel)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", logLevel, err)
		}
		logCfg.Level = level
	}
	return logging.NewLogger(logCfg)
}
