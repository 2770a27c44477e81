// Package config provides configuration loading for rankd.
//
// Configuration is loaded from a YAML file and overridden by environment
// variables. It covers the HTTP server, the trace log, the learned-weights
// artifact, and the offline extraction/optimization jobs.
package config

import (
	"fmt"
	"time"
)

// Config holds the complete rankd configuration.
type Config struct {
	Server        ServerConfig        `koanf:"server"`
	Trace         TraceConfig         `koanf:"trace"`
	Weights       WeightsConfig       `koanf:"weights"`
	Extraction    ExtractionConfig    `koanf:"extraction"`
	Optimizer     OptimizerConfig     `koanf:"optimizer"`
	Observability ObservabilityConfig `koanf:"observability"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string   `koanf:"host"`
	Port            int      `koanf:"http_port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
}

// TraceConfig holds trace log configuration.
type TraceConfig struct {
	// Path is the JSONL trace log written by pipeline stages.
	Path string `koanf:"path"`
}

// WeightsConfig holds learned-weights artifact configuration.
type WeightsConfig struct {
	// Path is the JSON artifact produced by the optimizer and loaded by
	// the serving re-ranker.
	Path string `koanf:"path"`
	// Watch enables fsnotify-based reload when the artifact is replaced.
	Watch bool `koanf:"watch"`
}

// ExtractionConfig holds training-pair extraction configuration.
type ExtractionConfig struct {
	// MinQuality is the minimum quality score for an event to yield a
	// training pair. Must be in [0,1].
	MinQuality float64 `koanf:"min_quality"`
	// Window is the trailing time window of events considered.
	Window Duration `koanf:"window"`
}

// OptimizerConfig holds grid-search configuration.
type OptimizerConfig struct {
	// GridStep is the grid resolution over the weight simplex, in (0,1].
	GridStep float64 `koanf:"grid_step"`
	// K is the NDCG rank cutoff.
	K int `koanf:"k"`
	// MinPairsPerIntent is the minimum training-set size for an intent to
	// be optimized at all.
	MinPairsPerIntent int `koanf:"min_pairs_per_intent"`
}

// ObservabilityConfig holds OpenTelemetry configuration.
type ObservabilityConfig struct {
	Enabled     bool   `koanf:"enabled"`
	ServiceName string `koanf:"service_name"`
	Endpoint    string `koanf:"endpoint"`
	Protocol    string `koanf:"protocol"`
	Insecure    bool   `koanf:"insecure"`
}

// applyDefaults fills in zero values with production defaults.
func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 9190
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = Duration(10 * time.Second)
	}
	if cfg.Trace.Path == "" {
		cfg.Trace.Path = "data/traces/pipeline.jsonl"
	}
	if cfg.Weights.Path == "" {
		cfg.Weights.Path = "data/models/rerank_weights.json"
	}
	if cfg.Extraction.MinQuality == 0 {
		cfg.Extraction.MinQuality = 0.5
	}
	if cfg.Extraction.Window == 0 {
		cfg.Extraction.Window = Duration(7 * 24 * time.Hour)
	}
	if cfg.Optimizer.GridStep == 0 {
		cfg.Optimizer.GridStep = 0.1
	}
	if cfg.Optimizer.K == 0 {
		cfg.Optimizer.K = 5
	}
	if cfg.Optimizer.MinPairsPerIntent == 0 {
		cfg.Optimizer.MinPairsPerIntent = 10
	}
	if cfg.Observability.ServiceName == "" {
		cfg.Observability.ServiceName = "rankd"
	}
	if cfg.Observability.Protocol == "" {
		cfg.Observability.Protocol = "grpc"
	}
}

// Validate checks config for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be in 1-65535, got %d", c.Server.Port)
	}
	if c.Extraction.MinQuality < 0 || c.Extraction.MinQuality > 1 {
		return fmt.Errorf("extraction min_quality must be in [0,1], got %v", c.Extraction.MinQuality)
	}
	if c.Optimizer.GridStep <= 0 || c.Optimizer.GridStep > 1 {
		return fmt.Errorf("optimizer grid_step must be in (0,1], got %v", c.Optimizer.GridStep)
	}
	if c.Optimizer.K < 1 {
		return fmt.Errorf("optimizer k must be >= 1, got %d", c.Optimizer.K)
	}
	if c.Optimizer.MinPairsPerIntent < 1 {
		return fmt.Errorf("optimizer min_pairs_per_intent must be >= 1, got %d", c.Optimizer.MinPairsPerIntent)
	}
	switch c.Observability.Protocol {
	case "grpc", "http/protobuf":
	default:
		return fmt.Errorf("observability protocol must be 'grpc' or 'http/protobuf', got %q", c.Observability.Protocol)
	}
	return nil
}
