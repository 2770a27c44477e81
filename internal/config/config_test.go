package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 9190, cfg.Server.Port)
	assert.Equal(t, "data/traces/pipeline.jsonl", cfg.Trace.Path)
	assert.Equal(t, "data/models/rerank_weights.json", cfg.Weights.Path)
	assert.Equal(t, 0.5, cfg.Extraction.MinQuality)
	assert.Equal(t, 7*24*time.Hour, cfg.Extraction.Window.Duration())
	assert.Equal(t, 0.1, cfg.Optimizer.GridStep)
	assert.Equal(t, 5, cfg.Optimizer.K)
	assert.Equal(t, 10, cfg.Optimizer.MinPairsPerIntent)
	assert.Equal(t, "grpc", cfg.Observability.Protocol)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  http_port: 8085
trace:
  path: /var/lib/rankd/traces.jsonl
extraction:
  min_quality: 0.7
  window: 48h
optimizer:
  grid_step: 0.05
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8085, cfg.Server.Port)
	assert.Equal(t, "/var/lib/rankd/traces.jsonl", cfg.Trace.Path)
	assert.Equal(t, 0.7, cfg.Extraction.MinQuality)
	assert.Equal(t, 48*time.Hour, cfg.Extraction.Window.Duration())
	assert.Equal(t, 0.05, cfg.Optimizer.GridStep)
	// Untouched sections keep defaults
	assert.Equal(t, 5, cfg.Optimizer.K)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  http_port: 8085\n"), 0600))

	t.Setenv("RANKD_SERVER_HTTP_PORT", "9999")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Server.Port)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "min_quality out of range",
			mutate:  func(c *Config) { c.Extraction.MinQuality = 1.5 },
			wantErr: "min_quality",
		},
		{
			name:    "grid_step zero",
			mutate:  func(c *Config) { c.Optimizer.GridStep = -0.1 },
			wantErr: "grid_step",
		},
		{
			name:    "grid_step above one",
			mutate:  func(c *Config) { c.Optimizer.GridStep = 1.5 },
			wantErr: "grid_step",
		},
		{
			name:    "bad protocol",
			mutate:  func(c *Config) { c.Observability.Protocol = "udp" },
			wantErr: "protocol",
		},
		{
			name:    "bad port",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: "port",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg Config
			applyDefaults(&cfg)
			tt.mutate(&cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDurationRoundTrip(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("90s")))
	assert.Equal(t, 90*time.Second, d.Duration())

	text, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1m30s", string(text))

	require.Error(t, d.UnmarshalText([]byte("-5s")))
}
