package logging

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLoggerDefaults(t *testing.T) {
	logger, err := NewLogger(NewDefaultConfig())
	require.NoError(t, err)
	require.NotNil(t, logger)
	assert.NotNil(t, logger.Underlying())
}

func TestNewLoggerInvalidConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Format = "xml"
	_, err := NewLogger(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "format")
}

func TestNewLoggerNoOutputs(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Output.Stdout = false
	cfg.Output.File.Enabled = false
	_, err := NewLogger(cfg)
	require.Error(t, err)
}

func TestNewLoggerFileOutput(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Output.Stdout = false
	cfg.Output.File.Enabled = true
	cfg.Output.File.Path = filepath.Join(t.TempDir(), "rankd.log")

	logger, err := NewLogger(cfg)
	require.NoError(t, err)

	logger.Underlying().Info("hello")
	require.NoError(t, logger.Sync())

	assert.FileExists(t, cfg.Output.File.Path)
}

func TestNamedAndWith(t *testing.T) {
	logger, err := NewLogger(NewDefaultConfig())
	require.NoError(t, err)

	child := logger.Named("optimizer").With()
	assert.NotNil(t, child)
	assert.Same(t, logger.config, child.config)
}

func TestConfigValidateLevels(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Level = zapcore.DebugLevel
	require.NoError(t, cfg.Validate())
}
