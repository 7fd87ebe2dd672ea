package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	t.Run("console logger to stdout", func(t *testing.T) {
		logger, err := NewLogger(LoggerConfig{Level: "info", OutputPath: "stdout", Format: "console"})
		require.NoError(t, err)
		assert.NotNil(t, logger)
	})

	t.Run("json logger to file creates parent directory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "logs", "app.log")
		logger, err := NewLogger(LoggerConfig{Level: "debug", OutputPath: path, Format: "json"})
		require.NoError(t, err)

		logger.Info("started")
		require.NoError(t, logger.Sync())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "started")
	})

	t.Run("invalid level falls back to info", func(t *testing.T) {
		logger, err := NewLogger(LoggerConfig{Level: "loud", OutputPath: "stderr"})
		require.NoError(t, err)
		assert.False(t, logger.Core().Enabled(-1)) // debug stays off
	})
}
