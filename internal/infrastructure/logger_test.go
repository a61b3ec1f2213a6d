package infrastructure

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gapfill/internal/config"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"WARN", slog.LevelWarn},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run("level "+tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLogLevel(tt.in))
		})
	}
}

func TestInitializeLogger(t *testing.T) {
	t.Run("console json", func(t *testing.T) {
		logger, err := InitializeLogger(config.LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "console",
		})
		require.NoError(t, err)
		require.NotNil(t, logger)
		assert.True(t, logger.Enabled(context.Background(), slog.LevelInfo))
		assert.False(t, logger.Enabled(context.Background(), slog.LevelDebug))
	})

	t.Run("file output writes records", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "logs", "run.log")
		logger, err := InitializeLogger(config.LoggingConfig{
			Level:    "debug",
			Format:   "text",
			Output:   "file",
			FilePath: path,
		})
		require.NoError(t, err)

		logger.Info("imputation started", slog.Int("columns", 3))

		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.True(t, strings.Contains(string(raw), "imputation started"))
		assert.True(t, strings.Contains(string(raw), "columns=3"))
	})

	t.Run("unwritable file path", func(t *testing.T) {
		_, err := InitializeLogger(config.LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "file",
			FilePath: filepath.Join(string([]byte{0}), "bad", "run.log"),
		})
		assert.Error(t, err)
	})
}
