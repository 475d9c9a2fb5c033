package logger_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/phrazzld/taskmaster-api/internal/config"
	"github.com/phrazzld/taskmaster-api/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"", slog.LevelInfo, false},
		{"verbose", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := logger.ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSetupWithWriter(t *testing.T) {
	original := slog.Default()
	t.Cleanup(func() { slog.SetDefault(original) })

	var buf logger.TestLogBuffer
	l, err := logger.SetupWithWriter(config.ServerConfig{LogLevel: "warn"}, &buf)
	require.NoError(t, err)
	require.NotNil(t, l)

	l.Info("hidden")
	l.Warn("visible", "key", "value")

	entries, err := buf.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "visible", entries[0]["msg"])
	assert.Equal(t, "value", entries[0]["key"])
	assert.Equal(t, "taskmaster-api", entries[0]["service"])
	assert.Same(t, l, slog.Default())
}

func TestSetupWithWriter_InvalidLevelWarns(t *testing.T) {
	original := slog.Default()
	t.Cleanup(func() { slog.SetDefault(original) })

	var buf logger.TestLogBuffer
	_, err := logger.SetupWithWriter(config.ServerConfig{LogLevel: "loud"}, &buf)
	require.NoError(t, err)

	entries, err := buf.EntriesWithMessage("invalid log level configured, using default level")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "loud", entries[0]["configured_level"])
}

func TestSetupWithWriter_NilWriter(t *testing.T) {
	_, err := logger.SetupWithWriter(config.ServerConfig{LogLevel: "info"}, nil)
	assert.Error(t, err)
}

func TestFromContext(t *testing.T) {
	var buf logger.TestLogBuffer
	scoped := buf.Logger().With("scan_id", "abc")
	fallback := logger.Discard()

	ctx := logger.WithLogger(context.Background(), scoped)

	assert.Same(t, scoped, logger.FromContext(ctx))
	assert.Same(t, scoped, logger.FromContextOrDefault(ctx, fallback))
	assert.Same(t, fallback, logger.FromContextOrDefault(context.Background(), fallback))
	assert.Same(t, slog.Default(), logger.FromContext(context.Background()))
}
