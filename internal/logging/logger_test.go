package logging

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/trebuchet-org/txflow/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelWarn},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in, slog.LevelWarn))
		})
	}
}

func TestNewLogger(t *testing.T) {
	t.Setenv("TXFLOW_LOG_LEVEL", "")

	quiet := NewLogger(&config.RuntimeConfig{})
	assert.False(t, quiet.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, quiet.Enabled(context.Background(), slog.LevelWarn))

	debug := NewLogger(&config.RuntimeConfig{Debug: true})
	assert.True(t, debug.Enabled(context.Background(), slog.LevelDebug))

	t.Setenv("TXFLOW_LOG_LEVEL", "error")
	overridden := NewLogger(&config.RuntimeConfig{Debug: true})
	assert.False(t, overridden.Enabled(context.Background(), slog.LevelWarn))
}

func TestShortPath(t *testing.T) {
	assert.Equal(t, "internal/usecase/transact.go", shortPath("/home/dev/src/txflow/internal/usecase/transact.go"))
	assert.Equal(t, "main.go", shortPath("/somewhere/else/main.go"))
}
