package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voltz-checkout/cycle-ladder/internal/config"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, config.LoggingConfig{Level: "info", Format: config.LogFormatJSON})

	logger.Info("ladder_saved", "account_id", "acc-1", "bands", 5)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ladder_saved", entry["msg"])
	assert.Equal(t, "acc-1", entry["account_id"])
	assert.Equal(t, 5.0, entry["bands"])
}

func TestNew_AutoFallsBackToJSONOffTerminal(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, config.LoggingConfig{Level: "info", Format: config.LogFormatAuto})

	logger.Info("ladder_reloaded")

	assert.True(t, json.Valid(buf.Bytes()), "expected JSON, got %q", buf.String())
}

func TestNew_TextIsPlainOffTerminal(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, config.LoggingConfig{Level: "info", Format: config.LogFormatText})

	logger.Info("ladder_saved", "account_id", "acc-1")

	out := buf.String()
	assert.Contains(t, out, "ladder_saved")
	assert.Contains(t, out, "account_id=acc-1")
	assert.NotContains(t, out, "\x1b[")
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, config.LoggingConfig{Level: "warn", Format: config.LogFormatJSON})

	logger.Info("hidden")
	assert.Empty(t, buf.String())

	logger.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{" error ", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}
