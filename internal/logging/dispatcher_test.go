package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "log output: %s", buf.String())
	return entry
}

func TestDispatcherLogger_Levels(t *testing.T) {
	tests := []struct {
		level string
		log   func(*DispatcherLogger)
	}{
		{"debug", func(l *DispatcherLogger) { l.Debug("msg", "kind", "tick") }},
		{"info", func(l *DispatcherLogger) { l.Info("msg", "kind", "tick") }},
		{"error", func(l *DispatcherLogger) { l.Error("msg", "kind", "tick") }},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			dl := NewDispatcherLogger(zerolog.New(&buf).Level(zerolog.DebugLevel))
			tt.log(dl)

			entry := decodeLine(t, &buf)
			assert.Equal(t, tt.level, entry["level"])
			assert.Equal(t, "msg", entry["message"])
			assert.Equal(t, "tick", entry["kind"])
		})
	}
}

func TestDispatcherLogger_Fields(t *testing.T) {
	var buf bytes.Buffer
	dl := NewDispatcherLogger(zerolog.New(&buf))

	dl.Info("event failed", "seat", "driver", "observer", 42, "error", errors.New("boom"), 7, "odd", "dangling")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "driver", entry["seat"])
	assert.Equal(t, float64(42), entry["observer"])
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, "odd", entry["7"])
	assert.Contains(t, entry, "dangling")
	assert.Nil(t, entry["dangling"])
}

func TestDispatcherLogger_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	dl := NewDispatcherLogger(zerolog.New(&buf).Level(zerolog.InfoLevel))

	dl.Debug("hidden", "key", "value")
	assert.Empty(t, buf.String())
}

func TestNewZerolog(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerolog(&buf, "WARN")

	logger.Info().Msg("filtered")
	assert.Empty(t, buf.String())

	logger.Warn().Msg("kept")
	entry := decodeLine(t, &buf)
	assert.Equal(t, ServiceName, entry["service"])
	assert.Contains(t, entry, "time")

	buf.Reset()
	fallback := NewZerolog(&buf, "nonsense")
	fallback.Info().Msg("default info")
	assert.Contains(t, buf.String(), "default info")
}
