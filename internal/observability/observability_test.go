package observability

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"panic", zerolog.PanicLevel},
		{"INFO", zerolog.InfoLevel},
		{"unknown", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLevel(tt.input), "level %q", tt.input)
	}
}

func TestNewLoggerDefaults(t *testing.T) {
	logger := NewLogger(DefaultLoggingConfig())
	assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
}

func TestLogSinkEvent(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogSink(zerolog.New(&buf))

	sink.Event("req-1", "cache_hit", map[string]any{"key": "course:abc"})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "cache_hit", entry["event"])
	assert.Equal(t, "course:abc", entry["key"])
}

func TestLogSinkError(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogSink(zerolog.New(&buf))

	sink.Error("req-2", "llm", "request timed out")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "req-2", entry["request_id"])
	assert.Equal(t, "llm", entry["category"])
	assert.Equal(t, "request timed out", entry["message"])
}

func TestNilMetricsAreNoOps(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordSearchRequest("홍대", "카페", 0.1)
		m.RecordCacheHit()
		m.RecordCacheMiss()
		m.RecordGeneration("fallback", 0.5)
		m.RecordBreakerTransition("closed", "open")
		m.RecordCurationFallback()
	})
}
