package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseEntry(t *testing.T, line string) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	return entry
}

func TestLogger_Info(t *testing.T) {
	var buf bytes.Buffer
	log := New("tri-zvuk", "test", "info", &buf, nil)

	log.Info(context.Background(), "Download completed", Fields{"files": 2})

	entry := parseEntry(t, buf.String())
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "tri-zvuk", entry["service"])
	assert.Equal(t, "test", entry["env"])
	assert.Equal(t, "Download completed", entry["message"])
	assert.Equal(t, float64(2), entry["files"])
	assert.NotEmpty(t, entry["timestamp"])
	assert.NotEmpty(t, entry["hostname"])
}

func TestLogger_Error(t *testing.T) {
	var buf bytes.Buffer
	log := New("tri-zvuk", "test", "info", &buf, nil)

	log.Error(context.Background(), "Tier download failed", errors.New("connection reset"), nil)

	entry := parseEntry(t, buf.String())
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "connection reset", entry["error"])
	assert.NotEmpty(t, entry["error_type"])
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New("tri-zvuk", "test", "warn", &buf, nil)

	log.Debug(context.Background(), "debug message", nil)
	log.Info(context.Background(), "info message", nil)
	log.Warn(context.Background(), "warn message", nil)
	log.Error(context.Background(), "error message", errors.New("boom"), nil)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "warn message")
	assert.Contains(t, lines[1], "error message")
}

func TestLogger_WithFields(t *testing.T) {
	var buf bytes.Buffer
	log := New("tri-zvuk", "test", "info", &buf, nil).
		WithFields(Fields{"component": "worker"})

	log.Info(context.Background(), "first", nil)
	log.Info(context.Background(), "second", Fields{"tier": "best"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	first := parseEntry(t, lines[0])
	assert.Equal(t, "worker", first["component"])

	second := parseEntry(t, lines[1])
	assert.Equal(t, "worker", second["component"])
	assert.Equal(t, "best", second["tier"])
}

func TestLogger_ContextCorrelation(t *testing.T) {
	var buf bytes.Buffer
	log := New("tri-zvuk", "test", "info", &buf, nil)

	ctx := context.WithValue(context.Background(), "request_id", "req-7")
	ctx = context.WithValue(ctx, "trace_id", "trace-9")

	log.Info(ctx, "Processing request", nil)

	entry := parseEntry(t, buf.String())
	assert.Equal(t, "req-7", entry["request_id"])
	assert.Equal(t, "trace-9", entry["trace_id"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DebugLevel, ParseLevel("debug"))
	assert.Equal(t, InfoLevel, ParseLevel("info"))
	assert.Equal(t, WarnLevel, ParseLevel("warn"))
	assert.Equal(t, ErrorLevel, ParseLevel("error"))
	assert.Equal(t, InfoLevel, ParseLevel("nonsense"))
}
