package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ Logger = NoOpLogger{}
	_ Logger = (*StructuredLogger)(nil)
)

func newBufferLogger(level slog.Level) (*StructuredLogger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return NewLogger(&LoggerConfig{Level: level, Format: "json", Output: buf}), buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel(" error "))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestStructuredLogger_KeyValueArgs(t *testing.T) {
	logger, buf := newBufferLogger(slog.LevelInfo)

	logger.WithComponent("agent").WithSession("s-1", "r-1").Info("agent.turn.start", "tool_calls", 2)

	entry := decodeLine(t, buf)
	assert.Equal(t, "agent.turn.start", entry["msg"])
	assert.Equal(t, "agent", entry["component"])
	assert.Equal(t, "s-1", entry["session_id"])
	assert.Equal(t, "r-1", entry["request_id"])
	assert.EqualValues(t, 2, entry["tool_calls"])
}

func TestStructuredLogger_WithSessionOmitsEmptyIDs(t *testing.T) {
	logger, buf := newBufferLogger(slog.LevelInfo)

	logger.WithSession("s-1", "").Info("pipeline.text.received")

	entry := decodeLine(t, buf)
	assert.Equal(t, "s-1", entry["session_id"])
	_, ok := entry["request_id"]
	assert.False(t, ok)
}

func TestStructuredLogger_LevelFilter(t *testing.T) {
	logger, buf := newBufferLogger(slog.LevelWarn)

	logger.Info("ignored")
	logger.Debug("ignored")
	assert.Zero(t, buf.Len())

	logger.Warn("kept")
	assert.NotZero(t, buf.Len())
}

func TestStructuredLogger_WithDoesNotLeak(t *testing.T) {
	base, buf := newBufferLogger(slog.LevelInfo)
	_ = base.With("extra", "x")

	base.Info("plain")

	entry := decodeLine(t, buf)
	_, ok := entry["extra"]
	assert.False(t, ok)
}

func TestStructuredLogger_ConfiguredComponent(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewLogger(&LoggerConfig{Format: "json", Output: buf, Component: "server"})

	logger.Info("http.request")

	assert.Equal(t, "server", decodeLine(t, buf)["component"])
}

func TestStructuredLogger_LogTurn(t *testing.T) {
	logger, buf := newBufferLogger(slog.LevelInfo)

	logger.LogTurn("s-9", 3, time.Second, errors.New("boom"))

	entry := decodeLine(t, buf)
	assert.Equal(t, "agent.turn.failed", entry["msg"])
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, false, entry["success"])

	buf.Reset()
	logger.LogTurn("s-9", 1, time.Second, nil)

	entry = decodeLine(t, buf)
	assert.Equal(t, "agent.turn.completed", entry["msg"])
	assert.EqualValues(t, 1, entry["tool_calls"])
	assert.Equal(t, true, entry["success"])
}

func TestStructuredLogger_LogToolCallDiagnosticWarns(t *testing.T) {
	logger, buf := newBufferLogger(slog.LevelInfo)

	logger.LogToolCall("get_weather", time.Millisecond, true)

	entry := decodeLine(t, buf)
	assert.Equal(t, "tool.call.completed", entry["msg"])
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "get_weather", entry["tool_name"])
}

func TestFromSlog(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := FromSlog(slog.New(slog.NewJSONHandler(buf, nil)))

	logger.Info("wrapped", "k", "v")

	assert.Equal(t, "v", decodeLine(t, buf)["k"])
	assert.NotNil(t, logger.Slog())
}
