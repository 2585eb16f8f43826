package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Logger defines the minimal logging interface used across agrimesh.
// Arguments after msg are alternating key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// ParseLevel maps a config string ("debug", "info", "warn", "error") to a
// slog level. Unknown values yield slog.LevelInfo.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LoggerConfig configures construction of a StructuredLogger.
type LoggerConfig struct {
	Level     slog.Level
	Format    string // json or text
	Output    io.Writer
	AddSource bool
	Component string
}

// StructuredLogger is a slog backed Logger with component and session scoping
// plus helpers for the turn, tool and model events. With* methods return
// copies; the receiver is never modified.
type StructuredLogger struct {
	logger *slog.Logger
}

// NewLogger builds a StructuredLogger. A nil config yields JSON at info level
// on stdout.
func NewLogger(cfg *LoggerConfig) *StructuredLogger {
	if cfg == nil {
		cfg = &LoggerConfig{Level: slog.LevelInfo, Format: "json"}
	}
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}

	opts := &slog.HandlerOptions{Level: cfg.Level, AddSource: cfg.AddSource}
	var handler slog.Handler = slog.NewJSONHandler(out, opts)
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(out, opts)
	}

	l := &StructuredLogger{logger: slog.New(handler)}
	if cfg.Component != "" {
		return l.WithComponent(cfg.Component)
	}
	return l
}

// FromSlog wraps an existing *slog.Logger.
func FromSlog(logger *slog.Logger) *StructuredLogger {
	return &StructuredLogger{logger: logger}
}

// Slog exposes the underlying *slog.Logger, e.g. for slog.SetDefault.
func (l *StructuredLogger) Slog() *slog.Logger { return l.logger }

// With returns a logger that attaches args to every entry.
func (l *StructuredLogger) With(args ...any) *StructuredLogger {
	return &StructuredLogger{logger: l.logger.With(args...)}
}

// WithComponent tags entries with the logical component (agent, pipeline, server, ...).
func (l *StructuredLogger) WithComponent(c string) *StructuredLogger {
	return l.With("component", c)
}

// WithSession tags entries with session and request identifiers. Empty ids
// are omitted.
func (l *StructuredLogger) WithSession(sessionID, requestID string) *StructuredLogger {
	args := make([]any, 0, 4)
	if sessionID != "" {
		args = append(args, "session_id", sessionID)
	}
	if requestID != "" {
		args = append(args, "request_id", requestID)
	}
	return l.With(args...)
}

// Debug logs at debug level.
func (l *StructuredLogger) Debug(msg string, args ...any) { l.logger.Debug(msg, args...) }

// Info logs at info level.
func (l *StructuredLogger) Info(msg string, args ...any) { l.logger.Info(msg, args...) }

// Warn logs at warn level.
func (l *StructuredLogger) Warn(msg string, args ...any) { l.logger.Warn(msg, args...) }

// Error logs at error level.
func (l *StructuredLogger) Error(msg string, args ...any) { l.logger.Error(msg, args...) }

// LogToolCall records execution details for a capability invocation.
// diagnostic marks calls that returned failure text instead of data.
func (l *StructuredLogger) LogToolCall(tool string, dur time.Duration, diagnostic bool) {
	level := slog.LevelInfo
	if diagnostic {
		level = slog.LevelWarn
	}
	l.logger.LogAttrs(context.Background(), level, "tool.call.completed",
		slog.String("tool_name", tool),
		slog.Duration("duration", dur),
		slog.Bool("diagnostic", diagnostic),
	)
}

// LogLLMCall records model call latency and outcome.
func (l *StructuredLogger) LogLLMCall(model string, dur time.Duration, err error) {
	l.outcome("llm.call", err,
		slog.String("model", model),
		slog.Duration("duration", dur),
	)
}

// LogTurn records aggregate metrics of one agent turn.
func (l *StructuredLogger) LogTurn(sessionID string, toolCalls int, dur time.Duration, err error) {
	l.outcome("agent.turn", err,
		slog.String("turn_session", sessionID),
		slog.Int("tool_calls", toolCalls),
		slog.Duration("duration", dur),
	)
}

// outcome logs "<event>.completed" at info or "<event>.failed" at error.
func (l *StructuredLogger) outcome(event string, err error, attrs ...slog.Attr) {
	attrs = append(attrs, slog.Bool("success", err == nil))
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		l.logger.LogAttrs(context.Background(), slog.LevelError, event+".failed", attrs...)
		return
	}
	l.logger.LogAttrs(context.Background(), slog.LevelInfo, event+".completed", attrs...)
}

// NoOpLogger discards all log messages.
type NoOpLogger struct{}

func (NoOpLogger) Debug(string, ...any) {}
func (NoOpLogger) Info(string, ...any)  {}
func (NoOpLogger) Warn(string, ...any)  {}
func (NoOpLogger) Error(string, ...any) {}
