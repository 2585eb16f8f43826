package core

import (
	"github.com/google/uuid"
	"github.com/hupe1980/agrimesh/logging"
)

// NewID returns a random identifier used for messages and function calls.
func NewID() string { return uuid.NewString() }

// callLogger prefixes every entry with the session and function call of the
// tool invocation. A nil logger is replaced by NoOpLogger.
type callLogger struct {
	logger logging.Logger
	scope  []any
}

func newCallLogger(l logging.Logger, sessionID, functionCallID string) *callLogger {
	if l == nil {
		l = logging.NoOpLogger{}
	}
	return &callLogger{logger: l, scope: []any{"session_id", sessionID, "fc_id", functionCallID}}
}

// Logger returns the unscoped logger.
func (l *callLogger) Logger() logging.Logger { return l.logger }

func (l *callLogger) with(args []any) []any {
	out := make([]any, 0, len(l.scope)+len(args))
	return append(append(out, l.scope...), args...)
}

// LogDebug logs a debug message scoped to the call.
func (l *callLogger) LogDebug(msg string, args ...any) { l.logger.Debug(msg, l.with(args)...) }

// LogInfo logs an info message scoped to the call.
func (l *callLogger) LogInfo(msg string, args ...any) { l.logger.Info(msg, l.with(args)...) }

// LogWarn logs a warning scoped to the call.
func (l *callLogger) LogWarn(msg string, args ...any) { l.logger.Warn(msg, l.with(args)...) }

// LogError logs an error scoped to the call.
func (l *callLogger) LogError(msg string, args ...any) { l.logger.Error(msg, l.with(args)...) }
