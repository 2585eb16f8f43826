package core

import (
	"context"
	"time"

	"github.com/hupe1980/agrimesh/logging"
)

// ToolContextOptions carries the optional turn data exposed to tools.
type ToolContextOptions struct {
	Utterance   string
	Coordinates *Coordinates
	History     []Message
	Logger      logging.Logger
	Now         func() time.Time
}

// ToolContext provides a constrained surface for capability tools: the turn's
// context, session identity, the request coordinates and a read-only history
// snapshot. Tools cannot mutate the session through it.
type ToolContext struct {
	ctx            context.Context
	sessionID      string
	functionCallID string
	opts           ToolContextOptions

	*callLogger
}

// NewToolContext constructs a tool context bound to a turn context and a
// function call identifier.
func NewToolContext(ctx context.Context, sessionID, functionCallID string, optFns ...func(o *ToolContextOptions)) *ToolContext {
	opts := ToolContextOptions{Now: time.Now}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &ToolContext{
		ctx:            ctx,
		sessionID:      sessionID,
		functionCallID: functionCallID,
		opts:           opts,
		callLogger:     newCallLogger(opts.Logger, sessionID, functionCallID),
	}
}

// Context returns the context associated with the tool invocation.
func (tc *ToolContext) Context() context.Context { return tc.ctx }

// SessionID returns the session ID associated with the tool invocation.
func (tc *ToolContext) SessionID() string { return tc.sessionID }

// FunctionCallID returns the function call ID associated with the tool invocation.
func (tc *ToolContext) FunctionCallID() string { return tc.functionCallID }

// Utterance returns the user utterance of the current turn.
func (tc *ToolContext) Utterance() string { return tc.opts.Utterance }

// Coordinates returns the request coordinates, or nil.
func (tc *ToolContext) Coordinates() *Coordinates { return tc.opts.Coordinates }

// History returns the session history as it was when the turn started.
func (tc *ToolContext) History() []Message {
	out := make([]Message, len(tc.opts.History))
	copy(out, tc.opts.History)
	return out
}

// Now returns the current time from the turn clock.
func (tc *ToolContext) Now() time.Time { return tc.opts.Now() }
