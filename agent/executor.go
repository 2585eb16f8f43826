package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/hupe1980/agrimesh/core"
	"github.com/hupe1980/agrimesh/logging"
	"github.com/hupe1980/agrimesh/tool"
)

// Executor runs planner-requested tool calls against a registry. It never
// returns an error: every failure becomes a diagnostic result.
type Executor struct {
	registry *tool.Registry
	logger   logging.Logger
}

// NewExecutor creates an Executor.
func NewExecutor(reg *tool.Registry, logger logging.Logger) *Executor {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Executor{registry: reg, logger: logger}
}

// Execute runs fc within the turn described by state. Unknown and internal
// tools are refused, and a capability already used in this turn is not run
// again. The call is abandoned when ctx is done.
func (e *Executor) Execute(ctx context.Context, state *TurnState, fc core.FunctionCall) CallRecord {
	rec := CallRecord{Call: fc, Round: state.Round}
	if rec.Call.ID == "" {
		rec.Call.ID = core.NewID()
	}

	entry, ok := e.registry.Lookup(fc.Name)
	if !ok || entry.Internal {
		e.logger.Warn("agent.tool.refused", "session_id", state.SessionID, "tool", fc.Name, "internal", ok)
		rec.Result = tool.NewToolError(fc.Name, "tool is not available to the agent", tool.CodeUnavailable).Result()
		return rec
	}
	rec.Intent = entry.Intent

	for _, prev := range state.Calls {
		if prev.Call.Name == fc.Name || (entry.Intent != "" && prev.Intent == entry.Intent) {
			e.logger.Warn("agent.tool.duplicate", "session_id", state.SessionID, "tool", fc.Name, "previous", prev.Call.Name)
			rec.Result = tool.NewToolError(fc.Name, fmt.Sprintf("capability %q already used in this turn by %s", entry.Intent, prev.Call.Name), tool.CodeDuplicate).Result()
			return rec
		}
	}

	args := map[string]any{}
	if fc.Arguments != "" {
		if err := json.Unmarshal([]byte(fc.Arguments), &args); err != nil {
			rec.Result = (&tool.ToolError{
				Tool:    fc.Name,
				Message: fmt.Sprintf("failed to unmarshal args: %v", err),
				Code:    tool.CodeValidation,
			}).Result()
			return rec
		}
	}

	toolCtx := core.NewToolContext(ctx, state.SessionID, rec.Call.ID, func(o *core.ToolContextOptions) {
		o.Utterance = state.Utterance
		o.Coordinates = state.Coordinates
		o.History = state.History
		o.Logger = e.logger
		o.Now = func() time.Time { return state.Now }
	})

	e.logger.Debug("agent.tool.start", "session_id", state.SessionID, "tool", fc.Name, "function_call_id", rec.Call.ID)

	start := time.Now()
	done := make(chan tool.Result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				e.logger.Error("agent.tool.panic", "tool", fc.Name, "recover", r, "stack", string(debug.Stack()))
				done <- tool.NewToolError(fc.Name, "panic recovered", tool.CodeExecution).Result()
			}
		}()
		done <- entry.Tool.Call(toolCtx, args)
	}()

	select {
	case res := <-done:
		rec.Result = res
	case <-ctx.Done():
		rec.Result = tool.NewToolError(fc.Name, ctx.Err().Error(), tool.CodeExecution).Result()
	}
	rec.Duration = time.Since(start)

	if sl, ok := e.logger.(*logging.StructuredLogger); ok {
		sl.LogToolCall(fc.Name, rec.Duration, rec.Result.Diagnostic)
	} else {
		e.logger.Info("agent.tool.executed", "tool", fc.Name, "duration_ms", rec.Duration.Milliseconds(), "diagnostic", rec.Result.Diagnostic)
	}
	return rec
}
