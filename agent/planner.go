package agent

import (
	"context"
	"time"

	"github.com/hupe1980/agrimesh/core"
	"github.com/hupe1980/agrimesh/tool"
)

// Planner decides the next step of a turn: call tools or answer.
//
// Implementations must be safe for concurrent use; all per-turn data lives
// in the TurnState.
type Planner interface {
	Next(ctx context.Context, state *TurnState) (Step, error)
}

// Step is a planner decision. A step with calls asks the agent to run them
// and plan again; a step without calls ends the turn with Answer.
type Step struct {
	Calls  []core.FunctionCall
	Answer string
}

// Final reports whether the step ends the turn.
func (s Step) Final() bool { return len(s.Calls) == 0 }

// Answer builds a final step.
func Answer(text string) Step { return Step{Answer: text} }

// Call builds a step requesting a single tool call.
func Call(name, arguments string) Step {
	return Step{Calls: []core.FunctionCall{{ID: core.NewID(), Name: name, Arguments: arguments}}}
}

// CallRecord is one executed tool call within a turn.
type CallRecord struct {
	Call     core.FunctionCall
	Intent   tool.Intent
	Result   tool.Result
	Round    int
	Duration time.Duration
}

// TurnState is everything a planner may look at while deciding a step.
type TurnState struct {
	SessionID   string
	Utterance   string
	Coordinates *core.Coordinates
	// History is the session history before this turn, oldest first.
	History []core.Message
	// Calls are the tool calls already executed in this turn.
	Calls []CallRecord
	// Round counts planner invocations that requested tools.
	Round int
	// Now is the turn clock, fixed at turn start.
	Now time.Time
}

// TemplateData exposes turn fields to instruction templates.
func (s *TurnState) TemplateData() map[string]any {
	return map[string]any{
		"Month":     s.Now.Month().String(),
		"Year":      s.Now.Year(),
		"SessionID": s.SessionID,
	}
}

// Called reports whether a tool with name already ran in this turn.
func (s *TurnState) Called(name string) bool {
	for _, c := range s.Calls {
		if c.Call.Name == name {
			return true
		}
	}
	return false
}

// LastCall returns the most recent call record.
func (s *TurnState) LastCall() (CallRecord, bool) {
	if len(s.Calls) == 0 {
		return CallRecord{}, false
	}
	return s.Calls[len(s.Calls)-1], true
}
