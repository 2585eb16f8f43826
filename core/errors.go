package core

import (
	"errors"
	"fmt"
)

var (
	// ErrModelFailure marks a turn aborted because the model call failed.
	ErrModelFailure = errors.New("model call failed")
	// ErrToolLimit marks a turn that requested more tool calls than allowed.
	ErrToolLimit = errors.New("tool call limit exceeded")
	// ErrTurnTimeout marks a turn that exceeded its wall-clock budget.
	ErrTurnTimeout = errors.New("turn timed out")
)

// TurnError is returned by the agent when a turn cannot produce an answer.
// Kind is one of ErrModelFailure, ErrToolLimit or ErrTurnTimeout.
type TurnError struct {
	SessionID string
	Kind      error
	Err       error
}

func (e *TurnError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("turn in session %s: %v", e.SessionID, e.Kind)
	}
	if errors.Is(e.Err, e.Kind) {
		return fmt.Sprintf("turn in session %s: %v", e.SessionID, e.Err)
	}
	return fmt.Sprintf("turn in session %s: %v: %v", e.SessionID, e.Kind, e.Err)
}

// Unwrap exposes both the kind sentinel and the cause to errors.Is / errors.As.
func (e *TurnError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewTurnError builds a TurnError for the given session, kind and cause.
func NewTurnError(sessionID string, kind, err error) *TurnError {
	return &TurnError{SessionID: sessionID, Kind: kind, Err: err}
}
