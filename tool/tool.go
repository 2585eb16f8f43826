// Package tool implements the capability calling subsystem: tools with schema
// validated arguments, text results that never fail across the tool boundary,
// and a registry that records which intent each tool serves.
package tool

import (
	"fmt"

	"github.com/hupe1980/agrimesh/core"
	"github.com/hupe1980/agrimesh/internal/util"
)

// Tool is a capability the agent can invoke during a turn.
//
// Implementations must not panic and must not surface errors: every outcome,
// including provider failures, is reported as a Result whose text can be
// shown to the model or the user.
type Tool interface {
	// Name returns the unique model-facing identifier (snake_case).
	Name() string

	// Description tells the model when and how to use the tool.
	Description() string

	// Parameters returns the JSON schema of the accepted arguments.
	Parameters() map[string]any

	// Call executes the tool with decoded, schema-validated arguments.
	Call(toolCtx *core.ToolContext, args map[string]any) Result
}

// Result is the outcome of a tool call. Diagnostic marks text that describes
// a failure (unknown city, provider outage) rather than data.
type Result struct {
	Text       string `json:"text"`
	Diagnostic bool   `json:"diagnostic,omitempty"`
}

// Success wraps data text in a Result.
func Success(text string) Result { return Result{Text: text} }

// Diagnostic wraps failure text in a Result.
func Diagnostic(text string) Result { return Result{Text: text, Diagnostic: true} }

// Diagnosticf formats failure text into a Result.
func Diagnosticf(format string, args ...any) Result {
	return Diagnostic(fmt.Sprintf(format, args...))
}

// ValidationError represents parameter validation errors with detailed information.
type ValidationError = util.ValidationError

// ToolError describes why a call was rejected before or during execution.
type ToolError struct {
	Tool    string `json:"tool"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

// Error codes carried by ToolError.
const (
	CodeValidation  = "VALIDATION_ERROR"
	CodeExecution   = "EXECUTION_ERROR"
	CodeUnavailable = "UNAVAILABLE"
	CodeDuplicate   = "DUPLICATE_CALL"
)

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// Result converts the error into diagnostic text for the model.
func (e *ToolError) Result() Result { return Diagnostic(e.Error()) }

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{
		Tool:    tool,
		Message: message,
		Code:    code,
	}
}
