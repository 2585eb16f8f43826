package tool

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hupe1980/agrimesh/core"
	"github.com/hupe1980/agrimesh/internal/util"
)

// Args wraps decoded tool arguments with typed accessors.
type Args map[string]any

// String returns the trimmed string value of key, or "".
func (a Args) String(key string) string {
	switch v := a[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// Float returns the numeric value of key. Numeric strings are accepted since
// some models quote coordinates.
func (a Args) Float(key string) (float64, bool) {
	switch v := a[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// Coordinates returns lat/lon from the given keys when both are present.
func (a Args) Coordinates(latKey, lonKey string) (*core.Coordinates, bool) {
	lat, ok1 := a.Float(latKey)
	lon, ok2 := a.Float(lonKey)
	if !ok1 || !ok2 {
		return nil, false
	}
	c := core.Coordinates{Lat: lat, Lon: lon}
	if !c.Valid() {
		return nil, false
	}
	return &c, true
}

// Func is the signature of a FunctionTool implementation.
type Func func(toolCtx *core.ToolContext, args Args) Result

// FunctionTool is a generic adapter that exposes a plain Go function as a tool.
//
// Responsibilities:
//   - Holds a lightweight JSON schema parameter specification
//   - Validates model supplied arguments against that schema before execution
//   - Turns validation failures into a diagnostic Result (code VALIDATION_ERROR)
//
// A FunctionTool has no mutable state after construction and is safe for
// concurrent use by multiple goroutines.
type FunctionTool struct {
	name        string
	description string
	parameters  map[string]any
	fn          Func
}

// NewFunctionTool constructs a FunctionTool from explicit schema and function.
func NewFunctionTool(name, description string, parameters map[string]any, fn Func) *FunctionTool {
	return &FunctionTool{
		name:        name,
		description: description,
		parameters:  parameters,
		fn:          fn,
	}
}

// NewFunctionToolFromStruct derives the parameter schema from a struct using
// json and description tags.
//
// Example:
//
//	type CityArgs struct {
//	  City string `json:"city" description:"City or district name"`
//	}
//
//	t := NewFunctionToolFromStruct("get_weather", "Current weather", CityArgs{}, fn)
func NewFunctionToolFromStruct(name, description string, structType any, fn Func) *FunctionTool {
	return NewFunctionTool(name, description, util.CreateSchema(structType), fn)
}

// Name returns the unique tool name used in function call declarations and routing.
func (t *FunctionTool) Name() string { return t.name }

// Description returns the short natural language description exposed to models.
func (t *FunctionTool) Description() string { return t.description }

// Parameters returns the JSON schema describing expected arguments.
func (t *FunctionTool) Parameters() map[string]any { return t.parameters }

// Call validates args against the declared schema then invokes the function.
//
// Logging Fields:
//
//	tool: tool name
//	fc_id: function call identifier
//	duration_ms: execution time in milliseconds
func (t *FunctionTool) Call(toolCtx *core.ToolContext, args map[string]any) Result {
	logger := toolCtx.Logger()
	start := time.Now()

	logger.Debug("tool.call.start", "tool", t.name, "fc_id", toolCtx.FunctionCallID())

	if args == nil {
		args = map[string]any{}
	}

	if err := util.ValidateParameters(args, t.parameters); err != nil {
		logger.Warn("tool.call.validation_failed", "tool", t.name, "error", err.Error())

		return (&ToolError{
			Tool:    t.name,
			Message: fmt.Sprintf("parameter validation failed: %v", err),
			Code:    CodeValidation,
			Details: err,
		}).Result()
	}

	res := t.fn(toolCtx, Args(args))

	if res.Diagnostic {
		logger.Warn("tool.call.diagnostic", "tool", t.name, "duration_ms", time.Since(start).Milliseconds(), "text", res.Text)
	} else {
		logger.Info("tool.call.success", "tool", t.name, "duration_ms", time.Since(start).Milliseconds())
	}

	return res
}
