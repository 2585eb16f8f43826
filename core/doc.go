// Package core provides the foundational domain types and interfaces shared by
// the agrimesh packages:
//
//   - Sessions (ordered human/agent message history keyed by an opaque id)
//   - Content / Part (model-facing conversation segments and function calls)
//   - ToolContext (scoped execution surface handed to capability tools)
//   - CallLimiter and TurnError (bounded turn execution)
//   - Store interfaces for sessions and synthesized audio artifacts
//
// Concrete backends live in their own packages (session, artifact) so callers
// depend on the small interfaces defined here.
package core
