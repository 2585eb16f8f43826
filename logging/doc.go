// Package logging provides a minimal logging interface and a slog backed
// implementation for agrimesh.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// used by the agent, the capability tools and the request pipeline. StructuredLogger
// adds component / session scoping and turn, tool and model helpers. NoOpLogger is the
// default everywhere a logger is optional.
//
// Usage:
//
//	logger := logging.NewLogger(&logging.LoggerConfig{Level: logging.ParseLevel("info"), Format: "json"})
//	a := agent.New(store, planner, registry, func(o *agent.Options) { o.Logger = logger })
//
// Log events use dotted names ("agent.turn.start", "tool.call.error") followed by
// key/value pairs.
package logging
