package agent

import (
	"context"
	"strings"
	"time"

	"github.com/hupe1980/agrimesh/core"
	"github.com/hupe1980/agrimesh/logging"
	"github.com/hupe1980/agrimesh/model"
	"github.com/hupe1980/agrimesh/tool"
)

// Options configures an Agent.
type Options struct {
	// MaxToolCalls bounds tool invocations per turn (0 = unlimited).
	MaxToolCalls int
	// TurnTimeout bounds the wall-clock time of a turn (0 = none).
	TurnTimeout time.Duration
	Logger      logging.Logger
	Now         func() time.Time
}

// Agent answers one utterance per turn, keeping per-session history in a
// core.SessionStore.
type Agent struct {
	store    core.SessionStore
	planner  Planner
	executor *Executor
	opts     Options
}

// New creates an Agent. The registry supplies the tools the planner may call.
func New(store core.SessionStore, planner Planner, reg *tool.Registry, optFns ...func(o *Options)) *Agent {
	opts := Options{
		MaxToolCalls: 3,
		TurnTimeout:  60 * time.Second,
		Logger:       logging.NoOpLogger{},
		Now:          time.Now,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Agent{
		store:    store,
		planner:  planner,
		executor: NewExecutor(reg, opts.Logger),
		opts:     opts,
	}
}

// RunTurn answers utterance within the session identified by sessionID.
// Turns on the same session are serialized. On success the utterance and the
// answer are appended to the session history, in that order; a failed turn
// returns a *core.TurnError and leaves the history untouched.
func (a *Agent) RunTurn(ctx context.Context, sessionID, utterance string, coords *core.Coordinates) (string, error) {
	if a.opts.TurnTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.opts.TurnTimeout)
		defer cancel()
	}

	unlock, err := a.store.Lock(ctx, sessionID)
	if err != nil {
		a.opts.Logger.Warn("agent.turn.lock_timeout", "session_id", sessionID, "error", err.Error())
		return "", core.NewTurnError(sessionID, core.ErrTurnTimeout, err)
	}
	defer unlock()

	// Appends go to the session held under the lock. If it is cleared
	// meanwhile, this turn's exchange stays out of the fresh history.
	sess := a.store.GetOrCreate(sessionID)

	start := time.Now()
	state := &TurnState{
		SessionID:   sessionID,
		Utterance:   utterance,
		Coordinates: coords,
		History:     sess.Messages(),
		Now:         a.opts.Now(),
	}

	a.opts.Logger.Info("agent.turn.start", "session_id", sessionID, "history", len(state.History), "coordinates", coords != nil)

	answer, err := a.run(ctx, state)
	a.logTurn(sessionID, len(state.Calls), time.Since(start), err)
	if err != nil {
		return "", err
	}

	sess.Append(core.RoleHuman, utterance)
	sess.Append(core.RoleAgent, answer)
	return answer, nil
}

func (a *Agent) run(ctx context.Context, state *TurnState) (string, error) {
	limiter := core.NewCallLimiter(a.opts.MaxToolCalls)

	for {
		if err := ctx.Err(); err != nil {
			return "", core.NewTurnError(state.SessionID, core.ErrTurnTimeout, err)
		}

		step, err := a.planner.Next(ctx, state)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return "", core.NewTurnError(state.SessionID, core.ErrTurnTimeout, ctxErr)
			}
			return "", core.NewTurnError(state.SessionID, core.ErrModelFailure, err)
		}

		if step.Final() {
			return a.finalAnswer(state, step.Answer)
		}

		for _, fc := range step.Calls {
			if err := limiter.Increment(); err != nil {
				a.opts.Logger.Warn("agent.turn.tool_limit", "session_id", state.SessionID, "tool", fc.Name, "requested", limiter.Count(), "max", a.opts.MaxToolCalls)
				return "", core.NewTurnError(state.SessionID, core.ErrToolLimit, err)
			}
			state.Calls = append(state.Calls, a.executor.Execute(ctx, state, fc))
			if err := ctx.Err(); err != nil {
				return "", core.NewTurnError(state.SessionID, core.ErrTurnTimeout, err)
			}
		}
		state.Round++
	}
}

// finalAnswer falls back to the last tool output when the planner ends the
// turn without text.
func (a *Agent) finalAnswer(state *TurnState, answer string) (string, error) {
	if answer = strings.TrimSpace(answer); answer != "" {
		return answer, nil
	}
	if last, ok := state.LastCall(); ok && strings.TrimSpace(last.Result.Text) != "" {
		return last.Result.Text, nil
	}
	return "", core.NewTurnError(state.SessionID, core.ErrModelFailure, model.ErrEmptyResponse)
}

func (a *Agent) logTurn(sessionID string, calls int, dur time.Duration, err error) {
	if sl, ok := a.opts.Logger.(*logging.StructuredLogger); ok {
		sl.LogTurn(sessionID, calls, dur, err)
		return
	}
	if err != nil {
		a.opts.Logger.Error("agent.turn.failed", "session_id", sessionID, "tool_calls", calls, "duration_ms", dur.Milliseconds(), "error", err.Error())
		return
	}
	a.opts.Logger.Info("agent.turn.completed", "session_id", sessionID, "tool_calls", calls, "duration_ms", dur.Milliseconds())
}

// History returns the messages of a session in insertion order. Unknown
// sessions have an empty history.
func (a *Agent) History(sessionID string) []core.Message {
	return a.store.History(sessionID)
}

// ClearHistory discards a session.
func (a *Agent) ClearHistory(sessionID string) {
	a.store.Clear(sessionID)
	a.opts.Logger.Info("agent.history.cleared", "session_id", sessionID)
}
