package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/agrimesh/logging"
	"github.com/hupe1980/agrimesh/model"
	"github.com/hupe1980/agrimesh/tool"
)

// ModelPlannerOptions configures a ModelPlanner.
type ModelPlannerOptions struct {
	Instruction Instruction
	// MaxHistory caps the history messages sent to the model (0 = all).
	MaxHistory int
	Logger     logging.Logger
}

// ModelPlanner lets the language model choose tools through native function
// calling.
type ModelPlanner struct {
	model      model.Model
	registry   *tool.Registry
	processors []RequestProcessor
	opts       ModelPlannerOptions
}

// NewModelPlanner creates a planner that exposes every non-internal tool of
// reg to m.
func NewModelPlanner(m model.Model, reg *tool.Registry, optFns ...func(o *ModelPlannerOptions)) *ModelPlanner {
	opts := ModelPlannerOptions{
		Instruction: NewInstructionFromText(DefaultInstruction),
		MaxHistory:  50,
		Logger:      logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &ModelPlanner{
		model:    m,
		registry: reg,
		processors: []RequestProcessor{
			NewInstructionsProcessor(opts.Instruction),
			NewHistoryProcessor(opts.MaxHistory),
			NewUtteranceProcessor(),
			NewScratchpadProcessor(),
		},
		opts: opts,
	}
}

// Next implements Planner.
func (p *ModelPlanner) Next(ctx context.Context, state *TurnState) (Step, error) {
	req, err := p.BuildRequest(state)
	if err != nil {
		return Step{}, err
	}

	start := time.Now()
	resp, err := model.Collect(ctx, p.model, req)
	p.logLLMCall(time.Since(start), err)
	if err != nil {
		return Step{}, fmt.Errorf("model %s: %w", p.model.Info().Name, err)
	}

	if calls := resp.Content.FunctionCalls(); len(calls) > 0 {
		return Step{Calls: calls}, nil
	}
	return Answer(strings.TrimSpace(resp.Content.Text())), nil
}

// BuildRequest runs the request processors and attaches the tool
// definitions.
func (p *ModelPlanner) BuildRequest(state *TurnState) (model.Request, error) {
	req := new(model.Request)
	for _, processor := range p.processors {
		if err := processor.ProcessRequest(state, req); err != nil {
			return model.Request{}, fmt.Errorf("request processor %s failed: %w", processor.Name(), err)
		}
	}

	exposed := p.registry.Exposed()
	if len(exposed) > 0 {
		defs := make([]model.ToolDefinition, 0, len(exposed))
		for _, e := range exposed {
			defs = append(defs, model.ToolDefinition{
				Type: "function",
				Function: model.FunctionDefinition{
					Name:        e.Tool.Name(),
					Description: e.Tool.Description(),
					Parameters:  e.Tool.Parameters(),
				},
			})
		}
		req.Tools = defs
	}
	return *req, nil
}

func (p *ModelPlanner) logLLMCall(dur time.Duration, err error) {
	if sl, ok := p.opts.Logger.(*logging.StructuredLogger); ok {
		sl.LogLLMCall(p.model.Info().Name, dur, err)
		return
	}
	p.opts.Logger.Debug("agent.llm.call", "model", p.model.Info().Name, "duration_ms", dur.Milliseconds(), "error", err != nil)
}
