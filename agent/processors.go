package agent

import (
	"fmt"

	"github.com/hupe1980/agrimesh/core"
	"github.com/hupe1980/agrimesh/internal/util"
	"github.com/hupe1980/agrimesh/model"
)

// RequestProcessor contributes to the model request built for one planning
// round. Processors run in order.
type RequestProcessor interface {
	// Name returns the processor's identifier.
	Name() string
	// ProcessRequest modifies the request before it is sent to the model.
	ProcessRequest(state *TurnState, req *model.Request) error
}

// InstructionsProcessor resolves the system instruction and renders it as a
// template over the turn data.
type InstructionsProcessor struct {
	instruction Instruction
}

// NewInstructionsProcessor creates a new instructions processor.
func NewInstructionsProcessor(instruction Instruction) *InstructionsProcessor {
	return &InstructionsProcessor{instruction: instruction}
}

// Name returns the processor's identifier.
func (p *InstructionsProcessor) Name() string { return "instructions" }

// ProcessRequest sets the system instructions and the leading system content.
func (p *InstructionsProcessor) ProcessRequest(state *TurnState, req *model.Request) error {
	text, err := p.instruction.Resolve(state)
	if err != nil {
		return fmt.Errorf("failed to resolve instruction: %w", err)
	}

	rendered, err := util.RenderTemplate(text, state.TemplateData())
	if err != nil {
		return fmt.Errorf("failed to render template: %w", err)
	}
	if rendered == "" {
		return nil
	}

	req.Instructions = rendered
	req.Contents = append(req.Contents, core.NewTextContent(core.RoleSystem, rendered))
	return nil
}

// HistoryProcessor adds the most recent session messages.
type HistoryProcessor struct {
	max int
}

// NewHistoryProcessor creates a processor keeping at most max messages
// (all when max <= 0).
func NewHistoryProcessor(max int) *HistoryProcessor { return &HistoryProcessor{max: max} }

// Name returns the processor's identifier.
func (p *HistoryProcessor) Name() string { return "history" }

// ProcessRequest appends the history window in insertion order.
func (p *HistoryProcessor) ProcessRequest(state *TurnState, req *model.Request) error {
	history := state.History
	if p.max > 0 && len(history) > p.max {
		history = history[len(history)-p.max:]
	}
	for _, m := range history {
		req.Contents = append(req.Contents, core.NewTextContent(m.ModelRole(), m.Content))
	}
	return nil
}

// UtteranceProcessor adds the user utterance, annotated with the request
// coordinates when present.
type UtteranceProcessor struct{}

// NewUtteranceProcessor creates a new utterance processor.
func NewUtteranceProcessor() *UtteranceProcessor { return &UtteranceProcessor{} }

// Name returns the processor's identifier.
func (p *UtteranceProcessor) Name() string { return "utterance" }

// ProcessRequest appends the user content.
func (p *UtteranceProcessor) ProcessRequest(state *TurnState, req *model.Request) error {
	text := state.Utterance
	if state.Coordinates != nil {
		text = fmt.Sprintf("%s\n\n(User coordinates: %s)", text, state.Coordinates)
	}
	req.Contents = append(req.Contents, core.NewTextContent(core.RoleUser, text))
	return nil
}

// ScratchpadProcessor replays the tool calls already made in this turn so
// the model sees their results.
type ScratchpadProcessor struct{}

// NewScratchpadProcessor creates a new scratchpad processor.
func NewScratchpadProcessor() *ScratchpadProcessor { return &ScratchpadProcessor{} }

// Name returns the processor's identifier.
func (p *ScratchpadProcessor) Name() string { return "scratchpad" }

// ProcessRequest appends one assistant content per round holding its calls,
// followed by one tool content per result.
func (p *ScratchpadProcessor) ProcessRequest(state *TurnState, req *model.Request) error {
	for i := 0; i < len(state.Calls); {
		round := state.Calls[i].Round

		j := i
		call := core.Content{Role: core.RoleAssistant}
		for ; j < len(state.Calls) && state.Calls[j].Round == round; j++ {
			call.Parts = append(call.Parts, core.FunctionCallPart{FunctionCall: state.Calls[j].Call})
		}
		req.Contents = append(req.Contents, call)

		for _, rec := range state.Calls[i:j] {
			req.Contents = append(req.Contents, core.Content{
				Role: core.RoleTool,
				Parts: []core.Part{core.FunctionResponsePart{FunctionResponse: core.FunctionResponse{
					ID:         rec.Call.ID,
					Name:       rec.Call.Name,
					Response:   rec.Result.Text,
					Diagnostic: rec.Result.Diagnostic,
				}}},
			})
		}
		i = j
	}
	return nil
}
