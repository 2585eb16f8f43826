package agent

// Provider builds the system prompt for a turn, e.g. from the turn clock or
// the coordinates the farmer sent.
type Provider interface {
	Instruction(*TurnState) (string, error)
}

// Func adapts a function to Provider.
type Func func(*TurnState) (string, error)

// Instruction implements Provider.
func (f Func) Instruction(s *TurnState) (string, error) { return f(s) }

// Instruction is the system prompt given to the planner's model: either the
// fixed agri assistant text (DefaultInstruction, GeneralInstruction) or a
// Provider. Both forms are rendered as templates by InstructionsProcessor, so
// "{{.Month}} {{.Year}}" becomes the season the advisories refer to.
type Instruction struct {
	text     string
	provider Provider
}

// NewInstructionFromText wraps a fixed prompt.
func NewInstructionFromText(text string) Instruction { return Instruction{text: text} }

// NewInstructionFromProvider wraps a Provider.
func NewInstructionFromProvider(p Provider) Instruction { return Instruction{provider: p} }

// NewInstructionFromFunc wraps a function.
func NewInstructionFromFunc(f func(*TurnState) (string, error)) Instruction {
	return Instruction{provider: Func(f)}
}

// IsStatic reports whether the prompt is fixed text.
func (i Instruction) IsStatic() bool { return i.provider == nil }

// Resolve returns the unrendered prompt for the turn.
func (i Instruction) Resolve(s *TurnState) (string, error) {
	if i.provider != nil {
		return i.provider.Instruction(s)
	}
	return i.text, nil
}
