package pipeline

import "fmt"

// ValidationError reports a request rejected before any processing. Reason
// is safe to show to the user.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func invalid(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// Stage names a processing step of the pipeline.
type Stage string

const (
	StageTranscribe Stage = "speech_to_text"
	StageAgent      Stage = "agent"
	StageSynthesize Stage = "text_to_speech"
)

// StageError reports a failed pipeline stage.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	switch e.Stage {
	case StageTranscribe:
		return fmt.Sprintf("Speech-to-text error: %v", e.Err)
	case StageAgent:
		return fmt.Sprintf("Agent error: %v", e.Err)
	case StageSynthesize:
		return fmt.Sprintf("TTS error: %v", e.Err)
	default:
		return fmt.Sprintf("%s error: %v", e.Stage, e.Err)
	}
}

func (e *StageError) Unwrap() error { return e.Err }
