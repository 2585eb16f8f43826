// Package pipeline turns a text or audio request into a localized answer
// with optional synthesized speech:
//
//	(audio) validate → transcribe → agent turn → localize → synthesize → store
//
// Validation failures are reported as *ValidationError, stage failures as
// *StageError. Language problems never fail a request; the answer falls back
// to the untranslated text in the default language.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/agrimesh/core"
	"github.com/hupe1980/agrimesh/internal/util"
	"github.com/hupe1980/agrimesh/logging"
	"github.com/hupe1980/agrimesh/speech"
)

// TurnRunner runs one agent turn.
type TurnRunner interface {
	RunTurn(ctx context.Context, sessionID, utterance string, coords *core.Coordinates) (string, error)
}

// Localizer is the language envelope around the agent.
type Localizer interface {
	DetectUserLanguage(ctx context.Context, text string) string
	ResolveTarget(userLang string, allowed []string) string
	Localize(ctx context.Context, answer, target string) (string, string)
}

// TextRequest is a typed question.
type TextRequest struct {
	SessionID string
	Text      string
	// Languages optionally restricts the answer language.
	Languages   []string
	Coordinates *core.Coordinates
}

// AudioRequest is a recorded question.
type AudioRequest struct {
	SessionID   string
	Filename    string
	Data        []byte
	Coordinates *core.Coordinates
}

// Response is the pipeline result. AudioFile is empty when no synthesizer is
// configured.
type Response struct {
	Text      string `json:"text"`
	Language  string `json:"language"`
	AudioFile string `json:"audio_filename,omitempty"`
	SessionID string `json:"session_id"`
	// Transcript is the recognized utterance of an audio request.
	Transcript string `json:"transcript,omitempty"`
}

// Options configures a Pipeline.
type Options struct {
	Transcriber speech.Transcriber
	Synthesizer speech.Synthesizer
	// Artifacts stores synthesized audio. Required when Synthesizer is set.
	Artifacts core.ArtifactStore
	// MaxAudioDuration bounds uploaded clips.
	MaxAudioDuration time.Duration
	// AllowedFormats lists accepted upload extensions, including the dot.
	AllowedFormats []string
	Logger         logging.Logger
}

// Pipeline wires the agent to the speech and language collaborators.
type Pipeline struct {
	runner    TurnRunner
	localizer Localizer
	opts      Options
}

// New creates a Pipeline.
func New(runner TurnRunner, localizer Localizer, optFns ...func(o *Options)) *Pipeline {
	opts := Options{
		MaxAudioDuration: 20 * time.Second,
		AllowedFormats:   []string{".mp3", ".wav"},
		Logger:           logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	formats := make([]string, 0, len(opts.AllowedFormats))
	for _, f := range opts.AllowedFormats {
		f = strings.ToLower(strings.TrimSpace(f))
		if !strings.HasPrefix(f, ".") {
			f = "." + f
		}
		formats = append(formats, f)
	}
	opts.AllowedFormats = formats

	return &Pipeline{runner: runner, localizer: localizer, opts: opts}
}

// HandleText answers a typed question.
func (p *Pipeline) HandleText(ctx context.Context, req TextRequest) (*Response, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, invalid("Empty text provided")
	}
	p.opts.Logger.Info("pipeline.text.received", "session_id", req.SessionID, "chars", len(text))

	return p.answer(ctx, sessionOrNew(req.SessionID), text, req.Languages, req.Coordinates)
}

// HandleAudio validates, transcribes and answers a recorded question.
func (p *Pipeline) HandleAudio(ctx context.Context, req AudioRequest) (*Response, error) {
	ext := strings.ToLower(filepath.Ext(req.Filename))
	if !p.allowed(ext) {
		return nil, invalid("Only %s files are allowed", strings.Join(p.opts.AllowedFormats, " or "))
	}
	if len(req.Data) == 0 {
		return nil, invalid("Empty audio file provided")
	}

	dur, err := AudioDuration(req.Data, ext)
	if err != nil {
		p.opts.Logger.Warn("pipeline.audio.duration_unknown", "filename", req.Filename, "error", err.Error())
		return nil, invalid("Could not determine audio duration. Please upload a valid %s file.", ext)
	}
	if p.opts.MaxAudioDuration > 0 && dur > p.opts.MaxAudioDuration {
		return nil, invalid("Audio duration exceeds %s. Please upload a shorter clip.", formatSeconds(p.opts.MaxAudioDuration))
	}
	p.opts.Logger.Info("pipeline.audio.received", "session_id", req.SessionID, "filename", req.Filename, "duration_ms", dur.Milliseconds())

	if p.opts.Transcriber == nil {
		return nil, &StageError{Stage: StageTranscribe, Err: fmt.Errorf("no transcriber configured")}
	}
	transcript, err := p.opts.Transcriber.Transcribe(ctx, req.Data, req.Filename)
	if err != nil {
		return nil, &StageError{Stage: StageTranscribe, Err: err}
	}
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return nil, invalid("No speech detected in the audio")
	}
	p.opts.Logger.Debug("pipeline.audio.transcribed", "chars", len(transcript))

	resp, err := p.answer(ctx, sessionOrNew(req.SessionID), transcript, nil, req.Coordinates)
	if err != nil {
		return nil, err
	}
	resp.Transcript = transcript
	return resp, nil
}

func (p *Pipeline) answer(ctx context.Context, sessionID, utterance string, allowed []string, coords *core.Coordinates) (*Response, error) {
	answer, err := p.runner.RunTurn(ctx, sessionID, utterance, coords)
	if err != nil {
		return nil, &StageError{Stage: StageAgent, Err: err}
	}

	userLang := p.localizer.DetectUserLanguage(ctx, utterance)
	target := p.localizer.ResolveTarget(userLang, allowed)
	text, language := p.localizer.Localize(ctx, answer, target)
	p.opts.Logger.Debug("pipeline.localized", "session_id", sessionID, "user_language", userLang, "language", language)

	resp := &Response{Text: text, Language: language, SessionID: sessionID}

	if p.opts.Synthesizer != nil {
		name, err := p.synthesize(ctx, text, language)
		if err != nil {
			return nil, &StageError{Stage: StageSynthesize, Err: err}
		}
		resp.AudioFile = name
	}
	return resp, nil
}

func (p *Pipeline) synthesize(ctx context.Context, text, language string) (string, error) {
	audio, err := p.opts.Synthesizer.Synthesize(ctx, text, language)
	if err != nil {
		return "", err
	}
	if p.opts.Artifacts == nil {
		return "", fmt.Errorf("no artifact store configured")
	}

	name := util.NewFileName(audio.Extension)
	if err := p.opts.Artifacts.Save(name, audio.Data); err != nil {
		return "", fmt.Errorf("failed to store audio: %w", err)
	}
	p.opts.Logger.Debug("pipeline.audio.stored", "filename", name, "bytes", len(audio.Data))
	return name, nil
}

func (p *Pipeline) allowed(ext string) bool {
	for _, f := range p.opts.AllowedFormats {
		if f == ext {
			return true
		}
	}
	return false
}

func sessionOrNew(id string) string {
	if id = strings.TrimSpace(id); id != "" {
		return id
	}
	return uuid.NewString()
}

func formatSeconds(d time.Duration) string {
	return fmt.Sprintf("%g seconds", d.Seconds())
}
