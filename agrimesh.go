// Package agrimesh assembles the agri chatbot: the capability tools, the
// tool-dispatch agent with per-session memory, the language envelope and the
// text/audio request pipeline. Most applications interact with this package by:
//  1. Supplying a model.Model and the data Providers
//  2. Creating a Mesh via New() (optionally overriding the in-memory stores)
//  3. Calling HandleText / HandleAudio, or RunTurn for the bare agent
//
// All defaults are safe for local development and testing.
package agrimesh

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/agrimesh/agent"
	"github.com/hupe1980/agrimesh/artifact"
	"github.com/hupe1980/agrimesh/capability"
	"github.com/hupe1980/agrimesh/core"
	"github.com/hupe1980/agrimesh/lang"
	"github.com/hupe1980/agrimesh/logging"
	"github.com/hupe1980/agrimesh/model"
	"github.com/hupe1980/agrimesh/pipeline"
	"github.com/hupe1980/agrimesh/session"
	"github.com/hupe1980/agrimesh/speech"
	"github.com/hupe1980/agrimesh/tool"
)

// Planner names.
const (
	PlannerModel  = "model"
	PlannerIntent = "intent"
)

// Providers are the external data and language services.
type Providers struct {
	Weather    capability.WeatherProvider
	Geocoder   capability.Geocoder
	Prices     capability.PriceProvider
	Detector   lang.Detector
	Translator lang.Translator
}

// Options configures the Mesh.
type Options struct {
	// Planner selects how the agent picks tools: PlannerModel or PlannerIntent.
	Planner      string
	MaxToolCalls int
	TurnTimeout  time.Duration
	MaxHistory   int

	// Stores (defaults to in-memory implementations if not provided)
	SessionStore core.SessionStore
	Artifacts    core.ArtifactStore

	// Speech backends. A nil Synthesizer disables audio answers.
	Transcriber speech.Transcriber
	Synthesizer speech.Synthesizer

	MaxAudioDuration time.Duration
	AllowedFormats   []string

	DefaultLanguage string
	MaxChunkChars   int

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Mesh is the assembled chatbot.
type Mesh struct {
	opts       Options
	registry   *tool.Registry
	normalizer *lang.Normalizer
	agent      *agent.Agent
	pipeline   *pipeline.Pipeline
}

// New wires a Mesh around m and the given providers.
func New(m model.Model, p Providers, optFns ...func(o *Options)) (*Mesh, error) {
	opts := Options{
		Planner:          PlannerModel,
		MaxToolCalls:     3,
		TurnTimeout:      60 * time.Second,
		MaxHistory:       50,
		MaxAudioDuration: 20 * time.Second,
		AllowedFormats:   []string{".mp3", ".wav"},
		DefaultLanguage:  "en-IN",
		MaxChunkChars:    1000,
		Logger:           logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.SessionStore == nil {
		opts.SessionStore = session.NewInMemoryStore(func(o *session.Options) { o.Logger = opts.Logger })
	}
	if opts.Artifacts == nil {
		opts.Artifacts = artifact.NewInMemoryStore()
	}

	normalizer := lang.NewNormalizer(p.Detector, p.Translator, func(o *lang.Options) {
		o.DefaultLanguage = opts.DefaultLanguage
		o.MaxChunkChars = opts.MaxChunkChars
		o.Logger = opts.Logger
	})

	toolkit := capability.NewToolkit(p.Weather, p.Geocoder, p.Prices, m, normalizer, func(o *capability.Options) {
		o.Logger = opts.Logger
	})
	registry, err := toolkit.NewRegistry()
	if err != nil {
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}

	var planner agent.Planner
	switch opts.Planner {
	case PlannerModel, "":
		planner = agent.NewModelPlanner(m, registry, func(o *agent.ModelPlannerOptions) {
			o.MaxHistory = opts.MaxHistory
			o.Logger = opts.Logger
		})
	case PlannerIntent:
		planner = agent.NewIntentPlanner(m, registry, func(o *agent.IntentPlannerOptions) {
			o.MaxHistory = opts.MaxHistory
			o.Logger = opts.Logger
		})
	default:
		return nil, fmt.Errorf("unknown planner %q", opts.Planner)
	}

	a := agent.New(opts.SessionStore, planner, registry, func(o *agent.Options) {
		o.MaxToolCalls = opts.MaxToolCalls
		o.TurnTimeout = opts.TurnTimeout
		o.Logger = opts.Logger
	})

	pl := pipeline.New(a, normalizer, func(o *pipeline.Options) {
		o.Transcriber = opts.Transcriber
		o.Synthesizer = opts.Synthesizer
		o.Artifacts = opts.Artifacts
		o.MaxAudioDuration = opts.MaxAudioDuration
		o.AllowedFormats = opts.AllowedFormats
		o.Logger = opts.Logger
	})

	return &Mesh{
		opts:       opts,
		registry:   registry,
		normalizer: normalizer,
		agent:      a,
		pipeline:   pl,
	}, nil
}

// RunTurn answers one utterance in the working language, without the
// language envelope or speech.
func (m *Mesh) RunTurn(ctx context.Context, sessionID, utterance string, coords *core.Coordinates) (string, error) {
	return m.agent.RunTurn(ctx, sessionID, utterance, coords)
}

// HandleText answers a typed question.
func (m *Mesh) HandleText(ctx context.Context, req pipeline.TextRequest) (*pipeline.Response, error) {
	return m.pipeline.HandleText(ctx, req)
}

// HandleAudio answers a recorded question.
func (m *Mesh) HandleAudio(ctx context.Context, req pipeline.AudioRequest) (*pipeline.Response, error) {
	return m.pipeline.HandleAudio(ctx, req)
}

// History returns a session's messages in insertion order.
func (m *Mesh) History(sessionID string) []core.Message { return m.agent.History(sessionID) }

// ClearHistory discards a session.
func (m *Mesh) ClearHistory(sessionID string) { m.agent.ClearHistory(sessionID) }

// Registry returns the tool palette.
func (m *Mesh) Registry() *tool.Registry { return m.registry }

// Artifacts returns the store holding synthesized audio.
func (m *Mesh) Artifacts() core.ArtifactStore { return m.opts.Artifacts }
