package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/hupe1980/agrimesh/core"
	"github.com/hupe1980/agrimesh/logging"
	"github.com/hupe1980/agrimesh/model"
	"github.com/hupe1980/agrimesh/tool"
)

// GeneralInstruction is used for questions that need no tool.
const GeneralInstruction = `You are a smart, multilingual assistant for farmers. Answer the question from your own knowledge, briefly and clearly.
Today is {{.Month}} {{.Year}}.`

// IntentClassifier picks the primary capability for an utterance.
type IntentClassifier interface {
	Classify(utterance string, history []core.Message) (tool.Entry, bool)
}

var followUpPrefixes = []string{"what about", "how about", "and ", "also", "same for", "same in", "now for"}

// KeywordClassifier matches the trigger keywords declared by registry
// entries. Follow-up utterances without a trigger inherit the capability of
// the latest human message that had one.
type KeywordClassifier struct {
	registry *tool.Registry
}

// NewKeywordClassifier creates a classifier over reg.
func NewKeywordClassifier(reg *tool.Registry) *KeywordClassifier {
	return &KeywordClassifier{registry: reg}
}

// Classify implements IntentClassifier.
func (c *KeywordClassifier) Classify(utterance string, history []core.Message) (tool.Entry, bool) {
	if e, ok := c.registry.Match(utterance); ok {
		return e, true
	}
	if !isFollowUp(utterance) {
		return tool.Entry{}, false
	}
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role != core.RoleHuman {
			continue
		}
		if e, ok := c.registry.Match(history[i].Content); ok {
			return e, true
		}
	}
	return tool.Entry{}, false
}

func isFollowUp(utterance string) bool {
	text := strings.ToLower(strings.TrimSpace(utterance))
	for _, p := range followUpPrefixes {
		if strings.HasPrefix(text, p) {
			return true
		}
	}
	return false
}

// locationPattern captures capitalised words after a place preposition. "for"
// is weak: "price for Wheat in Rajkot" names a commodity after it.
var locationPattern = regexp.MustCompile(`\b(in|at|near|for)\s+([A-Z][\p{L}\p{M}]+(?:\s+[A-Z][\p{L}\p{M}]+)*)`)

var notPlaces = map[string]bool{
	"monday": true, "tuesday": true, "wednesday": true, "thursday": true, "friday": true, "saturday": true, "sunday": true,
	"january": true, "february": true, "march": true, "april": true, "may": true, "june": true, "july": true,
	"august": true, "september": true, "october": true, "november": true, "december": true,
	"today": true, "tomorrow": true, "yesterday": true,
	"english": true, "hindi": true, "gujarati": true, "bengali": true, "telugu": true, "tamil": true,
	"kannada": true, "malayalam": true, "marathi": true, "punjabi": true,
}

// LocationResolver finds a place named in the utterance or, for follow-ups,
// in the conversation history.
type LocationResolver struct{}

// Resolve returns the location named in the utterance, else the most recent
// one named in history, else "". An utterance naming several places yields
// "" so the caller can hand the whole text to extraction.
func (r LocationResolver) Resolve(utterance string, history []core.Message) string {
	loc, _ := r.resolve(utterance, history)
	return loc
}

// resolve also reports whether the utterance named more than one place.
func (LocationResolver) resolve(utterance string, history []core.Message) (string, bool) {
	if loc, ambiguous := findLocation(utterance); loc != "" || ambiguous {
		return loc, ambiguous
	}
	for i := len(history) - 1; i >= 0; i-- {
		if loc, _ := findLocation(history[i].Content); loc != "" {
			return loc, false
		}
	}
	return "", false
}

// findLocation prefers places introduced by in/at/near over those after
// "for". More than one distinct place of the winning kind is ambiguous.
func findLocation(text string) (string, bool) {
	var strong, weak []string
	for _, m := range locationPattern.FindAllStringSubmatch(text, -1) {
		words := strings.Fields(m[2])
		for len(words) > 0 && notPlaces[strings.ToLower(words[len(words)-1])] {
			words = words[:len(words)-1]
		}
		if len(words) == 0 || notPlaces[strings.ToLower(words[0])] {
			continue
		}
		place := strings.Join(words, " ")
		if m[1] == "for" {
			weak = appendUnique(weak, place)
		} else {
			strong = appendUnique(strong, place)
		}
	}

	candidates := strong
	if len(candidates) == 0 {
		candidates = weak
	}
	switch len(candidates) {
	case 0:
		return "", false
	case 1:
		return candidates[0], false
	default:
		return "", true
	}
}

func appendUnique(list []string, v string) []string {
	for _, s := range list {
		if strings.EqualFold(s, v) {
			return list
		}
	}
	return append(list, v)
}

// IntentPlannerOptions configures an IntentPlanner.
type IntentPlannerOptions struct {
	Classifier IntentClassifier
	// Instruction is used for general questions answered without tools.
	Instruction Instruction
	MaxHistory  int
	Logger      logging.Logger
}

// IntentPlanner is a deterministic planner: keyword intents choose the one
// primary tool, the location is resolved from text, history or request
// coordinates, and the model is only consulted for general questions and by
// the tools themselves.
type IntentPlanner struct {
	model    model.Model
	registry *tool.Registry
	resolver LocationResolver
	general  []RequestProcessor
	opts     IntentPlannerOptions
}

// NewIntentPlanner creates an IntentPlanner over reg.
func NewIntentPlanner(m model.Model, reg *tool.Registry, optFns ...func(o *IntentPlannerOptions)) *IntentPlanner {
	opts := IntentPlannerOptions{
		Instruction: NewInstructionFromText(GeneralInstruction),
		MaxHistory:  50,
		Logger:      logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.Classifier == nil {
		opts.Classifier = NewKeywordClassifier(reg)
	}

	return &IntentPlanner{
		model:    m,
		registry: reg,
		general: []RequestProcessor{
			NewInstructionsProcessor(opts.Instruction),
			NewHistoryProcessor(opts.MaxHistory),
			NewUtteranceProcessor(),
		},
		opts: opts,
	}
}

// Next implements Planner.
func (p *IntentPlanner) Next(ctx context.Context, state *TurnState) (Step, error) {
	primary, ok := p.opts.Classifier.Classify(state.Utterance, state.History)
	if !ok {
		p.opts.Logger.Debug("agent.intent.general", "session_id", state.SessionID)
		return p.answerGeneral(ctx, state)
	}

	last, hasLast := state.LastCall()
	if !hasLast {
		p.opts.Logger.Debug("agent.intent.selected", "session_id", state.SessionID, "intent", string(primary.Intent), "tool", primary.Name())
		return p.firstStep(state, primary)
	}

	if last.Intent == tool.IntentLocation && !state.Called(primary.Name()) {
		loc := last.Result.Text
		if last.Result.Diagnostic || strings.EqualFold(loc, "none") {
			loc = ""
		}
		return callWith(primary, buildArgs(primary, loc, "", nil))
	}

	return Answer(last.Result.Text), nil
}

func (p *IntentPlanner) firstStep(state *TurnState, primary tool.Entry) (Step, error) {
	loc, ambiguous := p.resolver.resolve(state.Utterance, state.History)
	if loc != "" {
		return callWith(primary, buildArgs(primary, loc, "", nil))
	}
	if ambiguous {
		p.opts.Logger.Debug("agent.intent.location_ambiguous", "session_id", state.SessionID)
	}
	if state.Coordinates != nil && !ambiguous {
		return callWith(primary, buildArgs(primary, "", "", state.Coordinates))
	}
	if hasProperty(primary, "city_or_text") {
		return callWith(primary, buildArgs(primary, "", state.Utterance, nil))
	}

	if primary.NeedsLocation {
		if extract, ok := p.registry.ByIntent(tool.IntentLocation); ok {
			args := map[string]any{}
			if key := firstRequired(extract); key != "" {
				args[key] = state.Utterance
			}
			return callWith(extract, args)
		}
	}
	return callWith(primary, map[string]any{})
}

func (p *IntentPlanner) answerGeneral(ctx context.Context, state *TurnState) (Step, error) {
	req := new(model.Request)
	for _, processor := range p.general {
		if err := processor.ProcessRequest(state, req); err != nil {
			return Step{}, fmt.Errorf("request processor %s failed: %w", processor.Name(), err)
		}
	}

	start := time.Now()
	resp, err := model.Collect(ctx, p.model, *req)
	p.opts.Logger.Debug("agent.llm.call", "model", p.model.Info().Name, "duration_ms", time.Since(start).Milliseconds(), "error", err != nil)
	if err != nil {
		return Step{}, fmt.Errorf("model %s: %w", p.model.Info().Name, err)
	}
	return Answer(strings.TrimSpace(resp.Content.Text())), nil
}

// buildArgs fills the arguments a capability declares: a location goes to
// "city" or "city_or_text", coordinates to "lat"/"lon", and free text to
// "city_or_text".
func buildArgs(e tool.Entry, location, text string, coords *core.Coordinates) map[string]any {
	args := map[string]any{}
	switch {
	case location != "":
		if hasProperty(e, "city") {
			args["city"] = location
		} else if hasProperty(e, "city_or_text") {
			args["city_or_text"] = location
		}
	case coords != nil:
		if hasProperty(e, "lat") && hasProperty(e, "lon") {
			args["lat"] = coords.Lat
			args["lon"] = coords.Lon
		}
		if hasProperty(e, "city_or_text") {
			args["city_or_text"] = ""
		}
	case text != "":
		args["city_or_text"] = text
	}
	return args
}

func callWith(e tool.Entry, args map[string]any) (Step, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return Step{}, fmt.Errorf("failed to encode %s arguments: %w", e.Name(), err)
	}
	return Call(e.Name(), string(raw)), nil
}

func properties(e tool.Entry) map[string]any {
	props, _ := e.Tool.Parameters()["properties"].(map[string]any)
	return props
}

func hasProperty(e tool.Entry, name string) bool {
	_, ok := properties(e)[name]
	return ok
}

func firstRequired(e tool.Entry) string {
	switch req := e.Tool.Parameters()["required"].(type) {
	case []string:
		if len(req) > 0 {
			return req[0]
		}
	case []any:
		if len(req) > 0 {
			s, _ := req[0].(string)
			return s
		}
	}
	return ""
}
