package lang

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/hupe1980/agrimesh/logging"
)

// Detector identifies the language of a text and returns a language code
// such as "hi-IN" or "en".
type Detector interface {
	DetectLanguage(ctx context.Context, text string) (string, error)
}

// Translator translates text between two language codes.
type Translator interface {
	Translate(ctx context.Context, text, source, target string) (string, error)
}

// Options configures a Normalizer.
type Options struct {
	// DefaultLanguage is returned whenever detection or translation fails.
	DefaultLanguage string
	// WorkingLanguage is the language the agent and providers operate in.
	WorkingLanguage string
	// MaxChunkChars is the per-call size ceiling of the translator.
	MaxChunkChars int
	// Region is appended to bare language subtags ("hi" -> "hi-IN").
	Region string
	Logger logging.Logger
}

// Normalizer wraps the agent in a language envelope: it detects the user's
// language, localizes answers back into it and turns place names into the
// English identifiers data providers expect.
type Normalizer struct {
	detector   Detector
	translator Translator
	opts       Options
}

// NewNormalizer creates a Normalizer over the given detector and translator.
func NewNormalizer(detector Detector, translator Translator, optFns ...func(o *Options)) *Normalizer {
	opts := Options{
		DefaultLanguage: "en-IN",
		WorkingLanguage: "en",
		MaxChunkChars:   1000,
		Region:          "IN",
		Logger:          logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &Normalizer{detector: detector, translator: translator, opts: opts}
}

// DefaultLanguage returns the fallback language code.
func (n *Normalizer) DefaultLanguage() string { return n.opts.DefaultLanguage }

// DetectUserLanguage returns the provider code of the utterance language, or
// the default language when detection fails.
func (n *Normalizer) DetectUserLanguage(ctx context.Context, text string) string {
	if strings.TrimSpace(text) == "" {
		return n.opts.DefaultLanguage
	}
	code, err := n.detector.DetectLanguage(ctx, text)
	if err != nil || strings.TrimSpace(code) == "" {
		n.opts.Logger.Warn("lang.detect.failed", "error", errString(err))
		return n.opts.DefaultLanguage
	}
	return n.FormatCode(code)
}

// ResolveTarget picks the answer language. With an allow-list, the first
// entry sharing the user's language subtag wins, else the first entry.
func (n *Normalizer) ResolveTarget(userLang string, allowed []string) string {
	var list []string
	for _, a := range allowed {
		if a = strings.TrimSpace(a); a != "" {
			list = append(list, a)
		}
	}
	if len(list) == 0 {
		return n.FormatCode(userLang)
	}
	want := Subtag(userLang)
	for _, a := range list {
		if Subtag(a) == want {
			return n.FormatCode(a)
		}
	}
	return n.FormatCode(list[0])
}

// Localize renders answer in target. It returns the text to deliver and the
// language it is in. Any failure yields the untranslated answer tagged with
// the default language.
func (n *Normalizer) Localize(ctx context.Context, answer, target string) (string, string) {
	if strings.TrimSpace(answer) == "" {
		return answer, n.FormatCode(target)
	}

	source, err := n.detector.DetectLanguage(ctx, answer)
	if err != nil || strings.TrimSpace(source) == "" {
		n.opts.Logger.Warn("lang.localize.detect_failed", "error", errString(err))
		return answer, n.opts.DefaultLanguage
	}

	target = n.FormatCode(target)
	if Subtag(source) == Subtag(target) {
		return answer, target
	}

	translated, err := n.Translate(ctx, answer, source, target)
	if err != nil {
		n.opts.Logger.Warn("lang.localize.translate_failed", "source", source, "target", target, "error", err.Error())
		return answer, n.opts.DefaultLanguage
	}
	return translated, target
}

// Translate converts text from source to target, splitting it into chunks
// that respect the provider size ceiling. Blank chunks are not sent.
func (n *Normalizer) Translate(ctx context.Context, text, source, target string) (string, error) {
	source, target = n.FormatCode(source), n.FormatCode(target)
	if Subtag(source) == Subtag(target) {
		return text, nil
	}

	chunks := SplitChunks(text, n.opts.MaxChunkChars)
	out := make([]string, len(chunks))
	for i, c := range chunks {
		if strings.TrimSpace(c.Text) == "" {
			out[i] = c.Text
			continue
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
		t, err := n.translator.Translate(ctx, c.Text, source, target)
		if err != nil {
			return "", fmt.Errorf("translate chunk %d/%d: %w", i+1, len(chunks), err)
		}
		out[i] = t
	}

	n.opts.Logger.Debug("lang.translate.done", "source", source, "target", target, "chunks", len(chunks))

	return JoinChunks(chunks, out), nil
}

// NormalizeLocation returns an English rendering of a place name. Names in
// Latin script, or detected as English, are returned unchanged apart from
// trimming; translation failures return the original.
func (n *Normalizer) NormalizeLocation(ctx context.Context, location string) string {
	location = strings.TrimSpace(location)
	if location == "" || !IsNonEnglish(location) {
		return location
	}

	source, err := n.detector.DetectLanguage(ctx, location)
	if err != nil || strings.TrimSpace(source) == "" {
		n.opts.Logger.Warn("lang.location.detect_failed", "location", location, "error", errString(err))
		return location
	}
	if Subtag(source) == Subtag(n.opts.WorkingLanguage) {
		return location
	}

	translated, err := n.translator.Translate(ctx, location, n.FormatCode(source), n.FormatCode(n.opts.WorkingLanguage))
	if err != nil {
		n.opts.Logger.Warn("lang.location.translate_failed", "location", location, "error", err.Error())
		return location
	}

	cleaned := strings.TrimRight(strings.TrimSpace(translated), ".।,!? \t\n")
	if cleaned == "" {
		return location
	}
	return cleaned
}

// FormatCode normalizes a language code to the provider form ("hi" ->
// "hi-IN", "EN_in" -> "en-IN").
func (n *Normalizer) FormatCode(code string) string {
	return FormatCode(code, n.opts.Region)
}

var nonEnglish = regexp.MustCompile(`[^\x00-\x7F\x{00C0}-\x{017F}\x{0100}-\x{024F}]`)

// IsNonEnglish reports whether text contains characters outside the Latin
// blocks, i.e. needs translation before an English-only provider sees it.
func IsNonEnglish(text string) bool {
	return nonEnglish.MatchString(text)
}

// FormatCode returns code as "<subtag>-<REGION>". An empty code yields "".
func FormatCode(code, region string) string {
	sub := Subtag(code)
	if sub == "" {
		return ""
	}
	parts := strings.FieldsFunc(strings.TrimSpace(code), func(r rune) bool { return r == '-' || r == '_' })
	if len(parts) > 1 {
		return sub + "-" + strings.ToUpper(parts[1])
	}
	if region == "" {
		return sub
	}
	return sub + "-" + strings.ToUpper(region)
}

// Subtag returns the lower-case primary language subtag of code.
func Subtag(code string) string {
	code = strings.TrimSpace(code)
	if i := strings.IndexAny(code, "-_"); i >= 0 {
		code = code[:i]
	}
	return strings.ToLower(code)
}

func errString(err error) string {
	if err == nil {
		return "empty result"
	}
	return err.Error()
}
