package tool

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"
)

// Intent is the user need a tool serves.
type Intent string

// Intents known to the capability palette.
const (
	IntentWeather     Intent = "weather"
	IntentPrices      Intent = "prices"
	IntentDiseases    Intent = "diseases"
	IntentCrops       Intent = "crops"
	IntentLocation    Intent = "location"
	IntentTranslation Intent = "translation"
)

// Entry is a registered tool plus the metadata planners use to select it.
type Entry struct {
	Tool Tool
	// Intent is the need the tool answers.
	Intent Intent
	// Triggers are lower-case keywords or phrases that select the tool for an
	// utterance. Single words match as word prefixes ("price" matches "prices").
	Triggers []string
	// NeedsLocation marks tools whose primary argument is a place.
	NeedsLocation bool
	// Internal tools are callable by code but never offered to planners.
	Internal bool
	// Priority breaks trigger ties; lower wins.
	Priority int

	order int
}

// Name returns the tool name.
func (e Entry) Name() string { return e.Tool.Name() }

// Registry holds the fixed capability palette. It is populated at start-up
// and read concurrently afterwards.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	next    int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: map[string]*Entry{}}
}

// Register adds a tool. Names must be unique.
func (r *Registry) Register(t Tool, optFns ...func(e *Entry)) error {
	e := &Entry{Tool: t}
	for _, fn := range optFns {
		fn(e)
	}
	for i, trig := range e.Triggers {
		e.Triggers[i] = strings.ToLower(strings.TrimSpace(trig))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[t.Name()]; exists {
		return fmt.Errorf("tool %q already registered", t.Name())
	}
	e.order = r.next
	r.next++
	r.entries[t.Name()] = e
	return nil
}

// MustRegister is Register that panics on duplicates; for start-up wiring.
func (r *Registry) MustRegister(t Tool, optFns ...func(e *Entry)) {
	if err := r.Register(t, optFns...); err != nil {
		panic(err)
	}
}

// Lookup returns the entry for name.
func (r *Registry) Lookup(name string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// ByIntent returns the first exposed entry serving intent.
func (r *Registry) ByIntent(intent Intent) (Entry, bool) {
	for _, e := range r.Exposed() {
		if e.Intent == intent {
			return e, true
		}
	}
	return Entry{}, false
}

// Exposed returns the entries offered to planners in registration order.
func (r *Registry) Exposed() []Entry {
	all := r.All()
	out := all[:0]
	for _, e := range all {
		if !e.Internal {
			out = append(out, e)
		}
	}
	return out
}

// All returns every entry in registration order.
func (r *Registry) All() []Entry {
	r.mu.RLock()
	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, *e)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].order < out[j].order })
	return out
}

// Match selects the exposed entry whose triggers best match the utterance.
// The entry with the most trigger hits wins; ties go to the lower Priority,
// then to registration order.
func (r *Registry) Match(utterance string) (Entry, bool) {
	text := strings.ToLower(utterance)
	words := strings.FieldsFunc(text, func(c rune) bool {
		return !unicode.IsLetter(c) && !unicode.IsDigit(c) && !unicode.IsMark(c)
	})

	var (
		best      Entry
		bestScore int
	)
	for _, e := range r.Exposed() {
		score := 0
		for _, trig := range e.Triggers {
			if triggerHits(trig, text, words) {
				score++
			}
		}
		if score == 0 {
			continue
		}
		if score > bestScore || (score == bestScore && e.Priority < best.Priority) {
			best, bestScore = e, score
		}
	}
	return best, bestScore > 0
}

func triggerHits(trig, text string, words []string) bool {
	if trig == "" {
		return false
	}
	if strings.ContainsAny(trig, " -") {
		return strings.Contains(text, trig)
	}
	for _, w := range words {
		if strings.HasPrefix(w, trig) {
			return true
		}
	}
	return false
}
