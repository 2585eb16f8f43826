package core

import (
	"context"
	"sync"
	"time"
)

// Session is a conversational container holding an ordered message history.
// It is safe for concurrent access.
//
// Contract:
//   - Messages are kept in strict insertion order and never reordered or truncated
//   - Messages returns a copy
//   - The mutex only guards single reads/appends; whole turns are serialized by SessionStore.Lock
type Session struct {
	ID      string    `json:"id"`
	Created time.Time `json:"created"`

	mu       sync.RWMutex
	messages []Message
	updated  time.Time
}

// NewSession creates a new empty session with the given ID.
func NewSession(id string) *Session {
	now := time.Now()
	return &Session{ID: id, Created: now, updated: now, messages: []Message{}}
}

// Append adds a message at the end of the history and returns it.
func (s *Session) Append(role Role, content string) Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	msg := Message{
		ID:      NewID(),
		Role:    role,
		Content: content,
		Ordinal: len(s.messages),
		Created: now,
	}
	s.messages = append(s.messages, msg)
	s.updated = now
	return msg
}

// Messages returns a copy of the full history.
func (s *Session) Messages() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Updated returns the time of the last append.
func (s *Session) Updated() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updated
}

// SessionStore holds sessions keyed by an opaque string. Unknown keys never
// fail: every operation lazily creates the session it references.
type SessionStore interface {
	// GetOrCreate returns the session for id, creating it on first reference.
	// Repeated calls with the same id return the same session.
	GetOrCreate(id string) *Session
	// Append records a message at the end of the session history.
	Append(id string, role Role, content string) Message
	// History returns a copy of the session messages in insertion order.
	History(id string) []Message
	// Clear discards the session and its history. A turn in progress keeps
	// its detached session; its messages do not reach the new history.
	Clear(id string)
	// Lock enters the per-session turn region and returns its release func.
	// Waiting is abandoned with ctx.Err() when ctx ends first. The lock
	// survives Clear, so turns on a key stay serialized across a reset.
	Lock(ctx context.Context, id string) (unlock func(), err error)
}
