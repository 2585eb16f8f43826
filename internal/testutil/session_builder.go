package testutil

import (
	"github.com/hupe1980/agrimesh/core"
)

// SessionBuilder helps construct sessions with fluent chaining for tests.
// Example:
//
//	sess := NewSessionBuilder("sess-1").Turn("weather in Surat?", "It is sunny.").Build()
type SessionBuilder struct {
	id       string
	messages []struct {
		role    core.Role
		content string
	}
}

// NewSessionBuilder creates a new builder for a session with the given id.
func NewSessionBuilder(id string) *SessionBuilder {
	return &SessionBuilder{id: id}
}

// Human appends a user utterance (chainable).
func (b *SessionBuilder) Human(content string) *SessionBuilder {
	return b.add(core.RoleHuman, content)
}

// Agent appends an agent answer (chainable).
func (b *SessionBuilder) Agent(content string) *SessionBuilder {
	return b.add(core.RoleAgent, content)
}

// Turn appends a completed human/agent exchange (chainable).
func (b *SessionBuilder) Turn(utterance, answer string) *SessionBuilder {
	return b.Human(utterance).Agent(answer)
}

func (b *SessionBuilder) add(role core.Role, content string) *SessionBuilder {
	b.messages = append(b.messages, struct {
		role    core.Role
		content string
	}{role, content})
	return b
}

// Build creates the session.
func (b *SessionBuilder) Build() *core.Session {
	sess := core.NewSession(b.id)
	for _, m := range b.messages {
		sess.Append(m.role, m.content)
	}
	return sess
}

// Into appends the built history to store under the builder's id.
func (b *SessionBuilder) Into(store core.SessionStore) {
	for _, m := range b.messages {
		store.Append(b.id, m.role, m.content)
	}
}

// Messages returns the built history.
func (b *SessionBuilder) Messages() []core.Message {
	return b.Build().Messages()
}
