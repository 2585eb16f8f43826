// Package session houses concrete implementations of core.SessionStore.
// The interface itself (and the Session struct) live in the core package so
// the agent never depends on concrete storage.
//
// InMemoryStore is the only backend: conversation history is process-local
// and does not survive restarts. Idle sessions can optionally be evicted
// after a TTL.
package session
