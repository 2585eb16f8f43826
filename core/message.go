package core

import (
	"fmt"
	"time"
)

// Role identifies the author of a session message.
type Role string

const (
	// RoleHuman marks an utterance from the end user.
	RoleHuman Role = "human"
	// RoleAgent marks an answer produced by the agent.
	RoleAgent Role = "agent"
)

// Message is one immutable entry of a session history. Ordinal is the
// zero-based insertion position within its session.
type Message struct {
	ID      string    `json:"id"`
	Role    Role      `json:"role"`
	Content string    `json:"content"`
	Ordinal int       `json:"ordinal"`
	Created time.Time `json:"created"`
}

// ModelRole maps the message role onto the model-facing conversation role.
func (m Message) ModelRole() string {
	if m.Role == RoleAgent {
		return RoleAssistant
	}
	return RoleUser
}

// Coordinates is an optional latitude/longitude hint attached to a request.
// It is never stored in a session.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether the coordinates are within WGS84 bounds.
func (c Coordinates) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

func (c Coordinates) String() string {
	return fmt.Sprintf("lat=%.4f, lon=%.4f", c.Lat, c.Lon)
}
