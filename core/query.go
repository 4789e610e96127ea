package core

import "github.com/google/uuid"

// Query is the immutable input to one swarm run. SessionID scopes a single
// conversation; ActorID scopes long-lived recall across sessions.
type Query struct {
	Text      string `json:"text"`
	ActorID   string `json:"actor_id"`
	SessionID string `json:"session_id"`
}

// NewID generates a unique identifier used for correlation of sessions,
// events and tool calls.
func NewID() string { return uuid.NewString() }
