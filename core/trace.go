package core

import "time"

// HandoffEvent records one transfer of turn control between specialists.
// Append-only within a swarm session.
type HandoffEvent struct {
	FromID    string    `json:"from_id"`
	ToID      string    `json:"to_id"`
	Rationale string    `json:"rationale"`
	Timestamp time.Time `json:"timestamp"`
}

// ToolCall records one invocation of the retrieval capability on behalf of a
// specialist, success or failure. Append-only.
type ToolCall struct {
	AgentID   string        `json:"agent_id"`
	Domain    string        `json:"domain"`
	Query     string        `json:"query"`
	Result    string        `json:"result,omitempty"`
	Error     string        `json:"error,omitempty"`
	Latency   time.Duration `json:"latency"`
	Timestamp time.Time     `json:"timestamp"`
}

// TelemetryEvent is one ordered, timestamped trace entry. The payload preview
// is truncated by the collector so traces stay bounded.
type TelemetryEvent struct {
	Type      string    `json:"type"`
	AgentID   string    `json:"agent_id,omitempty"`
	Payload   string    `json:"payload,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Telemetry event types emitted by the engine and its collaborators.
const (
	EventQueryReceived   = "query_received"
	EventMemoryLoaded    = "memory_loaded"
	EventExpertsSelected = "experts_selected"
	EventAgentThinking   = "agent_thinking"
	EventAgentResponse   = "agent_response"
	EventHandoff         = "handoff"
	EventToolCall        = "tool_call"
	EventSessionEnd      = "session_end"
)
