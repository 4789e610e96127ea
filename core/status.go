package core

// Status is the lifecycle state of a swarm session. Transitions are
// monotonic: once a terminal state is reached the session is sealed and
// never reverts.
type Status int

const (
	// StatusInit is the pre-start state before the first specialist turn.
	StatusInit Status = iota
	// StatusActive means a specialist currently owns the turn.
	StatusActive
	// StatusCompleted means a final answer was produced.
	StatusCompleted
	// StatusFailed means a bound was exceeded or a turn failed terminally.
	StatusFailed
	// StatusTimeout means the whole-execution timer expired.
	StatusTimeout
)

// String returns the wire representation used in responses and telemetry.
func (s Status) String() string {
	switch s {
	case StatusInit:
		return "INIT"
	case StatusActive:
		return "ACTIVE"
	case StatusCompleted:
		return "COMPLETED"
	case StatusFailed:
		return "FAILED"
	case StatusTimeout:
		return "TIMEOUT"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether the status is one of the sealed end states.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusTimeout
}

// Reason categorizes why a session ended in FAILED or TIMEOUT.
type Reason string

const (
	// ReasonHandoffLimitExceeded: a handoff was requested beyond max_handoffs.
	ReasonHandoffLimitExceeded Reason = "HandoffLimitExceeded"
	// ReasonIterationLimitExceeded: max_iterations turns elapsed without an answer.
	ReasonIterationLimitExceeded Reason = "IterationLimitExceeded"
	// ReasonNodeTimeout: a single specialist turn exceeded the per-node timer.
	ReasonNodeTimeout Reason = "NodeTimeout"
	// ReasonExecutionTimeout: the whole-session timer expired.
	ReasonExecutionTimeout Reason = "ExecutionTimeout"
	// ReasonTurnError: a specialist turn returned a non-timeout error.
	ReasonTurnError Reason = "TurnError"
)
