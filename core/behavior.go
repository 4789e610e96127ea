package core

import "context"

// SelectionOracle is the opaque decision capability that proposes which
// experts should handle a query. Implementations may be rule engines or
// model calls; the selector validates and clamps whatever they return.
type SelectionOracle interface {
	// Propose returns candidate expert ids for the query. Output may contain
	// duplicates or unknown ids; validation happens in the selector.
	Propose(ctx context.Context, queryText string, roster Roster) ([]string, error)
}

// ToolRunner executes one retrieval call on behalf of the active specialist.
// Failures are returned as errors the specialist may choose to ignore; they
// never abort the turn on their own.
type ToolRunner func(ctx context.Context, domain, query string) (string, error)

// TurnInput is everything the active specialist receives for one turn.
type TurnInput struct {
	Query        Query
	Expert       ExpertProfile
	Participants Roster
	// Rationale carries the handoff rationale when control was transferred
	// to this specialist; empty on the first turn.
	Rationale string
	// History carries recalled conversation context formatted by the memory
	// adapter; empty when the scope has no history.
	History string
	// ToolCalls are the retrieval results accumulated so far in the session.
	ToolCalls []ToolCall
	// Tools routes retrieval requests through the invocation bridge,
	// synchronously within the turn.
	Tools ToolRunner
}

// HandoffRequest asks the engine to transfer turn control.
type HandoffRequest struct {
	TargetID  string
	Rationale string
}

// TurnOutput is the outcome of one specialist turn. Exactly one of Answer or
// Handoff is expected; when both are present the handoff takes precedence
// and the answer is retained as partial.
type TurnOutput struct {
	Answer  string
	Handoff *HandoffRequest
}

// SpecialistBehavior is the opaque per-turn decision capability bound to one
// expert. The engine is agnostic to whether the implementation is scripted
// or model-backed; all non-determinism stays behind this interface.
type SpecialistBehavior interface {
	// Turn runs one bounded specialist turn. Implementations must respect
	// ctx cancellation; on cancellation they should return whatever partial
	// output they have alongside the context error so an in-flight handoff
	// can still be honored.
	Turn(ctx context.Context, in TurnInput) (*TurnOutput, error)
}
