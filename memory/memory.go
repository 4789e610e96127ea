package memory

import (
	"context"
	"fmt"
	"time"
)

// Roles recorded per conversation turn.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Record is one persisted conversation turn.
type Record struct {
	Role      string
	Text      string
	Timestamp time.Time
}

// Store persists and recalls conversation records. Records are scoped by
// actor and session; two queries share history only when both identifiers
// match.
type Store interface {
	// LoadRecent returns up to limit records for the scope, oldest first.
	// A scope with no history returns an empty slice, not an error.
	LoadRecent(ctx context.Context, actorID, sessionID string, limit int) ([]Record, error)

	// Append persists records at the end of the scope's history.
	Append(ctx context.Context, actorID, sessionID string, records ...Record) error
}

// Namespace returns the storage namespace for an actor/session scope.
func Namespace(actorID, sessionID string) string {
	return fmt.Sprintf("swarm/%s/%s", actorID, sessionID)
}
