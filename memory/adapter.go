package memory

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/hupe1980/expertswarm/core"
	"github.com/hupe1980/expertswarm/logging"
	"github.com/hupe1980/expertswarm/telemetry"
)

// DefaultRecallLimit is the number of recent records folded into the query
// context when no limit is configured.
const DefaultRecallLimit = 6

// AdapterOptions configures the adapter.
type AdapterOptions struct {
	// RecallLimit caps how many recent records Recall folds into the
	// conversational context.
	RecallLimit int

	// Telemetry receives memory events. Optional.
	Telemetry *telemetry.Collector

	// Logger receives degradation warnings. Optional.
	Logger logging.Logger
}

// Adapter wraps a Store with the degradation rules the orchestrator relies
// on: a failed load yields an empty history instead of an error, and a failed
// append is surfaced as a typed warning the caller may log and ignore.
type Adapter struct {
	store Store
	opts  AdapterOptions
}

// NewAdapter creates an adapter around the given store.
func NewAdapter(store Store, optFns ...func(o *AdapterOptions)) *Adapter {
	opts := AdapterOptions{
		RecallLimit: DefaultRecallLimit,
		Logger:      logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Adapter{
		store: store,
		opts:  opts,
	}
}

// Recall loads the scope's recent history and formats it as alternating
// "User:"/"Assistant:" lines for inclusion in a prompt. Any load failure
// degrades to an empty string.
func (a *Adapter) Recall(ctx context.Context, query core.Query) string {
	if a == nil || a.store == nil {
		return ""
	}

	records, err := a.store.LoadRecent(ctx, query.ActorID, query.SessionID, a.opts.RecallLimit)
	if err != nil {
		a.opts.Logger.Warn("memory load failed, continuing without history", "namespace", Namespace(query.ActorID, query.SessionID), "error", err)
		a.opts.Telemetry.Record(core.EventMemoryLoaded, "", "load failed: "+err.Error())
		return ""
	}

	a.opts.Telemetry.Record(core.EventMemoryLoaded, "", formatCount(len(records)))

	if len(records) == 0 {
		return ""
	}

	var sb strings.Builder
	for _, rec := range records {
		switch rec.Role {
		case RoleAssistant:
			sb.WriteString("Assistant: ")
		default:
			sb.WriteString("User: ")
		}
		sb.WriteString(rec.Text)
		sb.WriteString("\n")
	}

	return strings.TrimRight(sb.String(), "\n")
}

// Persist appends the query and its answer as one user/assistant pair. A
// failure is returned as a MemoryPersistError so the caller can log it, but
// persistence is best-effort and must not fail the query.
func (a *Adapter) Persist(ctx context.Context, query core.Query, answer string) error {
	if a == nil || a.store == nil {
		return nil
	}

	now := time.Now()
	err := a.store.Append(ctx, query.ActorID, query.SessionID,
		Record{Role: RoleUser, Text: query.Text, Timestamp: now},
		Record{Role: RoleAssistant, Text: answer, Timestamp: now},
	)
	if err != nil {
		a.opts.Logger.Warn("memory append failed", "namespace", Namespace(query.ActorID, query.SessionID), "error", err)
		return &core.MemoryPersistError{
			Namespace: Namespace(query.ActorID, query.SessionID),
			Err:       err,
		}
	}

	return nil
}

func formatCount(n int) string {
	if n == 1 {
		return "1 record"
	}
	return strconv.Itoa(n) + " records"
}
