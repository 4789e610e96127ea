// Package coordinator is the top-level orchestrator: it receives a user
// query, recalls prior context, decides whether the expert swarm is needed,
// seats the experts, runs the engine and returns a structured response. The
// caller always gets a response with a status field; selection failures and
// engine failures degrade to FAILED with an explanatory answer instead of an
// error bubbling out.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/expertswarm/bridge"
	"github.com/hupe1980/expertswarm/core"
	"github.com/hupe1980/expertswarm/logging"
	"github.com/hupe1980/expertswarm/memory"
	"github.com/hupe1980/expertswarm/model"
	"github.com/hupe1980/expertswarm/retrieval"
	"github.com/hupe1980/expertswarm/selector"
	"github.com/hupe1980/expertswarm/swarm"
	"github.com/hupe1980/expertswarm/telemetry"
	"github.com/hupe1980/expertswarm/token"
)

// Request is one user query. Empty ActorID and SessionID get defaults so a
// bare prompt is a valid request.
type Request struct {
	Prompt    string `json:"prompt"`
	ActorID   string `json:"actor_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

// Response is the structured outcome returned to the caller.
type Response struct {
	Answer           string                `json:"answer"`
	Status           string                `json:"status"`
	Reason           string                `json:"reason,omitempty"`
	SessionID        string                `json:"session_id"`
	ParticipantsUsed []string              `json:"participants_used"`
	ToolCalls        []core.ToolCall       `json:"tool_calls"`
	Handoffs         []core.HandoffEvent   `json:"handoffs"`
	Telemetry        []core.TelemetryEvent `json:"telemetry"`
	ElapsedMS        int64                 `json:"elapsed_ms"`
}

// Options configures the coordinator.
type Options struct {
	// Memory recalls and persists conversation context. Nil disables memory.
	Memory *memory.Adapter

	// Tokens is the shared credential cache handed to the per-query bridge.
	Tokens *token.Cache

	// ToolTimeout bounds each retrieval call made on behalf of experts.
	ToolTimeout time.Duration

	// NeedsExperts decides whether the swarm runs for a prompt. Defaults to
	// a rule matching AWS/Amazon service mentions plus the roster's domain
	// tags; prompts that do not match are answered directly when a Direct
	// model is configured.
	NeedsExperts func(prompt string) bool

	// Direct answers prompts that do not need the swarm. Nil routes every
	// prompt through the swarm.
	Direct model.Model

	// Logger receives coordinator logs.
	Logger logging.Logger
}

// Coordinator wires selection, the engine, retrieval and memory into one
// query pipeline. Safe for concurrent Handle calls; concurrent queries share
// only the token cache.
type Coordinator struct {
	engine    *swarm.Engine
	selector  *selector.Selector
	roster    core.Roster
	retriever retrieval.Retriever
	opts      Options
}

// New creates a coordinator.
func New(engine *swarm.Engine, sel *selector.Selector, roster core.Roster, retriever retrieval.Retriever, optFns ...func(o *Options)) *Coordinator {
	opts := Options{
		ToolTimeout: bridge.DefaultCallTimeout,
		Logger:      logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.NeedsExperts == nil {
		opts.NeedsExperts = DefaultNeedsExperts(roster)
	}

	return &Coordinator{
		engine:    engine,
		selector:  sel,
		roster:    roster,
		retriever: retriever,
		opts:      opts,
	}
}

// DefaultNeedsExperts returns the routing rule from the production
// deployment: any mention of AWS or Amazon services goes to the experts, as
// does any hit on a roster domain tag.
func DefaultNeedsExperts(roster core.Roster) func(prompt string) bool {
	return func(prompt string) bool {
		lower := strings.ToLower(prompt)
		if strings.Contains(lower, "aws") || strings.Contains(lower, "amazon") {
			return true
		}
		for _, expert := range roster {
			for _, tag := range expert.DomainTags {
				if tag != "" && strings.Contains(lower, strings.ToLower(tag)) {
					return true
				}
			}
		}
		return false
	}
}

// Handle runs one query end to end. The error return is reserved for invalid
// requests; every pipeline failure degrades into the Response status.
func (c *Coordinator) Handle(ctx context.Context, req Request) (*Response, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, errors.New("coordinator: empty prompt")
	}

	query := core.Query{
		Text:      req.Prompt,
		ActorID:   req.ActorID,
		SessionID: req.SessionID,
	}
	if query.ActorID == "" {
		query.ActorID = "user"
	}
	if query.SessionID == "" {
		query.SessionID = core.NewID()
	}

	start := time.Now()
	col := telemetry.NewCollector()
	col.Record(core.EventQueryReceived, "", query.Text)

	logger := c.opts.Logger
	logger.Info("query received actor=%s session=%s", query.ActorID, query.SessionID)

	history := c.opts.Memory.Recall(ctx, query)
	if history == "" {
		col.Record(core.EventMemoryLoaded, "", "no prior context")
	} else {
		col.Record(core.EventMemoryLoaded, "", fmt.Sprintf("%d chars of prior context", len(history)))
	}

	if !c.opts.NeedsExperts(query.Text) && c.opts.Direct != nil {
		return c.answerDirect(ctx, query, history, col, start)
	}

	selected, err := c.selector.Select(ctx, query, c.roster)
	if err != nil {
		var selErr *core.SelectionError
		if errors.As(err, &selErr) {
			logger.Warn("expert selection failed: %s", selErr.Detail)
			return c.degraded(ctx, query, col, start,
				"No suitable experts could be selected for this query. Please rephrase or broaden the question.")
		}
		return nil, err
	}
	col.Record(core.EventExpertsSelected, "", strings.Join(selected.IDs(), ","))

	sess := swarm.NewSession(query, selected)

	invoker := bridge.NewInvoker(c.retriever, func(o *bridge.Options) {
		o.CallTimeout = c.opts.ToolTimeout
		o.Tokens = c.opts.Tokens
		o.Telemetry = col
		o.Recorder = sess
	})

	result, err := c.engine.Run(ctx, sess, swarm.RunInput{
		History:   history,
		Tools:     invoker.Runner,
		Telemetry: col,
	})
	if err != nil {
		return nil, err
	}

	answer := result.Answer
	if answer == "" && result.Status != core.StatusCompleted {
		answer = fmt.Sprintf("The expert team could not complete this query (%s).", result.Reason)
	}

	c.persist(ctx, query, answer, result.Status, result.ParticipantsUsed)

	return &Response{
		Answer:           answer,
		Status:           result.Status.String(),
		Reason:           string(result.Reason),
		SessionID:        query.SessionID,
		ParticipantsUsed: result.ParticipantsUsed,
		ToolCalls:        result.ToolCalls,
		Handoffs:         result.Handoffs,
		Telemetry:        col.Drain(),
		ElapsedMS:        time.Since(start).Milliseconds(),
	}, nil
}

// answerDirect handles prompts outside the expert domains with the direct
// model, skipping selection and the swarm entirely.
func (c *Coordinator) answerDirect(ctx context.Context, query core.Query, history string, col *telemetry.Collector, start time.Time) (*Response, error) {
	var sb strings.Builder
	if history != "" {
		sb.WriteString("Previous conversation:\n")
		sb.WriteString(history)
		sb.WriteString("\n\n")
	}
	sb.WriteString(query.Text)

	resp, err := c.opts.Direct.Generate(ctx, model.Request{
		Instructions: "You are a helpful assistant. Answer concisely.",
		Contents:     []core.Content{core.NewTextContent("user", sb.String())},
	})
	if err != nil {
		c.opts.Logger.Warn("direct answer failed: %v", err)
		return c.degraded(ctx, query, col, start, "The assistant could not answer this query right now.")
	}

	answer := resp.Content.Text()
	col.Record(core.EventAgentResponse, "coordinator", answer)
	c.persist(ctx, query, answer, core.StatusCompleted, nil)

	return &Response{
		Answer:           answer,
		Status:           core.StatusCompleted.String(),
		SessionID:        query.SessionID,
		ParticipantsUsed: []string{},
		ToolCalls:        []core.ToolCall{},
		Handoffs:         []core.HandoffEvent{},
		Telemetry:        col.Drain(),
		ElapsedMS:        time.Since(start).Milliseconds(),
	}, nil
}

// degraded seals a query that never reached the engine.
func (c *Coordinator) degraded(ctx context.Context, query core.Query, col *telemetry.Collector, start time.Time, answer string) (*Response, error) {
	col.Record(core.EventSessionEnd, "", core.StatusFailed.String())
	c.persist(ctx, query, answer, core.StatusFailed, nil)

	return &Response{
		Answer:           answer,
		Status:           core.StatusFailed.String(),
		SessionID:        query.SessionID,
		ParticipantsUsed: []string{},
		ToolCalls:        []core.ToolCall{},
		Handoffs:         []core.HandoffEvent{},
		Telemetry:        col.Drain(),
		ElapsedMS:        time.Since(start).Milliseconds(),
	}, nil
}

// persist appends the query outcome to memory exactly once, best-effort.
func (c *Coordinator) persist(ctx context.Context, query core.Query, answer string, status core.Status, participants []string) {
	summary := answer
	if status != core.StatusCompleted {
		summary = fmt.Sprintf("[%s] %s", status, answer)
	}
	if len(participants) > 0 {
		summary = fmt.Sprintf("%s (experts consulted: %s)", summary, strings.Join(participants, ", "))
	}

	if err := c.opts.Memory.Persist(ctx, query, summary); err != nil {
		var persistErr *core.MemoryPersistError
		if errors.As(err, &persistErr) {
			c.opts.Logger.Warn("memory persist failed namespace=%s: %v", persistErr.Namespace, persistErr.Err)
		} else {
			c.opts.Logger.Warn("memory persist failed: %v", err)
		}
	}
}
