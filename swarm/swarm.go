package swarm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/expertswarm/core"
	"github.com/hupe1980/expertswarm/logging"
	"github.com/hupe1980/expertswarm/telemetry"
)

// Config defines the collaboration budgets for one swarm run.
type Config struct {
	// MaxHandoffs caps how many times turn control may transfer. A handoff
	// requested beyond the cap fails the session.
	MaxHandoffs int

	// MaxIterations caps the total number of specialist turns.
	MaxIterations int

	// NodeTimeout bounds one specialist turn including its tool calls.
	NodeTimeout time.Duration

	// ExecutionTimeout bounds the whole session regardless of per-node timers.
	ExecutionTimeout time.Duration
}

// DefaultConfig carries the production budgets.
var DefaultConfig = Config{
	MaxHandoffs:      20,
	MaxIterations:    20,
	NodeTimeout:      10 * time.Minute,
	ExecutionTimeout: 30 * time.Minute,
}

// Options configures an Engine.
type Options struct {
	// Config holds the collaboration budgets. Defaults to DefaultConfig.
	Config Config

	// Telemetry receives engine events. Optional.
	Telemetry *telemetry.Collector

	// Logger receives structured engine logs. Defaults to NoOp.
	Logger logging.Logger
}

// RunInput carries the per-run collaborators the engine itself does not own.
type RunInput struct {
	// History is the recalled conversation context, already formatted by the
	// memory adapter. Empty when the scope has no history.
	History string

	// Tools yields the retrieval runner bound to an expert identity. Nil
	// disables retrieval for the run.
	Tools func(agentID string) core.ToolRunner

	// Telemetry overrides the engine-level collector for this run so
	// concurrent queries get isolated traces. Optional.
	Telemetry *telemetry.Collector
}

// Result is the sealed outcome of one swarm run.
type Result struct {
	SessionID        string
	Status           core.Status
	Reason           core.Reason
	Answer           string
	ParticipantsUsed []string
	Handoffs         []core.HandoffEvent
	ToolCalls        []core.ToolCall
	Iterations       int
	Elapsed          time.Duration
}

// Engine runs the turn-taking state machine. Behaviors are registered per
// expert ID; the engine is safe for concurrent Run calls on independent
// sessions.
type Engine struct {
	behaviors map[string]core.SpecialistBehavior
	mu        sync.RWMutex
	opts      Options
}

// New creates an engine.
func New(optFns ...func(o *Options)) *Engine {
	opts := Options{
		Config: DefaultConfig,
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Engine{
		behaviors: make(map[string]core.SpecialistBehavior),
		opts:      opts,
	}
}

// Register binds a behavior to an expert ID, replacing any previous binding.
func (e *Engine) Register(expertID string, b core.SpecialistBehavior) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.behaviors[expertID] = b
}

func (e *Engine) behavior(expertID string) (core.SpecialistBehavior, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	b, ok := e.behaviors[expertID]
	return b, ok
}

// stepKind enumerates the possible transitions out of one turn.
type stepKind int

const (
	stepAnswer stepKind = iota
	stepHandoff
	stepContinue
	stepFail
	stepTimeout
)

// step is the outcome of the explicit transition function for one turn.
type step struct {
	kind    stepKind
	answer  string
	handoff *core.HandoffRequest
	reason  core.Reason
	detail  string
}

// Run executes the session until a terminal state. The session must be fresh
// (INIT) and have at least one participant; both timers start at the first
// turn. The returned Result always carries the full trace, including on
// forced termination.
func (e *Engine) Run(ctx context.Context, sess *Session, in RunInput) (*Result, error) {
	if sess == nil {
		return nil, errors.New("swarm: nil session")
	}
	if len(sess.Participants) == 0 {
		return nil, errors.New("swarm: session has no participants")
	}
	if sess.Status() != core.StatusInit {
		return nil, fmt.Errorf("swarm: session %s already started", sess.ID)
	}

	cfg := e.opts.Config
	col := e.opts.Telemetry
	if in.Telemetry != nil {
		col = in.Telemetry
	}

	execCtx, cancel := context.WithTimeout(ctx, cfg.ExecutionTimeout)
	defer cancel()

	sess.begin()

	rationale := ""
	for {
		if execCtx.Err() != nil {
			sess.fail(core.StatusTimeout, core.ReasonExecutionTimeout)
			break
		}
		if sess.iterationCount() >= cfg.MaxIterations {
			sess.fail(core.StatusFailed, core.ReasonIterationLimitExceeded)
			break
		}

		st := e.runTurn(execCtx, col, sess, in, rationale)

		switch st.kind {
		case stepAnswer:
			sess.complete(st.answer)
			col.Record(core.EventAgentResponse, sess.ActiveID(), st.answer)

		case stepHandoff:
			from := sess.ActiveID()
			sess.recordHandoff(from, st.handoff.TargetID, st.handoff.Rationale)
			rationale = st.handoff.Rationale
			col.Record(core.EventHandoff, from, fmt.Sprintf("%s -> %s: %s", from, st.handoff.TargetID, st.handoff.Rationale))
			e.opts.Logger.Info("handoff from=%s to=%s rationale=%s", from, st.handoff.TargetID, st.handoff.Rationale)
			continue

		case stepContinue:
			continue

		case stepFail:
			e.opts.Logger.Warn("swarm run failed reason=%s detail=%s", st.reason, st.detail)
			sess.fail(core.StatusFailed, st.reason)

		case stepTimeout:
			sess.fail(core.StatusTimeout, core.ReasonExecutionTimeout)
		}

		break
	}

	result := sess.result()
	col.Record(core.EventSessionEnd, "", result.Status.String())
	e.opts.Logger.Info("swarm run ended session=%s status=%s iterations=%d handoffs=%d", sess.ID, result.Status, result.Iterations, len(result.Handoffs))

	return result, nil
}

// runTurn executes one specialist turn and maps its outcome to a transition.
func (e *Engine) runTurn(execCtx context.Context, col *telemetry.Collector, sess *Session, in RunInput, rationale string) step {
	activeID := sess.ActiveID()

	expert, ok := sess.Participants.Find(activeID)
	if !ok {
		return step{kind: stepFail, reason: core.ReasonTurnError, detail: fmt.Sprintf("active expert %s not in participants", activeID)}
	}

	b, ok := e.behavior(activeID)
	if !ok {
		return step{kind: stepFail, reason: core.ReasonTurnError, detail: fmt.Sprintf("no behavior registered for %s", activeID)}
	}

	sess.markTurn(activeID)
	col.Record(core.EventAgentThinking, activeID, sess.Query.Text)

	var tools core.ToolRunner
	if in.Tools != nil {
		tools = in.Tools(activeID)
	}

	nodeCtx, cancel := context.WithTimeout(execCtx, e.opts.Config.NodeTimeout)
	out, err := b.Turn(nodeCtx, core.TurnInput{
		Query:        sess.Query,
		Expert:       expert,
		Participants: sess.Participants,
		Rationale:    rationale,
		History:      in.History,
		ToolCalls:    sess.ToolCalls(),
		Tools:        tools,
	})
	cancel()

	if out != nil {
		sess.setPartial(out.Answer)
	}

	return e.transition(execCtx, sess, out, err)
}

// transition is the explicit state transition function. Given a turn's
// output and error it decides the next step, honoring the precedence rules:
// execution timeout beats everything, an in-flight handoff survives a node
// timeout, and a handoff beats an answer.
func (e *Engine) transition(execCtx context.Context, sess *Session, out *core.TurnOutput, err error) step {
	if err != nil {
		if execCtx.Err() != nil {
			return step{kind: stepTimeout}
		}
		if errors.Is(err, context.DeadlineExceeded) {
			// The per-node timer expired. A handoff already committed by the
			// specialist is honored; the timer resets for the new active
			// participant.
			if out != nil && out.Handoff != nil {
				return e.validateHandoff(sess, out)
			}
			return step{kind: stepFail, reason: core.ReasonNodeTimeout, detail: fmt.Sprintf("turn of %s exceeded node timeout", sess.ActiveID())}
		}
		return step{kind: stepFail, reason: core.ReasonTurnError, detail: err.Error()}
	}

	if out == nil {
		return step{kind: stepFail, reason: core.ReasonTurnError, detail: "specialist returned no output"}
	}

	if out.Handoff != nil {
		return e.validateHandoff(sess, out)
	}

	if out.Answer == "" {
		// Neither answer nor handoff; the turn is spent and the same
		// specialist goes again until a budget runs out.
		return step{kind: stepContinue}
	}

	return step{kind: stepAnswer, answer: out.Answer}
}

// validateHandoff enforces the handoff rules: the target must be a seated
// participant other than the current one, and the handoff budget must not be
// exhausted.
func (e *Engine) validateHandoff(sess *Session, out *core.TurnOutput) step {
	target := out.Handoff.TargetID
	activeID := sess.ActiveID()

	if _, ok := sess.Participants.Find(target); !ok || target == activeID {
		e.opts.Logger.Warn("invalid handoff target=%s from=%s", target, activeID)
		if out.Answer != "" {
			// The specialist also produced an answer; finish with it rather
			// than failing the whole run on a bad target.
			return step{kind: stepAnswer, answer: out.Answer}
		}
		return step{kind: stepFail, reason: core.ReasonTurnError, detail: fmt.Sprintf("handoff to invalid target %s", target)}
	}

	if sess.handoffsUsed() >= e.opts.Config.MaxHandoffs {
		return step{kind: stepFail, reason: core.ReasonHandoffLimitExceeded, detail: fmt.Sprintf("handoff budget %d exhausted", e.opts.Config.MaxHandoffs)}
	}

	return step{kind: stepHandoff, handoff: out.Handoff}
}
