package swarm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/expertswarm/core"
	"github.com/hupe1980/expertswarm/telemetry"
)

// behaviorFunc adapts a function to core.SpecialistBehavior for scripting
// engine scenarios.
type behaviorFunc func(ctx context.Context, in core.TurnInput) (*core.TurnOutput, error)

func (f behaviorFunc) Turn(ctx context.Context, in core.TurnInput) (*core.TurnOutput, error) {
	return f(ctx, in)
}

func answerWith(text string) behaviorFunc {
	return func(context.Context, core.TurnInput) (*core.TurnOutput, error) {
		return &core.TurnOutput{Answer: text}, nil
	}
}

func handoffTo(target, rationale string) behaviorFunc {
	return func(context.Context, core.TurnInput) (*core.TurnOutput, error) {
		return &core.TurnOutput{Handoff: &core.HandoffRequest{TargetID: target, Rationale: rationale}}, nil
	}
}

func roster(ids ...string) core.Roster {
	r := make(core.Roster, len(ids))
	for i, id := range ids {
		r[i] = core.ExpertProfile{ID: id, Capability: id + " expertise"}
	}
	return r
}

func testConfig() Config {
	return Config{
		MaxHandoffs:      20,
		MaxIterations:    20,
		NodeTimeout:      time.Second,
		ExecutionTimeout: 5 * time.Second,
	}
}

func newEngine(cfg Config) *Engine {
	return New(func(o *Options) {
		o.Config = cfg
	})
}

func TestRunHandoffThenAnswer(t *testing.T) {
	engine := newEngine(testConfig())
	engine.Register("a", handoffTo("b", "needs domain B"))
	engine.Register("b", answerWith("X"))

	sess := NewSession(core.Query{Text: "q"}, roster("a", "b"))

	result, err := engine.Run(context.Background(), sess, RunInput{})
	require.NoError(t, err)

	assert.Equal(t, core.StatusCompleted, result.Status)
	assert.Equal(t, "X", result.Answer)
	assert.Equal(t, []string{"a", "b"}, result.ParticipantsUsed)
	require.Len(t, result.Handoffs, 1)
	assert.Equal(t, "a", result.Handoffs[0].FromID)
	assert.Equal(t, "b", result.Handoffs[0].ToID)
	assert.Equal(t, "needs domain B", result.Handoffs[0].Rationale)
}

func TestRunHandoffLimitExceeded(t *testing.T) {
	cfg := testConfig()
	cfg.MaxHandoffs = 1

	engine := newEngine(cfg)
	engine.Register("a", handoffTo("b", "to b"))
	engine.Register("b", handoffTo("c", "to c"))
	engine.Register("c", answerWith("never reached"))

	sess := NewSession(core.Query{Text: "q"}, roster("a", "b", "c"))

	result, err := engine.Run(context.Background(), sess, RunInput{})
	require.NoError(t, err)

	assert.Equal(t, core.StatusFailed, result.Status)
	assert.Equal(t, core.ReasonHandoffLimitExceeded, result.Reason)
	assert.Len(t, result.Handoffs, 1)
}

func TestRunIterationLimitExceeded(t *testing.T) {
	cfg := testConfig()
	cfg.MaxIterations = 3

	engine := newEngine(cfg)
	// Neither answers nor hands off; the budget must stop the loop.
	engine.Register("a", behaviorFunc(func(context.Context, core.TurnInput) (*core.TurnOutput, error) {
		return &core.TurnOutput{}, nil
	}))

	sess := NewSession(core.Query{Text: "q"}, roster("a"))

	result, err := engine.Run(context.Background(), sess, RunInput{})
	require.NoError(t, err)

	assert.Equal(t, core.StatusFailed, result.Status)
	assert.Equal(t, core.ReasonIterationLimitExceeded, result.Reason)
	assert.Equal(t, 3, result.Iterations)
}

func TestRunNodeTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.NodeTimeout = 20 * time.Millisecond

	engine := newEngine(cfg)
	engine.Register("a", behaviorFunc(func(ctx context.Context, _ core.TurnInput) (*core.TurnOutput, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}))

	sess := NewSession(core.Query{Text: "q"}, roster("a"))

	result, err := engine.Run(context.Background(), sess, RunInput{})
	require.NoError(t, err)

	assert.Equal(t, core.StatusFailed, result.Status)
	assert.Equal(t, core.ReasonNodeTimeout, result.Reason)
}

func TestRunNodeTimeoutHonorsInFlightHandoff(t *testing.T) {
	cfg := testConfig()
	cfg.NodeTimeout = 20 * time.Millisecond

	engine := newEngine(cfg)
	engine.Register("a", behaviorFunc(func(ctx context.Context, _ core.TurnInput) (*core.TurnOutput, error) {
		<-ctx.Done()
		// The handoff was already committed when the timer fired.
		return &core.TurnOutput{Handoff: &core.HandoffRequest{TargetID: "b", Rationale: "committed"}}, ctx.Err()
	}))
	engine.Register("b", answerWith("late but here"))

	sess := NewSession(core.Query{Text: "q"}, roster("a", "b"))

	result, err := engine.Run(context.Background(), sess, RunInput{})
	require.NoError(t, err)

	assert.Equal(t, core.StatusCompleted, result.Status)
	assert.Equal(t, "late but here", result.Answer)
	require.Len(t, result.Handoffs, 1)
	assert.Equal(t, "b", result.Handoffs[0].ToID)
}

func TestRunExecutionTimeoutReturnsPartialAnswer(t *testing.T) {
	cfg := testConfig()
	cfg.ExecutionTimeout = 60 * time.Millisecond
	cfg.NodeTimeout = time.Second

	engine := newEngine(cfg)
	engine.Register("a", behaviorFunc(func(context.Context, core.TurnInput) (*core.TurnOutput, error) {
		return &core.TurnOutput{
			Answer:  "partial insight from a",
			Handoff: &core.HandoffRequest{TargetID: "b", Rationale: "continue"},
		}, nil
	}))
	engine.Register("b", behaviorFunc(func(ctx context.Context, _ core.TurnInput) (*core.TurnOutput, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}))

	sess := NewSession(core.Query{Text: "q"}, roster("a", "b"))

	result, err := engine.Run(context.Background(), sess, RunInput{})
	require.NoError(t, err)

	assert.Equal(t, core.StatusTimeout, result.Status)
	assert.Equal(t, core.ReasonExecutionTimeout, result.Reason)
	assert.Equal(t, "partial insight from a", result.Answer)
}

func TestRunHandoffPrecedenceOverAnswer(t *testing.T) {
	engine := newEngine(testConfig())
	engine.Register("a", behaviorFunc(func(context.Context, core.TurnInput) (*core.TurnOutput, error) {
		return &core.TurnOutput{
			Answer:  "ambiguous partial",
			Handoff: &core.HandoffRequest{TargetID: "b", Rationale: "collaboration incomplete"},
		}, nil
	}))
	engine.Register("b", answerWith("final"))

	sess := NewSession(core.Query{Text: "q"}, roster("a", "b"))

	result, err := engine.Run(context.Background(), sess, RunInput{})
	require.NoError(t, err)

	assert.Equal(t, core.StatusCompleted, result.Status)
	assert.Equal(t, "final", result.Answer)
	assert.Len(t, result.Handoffs, 1)
}

func TestRunInvalidHandoffTargetFallsBackToAnswer(t *testing.T) {
	engine := newEngine(testConfig())
	engine.Register("a", behaviorFunc(func(context.Context, core.TurnInput) (*core.TurnOutput, error) {
		return &core.TurnOutput{
			Answer:  "best effort",
			Handoff: &core.HandoffRequest{TargetID: "ghost", Rationale: "nope"},
		}, nil
	}))

	sess := NewSession(core.Query{Text: "q"}, roster("a"))

	result, err := engine.Run(context.Background(), sess, RunInput{})
	require.NoError(t, err)

	assert.Equal(t, core.StatusCompleted, result.Status)
	assert.Equal(t, "best effort", result.Answer)
	assert.Empty(t, result.Handoffs)
}

func TestRunInvalidHandoffTargetWithoutAnswerFails(t *testing.T) {
	engine := newEngine(testConfig())
	engine.Register("a", handoffTo("ghost", "nope"))

	sess := NewSession(core.Query{Text: "q"}, roster("a"))

	result, err := engine.Run(context.Background(), sess, RunInput{})
	require.NoError(t, err)

	assert.Equal(t, core.StatusFailed, result.Status)
	assert.Equal(t, core.ReasonTurnError, result.Reason)
}

func TestRunSelfHandoffRejected(t *testing.T) {
	engine := newEngine(testConfig())
	engine.Register("a", handoffTo("a", "loop"))

	sess := NewSession(core.Query{Text: "q"}, roster("a"))

	result, err := engine.Run(context.Background(), sess, RunInput{})
	require.NoError(t, err)

	assert.Equal(t, core.StatusFailed, result.Status)
	assert.Equal(t, core.ReasonTurnError, result.Reason)
}

func TestRunToolErrorDoesNotCrash(t *testing.T) {
	engine := newEngine(testConfig())
	engine.Register("a", behaviorFunc(func(ctx context.Context, in core.TurnInput) (*core.TurnOutput, error) {
		_, toolErr := in.Tools(ctx, "a", "anything")
		require.Error(t, toolErr)
		return &core.TurnOutput{Answer: "answered despite tool failure"}, nil
	}))

	sess := NewSession(core.Query{Text: "q"}, roster("a"))

	in := RunInput{
		Tools: func(string) core.ToolRunner {
			return func(context.Context, string, string) (string, error) {
				return "", errors.New("knowledge base down")
			}
		},
	}

	result, err := engine.Run(context.Background(), sess, in)
	require.NoError(t, err)

	assert.Equal(t, core.StatusCompleted, result.Status)
	assert.Equal(t, "answered despite tool failure", result.Answer)
}

func TestRunTurnError(t *testing.T) {
	engine := newEngine(testConfig())
	engine.Register("a", behaviorFunc(func(context.Context, core.TurnInput) (*core.TurnOutput, error) {
		return nil, errors.New("model exploded")
	}))

	sess := NewSession(core.Query{Text: "q"}, roster("a"))

	result, err := engine.Run(context.Background(), sess, RunInput{})
	require.NoError(t, err)

	assert.Equal(t, core.StatusFailed, result.Status)
	assert.Equal(t, core.ReasonTurnError, result.Reason)
}

func TestRunMissingBehaviorFails(t *testing.T) {
	engine := newEngine(testConfig())

	sess := NewSession(core.Query{Text: "q"}, roster("a"))

	result, err := engine.Run(context.Background(), sess, RunInput{})
	require.NoError(t, err)

	assert.Equal(t, core.StatusFailed, result.Status)
	assert.Equal(t, core.ReasonTurnError, result.Reason)
}

func TestRunRejectsReusedSession(t *testing.T) {
	engine := newEngine(testConfig())
	engine.Register("a", answerWith("done"))

	sess := NewSession(core.Query{Text: "q"}, roster("a"))

	_, err := engine.Run(context.Background(), sess, RunInput{})
	require.NoError(t, err)

	_, err = engine.Run(context.Background(), sess, RunInput{})
	require.Error(t, err)
}

func TestRunRejectsEmptyParticipants(t *testing.T) {
	engine := newEngine(testConfig())

	_, err := engine.Run(context.Background(), NewSession(core.Query{Text: "q"}, nil), RunInput{})
	require.Error(t, err)

	_, err = engine.Run(context.Background(), nil, RunInput{})
	require.Error(t, err)
}

func TestRunEmitsTelemetryInOrder(t *testing.T) {
	collector := telemetry.NewCollector()
	engine := New(func(o *Options) {
		o.Config = testConfig()
		o.Telemetry = collector
	})
	engine.Register("a", handoffTo("b", "pass it on"))
	engine.Register("b", answerWith("X"))

	sess := NewSession(core.Query{Text: "q"}, roster("a", "b"))

	_, err := engine.Run(context.Background(), sess, RunInput{})
	require.NoError(t, err)

	events := collector.Drain()
	var types []string
	for _, ev := range events {
		types = append(types, ev.Type)
	}
	assert.Equal(t, []string{
		core.EventAgentThinking,
		core.EventHandoff,
		core.EventAgentThinking,
		core.EventAgentResponse,
		core.EventSessionEnd,
	}, types)
}

func TestSessionRecordsToolCalls(t *testing.T) {
	sess := NewSession(core.Query{Text: "q"}, roster("a"))

	sess.RecordToolCall(core.ToolCall{AgentID: "a", Domain: "a", Query: "x"})
	sess.RecordToolCall(core.ToolCall{AgentID: "a", Domain: "a", Query: "y"})

	calls := sess.ToolCalls()
	require.Len(t, calls, 2)
	assert.Equal(t, "x", calls[0].Query)
	assert.Equal(t, "y", calls[1].Query)
}
