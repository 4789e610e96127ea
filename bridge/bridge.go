// Package bridge mediates between swarm agents and the knowledge retrieval
// capability. It applies a per-call timeout, retries exactly once on any
// failure (forcing a credential refresh first when the backend reported an
// authorization failure), and records every invocation in the session trace
// and telemetry so a failed tool call is observable without crashing the run.
package bridge

import (
	"context"
	"errors"
	"time"

	"github.com/hupe1980/expertswarm/core"
	"github.com/hupe1980/expertswarm/logging"
	"github.com/hupe1980/expertswarm/retrieval"
	"github.com/hupe1980/expertswarm/telemetry"
	"github.com/hupe1980/expertswarm/token"
)

// DefaultCallTimeout bounds a single retrieval attempt.
const DefaultCallTimeout = 30 * time.Second

// Recorder receives the tool calls an invoker performs. The swarm session
// implements it to build the per-run trace.
type Recorder interface {
	RecordToolCall(call core.ToolCall)
}

// Options configures the invoker.
type Options struct {
	// CallTimeout bounds each retrieval attempt. The retry after a token
	// refresh gets a fresh timeout of its own.
	CallTimeout time.Duration

	// Tokens enables the forced credential refresh before the retry of an
	// unauthorized attempt. Optional.
	Tokens *token.Cache

	// Telemetry receives a tool call event per invocation. Optional.
	Telemetry *telemetry.Collector

	// Recorder receives the trace entry per invocation. Optional.
	Recorder Recorder

	// Logger receives structured call logs. Optional.
	Logger *logging.SwarmLogger
}

// Invoker executes knowledge retrieval on behalf of swarm agents.
type Invoker struct {
	retriever retrieval.Retriever
	opts      Options
}

// NewInvoker creates an invoker around the given retriever.
func NewInvoker(retriever retrieval.Retriever, optFns ...func(o *Options)) *Invoker {
	opts := Options{
		CallTimeout: DefaultCallTimeout,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Invoker{
		retriever: retriever,
		opts:      opts,
	}
}

// Invoke retrieves knowledge for the given domain on behalf of agentID. Each
// attempt is bounded by the configured timeout; any failure gets exactly one
// retry, preceded by a credential refresh when the backend rejected the
// token. A failure after the retry is returned as a ToolInvocationError.
// Every invocation, successful or not, is recorded in the trace and
// telemetry.
func (i *Invoker) Invoke(ctx context.Context, agentID, domain, query string) (string, error) {
	start := time.Now()

	result, attempts, err := i.invoke(ctx, domain, query)
	latency := time.Since(start)

	call := core.ToolCall{
		AgentID:   agentID,
		Domain:    domain,
		Query:     query,
		Result:    result,
		Latency:   latency,
		Timestamp: start,
	}
	if err != nil {
		call.Error = err.Error()
	}

	if i.opts.Recorder != nil {
		i.opts.Recorder.RecordToolCall(call)
	}
	i.opts.Telemetry.Record(core.EventToolCall, agentID, describe(domain, result, err))
	if i.opts.Logger != nil {
		i.opts.Logger.LogToolCall(agentID, domain, latency, err)
	}

	if err != nil {
		return "", &core.ToolInvocationError{
			Domain:   domain,
			Attempts: attempts,
			Detail:   err.Error(),
		}
	}

	return result, nil
}

// Runner binds an agent identity, yielding the plain function form the
// specialist behaviors consume.
func (i *Invoker) Runner(agentID string) core.ToolRunner {
	return func(ctx context.Context, domain, query string) (string, error) {
		return i.Invoke(ctx, agentID, domain, query)
	}
}

func (i *Invoker) invoke(ctx context.Context, domain, query string) (string, int, error) {
	result, err := i.attempt(ctx, domain, query)
	if err == nil {
		return result, 1, nil
	}
	if ctx.Err() != nil {
		// The caller itself is done; a second attempt cannot succeed.
		return "", 1, err
	}

	// Exactly one retry with a fresh call timeout. When the backend rejected
	// our credentials, first discard the rejected token so the retry runs
	// with a freshly minted one; the value check in Invalidate keeps a token
	// a concurrent query already renewed.
	var authErr *retrieval.UnauthorizedError
	if errors.As(err, &authErr) && i.opts.Tokens != nil {
		i.opts.Tokens.Invalidate(authErr.Token)
	}

	result, err = i.attempt(ctx, domain, query)
	if err != nil {
		return "", 2, err
	}

	return result, 2, nil
}

func (i *Invoker) attempt(ctx context.Context, domain, query string) (string, error) {
	callCtx := ctx
	if i.opts.CallTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, i.opts.CallTimeout)
		defer cancel()
	}

	return i.retriever.Retrieve(callCtx, domain, query)
}

func describe(domain, result string, err error) string {
	if err != nil {
		return domain + ": " + err.Error()
	}
	return domain + ": " + result
}
