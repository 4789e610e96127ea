// Package behavior implements the per-turn decision logic of swarm
// specialists. ModelBehavior drives a language model with function calling
// for knowledge retrieval and handoffs; the engine stays agnostic to what
// happens inside a turn.
package behavior

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hupe1980/expertswarm/core"
	"github.com/hupe1980/expertswarm/internal/util"
	"github.com/hupe1980/expertswarm/logging"
	"github.com/hupe1980/expertswarm/model"
)

// Function names exposed to the model.
const (
	fnQueryKnowledgeBase = "query_knowledge_base"
	fnHandoffToExpert    = "handoff_to_expert"
)

// DefaultMaxToolCalls bounds the retrieval loop inside one turn.
const DefaultMaxToolCalls = 5

// Options configures a ModelBehavior.
type Options struct {
	// MaxToolCalls bounds how many retrieval calls one turn may issue before
	// the model is forced to answer. 0 means unlimited.
	MaxToolCalls int

	// Logger receives turn diagnostics.
	Logger logging.Logger
}

// ModelBehavior runs specialist turns against a language model. Each turn is
// an inner loop: the model may issue retrieval calls, receives their results
// and eventually produces either an answer or a handoff request.
type ModelBehavior struct {
	model model.Model
	opts  Options
}

var _ core.SpecialistBehavior = (*ModelBehavior)(nil)

// NewModelBehavior creates a behavior backed by the given model.
func NewModelBehavior(m model.Model, optFns ...func(o *Options)) *ModelBehavior {
	opts := Options{
		MaxToolCalls: DefaultMaxToolCalls,
		Logger:       logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &ModelBehavior{
		model: m,
		opts:  opts,
	}
}

// Turn implements core.SpecialistBehavior.
func (b *ModelBehavior) Turn(ctx context.Context, in core.TurnInput) (*core.TurnOutput, error) {
	contents := b.buildContents(in)
	tools := b.buildTools(in)

	limiter := core.NewCallLimiter(b.opts.MaxToolCalls)
	var answer strings.Builder

	for {
		req := model.Request{
			Instructions: SystemPrompt(in.Expert, in.Participants),
			Contents:     contents,
			Tools:        tools,
		}

		resp, err := b.model.Generate(ctx, req)
		if err != nil {
			// Return partial text so an execution timeout still yields
			// whatever the specialist produced before the cutoff.
			return &core.TurnOutput{Answer: answer.String()}, fmt.Errorf("model turn for %s: %w", in.Expert.ID, err)
		}

		if text := resp.Content.Text(); text != "" {
			if answer.Len() > 0 {
				answer.WriteString("\n")
			}
			answer.WriteString(text)
		}

		calls := resp.Content.FunctionCalls()
		if len(calls) == 0 {
			return &core.TurnOutput{Answer: answer.String()}, nil
		}

		// A handoff ends the turn immediately; accumulated text is retained
		// as the partial answer.
		for _, call := range calls {
			if call.Name == fnHandoffToExpert {
				handoff, err := parseHandoff(call.Arguments)
				if err != nil {
					b.opts.Logger.Warn("malformed handoff arguments", "expert", in.Expert.ID, "error", err)
					continue
				}
				return &core.TurnOutput{Answer: answer.String(), Handoff: handoff}, nil
			}
		}

		contents = append(contents, resp.Content)

		for _, call := range calls {
			if call.Name != fnQueryKnowledgeBase {
				continue
			}

			result := b.runRetrieval(ctx, in, call, limiter)
			contents = append(contents, core.Content{
				Role: "tool",
				Parts: []core.Part{core.FunctionResponsePart{
					FunctionResponse: result,
				}},
			})
			if err := ctx.Err(); err != nil {
				return &core.TurnOutput{Answer: answer.String()}, err
			}
		}

		if b.opts.MaxToolCalls > 0 && limiter.Remaining() <= 0 {
			// Budget exhausted; one final generation without tools forces an
			// answer from what was retrieved so far.
			final, err := b.model.Generate(ctx, model.Request{
				Instructions: SystemPrompt(in.Expert, in.Participants),
				Contents:     contents,
			})
			if err != nil {
				return &core.TurnOutput{Answer: answer.String()}, fmt.Errorf("model turn for %s: %w", in.Expert.ID, err)
			}
			if text := final.Content.Text(); text != "" {
				if answer.Len() > 0 {
					answer.WriteString("\n")
				}
				answer.WriteString(text)
			}
			return &core.TurnOutput{Answer: answer.String()}, nil
		}
	}
}

func (b *ModelBehavior) runRetrieval(ctx context.Context, in core.TurnInput, call core.FunctionCall, limiter *core.CallLimiter) core.FunctionResponse {
	resp := core.FunctionResponse{ID: call.ID, Name: call.Name}

	var args retrievalArgs
	if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
		resp.Error = fmt.Sprintf("malformed arguments: %v", err)
		return resp
	}

	if err := limiter.Increment(); err != nil {
		resp.Error = "retrieval budget for this turn is exhausted"
		return resp
	}

	if in.Tools == nil {
		resp.Error = "no retrieval capability configured"
		return resp
	}

	result, err := in.Tools(ctx, args.Domain, args.Query)
	if err != nil {
		// Retrieval failures are reported back to the model, not escalated;
		// the specialist answers from general knowledge instead.
		resp.Error = err.Error()
		return resp
	}

	resp.Response = result
	return resp
}

func (b *ModelBehavior) buildContents(in core.TurnInput) []core.Content {
	var contents []core.Content

	var sb strings.Builder
	if in.History != "" {
		sb.WriteString("Previous conversation:\n")
		sb.WriteString(in.History)
		sb.WriteString("\n\n")
	}
	if in.Rationale != "" {
		fmt.Fprintf(&sb, "You received this task via handoff: %s\n\n", in.Rationale)
	}
	sb.WriteString(in.Query.Text)

	contents = append(contents, core.NewTextContent("user", sb.String()))

	return contents
}

type retrievalArgs struct {
	Domain string `json:"domain" description:"Knowledge base domain, always your own expert ID"`
	Query  string `json:"query" description:"Search query text"`
}

type handoffArgs struct {
	ExpertID  string `json:"expert_id" description:"ID of the teammate to hand off to"`
	Rationale string `json:"rationale" description:"Why the teammate should continue"`
}

func (b *ModelBehavior) buildTools(in core.TurnInput) []model.ToolDefinition {
	tools := []model.ToolDefinition{
		{
			Type: "function",
			Function: model.FunctionDefinition{
				Name:        fnQueryKnowledgeBase,
				Description: "Query the domain knowledge base. Results are authoritative.",
				Parameters:  util.CreateSchema(retrievalArgs{}),
			},
		},
	}

	if len(in.Participants) > 1 {
		tools = append(tools, model.ToolDefinition{
			Type: "function",
			Function: model.FunctionDefinition{
				Name:        fnHandoffToExpert,
				Description: "Transfer the query to a teammate better suited to continue.",
				Parameters:  util.CreateSchema(handoffArgs{}),
			},
		})
	}

	return tools
}

func parseHandoff(arguments string) (*core.HandoffRequest, error) {
	var args handoffArgs
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return nil, err
	}
	if args.ExpertID == "" {
		return nil, fmt.Errorf("handoff without expert_id")
	}

	return &core.HandoffRequest{
		TargetID:  args.ExpertID,
		Rationale: args.Rationale,
	}, nil
}
