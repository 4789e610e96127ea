package model

import (
	"context"
	"fmt"

	"github.com/hupe1980/expertswarm/core"
)

// ToolDefinition declaratively exposes a callable function to the model.
type ToolDefinition struct {
	Type     string             `json:"type"` // "function"
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition describes an individual function (tool) exposed to the
// model. Parameters is a JSON Schema object.
type FunctionDefinition struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

// Request is the normalized input for one turn.
type Request struct {
	// Instructions is the system prompt for the turn.
	Instructions string `json:"instructions"`

	// Contents is the conversation so far, oldest first.
	Contents []core.Content `json:"contents"`

	// Tools lists the functions the model may call this turn. Empty forces a
	// plain text answer.
	Tools []ToolDefinition `json:"tools,omitempty"`
}

// Usage reports token consumption for a turn when the provider supplies it.
type Usage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
}

// Response is the complete output of one turn.
type Response struct {
	Content      core.Content `json:"content"`
	FinishReason string       `json:"finish_reason"` // "stop", "length", "tool_calls", etc.
	Usage        Usage        `json:"usage"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "mock", etc.
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface behaviors, the selector and the coordinator
// need to drive generation.
type Model interface {
	// Generate runs one turn and blocks until the complete response is
	// available or ctx is done.
	Generate(ctx context.Context, req Request) (*Response, error)

	// Info returns information about the model implementation.
	Info() Info
}

// MockModel is a deterministic in-memory Model for tests and examples. It
// matches the text of the last content in the request against registered
// prompts.
type MockModel struct {
	info      Info
	responses map[string]string
	calls     map[string][]core.FunctionCall
}

// NewMockModel constructs a MockModel with tool support enabled.
func NewMockModel(name, provider string) *MockModel {
	return &MockModel{
		info: Info{
			Name:          name,
			Provider:      provider,
			SupportsTools: true,
		},
		responses: make(map[string]string),
		calls:     make(map[string][]core.FunctionCall),
	}
}

// AddResponse registers a canned text answer for an input prompt.
func (m *MockModel) AddResponse(prompt, response string) { m.responses[prompt] = response }

// AddToolCallResponse registers canned function calls emitted when the last
// input content matches prompt. Registered calls win over text responses.
func (m *MockModel) AddToolCallResponse(prompt string, calls ...core.FunctionCall) {
	m.calls[prompt] = calls
}

// Generate implements Model.
func (m *MockModel) Generate(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(req.Contents) == 0 {
		return nil, fmt.Errorf("no contents provided")
	}

	prompt := req.Contents[len(req.Contents)-1].Text()

	if calls, ok := m.calls[prompt]; ok {
		parts := make([]core.Part, 0, len(calls))
		for _, call := range calls {
			parts = append(parts, core.FunctionCallPart{FunctionCall: call})
		}
		return &Response{
			Content:      core.Content{Role: "assistant", Parts: parts},
			FinishReason: "tool_calls",
		}, nil
	}

	text := m.responses[prompt]
	if text == "" {
		text = fmt.Sprintf("Mock response to: %s", prompt)
	}

	return &Response{
		Content:      core.NewTextContent("assistant", text),
		FinishReason: "stop",
	}, nil
}

// Info implements Model.
func (m *MockModel) Info() Info { return m.info }
