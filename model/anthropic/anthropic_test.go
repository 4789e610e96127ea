package anthropic

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/expertswarm/core"
	"github.com/hupe1980/expertswarm/model"
)

// marshalBody renders params the way the SDK would put them on the wire,
// which is the contract the adapter has to get right.
func marshalBody(t *testing.T, v any) map[string]any {
	t.Helper()

	raw, err := json.Marshal(v)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))

	return body
}

func retrievalRound() []core.Content {
	return []core.Content{
		core.NewTextContent("user", "what is efa"),
		{Role: "assistant", Parts: []core.Part{
			core.TextPart{Text: "Let me check."},
			core.FunctionCallPart{FunctionCall: core.FunctionCall{
				ID:        "c1",
				Name:      "query_knowledge_base",
				Arguments: `{"domain":"hpc","query":"EFA"}`,
			}},
		}},
		{Role: "tool", Parts: []core.Part{
			core.FunctionResponsePart{FunctionResponse: core.FunctionResponse{
				ID:       "c1",
				Name:     "query_knowledge_base",
				Response: "EFA is a network interface for HPC.",
			}},
		}},
	}
}

func TestBuildParamsInstructionsBecomeSystem(t *testing.T) {
	m := NewModel(func(o *Options) {
		o.APIKey = "test-key"
	})

	body := marshalBody(t, m.buildParams(model.Request{
		Instructions: "You are the HPC expert.",
		Contents:     []core.Content{core.NewTextContent("user", "size my cluster")},
	}))

	system, ok := body["system"].([]any)
	require.True(t, ok)
	require.Len(t, system, 1)
	assert.Equal(t, "You are the HPC expert.", system[0].(map[string]any)["text"])
}

func TestBuildParamsMapsRetrievalRound(t *testing.T) {
	m := NewModel(func(o *Options) {
		o.APIKey = "test-key"
	})

	body := marshalBody(t, m.buildParams(model.Request{Contents: retrievalRound()}))

	messages, ok := body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 3)

	user := messages[0].(map[string]any)
	assert.Equal(t, "user", user["role"])

	// The assistant turn carries both its text and the tool_use block.
	assistant := messages[1].(map[string]any)
	assert.Equal(t, "assistant", assistant["role"])
	blocks := assistant["content"].([]any)
	require.Len(t, blocks, 2)
	assert.Equal(t, "text", blocks[0].(map[string]any)["type"])
	toolUse := blocks[1].(map[string]any)
	assert.Equal(t, "tool_use", toolUse["type"])
	assert.Equal(t, "c1", toolUse["id"])
	assert.Equal(t, "query_knowledge_base", toolUse["name"])

	// The tool result rides in a user message, as the API requires.
	result := messages[2].(map[string]any)
	assert.Equal(t, "user", result["role"])
	resultBlocks := result["content"].([]any)
	require.Len(t, resultBlocks, 1)
	toolResult := resultBlocks[0].(map[string]any)
	assert.Equal(t, "tool_result", toolResult["type"])
	assert.Equal(t, "c1", toolResult["tool_use_id"])
}

func TestBuildParamsToolSchema(t *testing.T) {
	m := NewModel(func(o *Options) {
		o.APIKey = "test-key"
	})

	body := marshalBody(t, m.buildParams(model.Request{
		Contents: []core.Content{core.NewTextContent("user", "what is efa")},
		Tools: []model.ToolDefinition{{
			Type: "function",
			Function: model.FunctionDefinition{
				Name:        "query_knowledge_base",
				Description: "Query the domain knowledge base.",
				Parameters: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"domain": map[string]interface{}{"type": "string"},
						"query":  map[string]interface{}{"type": "string"},
					},
					"required": []string{"domain", "query"},
				},
			},
		}},
	}))

	tools, ok := body["tools"].([]any)
	require.True(t, ok)
	require.Len(t, tools, 1)

	tool := tools[0].(map[string]any)
	assert.Equal(t, "query_knowledge_base", tool["name"])

	schema := tool["input_schema"].(map[string]any)
	assert.Equal(t, "object", schema["type"])
	assert.Contains(t, schema["properties"], "domain")
	assert.ElementsMatch(t, []any{"domain", "query"}, schema["required"])
}

func TestToolResultErrorsAreFlagged(t *testing.T) {
	blocks := toolResultBlocks([]core.Part{
		core.FunctionResponsePart{FunctionResponse: core.FunctionResponse{
			ID:    "c2",
			Name:  "query_knowledge_base",
			Error: "retrieval budget for this turn is exhausted",
		}},
	})
	require.Len(t, blocks, 1)

	raw, err := json.Marshal(blocks[0])
	require.NoError(t, err)

	var block map[string]any
	require.NoError(t, json.Unmarshal(raw, &block))
	assert.Equal(t, true, block["is_error"])
}

func TestFinishReasonNormalization(t *testing.T) {
	assert.Equal(t, "stop", finishReason(""))
	assert.Equal(t, "stop", finishReason("end_turn"))
	assert.Equal(t, "stop", finishReason("stop_sequence"))
	assert.Equal(t, "tool_calls", finishReason("tool_use"))
	assert.Equal(t, "length", finishReason("max_tokens"))
	assert.Equal(t, "refusal", finishReason("refusal"))
}

func TestRequiredFields(t *testing.T) {
	assert.Equal(t, []string{"a"}, requiredFields([]string{"a"}))
	assert.Equal(t, []string{"a", "b"}, requiredFields([]interface{}{"a", "b", 3}))
	assert.Nil(t, requiredFields(nil))
}

func TestInfo(t *testing.T) {
	m := NewModel(func(o *Options) {
		o.APIKey = "test-key"
		o.Model = "claude-sonnet-4-20250514"
	})

	info := m.Info()
	assert.Equal(t, "claude-sonnet-4-20250514", info.Name)
	assert.Equal(t, "anthropic", info.Provider)
	assert.True(t, info.SupportsTools)
}
