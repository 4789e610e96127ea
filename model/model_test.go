package model

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/expertswarm/core"
)

func TestMockModelReturnsRegisteredText(t *testing.T) {
	mock := NewMockModel("m", "mock")
	mock.AddResponse("size my cluster", "Use 16 c5n nodes.")

	resp, err := mock.Generate(context.Background(), Request{
		Contents: []core.Content{core.NewTextContent("user", "size my cluster")},
	})
	require.NoError(t, err)

	assert.Equal(t, "Use 16 c5n nodes.", resp.Content.Text())
	assert.Equal(t, "stop", resp.FinishReason)
	assert.Empty(t, resp.Content.FunctionCalls())
}

func TestMockModelReturnsRegisteredToolCalls(t *testing.T) {
	mock := NewMockModel("m", "mock")
	mock.AddToolCallResponse("what is efa", core.FunctionCall{
		ID:        "c1",
		Name:      "query_knowledge_base",
		Arguments: `{"domain":"hpc","query":"EFA"}`,
	})

	resp, err := mock.Generate(context.Background(), Request{
		Contents: []core.Content{core.NewTextContent("user", "what is efa")},
	})
	require.NoError(t, err)

	assert.Equal(t, "tool_calls", resp.FinishReason)
	calls := resp.Content.FunctionCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "query_knowledge_base", calls[0].Name)
}

func TestMockModelMatchesLastContent(t *testing.T) {
	mock := NewMockModel("m", "mock")
	mock.AddResponse("follow-up", "Second answer.")

	resp, err := mock.Generate(context.Background(), Request{
		Contents: []core.Content{
			core.NewTextContent("user", "first question"),
			core.NewTextContent("assistant", "First answer."),
			core.NewTextContent("user", "follow-up"),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Second answer.", resp.Content.Text())
}

func TestMockModelDefaultResponse(t *testing.T) {
	mock := NewMockModel("m", "mock")

	resp, err := mock.Generate(context.Background(), Request{
		Contents: []core.Content{core.NewTextContent("user", "unregistered")},
	})
	require.NoError(t, err)
	assert.Equal(t, "Mock response to: unregistered", resp.Content.Text())
}

func TestMockModelRequiresContents(t *testing.T) {
	mock := NewMockModel("m", "mock")

	_, err := mock.Generate(context.Background(), Request{})
	require.Error(t, err)
}

func TestMockModelHonorsCancelledContext(t *testing.T) {
	mock := NewMockModel("m", "mock")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := mock.Generate(ctx, Request{
		Contents: []core.Content{core.NewTextContent("user", "anything")},
	})
	require.ErrorIs(t, err, context.Canceled)
}

func TestMockModelInfo(t *testing.T) {
	mock := NewMockModel("router", "mock")

	info := mock.Info()
	assert.Equal(t, "router", info.Name)
	assert.Equal(t, "mock", info.Provider)
	assert.True(t, info.SupportsTools)
}
