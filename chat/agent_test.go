package chat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/tools"

	"github.com/finchat-ai/finchat/log"
	"github.com/finchat-ai/finchat/rag"
)

func toolCallResponse(id, name, args string) *llms.ContentResponse {
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{
			ToolCalls: []llms.ToolCall{{
				ID:   id,
				Type: "function",
				FunctionCall: &llms.FunctionCall{
					Name:      name,
					Arguments: args,
				},
			}},
		}},
	}
}

func TestAgentAnswersAfterToolCall(t *testing.T) {
	model := &mockLLM{responses: []*llms.ContentResponse{
		toolCallResponse("call-1", "search_documents", `{"input":"revenue growth"}`),
		textResponse("Revenue grew 5%."),
	}}
	retriever := &mockRetriever{results: []rag.SearchResult{
		chunkResult("Revenue grew 5% in fiscal 2023.", 0.9),
	}}
	agent := NewAgent(model, []tools.Tool{NewSearchTool(retriever, 3)},
		WithAgentLogger(log.NoOpLogger{}))

	answer, err := agent.Answer(context.Background(), "How did revenue change?", nil)
	require.NoError(t, err)
	assert.Equal(t, "Revenue grew 5%.", answer)
	assert.Equal(t, "revenue growth", retriever.lastQ)

	// Second call must carry the tool result back to the model.
	require.Len(t, model.seen, 2)
	last := model.seen[1][len(model.seen[1])-1]
	assert.Equal(t, llms.ChatMessageTypeTool, last.Role)
	toolResp, ok := last.Parts[0].(llms.ToolCallResponse)
	require.True(t, ok)
	assert.Equal(t, "call-1", toolResp.ToolCallID)
	assert.Contains(t, toolResp.Content, "Revenue grew 5% in fiscal 2023.")
}

func TestAgentStepLimit(t *testing.T) {
	// The model never stops asking for the tool.
	model := &loopingLLM{}
	retriever := &mockRetriever{results: []rag.SearchResult{
		chunkResult("Revenue grew 5%.", 0.9),
	}}
	agent := NewAgent(model, []tools.Tool{NewSearchTool(retriever, 3)},
		WithMaxSteps(3), WithAgentLogger(log.NoOpLogger{}))

	answer, err := agent.Answer(context.Background(), "How did revenue change?", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMaxStepsExceeded)
	assert.Equal(t, 3, model.calls)
	assert.NotEmpty(t, answer, "step limit still yields a best-effort answer")
}

func TestAgentUnknownTool(t *testing.T) {
	model := &mockLLM{responses: []*llms.ContentResponse{
		toolCallResponse("call-1", "nonexistent_tool", `{"input":"x"}`),
		textResponse("I don't know."),
	}}
	agent := NewAgent(model, nil, WithAgentLogger(log.NoOpLogger{}))

	answer, err := agent.Answer(context.Background(), "Anything", nil)
	require.NoError(t, err)
	assert.Equal(t, "I don't know.", answer)

	last := model.seen[1][len(model.seen[1])-1]
	toolResp := last.Parts[0].(llms.ToolCallResponse)
	assert.Contains(t, toolResp.Content, "unknown tool")
}

type loopingLLM struct {
	calls int
}

func (m *loopingLLM) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	m.calls++
	return toolCallResponse("call-n", "search_documents", `{"input":"revenue"}`), nil
}

func (m *loopingLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return "", nil
}
