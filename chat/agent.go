package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/tools"

	"github.com/finchat-ai/finchat/log"
	"github.com/finchat-ai/finchat/rag"
)

// DefaultMaxSteps bounds the agent's reasoning loop.
const DefaultMaxSteps = 6

const agentSystemPrompt = `You are an assistant for question-answering tasks ` +
	`about financial documents. Use the provided tools to look up context ` +
	`before answering. If you don't know the answer, say that you don't know. ` +
	`Keep the answer concise.`

// Agent answers a question through a bounded tool-use loop: the model
// may request tool calls, their results are fed back, and the loop ends
// when the model produces a plain answer or the step limit is reached.
type Agent struct {
	model    llms.Model
	tools    []tools.Tool
	maxSteps int
	logger   log.Logger
}

// AgentOption configures an Agent.
type AgentOption func(*Agent)

// WithMaxSteps sets the step limit of the reasoning loop.
func WithMaxSteps(n int) AgentOption {
	return func(a *Agent) {
		if n > 0 {
			a.maxSteps = n
		}
	}
}

// WithAgentLogger overrides the logger.
func WithAgentLogger(logger log.Logger) AgentOption {
	return func(a *Agent) {
		a.logger = logger
	}
}

// NewAgent creates an agent over the given model and tools.
func NewAgent(model llms.Model, agentTools []tools.Tool, opts ...AgentOption) *Agent {
	a := &Agent{
		model:    model,
		tools:    agentTools,
		maxSteps: DefaultMaxSteps,
		logger:   log.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Answer runs the loop for one question. When the step limit is hit the
// last text the model produced is returned as a best-effort answer
// together with an error wrapping ErrMaxStepsExceeded.
func (a *Agent) Answer(ctx context.Context, question string, history []Turn) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, agentSystemPrompt),
	}
	messages = append(messages, historyMessages(history)...)
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, question))

	toolDefs := make([]llms.Tool, 0, len(a.tools))
	for _, t := range a.tools {
		toolDefs = append(toolDefs, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"input": map[string]any{
							"type":        "string",
							"description": "The input query for the tool",
						},
					},
					"required": []string{"input"},
				},
			},
		})
	}

	var lastText string
	for step := 0; step < a.maxSteps; step++ {
		resp, err := a.model.GenerateContent(ctx, messages, llms.WithTools(toolDefs))
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
		}
		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("%w: empty response", ErrGenerationFailed)
		}
		choice := resp.Choices[0]

		if choice.Content != "" {
			lastText = strings.TrimSpace(choice.Content)
		}
		if len(choice.ToolCalls) == 0 {
			if lastText == "" {
				return "", fmt.Errorf("%w: blank answer", ErrGenerationFailed)
			}
			return lastText, nil
		}

		aiMsg := llms.MessageContent{Role: llms.ChatMessageTypeAI}
		if choice.Content != "" {
			aiMsg.Parts = append(aiMsg.Parts, llms.TextPart(choice.Content))
		}
		for _, tc := range choice.ToolCalls {
			aiMsg.Parts = append(aiMsg.Parts, tc)
		}
		messages = append(messages, aiMsg)

		for _, tc := range choice.ToolCalls {
			result, err := a.callTool(ctx, tc)
			if err != nil {
				result = fmt.Sprintf("Error: %v", err)
			}
			messages = append(messages, llms.MessageContent{
				Role: llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{
					llms.ToolCallResponse{
						ToolCallID: tc.ID,
						Name:       tc.FunctionCall.Name,
						Content:    result,
					},
				},
			})
		}
	}

	a.logger.Warn("agent hit step limit (%d) answering %q", a.maxSteps, question)
	if lastText == "" {
		lastText = NoContextAnswer
	}
	return lastText, fmt.Errorf("%w: after %d steps", ErrMaxStepsExceeded, a.maxSteps)
}

func (a *Agent) callTool(ctx context.Context, tc llms.ToolCall) (string, error) {
	var target tools.Tool
	for _, t := range a.tools {
		if t.Name() == tc.FunctionCall.Name {
			target = t
			break
		}
	}
	if target == nil {
		return "", fmt.Errorf("unknown tool %q", tc.FunctionCall.Name)
	}

	input := tc.FunctionCall.Arguments
	var args map[string]any
	if err := json.Unmarshal([]byte(tc.FunctionCall.Arguments), &args); err == nil {
		if val, ok := args["input"].(string); ok {
			input = val
		}
	}
	return target.Call(ctx, input)
}

// SearchTool exposes the vector retriever as an agent tool.
type SearchTool struct {
	retriever rag.Retriever
	topK      int
}

// NewSearchTool wraps a retriever for agent use.
func NewSearchTool(retriever rag.Retriever, topK int) *SearchTool {
	return &SearchTool{retriever: retriever, topK: topK}
}

func (t *SearchTool) Name() string {
	return "search_documents"
}

func (t *SearchTool) Description() string {
	return "Search the indexed financial documents for passages relevant to a query."
}

// Call retrieves the most relevant chunks and returns them as a single
// text block. An empty index is reported as text so the model can say
// it does not know rather than failing the turn.
func (t *SearchTool) Call(ctx context.Context, input string) (string, error) {
	results, err := t.retriever.Retrieve(ctx, input, t.topK)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return "No relevant passages found.", nil
	}

	parts := make([]string, 0, len(results))
	for _, res := range results {
		parts = append(parts, res.Chunk.Content)
	}
	return strings.Join(parts, "\n\n---\n\n"), nil
}
