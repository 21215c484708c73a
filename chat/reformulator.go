package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
)

const contextualizePrompt = `Given a chat history and the latest user question ` +
	`which might reference context in the chat history, formulate a standalone ` +
	`question which can be understood without the chat history. Do NOT answer ` +
	`the question, just reformulate it if needed and otherwise return it as is.`

// Reformulator rewrites a follow-up question into a standalone question
// using the conversation history.
type Reformulator struct {
	model llms.Model
}

// NewReformulator creates a reformulator backed by the given model.
func NewReformulator(model llms.Model) *Reformulator {
	return &Reformulator{model: model}
}

// Reformulate returns a standalone version of question. With an empty
// history the question is returned unchanged and the model is not
// called. On model failure the error wraps ErrReformulationFailed;
// callers are expected to fall back to the verbatim question.
func (r *Reformulator) Reformulate(ctx context.Context, question string, history []Turn) (string, error) {
	if len(history) == 0 {
		return question, nil
	}

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, contextualizePrompt),
	}
	messages = append(messages, historyMessages(history)...)
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, question))

	resp, err := r.model.GenerateContent(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrReformulationFailed, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty response", ErrReformulationFailed)
	}

	standalone := strings.TrimSpace(resp.Choices[0].Content)
	if standalone == "" {
		return "", fmt.Errorf("%w: blank reformulation", ErrReformulationFailed)
	}
	return standalone, nil
}
