package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/finchat-ai/finchat/rag"
)

const qaPromptTemplate = `You are an assistant for question-answering tasks. ` +
	`Use the following pieces of retrieved context to answer the question. ` +
	`If you don't know the answer, say that you don't know. ` +
	`Use fifteen sentences maximum and keep the answer concise.

Context:
%s`

// NoContextAnswer is returned when retrieval produced no context at all.
const NoContextAnswer = "I don't know."

// Generator produces the final answer from the standalone question, the
// retrieved context, and the conversation history.
type Generator struct {
	model llms.Model
}

// NewGenerator creates a generator backed by the given model.
func NewGenerator(model llms.Model) *Generator {
	return &Generator{model: model}
}

// Answer generates an answer grounded in the retrieved chunks. On model
// failure the error wraps ErrGenerationFailed.
func (g *Generator) Answer(ctx context.Context, question string, results []rag.SearchResult, history []Turn) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem,
			fmt.Sprintf(qaPromptTemplate, formatContext(results))),
	}
	messages = append(messages, historyMessages(history)...)
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, question))

	resp, err := g.model.GenerateContent(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty response", ErrGenerationFailed)
	}
	return strings.TrimSpace(resp.Choices[0].Content), nil
}

// formatContext joins the retrieved chunk contents into the context
// block of the prompt, tagging each with its source when known.
func formatContext(results []rag.SearchResult) string {
	if len(results) == 0 {
		return "(no context available)"
	}

	parts := make([]string, 0, len(results))
	for _, res := range results {
		if source, ok := res.Chunk.Metadata["Source"]; ok {
			parts = append(parts, fmt.Sprintf("[%s]\n%s", source, res.Chunk.Content))
			continue
		}
		if source, ok := res.Chunk.Metadata["source"]; ok {
			parts = append(parts, fmt.Sprintf("[%s]\n%s", source, res.Chunk.Content))
			continue
		}
		parts = append(parts, res.Chunk.Content)
	}
	return strings.Join(parts, "\n\n---\n\n")
}
