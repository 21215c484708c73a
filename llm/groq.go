// Package llm wires the chat model and the embeddings client used by
// the rest of the service.
package llm

import (
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const (
	// GroqBaseURL is the OpenAI-compatible endpoint of the Groq API.
	GroqBaseURL = "https://api.groq.com/openai/v1"

	// DefaultChatModel is the model used for reformulation and answer
	// generation unless configured otherwise.
	DefaultChatModel = "llama3-70b-8192"
)

// GroqConfig holds the settings for the Groq chat model client.
type GroqConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// NewGroqChat builds a chat model client against the Groq API.
func NewGroqChat(cfg GroqConfig) (llms.Model, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("groq api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultChatModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = GroqBaseURL
	}

	model, err := openai.New(
		openai.WithToken(cfg.APIKey),
		openai.WithModel(cfg.Model),
		openai.WithBaseURL(cfg.BaseURL),
	)
	if err != nil {
		return nil, fmt.Errorf("create groq client: %w", err)
	}
	return model, nil
}
