package main

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/tools"

	"github.com/finchat-ai/finchat/chat"
	"github.com/finchat-ai/finchat/config"
	"github.com/finchat-ai/finchat/llm"
	"github.com/finchat-ai/finchat/log"
	"github.com/finchat-ai/finchat/rag"
	"github.com/finchat-ai/finchat/rag/retriever"
	"github.com/finchat-ai/finchat/rag/store"
)

// app holds the process-wide components, constructed once at startup.
type app struct {
	cfg       *config.Config
	logger    log.Logger
	model     llms.Model
	embedder  rag.Embedder
	primary   rag.VectorStore
	neo4j     *store.Neo4jVectorStore
	retriever rag.Retriever
	pipeline  *chat.Pipeline
}

// newApp wires the serving components: clients, the primary store, the
// retriever, and the turn pipeline.
func newApp(ctx context.Context, cfg *config.Config, logger log.Logger) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	model, err := llm.NewGroqChat(llm.GroqConfig{
		APIKey: cfg.GroqAPIKey,
		Model:  cfg.GroqModel,
	})
	if err != nil {
		return nil, err
	}

	embedder, err := llm.NewOpenAIEmbedder(llm.EmbedderConfig{
		APIKey:  cfg.EmbeddingsAPIKey,
		Model:   cfg.EmbeddingsModel,
		BaseURL: cfg.EmbeddingsBaseURL,
	})
	if err != nil {
		return nil, err
	}

	primary, err := store.NewSQLiteVectorStore(cfg.VectorStorePath)
	if err != nil {
		return nil, fmt.Errorf("open vector store: %w", err)
	}

	a := &app{
		cfg:      cfg,
		logger:   logger,
		model:    model,
		embedder: embedder,
		primary:  primary,
	}

	if cfg.Neo4jEnabled() {
		a.neo4j, err = store.NewNeo4jVectorStore(ctx, store.Neo4jConfig{
			URI:       cfg.Neo4jURI,
			User:      cfg.Neo4jUser,
			Password:  cfg.Neo4jPassword,
			Dimension: cfg.EmbeddingsDimension,
		})
		if err != nil {
			primary.Close()
			return nil, fmt.Errorf("connect to neo4j: %w", err)
		}
	}

	a.retriever = retriever.NewVectorRetriever(primary, embedder, cfg.TopK)
	a.pipeline = chat.NewPipeline(model, a.retriever,
		chat.WithTopK(cfg.TopK),
		chat.WithPipelineLogger(logger),
	)
	return a, nil
}

// newAgent builds the tool-using answer loop over the same retriever.
func (a *app) newAgent() *chat.Agent {
	return chat.NewAgent(a.model,
		[]tools.Tool{chat.NewSearchTool(a.retriever, a.cfg.TopK)},
		chat.WithAgentLogger(a.logger),
	)
}

// stores returns every configured vector store, primary first.
func (a *app) stores() []rag.VectorStore {
	out := []rag.VectorStore{a.primary}
	if a.neo4j != nil {
		out = append(out, a.neo4j)
	}
	return out
}

func (a *app) close() {
	if err := a.primary.Close(); err != nil {
		a.logger.Warn("close vector store: %v", err)
	}
	if a.neo4j != nil {
		if err := a.neo4j.Close(); err != nil {
			a.logger.Warn("close neo4j: %v", err)
		}
	}
}
