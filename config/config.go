// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Default ingestion sources indexed when none are configured.
var DefaultSourceURLs = []string{
	"https://www.worldbank.org/en/publication/global-economic-prospects",
}

// Config is the process-wide configuration, constructed once at startup
// and passed explicitly to each component.
type Config struct {
	// Chat model (Groq).
	GroqAPIKey string
	GroqModel  string

	// Embeddings endpoint (OpenAI-compatible).
	EmbeddingsAPIKey  string
	EmbeddingsModel   string
	EmbeddingsBaseURL string
	// Dimension of the embedding vectors; must match the model.
	EmbeddingsDimension int

	// Secondary vector index in Neo4j. Optional; empty URI disables it.
	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string

	// Firecrawl scrape API. Optional; empty key means direct fetching.
	FirecrawlAPIKey string

	// Primary on-disk vector store.
	VectorStorePath string

	// Ingestion sources.
	SourceURLs []string
	PDFPath    string
	PDFSource  string

	// Chunking and retrieval.
	ChunkSize    int
	ChunkOverlap int
	TopK         int

	// Serving.
	ServerAddr string
	LogLevel   string
}

// Load reads configuration from the environment, after loading a .env
// file if one is present. Missing .env is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		GroqAPIKey:        os.Getenv("GROQ_API_KEY"),
		GroqModel:         getEnv("GROQ_MODEL", "llama3-70b-8192"),
		EmbeddingsAPIKey:  os.Getenv("EMBEDDINGS_API_KEY"),
		EmbeddingsModel:   getEnv("EMBEDDINGS_MODEL", "text-embedding-3-small"),
		EmbeddingsBaseURL: os.Getenv("EMBEDDINGS_BASE_URL"),
		Neo4jURI:          os.Getenv("NEO4J_URI"),
		Neo4jUser:         getEnv("NEO4J_USERNAME", "neo4j"),
		Neo4jPassword:     os.Getenv("NEO4J_PASSWORD"),
		FirecrawlAPIKey:   os.Getenv("FIRECRAWL_API_KEY"),
		VectorStorePath:   getEnv("VECTORSTORE_PATH", "data/finchat.db"),
		PDFPath:           os.Getenv("PDF_PATH"),
		PDFSource:         getEnv("PDF_SOURCE", "World Bank Report 2023"),
		ServerAddr:        getEnv("SERVER_ADDR", ":8080"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
	}

	var err error
	if cfg.ChunkSize, err = getEnvInt("CHUNK_SIZE", 1000); err != nil {
		return nil, err
	}
	if cfg.ChunkOverlap, err = getEnvInt("CHUNK_OVERLAP", 200); err != nil {
		return nil, err
	}
	if cfg.TopK, err = getEnvInt("TOP_K", 3); err != nil {
		return nil, err
	}
	if cfg.EmbeddingsDimension, err = getEnvInt("EMBEDDINGS_DIMENSION", 1536); err != nil {
		return nil, err
	}

	if urls := os.Getenv("SOURCE_URLS"); urls != "" {
		for _, u := range strings.Split(urls, ",") {
			if u = strings.TrimSpace(u); u != "" {
				cfg.SourceURLs = append(cfg.SourceURLs, u)
			}
		}
	} else {
		cfg.SourceURLs = append(cfg.SourceURLs, DefaultSourceURLs...)
	}

	return cfg, nil
}

// Validate checks the settings required for serving chat traffic.
func (c *Config) Validate() error {
	if c.GroqAPIKey == "" {
		return fmt.Errorf("GROQ_API_KEY is required")
	}
	if c.EmbeddingsAPIKey == "" {
		return fmt.Errorf("EMBEDDINGS_API_KEY is required")
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("CHUNK_SIZE must be positive")
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("CHUNK_OVERLAP must be in [0, CHUNK_SIZE)")
	}
	return nil
}

// Neo4jEnabled reports whether a secondary Neo4j index is configured.
func (c *Config) Neo4jEnabled() bool {
	return c.Neo4jURI != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}
