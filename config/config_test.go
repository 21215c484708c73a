package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "gsk-test")
	t.Setenv("EMBEDDINGS_API_KEY", "sk-test")

	cfg, err := Load()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "llama3-70b-8192", cfg.GroqModel)
	assert.Equal(t, 1000, cfg.ChunkSize)
	assert.Equal(t, 200, cfg.ChunkOverlap)
	assert.Equal(t, 3, cfg.TopK)
	assert.Equal(t, ":8080", cfg.ServerAddr)
	assert.Equal(t, DefaultSourceURLs, cfg.SourceURLs)
	assert.False(t, cfg.Neo4jEnabled())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "gsk-test")
	t.Setenv("EMBEDDINGS_API_KEY", "sk-test")
	t.Setenv("CHUNK_SIZE", "500")
	t.Setenv("CHUNK_OVERLAP", "50")
	t.Setenv("SOURCE_URLS", "https://a.example/report, https://b.example/filing")
	t.Setenv("NEO4J_URI", "neo4j://localhost:7687")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 500, cfg.ChunkSize)
	assert.Equal(t, 50, cfg.ChunkOverlap)
	assert.Equal(t, []string{"https://a.example/report", "https://b.example/filing"}, cfg.SourceURLs)
	assert.True(t, cfg.Neo4jEnabled())
}

func TestLoadRejectsBadInt(t *testing.T) {
	t.Setenv("CHUNK_SIZE", "not-a-number")
	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"missing groq key", func(c *Config) { c.GroqAPIKey = "" }, true},
		{"missing embeddings key", func(c *Config) { c.EmbeddingsAPIKey = "" }, true},
		{"overlap equals size", func(c *Config) { c.ChunkOverlap = c.ChunkSize }, true},
		{"negative overlap", func(c *Config) { c.ChunkOverlap = -1 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				GroqAPIKey:       "gsk-test",
				EmbeddingsAPIKey: "sk-test",
				ChunkSize:        1000,
				ChunkOverlap:     200,
			}
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
