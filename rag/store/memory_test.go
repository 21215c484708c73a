package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finchat-ai/finchat/rag"
)

func chunkFor(docID, content string) rag.Chunk {
	return rag.Chunk{
		ID:         rag.ChunkID(docID, content),
		DocumentID: docID,
		Content:    content,
		Metadata:   map[string]string{"source": docID},
	}
}

func TestMemoryStoreSearchOrdering(t *testing.T) {
	ctx := context.Background()
	embedder := NewMockEmbedder(64)
	s := NewMemoryVectorStore(embedder)

	require.NoError(t, s.Add(ctx, []rag.Chunk{
		chunkFor("news", "Revenue grew 5% in the third quarter"),
		chunkFor("news", "Costs fell 2% on lower input prices"),
		chunkFor("misc", "The weather in the mountains was pleasant"),
	}))

	query, err := embedder.EmbedQuery(ctx, "How did revenue change?")
	require.NoError(t, err)

	results, err := s.Search(ctx, query, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Contains(t, results[0].Chunk.Content, "Revenue")
	assert.GreaterOrEqual(t, results[0].Score, results[1].Score)
}

func TestMemoryStoreSearchCapsAtK(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryVectorStore(NewMockEmbedder(32))

	require.NoError(t, s.Add(ctx, []rag.Chunk{
		chunkFor("a", "alpha"),
		chunkFor("b", "beta"),
	}))

	query, _ := NewMockEmbedder(32).EmbedQuery(ctx, "alpha")
	results, err := s.Search(ctx, query, 10)
	require.NoError(t, err)
	assert.Len(t, results, 2, "never more results than stored chunks")
}

func TestMemoryStoreEmptyIndex(t *testing.T) {
	s := NewMemoryVectorStore(nil)
	_, err := s.Search(context.Background(), []float32{1, 0}, 3)
	assert.ErrorIs(t, err, rag.ErrEmptyIndex)
}

func TestMemoryStoreIdempotentAdd(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryVectorStore(NewMockEmbedder(32))

	chunks := []rag.Chunk{chunkFor("doc", "the same content")}
	require.NoError(t, s.Add(ctx, chunks))
	require.NoError(t, s.Add(ctx, chunks))

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Chunks, "re-adding identical content must not grow the index")
}

func TestMemoryStoreRejectsMissingEmbedder(t *testing.T) {
	s := NewMemoryVectorStore(nil)
	err := s.Add(context.Background(), []rag.Chunk{chunkFor("d", "text")})
	assert.Error(t, err)
}

func TestMemoryStoreInvalidK(t *testing.T) {
	s := NewMemoryVectorStore(NewMockEmbedder(8))
	_, err := s.Search(context.Background(), []float32{1}, 0)
	assert.Error(t, err)
}
