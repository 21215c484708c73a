package retriever

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finchat-ai/finchat/rag"
	"github.com/finchat-ai/finchat/rag/store"
)

func populatedStore(t *testing.T, embedder rag.Embedder, contents ...string) *store.MemoryVectorStore {
	t.Helper()
	s := store.NewMemoryVectorStore(embedder)
	chunks := make([]rag.Chunk, len(contents))
	for i, content := range contents {
		chunks[i] = rag.Chunk{
			ID:         rag.ChunkID("doc", content),
			DocumentID: "doc",
			Content:    content,
		}
	}
	require.NoError(t, s.Add(context.Background(), chunks))
	return s
}

func TestRetrieveRanksRelevantChunkFirst(t *testing.T) {
	embedder := store.NewMockEmbedder(64)
	s := populatedStore(t, embedder,
		"Revenue grew 5%",
		"Costs fell 2%",
		"Unrelated text",
	)

	r := NewVectorRetriever(s, embedder, 2)
	results, err := r.Retrieve(context.Background(), "How did revenue change?", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "Revenue grew 5%", results[0].Chunk.Content)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score,
			"results must be ordered by non-increasing score")
	}
}

func TestRetrieveReturnsAtMostK(t *testing.T) {
	embedder := store.NewMockEmbedder(32)
	s := populatedStore(t, embedder, "one", "two", "three", "four")

	r := NewVectorRetriever(s, embedder, 0)
	results, err := r.Retrieve(context.Background(), "anything at all", 0)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(results), DefaultTopK)
}

func TestRetrieveEmptyStore(t *testing.T) {
	embedder := store.NewMockEmbedder(32)
	r := NewVectorRetriever(store.NewMemoryVectorStore(embedder), embedder, 3)

	_, err := r.Retrieve(context.Background(), "Anything", 3)
	assert.ErrorIs(t, err, rag.ErrEmptyIndex)
}
