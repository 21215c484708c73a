// Package store provides the vector store implementations: an in-memory
// store for tests and development, a SQLite-backed persistent store (the
// primary index), and a Neo4j-backed store (the secondary index inside
// the graph database).
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/finchat-ai/finchat/rag"
)

// MemoryVectorStore keeps chunks and embeddings in process memory.
type MemoryVectorStore struct {
	mu       sync.RWMutex
	chunks   map[string]rag.Chunk // keyed by chunk ID
	order    []string             // insertion order, for deterministic ties
	embedder rag.Embedder
	updated  time.Time
}

var _ rag.VectorStore = (*MemoryVectorStore)(nil)

// NewMemoryVectorStore creates an empty in-memory store. The embedder is
// used to compute embeddings for chunks added without one; it may be nil
// if all chunks arrive pre-embedded.
func NewMemoryVectorStore(embedder rag.Embedder) *MemoryVectorStore {
	return &MemoryVectorStore{
		chunks:   make(map[string]rag.Chunk),
		embedder: embedder,
	}
}

// Add upserts chunks keyed by chunk ID. Re-adding the same chunk content
// replaces the existing entry, so repeated ingestion runs do not grow the
// index.
func (s *MemoryVectorStore) Add(ctx context.Context, chunks []rag.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, chunk := range chunks {
		if len(chunk.Embedding) == 0 {
			if s.embedder == nil {
				return fmt.Errorf("chunk %s has no embedding and no embedder is configured", chunk.ID)
			}
			embedding, err := s.embedder.EmbedQuery(ctx, chunk.Content)
			if err != nil {
				return fmt.Errorf("embed chunk %s: %w", chunk.ID, err)
			}
			chunk.Embedding = embedding
		}
		if _, exists := s.chunks[chunk.ID]; !exists {
			s.order = append(s.order, chunk.ID)
		}
		s.chunks[chunk.ID] = chunk
	}
	s.updated = time.Now()
	return nil
}

// Search returns the top-k chunks by cosine similarity, descending. Ties
// keep insertion order.
func (s *MemoryVectorStore) Search(ctx context.Context, embedding []float32, k int) ([]rag.SearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.chunks) == 0 {
		return nil, rag.ErrEmptyIndex
	}

	results := make([]rag.SearchResult, 0, len(s.order))
	for _, id := range s.order {
		chunk := s.chunks[id]
		results = append(results, rag.SearchResult{
			Chunk: chunk,
			Score: rag.CosineSimilarity(embedding, chunk.Embedding),
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}

// Stats reports the store contents.
func (s *MemoryVectorStore) Stats(ctx context.Context) (*rag.StoreStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &rag.StoreStats{Chunks: len(s.chunks), LastUpdated: s.updated}
	for _, id := range s.order {
		stats.Dimension = len(s.chunks[id].Embedding)
		break
	}
	return stats, nil
}

// Close drops all data.
func (s *MemoryVectorStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = make(map[string]rag.Chunk)
	s.order = nil
	return nil
}
