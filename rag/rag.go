// Package rag defines the core types and component interfaces of the
// retrieval-augmented generation pipeline: documents, chunks, loaders,
// splitters, embedders, vector stores and retrievers.
package rag

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"math"
	"time"
)

// Document is a unit of ingested content before splitting. Metadata values
// are normalized to scalar strings at the ingestion boundary (see
// NormalizeMetadata); the vector store schema does not support
// multi-valued fields.
type Document struct {
	ID       string
	Content  string
	Metadata map[string]string
}

// Chunk is a fixed-size, possibly overlapping window of a document's
// content. Chunks are the unit of storage and retrieval. A chunk inherits
// its source document's metadata.
type Chunk struct {
	ID         string
	DocumentID string
	Index      int
	Content    string
	Metadata   map[string]string
	Embedding  []float32
}

// SearchResult pairs a chunk with its relevance score for one query.
type SearchResult struct {
	Chunk Chunk
	Score float64
}

// StoreStats describes the current contents of a vector store.
type StoreStats struct {
	Chunks      int
	Dimension   int
	LastUpdated time.Time
}

// DocumentLoader produces documents from some source (web pages, files).
// Loaders treat per-source failures as non-fatal: a source that cannot be
// fetched is skipped and logged, and loading continues.
type DocumentLoader interface {
	Load(ctx context.Context) ([]Document, error)
}

// TextSplitter splits a document's content into chunks.
type TextSplitter interface {
	Split(doc Document) []Chunk
}

// Embedder converts text into fixed-dimension vectors via an external
// embedding provider.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorStore persists chunks together with their embedding vectors and
// answers nearest-neighbour queries. Add must be idempotent under
// re-ingestion of identical chunk content.
type VectorStore interface {
	Add(ctx context.Context, chunks []Chunk) error
	// Search returns at most k chunks ordered by descending similarity.
	// An empty store yields ErrEmptyIndex, an unreachable one
	// ErrStoreUnavailable.
	Search(ctx context.Context, embedding []float32, k int) ([]SearchResult, error)
	Stats(ctx context.Context) (*StoreStats, error)
	Close() error
}

// Retriever wraps a vector store with a fixed lookup policy.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]SearchResult, error)
}

// ChunkID derives the stable identity of a chunk from its provenance and
// content. Re-ingesting the same document yields the same IDs, so stores
// keyed by chunk ID deduplicate instead of accumulating copies.
func ChunkID(documentID, content string) string {
	h := sha256.Sum256([]byte(documentID + "\x00" + content))
	return hex.EncodeToString(h[:])
}

// CosineSimilarity computes the cosine similarity of two vectors. Vectors
// of different lengths or zero norm score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
