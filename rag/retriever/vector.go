// Package retriever wraps a vector store with the fixed lookup policy
// used on the request path: embed the query, similarity search, top-k.
package retriever

import (
	"context"
	"fmt"

	"github.com/finchat-ai/finchat/rag"
)

// DefaultTopK is the number of chunks retrieved per question when the
// caller does not override it.
const DefaultTopK = 3

// VectorRetriever retrieves chunks by embedding similarity.
type VectorRetriever struct {
	store    rag.VectorStore
	embedder rag.Embedder
	topK     int
}

var _ rag.Retriever = (*VectorRetriever)(nil)

// NewVectorRetriever creates a retriever over the given store and
// embedder. topK <= 0 selects DefaultTopK.
func NewVectorRetriever(store rag.VectorStore, embedder rag.Embedder, topK int) *VectorRetriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &VectorRetriever{store: store, embedder: embedder, topK: topK}
}

// Retrieve embeds the query and returns at most k chunks ordered by
// descending similarity. k <= 0 uses the configured top-k. Store errors
// (ErrEmptyIndex, ErrStoreUnavailable) pass through for the caller's
// degradation policy.
func (r *VectorRetriever) Retrieve(ctx context.Context, query string, k int) ([]rag.SearchResult, error) {
	if k <= 0 {
		k = r.topK
	}

	embedding, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results, err := r.store.Search(ctx, embedding, k)
	if err != nil {
		return nil, err
	}
	return results, nil
}
