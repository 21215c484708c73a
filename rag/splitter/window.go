// Package splitter implements deterministic text splitting for ingestion.
package splitter

import (
	"fmt"

	"github.com/finchat-ai/finchat/rag"
)

// WindowSplitter splits document content into fixed-size windows of runes
// with a fixed overlap between consecutive chunks. Splitting is purely
// positional, so the same input and parameters always produce the same
// chunk boundaries.
type WindowSplitter struct {
	size    int
	overlap int
}

// NewWindowSplitter creates a WindowSplitter. The overlap must be smaller
// than the window size, otherwise the split could never advance.
func NewWindowSplitter(size, overlap int) (*WindowSplitter, error) {
	if size <= 0 {
		return nil, fmt.Errorf("window size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("overlap %d must be in [0, %d)", overlap, size)
	}
	return &WindowSplitter{size: size, overlap: overlap}, nil
}

// Split cuts the document into chunks of at most the window size.
// Consecutive chunks share exactly the configured overlap; the final
// chunk may be shorter. Every chunk inherits the document's metadata and
// carries a content-derived ID for idempotent re-ingestion.
func (s *WindowSplitter) Split(doc rag.Document) []rag.Chunk {
	runes := []rune(doc.Content)
	if len(runes) == 0 {
		return nil
	}

	step := s.size - s.overlap
	var chunks []rag.Chunk
	for start, i := 0, 0; start < len(runes); start, i = start+step, i+1 {
		end := start + s.size
		if end > len(runes) {
			end = len(runes)
		}
		content := string(runes[start:end])
		chunks = append(chunks, rag.Chunk{
			ID:         rag.ChunkID(doc.ID, content),
			DocumentID: doc.ID,
			Index:      i,
			Content:    content,
			Metadata:   rag.CopyMetadata(doc.Metadata),
		})
		if end == len(runes) {
			break
		}
	}
	return chunks
}

// SplitAll splits a batch of documents in order.
func (s *WindowSplitter) SplitAll(docs []rag.Document) []rag.Chunk {
	var chunks []rag.Chunk
	for _, doc := range docs {
		chunks = append(chunks, s.Split(doc)...)
	}
	return chunks
}
