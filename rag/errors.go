package rag

import "errors"

var (
	// ErrFetchFailed marks a single ingestion source as unreachable.
	// Loaders skip the source and continue.
	ErrFetchFailed = errors.New("fetch failed")

	// ErrStoreUnavailable is returned when the vector store cannot be
	// reached. Callers degrade to a "no context" answer instead of
	// failing the turn.
	ErrStoreUnavailable = errors.New("vector store unavailable")

	// ErrEmptyIndex is returned by Search on a store with no chunks.
	ErrEmptyIndex = errors.New("vector index is empty")
)
