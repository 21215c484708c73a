// Package ingest runs the batch indexing job: load documents, split
// them into chunks, embed, and write to every configured vector store.
package ingest

import (
	"context"
	"fmt"

	"github.com/finchat-ai/finchat/log"
	"github.com/finchat-ai/finchat/rag"
)

// Report summarizes one ingestion run.
type Report struct {
	Documents int
	Chunks    int
	Skipped   int
	Stores    int
}

// Job holds the components of one ingestion run. A document that fails
// to load is skipped; a store that fails to write fails the run.
type Job struct {
	Loaders  []rag.DocumentLoader
	Splitter rag.TextSplitter
	Embedder rag.Embedder
	Stores   []rag.VectorStore
	Logger   log.Logger
}

// Run executes the job and returns a report of what was indexed.
func (j *Job) Run(ctx context.Context) (Report, error) {
	logger := j.Logger
	if logger == nil {
		logger = log.Default()
	}
	if j.Splitter == nil {
		return Report{}, fmt.Errorf("ingest: splitter is required")
	}
	if j.Embedder == nil {
		return Report{}, fmt.Errorf("ingest: embedder is required")
	}
	if len(j.Stores) == 0 {
		return Report{}, fmt.Errorf("ingest: at least one store is required")
	}

	var report Report
	var chunks []rag.Chunk
	for _, loader := range j.Loaders {
		docs, err := loader.Load(ctx)
		if err != nil {
			return report, fmt.Errorf("load documents: %w", err)
		}
		for _, doc := range docs {
			split := j.Splitter.Split(doc)
			if len(split) == 0 {
				logger.Warn("document %s produced no chunks, skipping", doc.ID)
				report.Skipped++
				continue
			}
			report.Documents++
			chunks = append(chunks, split...)
		}
	}
	report.Chunks = len(chunks)
	if len(chunks) == 0 {
		logger.Warn("ingestion produced no chunks")
		return report, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	vectors, err := j.Embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return report, fmt.Errorf("embed chunks: %w", err)
	}
	for i := range chunks {
		chunks[i].Embedding = vectors[i]
	}

	for _, store := range j.Stores {
		if err := store.Add(ctx, chunks); err != nil {
			return report, fmt.Errorf("write chunks to store: %w", err)
		}
		report.Stores++
	}

	logger.Info("ingested %d documents into %d chunks across %d stores (%d skipped)",
		report.Documents, report.Chunks, report.Stores, report.Skipped)
	return report, nil
}
