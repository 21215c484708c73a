package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finchat-ai/finchat/log"
	"github.com/finchat-ai/finchat/rag"
	"github.com/finchat-ai/finchat/rag/splitter"
	"github.com/finchat-ai/finchat/rag/store"
)

type staticLoader struct {
	docs []rag.Document
	err  error
}

func (l *staticLoader) Load(ctx context.Context) ([]rag.Document, error) {
	return l.docs, l.err
}

func TestJobIndexesIntoAllStores(t *testing.T) {
	embedder := store.NewMockEmbedder(32)
	primary := store.NewMemoryVectorStore(embedder)
	secondary := store.NewMemoryVectorStore(embedder)

	split, err := splitter.NewWindowSplitter(50, 10)
	require.NoError(t, err)

	job := &Job{
		Loaders: []rag.DocumentLoader{&staticLoader{docs: []rag.Document{
			{ID: "doc-1", Content: "Revenue grew five percent in fiscal 2023 driven by strong subscription demand."},
			{ID: "doc-2", Content: "Operating expenses were flat year over year."},
		}}},
		Splitter: split,
		Embedder: embedder,
		Stores:   []rag.VectorStore{primary, secondary},
		Logger:   log.NoOpLogger{},
	}

	report, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Documents)
	assert.Equal(t, 2, report.Stores)
	assert.Zero(t, report.Skipped)
	assert.Greater(t, report.Chunks, 0)

	for _, s := range []rag.VectorStore{primary, secondary} {
		stats, err := s.Stats(context.Background())
		require.NoError(t, err)
		assert.Equal(t, report.Chunks, stats.Chunks)
	}
}

func TestJobRerunIsIdempotent(t *testing.T) {
	embedder := store.NewMockEmbedder(32)
	vs := store.NewMemoryVectorStore(embedder)

	split, err := splitter.NewWindowSplitter(1000, 20)
	require.NoError(t, err)

	job := &Job{
		Loaders: []rag.DocumentLoader{&staticLoader{docs: []rag.Document{
			{ID: "doc-1", Content: "Net income rose in 2023."},
		}}},
		Splitter: split,
		Embedder: embedder,
		Stores:   []rag.VectorStore{vs},
		Logger:   log.NoOpLogger{},
	}

	_, err = job.Run(context.Background())
	require.NoError(t, err)
	first, err := vs.Stats(context.Background())
	require.NoError(t, err)

	_, err = job.Run(context.Background())
	require.NoError(t, err)
	second, err := vs.Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first.Chunks, second.Chunks, "re-ingesting identical content must not duplicate chunks")
}

func TestJobEmptyLoadIsNotAnError(t *testing.T) {
	embedder := store.NewMockEmbedder(32)
	vs := store.NewMemoryVectorStore(embedder)
	split, err := splitter.NewWindowSplitter(100, 10)
	require.NoError(t, err)

	job := &Job{
		Loaders:  []rag.DocumentLoader{&staticLoader{}},
		Splitter: split,
		Embedder: embedder,
		Stores:   []rag.VectorStore{vs},
		Logger:   log.NoOpLogger{},
	}

	report, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Chunks)
}

func TestJobLoaderErrorFailsRun(t *testing.T) {
	embedder := store.NewMockEmbedder(32)
	vs := store.NewMemoryVectorStore(embedder)
	split, err := splitter.NewWindowSplitter(100, 10)
	require.NoError(t, err)

	job := &Job{
		Loaders:  []rag.DocumentLoader{&staticLoader{err: errors.New("context cancelled")}},
		Splitter: split,
		Embedder: embedder,
		Stores:   []rag.VectorStore{vs},
		Logger:   log.NoOpLogger{},
	}

	_, err = job.Run(context.Background())
	assert.Error(t, err)
}

func TestJobRequiresComponents(t *testing.T) {
	_, err := (&Job{Logger: log.NoOpLogger{}}).Run(context.Background())
	assert.Error(t, err)
}
