package splitter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finchat-ai/finchat/rag"
)

func TestNewWindowSplitterValidation(t *testing.T) {
	_, err := NewWindowSplitter(0, 0)
	assert.Error(t, err)

	_, err = NewWindowSplitter(100, 100)
	assert.Error(t, err, "overlap equal to window size must be rejected")

	_, err = NewWindowSplitter(100, -1)
	assert.Error(t, err)

	_, err = NewWindowSplitter(100, 20)
	assert.NoError(t, err)
}

func TestSplitCoversContentWithExactOverlap(t *testing.T) {
	const window, overlap = 10, 3
	s, err := NewWindowSplitter(window, overlap)
	require.NoError(t, err)

	text := "abcdefghijklmnopqrstuvwxyz0123456789"
	doc := rag.Document{ID: "d1", Content: text, Metadata: map[string]string{"source": "test"}}

	chunks := s.Split(doc)
	require.NotEmpty(t, chunks)

	// Reassembling the chunks minus the overlap must reproduce the input:
	// no gaps, no reordering.
	var rebuilt strings.Builder
	rebuilt.WriteString(chunks[0].Content)
	for i := 1; i < len(chunks); i++ {
		prev := []rune(chunks[i-1].Content)
		cur := []rune(chunks[i].Content)

		// Consecutive chunks share exactly the configured overlap.
		require.GreaterOrEqual(t, len(prev), overlap)
		assert.Equal(t, string(prev[len(prev)-overlap:]), string(cur[:overlap]))

		rebuilt.WriteString(string(cur[overlap:]))
	}
	assert.Equal(t, text, rebuilt.String())

	for i, c := range chunks {
		assert.LessOrEqual(t, len([]rune(c.Content)), window)
		assert.Equal(t, i, c.Index)
		assert.Equal(t, "d1", c.DocumentID)
		assert.Equal(t, "test", c.Metadata["source"], "chunks inherit document metadata")
	}
}

func TestSplitDeterministic(t *testing.T) {
	s, err := NewWindowSplitter(50, 10)
	require.NoError(t, err)

	doc := rag.Document{ID: "d", Content: strings.Repeat("the quick brown fox ", 40)}
	first := s.Split(doc)
	second := s.Split(doc)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
		assert.Equal(t, first[i].Content, second[i].Content)
	}
}

func TestSplitShortDocument(t *testing.T) {
	s, err := NewWindowSplitter(1000, 200)
	require.NoError(t, err)

	doc := rag.Document{ID: "d", Content: "short text"}
	chunks := s.Split(doc)
	require.Len(t, chunks, 1)
	assert.Equal(t, "short text", chunks[0].Content)
}

func TestSplitEmptyDocument(t *testing.T) {
	s, err := NewWindowSplitter(100, 20)
	require.NoError(t, err)
	assert.Empty(t, s.Split(rag.Document{ID: "d"}))
}

func TestSplitMetadataIsolated(t *testing.T) {
	s, err := NewWindowSplitter(5, 1)
	require.NoError(t, err)

	doc := rag.Document{ID: "d", Content: "0123456789", Metadata: map[string]string{"k": "v"}}
	chunks := s.Split(doc)
	require.Greater(t, len(chunks), 1)

	chunks[0].Metadata["k"] = "mutated"
	assert.Equal(t, "v", chunks[1].Metadata["k"], "chunks must not share a metadata map")
	assert.Equal(t, "v", doc.Metadata["k"])
}

func TestSplitAll(t *testing.T) {
	s, err := NewWindowSplitter(4, 0)
	require.NoError(t, err)

	chunks := s.SplitAll([]rag.Document{
		{ID: "a", Content: "aaaa"},
		{ID: "b", Content: "bbbbbbbb"},
	})
	require.Len(t, chunks, 3)
	assert.Equal(t, "a", chunks[0].DocumentID)
	assert.Equal(t, "b", chunks[1].DocumentID)
	assert.Equal(t, 1, chunks[2].Index)
}
