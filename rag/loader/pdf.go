package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tmc/langchaingo/documentloaders"

	"github.com/finchat-ai/finchat/rag"
)

// PDFLoader loads a PDF file and produces one Document per page.
type PDFLoader struct {
	path       string
	sourceName string
}

// PDFLoaderOption configures a PDFLoader.
type PDFLoaderOption func(*PDFLoader)

// WithSourceName sets the Source metadata tag attached to every page,
// e.g. "World Bank Report 2023". Defaults to the file name.
func WithSourceName(name string) PDFLoaderOption {
	return func(l *PDFLoader) {
		l.sourceName = name
	}
}

// NewPDFLoader creates a loader for a single PDF file.
func NewPDFLoader(path string, opts ...PDFLoaderOption) *PDFLoader {
	l := &PDFLoader{
		path:       path,
		sourceName: filepath.Base(path),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads the PDF and returns one Document per page, each tagged
// with the source name and page number.
func (l *PDFLoader) Load(ctx context.Context) ([]rag.Document, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", l.path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat pdf %s: %w", l.path, err)
	}

	pages, err := documentloaders.NewPDF(f, info.Size()).Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load pdf %s: %w", l.path, err)
	}

	docs := make([]rag.Document, 0, len(pages))
	for i, page := range pages {
		metadata := map[string]any{
			"Source": l.sourceName,
			"page":   i + 1,
			"type":   "pdf",
		}
		for k, v := range page.Metadata {
			metadata[k] = v
		}
		docs = append(docs, rag.Document{
			ID:       fmt.Sprintf("%s#page=%d", l.path, i+1),
			Content:  page.PageContent,
			Metadata: rag.NormalizeMetadata(metadata),
		})
	}
	return docs, nil
}
