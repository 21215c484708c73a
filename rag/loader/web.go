// Package loader implements the document loaders used by the ingestion
// job: web pages (direct fetch or the Firecrawl scrape API) and PDF
// files.
package loader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cenkalti/backoff/v4"

	"github.com/finchat-ai/finchat/log"
	"github.com/finchat-ai/finchat/rag"
)

const defaultFirecrawlBaseURL = "https://api.firecrawl.dev"

// WebLoader fetches a set of URLs and turns each page into one Document.
// A URL that cannot be fetched is skipped and logged; loading never fails
// because of a single bad source.
//
// When a Firecrawl API key is configured, pages are scraped through the
// Firecrawl service (with retry); otherwise the loader fetches pages
// directly and extracts visible text from the HTML.
type WebLoader struct {
	urls             []string
	client           *http.Client
	firecrawlKey     string
	firecrawlBaseURL string
	logger           log.Logger
}

// WebLoaderOption configures a WebLoader.
type WebLoaderOption func(*WebLoader)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) WebLoaderOption {
	return func(l *WebLoader) {
		l.client = client
	}
}

// WithFirecrawl routes page fetching through the Firecrawl scrape API.
func WithFirecrawl(apiKey string) WebLoaderOption {
	return func(l *WebLoader) {
		l.firecrawlKey = apiKey
	}
}

// WithFirecrawlBaseURL overrides the Firecrawl endpoint (used in tests).
func WithFirecrawlBaseURL(baseURL string) WebLoaderOption {
	return func(l *WebLoader) {
		l.firecrawlBaseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithLogger overrides the logger.
func WithLogger(logger log.Logger) WebLoaderOption {
	return func(l *WebLoader) {
		l.logger = logger
	}
}

// NewWebLoader creates a loader for the given URLs.
func NewWebLoader(urls []string, opts ...WebLoaderOption) *WebLoader {
	l := &WebLoader{
		urls:             urls,
		client:           &http.Client{Timeout: 30 * time.Second},
		firecrawlBaseURL: defaultFirecrawlBaseURL,
		logger:           log.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load fetches every configured URL. Fetch failures are logged and
// skipped; the returned error is non-nil only if the context is
// cancelled.
func (l *WebLoader) Load(ctx context.Context) ([]rag.Document, error) {
	var docs []rag.Document
	for _, url := range l.urls {
		if err := ctx.Err(); err != nil {
			return docs, err
		}

		doc, err := l.loadOne(ctx, url)
		if err != nil {
			l.logger.Warn("skipping source %s: %v", url, err)
			continue
		}
		docs = append(docs, doc)
	}
	l.logger.Info("loaded %d of %d web sources", len(docs), len(l.urls))
	return docs, nil
}

func (l *WebLoader) loadOne(ctx context.Context, url string) (rag.Document, error) {
	if l.firecrawlKey != "" {
		return l.scrapeWithFirecrawl(ctx, url)
	}
	return l.fetchDirect(ctx, url)
}

// fetchDirect downloads the page and extracts its visible text.
func (l *WebLoader) fetchDirect(ctx context.Context, url string) (rag.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return rag.Document{}, fmt.Errorf("%w: %v", rag.ErrFetchFailed, err)
	}
	req.Header.Set("User-Agent", "finchat/1.0")

	resp, err := l.client.Do(req)
	if err != nil {
		return rag.Document{}, fmt.Errorf("%w: %v", rag.ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return rag.Document{}, fmt.Errorf("%w: status %d from %s", rag.ErrFetchFailed, resp.StatusCode, url)
	}

	htmlDoc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return rag.Document{}, fmt.Errorf("%w: parse html: %v", rag.ErrFetchFailed, err)
	}

	title := strings.TrimSpace(htmlDoc.Find("title").First().Text())
	htmlDoc.Find("script, style, noscript").Remove()
	text := condenseWhitespace(htmlDoc.Find("body").Text())
	if text == "" {
		return rag.Document{}, fmt.Errorf("%w: no text content at %s", rag.ErrFetchFailed, url)
	}

	return rag.Document{
		ID:      url,
		Content: text,
		Metadata: rag.NormalizeMetadata(map[string]any{
			"source": url,
			"title":  title,
			"type":   "web",
		}),
	}, nil
}

type firecrawlRequest struct {
	URL     string   `json:"url"`
	Formats []string `json:"formats"`
}

type firecrawlResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Markdown string         `json:"markdown"`
		Metadata map[string]any `json:"metadata"`
	} `json:"data"`
	Error string `json:"error"`
}

// scrapeWithFirecrawl fetches the page through the Firecrawl scrape API,
// retrying transient failures with exponential backoff.
func (l *WebLoader) scrapeWithFirecrawl(ctx context.Context, url string) (rag.Document, error) {
	body, err := json.Marshal(firecrawlRequest{URL: url, Formats: []string{"markdown"}})
	if err != nil {
		return rag.Document{}, fmt.Errorf("marshal scrape request: %w", err)
	}

	var parsed firecrawlResponse
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			l.firecrawlBaseURL+"/v1/scrape", bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+l.firecrawlKey)

		resp, err := l.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if resp.StatusCode >= 500 {
			return fmt.Errorf("firecrawl status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("firecrawl status %d: %s", resp.StatusCode, raw))
		}
		if err := json.Unmarshal(raw, &parsed); err != nil {
			return backoff.Permanent(fmt.Errorf("decode firecrawl response: %w", err))
		}
		if !parsed.Success {
			return backoff.Permanent(fmt.Errorf("firecrawl error: %s", parsed.Error))
		}
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return rag.Document{}, fmt.Errorf("%w: %v", rag.ErrFetchFailed, err)
	}

	metadata := map[string]any{"source": url, "type": "web"}
	for k, v := range parsed.Data.Metadata {
		metadata[k] = v
	}

	return rag.Document{
		ID:       url,
		Content:  parsed.Data.Markdown,
		Metadata: rag.NormalizeMetadata(metadata),
	}, nil
}

func condenseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
