package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/pfrederiksen/xc-results/internal/race"
)

const (
	UserAgent = "xc-results/1.0 (github.com/pfrederiksen/xc-results)"
	Timeout   = 30 * time.Second

	// maxDocumentSize bounds a fetched document; result pages are far smaller.
	maxDocumentSize = 32 << 20
)

// Fetcher reads result documents from URLs or local files.
type Fetcher struct {
	client    *http.Client
	userAgent string
	baseDir   string
	cache     *DocumentCache
}

// FetcherOption customizes a Fetcher.
type FetcherOption func(*Fetcher)

// WithTimeout sets the HTTP timeout.
func WithTimeout(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		if d > 0 {
			f.client.Timeout = d
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) FetcherOption {
	return func(f *Fetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithBaseDir sets the directory relative file paths are resolved against,
// normally the directory holding the race configuration.
func WithBaseDir(dir string) FetcherOption {
	return func(f *Fetcher) { f.baseDir = dir }
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) FetcherOption {
	return func(f *Fetcher) {
		if c != nil {
			f.client = c
		}
	}
}

// WithCache reuses documents across descriptors that point at the same source.
func WithCache(c *DocumentCache) FetcherOption {
	return func(f *Fetcher) { f.cache = c }
}

// NewFetcher creates a Fetcher with the default timeout and User-Agent.
func NewFetcher(opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client: &http.Client{
			Timeout: Timeout,
		},
		userAgent: UserAgent,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch loads the document a descriptor points at.
func (f *Fetcher) Fetch(ctx context.Context, d race.Descriptor) (*Document, error) {
	var load func() (*Document, error)
	switch {
	case d.File != "":
		path := f.resolve(d.File)
		load = func() (*Document, error) { return f.readFile(path) }
	case d.URL != "":
		load = func() (*Document, error) { return f.get(ctx, d.URL) }
	default:
		return nil, fmt.Errorf("no url or file for race %q", d.Name())
	}

	if f.cache == nil {
		return load()
	}
	return f.cache.load(f.key(d), load)
}

// Cached reports whether d's document would be served from the cache.
func (f *Fetcher) Cached(d race.Descriptor) bool {
	return f.cache != nil && d.Source() != "" && f.cache.Get(f.key(d)) != nil
}

func (f *Fetcher) key(d race.Descriptor) string {
	if d.File != "" {
		return f.resolve(d.File)
	}
	return d.URL
}

func (f *Fetcher) resolve(path string) string {
	if !filepath.IsAbs(path) && f.baseDir != "" {
		return filepath.Join(f.baseDir, path)
	}
	return path
}

func (f *Fetcher) get(ctx context.Context, url string) (*Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}

	return NewDocument(url, body), nil
}

func (f *Fetcher) readFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading results file: %w", err)
	}

	return NewDocument(path, data), nil
}
