package scraper

import (
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultCacheTTL bounds how long a fetched document is reused.
const DefaultCacheTTL = 10 * time.Minute

// DocumentCache holds fetched documents by source with a TTL, so races that
// share one combined results page fetch it once per run. Concurrent loads of
// the same source are collapsed into one.
type DocumentCache struct {
	mu       sync.Mutex
	docs     map[string]*Document
	cachedAt map[string]time.Time
	TTL      time.Duration

	group singleflight.Group
}

// NewDocumentCache creates an empty cache with DefaultCacheTTL.
func NewDocumentCache() *DocumentCache {
	return &DocumentCache{
		docs:     make(map[string]*Document),
		cachedAt: make(map[string]time.Time),
		TTL:      DefaultCacheTTL,
	}
}

// Get returns the document for source, or nil if absent or expired.
func (c *DocumentCache) Get(source string) *Document {
	c.mu.Lock()
	defer c.mu.Unlock()

	doc, ok := c.docs[source]
	if !ok {
		return nil
	}

	// Expired entries are dropped on read
	if time.Since(c.cachedAt[source]) > c.TTL {
		delete(c.docs, source)
		delete(c.cachedAt, source)
		return nil
	}
	return doc
}

// Set stores doc under source.
func (c *DocumentCache) Set(source string, doc *Document) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.docs[source] = doc
	c.cachedAt[source] = time.Now()
}

// CleanExpired removes expired entries and returns how many were dropped.
func (c *DocumentCache) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	now := time.Now()
	for source, at := range c.cachedAt {
		if now.Sub(at) > c.TTL {
			delete(c.docs, source)
			delete(c.cachedAt, source)
			removed++
		}
	}
	return removed
}

// Size returns the number of cached documents.
func (c *DocumentCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.docs)
}

// load returns the cached document for source or calls fetch once for all
// concurrent callers. Failed fetches are not cached.
func (c *DocumentCache) load(source string, fetch func() (*Document, error)) (*Document, error) {
	if doc := c.Get(source); doc != nil {
		return doc, nil
	}

	v, err, _ := c.group.Do(source, func() (interface{}, error) {
		if doc := c.Get(source); doc != nil {
			return doc, nil
		}
		doc, err := fetch()
		if err != nil {
			return nil, err
		}
		c.Set(source, doc)
		return doc, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Document), nil
}
