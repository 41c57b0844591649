package headlessblog

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/singleflight"

	"github.com/eringen/headlessblog/content"
	"github.com/eringen/headlessblog/post"
)

// ErrNotFound is returned when a requested post does not exist.
var ErrNotFound = content.ErrNotFound

const (
	listingKey = "listing"
	docType    = "post"
)

type cachedDoc struct {
	doc     content.RawDocument
	fetched time.Time
}

// CacheStats is a point-in-time view of what the cache holds.
type CacheStats struct {
	Documents      int
	ListingFetched time.Time
	ListingStale   bool // served from the snapshot store after an upstream failure
	AllFetched     time.Time
}

// ContentCache is an in-memory TTL cache in front of the content service.
// When the service fails it falls back to the snapshot store, if any.
type ContentCache struct {
	source   content.Source
	store    *Store
	ttl      time.Duration
	pageSize int
	maxPages int
	logger   echo.Logger

	mu             sync.RWMutex
	listing        *content.RawPage
	listingFetched time.Time
	listingStale   bool
	all            []post.Summary
	allFetched     time.Time

	docsMu sync.RWMutex
	docs   map[string]cachedDoc

	group singleflight.Group
}

// NewContentCache creates a cache over source. store may be nil.
func NewContentCache(source content.Source, store *Store, ttl time.Duration, pageSize, maxPages int, logger echo.Logger) *ContentCache {
	return &ContentCache{
		source:   source,
		store:    store,
		ttl:      ttl,
		pageSize: pageSize,
		maxPages: maxPages,
		logger:   logger,
		docs:     make(map[string]cachedDoc),
	}
}

// Invalidate clears the cache so the next read triggers a fresh load.
func (c *ContentCache) Invalidate() {
	c.mu.Lock()
	c.listing = nil
	c.all = nil
	c.mu.Unlock()
	c.docsMu.Lock()
	c.docs = make(map[string]cachedDoc)
	c.docsMu.Unlock()
}

// FirstPage returns the first page of the post listing.
func (c *ContentCache) FirstPage(ctx context.Context) (content.RawPage, error) {
	c.mu.RLock()
	if c.listing != nil && time.Since(c.listingFetched) < c.ttl {
		p := *c.listing
		c.mu.RUnlock()
		return p, nil
	}
	c.mu.RUnlock()

	v, err, _ := c.group.Do(listingKey, func() (any, error) {
		p, err := c.source.Query(ctx, content.PostListing(c.pageSize))
		stale := false
		if err != nil {
			snap, ok := c.listingSnapshot(err)
			if !ok {
				return content.RawPage{}, err
			}
			p, stale = snap, true
		} else if c.store != nil {
			if err := c.store.SavePage(listingKey, p); err != nil {
				c.logger.Warnf("snapshot listing: %v", err)
			}
		}
		c.mu.Lock()
		c.listing = &p
		c.listingFetched = time.Now()
		c.listingStale = stale
		c.mu.Unlock()
		return p, nil
	})
	if err != nil {
		return content.RawPage{}, err
	}
	return v.(content.RawPage), nil
}

func (c *ContentCache) listingSnapshot(cause error) (content.RawPage, bool) {
	if c.store == nil {
		return content.RawPage{}, false
	}
	p, at, err := c.store.GetPage(listingKey)
	if err != nil {
		return content.RawPage{}, false
	}
	c.logger.Warnf("content service unavailable, serving listing snapshot from %s: %v", at.Format(time.RFC3339), cause)
	return p, true
}

// Document returns the post with the given uid.
func (c *ContentCache) Document(ctx context.Context, uid string) (content.RawDocument, error) {
	c.docsMu.RLock()
	e, ok := c.docs[uid]
	c.docsMu.RUnlock()
	if ok && time.Since(e.fetched) < c.ttl {
		return e.doc, nil
	}

	v, err, _ := c.group.Do("doc:"+uid, func() (any, error) {
		d, err := c.source.GetByUID(ctx, docType, uid)
		switch {
		case errors.Is(err, content.ErrNotFound):
			return content.RawDocument{}, ErrNotFound
		case err != nil:
			if c.store == nil {
				return content.RawDocument{}, err
			}
			snap, serr := c.store.GetDocument(uid)
			if serr != nil {
				return content.RawDocument{}, err
			}
			c.logger.Warnf("content service unavailable, serving snapshot of %s: %v", uid, err)
			d = snap
		case c.store != nil:
			if err := c.store.SaveDocument(d); err != nil {
				c.logger.Warnf("snapshot %s: %v", uid, err)
			}
		}
		c.docsMu.Lock()
		c.docs[uid] = cachedDoc{doc: d, fetched: time.Now()}
		c.docsMu.Unlock()
		return d, nil
	})
	if err != nil {
		return content.RawDocument{}, err
	}
	return v.(content.RawDocument), nil
}

// Cached reports whether the document is in memory and fresh.
func (c *ContentCache) Cached(uid string) bool {
	c.docsMu.RLock()
	defer c.docsMu.RUnlock()
	e, ok := c.docs[uid]
	return ok && time.Since(e.fetched) < c.ttl
}

// Listed reports whether uid appears in the cached listing or summary walk.
func (c *ContentCache) Listed(uid string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.listing != nil {
		for _, d := range c.listing.Results {
			if d.UID == uid {
				return true
			}
		}
	}
	for _, s := range c.all {
		if s.ID == uid {
			return true
		}
	}
	return false
}

// AllSummaries walks the listing up to maxPages pages and returns every post
// in listing order. It backs the sitemap and the feed.
func (c *ContentCache) AllSummaries(ctx context.Context) ([]post.Summary, error) {
	c.mu.RLock()
	if c.all != nil && time.Since(c.allFetched) < c.ttl {
		all := c.all
		c.mu.RUnlock()
		return all, nil
	}
	c.mu.RUnlock()

	v, err, _ := c.group.Do("all", func() (any, error) {
		first, err := c.FirstPage(ctx)
		if err != nil {
			return nil, err
		}
		all := post.MapSummaries(first.Results)
		next := first.Next
		for i := 1; i < c.maxPages && !next.Exhausted(); i++ {
			p, err := c.source.Next(ctx, next)
			if err != nil {
				c.logger.Warnf("listing walk stopped after %d pages: %v", i, err)
				break
			}
			all = append(all, post.MapSummaries(p.Results)...)
			next = p.Next
		}
		c.mu.Lock()
		c.all = all
		c.allFetched = time.Now()
		c.mu.Unlock()
		return all, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]post.Summary), nil
}

// Prewarm loads the first listing page and every document on it, so the
// most recent posts render without waiting on the content service.
func (c *ContentCache) Prewarm(ctx context.Context) (int, error) {
	first, err := c.FirstPage(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, d := range first.Results {
		if d.UID == "" {
			continue
		}
		if _, err := c.Document(ctx, d.UID); err != nil {
			c.logger.Warnf("prewarm %s: %v", d.UID, err)
			continue
		}
		n++
	}
	return n, nil
}

// Stats reports what the cache currently holds.
func (c *ContentCache) Stats() CacheStats {
	c.mu.RLock()
	s := CacheStats{
		ListingFetched: c.listingFetched,
		ListingStale:   c.listingStale,
		AllFetched:     c.allFetched,
	}
	if c.listing == nil {
		s.ListingFetched = time.Time{}
	}
	c.mu.RUnlock()
	c.docsMu.RLock()
	s.Documents = len(c.docs)
	c.docsMu.RUnlock()
	return s
}
