package cache

import (
	"context"
	"sync"
	"time"

	"github.com/matzehuels/formulagraph/pkg/graph"
	"github.com/matzehuels/formulagraph/pkg/observability"
)

// DefaultRecordTTL is how long a fetched record set stays fresh. Records
// change rarely, so a few minutes of staleness on reads that race a write
// from another process is acceptable.
const DefaultRecordTTL = 5 * time.Minute

// Fetcher loads the full record set from the backing store.
type Fetcher func(ctx context.Context) (*graph.Dataset, error)

// RecordCache is a short-TTL, get-or-fetch cache of the last-fetched record
// set. It is invalidated wholesale — never partially updated — so the next
// read after a write observes fully fresh data rather than a stale-plus-
// patched hybrid.
//
// The cache is owned by the caller and passed by reference into whichever
// component needs current records.
type RecordCache struct {
	fetch Fetcher
	ttl   time.Duration

	mu        sync.Mutex
	data      *graph.Dataset
	fetchedAt time.Time
}

// NewRecordCache creates a record cache over the given fetcher.
// A ttl of 0 uses DefaultRecordTTL.
func NewRecordCache(fetch Fetcher, ttl time.Duration) *RecordCache {
	if ttl <= 0 {
		ttl = DefaultRecordTTL
	}
	return &RecordCache{fetch: fetch, ttl: ttl}
}

// Get returns the cached record set, fetching when the cache is empty or the
// TTL has elapsed. A fetch failure leaves any previously cached data intact
// and returns the error.
func (c *RecordCache) Get(ctx context.Context) (*graph.Dataset, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.data != nil && time.Since(c.fetchedAt) < c.ttl {
		observability.Cache().OnCacheHit(ctx, "records")
		return c.data, nil
	}

	observability.Cache().OnCacheMiss(ctx, "records")
	data, err := c.fetch(ctx)
	if err != nil {
		return nil, err
	}
	c.data = data
	c.fetchedAt = time.Now()
	return data, nil
}

// Invalidate drops the cached record set. Call after every successful write.
func (c *RecordCache) Invalidate() {
	c.mu.Lock()
	c.data = nil
	c.fetchedAt = time.Time{}
	c.mu.Unlock()
}
