package indexer

import (
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/spindrift-media/spindrift/internal/torznab"
)

const (
	// ResultCacheTTL is how long search results stay valid.
	ResultCacheTTL = 5 * time.Minute

	// resultCacheSize bounds the number of cached result sets across all
	// indexers. The LRU evicts the oldest entry when full.
	resultCacheSize = 1024
)

// ResultCache holds recent search results per indexer and query. Entries
// expire after ResultCacheTTL; the underlying LRU is safe for concurrent
// use.
type ResultCache struct {
	lru *expirable.LRU[string, []torznab.ReleaseInfo]
}

// NewResultCache creates a result cache with the given TTL. A zero ttl
// uses ResultCacheTTL.
func NewResultCache(ttl time.Duration) *ResultCache {
	if ttl <= 0 {
		ttl = ResultCacheTTL
	}
	return &ResultCache{
		lru: expirable.NewLRU[string, []torznab.ReleaseInfo](resultCacheSize, nil, ttl),
	}
}

// cacheKey scopes a query key to one indexer instance.
func cacheKey(indexerID uuid.UUID, q *torznab.Query) string {
	return indexerID.String() + ":" + q.CacheKey()
}

// Get returns the cached results for an indexer and query, if present and
// not expired.
func (c *ResultCache) Get(indexerID uuid.UUID, q *torznab.Query) ([]torznab.ReleaseInfo, bool) {
	return c.lru.Get(cacheKey(indexerID, q))
}

// Set stores results for an indexer and query.
func (c *ResultCache) Set(indexerID uuid.UUID, q *torznab.Query, releases []torznab.ReleaseInfo) {
	c.lru.Add(cacheKey(indexerID, q), releases)
}

// Purge drops every cached entry.
func (c *ResultCache) Purge() {
	c.lru.Purge()
}
