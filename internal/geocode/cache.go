package geocode

import (
	"sync"
	"time"
)

// candidateCache caches lookup results per effective query for a fixed
// TTL. Expired entries are dropped lazily on read; the working set is a
// handful of recent queries, so no sweeper is needed.
type candidateCache struct {
	mu    sync.Mutex
	ttl   time.Duration
	items map[string]cachedResult
}

type cachedResult struct {
	candidates []Candidate
	expiresAt  time.Time
}

func newCandidateCache(ttl time.Duration) *candidateCache {
	return &candidateCache{
		ttl:   ttl,
		items: make(map[string]cachedResult),
	}
}

func (c *candidateCache) get(query string) ([]Candidate, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	item, ok := c.items[query]
	if !ok {
		return nil, false
	}
	if time.Now().After(item.expiresAt) {
		delete(c.items, query)
		return nil, false
	}
	return item.candidates, true
}

func (c *candidateCache) set(query string, candidates []Candidate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[query] = cachedResult{
		candidates: candidates,
		expiresAt:  time.Now().Add(c.ttl),
	}
}
