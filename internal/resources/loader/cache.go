package loader

import (
	"strings"
	"sync"

	"github.com/ternarybob/promptd/internal/resources/model"
)

// cache is the per-loader, writer-private id -> Resource store. The
// hot-reload manager is the only external invalidation channel (spec.md
// §4.4, §4.7); nothing outside this package mutates it directly.
type cache struct {
	mu      sync.RWMutex
	entries map[string]*model.Resource
	stats   model.CacheStats
}

func newCache() *cache {
	return &cache{entries: make(map[string]*model.Resource)}
}

func normalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

func (c *cache) get(id string) (*model.Resource, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.entries[normalizeID(id)]
	if ok {
		c.stats.Hits++
	} else {
		c.stats.Misses++
	}
	return r, ok
}

// peek is like get but does not affect hit/miss counters, used by
// exists() which is documented as a short-circuit test, not a load.
func (c *cache) peek(id string) (*model.Resource, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.entries[normalizeID(id)]
	return r, ok
}

func (c *cache) put(id string, r *model.Resource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[normalizeID(id)] = r
}

func (c *cache) recordError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats.Errors++
}

func (c *cache) clear(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, normalizeID(id))
}

func (c *cache) clearAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*model.Resource)
}

func (c *cache) snapshot() map[string]*model.Resource {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]*model.Resource, len(c.entries))
	for k, v := range c.entries {
		out[k] = v
	}
	return out
}

func (c *cache) statsSnapshot() model.CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}
