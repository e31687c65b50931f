package server

import (
	"sync"
	"time"

	"github.com/mj1618/wingman/internal/model"
	"github.com/mj1618/wingman/internal/platform"
)

// cacheKey identifies one tree read.
type cacheKey struct {
	Handle uintptr
	Depth  int
}

// cacheEntry holds a cached element tree with its timestamp.
type cacheEntry struct {
	root      model.Element
	timestamp time.Time
}

// TreeCache is a platform.TreeReader that reuses recent reads of the same
// window, so read_profile and read_chat issued together walk the tree once.
type TreeCache struct {
	reader  platform.TreeReader
	mu      sync.Mutex
	entries map[cacheKey]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewTreeCache wraps reader. A ttl of 0 disables caching.
func NewTreeCache(reader platform.TreeReader, ttl time.Duration) *TreeCache {
	return &TreeCache{
		reader:  reader,
		entries: make(map[cacheKey]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// ReadTree returns the cached tree when it is younger than the TTL,
// otherwise reads a fresh one.
func (c *TreeCache) ReadTree(handle uintptr, depth int) (model.Element, error) {
	if c.ttl <= 0 {
		return c.reader.ReadTree(handle, depth)
	}
	key := cacheKey{Handle: handle, Depth: depth}

	c.mu.Lock()
	if entry, ok := c.entries[key]; ok && c.now().Sub(entry.timestamp) < c.ttl {
		c.mu.Unlock()
		return entry.root, nil
	}
	c.mu.Unlock()

	root, err := c.reader.ReadTree(handle, depth)
	if err != nil {
		return model.Element{}, err
	}

	c.mu.Lock()
	c.entries[key] = cacheEntry{root: root, timestamp: c.now()}
	c.mu.Unlock()
	return root, nil
}

// Invalidate drops every entry for handle.
func (c *TreeCache) Invalidate(handle uintptr) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if k.Handle == handle {
			delete(c.entries, k)
		}
	}
}

// InvalidateAll clears the cache.
func (c *TreeCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[cacheKey]cacheEntry)
}
