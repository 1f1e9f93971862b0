package analyses

import (
	"sync"

	"github.com/Zeeeepa/graph-sitter-sub004/internal/analysis"
)

const defaultCacheSize = 16

// snapshotCache keeps the most recent snapshots and evicts the oldest insert first.
type snapshotCache struct {
	mu    sync.Mutex
	limit int
	order []string
	items map[string]*analysis.Snapshot
}

func newSnapshotCache(limit int) *snapshotCache {
	if limit <= 0 {
		limit = defaultCacheSize
	}
	return &snapshotCache{limit: limit, items: make(map[string]*analysis.Snapshot, limit)}
}

func (c *snapshotCache) get(key string) (*analysis.Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.items[key]
	return s, ok
}

func (c *snapshotCache) put(key string, s *analysis.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.items[key]; ok {
		c.items[key] = s
		return
	}
	for len(c.order) >= c.limit {
		delete(c.items, c.order[0])
		c.order = c.order[1:]
	}
	c.items[key] = s
	c.order = append(c.order, key)
}

func (c *snapshotCache) evict(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.items[key]; !ok {
		return
	}
	delete(c.items, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

func (c *snapshotCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
