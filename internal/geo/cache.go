package geo

import (
	"container/list"
	"sync"
)

// projections holds parsed UTM transforms keyed by proj4 definition. A map
// build touches one zone, so a handful of entries covers every session.
var projections = newProjectionCache(16)

// projectionCache is a thread-safe LRU of parsed projections.
type projectionCache struct {
	mu      sync.Mutex
	limit   int
	order   *list.List // front is most recently used
	entries map[string]*list.Element
}

type cached struct {
	def string
	p   *Projection
}

func newProjectionCache(limit int) *projectionCache {
	return &projectionCache{
		limit:   limit,
		order:   list.New(),
		entries: make(map[string]*list.Element),
	}
}

// getOrLoad returns the projection for def, calling load on a miss. Failed
// loads are not cached. The lock is held across load so concurrent builds
// for one zone parse it once.
func (c *projectionCache) getOrLoad(def string, load func() (*Projection, error)) (*Projection, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[def]; ok {
		c.order.MoveToFront(el)
		return el.Value.(*cached).p, nil
	}

	p, err := load()
	if err != nil {
		return nil, err
	}
	c.entries[def] = c.order.PushFront(&cached{def: def, p: p})
	for c.order.Len() > c.limit {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cached).def)
	}
	return p, nil
}

func (c *projectionCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
