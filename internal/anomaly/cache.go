package anomaly

import (
	"container/list"
	"sync"

	"github.com/daniel-st3/ai-cfo-agent/internal/domain"
)

const defaultCacheSize = 256

// boundsCache is a thread-safe bounded LRU of forecast bounds keyed by the
// content hash of series+horizon. It is owned by the forecast detector so the
// lifetime and eviction policy of memoised model calls stay local and
// testable.
type boundsCache struct {
	mu      sync.Mutex
	maxSize int
	items   map[uint64]*list.Element
	order   *list.List
}

type boundsEntry struct {
	key    uint64
	bounds domain.ForecastBounds
}

func newBoundsCache(maxSize int) *boundsCache {
	if maxSize <= 0 {
		maxSize = defaultCacheSize
	}
	return &boundsCache{
		maxSize: maxSize,
		items:   make(map[uint64]*list.Element),
		order:   list.New(),
	}
}

func (c *boundsCache) get(key uint64) (domain.ForecastBounds, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return domain.ForecastBounds{}, false
	}
	c.order.MoveToFront(elem)
	return elem.Value.(*boundsEntry).bounds, true
}

func (c *boundsCache) put(key uint64, bounds domain.ForecastBounds) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.order.MoveToFront(elem)
		elem.Value.(*boundsEntry).bounds = bounds
		return
	}

	elem := c.order.PushFront(&boundsEntry{key: key, bounds: bounds})
	c.items[key] = elem

	for c.order.Len() > c.maxSize {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(*boundsEntry).key)
	}
}

func (c *boundsCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
