package eta

import (
	"fmt"
	"sync"
	"time"

	"github.com/example/commute-matching/internal/geo"
)

// Cache is a small in-memory TTL cache of travel estimates keyed by
// pickup coordinates and hour of day.
type Cache struct {
	mu    sync.RWMutex
	store map[string]cacheEntry
	ttl   time.Duration
	now   func() time.Time
}

type cacheEntry struct {
	v  TravelEstimate
	ts time.Time
}

func NewCache(ttl time.Duration) *Cache {
	return &Cache{store: make(map[string]cacheEntry), ttl: ttl, now: time.Now}
}

func keyFor(p geo.Point, hour int) string {
	return fmt.Sprintf("%.5f,%.5f@%02d", p.Lat, p.Lng, hour)
}

// Get returns the cached estimate and true if present and not expired.
func (c *Cache) Get(p geo.Point, hour int) (TravelEstimate, bool) {
	k := keyFor(p, hour)
	c.mu.RLock()
	e, ok := c.store[k]
	c.mu.RUnlock()
	if !ok {
		return TravelEstimate{}, false
	}
	if c.now().Sub(e.ts) > c.ttl {
		c.mu.Lock()
		delete(c.store, k)
		c.mu.Unlock()
		return TravelEstimate{}, false
	}
	return e.v, true
}

func (c *Cache) Set(p geo.Point, hour int, v TravelEstimate) {
	k := keyFor(p, hour)
	c.mu.Lock()
	c.store[k] = cacheEntry{v: v, ts: c.now()}
	c.mu.Unlock()
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}
