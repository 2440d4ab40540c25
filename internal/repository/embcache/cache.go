// Package embcache memoizes embedding vectors so repeated texts never pay
// the provider twice: an in-process LRU in front of an optional shared
// key-value tier, wrapped around any domain.Embedder.
package embcache

import (
	"container/list"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// DefaultMaxEntries bounds the LRU when no capacity is configured.
const DefaultMaxEntries = 4096

// Stats is a point-in-time counter snapshot.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Entries   int
	Bytes     int64
	Capacity  int
}

// Cache is a bounded LRU keyed by (model, text). All list and map mutation
// happens under one mutex; get, add and evict are O(1). Concurrent misses
// for the same key are collapsed through a singleflight group, and the lock
// is never held across a compute call.
type Cache struct {
	mu    sync.Mutex
	max   int
	ll    *list.List
	items map[string]*list.Element
	bytes int64

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64

	flight singleflight.Group
}

type entry struct {
	key string
	vec []float32
}

// NewCache creates an LRU bounded at maxEntries (DefaultMaxEntries when
// non-positive).
func NewCache(maxEntries int) *Cache {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Cache{
		max:   maxEntries,
		ll:    list.New(),
		items: make(map[string]*list.Element),
	}
}

// Key derives the cache key for a (model, text) pair. Hashing keeps memory
// independent of text size and never collides across models.
func Key(model, text string) string {
	h := sha256.Sum256([]byte(model + "\x00" + text))
	return hex.EncodeToString(h[:])
}

// Get returns the cached vector for (model, text) and counts the lookup.
func (c *Cache) Get(model, text string) ([]float32, bool) {
	vec, ok := c.lookup(Key(model, text))
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return vec, ok
}

// Add stores the vector for (model, text), evicting the least recently used
// entry when over capacity.
func (c *Cache) Add(model, text string, vec []float32) {
	c.add(Key(model, text), vec)
}

// GetOrCompute returns the cached vector or runs compute to fill the slot.
// Concurrent callers for the same key share one compute call. A failed
// compute stores nothing; the error comes back annotated with the model and
// the original chain intact.
func (c *Cache) GetOrCompute(
	ctx context.Context, model, text string,
	compute func(ctx context.Context) ([]float32, error),
) ([]float32, error) {
	key := Key(model, text)

	if vec, ok := c.lookup(key); ok {
		c.hits.Add(1)
		return vec, nil
	}
	c.misses.Add(1)

	v, err, _ := c.flight.Do(key, func() (any, error) {
		// A flight that completed between the miss and Do may have already
		// filled the slot.
		if vec, ok := c.lookup(key); ok {
			return vec, nil
		}
		vec, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		c.add(key, vec)
		return vec, nil
	})
	if err != nil {
		return nil, fmt.Errorf("embed with %s: %w", model, err)
	}
	return v.([]float32), nil
}

// Len returns the current entry count.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

// Stats returns a counter snapshot.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	entries := c.ll.Len()
	bytes := c.bytes
	c.mu.Unlock()

	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		Entries:   entries,
		Bytes:     bytes,
		Capacity:  c.max,
	}
}

// Purge drops all entries. Counters keep their values.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ll.Init()
	c.items = make(map[string]*list.Element)
	c.bytes = 0
}

func (c *Cache) lookup(key string) ([]float32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return nil, false
	}
	c.ll.MoveToFront(el)
	return cloneVec(el.Value.(*entry).vec), true
}

func (c *Cache) add(key string, vec []float32) {
	stored := cloneVec(vec)

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		ent := el.Value.(*entry)
		c.bytes += int64(len(stored)-len(ent.vec)) * 4
		ent.vec = stored
		c.ll.MoveToFront(el)
		return
	}

	c.items[key] = c.ll.PushFront(&entry{key: key, vec: stored})
	c.bytes += int64(len(stored)) * 4

	for c.ll.Len() > c.max {
		oldest := c.ll.Back()
		if oldest == nil {
			break
		}
		ent := oldest.Value.(*entry)
		c.ll.Remove(oldest)
		delete(c.items, ent.key)
		c.bytes -= int64(len(ent.vec)) * 4
		c.evictions.Add(1)
	}
}

// cloneVec isolates cached vectors from caller mutation in both directions.
func cloneVec(v []float32) []float32 {
	if v == nil {
		return nil
	}
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
