package zecs

import (
	"sync"

	"github.com/TheBitDrifter/mask"
	"github.com/rotisserie/eris"
)

var _ Cache[string, any] = &SimpleCache[string, any]{}

func (c *SimpleCache[K, T]) GetIndex(key K) (int, bool) {
	index, ok := c.itemIndices[key]
	return index, ok
}

func (c *SimpleCache[K, T]) GetItem(index int) *T {
	return &c.items[index]
}

func (c *SimpleCache[K, T]) GetItem32(index uint32) *T {
	return &c.items[index]
}

func (c *SimpleCache[K, T]) Register(key K, item T) (int, error) {
	if len(c.itemIndices) >= c.maxCapacity {
		return -1, eris.Errorf("cache at maximum capacity (%d)", c.maxCapacity)
	}

	idx := len(c.items)
	c.itemIndices[key] = idx
	c.items = append(c.items, item)

	return idx, nil
}

func (c *SimpleCache[K, T]) Clear() {
	c.items = c.items[:0]
	clear(c.itemIndices)
}

// queryShape keys the cache: two queries with the same required and excluded sets match the
// same archetypes.
type queryShape struct {
	required mask.Mask
	excluded mask.Mask
}

func (s queryShape) matches(arch *archetype) bool {
	if !arch.signature.ContainsAll(s.required) {
		return false
	}
	// ContainsNone is false for an empty argument.
	return s.excluded.IsEmpty() || arch.signature.ContainsNone(s.excluded)
}

type matchedArchetypes struct {
	ids []archetypeID
	// scanned is how many archetypes of the store have been tested. Archetypes are never
	// removed, so only newer ones need checking.
	scanned int
}

// queryCache memoises archetype matches per query shape. Lookups come from concurrently
// running systems, hence the mutex.
type queryCache struct {
	mu    sync.Mutex
	cache Cache[queryShape, matchedArchetypes]
}

func newQueryCache(capacity int) *queryCache {
	if capacity < 1 {
		capacity = 1
	}
	return &queryCache{cache: FactoryNewCache[queryShape, matchedArchetypes](capacity)}
}

// match returns the ids of every archetype matching shape, appended to dst.
func (q *queryCache) match(store *archetypes, shape queryShape, dst []archetypeID) []archetypeID {
	q.mu.Lock()
	defer q.mu.Unlock()

	idx, ok := q.cache.GetIndex(shape)
	if !ok {
		var err error
		idx, err = q.cache.Register(shape, matchedArchetypes{})
		if err != nil {
			q.cache.Clear()
			idx, _ = q.cache.Register(shape, matchedArchetypes{})
		}
	}
	entry := q.cache.GetItem(idx)
	for ; entry.scanned < len(store.asSlice); entry.scanned++ {
		if shape.matches(store.asSlice[entry.scanned]) {
			entry.ids = append(entry.ids, archetypeID(entry.scanned))
		}
	}
	return append(dst, entry.ids...)
}
