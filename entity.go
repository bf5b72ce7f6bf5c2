package zecs

import (
	"fmt"
	"sync"
)

// Entity is a generation-checked handle to a simulated object. Two handles are equal only
// when both the index and the generation match. The zero Entity is never valid.
type Entity struct {
	Index      uint32
	Generation uint32
}

func (e Entity) String() string {
	return fmt.Sprintf("%d:%d", e.Index, e.Generation)
}

type entityLocation struct {
	archetype archetypeID
	row       int
}

type entityRecord struct {
	generation uint32
	alive      bool
	reserved   bool
	location   entityLocation
}

// entityAllocator issues and recycles entity indices. Recycled slots keep their bumped
// generation so stale handles never match again.
type entityAllocator struct {
	mu       sync.RWMutex
	records  []entityRecord
	free     []uint32
	reserved int
}

func (a *entityAllocator) next() Entity {
	if n := len(a.free); n > 0 {
		index := a.free[n-1]
		a.free = a.free[:n-1]
		return Entity{Index: index, Generation: a.records[index].generation}
	}
	index := uint32(len(a.records))
	a.records = append(a.records, entityRecord{generation: 1})
	return Entity{Index: index, Generation: 1}
}

func (a *entityAllocator) spawn() Entity {
	a.mu.Lock()
	defer a.mu.Unlock()
	e := a.next()
	a.records[e.Index].alive = true
	return e
}

// reserve hands out an identity that becomes valid once activate is called. Safe to call
// from concurrently running systems.
func (a *entityAllocator) reserve() Entity {
	a.mu.Lock()
	defer a.mu.Unlock()
	e := a.next()
	a.records[e.Index].reserved = true
	a.reserved++
	return e
}

func (a *entityAllocator) activate(e Entity) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if int(e.Index) >= len(a.records) {
		return false
	}
	rec := &a.records[e.Index]
	if !rec.reserved || rec.generation != e.Generation {
		return false
	}
	rec.reserved = false
	rec.alive = true
	a.reserved--
	return true
}

// release returns a reserved but never activated identity to the free list.
func (a *entityAllocator) release(e Entity) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if int(e.Index) >= len(a.records) {
		return
	}
	rec := &a.records[e.Index]
	if !rec.reserved || rec.generation != e.Generation {
		return
	}
	rec.reserved = false
	rec.generation++
	a.reserved--
	a.free = append(a.free, e.Index)
}

func (a *entityAllocator) despawn(e Entity) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.validLocked(e) {
		return EntityNotValidError{Entity: e}
	}
	rec := &a.records[e.Index]
	rec.alive = false
	rec.generation++
	rec.location = entityLocation{}
	a.free = append(a.free, e.Index)
	return nil
}

func (a *entityAllocator) isValid(e Entity) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.validLocked(e)
}

func (a *entityAllocator) validLocked(e Entity) bool {
	if int(e.Index) >= len(a.records) {
		return false
	}
	rec := a.records[e.Index]
	return rec.alive && rec.generation == e.Generation
}

func (a *entityAllocator) location(e Entity) (entityLocation, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if int(e.Index) >= len(a.records) {
		return entityLocation{}, false
	}
	rec := a.records[e.Index]
	if !rec.alive || rec.generation != e.Generation {
		return entityLocation{}, false
	}
	return rec.location, true
}

// setLocation is only called inside the world's structural window.
func (a *entityAllocator) setLocation(index uint32, loc entityLocation) {
	a.mu.Lock()
	a.records[index].location = loc
	a.mu.Unlock()
}

func (a *entityAllocator) alive() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.records) - len(a.free) - a.reserved
}
