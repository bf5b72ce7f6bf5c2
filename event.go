package zecs

import (
	"reflect"
	"slices"
	"sync"
)

// eventQueue is the type-erased half of eventBuffer the bus needs to swap every queue.
type eventQueue interface {
	swap()
}

// eventBuffer double-buffers one event type. Senders append to writing; readers only ever
// see reading, which holds what was sent during the previous tick.
type eventBuffer[T any] struct {
	mu      sync.RWMutex
	reading []T
	writing []T
	// generation counts swaps so readers know when reading has been replaced.
	generation uint64
}

func (b *eventBuffer[T]) send(v T) {
	b.mu.Lock()
	b.writing = append(b.writing, v)
	b.mu.Unlock()
}

// swap promotes the writing buffer and recycles the old reading buffer as the new, empty,
// writing buffer. Events nobody read are dropped here.
func (b *eventBuffer[T]) swap() {
	b.mu.Lock()
	clear(b.reading)
	b.reading, b.writing = b.writing, b.reading[:0]
	b.generation++
	b.mu.Unlock()
}

func (b *eventBuffer[T]) read() ([]T, uint64) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.reading, b.generation
}

func (b *eventBuffer[T]) drain() []T {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := slices.Clone(b.reading)
	clear(b.reading)
	b.reading = b.reading[:0]
	return out
}

type eventBus struct {
	mu     sync.RWMutex
	ids    map[reflect.Type]uint32
	queues map[reflect.Type]eventQueue
	order  []eventQueue
}

func newEventBus() *eventBus {
	return &eventBus{
		ids:    make(map[reflect.Type]uint32),
		queues: make(map[reflect.Type]eventQueue),
	}
}

// bufferFor returns the buffer for T, creating it on first use, together with its
// world-local id.
func bufferFor[T any](bus *eventBus) (*eventBuffer[T], uint32) {
	typ := reflect.TypeFor[T]()

	bus.mu.RLock()
	q, ok := bus.queues[typ]
	id := bus.ids[typ]
	bus.mu.RUnlock()
	if ok {
		return q.(*eventBuffer[T]), id
	}

	bus.mu.Lock()
	defer bus.mu.Unlock()
	if q, ok := bus.queues[typ]; ok {
		return q.(*eventBuffer[T]), bus.ids[typ]
	}
	buf := &eventBuffer[T]{}
	id = uint32(len(bus.order))
	bus.ids[typ] = id
	bus.queues[typ] = buf
	bus.order = append(bus.order, buf)
	return buf, id
}

// swap is called once per tick after every stage has run.
func (bus *eventBus) swap() {
	bus.mu.RLock()
	defer bus.mu.RUnlock()
	for _, q := range bus.order {
		q.swap()
	}
}

// Send queues v for delivery during the next tick.
func Send[T any](w *World, v T) {
	buf, _ := bufferFor[T](w.events)
	buf.send(v)
}

// ReadEvents returns the events delivered for the current tick without consuming them.
// The slice is only valid until the next swap.
func ReadEvents[T any](w *World) []T {
	buf, _ := bufferFor[T](w.events)
	events, _ := buf.read()
	return events
}

// DrainEvents returns and consumes the events delivered for the current tick.
func DrainEvents[T any](w *World) []T {
	buf, _ := bufferFor[T](w.events)
	return buf.drain()
}

// LastEvent returns the most recent event delivered for the current tick.
func LastEvent[T any](w *World) (T, bool) {
	events := ReadEvents[T](w)
	if len(events) == 0 {
		var zero T
		return zero, false
	}
	return events[len(events)-1], true
}
