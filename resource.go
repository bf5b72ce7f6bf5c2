package zecs

import (
	"reflect"
	"sync"
)

// resourceStore holds at most one value per type. Values are boxed as *T so pointers handed
// out by GetResourceMut survive overwrites.
type resourceStore struct {
	mu     sync.RWMutex
	ids    map[reflect.Type]uint32
	values map[reflect.Type]any
}

func newResourceStore() *resourceStore {
	return &resourceStore{
		ids:    make(map[reflect.Type]uint32),
		values: make(map[reflect.Type]any),
	}
}

// idFor returns the world-local id used to track access to the resource type.
func (s *resourceStore) idFor(typ reflect.Type) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.ids[typ]
	if !ok {
		id = uint32(len(s.ids))
		s.ids[typ] = id
	}
	return id
}

func (s *resourceStore) lookup(typ reflect.Type) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[typ]
	return v, ok
}

func insertResource[T any](s *resourceStore, v T) {
	typ := reflect.TypeFor[T]()
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.values[typ]; ok {
		*existing.(*T) = v
		return
	}
	ptr := new(T)
	*ptr = v
	s.values[typ] = ptr
}

func removeResource[T any](s *resourceStore) (T, bool) {
	typ := reflect.TypeFor[T]()
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.values[typ]
	if !ok {
		var zero T
		return zero, false
	}
	delete(s.values, typ)
	return *existing.(*T), true
}

func resourcePtr[T any](s *resourceStore) (*T, bool) {
	v, ok := s.lookup(reflect.TypeFor[T]())
	if !ok {
		return nil, false
	}
	return v.(*T), true
}

// InsertResource stores v as the world's T, replacing any previous value.
func InsertResource[T any](w *World, v T) error {
	if w.Locked() {
		return LockedWorldError{}
	}
	insertResource(w.resources, v)
	return nil
}

// RemoveResource deletes the world's T and returns it.
func RemoveResource[T any](w *World) (T, bool, error) {
	if w.Locked() {
		var zero T
		return zero, false, LockedWorldError{}
	}
	v, ok := removeResource[T](w.resources)
	return v, ok, nil
}

// GetResource returns a copy of the world's T. Absence is reported, not an error.
func GetResource[T any](w *World) (T, bool) {
	ptr, ok := resourcePtr[T](w.resources)
	if !ok {
		var zero T
		return zero, false
	}
	return *ptr, true
}

// GetResourceMut returns a pointer to the world's T, valid until the resource is removed.
func GetResourceMut[T any](w *World) (*T, bool) {
	return resourcePtr[T](w.resources)
}

func HasResource[T any](w *World) bool {
	_, ok := resourcePtr[T](w.resources)
	return ok
}
