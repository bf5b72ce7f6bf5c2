package zecs

type factory struct{}

// Factory groups the constructors for worlds, untyped queries and cursors.
var Factory factory

func (f factory) NewWorld(opts ...WorldOption) *World {
	return NewWorld(opts...)
}

func (f factory) NewQuery() QueryBuilder {
	return newQuery()
}

func (f factory) NewCursor(query QueryNode, world *World) *Cursor {
	return newCursor(query, world)
}

// FactoryNewComponent registers T and returns its typed handle.
func FactoryNewComponent[T any]() AccessibleComponent[T] {
	return AccessibleComponent[T]{id: ComponentIDFor[T]()}
}

func FactoryNewCache[K comparable, T any](cap int) Cache[K, T] {
	return &SimpleCache[K, T]{
		itemIndices: make(map[K]int),
		maxCapacity: cap,
	}
}
