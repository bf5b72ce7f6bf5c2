package zecs

// AccessibleComponent is a typed handle for component T. It is usable as a query term and
// provides methods to retrieve components through different access patterns.
type AccessibleComponent[T any] struct {
	id ComponentID
}

// ID returns the component identifier of T.
func (c AccessibleComponent[T]) ID() ComponentID {
	return c.id
}

// Value pairs the handle with a concrete value for SpawnWith and InsertValues.
func (c AccessibleComponent[T]) Value(v T) ComponentValue {
	return componentValue[T]{id: c.id, value: v}
}

// GetFromCursor retrieves the component for the entity at the cursor position. The cursor
// must be positioned on an archetype that contains T.
func (c AccessibleComponent[T]) GetFromCursor(cursor *Cursor) *T {
	col := cursor.currentArchetype.columnFor(c.id)
	return col.(*column[T]).get(cursor.entityIndex - 1)
}

// GetFromCursorSafe retrieves the component, reporting whether the archetype at the cursor
// position stores it.
func (c AccessibleComponent[T]) GetFromCursorSafe(cursor *Cursor) (bool, *T) {
	if !c.CheckCursor(cursor) {
		return false, nil
	}
	return true, c.GetFromCursor(cursor)
}

// CheckCursor determines if the component exists in the archetype at the cursor position.
func (c AccessibleComponent[T]) CheckCursor(cursor *Cursor) bool {
	return cursor.currentArchetype != nil && cursor.currentArchetype.has(c.id)
}

// GetFromEntity retrieves a pointer to the component stored for entity.
func (c AccessibleComponent[T]) GetFromEntity(w *World, entity Entity) (*T, error) {
	return GetMut[T](w, entity)
}

type componentValue[T any] struct {
	id    ComponentID
	value T
}

func (v componentValue[T]) ID() ComponentID {
	return v.id
}

func (v componentValue[T]) assign(col abstractColumn, row int) {
	col.(*column[T]).data[row] = v.value
}

// NewValue pairs a component value with its type for SpawnWith and InsertValues.
func NewValue[T any](v T) ComponentValue {
	return componentValue[T]{id: ComponentIDFor[T](), value: v}
}
