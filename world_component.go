package zecs

// Insert attaches v to e, overwriting the previous value when e already has a T. Adding a
// new component type moves the entity to the matching archetype.
func Insert[T any](w *World, e Entity, v T) error {
	if w.Locked() {
		return LockedWorldError{}
	}
	return w.insertValue(e, componentValue[T]{id: ComponentIDFor[T](), value: v})
}

// Remove detaches T from e and returns the removed value.
func Remove[T any](w *World, e Entity) (T, error) {
	var zero T
	if w.Locked() {
		return zero, LockedWorldError{}
	}
	cid := ComponentIDFor[T]()
	loc, ok := w.entities.location(e)
	if !ok {
		return zero, EntityNotValidError{Entity: e}
	}
	arch := w.archetypes.get(loc.archetype)
	col := arch.columnFor(cid)
	if col == nil {
		return zero, ComponentNotFoundError{Entity: e, Component: componentInfoFor(cid).name}
	}
	value := *col.(*column[T]).get(loc.row)
	w.move(e, loc, arch, w.archetypes.withoutComponent(arch, cid))
	return value, nil
}

// Get returns a copy of e's T. The second result is false when e is not valid or has no T.
func Get[T any](w *World, e Entity) (T, bool) {
	ptr, err := GetMut[T](w, e)
	if err != nil {
		var zero T
		return zero, false
	}
	return *ptr, true
}

// GetMut returns a pointer into e's row. It stays valid until the entity is next moved,
// which cannot happen while the world is locked.
func GetMut[T any](w *World, e Entity) (*T, error) {
	cid := ComponentIDFor[T]()
	loc, ok := w.entities.location(e)
	if !ok {
		return nil, EntityNotValidError{Entity: e}
	}
	col := w.archetypes.get(loc.archetype).columnFor(cid)
	if col == nil {
		return nil, ComponentNotFoundError{Entity: e, Component: componentInfoFor(cid).name}
	}
	return col.(*column[T]).get(loc.row), nil
}

func Has[T any](w *World, e Entity) bool {
	loc, ok := w.entities.location(e)
	if !ok {
		return false
	}
	return w.archetypes.get(loc.archetype).has(ComponentIDFor[T]())
}
