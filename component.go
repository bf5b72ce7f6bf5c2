package zecs

import (
	"reflect"
	"slices"
	"sync"
)

// MaxComponentTypes bounds the number of distinct component types, since every archetype
// signature is a fixed-width mask.
const MaxComponentTypes = 64

// ComponentID is a process-wide stable identifier for a component payload type.
type ComponentID uint32

// Component represents a data attribute/state that can be attached to entities.
// Components can be used to create queries for entities.
type Component interface {
	ID() ComponentID
}

// ComponentValue is a component type paired with a value, used to spawn or insert
// several components at once.
type ComponentValue interface {
	Component
	assign(col abstractColumn, row int)
}

type componentInfo struct {
	id        ComponentID
	typ       reflect.Type
	name      string
	newColumn columnFactory
}

var components = struct {
	sync.RWMutex
	byType map[reflect.Type]ComponentID
	infos  []componentInfo
}{
	byType: make(map[reflect.Type]ComponentID),
}

// ComponentIDFor returns the identifier of T, registering T on first use. It panics once
// MaxComponentTypes distinct types have been registered.
func ComponentIDFor[T any]() ComponentID {
	typ := reflect.TypeFor[T]()

	components.RLock()
	id, ok := components.byType[typ]
	components.RUnlock()
	if ok {
		return id
	}

	components.Lock()
	defer components.Unlock()
	if id, ok := components.byType[typ]; ok {
		return id
	}
	if len(components.infos) >= MaxComponentTypes {
		panic(ComponentLimitError{Component: typ.String()})
	}
	id = ComponentID(len(components.infos))
	components.infos = append(components.infos, componentInfo{
		id:        id,
		typ:       typ,
		name:      componentName(typ),
		newColumn: newColumnFactory[T](),
	})
	components.byType[typ] = id
	return id
}

func componentInfoFor(id ComponentID) componentInfo {
	components.RLock()
	defer components.RUnlock()
	return components.infos[id]
}

// componentIDByName resolves a registered component by its name.
func componentIDByName(name string) (ComponentID, bool) {
	components.RLock()
	defer components.RUnlock()
	for _, info := range components.infos {
		if info.name == name {
			return info.id, true
		}
	}
	return 0, false
}

func componentName(typ reflect.Type) string {
	if typ.Name() != "" {
		return typ.Name()
	}
	return typ.String()
}

// sortedComponentIDs returns a sorted, deduplicated copy of ids.
func sortedComponentIDs(ids []ComponentID) []ComponentID {
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}
