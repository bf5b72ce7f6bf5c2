package zecs

import (
	"github.com/TheBitDrifter/mask"
)

type archetypeID uint32

var _ Archetype = &archetype{}

// archetype is the table of every entity sharing one exact component set. Row i of each
// column together with entities[i] describes one entity.
type archetype struct {
	id           archetypeID
	signature    mask.Mask
	componentIDs []ComponentID
	columns      []abstractColumn
	columnIndex  [MaxComponentTypes]int8
	entities     []Entity

	// Transition edges cached on first use.
	addEdges    map[ComponentID]archetypeID
	removeEdges map[ComponentID]archetypeID
}

func newArchetype(id archetypeID, signature mask.Mask, componentIDs []ComponentID) *archetype {
	arch := &archetype{
		id:           id,
		signature:    signature,
		componentIDs: componentIDs,
		columns:      make([]abstractColumn, len(componentIDs)),
		addEdges:     make(map[ComponentID]archetypeID),
		removeEdges:  make(map[ComponentID]archetypeID),
	}
	for i := range arch.columnIndex {
		arch.columnIndex[i] = -1
	}
	for i, cid := range componentIDs {
		arch.columns[i] = componentInfoFor(cid).newColumn()
		arch.columnIndex[cid] = int8(i)
	}
	return arch
}

func (a *archetype) ID() uint32 {
	return uint32(a.id)
}

func (a *archetype) Mask() mask.Mask {
	return a.signature
}

func (a *archetype) Len() int {
	return len(a.entities)
}

func (a *archetype) Components() []ComponentID {
	return a.componentIDs
}

func (a *archetype) has(id ComponentID) bool {
	return a.columnIndex[id] >= 0
}

func (a *archetype) columnFor(id ComponentID) abstractColumn {
	idx := a.columnIndex[id]
	if idx < 0 {
		return nil
	}
	return a.columns[idx]
}

// appendEntity adds a zero-initialised row and returns its index.
func (a *archetype) appendEntity(e Entity) int {
	for _, col := range a.columns {
		col.extend()
	}
	a.entities = append(a.entities, e)
	return len(a.entities) - 1
}

// swapRemove deletes row by moving the last row into it. It returns the entity that now
// occupies row, if any.
func (a *archetype) swapRemove(row int) (Entity, bool) {
	last := len(a.entities) - 1
	for _, col := range a.columns {
		col.swapRemove(row)
	}
	moved := a.entities[last]
	a.entities[row] = moved
	a.entities = a.entities[:last]
	if row == last {
		return Entity{}, false
	}
	return moved, true
}

// copyRowTo appends the row to dst, copying every column both archetypes share and
// zero-initialising the rest. It returns the new row in dst.
func (a *archetype) copyRowTo(dst *archetype, row int, e Entity) int {
	for i, cid := range dst.componentIDs {
		if src := a.columnFor(cid); src != nil {
			dst.columns[i].appendFrom(src, row)
			continue
		}
		dst.columns[i].extend()
	}
	dst.entities = append(dst.entities, e)
	return len(dst.entities) - 1
}
