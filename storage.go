package zecs

import (
	"github.com/TheBitDrifter/mask"
)

// archetypes is the archetype store. Archetypes are append-only and their ids index asSlice;
// id 0 is always the empty archetype.
type archetypes struct {
	asSlice          []*archetype
	idsGroupedByMask map[mask.Mask]archetypeID
}

func newArchetypes() *archetypes {
	store := &archetypes{
		idsGroupedByMask: make(map[mask.Mask]archetypeID),
	}
	store.getOrCreate(nil)
	return store
}

func signatureOf(ids []ComponentID) mask.Mask {
	var m mask.Mask
	for _, id := range ids {
		m.Mark(uint32(id))
	}
	return m
}

// getOrCreate returns the archetype for the exact component set ids.
func (s *archetypes) getOrCreate(ids []ComponentID) *archetype {
	sorted := sortedComponentIDs(ids)
	signature := signatureOf(sorted)
	if id, found := s.idsGroupedByMask[signature]; found {
		return s.asSlice[id]
	}
	created := newArchetype(archetypeID(len(s.asSlice)), signature, sorted)
	s.asSlice = append(s.asSlice, created)
	s.idsGroupedByMask[signature] = created.id
	return created
}

func (s *archetypes) get(id archetypeID) *archetype {
	return s.asSlice[id]
}

// withComponent returns the destination archetype for adding cid to from.
func (s *archetypes) withComponent(from *archetype, cid ComponentID) *archetype {
	if id, ok := from.addEdges[cid]; ok {
		return s.asSlice[id]
	}
	ids := make([]ComponentID, 0, len(from.componentIDs)+1)
	ids = append(ids, from.componentIDs...)
	ids = append(ids, cid)
	dest := s.getOrCreate(ids)
	from.addEdges[cid] = dest.id
	dest.removeEdges[cid] = from.id
	return dest
}

// withoutComponent returns the destination archetype for removing cid from from.
func (s *archetypes) withoutComponent(from *archetype, cid ComponentID) *archetype {
	if id, ok := from.removeEdges[cid]; ok {
		return s.asSlice[id]
	}
	ids := make([]ComponentID, 0, len(from.componentIDs))
	for _, id := range from.componentIDs {
		if id != cid {
			ids = append(ids, id)
		}
	}
	dest := s.getOrCreate(ids)
	from.removeEdges[cid] = dest.id
	dest.addEdges[cid] = from.id
	return dest
}

// entityCount sums the rows of every archetype.
func (s *archetypes) entityCount() int {
	total := 0
	for _, arch := range s.asSlice {
		total += arch.Len()
	}
	return total
}
