package zecs

import (
	"errors"
	"testing"
)

// TestArchetypeCreation tests the creation and reuse of archetypes
func TestArchetypeCreation(t *testing.T) {
	posComp := FactoryNewComponent[Position]()
	velComp := FactoryNewComponent[Velocity]()
	healthComp := FactoryNewComponent[Health]()

	tests := []struct {
		name                string
		firstComponents     []Component
		secondComponents    []Component
		expectSameArchetype bool
	}{
		{
			name:                "Identical components",
			firstComponents:     []Component{posComp, velComp},
			secondComponents:    []Component{posComp, velComp},
			expectSameArchetype: true,
		},
		{
			name:                "Different order",
			firstComponents:     []Component{posComp, velComp},
			secondComponents:    []Component{velComp, posComp},
			expectSameArchetype: true,
		},
		{
			name:                "Duplicate components",
			firstComponents:     []Component{posComp, posComp},
			secondComponents:    []Component{posComp},
			expectSameArchetype: true,
		},
		{
			name:                "Different components",
			firstComponents:     []Component{posComp},
			secondComponents:    []Component{velComp},
			expectSameArchetype: false,
		},
		{
			name:                "Superset components",
			firstComponents:     []Component{posComp},
			secondComponents:    []Component{posComp, velComp, healthComp},
			expectSameArchetype: false,
		},
	}

	ids := func(comps []Component) []ComponentID {
		out := make([]ComponentID, len(comps))
		for i, c := range comps {
			out[i] = c.ID()
		}
		return out
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newArchetypes()

			archetype1 := store.getOrCreate(ids(tt.firstComponents))
			archetype2 := store.getOrCreate(ids(tt.secondComponents))

			sameArchetype := archetype1.ID() == archetype2.ID()
			if sameArchetype != tt.expectSameArchetype {
				t.Errorf("Archetypes same: %v, expected: %v", sameArchetype, tt.expectSameArchetype)
			}
			if len(archetype1.columns) != len(archetype1.componentIDs) {
				t.Errorf("Archetype has %d columns for %d components", len(archetype1.columns), len(archetype1.componentIDs))
			}
		})
	}
}

func TestEmptyArchetypeExists(t *testing.T) {
	store := newArchetypes()
	if len(store.asSlice) != 1 || len(store.asSlice[0].componentIDs) != 0 {
		t.Fatalf("new store should hold only the empty archetype")
	}
	if got := store.getOrCreate(nil); got.id != 0 {
		t.Errorf("empty archetype id = %d, want 0", got.id)
	}
}

func TestTransitionEdgesAreCached(t *testing.T) {
	store := newArchetypes()
	posID := ComponentIDFor[Position]()

	empty := store.getOrCreate(nil)
	withPos := store.withComponent(empty, posID)
	if got := store.withComponent(empty, posID); got != withPos {
		t.Errorf("withComponent returned a different archetype on second call")
	}
	if back := store.withoutComponent(withPos, posID); back != empty {
		t.Errorf("withoutComponent(withComponent(x)) = archetype %d, want %d", back.id, empty.id)
	}
	if empty.addEdges[posID] != withPos.id || withPos.removeEdges[posID] != empty.id {
		t.Errorf("transition edges not recorded")
	}
}

// TestEntityDestruction tests destroying entities
func TestEntityDestruction(t *testing.T) {
	world := NewWorld()
	posComp := FactoryNewComponent[Position]()

	entities, err := world.NewEntities(10, posComp)
	if err != nil {
		t.Fatalf("Failed to create entities: %v", err)
	}
	for i, e := range entities {
		p, _ := posComp.GetFromEntity(world, e)
		p.X = float64(i)
	}

	for _, e := range []Entity{entities[0], entities[2], entities[4], entities[6], entities[8]} {
		if err := world.Despawn(e); err != nil {
			t.Fatalf("Failed to destroy entity: %v", err)
		}
	}

	cursor := Factory.NewCursor(Factory.NewQuery().And(posComp), world)
	if count := cursor.TotalMatched(); count != 5 {
		t.Errorf("Entity count after destruction: %d, want 5", count)
	}

	// Swap-remove must keep every survivor pointing at its own row.
	for i, e := range entities {
		if i%2 == 0 {
			continue
		}
		p, ok := Get[Position](world, e)
		if !ok || p.X != float64(i) {
			t.Errorf("entity %v Position = %v, want X=%d", e, p, i)
		}
	}
}

// Inserting or removing a component conserves the total row count and leaves every other
// entity's values untouched.
func TestMigrationConservesRows(t *testing.T) {
	world := NewWorld()

	var entities []Entity
	for i := 0; i < 20; i++ {
		e, _ := world.SpawnWith(NewValue(Position{X: float64(i), Y: float64(-i)}))
		entities = append(entities, e)
	}

	snapshot := func() map[Entity]Position {
		out := make(map[Entity]Position)
		for _, e := range entities {
			if p, ok := Get[Position](world, e); ok {
				out[e] = p
			}
		}
		return out
	}

	for i, target := range entities {
		before := snapshot()
		rowsBefore := world.archetypes.entityCount()

		var err error
		if i%2 == 0 {
			err = Insert(world, target, Velocity{X: 1})
		} else {
			err = Insert(world, target, Health{Current: i})
			if err == nil {
				_, err = Remove[Health](world, target)
			}
		}
		if err != nil {
			t.Fatalf("migration of %v failed: %v", target, err)
		}

		if rows := world.archetypes.entityCount(); rows != rowsBefore {
			t.Errorf("row count changed from %d to %d", rowsBefore, rows)
		}
		after := snapshot()
		for e, p := range before {
			if after[e] != p {
				t.Errorf("entity %v Position changed from %v to %v", e, p, after[e])
			}
		}
	}
}

func TestInsertGetRemove(t *testing.T) {
	world := NewWorld()
	e, _ := world.Spawn()

	if err := Insert(world, e, Health{Current: 3, Max: 5}); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if got, ok := Get[Health](world, e); !ok || got != (Health{Current: 3, Max: 5}) {
		t.Errorf("Get() = %v, %v, want {3 5}, true", got, ok)
	}

	// Insert on an existing component overwrites in place.
	archBefore := world.ArchetypeCount()
	if err := Insert(world, e, Health{Current: 4, Max: 5}); err != nil {
		t.Fatalf("Insert() overwrite error = %v", err)
	}
	if got, _ := Get[Health](world, e); got.Current != 4 {
		t.Errorf("overwritten Health.Current = %d, want 4", got.Current)
	}
	if world.ArchetypeCount() != archBefore {
		t.Errorf("overwrite created a new archetype")
	}

	removed, err := Remove[Health](world, e)
	if err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if removed.Current != 4 {
		t.Errorf("Remove() returned %v, want Current=4", removed)
	}
	if _, ok := Get[Health](world, e); ok {
		t.Errorf("Get() after Remove() found a value")
	}
	if Has[Health](world, e) {
		t.Errorf("Has() after Remove() = true")
	}

	_, err = Remove[Health](world, e)
	if !errors.Is(err, ErrEntityDontHaveComponent) {
		t.Errorf("second Remove() error = %v, want ErrEntityDontHaveComponent", err)
	}
	var notFound ComponentNotFoundError
	if !errors.As(err, &notFound) || notFound.Component != "Health" {
		t.Errorf("second Remove() error = %#v, want ComponentNotFoundError for Health", err)
	}
}

func TestGetMutWritesThrough(t *testing.T) {
	world := NewWorld()
	e, _ := world.SpawnWith(NewValue(Position{X: 1}))

	p, err := GetMut[Position](world, e)
	if err != nil {
		t.Fatalf("GetMut() error = %v", err)
	}
	p.X = 42

	if got, _ := Get[Position](world, e); got.X != 42 {
		t.Errorf("Position.X = %v, want 42", got.X)
	}
	if _, err := GetMut[Velocity](world, e); !errors.Is(err, ErrEntityDontHaveComponent) {
		t.Errorf("GetMut[Velocity]() error = %v, want ErrEntityDontHaveComponent", err)
	}
}

// TestWorldLocking tests the world locking mechanism
func TestWorldLocking(t *testing.T) {
	posComp := FactoryNewComponent[Position]()

	tests := []struct {
		name string
		op   func(w *World, e Entity) error
	}{
		{"Spawn", func(w *World, _ Entity) error { _, err := w.Spawn(); return err }},
		{"NewEntities", func(w *World, _ Entity) error { _, err := w.NewEntities(1, posComp); return err }},
		{"Despawn", func(w *World, e Entity) error { return w.Despawn(e) }},
		{"Insert", func(w *World, e Entity) error { return Insert(w, e, Velocity{}) }},
		{"Remove", func(w *World, e Entity) error { _, err := Remove[Position](w, e); return err }},
		{"RemoveComponent", func(w *World, e Entity) error { return w.RemoveComponent(e, posComp) }},
		{"InsertResource", func(w *World, _ Entity) error { return InsertResource(w, 1) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			world := NewWorld()
			e, _ := world.SpawnWith(posComp.Value(Position{}))

			world.Lock()
			err := tt.op(world, e)
			world.Unlock()

			if !errors.Is(err, ErrWorldLocked) {
				t.Errorf("%s while locked error = %v, want LockedWorldError", tt.name, err)
			}
			if err := tt.op(world, e); err != nil {
				t.Errorf("%s after unlock error = %v", tt.name, err)
			}
		})
	}
}

func TestEnqueuedOperationsApplyOnUnlock(t *testing.T) {
	world := NewWorld()
	posComp := FactoryNewComponent[Position]()
	velComp := FactoryNewComponent[Velocity]()

	doomed, _ := world.SpawnWith(posComp.Value(Position{}))
	mover, _ := world.SpawnWith(posComp.Value(Position{}))

	world.Lock()
	world.Lock()
	spawned := world.EnqueueSpawn(posComp.Value(Position{X: 7}))
	_ = world.EnqueueInsert(mover, velComp.Value(Velocity{X: 2}))
	_ = world.EnqueueInsert(doomed, velComp.Value(Velocity{X: 3}))
	_ = world.EnqueueDespawn(doomed, doomed)

	if world.IsValid(spawned) {
		t.Errorf("queued spawn visible before unlock")
	}
	world.Unlock()
	if world.IsValid(spawned) {
		t.Errorf("queued spawn applied before the outermost unlock")
	}
	world.Unlock()

	if got, ok := Get[Position](world, spawned); !ok || got.X != 7 {
		t.Errorf("queued spawn Position = %v, %v, want X=7", got, ok)
	}
	if got, ok := Get[Velocity](world, mover); !ok || got.X != 2 {
		t.Errorf("queued insert Velocity = %v, %v, want X=2", got, ok)
	}
	if world.IsValid(doomed) {
		t.Errorf("queued despawn not applied")
	}
	if world.EntityCount() != 2 {
		t.Errorf("EntityCount() = %d, want 2", world.EntityCount())
	}
}
