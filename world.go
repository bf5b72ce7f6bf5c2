package zecs

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const defaultQueryCacheCapacity = 256

// World owns every archetype table, the entity location table, the resources and the event
// queues. All simulation state is read and written through it.
//
// While the world is locked (during a scheduler tick or a query iteration) structural
// operations return LockedWorldError. The Enqueue variants defer them until the last lock
// is released.
type World struct {
	id     uuid.UUID
	logger zerolog.Logger

	entities   entityAllocator
	archetypes *archetypes
	queries    *queryCache
	resources  *resourceStore
	events     *eventBus

	lockDepth atomic.Int32
	opMu      sync.Mutex
	opQueue   opQueue

	tick atomic.Uint64
}

type WorldOption func(*World)

// WithLogger sets the logger used for world diagnostics.
func WithLogger(logger zerolog.Logger) WorldOption {
	return func(w *World) {
		w.logger = logger
	}
}

// WithQueryCacheCapacity bounds the number of query shapes whose matches are cached.
func WithQueryCacheCapacity(capacity int) WorldOption {
	return func(w *World) {
		w.queries = newQueryCache(capacity)
	}
}

func NewWorld(opts ...WorldOption) *World {
	w := &World{
		id:         uuid.New(),
		logger:     zerolog.Nop(),
		archetypes: newArchetypes(),
		queries:    newQueryCache(defaultQueryCacheCapacity),
		resources:  newResourceStore(),
		events:     newEventBus(),
		opQueue:    newOpQueue(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.With().Str("world", w.id.String()).Logger()
	return w
}

// ID identifies the world in logs.
func (w *World) ID() uuid.UUID {
	return w.id
}

func (w *World) Logger() *zerolog.Logger {
	return &w.logger
}

// Tick returns the number of completed scheduler ticks.
func (w *World) Tick() uint64 {
	return w.tick.Load()
}

func (w *World) Locked() bool {
	return w.lockDepth.Load() > 0
}

// Lock opens a window in which the archetype layout cannot change. Locks nest.
func (w *World) Lock() {
	w.lockDepth.Add(1)
}

// Unlock releases one lock. Releasing the last one applies the queued operations.
func (w *World) Unlock() {
	depth := w.lockDepth.Add(-1)
	if depth < 0 {
		w.lockDepth.Store(0)
		panic("zecs: unlock of unlocked world")
	}
	if depth > 0 {
		return
	}
	if err := w.flushQueue(); err != nil {
		w.logger.Warn().Err(err).Msg("failed to apply queued operations")
	}
}

func (w *World) flushQueue() error {
	w.opMu.Lock()
	queue := w.opQueue
	w.opQueue = newOpQueue()
	w.opMu.Unlock()
	return queue.apply(w)
}

func (w *World) IsValid(e Entity) bool {
	return w.entities.isValid(e)
}

// EntityCount returns the number of live entities.
func (w *World) EntityCount() int {
	return w.entities.alive()
}

func (w *World) ArchetypeCount() int {
	return len(w.archetypes.asSlice)
}

// Spawn creates an entity with no components.
func (w *World) Spawn() (Entity, error) {
	return w.SpawnWith()
}

// SpawnWith creates an entity holding the given component values. When a component type is
// repeated the last value wins.
func (w *World) SpawnWith(values ...ComponentValue) (Entity, error) {
	if w.Locked() {
		return Entity{}, LockedWorldError{}
	}
	e := w.entities.spawn()
	w.place(e, values)
	return e, nil
}

// NewEntities creates n entities holding zero values of the given components.
func (w *World) NewEntities(n int, comps ...Component) ([]Entity, error) {
	if w.Locked() {
		return nil, LockedWorldError{}
	}
	ids := make([]ComponentID, len(comps))
	for i, c := range comps {
		ids[i] = c.ID()
	}
	arch := w.archetypes.getOrCreate(ids)
	entities := make([]Entity, n)
	for i := range entities {
		e := w.entities.spawn()
		row := arch.appendEntity(e)
		w.entities.setLocation(e.Index, entityLocation{archetype: arch.id, row: row})
		entities[i] = e
	}
	return entities, nil
}

// place writes a freshly allocated entity into the archetype of values.
func (w *World) place(e Entity, values []ComponentValue) {
	ids := make([]ComponentID, len(values))
	for i, v := range values {
		ids[i] = v.ID()
	}
	arch := w.archetypes.getOrCreate(ids)
	row := arch.appendEntity(e)
	for _, v := range values {
		v.assign(arch.columnFor(v.ID()), row)
	}
	w.entities.setLocation(e.Index, entityLocation{archetype: arch.id, row: row})
}

// Despawn removes the entity and all of its components. Despawning the same handle twice
// fails with ErrEntityNotValid.
func (w *World) Despawn(e Entity) error {
	if w.Locked() {
		return LockedWorldError{}
	}
	return w.despawn(e)
}

func (w *World) despawn(e Entity) error {
	loc, ok := w.entities.location(e)
	if !ok {
		return EntityNotValidError{Entity: e}
	}
	arch := w.archetypes.get(loc.archetype)
	if moved, ok := arch.swapRemove(loc.row); ok {
		w.entities.setLocation(moved.Index, loc)
	}
	return w.entities.despawn(e)
}

// InsertValue adds or overwrites the component carried by value.
func (w *World) InsertValue(e Entity, value ComponentValue) error {
	if w.Locked() {
		return LockedWorldError{}
	}
	return w.insertValue(e, value)
}

func (w *World) insertValue(e Entity, value ComponentValue) error {
	loc, ok := w.entities.location(e)
	if !ok {
		return EntityNotValidError{Entity: e}
	}
	arch := w.archetypes.get(loc.archetype)
	if !arch.has(value.ID()) {
		dest := w.archetypes.withComponent(arch, value.ID())
		loc = w.move(e, loc, arch, dest)
		arch = dest
	}
	value.assign(arch.columnFor(value.ID()), loc.row)
	return nil
}

// RemoveComponent drops the component from the entity, discarding its value.
func (w *World) RemoveComponent(e Entity, c Component) error {
	if w.Locked() {
		return LockedWorldError{}
	}
	return w.removeComponent(e, c.ID())
}

func (w *World) removeComponent(e Entity, cid ComponentID) error {
	loc, ok := w.entities.location(e)
	if !ok {
		return EntityNotValidError{Entity: e}
	}
	arch := w.archetypes.get(loc.archetype)
	if !arch.has(cid) {
		return ComponentNotFoundError{Entity: e, Component: componentInfoFor(cid).name}
	}
	w.move(e, loc, arch, w.archetypes.withoutComponent(arch, cid))
	return nil
}

// move migrates e from its row in from to a new row in to and fixes both locations. There is
// no failure point once it starts.
func (w *World) move(e Entity, loc entityLocation, from, to *archetype) entityLocation {
	row := from.copyRowTo(to, loc.row, e)
	if moved, ok := from.swapRemove(loc.row); ok {
		w.entities.setLocation(moved.Index, loc)
	}
	dest := entityLocation{archetype: to.id, row: row}
	w.entities.setLocation(e.Index, dest)
	return dest
}

// EnqueueSpawn spawns immediately when the world is unlocked and otherwise reserves the
// entity, which becomes valid once the queue is applied.
//
// Enqueued operations are applied at the next flush even if the system that queued them
// fails. Systems that need their changes dropped on failure use Commands.
func (w *World) EnqueueSpawn(values ...ComponentValue) Entity {
	if !w.Locked() {
		e, _ := w.SpawnWith(values...)
		return e
	}
	e := w.entities.reserve()
	w.opMu.Lock()
	w.opQueue.enqueueCreate(e, values)
	w.opMu.Unlock()
	return e
}

func (w *World) EnqueueDespawn(entities ...Entity) error {
	if !w.Locked() {
		for _, e := range entities {
			if err := w.despawn(e); err != nil {
				return err
			}
		}
		return nil
	}
	w.opMu.Lock()
	w.opQueue.enqueueDestroy(entities)
	w.opMu.Unlock()
	return nil
}

func (w *World) EnqueueInsert(e Entity, value ComponentValue) error {
	if !w.Locked() {
		return w.insertValue(e, value)
	}
	w.opMu.Lock()
	w.opQueue.enqueueComponentOp(opAddComponent, e, value, value.ID())
	w.opMu.Unlock()
	return nil
}

func (w *World) EnqueueRemove(e Entity, c Component) error {
	if !w.Locked() {
		return w.removeComponent(e, c.ID())
	}
	w.opMu.Lock()
	w.opQueue.enqueueComponentOp(opRemoveComponent, e, nil, c.ID())
	w.opMu.Unlock()
	return nil
}
