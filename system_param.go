package zecs

import (
	"iter"
	"reflect"

	"github.com/kelindar/bitmap"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// access is the static read and write footprint a system declares through its parameters.
type access struct {
	componentReads  bitmap.Bitmap
	componentWrites bitmap.Bitmap
	resourceReads   bitmap.Bitmap
	resourceWrites  bitmap.Bitmap
	eventReads      bitmap.Bitmap
	eventWrites     bitmap.Bitmap
}

// overlaps checks if any bit of a is set in b.
func overlaps(a, b bitmap.Bitmap) bool {
	clone := a.Clone(nil)
	clone.And(b)
	return clone.Count() != 0
}

// conflicts reports whether two systems must not run concurrently. Component and resource
// access conflicts on write/write and read/write. Events only conflict on write/write
// since readers and writers use different buffers.
func (a *access) conflicts(b *access) bool {
	return overlaps(a.componentWrites, b.componentWrites) ||
		overlaps(a.componentWrites, b.componentReads) ||
		overlaps(a.componentReads, b.componentWrites) ||
		overlaps(a.resourceWrites, b.resourceWrites) ||
		overlaps(a.resourceWrites, b.resourceReads) ||
		overlaps(a.resourceReads, b.resourceWrites) ||
		overlaps(a.eventWrites, b.eventWrites)
}

// merge folds one parameter's access into the system's, rejecting aliased access: a
// component or resource may not be both read and written, or written twice, by one system.
func (a *access) merge(b access) error {
	if overlaps(a.componentWrites, b.componentWrites) ||
		overlaps(a.componentWrites, b.componentReads) ||
		overlaps(a.componentReads, b.componentWrites) {
		return eris.New("system declares conflicting access to the same component")
	}
	if overlaps(a.resourceWrites, b.resourceWrites) ||
		overlaps(a.resourceWrites, b.resourceReads) ||
		overlaps(a.resourceReads, b.resourceWrites) {
		return eris.New("system declares conflicting access to the same resource")
	}
	if overlaps(a.eventReads, b.eventReads) || overlaps(a.eventWrites, b.eventWrites) {
		return eris.New("system declares the same event parameter twice")
	}
	union(&a.componentReads, b.componentReads)
	union(&a.componentWrites, b.componentWrites)
	union(&a.resourceReads, b.resourceReads)
	union(&a.resourceWrites, b.resourceWrites)
	union(&a.eventReads, b.eventReads)
	union(&a.eventWrites, b.eventWrites)
	return nil
}

// union ors src into dst. Bitmap.Or panics on an empty src.
func union(dst *bitmap.Bitmap, src bitmap.Bitmap) {
	if src.Count() == 0 {
		return
	}
	dst.Or(src)
}

// systemParam is implemented by every field type a system state may hold.
type systemParam interface {
	init(w *World, meta *systemMeta) (access, error)
}

var _ systemParam = &BaseSystem{}
var _ systemParam = &Query[struct{}]{}
var _ systemParam = &Res[any]{}
var _ systemParam = &ResMut[any]{}
var _ systemParam = &EventReader[any]{}
var _ systemParam = &EventWriter[any]{}
var _ systemParam = &Commands{}
var _ systemParam = &Local[any]{}

// initSystemState initialises every field of state and returns the system's access.
func initSystemState[S any](w *World, state *S, meta *systemMeta) (access, error) {
	var acc access

	value := reflect.ValueOf(state).Elem()
	if value.Kind() != reflect.Struct {
		return acc, eris.Errorf("system state %s must be a struct", value.Type())
	}
	for i := range value.NumField() {
		field := value.Type().Field(i)
		if !field.IsExported() {
			return acc, eris.Errorf("field %s must be exported", field.Name)
		}
		param, ok := value.Field(i).Addr().Interface().(systemParam)
		if !ok {
			return acc, eris.Errorf("field %s has unsupported system parameter type %s", field.Name, field.Type)
		}
		fieldAccess, err := param.init(w, meta)
		if err != nil {
			return acc, eris.Wrapf(err, "failed to initialize field %s", field.Name)
		}
		if err := acc.merge(fieldAccess); err != nil {
			return acc, eris.Wrapf(err, "invalid field %s", field.Name)
		}
	}
	return acc, nil
}

// BaseSystem can be embedded in a system state to reach the system's logger and the
// current tick.
//
//	type MovementState struct {
//	    zecs.BaseSystem
//	    Movers zecs.Query[struct {
//	        Pos zecs.Write[Position]
//	        Vel zecs.Read[Velocity]
//	    }]
//	}
type BaseSystem struct {
	world *World
	meta  *systemMeta
}

func (b *BaseSystem) init(w *World, meta *systemMeta) (access, error) {
	b.world = w
	b.meta = meta
	return access{}, nil
}

func (b *BaseSystem) Logger() *zerolog.Logger {
	return &b.meta.logger
}

func (b *BaseSystem) Name() string {
	return b.meta.name
}

// Tick returns the number of ticks completed before the current one.
func (b *BaseSystem) Tick() uint64 {
	return b.world.Tick()
}

// Res gives read-only access to the resource T. The resource may be absent.
type Res[T any] struct {
	world *World
}

func (r *Res[T]) init(w *World, _ *systemMeta) (access, error) {
	r.world = w
	var acc access
	acc.resourceReads.Set(w.resources.idFor(reflect.TypeFor[T]()))
	return acc, nil
}

func (r Res[T]) Get() (T, bool) {
	return GetResource[T](r.world)
}

// ResMut gives exclusive access to the resource T. The resource may be absent.
type ResMut[T any] struct {
	world *World
}

func (r *ResMut[T]) init(w *World, _ *systemMeta) (access, error) {
	r.world = w
	var acc access
	acc.resourceWrites.Set(w.resources.idFor(reflect.TypeFor[T]()))
	return acc, nil
}

func (r ResMut[T]) Get() (*T, bool) {
	return GetResourceMut[T](r.world)
}

// EventReader delivers events of type T sent during the previous tick. Each reader sees
// every event once.
type EventReader[T any] struct {
	buf *eventBuffer[T]
	// generation and offset remember how far this reader got in the current buffer.
	generation uint64
	offset     int
}

func (r *EventReader[T]) init(w *World, _ *systemMeta) (access, error) {
	buf, id := bufferFor[T](w.events)
	r.buf = buf
	var acc access
	acc.eventReads.Set(id)
	return acc, nil
}

func (r *EventReader[T]) unread() []T {
	events, generation := r.buf.read()
	if generation != r.generation {
		r.generation = generation
		r.offset = 0
	}
	if r.offset > len(events) {
		r.offset = len(events)
	}
	return events[r.offset:]
}

// Read yields the events this reader has not seen yet and marks them as read.
func (r *EventReader[T]) Read() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, ev := range r.unread() {
			r.offset++
			if !yield(ev) {
				return
			}
		}
	}
}

// Len returns the number of unread events.
func (r *EventReader[T]) Len() int {
	return len(r.unread())
}

// Last returns the most recent unread event and marks everything as read.
func (r *EventReader[T]) Last() (T, bool) {
	events := r.unread()
	r.offset += len(events)
	if len(events) == 0 {
		var zero T
		return zero, false
	}
	return events[len(events)-1], true
}

// EventWriter sends events of type T.
type EventWriter[T any] struct {
	buf *eventBuffer[T]
}

func (e *EventWriter[T]) init(w *World, _ *systemMeta) (access, error) {
	buf, id := bufferFor[T](w.events)
	e.buf = buf
	var acc access
	acc.eventWrites.Set(id)
	return acc, nil
}

func (e EventWriter[T]) Send(v T) {
	e.buf.send(v)
}

// Commands defers structural changes until the end of the system's stage. Commands of a
// system that fails are discarded.
type Commands struct {
	world *World
	queue *opQueue
}

func (c *Commands) init(w *World, meta *systemMeta) (access, error) {
	c.world = w
	c.queue = &meta.commands
	return access{}, nil
}

// Spawn reserves an entity that is created with values when the stage ends.
func (c Commands) Spawn(values ...ComponentValue) Entity {
	e := c.world.entities.reserve()
	c.queue.enqueueCreate(e, values)
	return e
}

func (c Commands) Despawn(entities ...Entity) {
	c.queue.enqueueDestroy(entities)
}

func (c Commands) Insert(e Entity, value ComponentValue) {
	c.queue.enqueueComponentOp(opAddComponent, e, value, value.ID())
}

func (c Commands) Remove(e Entity, comp Component) {
	c.queue.enqueueComponentOp(opRemoveComponent, e, nil, comp.ID())
}

// CommandsInsertResource is the deferred form of InsertResource.
func CommandsInsertResource[T any](c Commands, v T) {
	c.queue.enqueueResource(func(w *World) {
		insertResource(w.resources, v)
	})
}

// CommandsRemoveResource is the deferred form of RemoveResource.
func CommandsRemoveResource[T any](c Commands) {
	c.queue.enqueueResource(func(w *World) {
		removeResource[T](w.resources)
	})
}

// Local is state private to one system that persists across ticks.
type Local[T any] struct {
	value T
}

func (l *Local[T]) init(*World, *systemMeta) (access, error) {
	return access{}, nil
}

func (l *Local[T]) Get() *T {
	return &l.value
}
