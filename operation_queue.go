package zecs

import (
	"errors"

	"github.com/rotisserie/eris"
)

type operation struct {
	typ       operationType
	entity    Entity
	values    []ComponentValue
	component ComponentID
	resource  func(*World)
}

type operationType int

const (
	opNoop operationType = iota - 1
	opCreate
	opDestroy
	opAddComponent
	opRemoveComponent
	opResource
)

// opQueue buffers structural operations. They are applied creates first, then component
// and resource changes in the order they were queued, then destroys.
type opQueue struct {
	createOps      []operation
	componentOps   []operation
	destroyOps     []operation
	pendingDestroy map[Entity]struct{}
	pendingMods    map[Entity][]int
}

func newOpQueue() opQueue {
	return opQueue{
		pendingDestroy: make(map[Entity]struct{}),
		pendingMods:    make(map[Entity][]int),
	}
}

func (q *opQueue) empty() bool {
	return len(q.createOps) == 0 && len(q.componentOps) == 0 && len(q.destroyOps) == 0
}

func (q *opQueue) enqueueCreate(e Entity, values []ComponentValue) {
	q.createOps = append(q.createOps, operation{typ: opCreate, entity: e, values: values})
}

func (q *opQueue) enqueueDestroy(entities []Entity) {
	for _, e := range entities {
		if _, exists := q.pendingDestroy[e]; exists {
			continue
		}
		q.pendingDestroy[e] = struct{}{}

		// Component changes to an entity about to be destroyed are dropped.
		for _, idx := range q.pendingMods[e] {
			q.componentOps[idx].typ = opNoop
		}
		delete(q.pendingMods, e)

		q.destroyOps = append(q.destroyOps, operation{typ: opDestroy, entity: e})
	}
}

func (q *opQueue) enqueueComponentOp(typ operationType, e Entity, value ComponentValue, cid ComponentID) {
	if _, isDestroyed := q.pendingDestroy[e]; isDestroyed {
		return
	}
	op := operation{typ: typ, entity: e, component: cid}
	if value != nil {
		op.values = []ComponentValue{value}
	}
	q.pendingMods[e] = append(q.pendingMods[e], len(q.componentOps))
	q.componentOps = append(q.componentOps, op)
}

func (q *opQueue) enqueueResource(fn func(*World)) {
	q.componentOps = append(q.componentOps, operation{typ: opResource, resource: fn})
}

// apply runs every queued operation inside the caller's structural window. A failing
// operation is skipped and reported; it never leaves a partial move behind.
func (q *opQueue) apply(w *World) error {
	if q.empty() {
		return nil
	}
	var errs []error

	for _, op := range q.createOps {
		if !w.entities.activate(op.entity) {
			errs = append(errs, EntityNotValidError{Entity: op.entity})
			continue
		}
		w.place(op.entity, op.values)
	}

	for _, op := range q.componentOps {
		var err error
		switch op.typ {
		case opAddComponent:
			err = w.insertValue(op.entity, op.values[0])
		case opRemoveComponent:
			err = w.removeComponent(op.entity, op.component)
		case opResource:
			op.resource(w)
		}
		if err != nil {
			errs = append(errs, eris.Wrapf(err, "failed to apply queued component change to %v", op.entity))
		}
	}

	for _, op := range q.destroyOps {
		if err := w.despawn(op.entity); err != nil {
			errs = append(errs, eris.Wrapf(err, "failed to apply queued destroy of %v", op.entity))
		}
	}

	q.reset()
	return errors.Join(errs...)
}

// discard drops the queue, returning reserved identities to the allocator.
func (q *opQueue) discard(w *World) {
	for _, op := range q.createOps {
		w.entities.release(op.entity)
	}
	q.reset()
}

func (q *opQueue) reset() {
	q.createOps = q.createOps[:0]
	q.componentOps = q.componentOps[:0]
	q.destroyOps = q.destroyOps[:0]
	clear(q.pendingDestroy)
	clear(q.pendingMods)
}
