package zecs

import (
	"iter"
	"reflect"

	"github.com/kelindar/bitmap"
	"github.com/rotisserie/eris"
)

// queryTerm is implemented by the field types a typed query is built from.
type queryTerm interface {
	describe(d *queryDescriptor) error
	bind(arch *archetype, row *int)
}

var _ queryTerm = &Read[any]{}
var _ queryTerm = &Write[any]{}
var _ queryTerm = &Optional[any]{}
var _ queryTerm = &With[any]{}
var _ queryTerm = &Without[any]{}

type queryDescriptor struct {
	shape    queryShape
	reads    bitmap.Bitmap
	writes   bitmap.Bitmap
	declared bitmap.Bitmap
}

// declare records id once; naming a component in two terms of the same query is an error,
// which covers reading and writing the same component.
func (d *queryDescriptor) declare(id ComponentID) error {
	if d.declared.Contains(uint32(id)) {
		return eris.Errorf("component %s appears in more than one query term", componentInfoFor(id).name)
	}
	d.declared.Set(uint32(id))
	return nil
}

// Read is a required component the query only reads.
type Read[C any] struct {
	id  ComponentID
	col *column[C]
	row *int
}

func (r *Read[C]) describe(d *queryDescriptor) error {
	r.id = ComponentIDFor[C]()
	if err := d.declare(r.id); err != nil {
		return err
	}
	d.shape.required.Mark(uint32(r.id))
	d.reads.Set(uint32(r.id))
	return nil
}

func (r *Read[C]) bind(arch *archetype, row *int) {
	r.col = arch.columnFor(r.id).(*column[C])
	r.row = row
}

// Get returns a copy of the component for the current row.
func (r Read[C]) Get() C {
	return r.col.data[*r.row]
}

// Write is a required component the query may modify.
type Write[C any] struct {
	id  ComponentID
	col *column[C]
	row *int
}

func (w *Write[C]) describe(d *queryDescriptor) error {
	w.id = ComponentIDFor[C]()
	if err := d.declare(w.id); err != nil {
		return err
	}
	d.shape.required.Mark(uint32(w.id))
	d.writes.Set(uint32(w.id))
	return nil
}

func (w *Write[C]) bind(arch *archetype, row *int) {
	w.col = arch.columnFor(w.id).(*column[C])
	w.row = row
}

// Get returns a pointer to the component for the current row.
func (w Write[C]) Get() *C {
	return &w.col.data[*w.row]
}

func (w Write[C]) Set(v C) {
	w.col.data[*w.row] = v
}

// Optional reads a component when the entity has it without filtering on it.
type Optional[C any] struct {
	id  ComponentID
	col *column[C]
	row *int
}

func (o *Optional[C]) describe(d *queryDescriptor) error {
	o.id = ComponentIDFor[C]()
	if err := d.declare(o.id); err != nil {
		return err
	}
	d.reads.Set(uint32(o.id))
	return nil
}

func (o *Optional[C]) bind(arch *archetype, row *int) {
	o.col = nil
	if col := arch.columnFor(o.id); col != nil {
		o.col = col.(*column[C])
	}
	o.row = row
}

func (o Optional[C]) Get() (C, bool) {
	if o.col == nil {
		var zero C
		return zero, false
	}
	return o.col.data[*o.row], true
}

// With requires the component to be present without accessing it.
type With[C any] struct{}

func (With[C]) describe(d *queryDescriptor) error {
	id := ComponentIDFor[C]()
	if err := d.declare(id); err != nil {
		return err
	}
	d.shape.required.Mark(uint32(id))
	return nil
}

func (With[C]) bind(*archetype, *int) {}

// Without excludes entities that have the component.
type Without[C any] struct{}

func (Without[C]) describe(d *queryDescriptor) error {
	id := ComponentIDFor[C]()
	if err := d.declare(id); err != nil {
		return err
	}
	d.shape.excluded.Mark(uint32(id))
	return nil
}

func (Without[C]) bind(*archetype, *int) {}

// Query iterates every entity whose archetype satisfies the terms declared by the fields of
// T, which must be a struct of Read, Write, Optional, With and Without fields.
//
// Iteration order is unspecified. A Query must not be iterated re-entrantly or from several
// goroutines at once.
type Query[T any] struct {
	world *World
	desc  queryDescriptor
	terms []queryTerm
	item  T
	row   int
}

// NewQuery builds a typed query against w.
func NewQuery[T any](w *World) (*Query[T], error) {
	q := &Query[T]{}
	if err := q.setup(w); err != nil {
		return nil, err
	}
	return q, nil
}

func (q *Query[T]) setup(w *World) error {
	q.world = w
	q.desc = queryDescriptor{}
	q.terms = q.terms[:0]

	value := reflect.ValueOf(&q.item).Elem()
	if value.Kind() != reflect.Struct {
		return eris.Errorf("query type %s must be a struct", value.Type())
	}
	for i := range value.NumField() {
		field := value.Type().Field(i)
		if !field.IsExported() {
			return eris.Errorf("query field %s must be exported", field.Name)
		}
		term, ok := value.Field(i).Addr().Interface().(queryTerm)
		if !ok {
			return eris.Errorf("query field %s has unsupported type %s", field.Name, field.Type)
		}
		if err := term.describe(&q.desc); err != nil {
			return eris.Wrapf(err, "invalid query field %s", field.Name)
		}
		q.terms = append(q.terms, term)
	}
	return nil
}

// init lets a Query be a system parameter.
func (q *Query[T]) init(w *World, _ *systemMeta) (access, error) {
	if err := q.setup(w); err != nil {
		return access{}, err
	}
	return access{componentReads: q.desc.reads, componentWrites: q.desc.writes}, nil
}

func (q *Query[T]) matched() []archetypeID {
	return q.world.queries.match(q.world.archetypes, q.desc.shape, nil)
}

// Iter yields each matching entity with T bound to its row. The world stays locked for the
// duration of the loop.
func (q *Query[T]) Iter() iter.Seq2[Entity, T] {
	return func(yield func(Entity, T) bool) {
		q.world.Lock()
		defer q.world.Unlock()

		for _, id := range q.matched() {
			arch := q.world.archetypes.get(id)
			if arch.Len() == 0 {
				continue
			}
			for _, term := range q.terms {
				term.bind(arch, &q.row)
			}
			for q.row = 0; q.row < arch.Len(); q.row++ {
				if !yield(arch.entities[q.row], q.item) {
					return
				}
			}
		}
	}
}

// Count returns the number of matching entities.
func (q *Query[T]) Count() int {
	total := 0
	for _, id := range q.matched() {
		total += q.world.archetypes.get(id).Len()
	}
	return total
}

// Contains reports whether e currently matches the query.
func (q *Query[T]) Contains(e Entity) bool {
	loc, ok := q.world.entities.location(e)
	if !ok {
		return false
	}
	return q.desc.shape.matches(q.world.archetypes.get(loc.archetype))
}
