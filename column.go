package zecs

// columnFactory creates an empty column for one component type.
type columnFactory func() abstractColumn

// abstractColumn is the function table the archetype store uses to move rows without
// knowing the component type. Typed access goes through column[T] directly.
type abstractColumn interface {
	len() int
	extend()
	swapRemove(row int)
	appendFrom(src abstractColumn, row int)
	getAbstract(row int) any
	setAbstract(row int, value any)
}

var _ abstractColumn = &column[struct{}]{}

type column[T any] struct {
	data []T
}

func newColumnFactory[T any]() columnFactory {
	return func() abstractColumn {
		const initialCapacity = 16
		return &column[T]{data: make([]T, 0, initialCapacity)}
	}
}

func (c *column[T]) len() int {
	return len(c.data)
}

// extend appends a zero row.
func (c *column[T]) extend() {
	var zero T
	c.data = append(c.data, zero)
}

// swapRemove moves the last row into row and truncates.
func (c *column[T]) swapRemove(row int) {
	last := len(c.data) - 1
	c.data[row] = c.data[last]
	var zero T
	c.data[last] = zero
	c.data = c.data[:last]
}

// appendFrom copies row of src, which must hold the same component type, to the end of c.
func (c *column[T]) appendFrom(src abstractColumn, row int) {
	c.data = append(c.data, src.(*column[T]).data[row])
}

func (c *column[T]) getAbstract(row int) any {
	return c.data[row]
}

func (c *column[T]) setAbstract(row int, value any) {
	c.data[row] = value.(T)
}

func (c *column[T]) get(row int) *T {
	return &c.data[row]
}
