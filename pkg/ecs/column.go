package ecs

import "github.com/argus-labs/scene-engine/pkg/assert"

// columnFactory is a function that creates a new abstractColumn instance.
type columnFactory func() abstractColumn

// abstractColumn is an internal interface for generic column operations.
type abstractColumn interface {
	len() int
	name() string
	extend(stamp uint64)

	setAbstract(row int, component Component)
	getAbstract(row int) Component
	addedAt(row int) uint64
	setAddedAt(row int, stamp uint64)
	remove(row int)
}

var _ abstractColumn = &column[Component]{}

// column stores the component data of entities in an archetype. The length of the components slice
// must match the length of the entities slice in the archetype. added holds, per row, the change
// tick at which the component was attached to the entity.
type column[T Component] struct {
	compName   string
	components []T
	added      []uint64
}

// newColumn creates a new column with the specified type.
func newColumn[T Component]() column[T] {
	var zero T
	const initialCapacity = 16
	return column[T]{
		compName:   zero.Name(),
		components: make([]T, 0, initialCapacity),
		added:      make([]uint64, 0, initialCapacity),
	}
}

// newColumnFactory returns a function that constructs a new column of type T.
func newColumnFactory[T Component]() columnFactory {
	return func() abstractColumn {
		col := newColumn[T]()
		return &col
	}
}

func (c *column[T]) len() int {
	return len(c.components)
}

func (c *column[T]) name() string {
	return c.compName
}

// extend adds a new zero-valued row stamped with the given change tick.
func (c *column[T]) extend(stamp uint64) {
	var zero T
	c.components = append(c.components, zero)
	c.added = append(c.added, stamp)
}

// set sets the component in a given row. Prefer this over setAbstract whenever the concrete type is
// known since it avoids the type assertion and boxing.
func (c *column[T]) set(row int, component T) {
	assert.That(row < len(c.components), "column isn't extended when entity is created")
	c.components[row] = component
}

// setAbstract sets the component in a given row when the concrete type isn't known.
func (c *column[T]) setAbstract(row int, component Component) {
	concrete, ok := component.(T)
	assert.That(ok, "tried to set the wrong component type")
	c.set(row, concrete)
}

// get gets the value from a given row. Expects the caller to make sure the row is inside the column.
func (c *column[T]) get(row int) T {
	assert.That(row < len(c.components), "component doesn't exist")
	return c.components[row]
}

func (c *column[T]) getAbstract(row int) Component {
	return c.get(row)
}

func (c *column[T]) addedAt(row int) uint64 {
	assert.That(row < len(c.added), "component doesn't exist")
	return c.added[row]
}

func (c *column[T]) setAddedAt(row int, stamp uint64) {
	assert.That(row < len(c.added), "component doesn't exist")
	c.added[row] = stamp
}

// remove removes a given row by swapping the last row into its place.
func (c *column[T]) remove(row int) {
	assert.That(row < len(c.components), "tried to remove component that doesn't exist")

	lastIndex := len(c.components) - 1
	c.components[row] = c.components[lastIndex]
	c.added[row] = c.added[lastIndex]

	var zero T
	c.components[lastIndex] = zero
	c.components = c.components[:lastIndex]
	c.added = c.added[:lastIndex]
}
