package ecs

import (
	"iter"
	"reflect"

	"github.com/argus-labs/scene-engine/pkg/assert"
	"github.com/kelindar/bitmap"
	"github.com/rotisserie/eris"
)

// -------------------------------------------------------------------------------------------------
// Component Searches
// -------------------------------------------------------------------------------------------------

// search provides type-safe component queries for entities in the world state. It uses reflection
// during registration to figure out which components to include in the query. T must be a struct
// type composed only of query fields, e.g.:
//
//	type Particle struct {
//	    Position ecs.Ref[Position]
//	    Velocity ecs.ReadRef[Velocity]
//	    Frozen   ecs.Without[Frozen]
//	}
//
// search is the base implementation of Contains and Exact.
type search[T any] struct {
	world   *World
	ticks   *systemTicks
	exact   bool          // Match archetypes with exactly the included components
	include bitmap.Bitmap // Components an entity must have
	exclude bitmap.Bitmap // Components an entity must not have
	added   []componentID // Components that must have been attached since the system's last run
	result  T             // Reusable instance of the result type
	fields  []queryField  // Cached references to result's fields, bound to an entity when yielded
}

// init analyzes the result type's fields, registers their components, and returns the access the
// search requires.
func (s *search[T]) init(fc *fieldContext) (access, error) {
	var acc access
	var zero T
	resultType := reflect.TypeOf(zero)
	if resultType == nil || resultType.Kind() != reflect.Struct {
		return acc, eris.Errorf("search type must be a struct of query fields, got %v", resultType)
	}
	resultValue := reflect.ValueOf(&s.result).Elem()

	s.world = fc.world
	s.ticks = fc.ticks
	s.fields = make([]queryField, resultType.NumField())

	var borrowed bitmap.Bitmap
	for i := range resultType.NumField() {
		field := resultType.Field(i)
		if !field.IsExported() {
			return acc, eris.Errorf("search field %s must be exported", field.Name)
		}
		qf, ok := resultValue.Field(i).Addr().Interface().(queryField)
		if !ok {
			return acc, eris.Errorf("search field %s must be a query field, got %s", field.Name, field.Type)
		}
		s.fields[i] = qf

		cid, err := qf.register(fc.world.state)
		if err != nil {
			return acc, eris.Wrapf(err, "failed to register component of field %s", field.Name)
		}

		switch qf.kind() {
		case fieldRead, fieldWrite:
			if borrowed.Contains(cid) {
				return acc, eris.Wrapf(ErrAccessConflict, "field %s borrows a component twice", field.Name)
			}
			borrowed.Set(cid)
			s.include.Set(cid)
			if qf.kind() == fieldWrite {
				acc.writes.Set(cid)
			} else {
				acc.reads.Set(cid)
			}
		case fieldWith:
			s.include.Set(cid)
		case fieldAdded:
			s.include.Set(cid)
			s.added = append(s.added, cid)
		case fieldWithout:
			s.exclude.Set(cid)
		}
	}

	if s.include.Count() == 0 {
		return acc, eris.New("search must include at least one component")
	}
	if overlaps(s.include, s.exclude) {
		return acc, eris.New("search can't both require and exclude a component")
	}
	return acc, nil
}

// matchesArchetype reports whether entities of the archetype can match the search.
func (s *search[T]) matchesArchetype(arch *archetype) bool {
	if s.exact {
		return arch.exact(s.include)
	}
	return arch.contains(s.include) && arch.excludes(s.exclude)
}

// matchesRow applies the Added filters to a row of a matching archetype.
func (s *search[T]) matchesRow(arch *archetype, row int) bool {
	for _, cid := range s.added {
		col := arch.column(cid)
		assert.That(col != nil, "added filter on archetype without the component")
		if col.addedAt(row) <= s.ticks.last {
			return false
		}
	}
	return true
}

// bind attaches every field of the reusable result to the entity.
func (s *search[T]) bind(eid EntityID) T {
	for _, f := range s.fields {
		f.attach(s.world.state, eid)
	}
	return s.result
}

// GetByID returns the entity's view if the entity is alive and matches the search. Returns false
// otherwise, including when the entity has been destroyed.
func (s *search[T]) GetByID(eid EntityID) (T, bool) {
	ws := s.world.state

	arch, err := ws.entities.getArchetype(eid)
	if err != nil || !s.matchesArchetype(arch) {
		var zero T
		return zero, false
	}
	row, exists := arch.rows.get(eid)
	assert.That(exists, "entity isn't in its archetype")
	if !s.matchesRow(arch, row) {
		var zero T
		return zero, false
	}
	return s.bind(eid), true
}

// iter returns an iterator over all matching entities of the given archetypes.
func (s *search[T]) iter(archs []*archetype) iter.Seq2[EntityID, T] {
	return func(yield func(EntityID, T) bool) {
		for _, arch := range archs {
			for row, eid := range arch.entities {
				if !s.matchesRow(arch, row) {
					continue
				}
				if !yield(eid, s.bind(eid)) {
					return
				}
			}
		}
	}
}

// Contains provides a search that matches archetypes containing all specified component types,
// potentially along with additional components, and none of the Without components.
//
// Example:
//
//	type MovementSystemState struct {
//	    Movers ecs.Contains[struct {
//	        Position ecs.Ref[Position]
//	        Velocity ecs.ReadRef[Velocity]
//	    }]
//	}
//
//	func MovementSystem(state *MovementSystemState) error {
//	    for _, mover := range state.Movers.Iter() {
//	        pos, vel := mover.Position.Get(), mover.Velocity.Get()
//	        mover.Position.Set(Position{X: pos.X + vel.X, Y: pos.Y + vel.Y})
//	    }
//	    return nil
//	}
type Contains[T any] struct{ search[T] }

// Iter returns an iterator over entities and their components that match the Contains search.
func (c *Contains[T]) Iter() iter.Seq2[EntityID, T] {
	return c.iter(c.world.state.archContains(c.include, c.exclude))
}

// IsEmpty returns true if no entity matches the search.
func (c *Contains[T]) IsEmpty() bool {
	for range c.Iter() {
		return false
	}
	return true
}

// Exact provides a search that matches archetypes containing exactly the specified component types,
// without any additional components.
type Exact[T any] struct{ search[T] }

func (e *Exact[T]) init(fc *fieldContext) (access, error) {
	e.exact = true
	return e.search.init(fc)
}

// Iter returns an iterator over entities and their components that match the Exact search.
func (e *Exact[T]) Iter() iter.Seq2[EntityID, T] {
	archs := make([]*archetype, 0, 1)
	if arch := e.world.state.archExact(e.include); arch != nil {
		archs = append(archs, arch)
	}
	return e.iter(archs)
}

// IsEmpty returns true if no entity matches the search.
func (e *Exact[T]) IsEmpty() bool {
	for range e.Iter() {
		return false
	}
	return true
}

// -------------------------------------------------------------------------------------------------
// Query Fields
// -------------------------------------------------------------------------------------------------

// fieldKind describes how a query field uses its component.
type fieldKind uint8

const (
	fieldRead    fieldKind = iota // Borrowed read-only
	fieldWrite                    // Borrowed read-write
	fieldWith                     // Presence filter
	fieldWithout                  // Absence filter
	fieldAdded                    // Presence filter on components attached since the last run
)

// queryField is implemented by every field type allowed in a search result struct.
type queryField interface {
	register(ws *worldState) (componentID, error)
	kind() fieldKind
	attach(ws *worldState, eid EntityID)
}

var _ queryField = &Ref[Component]{}
var _ queryField = &ReadRef[Component]{}
var _ queryField = &With[Component]{}
var _ queryField = &Without[Component]{}
var _ queryField = &Added[Component]{}

// Ref provides a read-write handle to a component on an entity. A system holding a Ref to a
// component kind never runs at the same time as another system borrowing the same kind.
type Ref[T Component] struct {
	ws     *worldState
	entity EntityID
}

func (r *Ref[T]) register(ws *worldState) (componentID, error) { return registerComponent[T](ws) }
func (r *Ref[T]) kind() fieldKind                               { return fieldWrite }
func (r *Ref[T]) attach(ws *worldState, eid EntityID) {
	r.ws = ws
	r.entity = eid
}

// Get retrieves the component value for this Ref's entity.
func (r *Ref[T]) Get() T {
	component, err := getComponent[T](r.ws, r.entity)
	assert.That(err == nil, "entity doesn't exist or doesn't contain the component")
	return component
}

// Set updates the component value for this Ref's entity.
func (r *Ref[T]) Set(component T) {
	err := setComponent(r.ws, r.entity, component)
	assert.That(err == nil, "entity doesn't exist or doesn't contain the component")
}

// ReadRef provides a read-only handle to a component on an entity. Systems that only read a
// component kind can run in parallel.
type ReadRef[T Component] struct {
	ws     *worldState
	entity EntityID
}

func (r *ReadRef[T]) register(ws *worldState) (componentID, error) { return registerComponent[T](ws) }
func (r *ReadRef[T]) kind() fieldKind                               { return fieldRead }
func (r *ReadRef[T]) attach(ws *worldState, eid EntityID) {
	r.ws = ws
	r.entity = eid
}

// Get retrieves the component value for this ReadRef's entity.
func (r *ReadRef[T]) Get() T {
	component, err := getComponent[T](r.ws, r.entity)
	assert.That(err == nil, "entity doesn't exist or doesn't contain the component")
	return component
}

// With requires matching entities to have component T without borrowing it.
type With[T Component] struct{}

func (*With[T]) register(ws *worldState) (componentID, error) { return registerComponent[T](ws) }
func (*With[T]) kind() fieldKind                               { return fieldWith }
func (*With[T]) attach(*worldState, EntityID)                  {}

// Without requires matching entities to not have component T.
type Without[T Component] struct{}

func (*Without[T]) register(ws *worldState) (componentID, error) { return registerComponent[T](ws) }
func (*Without[T]) kind() fieldKind                               { return fieldWithout }
func (*Without[T]) attach(*worldState, EntityID)                  {}

// Added requires matching entities to have had component T attached since the previous run of the
// system. On a system's first run every entity with T matches.
type Added[T Component] struct{}

func (*Added[T]) register(ws *worldState) (componentID, error) { return registerComponent[T](ws) }
func (*Added[T]) kind() fieldKind                               { return fieldAdded }
func (*Added[T]) attach(*worldState, EntityID)                  {}
