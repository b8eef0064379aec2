package ecs

import (
	"github.com/argus-labs/scene-engine/pkg/assert"
	"github.com/kelindar/bitmap"
	"github.com/rotisserie/eris"
)

// worldState holds the entities and component data of the world.
type worldState struct {
	components componentManager // Component type registry
	entities   entityManager    // Manages entity IDs and archetype mappings
	archetypes []*archetype     // All archetypes, the index is the archetype ID
}

// newWorldState creates a new world state.
func newWorldState() *worldState {
	return &worldState{
		components: newComponentManager(),
		entities:   newEntityManager(),
		archetypes: make([]*archetype, 0),
	}
}

// findOrCreateArchetype finds an existing archetype that matches the component types or creates a
// new archetype if none match.
func (ws *worldState) findOrCreateArchetype(components bitmap.Bitmap) *archetype {
	if arch := ws.archExact(components); arch != nil {
		return arch
	}

	arch := newArchetype(len(ws.archetypes), components, &ws.components)
	ws.archetypes = append(ws.archetypes, arch)
	return arch
}

// archContains returns all archetypes that have every component in include and none in exclude.
func (ws *worldState) archContains(include, exclude bitmap.Bitmap) []*archetype {
	var archs []*archetype
	for _, arch := range ws.archetypes {
		if arch.contains(include) && arch.excludes(exclude) {
			archs = append(archs, arch)
		}
	}
	return archs
}

// archExact returns the archetype that exactly matches the given component types.
func (ws *worldState) archExact(components bitmap.Bitmap) *archetype {
	for _, arch := range ws.archetypes {
		if arch.exact(components) {
			return arch
		}
	}
	return nil
}

// -------------------------------------------------------------------------------------------------
// Entity operations
// -------------------------------------------------------------------------------------------------

// spawn places a reserved entity into the archetype of its components. All components are attached
// at once and stamped with the given change tick.
func (ws *worldState) spawn(eid EntityID, components []Component, stamp uint64) error {
	assert.That(!ws.entities.isAlive(eid), "spawning an entity that is already alive")

	compBitmap, err := ws.components.toBitmap(components)
	if err != nil {
		return eris.Wrap(err, "failed to create component bitmap")
	}

	arch := ws.findOrCreateArchetype(compBitmap)
	row := arch.newEntity(eid, stamp)
	for _, c := range components {
		cid, _ := ws.components.getID(c.Name()) // Checked by toBitmap
		arch.column(cid).setAbstract(row, c)
	}
	ws.entities.place(eid, arch)
	return nil
}

// insert attaches components to a live entity, moving it to a new archetype when needed. Components
// the entity already has are overwritten and keep their added stamp.
func (ws *worldState) insert(eid EntityID, components []Component, stamp uint64) error {
	current, err := ws.entities.getArchetype(eid)
	if err != nil {
		return err
	}

	compBitmap, err := ws.components.toBitmap(components)
	if err != nil {
		return eris.Wrap(err, "failed to create component bitmap")
	}

	target := current
	combined := current.components.Clone(nil)
	union(&combined, compBitmap)
	if combined.Count() != current.compCount {
		target = ws.findOrCreateArchetype(combined)
		current.moveEntity(target, eid, stamp)
		ws.entities.place(eid, target)
	}

	row, exists := target.rows.get(eid)
	assert.That(exists, "entity isn't in its archetype")
	for _, c := range components {
		cid, _ := ws.components.getID(c.Name())
		target.column(cid).setAbstract(row, c)
	}
	return nil
}

// despawn removes an entity and all its components, releasing its ID for reuse.
func (ws *worldState) despawn(eid EntityID) error {
	arch, err := ws.entities.getArchetype(eid)
	if err != nil {
		return err
	}
	arch.removeEntity(eid)
	return ws.entities.remove(eid)
}

// locate returns the archetype, row, and column of component T for an entity.
func locate[T Component](ws *worldState, eid EntityID) (*column[T], int, error) {
	var zero T
	cid, err := ws.components.getID(zero.Name())
	if err != nil {
		return nil, 0, err
	}

	arch, err := ws.entities.getArchetype(eid)
	if err != nil {
		return nil, 0, err
	}

	abstract := arch.column(cid)
	if abstract == nil {
		return nil, 0, eris.Wrapf(ErrComponentNotFound, "entity %d has no component %s", eid, zero.Name())
	}
	col, ok := abstract.(*column[T])
	assert.That(ok, "column type doesn't match component %s", zero.Name())

	row, exists := arch.rows.get(eid)
	assert.That(exists, "entity isn't in its archetype")
	return col, row, nil
}

// getComponent returns component T of an entity.
func getComponent[T Component](ws *worldState, eid EntityID) (T, error) {
	col, row, err := locate[T](ws, eid)
	if err != nil {
		var zero T
		return zero, err
	}
	return col.get(row), nil
}

// setComponent overwrites component T of an entity. The entity must already have the component.
func setComponent[T Component](ws *worldState, eid EntityID, component T) error {
	col, row, err := locate[T](ws, eid)
	if err != nil {
		return err
	}
	col.set(row, component)
	return nil
}
