package ecs

import (
	"github.com/argus-labs/scene-engine/pkg/assert"
	"github.com/kelindar/bitmap"
)

// archetypeID is the index of an archetype in the world state's archetype list.
type archetypeID = int

// archetype represents a collection of entities with the same component types.
// NOTE: We store compCount instead of using Bitmap.Count() because counting bits is O(n). Columns
// are stored in a slice instead of a map because it's faster for small # of components.
type archetype struct {
	id         archetypeID
	components bitmap.Bitmap    // Bitmap of components contained in this archetype
	rows       sparseSet        // Entity ID -> row
	entities   []EntityID       // List of entities of this archetype
	cids       []componentID    // Component ID of each column
	columns    []abstractColumn // List of columns containing component data
	compCount  int
}

// newArchetype creates an archetype for the given component types.
func newArchetype(aid archetypeID, components bitmap.Bitmap, cm *componentManager) *archetype {
	arch := &archetype{
		id:         aid,
		components: components,
		rows:       newSparseSet(),
		entities:   make([]EntityID, 0),
	}
	components.Range(func(cid uint32) {
		arch.cids = append(arch.cids, cid)
		arch.columns = append(arch.columns, cm.factories[cid]())
	})
	arch.compCount = len(arch.columns)
	assert.That(components.Count() == arch.compCount, "mismatched number of columns and components")
	return arch
}

// exact returns true if the given components match the archetype's exactly.
func (a *archetype) exact(components bitmap.Bitmap) bool {
	if a.compCount != components.Count() {
		return false
	}
	return a.contains(components)
}

// contains returns true if the archetype contains all of the given components.
func (a *archetype) contains(components bitmap.Bitmap) bool {
	intersect := components.Clone(nil)
	intersect.And(a.components)
	return intersect.Count() == components.Count()
}

// excludes returns true if the archetype contains none of the given components.
func (a *archetype) excludes(components bitmap.Bitmap) bool {
	intersect := components.Clone(nil)
	intersect.And(a.components)
	return intersect.Count() == 0
}

// column returns the column holding the given component, or nil if the archetype lacks it.
func (a *archetype) column(cid componentID) abstractColumn {
	for i, id := range a.cids {
		if id == cid {
			return a.columns[i]
		}
	}
	return nil
}

// -------------------------------------------------------------------------------------------------
// Entity operations
// -------------------------------------------------------------------------------------------------

// newEntity adds the entity to the archetype with zero valued components stamped with the given
// change tick, and returns its row.
func (a *archetype) newEntity(eid EntityID, stamp uint64) int {
	a.entities = append(a.entities, eid)

	for _, column := range a.columns {
		column.extend(stamp)
		assert.That(column.len() == len(a.entities), "column components length doesn't match entities")
	}

	row := len(a.entities) - 1
	a.rows.set(eid, row)
	return row
}

// removeEntity removes an entity from the archetype by swapping the last entity into its row.
// Expects the caller to check that the entity belongs to this archetype.
func (a *archetype) removeEntity(eid EntityID) {
	row, exists := a.rows.get(eid)
	assert.That(exists, "entity is not in archetype")

	lastIndex := len(a.entities) - 1
	a.entities[row] = a.entities[lastIndex]
	a.entities = a.entities[:lastIndex]

	for _, column := range a.columns {
		column.remove(row)
		assert.That(column.len() == len(a.entities), "column components length doesn't match entities")
	}

	ok := a.rows.remove(eid)
	assert.That(ok, "entity isn't removed from sparse set")

	// If the entity is the last item in the slice, nothing is swapped.
	if row == lastIndex {
		return
	}
	a.rows.set(a.entities[row], row)
}

// moveEntity moves an entity to the destination archetype, copying the components both archetypes
// share along with their added stamps. Components only present in the destination are stamped with
// the given change tick. Returns the entity's row in the destination.
func (a *archetype) moveEntity(destination *archetype, eid EntityID, stamp uint64) int {
	row, exists := a.rows.get(eid)
	assert.That(exists, "entity is not in archetype")

	newRow := destination.newEntity(eid, stamp)
	for i, dst := range destination.columns {
		src := a.column(destination.cids[i])
		if src == nil {
			continue
		}
		dst.setAbstract(newRow, src.getAbstract(row))
		dst.setAddedAt(newRow, src.addedAt(row))
	}

	a.removeEntity(eid)
	return newRow
}
