package ecs

import (
	"math"
	"sync"

	"github.com/rotisserie/eris"
)

// EntityID is the process-local handle of an entity. It is stable for the entity's lifetime and
// only handed out again after the entity is destroyed.
type EntityID uint32

// MaxEntityID is the maximum entity ID that can be created.
const MaxEntityID = math.MaxUint32 - 1

// entityManager allocates entity IDs and maps live entities to their archetypes.
//
// Thread safety: reserve and release may be called from systems running in parallel, so the
// allocator fields are guarded by mu. entityArch is only written while applying deferred commands,
// which never overlaps with system execution, so reads from systems don't need the lock.
type entityManager struct {
	nextID     EntityID                // The next ID to allocate if no free IDs are available
	free       []EntityID              // A FIFO queue of released IDs
	entityArch map[EntityID]*archetype // Maps live entity IDs to archetypes
	mu         sync.Mutex
}

// newEntityManager creates a new entity manager.
func newEntityManager() entityManager {
	return entityManager{
		nextID:     0,
		free:       make([]EntityID, 0),
		entityArch: make(map[EntityID]*archetype),
	}
}

// reserve returns an ID that isn't used by any live or reserved entity. The entity isn't alive
// until it's placed in an archetype with place.
func (em *entityManager) reserve() (EntityID, error) {
	em.mu.Lock()
	defer em.mu.Unlock()

	if len(em.free) > 0 {
		id := em.free[0]
		em.free = em.free[1:]
		return id, nil
	}

	if em.nextID > MaxEntityID {
		return 0, eris.New("max number of entities exceeded")
	}
	id := em.nextID
	em.nextID++
	return id, nil
}

// release returns an ID to the free list.
func (em *entityManager) release(id EntityID) {
	em.mu.Lock()
	defer em.mu.Unlock()
	em.free = append(em.free, id)
}

// place records the archetype of a live entity.
func (em *entityManager) place(id EntityID, arch *archetype) {
	em.entityArch[id] = arch
}

// remove forgets a live entity and releases its ID.
func (em *entityManager) remove(id EntityID) error {
	if _, ok := em.entityArch[id]; !ok {
		return ErrEntityNotFound
	}
	delete(em.entityArch, id)
	em.release(id)
	return nil
}

// getArchetype returns the archetype associated with the given entity.
// Returns ErrEntityNotFound if the entity does not exist.
func (em *entityManager) getArchetype(id EntityID) (*archetype, error) {
	arch, exists := em.entityArch[id]
	if !exists {
		return nil, eris.Wrapf(ErrEntityNotFound, "entity %d", id)
	}
	return arch, nil
}

// isAlive checks if an entity ID is currently live.
func (em *entityManager) isAlive(id EntityID) bool {
	_, exists := em.entityArch[id]
	return exists
}
