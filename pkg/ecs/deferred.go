package ecs

import (
	"sync"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// opKind is the kind of a deferred structural change.
type opKind uint8

const (
	opSpawn opKind = iota
	opInsert
	opDespawn
)

// deferredOp is a structural change recorded by a system.
type deferredOp struct {
	kind       opKind
	entity     EntityID
	components []Component
	system     string // Name of the system that recorded the op, for logging
}

// Commands records structural changes (spawning, inserting components, despawning) made by systems.
// Systems in the same tier run in parallel while iterating archetypes, so the changes are applied
// after every system of the current hook has returned.
type Commands struct {
	world  *World
	system string
}

// Spawn reserves an entity ID and records the creation of an entity with the given components. All
// components are attached together when the commands are applied. The returned ID can be stored in
// other components right away, e.g. to reference an entity spawned in the same tick.
func (c *Commands) Spawn(components ...Component) (EntityID, error) {
	eid, err := c.world.state.entities.reserve()
	if err != nil {
		return 0, err
	}
	c.world.deferred.push(deferredOp{kind: opSpawn, entity: eid, components: components, system: c.system})
	return eid, nil
}

// Insert records attaching components to an existing entity.
func (c *Commands) Insert(eid EntityID, components ...Component) {
	c.world.deferred.push(deferredOp{kind: opInsert, entity: eid, components: components, system: c.system})
}

// Despawn records the removal of an entity and all its components.
func (c *Commands) Despawn(eid EntityID) {
	c.world.deferred.push(deferredOp{kind: opDespawn, entity: eid, system: c.system})
}

// commandBuffer stores deferred ops in the order they were recorded.
type commandBuffer struct {
	ops []deferredOp
	mu  sync.Mutex
}

func (b *commandBuffer) push(op deferredOp) {
	b.mu.Lock()
	b.ops = append(b.ops, op)
	b.mu.Unlock()
}

// take removes and returns all recorded ops.
func (b *commandBuffer) take() []deferredOp {
	b.mu.Lock()
	defer b.mu.Unlock()
	ops := b.ops
	b.ops = nil
	return ops
}

// apply applies the recorded ops in order with a single change tick. An op that can't be applied,
// e.g. despawning an entity that is already gone, is logged and skipped so it doesn't affect the
// other ops.
func (b *commandBuffer) apply(ws *worldState, stamp uint64, log *zerolog.Logger) {
	for _, op := range b.take() {
		var err error
		switch op.kind {
		case opSpawn:
			if err = ws.spawn(op.entity, op.components, stamp); err != nil {
				ws.entities.release(op.entity)
			}
		case opInsert:
			err = ws.insert(op.entity, op.components, stamp)
		case opDespawn:
			err = ws.despawn(op.entity)
		}
		if err != nil {
			log.Warn().Err(eris.Wrapf(err, "deferred op failed")).
				Str("system", op.system).
				Uint32("entity", uint32(op.entity)).
				Msg("skipping structural change")
		}
	}
}

// discard drops all recorded ops and releases the IDs reserved by pending spawns.
func (b *commandBuffer) discard(ws *worldState) {
	for _, op := range b.take() {
		if op.kind == opSpawn {
			ws.entities.release(op.entity)
		}
	}
}
