// Package ecs implements an archetype based entity component system. Entities are rows of typed
// components, systems declare the components they read and write through their state struct, and
// a scheduler runs systems in parallel whenever their access doesn't conflict.
//
// The functions in this file operate on the world directly and apply immediately. They are meant
// for setup, tooling, and tests, and must not be called while a tick is running. Systems use
// searches and their Commands buffer instead.
package ecs

import "github.com/rotisserie/eris"

// Spawn creates an entity with the given components. All component types must be registered.
func (w *World) Spawn(components ...Component) (EntityID, error) {
	eid, err := w.state.entities.reserve()
	if err != nil {
		return 0, err
	}
	if err := w.state.spawn(eid, components, w.changeTick.Add(1)); err != nil {
		w.state.entities.release(eid)
		return 0, eris.Wrap(err, "failed to spawn entity")
	}
	return eid, nil
}

// Insert attaches components to an existing entity, overwriting the ones it already has.
func (w *World) Insert(eid EntityID, components ...Component) error {
	return w.state.insert(eid, components, w.changeTick.Add(1))
}

// Despawn deletes an entity and all its components from the world.
func (w *World) Despawn(eid EntityID) error {
	return w.state.despawn(eid)
}

// Alive checks if an entity exists in the world.
func (w *World) Alive(eid EntityID) bool {
	return w.state.entities.isAlive(eid)
}

// Get gets a component from an entity.
// Returns an error if the entity doesn't exist or doesn't contain the component type.
func Get[T Component](w *World, eid EntityID) (T, error) {
	return getComponent[T](w.state, eid)
}

// Set overwrites a component of an entity.
// Returns an error if the entity doesn't exist or doesn't contain the component type.
func Set[T Component](w *World, eid EntityID, component T) error {
	return setComponent(w.state, eid, component)
}

// Has checks if an entity has a specific component type.
// Returns false if either the entity doesn't exist or doesn't have the component.
func Has[T Component](w *World, eid EntityID) bool {
	_, err := Get[T](w, eid)
	return err == nil
}
