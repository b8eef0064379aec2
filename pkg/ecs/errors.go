package ecs

import "github.com/rotisserie/eris"

var (
	// ErrEntityNotFound is returned when attempting to operate on a non-existent entity
	// or when an entity cannot be found in the expected location.
	ErrEntityNotFound = eris.New("entity does not exist")

	// ErrComponentNotFound is returned when a component type isn't registered or an entity doesn't
	// carry the requested component.
	ErrComponentNotFound = eris.New("component does not exist")

	// ErrAccessConflict is returned when a system declares overlapping access to a component or
	// system event that would allow a write to alias another borrow.
	ErrAccessConflict = eris.New("conflicting access")
)
