package ecs

import (
	"reflect"

	"github.com/argus-labs/scene-engine/pkg/assert"
	"github.com/kelindar/bitmap"
	"github.com/rotisserie/eris"
)

// Component is the interface that all components must implement.
// Components are pure data containers that can be attached to entities.
type Component interface { //nolint:iface // We may add more methods in the future.
	// Name returns a unique string identifier for the component type.
	// This should be consistent across program executions.
	Name() string
}

// componentID is a unique identifier for a component type.
type componentID = uint32

// componentManager manages component type registration and lookup.
type componentManager struct {
	nextID    componentID             // The next available component ID
	catalog   map[string]componentID  // Component name -> component ID
	factories []columnFactory         // Component ID -> column factory
	types     map[string]reflect.Type // Component name -> component type
}

// newComponentManager creates a new component manager.
func newComponentManager() componentManager {
	return componentManager{
		nextID:    0,
		catalog:   make(map[string]componentID),
		factories: make([]columnFactory, 0),
		types:     make(map[string]reflect.Type),
	}
}

// register registers a new component type and returns its ID.
// If the component is already registered, no-op.
func (cm *componentManager) register(name string, typ reflect.Type, factory columnFactory) (componentID, error) {
	if name == "" {
		return 0, eris.New("component name cannot be empty")
	}

	if cid, exists := cm.catalog[name]; exists {
		if cm.types[name] != typ {
			return 0, eris.Errorf("component name %s is used by both %s and %s", name, cm.types[name], typ)
		}
		return cid, nil
	}

	cm.catalog[name] = cm.nextID
	cm.types[name] = typ
	cm.factories = append(cm.factories, factory)
	cm.nextID++
	assert.That(int(cm.nextID) == len(cm.factories), "component id doesn't match number of components")

	return cm.nextID - 1, nil
}

// registerAbstract registers a component from a boxed value. Only components whose concrete type
// was seen by registerComponent can be registered this way, since the column factory needs T.
func (cm *componentManager) registerAbstract(c Component) (componentID, error) {
	cid, err := cm.getID(c.Name())
	if err != nil {
		return 0, err
	}
	if cm.types[c.Name()] != reflect.TypeOf(c) {
		return 0, eris.Errorf("component %s has type %T, registered as %s", c.Name(), c, cm.types[c.Name()])
	}
	return cid, nil
}

// getID returns a component's ID given a name.
func (cm *componentManager) getID(name string) (componentID, error) {
	id, exists := cm.catalog[name]
	if !exists {
		return 0, eris.Wrapf(ErrComponentNotFound, "component %s", name)
	}
	return id, nil
}

// toBitmap converts a list of components to the bitmap of their IDs. Returns an error if a
// component isn't registered or is listed twice.
func (cm *componentManager) toBitmap(components []Component) (bitmap.Bitmap, error) {
	var bm bitmap.Bitmap
	for _, c := range components {
		cid, err := cm.registerAbstract(c)
		if err != nil {
			return bm, err
		}
		if bm.Contains(cid) {
			return bm, eris.Errorf("component %s listed more than once", c.Name())
		}
		bm.Set(cid)
	}
	return bm, nil
}

// registerComponent registers component T with the world state and returns its ID.
func registerComponent[T Component](ws *worldState) (componentID, error) {
	var zero T
	return ws.components.register(zero.Name(), reflect.TypeOf(zero), newColumnFactory[T]())
}

// RegisterComponent registers component T so it can be spawned before any system references it.
func RegisterComponent[T Component](w *World) error {
	_, err := registerComponent[T](w.state)
	return err
}
