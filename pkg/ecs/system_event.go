package ecs

import (
	"math"

	"github.com/argus-labs/scene-engine/pkg/assert"
	"github.com/rotisserie/eris"
)

// systemEventID is a unique identifier for a system event type.
type systemEventID = uint32

// maxSystemEventID is the maximum number of system event types that can be registered.
const maxSystemEventID = math.MaxUint32 - 1

// SystemEvent is an interface that all system events must implement.
// SystemEvents are events emitted by a system to be handled by other systems in the same tick.
type SystemEvent interface { //nolint:iface // We may add more methods in the future.
	Name() string
}

// systemEventManager manages the registration and storage of system events. Each event type has a
// log that lives for one tick: emitters append to it and every receiver reads all of it.
type systemEventManager struct {
	nextID   systemEventID            // The next system event ID
	registry map[string]systemEventID // System event name -> System event ID
	events   [][]SystemEvent          // System event ID -> events emitted this tick
}

// newSystemEventManager creates a new systemEventManager.
func newSystemEventManager() systemEventManager {
	return systemEventManager{
		nextID:   0,
		registry: make(map[string]systemEventID),
		events:   make([][]SystemEvent, 0),
	}
}

// register registers a new system event type. If the system event is already registered, the
// existing id is returned.
func (s *systemEventManager) register(name string) (systemEventID, error) {
	if name == "" {
		return 0, eris.New("system event name cannot be empty")
	}

	if id, exists := s.registry[name]; exists {
		return id, nil
	}

	if s.nextID > maxSystemEventID {
		return 0, eris.New("max number of system events exceeded")
	}

	const initialEventBufferCapacity = 128
	s.registry[name] = s.nextID
	s.events = append(s.events, make([]SystemEvent, 0, initialEventBufferCapacity))
	s.nextID++
	assert.That(int(s.nextID) == len(s.events), "system event id doesn't match number of system events")

	return s.nextID - 1, nil
}

// get retrieves the system events emitted so far this tick for a given system event name.
func (s *systemEventManager) get(name string) ([]SystemEvent, error) {
	id, exists := s.registry[name]
	if !exists {
		return nil, eris.Errorf("system event %s not registered", name)
	}
	return s.events[id], nil
}

// enqueue appends a system event to its log. This function is not safe for concurrent use. It
// expects the scheduler to order emitters and receivers of the same event so that there is no
// concurrent access to the slices.
func (s *systemEventManager) enqueue(systemEvent SystemEvent) error {
	id, exists := s.registry[systemEvent.Name()]
	if !exists {
		return eris.Errorf("system event %s not registered", systemEvent.Name())
	}
	s.events[id] = append(s.events[id], systemEvent)
	return nil
}

// clear clears the system event logs.
func (s *systemEventManager) clear() {
	for id := range s.events {
		s.events[id] = s.events[id][:0]
	}
}
