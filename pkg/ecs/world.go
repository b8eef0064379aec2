package ecs

import (
	"reflect"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// World represents the root ECS state.
type World struct {
	state *worldState

	// changeTick is incremented for every system run and every batch of structural changes. Added
	// filters compare component stamps against it.
	changeTick atomic.Uint64
	tickHeight uint64 // Number of completed ticks

	// Systems.
	initialized bool               // Set by Init, no systems can be registered afterwards
	initDone    bool               // Tracks if init systems have been executed
	initSystems []systemMetadata   // Initialization systems, run once during the genesis tick
	scheduler   [3]systemScheduler // Systems schedulers (PreUpdate, Update, PostUpdate)

	systemEvents systemEventManager // Manages system events
	commands     commandManager     // Manages commands from outside the world
	deferred     commandBuffer      // Structural changes recorded by systems

	logger zerolog.Logger
}

// WorldOption configures a World.
type WorldOption func(*World)

// WithLogger sets the logger used by the world and its systems.
func WithLogger(logger zerolog.Logger) WorldOption {
	return func(w *World) { w.logger = logger }
}

// NewWorld creates a new World instance.
func NewWorld(opts ...WorldOption) *World {
	world := &World{
		state:        newWorldState(),
		initSystems:  make([]systemMetadata, 0),
		scheduler:    [3]systemScheduler{},
		systemEvents: newSystemEventManager(),
		commands:     newCommandManager(),
		logger:       zerolog.Nop(),
	}

	for i := range world.scheduler {
		world.scheduler[i] = newSystemScheduler()
	}
	for _, opt := range opts {
		opt(world)
	}

	return world
}

// Init initializes the system schedulers by creating their schedules.
func (w *World) Init() {
	for i := range w.scheduler {
		w.scheduler[i].createSchedule()
	}
	w.initialized = true
}

// Tick drains the queued commands and executes the registered systems hook by hook. Structural
// changes recorded by the systems of a hook are applied before the next hook starts. If any system
// returns an error, the tick is aborted, the pending structural changes are discarded, and the error
// is returned. System events and commands never outlive the tick.
//
// The first tick only runs the Init systems.
func (w *World) Tick() error {
	if !w.initialized {
		return eris.New("world must be initialized before ticking")
	}

	if !w.initDone {
		for _, system := range w.initSystems {
			if err := system.fn(); err != nil {
				w.deferred.discard(w.state)
				return eris.Wrapf(err, "init system %s failed", system.name)
			}
		}
		w.applyDeferred()
		w.initDone = true
		return nil
	}

	w.commands.drain()
	defer w.clearBuffers()

	for i := range w.scheduler {
		if err := w.scheduler[i].Run(); err != nil {
			w.deferred.discard(w.state)
			return err
		}
		w.applyDeferred()
	}

	w.tickHeight++
	return nil
}

// Enqueue queues an external command for the next tick. It is safe to call from any goroutine.
// Returns an error if no system receives the command type.
func (w *World) Enqueue(command Command) error {
	return w.commands.enqueue(command)
}

// TickHeight returns the number of completed ticks.
func (w *World) TickHeight() uint64 {
	return w.tickHeight
}

// applyDeferred applies the structural changes recorded by systems.
func (w *World) applyDeferred() {
	w.deferred.apply(w.state, w.changeTick.Add(1), &w.logger)
}

// clearBuffers clears the per-tick buffers.
func (w *World) clearBuffers() {
	w.systemEvents.clear()
	w.commands.clear()
}

// ComponentTypes returns a map of component names to their reflect.Type.
func (w *World) ComponentTypes() map[string]reflect.Type {
	types := make(map[string]reflect.Type, len(w.state.components.types))
	for name, typ := range w.state.components.types {
		types[name] = typ
	}
	return types
}
