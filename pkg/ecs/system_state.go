package ecs

import (
	"iter"
	"reflect"

	"github.com/argus-labs/scene-engine/pkg/assert"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// fieldContext is passed to every system state field during registration.
type fieldContext struct {
	world  *World
	system string       // Name of the system being registered
	ticks  *systemTicks // Change ticks of the system, read by Added filters
}

// systemStateField defines the interface for system state initialization. All system state fields
// must implement this interface.
type systemStateField interface {
	init(fc *fieldContext) (access, error)
}

var _ systemStateField = &BaseSystemState{}
var _ systemStateField = &WithCommand[Command]{}
var _ systemStateField = &WithSystemEventReceiver[SystemEvent]{}
var _ systemStateField = &WithSystemEventEmitter[SystemEvent]{}
var _ systemStateField = &Contains[struct{}]{}
var _ systemStateField = &Exact[struct{}]{}

// -------------------------------------------------------------------------------------------------
// Base System State Field
// -------------------------------------------------------------------------------------------------

// BaseSystemState can be embedded in system state types to give systems a logger and a command
// buffer for structural changes.
//
// Example:
//
//	type SpawnSystemState struct {
//	    ecs.BaseSystemState
//	    // Other fields...
//	}
//
//	func SpawnSystem(state *SpawnSystemState) error {
//	    eid, err := state.Commands().Spawn(Health{Value: 100}, Position{})
//	    if err != nil {
//	        return err
//	    }
//	    state.Logger().Debug().Uint32("entity", uint32(eid)).Msg("spawned")
//	    return nil
//	}
type BaseSystemState struct {
	world    *World
	commands Commands
	logger   zerolog.Logger
}

func (b *BaseSystemState) init(fc *fieldContext) (access, error) {
	b.world = fc.world
	b.commands = Commands{world: fc.world, system: fc.system}
	b.logger = fc.world.logger.With().Str("system", fc.system).Logger()
	return access{}, nil
}

// Commands returns the buffer used to spawn, modify, and despawn entities from a system.
func (b *BaseSystemState) Commands() *Commands {
	return &b.commands
}

// Logger returns a logger tagged with the system name.
func (b *BaseSystemState) Logger() *zerolog.Logger {
	return &b.logger
}

// TickHeight returns the number of ticks completed by the world.
func (b *BaseSystemState) TickHeight() uint64 {
	return b.world.tickHeight
}

// -------------------------------------------------------------------------------------------------
// Commands Fields
// -------------------------------------------------------------------------------------------------

// WithCommand is a system state field that allows systems to receive commands of type T enqueued
// with World.Enqueue. The command type is registered when the system is registered. Any number of
// systems can receive the same command type.
//
// Example:
//
//	type SpawnSystemState struct {
//	    SpawnCommands ecs.WithCommand[SpawnPlayer]
//	}
//
//	func SpawnSystem(state *SpawnSystemState) error {
//	    for cmd := range state.SpawnCommands.Iter() {
//	        // Process spawn commands.
//	    }
//	    return nil
//	}
type WithCommand[T Command] struct {
	world *World
}

func (c *WithCommand[T]) init(fc *fieldContext) (access, error) {
	var zero T
	if _, err := fc.world.commands.register(zero.Name()); err != nil {
		return access{}, eris.Wrapf(err, "failed to register command %s", zero.Name())
	}
	c.world = fc.world
	return access{}, nil
}

// Iter returns an iterator over all commands of type T received this tick.
func (c *WithCommand[T]) Iter() iter.Seq[T] {
	var zero T
	commands, err := c.world.commands.get(zero.Name())
	assert.That(err == nil, "command not automatically registered %s", zero.Name())

	return func(yield func(T) bool) {
		for _, command := range commands {
			payload, ok := command.(T)
			assert.That(ok, "mismatched command type %T for %s", command, zero.Name())
			if !yield(payload) {
				return
			}
		}
	}
}

// -------------------------------------------------------------------------------------------------
// System Event Fields
// -------------------------------------------------------------------------------------------------

// WithSystemEventReceiver is a system state field that allows systems to receive system events of
// type T. Receivers are scheduled after the emitters of T registered before them and may run in
// parallel with other receivers of T.
//
// Example:
//
//	type GraveyardSystemState struct {
//	    PlayerDeaths ecs.WithSystemEventReceiver[PlayerDeath]
//	}
//
//	func GraveyardSystem(state *GraveyardSystemState) error {
//	    for death := range state.PlayerDeaths.Iter() {
//	        // Process the system event.
//	    }
//	    return nil
//	}
type WithSystemEventReceiver[T SystemEvent] struct {
	world *World
}

func (s *WithSystemEventReceiver[T]) init(fc *fieldContext) (access, error) {
	var zero T
	id, err := fc.world.systemEvents.register(zero.Name())
	if err != nil {
		return access{}, eris.Wrapf(err, "failed to register system event %s", zero.Name())
	}
	s.world = fc.world

	var acc access
	acc.eventReads.Set(id)
	return acc, nil
}

// Iter returns an iterator over all system events of type T emitted so far this tick.
func (s *WithSystemEventReceiver[T]) Iter() iter.Seq[T] {
	var zero T
	systemEvents, err := s.world.systemEvents.get(zero.Name())
	assert.That(err == nil, "system event not automatically registered %s", zero.Name())

	return func(yield func(T) bool) {
		for _, systemEvent := range systemEvents {
			event, ok := systemEvent.(T)
			assert.That(ok, "mismatched system event type %T for %s", systemEvent, zero.Name())
			if !yield(event) {
				return
			}
		}
	}
}

// WithSystemEventEmitter is a system state field that allows systems to emit system events of
// type T.
//
// Example:
//
//	type CombatSystemState struct {
//	    PlayerDeaths ecs.WithSystemEventEmitter[PlayerDeath]
//	}
//
//	func CombatSystem(state *CombatSystemState) error {
//	    state.PlayerDeaths.Emit(PlayerDeath{Nickname: "Player1"})
//	    return nil
//	}
type WithSystemEventEmitter[T SystemEvent] struct {
	world *World
}

func (s *WithSystemEventEmitter[T]) init(fc *fieldContext) (access, error) {
	var zero T
	id, err := fc.world.systemEvents.register(zero.Name())
	if err != nil {
		return access{}, eris.Wrapf(err, "failed to register system event %s", zero.Name())
	}
	s.world = fc.world

	var acc access
	acc.eventWrites.Set(id)
	return acc, nil
}

// Emit emits a system event of type T.
func (s *WithSystemEventEmitter[T]) Emit(systemEvent T) {
	err := s.world.systemEvents.enqueue(systemEvent)
	assert.That(err == nil, "system event not automatically registered %s", systemEvent.Name())
}

// -------------------------------------------------------------------------------------------------
// Internal
// -------------------------------------------------------------------------------------------------

// initializeSystemState initializes every field of a system state and collects the system's access.
func initializeSystemState[T any](fc *fieldContext, state *T) (access, error) {
	var acc access

	value := reflect.ValueOf(state).Elem()
	if value.Kind() != reflect.Struct {
		return acc, eris.Errorf("system state must be a struct, got %s", value.Type())
	}

	for i := range value.NumField() {
		field := value.Field(i)
		fieldType := value.Type().Field(i)

		if !fieldType.IsExported() {
			return acc, eris.Errorf("field %s must be exported", fieldType.Name)
		}

		stateField, ok := field.Addr().Interface().(systemStateField)
		if !ok {
			return acc, eris.Errorf("field %s must be a system state field, got %s", fieldType.Name, fieldType.Type)
		}

		fieldAccess, err := stateField.init(fc)
		if err != nil {
			return acc, eris.Wrapf(err, "failed to initialize field %s", fieldType.Name)
		}
		if err := acc.merge(fieldAccess); err != nil {
			return acc, eris.Wrapf(err, "field %s", fieldType.Name)
		}
	}

	return acc, nil
}
