package ecs

import (
	"fmt"
	"reflect"

	"github.com/kelindar/bitmap"
	"github.com/rotisserie/eris"
)

// System is a function that contains game logic. It receives a pointer to its state, whose fields
// are initialized when the system is registered.
type System[T any] func(state *T) error

// SystemHook defines when a system should be executed in the update cycle.
type SystemHook uint8

const (
	// PreUpdate runs before the main update.
	PreUpdate SystemHook = 0
	// Update runs during the main update phase.
	Update SystemHook = 1
	// PostUpdate runs after the main update.
	PostUpdate SystemHook = 2
	// Init runs once during world initialization.
	Init SystemHook = 3
)

// systemConfig holds all configurable options for system registration.
type systemConfig struct {
	hook SystemHook // The hook that determines when the system should be executed
	name string     // Overrides the system name used in logs and errors
}

// newSystemConfig creates a new system config with default values.
func newSystemConfig() systemConfig {
	return systemConfig{hook: Update}
}

// SystemOption is a function that configures a SystemConfig.
type SystemOption func(*systemConfig)

// WithHook returns an option to set the system hook.
func WithHook(hook SystemHook) SystemOption {
	return func(cfg *systemConfig) { cfg.hook = hook }
}

// WithName returns an option to set the system name.
func WithName(name string) SystemOption {
	return func(cfg *systemConfig) { cfg.name = name }
}

// systemTicks holds the change tick of a system's previous run. Added filters match components
// attached after it.
type systemTicks struct {
	last uint64
}

// RegisterSystem registers a system and its state with the world. By default, systems are registered
// to the Update hook. Systems must be registered before World.Init.
//
// Example:
//
//	type RegenSystemState struct {
//		ecs.BaseSystemState
//		Players ecs.Contains[struct {
//			Tag    ecs.With[PlayerTag]
//			Health ecs.Ref[Health]
//		}]
//	}
//
//	err := ecs.RegisterSystem(world, func(state *RegenSystemState) error {
//		// System logic here
//		return nil
//	})
func RegisterSystem[T any](w *World, system System[T], opts ...SystemOption) error {
	if w.initialized {
		return eris.New("systems must be registered before the world is initialized")
	}

	cfg := newSystemConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	state := new(T)
	name := cfg.name
	if name == "" {
		name = reflect.TypeOf(*state).Name()
		if name == "" {
			name = fmt.Sprintf("%T", *state)
		}
	}

	ticks := &systemTicks{}
	acc, err := initializeSystemState(&fieldContext{world: w, system: name, ticks: ticks}, state)
	if err != nil {
		return eris.Wrapf(err, "failed to register system %s", name)
	}

	fn := func() error {
		this := w.changeTick.Add(1)
		err := system(state)
		ticks.last = this
		return err
	}

	switch cfg.hook {
	case Init:
		w.initSystems = append(w.initSystems, systemMetadata{name: name, access: acc, fn: fn})
	case PreUpdate, Update, PostUpdate:
		w.scheduler[cfg.hook].register(name, acc, fn)
	default:
		return eris.Errorf("invalid system hook %d", cfg.hook)
	}
	return nil
}

// access is the set of component kinds and system event types a system reads and writes.
type access struct {
	reads       bitmap.Bitmap // Components borrowed read-only
	writes      bitmap.Bitmap // Components borrowed read-write
	eventReads  bitmap.Bitmap // System events received
	eventWrites bitmap.Bitmap // System events emitted
}

// merge adds another field's access to the system's access. A write can't share a component kind
// with any other borrow of the same system.
func (a *access) merge(b access) error {
	var all bitmap.Bitmap
	union(&all, a.reads)
	union(&all, a.writes)
	if overlaps(b.writes, all) || overlaps(b.reads, a.writes) {
		return eris.Wrap(ErrAccessConflict, "a component borrowed read-write can't be borrowed again")
	}
	if overlaps(b.eventReads, a.eventReads) || overlaps(b.eventWrites, a.eventWrites) {
		return eris.Wrap(ErrAccessConflict, "system events of the same type can only be declared once")
	}

	union(&a.reads, b.reads)
	union(&a.writes, b.writes)
	union(&a.eventReads, b.eventReads)
	union(&a.eventWrites, b.eventWrites)
	return nil
}

// conflicts reports whether two systems can't run at the same time: one of them writes something the
// other one reads or writes.
func (a *access) conflicts(b *access) bool {
	return overlaps(a.writes, b.reads) || overlaps(a.writes, b.writes) || overlaps(a.reads, b.writes) ||
		overlaps(a.eventWrites, b.eventReads) || overlaps(a.eventWrites, b.eventWrites) ||
		overlaps(a.eventReads, b.eventWrites)
}

// union adds the bits of src to dst. The accelerated Or paths index the operand's first word, so an
// empty operand is skipped.
func union(dst *bitmap.Bitmap, src bitmap.Bitmap) {
	if len(src) == 0 {
		return
	}
	dst.Or(src)
}

// overlaps returns true if the two bitmaps share at least one bit.
func overlaps(x, y bitmap.Bitmap) bool {
	clone := x.Clone(nil)
	clone.And(y)
	return clone.Count() != 0
}
