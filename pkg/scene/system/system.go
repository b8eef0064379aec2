// Package system holds the systems simulating a scene:
//
//   - the appearance pipeline, which applies cosmetic changes in Update and publishes them in
//     PostUpdate, falling back to the persisted record for avatars that aren't in the scene
//   - the debug command processor, which spawns monsters and teleports players
//   - scene membership, moving avatars in and out of the scene and applying jumps
//   - notifications for actors appearing and housekeeping for actors being removed
package system

import (
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/argus-labs/scene-engine/pkg/ecs"
	"github.com/argus-labs/scene-engine/pkg/gamedata"
	"github.com/argus-labs/scene-engine/pkg/geom"
	"github.com/argus-labs/scene-engine/pkg/message"
	"github.com/argus-labs/scene-engine/pkg/persistence"
	"github.com/argus-labs/scene-engine/pkg/scene/component"
	"github.com/rotisserie/eris"
)

// Players is the resident player records the systems read and update. Implementations must not
// block on I/O and must be safe for concurrent use.
type Players interface {
	Get(uid uint32) (persistence.PlayerRecord, error)
	UpdateAvatar(uid uint32, guid uint64, fn func(*persistence.AvatarRecord)) error
	SetPosition(uid uint32, position geom.Vector3) error
}

var _ Players = &persistence.Players{}

// ResourceReader reads named travel resources.
type ResourceReader interface {
	ReadResource(key string) ([]byte, error)
}

// DirResources reads travel resources from <Dir>/<key>.bin.
type DirResources struct {
	Dir string
}

// ResourcePath returns the path of the resource named key.
func (d DirResources) ResourcePath(key string) string {
	return filepath.Join(d.Dir, key+".bin")
}

func (d DirResources) ReadResource(key string) ([]byte, error) {
	path := d.ResourcePath(key)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to read travel resource %s", path)
	}
	return data, nil
}

// Deps are the collaborators the systems use. Tables, Players, and Output are required.
type Deps struct {
	Tables    *gamedata.Tables
	Players   Players
	Output    message.Output
	Counters  *component.EntityCounters
	Resources ResourceReader
	// Rand picks random spawn candidates. Only the debug command processor uses it.
	Rand *rand.Rand
}

func (d *Deps) validate() error {
	if d.Tables == nil {
		return eris.New("game data tables are required")
	}
	if d.Players == nil {
		return eris.New("players are required")
	}
	if d.Output == nil {
		return eris.New("message output is required")
	}
	return nil
}

func (d *Deps) setDefaults() {
	if d.Counters == nil {
		d.Counters = &component.EntityCounters{}
	}
	if d.Resources == nil {
		d.Resources = DirResources{Dir: "assets/luashell"}
	}
	if d.Rand == nil {
		d.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())) //nolint:gosec // debug spawns
	}
}

// Register registers the scene components and every scene system. Systems of the same hook are
// registered in the order they depend on each other.
func Register(w *ecs.World, deps Deps) error {
	if err := deps.validate(); err != nil {
		return eris.Wrap(err, "invalid system dependencies")
	}
	deps.setDefaults()

	if err := component.Register(w); err != nil {
		return err
	}

	registrations := []func() error{
		// PreUpdate
		func() error {
			return ecs.RegisterSystem(w, AppearanceIntakeSystem, ecs.WithHook(ecs.PreUpdate))
		},
		func() error { return ecs.RegisterSystem(w, LeaveSceneSystem, ecs.WithHook(ecs.PreUpdate)) },
		// Update
		func() error { return ecs.RegisterSystem(w, NewEnterSceneSystem(deps)) },
		func() error { return ecs.RegisterSystem(w, NewDebugCommandSystem(deps)) },
		func() error { return ecs.RegisterSystem(w, NewPlayerJumpSystem(deps)) },
		func() error { return ecs.RegisterSystem(w, NewUpdateAvatarAppearanceSystem(deps)) },
		// PostUpdate
		func() error {
			return ecs.RegisterSystem(w, NewNotifyAvatarAppearanceChangeSystem(deps), ecs.WithHook(ecs.PostUpdate))
		},
		func() error {
			return ecs.RegisterSystem(w, NewNotifyAppearEntitiesSystem(deps), ecs.WithHook(ecs.PostUpdate))
		},
		func() error {
			return ecs.RegisterSystem(w, NewHousekeepingSystem(deps), ecs.WithHook(ecs.PostUpdate))
		},
	}
	for _, register := range registrations {
		if err := register(); err != nil {
			return err
		}
	}
	return nil
}
