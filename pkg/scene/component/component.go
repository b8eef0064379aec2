// Package component defines the components of scene actors: avatars, their weapons, and monsters.
//
// Scalar components are named types over their value so they can be used directly in debug search
// expressions, e.g. `level >= 90 && monster_id == 20010101`.
package component

import (
	"sync/atomic"

	"github.com/argus-labs/scene-engine/pkg/ecs"
	"github.com/rotisserie/eris"
)

// EntityType is the actor type tag carried in the upper byte of a protocol entity id.
type EntityType uint8

const (
	EntityTypeNone    EntityType = 0
	EntityTypeAvatar  EntityType = 1
	EntityTypeMonster EntityType = 2
	EntityTypeNpc     EntityType = 3
	EntityTypeGadget  EntityType = 4
	EntityTypeWeapon  EntityType = 6

	entityTypeCount = 7
)

func (t EntityType) String() string {
	switch t {
	case EntityTypeNone:
		return "none"
	case EntityTypeAvatar:
		return "avatar"
	case EntityTypeMonster:
		return "monster"
	case EntityTypeNpc:
		return "npc"
	case EntityTypeGadget:
		return "gadget"
	case EntityTypeWeapon:
		return "weapon"
	default:
		return "unknown"
	}
}

const (
	sequenceBits = 24
	maxSequence  = 1<<sequenceBits - 1
)

// ErrEntityIDsExhausted is returned when a type's protocol entity id sequence has run out.
var ErrEntityIDsExhausted = eris.New("protocol entity ids exhausted")

// NewProtocolEntityID packs a type tag and a sequence number into a protocol entity id.
func NewProtocolEntityID(typ EntityType, seq uint32) ProtocolEntityID {
	return ProtocolEntityID(uint32(typ)<<sequenceBits | seq&maxSequence)
}

// Type returns the type tag of the id.
func (id ProtocolEntityID) Type() EntityType {
	return EntityType(id >> sequenceBits)
}

// Sequence returns the per-type sequence number of the id.
func (id ProtocolEntityID) Sequence() uint32 {
	return uint32(id) & maxSequence
}

// EntityCounters hands out protocol entity ids. Every type has its own monotonically increasing
// sequence starting at 1. Ids are never handed out twice, so an id can't collide with a live actor.
type EntityCounters struct {
	next [entityTypeCount]atomic.Uint32
}

// Next returns the next protocol entity id of the type.
func (c *EntityCounters) Next(typ EntityType) (ProtocolEntityID, error) {
	if typ == EntityTypeNone || int(typ) >= entityTypeCount {
		return 0, eris.Errorf("invalid entity type %d", typ)
	}

	seq := c.next[typ].Add(1)
	if seq > maxSequence {
		// Keep the counter pinned so it can't wrap around into ids that were already used.
		c.next[typ].Store(maxSequence + 1)
		return 0, eris.Wrapf(ErrEntityIDsExhausted, "type %s", typ)
	}
	return NewProtocolEntityID(typ, seq), nil
}

// Register registers every scene component with the world.
func Register(w *ecs.World) error {
	registrations := []func(*ecs.World) error{
		// Common
		ecs.RegisterComponent[ProtocolEntityID],
		ecs.RegisterComponent[GUID],
		ecs.RegisterComponent[Level],
		ecs.RegisterComponent[BreakLevel],
		ecs.RegisterComponent[OwnerPlayerUID],
		ecs.RegisterComponent[LifeState],
		ecs.RegisterComponent[Visible],
		ecs.RegisterComponent[ToBeRemoved],
		ecs.RegisterComponent[Transform],
		ecs.RegisterComponent[FightProperties],
		// Avatar
		ecs.RegisterComponent[AvatarID],
		ecs.RegisterComponent[ControlPeer],
		ecs.RegisterComponent[SkillDepot],
		ecs.RegisterComponent[BornTime],
		ecs.RegisterComponent[IndexInSceneTeam],
		ecs.RegisterComponent[CurrentPlayerAvatar],
		ecs.RegisterComponent[SkillLevelMap],
		ecs.RegisterComponent[InherentProudSkillList],
		ecs.RegisterComponent[Equipment],
		ecs.RegisterComponent[AvatarAppearance],
		// Weapon
		ecs.RegisterComponent[WeaponID],
		ecs.RegisterComponent[GadgetID],
		ecs.RegisterComponent[PromoteLevel],
		ecs.RegisterComponent[AffixMap],
		// Monster
		ecs.RegisterComponent[MonsterID],
	}
	for _, register := range registrations {
		if err := register(w); err != nil {
			return eris.Wrap(err, "failed to register scene components")
		}
	}
	return nil
}
