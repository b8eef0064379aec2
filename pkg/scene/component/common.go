package component

import (
	"github.com/argus-labs/scene-engine/pkg/geom"
	"github.com/argus-labs/scene-engine/pkg/stats"
)

// ProtocolEntityID is the id clients use to address an actor while it is in the scene.
type ProtocolEntityID uint32

func (ProtocolEntityID) Name() string { return "protocol_entity_id" }

// GUID is the persisted identity of an actor. It outlives scene membership.
type GUID uint64

func (GUID) Name() string { return "guid" }

type Level uint32

func (Level) Name() string { return "level" }

// BreakLevel is the ascension tier.
type BreakLevel uint32

func (BreakLevel) Name() string { return "break_level" }

type OwnerPlayerUID uint32

func (OwnerPlayerUID) Name() string { return "owner_player_uid" }

// LifeState is the wire life state of an actor.
type LifeState uint32

const (
	LifeStateNone   LifeState = 0
	LifeStateAlive  LifeState = 1
	LifeStateDead   LifeState = 2
	LifeStateRevive LifeState = 3
)

func (LifeState) Name() string { return "life_state" }

// Visible marks an actor that has been announced to clients. It is attached once and only goes away
// with the actor.
type Visible struct{}

func (Visible) Name() string { return "visible" }

// ToBeRemoved marks an actor for removal by housekeeping at the end of the tick.
type ToBeRemoved struct{}

func (ToBeRemoved) Name() string { return "to_be_removed" }

type Transform struct {
	Position geom.Vector3 `json:"position"`
	Rotation geom.Vector3 `json:"rotation"`
}

func (Transform) Name() string { return "transform" }

// FightProperties holds the derived combat stats of an actor.
type FightProperties struct {
	stats.FightProperties
}

func (FightProperties) Name() string { return "fight_properties" }
