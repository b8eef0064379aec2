package system

import (
	"github.com/argus-labs/scene-engine/pkg/ecs"
	"github.com/argus-labs/scene-engine/pkg/geom"
)

var (
	_ ecs.Command = ChangeAvatarAppearanceCommand{}
	_ ecs.Command = SpawnMonsterCommand{}
	_ ecs.Command = QuickTravelCommand{}
	_ ecs.Command = EnterSceneCommand{}
	_ ecs.Command = LeaveSceneCommand{}

	_ ecs.SystemEvent = AvatarAppearanceChange{}
	_ ecs.SystemEvent = PlayerJump{}
)

// -------------------------------------------------------------------------------------------------
// Commands
// -------------------------------------------------------------------------------------------------

// AppearanceChangeKind is the cosmetic changed by an appearance change.
type AppearanceChangeKind uint8

const (
	AppearanceCostume     AppearanceChangeKind = 1
	AppearanceTraceEffect AppearanceChangeKind = 2
)

// ChangeAvatarAppearanceCommand is sent when a player changes the costume or trace effect of one of
// their avatars. The avatar doesn't have to be in the scene.
type ChangeAvatarAppearanceCommand struct {
	PlayerUID  uint32               `json:"player_uid"  msgpack:"player_uid"`
	AvatarGUID uint64               `json:"avatar_guid" msgpack:"avatar_guid"`
	Kind       AppearanceChangeKind `json:"kind"        msgpack:"kind"`
	Value      uint32               `json:"value"       msgpack:"value"`
}

func (ChangeAvatarAppearanceCommand) Name() string { return "change-avatar-appearance" }

// SpawnMonsterCommand is the debug command spawning a monster next to the executing player.
type SpawnMonsterCommand struct {
	ExecutorUID uint32        `json:"executor_uid" msgpack:"executor_uid"`
	Target      MonsterTarget `json:"target"       msgpack:"target"`
	X           float32       `json:"x"            msgpack:"x"`
	Z           float32       `json:"z"            msgpack:"z"`
}

func (SpawnMonsterCommand) Name() string { return "spawn-monster" }

// QuickTravelCommand is the debug command teleporting the executing player.
type QuickTravelCommand struct {
	ExecutorUID uint32            `json:"executor_uid" msgpack:"executor_uid"`
	Destination TravelDestination `json:"destination"  msgpack:"destination"`
}

func (QuickTravelCommand) Name() string { return "quick-travel" }

// EnterSceneCommand puts a player's current avatar into the scene. The player's record must be
// resident in the player cache.
type EnterSceneCommand struct {
	UID    uint32 `json:"uid"     msgpack:"uid"`
	PeerID uint32 `json:"peer_id" msgpack:"peer_id"`
}

func (EnterSceneCommand) Name() string { return "enter-scene" }

// LeaveSceneCommand removes a player's avatars from the scene.
type LeaveSceneCommand struct {
	UID uint32 `json:"uid" msgpack:"uid"`
}

func (LeaveSceneCommand) Name() string { return "leave-scene" }

// -------------------------------------------------------------------------------------------------
// System events
// -------------------------------------------------------------------------------------------------

// AvatarAppearanceChange is a requested cosmetic change, first applied and then published.
type AvatarAppearanceChange struct {
	PlayerUID  uint32
	AvatarGUID uint64
	Kind       AppearanceChangeKind
	Value      uint32
}

func (AvatarAppearanceChange) Name() string { return "avatar-appearance-change" }

// PlayerJump moves a player's current avatar to a destination.
type PlayerJump struct {
	UID         uint32
	Destination geom.Vector3
}

func (PlayerJump) Name() string { return "player-jump" }
