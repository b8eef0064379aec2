package component

import "github.com/argus-labs/scene-engine/pkg/ecs"

type AvatarID uint32

func (AvatarID) Name() string { return "avatar_id" }

// ControlPeer is the peer id of the client controlling the avatar.
type ControlPeer uint32

func (ControlPeer) Name() string { return "control_peer" }

type SkillDepot uint32

func (SkillDepot) Name() string { return "skill_depot" }

// BornTime is the unix time the avatar was obtained.
type BornTime uint32

func (BornTime) Name() string { return "born_time" }

// IndexInSceneTeam is the avatar's slot in its player's team.
type IndexInSceneTeam uint8

func (IndexInSceneTeam) Name() string { return "index_in_scene_team" }

// CurrentPlayerAvatar marks the avatar a player is currently controlling.
type CurrentPlayerAvatar struct{}

func (CurrentPlayerAvatar) Name() string { return "current_player_avatar" }

// SkillLevelMap maps skill ids to their levels.
type SkillLevelMap map[uint32]uint32

func (SkillLevelMap) Name() string { return "skill_level_map" }

type InherentProudSkillList []uint32

func (InherentProudSkillList) Name() string { return "inherent_proud_skill_list" }

// Equipment references the weapon actor equipped by an avatar. The weapon is a separate entity and
// has to be resolved through a search, it may be gone.
type Equipment struct {
	Weapon ecs.EntityID `json:"weapon"`
}

func (Equipment) Name() string { return "equipment" }

// AvatarAppearance holds the cosmetic ids of an avatar.
type AvatarAppearance struct {
	FlycloakID    uint32 `json:"flycloak_id"`
	CostumeID     uint32 `json:"costume_id"`
	TraceEffectID uint32 `json:"trace_effect_id"`
}

func (AvatarAppearance) Name() string { return "avatar_appearance" }

// AvatarBundle is the set of components every avatar carries.
type AvatarBundle struct {
	AvatarID               AvatarID
	EntityID               ProtocolEntityID
	GUID                   GUID
	Level                  Level
	BreakLevel             BreakLevel
	ControlPeer            ControlPeer
	SkillDepot             SkillDepot
	Equipment              Equipment
	Appearance             AvatarAppearance
	Transform              Transform
	OwnerPlayerUID         OwnerPlayerUID
	FightProperties        FightProperties
	LifeState              LifeState
	BornTime               BornTime
	IndexInSceneTeam       IndexInSceneTeam
	SkillLevelMap          SkillLevelMap
	InherentProudSkillList InherentProudSkillList
}

// Components returns the bundle as a component list for spawning.
func (b AvatarBundle) Components() []ecs.Component {
	return []ecs.Component{
		b.AvatarID,
		b.EntityID,
		b.GUID,
		b.Level,
		b.BreakLevel,
		b.ControlPeer,
		b.SkillDepot,
		b.Equipment,
		b.Appearance,
		b.Transform,
		b.OwnerPlayerUID,
		b.FightProperties,
		b.LifeState,
		b.BornTime,
		b.IndexInSceneTeam,
		b.SkillLevelMap,
		b.InherentProudSkillList,
	}
}
