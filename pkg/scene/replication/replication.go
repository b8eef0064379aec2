// Package replication turns actors into the snapshots sent to clients.
//
// Avatars can be replicated from two sources: the live components of a resident avatar, or the
// persisted record of an avatar that isn't in the scene. Both sources are first adapted into an
// AvatarState, and a single builder turns an AvatarState into a SceneEntityInfo, so the two paths
// can't drift apart in how they fill the snapshot.
package replication

import (
	"maps"
	"slices"

	"github.com/argus-labs/scene-engine/internal/schema"
	"github.com/argus-labs/scene-engine/pkg/ecs"
	"github.com/argus-labs/scene-engine/pkg/persistence"
	"github.com/argus-labs/scene-engine/pkg/scene/component"
	"github.com/argus-labs/scene-engine/pkg/stats"
	"github.com/rotisserie/eris"
)

// ErrNotAWeapon is returned when an avatar's equipped item record isn't a weapon.
var ErrNotAWeapon = eris.New("item is not a weapon")

// AvatarView is the read-only join of the components of an avatar.
type AvatarView struct {
	AvatarID               ecs.ReadRef[component.AvatarID]
	EntityID               ecs.ReadRef[component.ProtocolEntityID]
	GUID                   ecs.ReadRef[component.GUID]
	Level                  ecs.ReadRef[component.Level]
	BreakLevel             ecs.ReadRef[component.BreakLevel]
	ControlPeer            ecs.ReadRef[component.ControlPeer]
	SkillDepot             ecs.ReadRef[component.SkillDepot]
	Equipment              ecs.ReadRef[component.Equipment]
	Appearance             ecs.ReadRef[component.AvatarAppearance]
	Transform              ecs.ReadRef[component.Transform]
	OwnerPlayerUID         ecs.ReadRef[component.OwnerPlayerUID]
	FightProperties        ecs.ReadRef[component.FightProperties]
	LifeState              ecs.ReadRef[component.LifeState]
	BornTime               ecs.ReadRef[component.BornTime]
	SkillLevelMap          ecs.ReadRef[component.SkillLevelMap]
	InherentProudSkillList ecs.ReadRef[component.InherentProudSkillList]
}

// WeaponView is the read-only join of the components of a weapon.
type WeaponView struct {
	WeaponID     ecs.ReadRef[component.WeaponID]
	GadgetID     ecs.ReadRef[component.GadgetID]
	EntityID     ecs.ReadRef[component.ProtocolEntityID]
	GUID         ecs.ReadRef[component.GUID]
	Level        ecs.ReadRef[component.Level]
	PromoteLevel ecs.ReadRef[component.PromoteLevel]
	AffixMap     ecs.ReadRef[component.AffixMap]
}

// MonsterView is the read-only join of the components of a monster.
type MonsterView struct {
	MonsterID       ecs.ReadRef[component.MonsterID]
	EntityID        ecs.ReadRef[component.ProtocolEntityID]
	Level           ecs.ReadRef[component.Level]
	Transform       ecs.ReadRef[component.Transform]
	FightProperties ecs.ReadRef[component.FightProperties]
	LifeState       ecs.ReadRef[component.LifeState]
}

// AvatarState is everything the snapshot of an avatar is built from. Resident is false for states
// adapted from persisted records; those have no protocol entity id, peer, transform, or life state.
type AvatarState struct {
	Resident bool

	// Only set for resident avatars.
	EntityID  component.ProtocolEntityID
	PeerID    uint32
	Transform component.Transform
	LifeState component.LifeState

	UID                    uint32
	AvatarID               uint32
	GUID                   uint64
	Level                  uint32
	BreakLevel             uint32
	SkillDepotID           uint32
	SkillLevelMap          map[uint32]uint32
	InherentProudSkillList []uint32
	FlycloakID             uint32
	CostumeID              uint32
	TraceEffectID          uint32
	BornTime               uint32
	FightProperties        stats.FightProperties
	Weapon                 WeaponState
}

// WeaponState is the equipped weapon part of an AvatarState.
type WeaponState struct {
	Resident bool

	// Only set for resident weapons.
	EntityID component.ProtocolEntityID
	GadgetID uint32

	GUID         uint64
	ItemID       uint32
	Level        uint32
	PromoteLevel uint32
	AffixMap     map[uint32]uint32
}

// FromLiveAvatar adapts a resident avatar and its equipped weapon.
func FromLiveAvatar(avatar AvatarView, weapon WeaponView) AvatarState {
	appearance := avatar.Appearance.Get()
	return AvatarState{
		Resident:               true,
		EntityID:               avatar.EntityID.Get(),
		PeerID:                 uint32(avatar.ControlPeer.Get()),
		Transform:              avatar.Transform.Get(),
		LifeState:              avatar.LifeState.Get(),
		UID:                    uint32(avatar.OwnerPlayerUID.Get()),
		AvatarID:               uint32(avatar.AvatarID.Get()),
		GUID:                   uint64(avatar.GUID.Get()),
		Level:                  uint32(avatar.Level.Get()),
		BreakLevel:             uint32(avatar.BreakLevel.Get()),
		SkillDepotID:           uint32(avatar.SkillDepot.Get()),
		SkillLevelMap:          avatar.SkillLevelMap.Get(),
		InherentProudSkillList: avatar.InherentProudSkillList.Get(),
		FlycloakID:             appearance.FlycloakID,
		CostumeID:              appearance.CostumeID,
		TraceEffectID:          appearance.TraceEffectID,
		BornTime:               uint32(avatar.BornTime.Get()),
		FightProperties:        avatar.FightProperties.Get().FightProperties,
		Weapon: WeaponState{
			Resident:     true,
			EntityID:     weapon.EntityID.Get(),
			GadgetID:     uint32(weapon.GadgetID.Get()),
			GUID:         uint64(weapon.GUID.Get()),
			ItemID:       uint32(weapon.WeaponID.Get()),
			Level:        uint32(weapon.Level.Get()),
			PromoteLevel: uint32(weapon.PromoteLevel.Get()),
			AffixMap:     weapon.AffixMap.Get(),
		},
	}
}

// FromPersistedAvatar adapts the persisted record of an avatar that isn't in the scene. The owner is
// recovered from the upper half of the avatar guid.
func FromPersistedAvatar(avatar persistence.AvatarRecord, item persistence.ItemRecord) (AvatarState, error) {
	if item.Weapon == nil {
		return AvatarState{}, eris.Wrapf(ErrNotAWeapon, "item %d", item.GUID)
	}
	return AvatarState{
		UID:                    avatar.OwnerUID(),
		AvatarID:               avatar.AvatarID,
		GUID:                   avatar.GUID,
		Level:                  avatar.Level,
		BreakLevel:             avatar.BreakLevel,
		SkillDepotID:           avatar.SkillDepotID,
		SkillLevelMap:          avatar.SkillLevelMap,
		InherentProudSkillList: avatar.InherentProudSkillList,
		FlycloakID:             avatar.WearingFlycloakID,
		CostumeID:              avatar.CostumeID,
		TraceEffectID:          avatar.TraceEffectID,
		BornTime:               avatar.BornTime,
		FightProperties:        avatar.FightProperties,
		Weapon: WeaponState{
			GUID:         avatar.WeaponGUID,
			ItemID:       item.Weapon.WeaponID,
			Level:        item.Weapon.Level,
			PromoteLevel: item.Weapon.PromoteLevel,
			AffixMap:     item.Weapon.AffixMap,
		},
	}, nil
}

// Offline returns the state with every field only a resident avatar has cleared. The snapshot of
// a live avatar's offline state encodes to the same bytes as the snapshot built from a persisted
// record with the same values.
func (s AvatarState) Offline() AvatarState {
	s.Resident = false
	s.EntityID = 0
	s.PeerID = 0
	s.Transform = component.Transform{}
	s.LifeState = component.LifeStateNone
	s.Weapon.Resident = false
	s.Weapon.EntityID = 0
	s.Weapon.GadgetID = 0
	return s
}

// EntityInfo builds the snapshot of the avatar.
func (s AvatarState) EntityInfo() SceneEntityInfo {
	var transform *component.Transform
	if s.Resident {
		transform = &s.Transform
	}
	info := newEntityInfo(component.EntityTypeAvatar, uint32(s.EntityID), transform, s.LifeState, s.FightProperties)
	info.PropList = []PropPair{
		{Type: PropLevel, Ival: int64(s.Level)},
		{Type: PropBreakLevel, Ival: int64(s.BreakLevel)},
	}

	weapon := &SceneWeaponInfo{
		EntityID:     uint32(s.Weapon.EntityID),
		GadgetID:     s.Weapon.GadgetID,
		ItemID:       s.Weapon.ItemID,
		GUID:         s.Weapon.GUID,
		Level:        s.Weapon.Level,
		PromoteLevel: s.Weapon.PromoteLevel,
		AffixMap:     sortedPairs(s.Weapon.AffixMap),
	}
	if s.Weapon.Resident {
		weapon.AbilityInfo = &AbilitySyncStateInfo{}
		weapon.RendererChangedInfo = &EntityRendererChangedInfo{}
	}

	info.Avatar = &SceneAvatarInfo{
		UID:                     s.UID,
		AvatarID:                s.AvatarID,
		GUID:                    s.GUID,
		PeerID:                  s.PeerID,
		EquipIDList:             []uint32{s.Weapon.ItemID},
		SkillDepotID:            s.SkillDepotID,
		TalentIDList:            []uint32{},
		Weapon:                  weapon,
		InherentProudSkillList:  nonNil(s.InherentProudSkillList),
		SkillLevelMap:           sortedPairs(s.SkillLevelMap),
		ProudSkillExtraLevelMap: []Uint32Pair{},
		ServerBuffList:          []ServerBuff{},
		TeamResonanceList:       []uint32{},
		WearingFlycloakID:       s.FlycloakID,
		BornTime:                s.BornTime,
		CostumeID:               s.CostumeID,
		TraceEffectID:           s.TraceEffectID,
		ExcelInfo:               &AvatarExcelInfo{},
	}
	return info
}

// FromLiveMonster builds the snapshot of a monster.
func FromLiveMonster(monster MonsterView) SceneEntityInfo {
	transform := monster.Transform.Get()
	info := newEntityInfo(
		component.EntityTypeMonster,
		uint32(monster.EntityID.Get()),
		&transform,
		monster.LifeState.Get(),
		monster.FightProperties.Get().FightProperties,
	)
	info.PropList = []PropPair{{Type: PropLevel, Ival: int64(monster.Level.Get())}}
	info.Monster = &SceneMonsterInfo{MonsterID: uint32(monster.MonsterID.Get())}
	return info
}

// Encode is the wire encoding of a snapshot.
func Encode(info SceneEntityInfo) ([]byte, error) {
	return schema.Serialize(info)
}

// newEntityInfo fills the parts shared by every snapshot. The placeholder blocks must be present on
// the wire even though they carry nothing.
func newEntityInfo(
	typ component.EntityType,
	entityID uint32,
	transform *component.Transform,
	lifeState component.LifeState,
	props stats.FightProperties,
) SceneEntityInfo {
	info := SceneEntityInfo{
		EntityType:                uint32(typ),
		EntityID:                  entityID,
		FightPropList:             fightPropList(props),
		LifeState:                 uint32(lifeState),
		AnimatorParaList:          []AnimatorParameterValueInfoPair{{}},
		EntityClientData:          &EntityClientData{},
		EntityEnvironmentInfoList: []EntityEnvironmentInfo{},
		EntityAuthorityInfo:       &EntityAuthorityInfo{},
		TagList:                   []string{},
		ServerBuffList:            []ServerBuff{},
	}
	if transform != nil {
		info.MotionInfo = &MotionInfo{Pos: transform.Position, Rot: transform.Rotation}
	}
	return info
}

func fightPropList(props stats.FightProperties) []FightPropPair {
	pairs := props.Pairs()
	list := make([]FightPropPair, 0, len(pairs))
	for _, p := range pairs {
		list = append(list, FightPropPair{PropType: uint32(p.Prop), PropValue: p.Value})
	}
	return list
}

func sortedPairs(m map[uint32]uint32) []Uint32Pair {
	pairs := make([]Uint32Pair, 0, len(m))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		pairs = append(pairs, Uint32Pair{Key: k, Value: m[k]})
	}
	return pairs
}

func nonNil(s []uint32) []uint32 {
	if s == nil {
		return []uint32{}
	}
	return slices.Clone(s)
}
