package replication

import (
	"github.com/argus-labs/scene-engine/pkg/geom"
)

// Scalar property types of PropPair.
const (
	PropBreakLevel uint32 = 1002
	PropLevel      uint32 = 4001
)

// VisionType tells clients why entities appeared or disappeared.
type VisionType uint32

const (
	VisionNone   VisionType = 0
	VisionMeet   VisionType = 1
	VisionMiss   VisionType = 5
	VisionRemove VisionType = 14
)

// SceneEntityInfo is the snapshot of an actor sent to clients. Exactly one of Avatar and Monster is
// set. Maps of the wire contract are encoded as key sorted pair lists so equal snapshots always
// encode to equal bytes.
type SceneEntityInfo struct {
	EntityType                uint32                           `msgpack:"entity_type"`
	EntityID                  uint32                           `msgpack:"entity_id"`
	Name                      string                           `msgpack:"name"`
	MotionInfo                *MotionInfo                      `msgpack:"motion_info"`
	PropList                  []PropPair                       `msgpack:"prop_list"`
	FightPropList             []FightPropPair                  `msgpack:"fight_prop_list"`
	LifeState                 uint32                           `msgpack:"life_state"`
	AnimatorParaList          []AnimatorParameterValueInfoPair `msgpack:"animator_para_list"`
	LastMoveSceneTimeMs       uint32                           `msgpack:"last_move_scene_time_ms"`
	LastMoveReliableSeq       uint32                           `msgpack:"last_move_reliable_seq"`
	EntityClientData          *EntityClientData                `msgpack:"entity_client_data"`
	EntityEnvironmentInfoList []EntityEnvironmentInfo          `msgpack:"entity_environment_info_list"`
	EntityAuthorityInfo       *EntityAuthorityInfo             `msgpack:"entity_authority_info"`
	TagList                   []string                         `msgpack:"tag_list"`
	ServerBuffList            []ServerBuff                     `msgpack:"server_buff_list"`
	Avatar                    *SceneAvatarInfo                 `msgpack:"avatar"`
	Monster                   *SceneMonsterInfo                `msgpack:"monster"`
}

type MotionInfo struct {
	Pos   geom.Vector3 `msgpack:"pos"`
	Rot   geom.Vector3 `msgpack:"rot"`
	Speed geom.Vector3 `msgpack:"speed"`
}

type PropPair struct {
	Type uint32 `msgpack:"type"`
	Ival int64  `msgpack:"ival"`
}

type FightPropPair struct {
	PropType  uint32  `msgpack:"prop_type"`
	PropValue float32 `msgpack:"prop_value"`
}

// Uint32Pair is an entry of a uint32 keyed map.
type Uint32Pair struct {
	Key   uint32 `msgpack:"key"`
	Value uint32 `msgpack:"value"`
}

type AnimatorParameterValueInfoPair struct {
	NameID       int32                      `msgpack:"name_id"`
	AnimatorPara AnimatorParameterValueInfo `msgpack:"animator_para"`
}

type AnimatorParameterValueInfo struct {
	ParaType uint32  `msgpack:"para_type"`
	IntVal   int32   `msgpack:"int_val"`
	FloatVal float32 `msgpack:"float_val"`
	BoolVal  bool    `msgpack:"bool_val"`
}

type EntityClientData struct {
	WindchangeSceneTime   uint32  `msgpack:"windchange_scene_time"`
	WindmillSyncAngle     float32 `msgpack:"windmill_sync_angle"`
	WindchangeTargetAngle int32   `msgpack:"windchange_target_angle"`
}

type EntityEnvironmentInfo struct {
	JSONClimateType uint32 `msgpack:"json_climate_type"`
	ClimateAreaID   uint32 `msgpack:"climate_area_id"`
}

type EntityAuthorityInfo struct {
	AbilityInfo     AbilitySyncStateInfo  `msgpack:"ability_info"`
	BornPos         geom.Vector3          `msgpack:"born_pos"`
	ClientExtraInfo EntityClientExtraInfo `msgpack:"client_extra_info"`
}

type AbilitySyncStateInfo struct {
	IsInited bool `msgpack:"is_inited"`
}

type EntityClientExtraInfo struct {
	SkillAnchorPosition geom.Vector3 `msgpack:"skill_anchor_position"`
}

type EntityRendererChangedInfo struct {
	IsCached bool `msgpack:"is_cached"`
}

type ServerBuff struct {
	ServerBuffUID uint32 `msgpack:"server_buff_uid"`
	ServerBuffID  uint32 `msgpack:"server_buff_id"`
}

type AvatarExcelInfo struct {
	PrefabPathHash       uint64 `msgpack:"prefab_path_hash"`
	ControllerPathHash   uint64 `msgpack:"controller_path_hash"`
	CombatConfigHash     uint64 `msgpack:"combat_config_hash"`
	PrefabPathRemoteHash uint64 `msgpack:"prefab_path_remote_hash"`
}

type SceneAvatarInfo struct {
	UID                     uint32           `msgpack:"uid"`
	AvatarID                uint32           `msgpack:"avatar_id"`
	GUID                    uint64           `msgpack:"guid"`
	PeerID                  uint32           `msgpack:"peer_id"`
	EquipIDList             []uint32         `msgpack:"equip_id_list"`
	SkillDepotID            uint32           `msgpack:"skill_depot_id"`
	TalentIDList            []uint32         `msgpack:"talent_id_list"`
	Weapon                  *SceneWeaponInfo `msgpack:"weapon"`
	CoreProudSkillLevel     uint32           `msgpack:"core_proud_skill_level"`
	InherentProudSkillList  []uint32         `msgpack:"inherent_proud_skill_list"`
	SkillLevelMap           []Uint32Pair     `msgpack:"skill_level_map"`
	ProudSkillExtraLevelMap []Uint32Pair     `msgpack:"proud_skill_extra_level_map"`
	ServerBuffList          []ServerBuff     `msgpack:"server_buff_list"`
	TeamResonanceList       []uint32         `msgpack:"team_resonance_list"`
	WearingFlycloakID       uint32           `msgpack:"wearing_flycloak_id"`
	BornTime                uint32           `msgpack:"born_time"`
	CostumeID               uint32           `msgpack:"costume_id"`
	TraceEffectID           uint32           `msgpack:"trace_effect_id"`
	ExcelInfo               *AvatarExcelInfo `msgpack:"excel_info"`
	AnimHash                uint32           `msgpack:"anim_hash"`
}

type SceneWeaponInfo struct {
	EntityID            uint32                     `msgpack:"entity_id"`
	GadgetID            uint32                     `msgpack:"gadget_id"`
	ItemID              uint32                     `msgpack:"item_id"`
	GUID                uint64                     `msgpack:"guid"`
	Level               uint32                     `msgpack:"level"`
	PromoteLevel        uint32                     `msgpack:"promote_level"`
	AffixMap            []Uint32Pair               `msgpack:"affix_map"`
	AbilityInfo         *AbilitySyncStateInfo      `msgpack:"ability_info"`
	RendererChangedInfo *EntityRendererChangedInfo `msgpack:"renderer_changed_info"`
}

type SceneMonsterInfo struct {
	MonsterID       uint32 `msgpack:"monster_id"`
	AuthorityPeerID uint32 `msgpack:"authority_peer_id"`
	BornType        uint32 `msgpack:"born_type"`
	IsElite         bool   `msgpack:"is_elite"`
}
