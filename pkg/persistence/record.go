// Package persistence stores player records outside the scene. A scene only reads and writes the
// resident copy held by Players; the backing Store is touched when a player is warmed up or when
// dirty records are flushed between ticks.
package persistence

import (
	"github.com/argus-labs/scene-engine/internal/schema"
	"github.com/argus-labs/scene-engine/pkg/geom"
	"github.com/argus-labs/scene-engine/pkg/stats"
	"github.com/rotisserie/eris"
)

var (
	// ErrPlayerNotFound is returned when no record exists for a uid.
	ErrPlayerNotFound = eris.New("player not found")

	// ErrAvatarNotFound is returned when a player has no avatar with a guid.
	ErrAvatarNotFound = eris.New("avatar not found")

	// ErrItemNotFound is returned when a player has no item with a guid.
	ErrItemNotFound = eris.New("item not found")
)

// PlayerRecord is everything persisted about a player.
type PlayerRecord struct {
	UID           uint32                  `msgpack:"uid"`
	WorldPosition WorldPosition           `msgpack:"world_position"`
	Avatars       map[uint64]AvatarRecord `msgpack:"avatars"`
	Items         map[uint64]ItemRecord   `msgpack:"items"`
	CurAvatarGUID uint64                  `msgpack:"cur_avatar_guid"`
}

// WorldPosition is the player's last known placement.
type WorldPosition struct {
	Position geom.Vector3 `msgpack:"position"`
	Rotation geom.Vector3 `msgpack:"rotation"`
}

// AvatarRecord is a persisted avatar. The owning uid is packed in the upper 32 bits of GUID.
type AvatarRecord struct {
	GUID                   uint64                `msgpack:"guid"`
	AvatarID               uint32                `msgpack:"avatar_id"`
	Level                  uint32                `msgpack:"level"`
	BreakLevel             uint32                `msgpack:"break_level"`
	WeaponGUID             uint64                `msgpack:"weapon_guid"`
	SkillDepotID           uint32                `msgpack:"skill_depot_id"`
	SkillLevelMap          map[uint32]uint32     `msgpack:"skill_level_map"`
	InherentProudSkillList []uint32              `msgpack:"inherent_proud_skill_list"`
	WearingFlycloakID      uint32                `msgpack:"wearing_flycloak_id"`
	CostumeID              uint32                `msgpack:"costume_id"`
	TraceEffectID          uint32                `msgpack:"trace_effect_id"`
	BornTime               uint32                `msgpack:"born_time"`
	FightProperties        stats.FightProperties `msgpack:"fight_properties"`
}

// OwnerUID returns the uid packed into the guid.
func (a AvatarRecord) OwnerUID() uint32 {
	return uint32(a.GUID >> 32) //nolint:gosec // upper half
}

// ItemRecord is a persisted inventory item. Weapon is the only item kind the scene replicates.
type ItemRecord struct {
	GUID   uint64        `msgpack:"guid"`
	Weapon *WeaponRecord `msgpack:"weapon"`
}

// WeaponRecord holds the weapon specific fields of an item.
type WeaponRecord struct {
	WeaponID     uint32            `msgpack:"weapon_id"`
	Level        uint32            `msgpack:"level"`
	PromoteLevel uint32            `msgpack:"promote_level"`
	AffixMap     map[uint32]uint32 `msgpack:"affix_map"`
}

// Avatar returns the avatar with the given guid.
func (p *PlayerRecord) Avatar(guid uint64) (AvatarRecord, error) {
	avatar, ok := p.Avatars[guid]
	if !ok {
		return AvatarRecord{}, eris.Wrapf(ErrAvatarNotFound, "player %d avatar %d", p.UID, guid)
	}
	return avatar, nil
}

// Weapon returns the weapon item with the given guid.
func (p *PlayerRecord) Weapon(guid uint64) (ItemRecord, error) {
	item, ok := p.Items[guid]
	if !ok || item.Weapon == nil {
		return ItemRecord{}, eris.Wrapf(ErrItemNotFound, "player %d weapon %d", p.UID, guid)
	}
	return item, nil
}

func encodeRecord(rec *PlayerRecord) ([]byte, error) {
	bz, err := schema.Serialize(rec)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to encode player %d", rec.UID)
	}
	return bz, nil
}

func decodeRecord(bz []byte) (PlayerRecord, error) {
	var rec PlayerRecord
	if err := schema.Deserialize(bz, &rec); err != nil {
		return PlayerRecord{}, eris.Wrap(err, "failed to decode player record")
	}
	return rec, nil
}
