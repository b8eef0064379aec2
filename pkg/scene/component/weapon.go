package component

import "github.com/argus-labs/scene-engine/pkg/ecs"

type WeaponID uint32

func (WeaponID) Name() string { return "weapon_id" }

// GadgetID is the id of the gadget model rendering the weapon.
type GadgetID uint32

func (GadgetID) Name() string { return "gadget_id" }

type PromoteLevel uint32

func (PromoteLevel) Name() string { return "promote_level" }

// AffixMap maps refinement affix ids to their levels.
type AffixMap map[uint32]uint32

func (AffixMap) Name() string { return "affix_map" }

// WeaponBundle is the set of components every weapon actor carries.
type WeaponBundle struct {
	WeaponID       WeaponID
	GadgetID       GadgetID
	EntityID       ProtocolEntityID
	GUID           GUID
	Level          Level
	PromoteLevel   PromoteLevel
	AffixMap       AffixMap
	OwnerPlayerUID OwnerPlayerUID
}

// Components returns the bundle as a component list for spawning.
func (b WeaponBundle) Components() []ecs.Component {
	return []ecs.Component{
		b.WeaponID,
		b.GadgetID,
		b.EntityID,
		b.GUID,
		b.Level,
		b.PromoteLevel,
		b.AffixMap,
		b.OwnerPlayerUID,
	}
}
