package system

import (
	"github.com/argus-labs/scene-engine/pkg/ecs"
	"github.com/argus-labs/scene-engine/pkg/gamedata"
	"github.com/argus-labs/scene-engine/pkg/persistence"
	"github.com/argus-labs/scene-engine/pkg/scene/component"
	"github.com/argus-labs/scene-engine/pkg/stats"
	"github.com/rs/zerolog"
)

type EnterSceneState struct {
	ecs.BaseSystemState
	EnterCommands ecs.WithCommand[EnterSceneCommand]
	Avatars       ecs.Contains[struct {
		Owner   ecs.ReadRef[component.OwnerPlayerUID]
		Avatar  ecs.With[component.AvatarID]
		Removed ecs.Without[component.ToBeRemoved]
	}]
}

// NewEnterSceneSystem spawns the current avatar of entering players, with its weapon, from their
// resident record. Players that already have an avatar in the scene are ignored. A player that can't
// be placed is skipped without affecting the others.
func NewEnterSceneSystem(deps Deps) ecs.System[EnterSceneState] {
	return func(state *EnterSceneState) error {
		present := make(map[uint32]struct{})
		for _, avatar := range state.Avatars.Iter() {
			present[uint32(avatar.Owner.Get())] = struct{}{}
		}

		for cmd := range state.EnterCommands.Iter() {
			log := state.Logger().With().Uint32("uid", cmd.UID).Logger()

			if _, ok := present[cmd.UID]; ok {
				log.Debug().Msg("player is already in the scene")
				continue
			}
			player, err := deps.Players.Get(cmd.UID)
			if err != nil {
				log.Debug().Err(err).Msg("player record unavailable, can't enter scene")
				continue
			}
			avatar, err := player.Avatar(player.CurAvatarGUID)
			if err != nil {
				log.Debug().Err(err).Msg("current avatar unavailable, can't enter scene")
				continue
			}
			item, err := player.Weapon(avatar.WeaponGUID)
			if err != nil || item.Weapon == nil {
				log.Debug().Err(err).Uint64("weapon_guid", avatar.WeaponGUID).Msg("equipped weapon unavailable, can't enter scene")
				continue
			}

			weaponEntityID, err := deps.Counters.Next(component.EntityTypeWeapon)
			if err != nil {
				log.Warn().Err(err).Msg("can't allocate weapon entity id, dropping enter")
				continue
			}
			avatarEntityID, err := deps.Counters.Next(component.EntityTypeAvatar)
			if err != nil {
				log.Warn().Err(err).Msg("can't allocate avatar entity id, dropping enter")
				continue
			}

			var gadgetID uint32
			if cfg, err := deps.Tables.Weapon(item.Weapon.WeaponID); err == nil {
				gadgetID = cfg.GadgetID
			} else {
				log.Debug().Err(err).Msg("weapon config unavailable, weapon has no gadget")
			}

			weapon, err := state.Commands().Spawn(component.WeaponBundle{
				WeaponID:       component.WeaponID(item.Weapon.WeaponID),
				GadgetID:       component.GadgetID(gadgetID),
				EntityID:       weaponEntityID,
				GUID:           component.GUID(item.GUID),
				Level:          component.Level(item.Weapon.Level),
				PromoteLevel:   component.PromoteLevel(item.Weapon.PromoteLevel),
				AffixMap:       component.AffixMap(item.Weapon.AffixMap),
				OwnerPlayerUID: component.OwnerPlayerUID(cmd.UID),
			}.Components()...)
			if err != nil {
				log.Warn().Err(err).Msg("can't spawn weapon, dropping enter")
				continue
			}

			bundle := component.AvatarBundle{
				AvatarID:    component.AvatarID(avatar.AvatarID),
				EntityID:    avatarEntityID,
				GUID:        component.GUID(avatar.GUID),
				Level:       component.Level(avatar.Level),
				BreakLevel:  component.BreakLevel(avatar.BreakLevel),
				ControlPeer: component.ControlPeer(cmd.PeerID),
				SkillDepot:  component.SkillDepot(avatar.SkillDepotID),
				Equipment:   component.Equipment{Weapon: weapon},
				Appearance: component.AvatarAppearance{
					FlycloakID:    avatar.WearingFlycloakID,
					CostumeID:     avatar.CostumeID,
					TraceEffectID: avatar.TraceEffectID,
				},
				Transform: component.Transform{
					Position: player.WorldPosition.Position,
					Rotation: player.WorldPosition.Rotation,
				},
				OwnerPlayerUID:         component.OwnerPlayerUID(cmd.UID),
				FightProperties:        component.FightProperties{FightProperties: avatarFightProperties(avatar, deps, &log)},
				LifeState:              component.LifeStateAlive,
				BornTime:               component.BornTime(avatar.BornTime),
				SkillLevelMap:          component.SkillLevelMap(avatar.SkillLevelMap),
				InherentProudSkillList: component.InherentProudSkillList(avatar.InherentProudSkillList),
			}
			components := append(bundle.Components(), component.CurrentPlayerAvatar{}, component.Visible{})
			if _, err := state.Commands().Spawn(components...); err != nil {
				log.Warn().Err(err).Msg("can't spawn avatar, dropping enter")
				state.Commands().Despawn(weapon)
				continue
			}
			present[cmd.UID] = struct{}{}
			log.Info().Uint64("avatar_guid", avatar.GUID).Msg("player entered scene")
		}
		return nil
	}
}

// avatarFightProperties returns the persisted stats of an avatar, or derives them from its config if
// they were never computed.
func avatarFightProperties(avatar persistence.AvatarRecord, deps Deps, log *zerolog.Logger) stats.FightProperties {
	if avatar.FightProperties.Finalized {
		return avatar.FightProperties.Clone()
	}
	cfg, err := deps.Tables.Avatar(avatar.AvatarID)
	if err != nil {
		log.Debug().Err(err).Uint32("avatar_id", avatar.AvatarID).Msg("avatar config unavailable, using persisted stats")
		return avatar.FightProperties.Clone()
	}
	return stats.DeriveAvatar(avatar.Level, cfg, deps.Tables.Curves(), func(curve gamedata.PropGrowCurve, err error) {
		log.Debug().Err(err).Stringer("prop", curve.Type).Msg("grow curve skipped")
	})
}

type LeaveSceneState struct {
	ecs.BaseSystemState
	LeaveCommands ecs.WithCommand[LeaveSceneCommand]
	Avatars       ecs.Contains[struct {
		Owner   ecs.ReadRef[component.OwnerPlayerUID]
		Avatar  ecs.With[component.AvatarID]
		Removed ecs.Without[component.ToBeRemoved]
	}]
}

// LeaveSceneSystem marks the avatars of leaving players for removal. It runs before the Update hook so
// a player can leave and enter again in the same tick.
func LeaveSceneSystem(state *LeaveSceneState) error {
	leaving := make(map[uint32]struct{})
	for cmd := range state.LeaveCommands.Iter() {
		leaving[cmd.UID] = struct{}{}
	}
	if len(leaving) == 0 {
		return nil
	}

	for eid, avatar := range state.Avatars.Iter() {
		if _, ok := leaving[uint32(avatar.Owner.Get())]; ok {
			state.Commands().Insert(eid, component.ToBeRemoved{})
		}
	}
	return nil
}

type PlayerJumpState struct {
	ecs.BaseSystemState
	Jumps   ecs.WithSystemEventReceiver[PlayerJump]
	Avatars ecs.Contains[struct {
		Owner     ecs.ReadRef[component.OwnerPlayerUID]
		Current   ecs.With[component.CurrentPlayerAvatar]
		Transform ecs.Ref[component.Transform]
	}]
}

// NewPlayerJumpSystem moves the current avatar of jumping players and records the new position in
// their player record.
func NewPlayerJumpSystem(deps Deps) ecs.System[PlayerJumpState] {
	return func(state *PlayerJumpState) error {
		for jump := range state.Jumps.Iter() {
			for _, avatar := range state.Avatars.Iter() {
				if uint32(avatar.Owner.Get()) != jump.UID {
					continue
				}
				transform := avatar.Transform.Get()
				transform.Position = jump.Destination
				avatar.Transform.Set(transform)
			}

			if err := deps.Players.SetPosition(jump.UID, jump.Destination); err != nil {
				state.Logger().Debug().Err(err).Uint32("uid", jump.UID).Msg("jump not persisted")
			}
		}
		return nil
	}
}
