package system

import (
	"github.com/argus-labs/scene-engine/pkg/ecs"
	"github.com/argus-labs/scene-engine/pkg/message"
	"github.com/argus-labs/scene-engine/pkg/persistence"
	"github.com/argus-labs/scene-engine/pkg/scene/component"
	"github.com/argus-labs/scene-engine/pkg/scene/replication"
)

// -------------------------------------------------------------------------------------------------
// Intake
// -------------------------------------------------------------------------------------------------

type AppearanceIntakeState struct {
	ecs.BaseSystemState
	ChangeCommands ecs.WithCommand[ChangeAvatarAppearanceCommand]
	Changes        ecs.WithSystemEventEmitter[AvatarAppearanceChange]
}

// AppearanceIntakeSystem turns appearance change commands into appearance change events.
func AppearanceIntakeSystem(state *AppearanceIntakeState) error {
	for cmd := range state.ChangeCommands.Iter() {
		if cmd.Kind != AppearanceCostume && cmd.Kind != AppearanceTraceEffect {
			state.Logger().Debug().Uint8("kind", uint8(cmd.Kind)).Msg("unknown appearance change kind")
			continue
		}
		state.Changes.Emit(AvatarAppearanceChange{
			PlayerUID:  cmd.PlayerUID,
			AvatarGUID: cmd.AvatarGUID,
			Kind:       cmd.Kind,
			Value:      cmd.Value,
		})
	}
	return nil
}

// -------------------------------------------------------------------------------------------------
// Mutation
// -------------------------------------------------------------------------------------------------

type UpdateAvatarAppearanceState struct {
	ecs.BaseSystemState
	Changes ecs.WithSystemEventReceiver[AvatarAppearanceChange]
	Avatars ecs.Contains[struct {
		GUID       ecs.ReadRef[component.GUID]
		Appearance ecs.Ref[component.AvatarAppearance]
	}]
}

// NewUpdateAvatarAppearanceSystem applies appearance changes to the avatars they target. The
// persisted record of the avatar is updated as well, which is the only change made for avatars that
// aren't in the scene. Either way the event stays available for the notification system.
func NewUpdateAvatarAppearanceSystem(deps Deps) ecs.System[UpdateAvatarAppearanceState] {
	return func(state *UpdateAvatarAppearanceState) error {
		for change := range state.Changes.Iter() {
			for _, avatar := range state.Avatars.Iter() {
				if uint64(avatar.GUID.Get()) != change.AvatarGUID {
					continue
				}
				appearance := avatar.Appearance.Get()
				applyAppearanceChange(change, &appearance.CostumeID, &appearance.TraceEffectID)
				avatar.Appearance.Set(appearance)
				break
			}

			err := deps.Players.UpdateAvatar(change.PlayerUID, change.AvatarGUID, func(rec *persistence.AvatarRecord) {
				applyAppearanceChange(change, &rec.CostumeID, &rec.TraceEffectID)
			})
			if err != nil {
				state.Logger().Debug().Err(err).
					Uint32("uid", change.PlayerUID).
					Uint64("avatar_guid", change.AvatarGUID).
					Msg("appearance change not persisted")
			}
		}
		return nil
	}
}

func applyAppearanceChange(change AvatarAppearanceChange, costume, traceEffect *uint32) {
	switch change.Kind {
	case AppearanceCostume:
		*costume = change.Value
	case AppearanceTraceEffect:
		*traceEffect = change.Value
	}
}

// -------------------------------------------------------------------------------------------------
// Notification
// -------------------------------------------------------------------------------------------------

type NotifyAvatarAppearanceChangeState struct {
	ecs.BaseSystemState
	Changes ecs.WithSystemEventReceiver[AvatarAppearanceChange]
	Avatars ecs.Contains[replication.AvatarView]
	Weapons ecs.Contains[replication.WeaponView]
}

// NewNotifyAvatarAppearanceChangeSystem publishes applied appearance changes. Changes of avatars in
// the scene are broadcast with their live snapshot. Clients expect the notification for avatars
// outside the scene too, those are built from the persisted record and only sent to the owner.
func NewNotifyAvatarAppearanceChangeSystem(deps Deps) ecs.System[NotifyAvatarAppearanceChangeState] {
	return func(state *NotifyAvatarAppearanceChangeState) error {
		for change := range state.Changes.Iter() {
			log := state.Logger().With().
				Uint32("uid", change.PlayerUID).
				Uint64("avatar_guid", change.AvatarGUID).
				Logger()

			if avatar, ok := findAvatar(&state.Avatars, change.AvatarGUID); ok {
				weapon, ok := state.Weapons.GetByID(avatar.Equipment.Get().Weapon)
				if !ok {
					log.Warn().Msg("resident avatar has no equipped weapon, skipping notification")
					continue
				}
				info := replication.FromLiveAvatar(avatar, weapon).EntityInfo()
				deps.Output.SendToAll(appearanceNotify(change.Kind, &info))
				continue
			}

			player, err := deps.Players.Get(change.PlayerUID)
			if err != nil {
				log.Debug().Err(err).Msg("player record unavailable, skipping notification")
				continue
			}
			rec, err := player.Avatar(change.AvatarGUID)
			if err != nil {
				log.Debug().Err(err).Msg("avatar record unavailable, skipping notification")
				continue
			}
			item, err := player.Weapon(rec.WeaponGUID)
			if err != nil {
				log.Debug().Err(err).Uint64("weapon_guid", rec.WeaponGUID).Msg("weapon record unavailable, skipping notification")
				continue
			}
			avatarState, err := replication.FromPersistedAvatar(rec, item)
			if err != nil {
				log.Debug().Err(err).Msg("skipping notification")
				continue
			}
			info := avatarState.EntityInfo()
			deps.Output.Send(change.PlayerUID, appearanceNotify(change.Kind, &info))
		}
		return nil
	}
}

func findAvatar(avatars *ecs.Contains[replication.AvatarView], guid uint64) (replication.AvatarView, bool) {
	for _, avatar := range avatars.Iter() {
		if uint64(avatar.GUID.Get()) == guid {
			return avatar, true
		}
	}
	return replication.AvatarView{}, false
}

func appearanceNotify(kind AppearanceChangeKind, info *replication.SceneEntityInfo) message.Message {
	if kind == AppearanceTraceEffect {
		return replication.AvatarChangeTraceEffectNotify{EntityInfo: info}
	}
	return replication.AvatarChangeCostumeNotify{EntityInfo: info}
}
