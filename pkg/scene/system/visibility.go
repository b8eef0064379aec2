package system

import (
	"cmp"
	"slices"

	"github.com/argus-labs/scene-engine/pkg/ecs"
	"github.com/argus-labs/scene-engine/pkg/scene/component"
	"github.com/argus-labs/scene-engine/pkg/scene/replication"
)

type NotifyAppearEntitiesState struct {
	ecs.BaseSystemState
	AppearedAvatars ecs.Contains[struct {
		Avatar  ecs.With[component.AvatarID]
		Visible ecs.Added[component.Visible]
		Removed ecs.Without[component.ToBeRemoved]
	}]
	AppearedMonsters ecs.Contains[struct {
		Monster ecs.With[component.MonsterID]
		Visible ecs.Added[component.Visible]
		Removed ecs.Without[component.ToBeRemoved]
	}]
	Avatars  ecs.Contains[replication.AvatarView]
	Weapons  ecs.Contains[replication.WeaponView]
	Monsters ecs.Contains[replication.MonsterView]
}

// NewNotifyAppearEntitiesSystem announces the avatars and monsters that became visible since its
// previous run in one batch. Nothing is sent when no actor appeared.
func NewNotifyAppearEntitiesSystem(deps Deps) ecs.System[NotifyAppearEntitiesState] {
	return func(state *NotifyAppearEntitiesState) error {
		if state.AppearedAvatars.IsEmpty() && state.AppearedMonsters.IsEmpty() {
			return nil
		}

		var entities []replication.SceneEntityInfo
		for eid := range state.AppearedAvatars.Iter() {
			avatar, ok := state.Avatars.GetByID(eid)
			if !ok {
				state.Logger().Warn().Uint32("entity", uint32(eid)).Msg("appeared avatar is missing components")
				continue
			}
			weapon, ok := state.Weapons.GetByID(avatar.Equipment.Get().Weapon)
			if !ok {
				state.Logger().Warn().Uint32("entity", uint32(eid)).Msg("appeared avatar has no equipped weapon")
				continue
			}
			entities = append(entities, replication.FromLiveAvatar(avatar, weapon).EntityInfo())
		}
		for eid := range state.AppearedMonsters.Iter() {
			monster, ok := state.Monsters.GetByID(eid)
			if !ok {
				state.Logger().Warn().Uint32("entity", uint32(eid)).Msg("appeared monster is missing components")
				continue
			}
			entities = append(entities, replication.FromLiveMonster(monster))
		}
		if len(entities) == 0 {
			return nil
		}

		slices.SortFunc(entities, func(a, b replication.SceneEntityInfo) int {
			return cmp.Compare(a.EntityID, b.EntityID)
		})
		deps.Output.SendToAll(replication.SceneEntityAppearNotify{
			AppearType: replication.VisionMeet,
			EntityList: entities,
		})
		return nil
	}
}

type HousekeepingState struct {
	ecs.BaseSystemState
	Removed ecs.Contains[struct {
		EntityID ecs.ReadRef[component.ProtocolEntityID]
		Removed  ecs.With[component.ToBeRemoved]
	}]
	Equipped ecs.Contains[struct {
		Equipment ecs.ReadRef[component.Equipment]
		Removed   ecs.With[component.ToBeRemoved]
	}]
}

// NewHousekeepingSystem destroys the actors marked for removal together with the weapons they have
// equipped, and tells clients they're gone.
func NewHousekeepingSystem(deps Deps) ecs.System[HousekeepingState] {
	return func(state *HousekeepingState) error {
		var gone []uint32
		for eid, actor := range state.Removed.Iter() {
			gone = append(gone, uint32(actor.EntityID.Get()))
			if equipped, ok := state.Equipped.GetByID(eid); ok {
				state.Commands().Despawn(equipped.Equipment.Get().Weapon)
			}
			state.Commands().Despawn(eid)
		}
		if len(gone) == 0 {
			return nil
		}

		slices.Sort(gone)
		deps.Output.SendToAll(replication.SceneEntityDisappearNotify{
			DisappearType: replication.VisionRemove,
			EntityList:    gone,
		})
		state.Logger().Debug().Int("count", len(gone)).Msg("removed actors")
		return nil
	}
}
