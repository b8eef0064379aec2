package replication_test

import (
	"testing"

	"github.com/argus-labs/scene-engine/pkg/ecs"
	"github.com/argus-labs/scene-engine/pkg/gamedata"
	"github.com/argus-labs/scene-engine/pkg/geom"
	"github.com/argus-labs/scene-engine/pkg/persistence"
	"github.com/argus-labs/scene-engine/pkg/scene/component"
	"github.com/argus-labs/scene-engine/pkg/scene/replication"
	"github.com/argus-labs/scene-engine/pkg/stats"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testUID        = 1337
	testAvatarGUID = uint64(testUID)<<32 | 1
	testWeaponGUID = uint64(testUID)<<32 | 2
)

func testFightProperties() stats.FightProperties {
	return stats.FightProperties{
		Values: map[gamedata.FightProp]float32{
			gamedata.FightPropBaseHP:      912,
			gamedata.FightPropBaseAttack:  18.7,
			gamedata.FightPropBaseDefense: 57,
			gamedata.FightPropCritical:    0.05,
			gamedata.FightPropCurHP:       912,
			gamedata.FightPropMaxHP:       912,
		},
		Finalized: true,
	}
}

func testAvatarBundle() component.AvatarBundle {
	return component.AvatarBundle{
		AvatarID:               10000007,
		EntityID:               component.NewProtocolEntityID(component.EntityTypeAvatar, 1),
		GUID:                   component.GUID(testAvatarGUID),
		Level:                  80,
		BreakLevel:             5,
		ControlPeer:            1,
		SkillDepot:             704,
		Appearance:             component.AvatarAppearance{FlycloakID: 140001, CostumeID: 200301, TraceEffectID: 0},
		Transform:              component.Transform{Position: geom.Vector3{X: 1, Y: 2, Z: 3}},
		OwnerPlayerUID:         testUID,
		FightProperties:        component.FightProperties{FightProperties: testFightProperties()},
		LifeState:              component.LifeStateAlive,
		BornTime:               1700000000,
		SkillLevelMap:          component.SkillLevelMap{10067: 3, 10068: 1, 100553: 9},
		InherentProudSkillList: component.InherentProudSkillList{72101, 72201},
	}
}

func testWeaponBundle() component.WeaponBundle {
	return component.WeaponBundle{
		WeaponID:       11101,
		GadgetID:       50011101,
		EntityID:       component.NewProtocolEntityID(component.EntityTypeWeapon, 1),
		GUID:           component.GUID(testWeaponGUID),
		Level:          90,
		PromoteLevel:   6,
		AffixMap:       component.AffixMap{111101: 4, 111102: 1},
		OwnerPlayerUID: testUID,
	}
}

// testRecords returns the persisted records holding the same values as the test bundles.
func testRecords() (persistence.AvatarRecord, persistence.ItemRecord) {
	avatar := persistence.AvatarRecord{
		GUID:                   testAvatarGUID,
		AvatarID:               10000007,
		Level:                  80,
		BreakLevel:             5,
		WeaponGUID:             testWeaponGUID,
		SkillDepotID:           704,
		SkillLevelMap:          map[uint32]uint32{100553: 9, 10067: 3, 10068: 1},
		InherentProudSkillList: []uint32{72101, 72201},
		WearingFlycloakID:      140001,
		CostumeID:              200301,
		BornTime:               1700000000,
		FightProperties:        testFightProperties(),
	}
	item := persistence.ItemRecord{
		GUID: testWeaponGUID,
		Weapon: &persistence.WeaponRecord{
			WeaponID:     11101,
			Level:        90,
			PromoteLevel: 6,
			AffixMap:     map[uint32]uint32{111102: 1, 111101: 4},
		},
	}
	return avatar, item
}

type captureState struct {
	Avatars  ecs.Contains[replication.AvatarView]
	Weapons  ecs.Contains[replication.WeaponView]
	Monsters ecs.Contains[replication.MonsterView]
}

// capture spawns the entities and adapts them from inside a system.
func capture(
	t *testing.T,
	avatar component.AvatarBundle,
	weapon component.WeaponBundle,
	monster *component.MonsterBundle,
) ([]replication.AvatarState, []replication.SceneEntityInfo) {
	t.Helper()

	w := ecs.NewWorld()
	require.NoError(t, component.Register(w))

	var avatars []replication.AvatarState
	var monsters []replication.SceneEntityInfo
	require.NoError(t, ecs.RegisterSystem(w, func(state *captureState) error {
		for _, a := range state.Avatars.Iter() {
			wv, ok := state.Weapons.GetByID(a.Equipment.Get().Weapon)
			if !ok {
				return eris.New("weapon not found")
			}
			avatars = append(avatars, replication.FromLiveAvatar(a, wv))
		}
		for _, m := range state.Monsters.Iter() {
			monsters = append(monsters, replication.FromLiveMonster(m))
		}
		return nil
	}))
	w.Init()

	weaponID, err := w.Spawn(weapon.Components()...)
	require.NoError(t, err)
	avatar.Equipment = component.Equipment{Weapon: weaponID}
	_, err = w.Spawn(avatar.Components()...)
	require.NoError(t, err)
	if monster != nil {
		_, err = w.Spawn(monster.Components()...)
		require.NoError(t, err)
	}

	require.NoError(t, w.Tick()) // Genesis
	require.NoError(t, w.Tick())
	return avatars, monsters
}

func TestFromLiveAvatar(t *testing.T) {
	t.Parallel()

	avatars, _ := capture(t, testAvatarBundle(), testWeaponBundle(), nil)
	require.Len(t, avatars, 1)
	state := avatars[0]
	assert.True(t, state.Resident)

	info := state.EntityInfo()
	assert.Equal(t, uint32(component.EntityTypeAvatar), info.EntityType)
	assert.Equal(t, uint32(0x01000001), info.EntityID)
	require.NotNil(t, info.MotionInfo)
	assert.Equal(t, geom.Vector3{X: 1, Y: 2, Z: 3}, info.MotionInfo.Pos)
	assert.Equal(t, []replication.PropPair{
		{Type: replication.PropLevel, Ival: 80},
		{Type: replication.PropBreakLevel, Ival: 5},
	}, info.PropList)
	assert.Equal(t, uint32(component.LifeStateAlive), info.LifeState)

	// Fight properties are sorted by type.
	require.Len(t, info.FightPropList, 6)
	for i := 1; i < len(info.FightPropList); i++ {
		assert.Less(t, info.FightPropList[i-1].PropType, info.FightPropList[i].PropType)
	}

	// Placeholders are present even though they're empty.
	assert.Len(t, info.AnimatorParaList, 1)
	assert.NotNil(t, info.EntityClientData)
	assert.NotNil(t, info.EntityAuthorityInfo)
	assert.NotNil(t, info.EntityEnvironmentInfoList)

	require.NotNil(t, info.Avatar)
	assert.Nil(t, info.Monster)
	av := info.Avatar
	assert.Equal(t, uint32(testUID), av.UID)
	assert.Equal(t, uint32(1), av.PeerID)
	assert.Equal(t, []uint32{11101}, av.EquipIDList)
	assert.Equal(t, uint32(200301), av.CostumeID)
	assert.Equal(t, uint32(140001), av.WearingFlycloakID)
	assert.Equal(t, []replication.Uint32Pair{
		{Key: 10067, Value: 3},
		{Key: 10068, Value: 1},
		{Key: 100553, Value: 9},
	}, av.SkillLevelMap)

	require.NotNil(t, av.Weapon)
	assert.Equal(t, uint32(0x06000001), av.Weapon.EntityID)
	assert.Equal(t, uint32(50011101), av.Weapon.GadgetID)
	assert.Equal(t, testWeaponGUID, av.Weapon.GUID)
	assert.NotNil(t, av.Weapon.AbilityInfo)
	assert.NotNil(t, av.Weapon.RendererChangedInfo)
	assert.Equal(t, []replication.Uint32Pair{{Key: 111101, Value: 4}, {Key: 111102, Value: 1}}, av.Weapon.AffixMap)
}

func TestFromPersistedAvatar(t *testing.T) {
	t.Parallel()

	avatar, item := testRecords()
	state, err := replication.FromPersistedAvatar(avatar, item)
	require.NoError(t, err)
	assert.False(t, state.Resident)

	info := state.EntityInfo()
	assert.Equal(t, uint32(component.EntityTypeAvatar), info.EntityType)
	assert.Zero(t, info.EntityID)
	assert.Nil(t, info.MotionInfo)
	assert.Zero(t, info.LifeState)

	require.NotNil(t, info.Avatar)
	assert.Equal(t, uint32(testUID), info.Avatar.UID, "owner comes from the upper half of the guid")
	assert.Zero(t, info.Avatar.PeerID)
	assert.Equal(t, []uint32{11101}, info.Avatar.EquipIDList)
	require.NotNil(t, info.Avatar.Weapon)
	assert.Zero(t, info.Avatar.Weapon.EntityID)
	assert.Nil(t, info.Avatar.Weapon.AbilityInfo)
	assert.Equal(t, testWeaponGUID, info.Avatar.Weapon.GUID)
}

func TestFromPersistedAvatar_NotAWeapon(t *testing.T) {
	t.Parallel()

	avatar, _ := testRecords()
	_, err := replication.FromPersistedAvatar(avatar, persistence.ItemRecord{GUID: testWeaponGUID})
	require.ErrorIs(t, err, replication.ErrNotAWeapon)
}

func TestLiveAndPersistedPathsEncodeEqually(t *testing.T) {
	t.Parallel()

	avatars, _ := capture(t, testAvatarBundle(), testWeaponBundle(), nil)
	require.Len(t, avatars, 1)
	live := avatars[0]

	avatar, item := testRecords()
	persisted, err := replication.FromPersistedAvatar(avatar, item)
	require.NoError(t, err)

	liveBytes, err := replication.Encode(live.Offline().EntityInfo())
	require.NoError(t, err)
	persistedBytes, err := replication.Encode(persisted.EntityInfo())
	require.NoError(t, err)
	assert.Equal(t, liveBytes, persistedBytes)

	// The full live snapshot carries more than the persisted one.
	fullBytes, err := replication.Encode(live.EntityInfo())
	require.NoError(t, err)
	assert.NotEqual(t, persistedBytes, fullBytes)

	// A differing cosmetic breaks the equivalence.
	avatar.CostumeID++
	changed, err := replication.FromPersistedAvatar(avatar, item)
	require.NoError(t, err)
	changedBytes, err := replication.Encode(changed.EntityInfo())
	require.NoError(t, err)
	assert.NotEqual(t, liveBytes, changedBytes)
}

func TestEncode_Deterministic(t *testing.T) {
	t.Parallel()

	avatar, item := testRecords()
	state, err := replication.FromPersistedAvatar(avatar, item)
	require.NoError(t, err)

	first, err := replication.Encode(state.EntityInfo())
	require.NoError(t, err)
	for range 50 {
		again, err := replication.Encode(state.EntityInfo())
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}

func TestFromLiveMonster(t *testing.T) {
	t.Parallel()

	monster := component.MonsterBundle{
		MonsterID:       20010101,
		EntityID:        component.NewProtocolEntityID(component.EntityTypeMonster, 7),
		Level:           90,
		Transform:       component.Transform{Position: geom.Vector3{X: 10, Y: 60, Z: 5}},
		FightProperties: component.FightProperties{FightProperties: testFightProperties()},
		LifeState:       component.LifeStateAlive,
	}
	_, monsters := capture(t, testAvatarBundle(), testWeaponBundle(), &monster)
	require.Len(t, monsters, 1)

	info := monsters[0]
	assert.Equal(t, uint32(component.EntityTypeMonster), info.EntityType)
	assert.Equal(t, uint32(0x02000007), info.EntityID)
	require.NotNil(t, info.MotionInfo)
	assert.Equal(t, geom.Vector3{X: 10, Y: 60, Z: 5}, info.MotionInfo.Pos)
	assert.Equal(t, []replication.PropPair{{Type: replication.PropLevel, Ival: 90}}, info.PropList)
	require.NotNil(t, info.Monster)
	assert.Equal(t, uint32(20010101), info.Monster.MonsterID)
	assert.Nil(t, info.Avatar)
}
