package persistence_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/argus-labs/scene-engine/pkg/gamedata"
	"github.com/argus-labs/scene-engine/pkg/geom"
	"github.com/argus-labs/scene-engine/pkg/persistence"
	"github.com/argus-labs/scene-engine/pkg/stats"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testUID        = uint32(1337)
	testAvatarGUID = uint64(1337)<<32 | 1
	testWeaponGUID = uint64(1337)<<32 | 2
)

func testRecord() persistence.PlayerRecord {
	props := stats.NewFightProperties()
	props.Values[gamedata.FightPropBaseHP] = 1000
	props.Values[gamedata.FightPropMaxHP] = 1000
	props.Finalized = true

	return persistence.PlayerRecord{
		UID: testUID,
		WorldPosition: persistence.WorldPosition{
			Position: geom.Vector3{X: 1, Y: 50, Z: 3},
		},
		Avatars: map[uint64]persistence.AvatarRecord{
			testAvatarGUID: {
				GUID:                   testAvatarGUID,
				AvatarID:               10000007,
				Level:                  90,
				BreakLevel:             6,
				WeaponGUID:             testWeaponGUID,
				SkillDepotID:           704,
				SkillLevelMap:          map[uint32]uint32{10067: 1, 10068: 1},
				InherentProudSkillList: []uint32{72101},
				WearingFlycloakID:      140001,
				CostumeID:              0,
				BornTime:               1700000000,
				FightProperties:        props,
			},
		},
		Items: map[uint64]persistence.ItemRecord{
			testWeaponGUID: {
				GUID: testWeaponGUID,
				Weapon: &persistence.WeaponRecord{
					WeaponID:     11101,
					Level:        90,
					PromoteLevel: 6,
					AffixMap:     map[uint32]uint32{111406: 4},
				},
			},
		},
		CurAvatarGUID: testAvatarGUID,
	}
}

func newRedisStore(t *testing.T) *persistence.RedisStore {
	t.Helper()
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return persistence.NewRedisStore(client)
}

func TestStores_SaveLoad(t *testing.T) {
	t.Parallel()

	stores := []struct {
		name  string
		store func(t *testing.T) persistence.Store
	}{
		{name: "memory", store: func(*testing.T) persistence.Store { return persistence.NewMemoryStore() }},
		{name: "redis", store: func(t *testing.T) persistence.Store { return newRedisStore(t) }},
	}

	for _, tt := range stores {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			store := tt.store(t)

			_, err := store.Load(ctx, testUID)
			require.ErrorIs(t, err, persistence.ErrPlayerNotFound)

			want := testRecord()
			require.NoError(t, store.Save(ctx, want))

			got, err := store.Load(ctx, testUID)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestRedisStore_Key(t *testing.T) {
	t.Parallel()

	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := persistence.NewRedisStore(client)
	require.NoError(t, store.Save(context.Background(), testRecord()))
	assert.True(t, s.Exists("player:1337"))
}

func TestPlayers_GetRequiresWarm(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := persistence.NewMemoryStore()
	require.NoError(t, store.Save(ctx, testRecord()))
	players := persistence.NewPlayers(store, 0)

	_, err := players.Get(testUID)
	require.ErrorIs(t, err, persistence.ErrPlayerNotFound)

	require.NoError(t, players.Warm(ctx, testUID))
	rec, err := players.Get(testUID)
	require.NoError(t, err)
	assert.Equal(t, testRecord(), rec)

	require.ErrorIs(t, players.Warm(ctx, 42), persistence.ErrPlayerNotFound)
}

func TestPlayers_GetReturnsCopies(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	players := persistence.NewPlayers(persistence.NewMemoryStore(), 0)
	require.NoError(t, players.Put(ctx, testRecord()))

	rec, err := players.Get(testUID)
	require.NoError(t, err)
	avatar := rec.Avatars[testAvatarGUID]
	avatar.CostumeID = 99
	rec.Avatars[testAvatarGUID] = avatar

	again, err := players.Get(testUID)
	require.NoError(t, err)
	assert.Zero(t, again.Avatars[testAvatarGUID].CostumeID)
}

func TestPlayers_UpdateAvatarAndFlush(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := persistence.NewMemoryStore()
	players := persistence.NewPlayers(store, 0)
	require.NoError(t, players.Put(ctx, testRecord()))

	require.NoError(t, players.UpdateAvatar(testUID, testAvatarGUID, func(a *persistence.AvatarRecord) {
		a.CostumeID = 200301
	}))
	require.NoError(t, players.SetPosition(testUID, geom.Vector3{X: 100, Y: 2000, Z: 200}))

	rec, err := players.Get(testUID)
	require.NoError(t, err)
	assert.Equal(t, uint32(200301), rec.Avatars[testAvatarGUID].CostumeID)
	assert.Equal(t, geom.Vector3{X: 100, Y: 2000, Z: 200}, rec.WorldPosition.Position)

	// The store only sees the change after a flush.
	stored, err := store.Load(ctx, testUID)
	require.NoError(t, err)
	assert.Zero(t, stored.Avatars[testAvatarGUID].CostumeID)

	require.NoError(t, players.Flush(ctx))
	stored, err = store.Load(ctx, testUID)
	require.NoError(t, err)
	assert.Equal(t, uint32(200301), stored.Avatars[testAvatarGUID].CostumeID)
}

func TestPlayers_UpdateErrors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	players := persistence.NewPlayers(persistence.NewMemoryStore(), 0)
	require.NoError(t, players.Put(ctx, testRecord()))

	err := players.UpdateAvatar(testUID, 7, func(*persistence.AvatarRecord) {})
	require.ErrorIs(t, err, persistence.ErrAvatarNotFound)

	err = players.UpdateAvatar(42, testAvatarGUID, func(*persistence.AvatarRecord) {})
	require.ErrorIs(t, err, persistence.ErrPlayerNotFound)
}

func TestPlayers_EvictSavesPending(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := persistence.NewMemoryStore()
	players := persistence.NewPlayers(store, 0)
	require.NoError(t, players.Put(ctx, testRecord()))
	require.NoError(t, players.SetPosition(testUID, geom.Vector3{Y: 7}))

	require.NoError(t, players.Evict(ctx, testUID))
	_, err := players.Get(testUID)
	require.ErrorIs(t, err, persistence.ErrPlayerNotFound)

	stored, err := store.Load(ctx, testUID)
	require.NoError(t, err)
	assert.InDelta(t, 7, stored.WorldPosition.Position.Y, 1e-6)
}

// countingStore counts loads and can be made to fail saves.
type countingStore struct {
	persistence.Store
	loads    atomic.Int32
	failSave atomic.Bool
}

func (c *countingStore) Load(ctx context.Context, uid uint32) (persistence.PlayerRecord, error) {
	c.loads.Add(1)
	return c.Store.Load(ctx, uid)
}

func (c *countingStore) Save(ctx context.Context, rec persistence.PlayerRecord) error {
	if c.failSave.Load() {
		return errors.New("store unavailable")
	}
	return c.Store.Save(ctx, rec)
}

func TestPlayers_ResidencyOutlivesLoadCache(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	// Enough data to overflow the smallest load cache several times.
	const count = 3000
	store := persistence.NewMemoryStore()
	for uid := uint32(1); uid <= count; uid++ {
		rec := testRecord()
		rec.UID = uid
		for i := range uint64(60) {
			avatar := rec.Avatars[testAvatarGUID]
			avatar.GUID = uint64(uid)<<32 | (i + 10)
			rec.Avatars[avatar.GUID] = avatar
		}
		require.NoError(t, store.Save(ctx, rec))
	}

	players := persistence.NewPlayers(store, persistence.MinCacheBytes)
	for uid := uint32(1); uid <= count; uid++ {
		require.NoError(t, players.Warm(ctx, uid))
	}
	assert.Equal(t, count, players.Len())

	for uid := uint32(1); uid <= count; uid++ {
		rec, err := players.Get(uid)
		require.NoError(t, err, "uid %d", uid)
		assert.Equal(t, uid, rec.UID)
		assert.Len(t, rec.Avatars, 61)
	}
}

func TestPlayers_WarmKeepsPendingChanges(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	players := persistence.NewPlayers(persistence.NewMemoryStore(), 0)
	require.NoError(t, players.Put(ctx, testRecord()))
	require.NoError(t, players.SetPosition(testUID, geom.Vector3{Y: 9}))

	require.NoError(t, players.Warm(ctx, testUID))
	rec, err := players.Get(testUID)
	require.NoError(t, err)
	assert.InDelta(t, 9, rec.WorldPosition.Position.Y, 1e-6)
}

func TestPlayers_RewarmServedFromLoadCache(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := &countingStore{Store: persistence.NewMemoryStore()}
	require.NoError(t, store.Save(ctx, testRecord()))
	players := persistence.NewPlayers(store, 0)

	require.NoError(t, players.Warm(ctx, testUID))
	require.NoError(t, players.SetPosition(testUID, geom.Vector3{Y: 11}))
	require.NoError(t, players.Evict(ctx, testUID))
	assert.False(t, players.Resident(testUID))

	require.NoError(t, players.Warm(ctx, testUID))
	assert.Equal(t, int32(1), store.loads.Load())
	rec, err := players.Get(testUID)
	require.NoError(t, err)
	assert.InDelta(t, 11, rec.WorldPosition.Position.Y, 1e-6)
}

func TestPlayers_EvictKeepsResidentWhenSaveFails(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := &countingStore{Store: persistence.NewMemoryStore()}
	require.NoError(t, store.Save(ctx, testRecord()))
	players := persistence.NewPlayers(store, 0)
	require.NoError(t, players.Warm(ctx, testUID))
	require.NoError(t, players.SetPosition(testUID, geom.Vector3{Y: 13}))

	store.failSave.Store(true)
	require.Error(t, players.Evict(ctx, testUID))
	assert.True(t, players.Resident(testUID))

	store.failSave.Store(false)
	require.NoError(t, players.Evict(ctx, testUID))
	assert.False(t, players.Resident(testUID))
	stored, err := store.Store.Load(ctx, testUID)
	require.NoError(t, err)
	assert.InDelta(t, 13, stored.WorldPosition.Position.Y, 1e-6)
}

func TestPlayerRecord_Lookups(t *testing.T) {
	t.Parallel()

	rec := testRecord()
	avatar, err := rec.Avatar(testAvatarGUID)
	require.NoError(t, err)
	assert.Equal(t, testUID, avatar.OwnerUID())

	_, err = rec.Weapon(testWeaponGUID)
	require.NoError(t, err)
	_, err = rec.Weapon(testAvatarGUID)
	require.ErrorIs(t, err, persistence.ErrItemNotFound)
}
