package system_test

import (
	"math/rand/v2"
	"testing"

	"github.com/argus-labs/scene-engine/pkg/ecs"
	"github.com/argus-labs/scene-engine/pkg/gamedata"
	"github.com/argus-labs/scene-engine/pkg/geom"
	"github.com/argus-labs/scene-engine/pkg/message"
	"github.com/argus-labs/scene-engine/pkg/persistence"
	"github.com/argus-labs/scene-engine/pkg/scene/component"
	"github.com/argus-labs/scene-engine/pkg/scene/system"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/require"
)

const (
	testUID        = 1337
	testAvatarGUID = uint64(testUID)<<32 | 1
	testWeaponGUID = uint64(testUID)<<32 | 2
	testPlayerY    = 50
)

type fakeResources map[string][]byte

func (f fakeResources) ReadResource(key string) ([]byte, error) {
	data, ok := f[key]
	if !ok {
		return nil, eris.Errorf("resource %s not found", key)
	}
	return data, nil
}

func testTables(t *testing.T) *gamedata.Tables {
	t.Helper()

	var rows []gamedata.CurveRow
	for level := uint32(1); level <= 100; level++ {
		rows = append(rows, gamedata.CurveRow{Level: level, CurveInfos: []gamedata.CurveInfo{
			{Type: "GROW_CURVE_HP", Arith: gamedata.ArithMulti, Value: float32(level)},
			{Type: "GROW_CURVE_ATTACK", Arith: gamedata.ArithMulti, Value: float32(level) / 2},
		}})
	}

	growth := []gamedata.PropGrowCurve{
		{Type: gamedata.FightPropBaseHP, GrowCurve: "GROW_CURVE_HP"},
		{Type: gamedata.FightPropBaseAttack, GrowCurve: "GROW_CURVE_ATTACK"},
	}
	var monsters []gamedata.MonsterConfig
	for i, id := range system.SpawnCandidates {
		monsters = append(monsters, gamedata.MonsterConfig{
			ID:             id,
			HPBase:         100 + float32(i),
			AttackBase:     10,
			DefenseBase:    500,
			Critical:       0.05,
			FireSubHurt:    0.1,
			PropGrowCurves: growth,
		})
	}

	tables, err := gamedata.NewTables(gamedata.TablesData{
		Monsters: monsters,
		Avatars: []gamedata.AvatarConfig{{
			ID:             10000007,
			HPBase:         912,
			AttackBase:     18,
			DefenseBase:    57,
			PropGrowCurves: growth,
		}},
		Weapons:       []gamedata.WeaponConfig{{ID: 11101, GadgetID: 50011101}},
		MonsterCurves: rows,
		AvatarCurves:  rows,
	})
	require.NoError(t, err)
	return tables
}

func testPlayerRecord() persistence.PlayerRecord {
	return persistence.PlayerRecord{
		UID: testUID,
		WorldPosition: persistence.WorldPosition{
			Position: geom.Vector3{X: 1, Y: testPlayerY, Z: 2},
		},
		Avatars: map[uint64]persistence.AvatarRecord{
			testAvatarGUID: {
				GUID:                   testAvatarGUID,
				AvatarID:               10000007,
				Level:                  80,
				BreakLevel:             5,
				WeaponGUID:             testWeaponGUID,
				SkillDepotID:           704,
				SkillLevelMap:          map[uint32]uint32{10067: 3, 10068: 1},
				InherentProudSkillList: []uint32{72101},
				WearingFlycloakID:      140001,
				CostumeID:              0,
				BornTime:               1700000000,
			},
		},
		Items: map[uint64]persistence.ItemRecord{
			testWeaponGUID: {
				GUID: testWeaponGUID,
				Weapon: &persistence.WeaponRecord{
					WeaponID:     11101,
					Level:        90,
					PromoteLevel: 6,
					AffixMap:     map[uint32]uint32{111101: 0},
				},
			},
		},
		CurAvatarGUID: testAvatarGUID,
	}
}

type harness struct {
	world    *ecs.World
	bus      *message.Bus
	sink     *message.MemorySink
	store    *persistence.MemoryStore
	players  *persistence.Players
	tables   *gamedata.Tables
	counters *component.EntityCounters
}

func newHarness(t *testing.T, resources fakeResources) *harness {
	t.Helper()

	h := &harness{
		world:    ecs.NewWorld(),
		sink:     message.NewMemorySink(),
		store:    persistence.NewMemoryStore(),
		tables:   testTables(t),
		counters: &component.EntityCounters{},
	}
	h.bus = message.NewBus(h.sink)
	h.players = persistence.NewPlayers(h.store, 0)
	require.NoError(t, h.players.Put(t.Context(), testPlayerRecord()))

	require.NoError(t, system.Register(h.world, system.Deps{
		Tables:    h.tables,
		Players:   h.players,
		Output:    h.bus,
		Counters:  h.counters,
		Resources: resources,
		Rand:      rand.New(rand.NewPCG(1, 2)), //nolint:gosec // test
	}))
	h.world.Init()
	h.tick(t) // Genesis
	return h
}

// tick runs a tick and dispatches its messages. Returns what was published during the tick.
func (h *harness) tick(t *testing.T) []message.Envelope {
	t.Helper()

	h.sink.Reset()
	require.NoError(t, h.world.Tick())
	require.NoError(t, h.bus.Dispatch(t.Context()))
	return h.sink.Envelopes()
}

func (h *harness) enqueue(t *testing.T, cmd ecs.Command) {
	t.Helper()
	require.NoError(t, h.world.Enqueue(cmd))
}

func (h *harness) enter(t *testing.T) {
	t.Helper()
	h.enqueue(t, system.EnterSceneCommand{UID: testUID, PeerID: 1})
	h.tick(t)
}

// find returns the entities with all the given components, optionally filtered by an expression.
func (h *harness) find(t *testing.T, where string, components ...string) []ecs.EntityID {
	t.Helper()

	results, err := h.world.Search(ecs.SearchParam{Find: components, Match: ecs.MatchContains, Where: where})
	require.NoError(t, err)

	ids := make([]ecs.EntityID, 0, len(results))
	for _, result := range results {
		id, ok := result["_id"].(uint32)
		require.True(t, ok)
		ids = append(ids, ecs.EntityID(id))
	}
	return ids
}

func get[T ecs.Component](t *testing.T, w *ecs.World, eid ecs.EntityID) T {
	t.Helper()
	c, err := ecs.Get[T](w, eid)
	require.NoError(t, err)
	return c
}
