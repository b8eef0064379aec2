package scene_test

import (
	"testing"

	"github.com/argus-labs/scene-engine/pkg/gamedata"
	"github.com/argus-labs/scene-engine/pkg/geom"
	"github.com/argus-labs/scene-engine/pkg/persistence"
	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats-server/v2/test"
	"github.com/stretchr/testify/require"
)

const (
	testUID        = 1337
	testAvatarGUID = uint64(testUID)<<32 | 1
	testWeaponGUID = uint64(testUID)<<32 | 2
)

func testTables(t *testing.T) *gamedata.Tables {
	t.Helper()

	var rows []gamedata.CurveRow
	for level := uint32(1); level <= 100; level++ {
		rows = append(rows, gamedata.CurveRow{Level: level, CurveInfos: []gamedata.CurveInfo{
			{Type: "GROW_CURVE_HP", Arith: gamedata.ArithMulti, Value: float32(level)},
		}})
	}
	growth := []gamedata.PropGrowCurve{{Type: gamedata.FightPropBaseHP, GrowCurve: "GROW_CURVE_HP"}}

	tables, err := gamedata.NewTables(gamedata.TablesData{
		Monsters: []gamedata.MonsterConfig{{ID: 20010101, HPBase: 100, PropGrowCurves: growth}},
		Avatars:  []gamedata.AvatarConfig{{ID: 10000007, HPBase: 912, PropGrowCurves: growth}},
		Weapons:  []gamedata.WeaponConfig{{ID: 11101, GadgetID: 50011101}},

		MonsterCurves: rows,
		AvatarCurves:  rows,
	})
	require.NoError(t, err)
	return tables
}

func testPlayerRecord() persistence.PlayerRecord {
	return persistence.PlayerRecord{
		UID:           testUID,
		WorldPosition: persistence.WorldPosition{Position: geom.Vector3{X: 1, Y: 50, Z: 2}},
		Avatars: map[uint64]persistence.AvatarRecord{
			testAvatarGUID: {
				GUID:          testAvatarGUID,
				AvatarID:      10000007,
				Level:         80,
				WeaponGUID:    testWeaponGUID,
				SkillLevelMap: map[uint32]uint32{10067: 3},
			},
		},
		Items: map[uint64]persistence.ItemRecord{
			testWeaponGUID: {
				GUID:   testWeaponGUID,
				Weapon: &persistence.WeaponRecord{WeaponID: 11101, Level: 90},
			},
		},
		CurAvatarGUID: testAvatarGUID,
	}
}

func runNATS(t *testing.T) *server.Server {
	t.Helper()

	srv := test.RunServer(&server.Options{
		Host:                  "127.0.0.1",
		Port:                  -1,
		NoLog:                 true,
		NoSigs:                true,
		MaxControlLine:        4096,
		DisableShortFirstPing: true,
	})
	t.Cleanup(srv.Shutdown)
	return srv
}
