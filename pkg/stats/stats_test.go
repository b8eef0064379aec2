package stats_test

import (
	"testing"

	"github.com/argus-labs/scene-engine/pkg/gamedata"
	"github.com/argus-labs/scene-engine/pkg/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCurves() gamedata.Curves {
	rows := func(hp, atk float32) []gamedata.CurveRow {
		var out []gamedata.CurveRow
		for level := uint32(1); level <= 100; level++ {
			out = append(out, gamedata.CurveRow{Level: level, CurveInfos: []gamedata.CurveInfo{
				{Type: "GROW_CURVE_HP", Arith: gamedata.ArithMulti, Value: hp * float32(level)},
				{Type: "GROW_CURVE_ATTACK", Arith: gamedata.ArithMulti, Value: atk * float32(level)},
				{Type: "GROW_CURVE_FLAT", Arith: gamedata.ArithAdd, Value: float32(level)},
			}})
		}
		return out
	}
	return gamedata.Curves{
		Monster: gamedata.NewCurveTable(rows(1, 0.5)),
		Avatar:  gamedata.NewCurveTable(rows(2, 1)),
	}
}

func slime() gamedata.MonsterConfig {
	return gamedata.MonsterConfig{
		ID:           20010101,
		HPBase:       100,
		AttackBase:   10,
		DefenseBase:  500,
		Critical:     0.05,
		CriticalHurt: 0.5,
		FireSubHurt:  0.1,
		PropGrowCurves: []gamedata.PropGrowCurve{
			{Type: gamedata.FightPropBaseHP, GrowCurve: "GROW_CURVE_HP"},
			{Type: gamedata.FightPropBaseAttack, GrowCurve: "GROW_CURVE_ATTACK"},
		},
	}
}

func TestBaseline_ProjectsConfig(t *testing.T) {
	t.Parallel()

	props := stats.Baseline(slime())
	assert.False(t, props.Finalized)

	hp, ok := props.Get(gamedata.FightPropBaseHP)
	require.True(t, ok)
	assert.InDelta(t, 100, hp, 1e-6)
	fire, ok := props.Get(gamedata.FightPropFireSubHurt)
	require.True(t, ok)
	assert.InDelta(t, 0.1, fire, 1e-6)

	_, ok = props.Get(gamedata.FightPropMaxHP)
	assert.False(t, ok, "derived totals are absent before finalize")
}

func TestApplyGrowth(t *testing.T) {
	t.Parallel()

	curves := testCurves()
	tests := []struct {
		name    string
		level   uint32
		curve   gamedata.PropGrowCurve
		scope   gamedata.CurveScope
		prop    gamedata.FightProp
		want    float32
		wantErr error
	}{
		{
			name:  "monster multiply",
			level: 90,
			curve: gamedata.PropGrowCurve{Type: gamedata.FightPropBaseHP, GrowCurve: "GROW_CURVE_HP"},
			scope: gamedata.ScopeMonster,
			prop:  gamedata.FightPropBaseHP,
			want:  100 * 90,
		},
		{
			name:  "avatar scope routes to the avatar table",
			level: 90,
			curve: gamedata.PropGrowCurve{Type: gamedata.FightPropBaseHP, GrowCurve: "GROW_CURVE_HP"},
			scope: gamedata.ScopeAvatar,
			prop:  gamedata.FightPropBaseHP,
			want:  100 * 180,
		},
		{
			name:  "level above domain clamps",
			level: 250,
			curve: gamedata.PropGrowCurve{Type: gamedata.FightPropBaseAttack, GrowCurve: "GROW_CURVE_ATTACK"},
			scope: gamedata.ScopeMonster,
			prop:  gamedata.FightPropBaseAttack,
			want:  10 * 50,
		},
		{
			name:  "add arithmetic",
			level: 7,
			curve: gamedata.PropGrowCurve{Type: gamedata.FightPropBaseDefense, GrowCurve: "GROW_CURVE_FLAT"},
			scope: gamedata.ScopeMonster,
			prop:  gamedata.FightPropBaseDefense,
			want:  507,
		},
		{
			name:    "missing curve",
			level:   1,
			curve:   gamedata.PropGrowCurve{Type: gamedata.FightPropBaseHP, GrowCurve: "GROW_CURVE_NONE"},
			scope:   gamedata.ScopeMonster,
			wantErr: gamedata.ErrCurveNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			props := stats.Baseline(slime())
			err := stats.ApplyGrowth(tt.level, tt.curve, tt.scope, curves, &props)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			got, ok := props.Get(tt.prop)
			require.True(t, ok)
			assert.InDelta(t, tt.want, got, 1e-3)
		})
	}
}

func TestApplyGrowth_AbsentPropertyStaysAbsent(t *testing.T) {
	t.Parallel()

	props := stats.NewFightProperties()
	curve := gamedata.PropGrowCurve{Type: gamedata.FightPropBaseHP, GrowCurve: "GROW_CURVE_HP"}
	require.NoError(t, stats.ApplyGrowth(10, curve, gamedata.ScopeMonster, testCurves(), &props))

	_, ok := props.Get(gamedata.FightPropBaseHP)
	assert.False(t, ok)
}

func TestApplyGrowth_Deterministic(t *testing.T) {
	t.Parallel()

	curves := testCurves()
	for level := uint32(1); level <= 100; level++ {
		a := stats.Baseline(slime())
		b := stats.Baseline(slime())
		for _, curve := range slime().PropGrowCurves {
			require.NoError(t, stats.ApplyGrowth(level, curve, gamedata.ScopeMonster, curves, &a))
			require.NoError(t, stats.ApplyGrowth(level, curve, gamedata.ScopeMonster, curves, &b))
		}
		assert.Equal(t, a, b, "level %d", level)
	}
}

func TestApplyGrowth_AfterFinalize(t *testing.T) {
	t.Parallel()

	props := stats.Baseline(slime())
	stats.Finalize(&props)

	curve := gamedata.PropGrowCurve{Type: gamedata.FightPropBaseHP, GrowCurve: "GROW_CURVE_HP"}
	err := stats.ApplyGrowth(90, curve, gamedata.ScopeMonster, testCurves(), &props)
	require.ErrorIs(t, err, stats.ErrFinalized)
}

func TestFinalize(t *testing.T) {
	t.Parallel()

	props := stats.Baseline(slime())
	props.Values[gamedata.FightPropHPPercent] = 0.5
	props.Values[gamedata.FightPropAttack] = 3
	stats.Finalize(&props)

	assert.True(t, props.Finalized)
	maxHP, _ := props.Get(gamedata.FightPropMaxHP)
	assert.InDelta(t, 150, maxHP, 1e-3)
	curHP, _ := props.Get(gamedata.FightPropCurHP)
	assert.InDelta(t, 150, curHP, 1e-3)
	curAtk, _ := props.Get(gamedata.FightPropCurAttack)
	assert.InDelta(t, 13, curAtk, 1e-3)
	curDef, _ := props.Get(gamedata.FightPropCurDefense)
	assert.InDelta(t, 500, curDef, 1e-3)

	// Absent bonuses are filled with their unscaled value.
	ice, ok := props.Get(gamedata.FightPropIceAddHurt)
	require.True(t, ok)
	assert.Zero(t, ice)
}

func TestFinalize_Idempotent(t *testing.T) {
	t.Parallel()

	props := stats.Derive(90, slime(), testCurves(), nil)
	once := props.Clone()
	stats.Finalize(&props)
	assert.Equal(t, once, props)
}

func TestFinalize_KeepsSetValues(t *testing.T) {
	t.Parallel()

	props := stats.NewFightProperties()
	props.Values[gamedata.FightPropCurHP] = 1
	props.Values[gamedata.FightPropBaseHP] = 100
	stats.Finalize(&props)

	curHP, _ := props.Get(gamedata.FightPropCurHP)
	assert.InDelta(t, 1, curHP, 1e-6)
	maxHP, _ := props.Get(gamedata.FightPropMaxHP)
	assert.InDelta(t, 100, maxHP, 1e-6)
}

func TestDerive_ReportsSkippedCurves(t *testing.T) {
	t.Parallel()

	cfg := slime()
	cfg.PropGrowCurves = append(cfg.PropGrowCurves,
		gamedata.PropGrowCurve{Type: gamedata.FightPropBaseDefense, GrowCurve: "GROW_CURVE_NONE"})

	var skipped []gamedata.GrowCurveType
	props := stats.Derive(90, cfg, testCurves(), func(curve gamedata.PropGrowCurve, err error) {
		assert.ErrorIs(t, err, gamedata.ErrCurveNotFound)
		skipped = append(skipped, curve.GrowCurve)
	})

	assert.Equal(t, []gamedata.GrowCurveType{"GROW_CURVE_NONE"}, skipped)
	def, _ := props.Get(gamedata.FightPropBaseDefense)
	assert.InDelta(t, 500, def, 1e-6)
	hp, _ := props.Get(gamedata.FightPropBaseHP)
	assert.InDelta(t, 9000, hp, 1e-3)
	assert.True(t, props.Finalized)
}

func TestPairs_Sorted(t *testing.T) {
	t.Parallel()

	props := stats.Derive(1, slime(), testCurves(), nil)
	pairs := props.Pairs()
	require.Len(t, pairs, len(props.Values))
	for i := 1; i < len(pairs); i++ {
		assert.Less(t, pairs[i-1].Prop, pairs[i].Prop)
	}
}
