// Package stats derives combat properties from static configuration. The derivation runs in a fixed
// order: Baseline, then ApplyGrowth once per growth curve, then Finalize exactly once. The functions
// don't touch the entity store.
package stats

import (
	"sort"

	"github.com/argus-labs/scene-engine/pkg/gamedata"
	"github.com/rotisserie/eris"
)

// ErrFinalized is returned when growth is applied to properties that were already finalized.
var ErrFinalized = eris.New("fight properties already finalized")

// FightProperties maps property types to values. Properties that haven't been derived yet are
// absent, not zero.
type FightProperties struct {
	Values    map[gamedata.FightProp]float32 `json:"values"    msgpack:"values"`
	Finalized bool                           `json:"finalized" msgpack:"finalized"`
}

// NewFightProperties returns an empty property map.
func NewFightProperties() FightProperties {
	return FightProperties{Values: make(map[gamedata.FightProp]float32)}
}

// Get returns the value of a property and whether it is set.
func (p FightProperties) Get(prop gamedata.FightProp) (float32, bool) {
	v, ok := p.Values[prop]
	return v, ok
}

// Pair is a property and its value.
type Pair struct {
	Prop  gamedata.FightProp
	Value float32
}

// Pairs returns the set properties sorted by property type.
func (p FightProperties) Pairs() []Pair {
	pairs := make([]Pair, 0, len(p.Values))
	for prop, value := range p.Values {
		pairs = append(pairs, Pair{Prop: prop, Value: value})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Prop < pairs[j].Prop })
	return pairs
}

// Clone returns a deep copy.
func (p FightProperties) Clone() FightProperties {
	clone := FightProperties{Values: make(map[gamedata.FightProp]float32, len(p.Values)), Finalized: p.Finalized}
	for k, v := range p.Values {
		clone.Values[k] = v
	}
	return clone
}

// Baseline projects the base fields of a monster config one-to-one into a property map.
func Baseline(cfg gamedata.MonsterConfig) FightProperties {
	p := NewFightProperties()
	p.Values[gamedata.FightPropBaseHP] = cfg.HPBase
	p.Values[gamedata.FightPropBaseAttack] = cfg.AttackBase
	p.Values[gamedata.FightPropBaseDefense] = cfg.DefenseBase
	p.Values[gamedata.FightPropCritical] = cfg.Critical
	p.Values[gamedata.FightPropAntiCritical] = cfg.AntiCritical
	p.Values[gamedata.FightPropCriticalHurt] = cfg.CriticalHurt
	p.Values[gamedata.FightPropFireSubHurt] = cfg.FireSubHurt
	p.Values[gamedata.FightPropGrassSubHurt] = cfg.GrassSubHurt
	p.Values[gamedata.FightPropWaterSubHurt] = cfg.WaterSubHurt
	p.Values[gamedata.FightPropElecSubHurt] = cfg.ElecSubHurt
	p.Values[gamedata.FightPropWindSubHurt] = cfg.WindSubHurt
	p.Values[gamedata.FightPropIceSubHurt] = cfg.IceSubHurt
	p.Values[gamedata.FightPropRockSubHurt] = cfg.RockSubHurt
	p.Values[gamedata.FightPropFireAddHurt] = cfg.FireAddHurt
	p.Values[gamedata.FightPropGrassAddHurt] = cfg.GrassAddHurt
	p.Values[gamedata.FightPropWaterAddHurt] = cfg.WaterAddHurt
	p.Values[gamedata.FightPropElecAddHurt] = cfg.ElecAddHurt
	p.Values[gamedata.FightPropWindAddHurt] = cfg.WindAddHurt
	p.Values[gamedata.FightPropIceAddHurt] = cfg.IceAddHurt
	p.Values[gamedata.FightPropRockAddHurt] = cfg.RockAddHurt
	p.Values[gamedata.FightPropElementMastery] = cfg.ElementMastery
	p.Values[gamedata.FightPropPhysicalSubHurt] = cfg.PhysicalSubHurt
	p.Values[gamedata.FightPropPhysicalAddHurt] = cfg.PhysicalAddHurt
	return p
}

// AvatarBaseline projects the base fields of an avatar config into a property map.
func AvatarBaseline(cfg gamedata.AvatarConfig) FightProperties {
	p := NewFightProperties()
	p.Values[gamedata.FightPropBaseHP] = cfg.HPBase
	p.Values[gamedata.FightPropBaseAttack] = cfg.AttackBase
	p.Values[gamedata.FightPropBaseDefense] = cfg.DefenseBase
	p.Values[gamedata.FightPropCritical] = cfg.Critical
	p.Values[gamedata.FightPropCriticalHurt] = cfg.CriticalHurt
	return p
}

// ApplyGrowth scales the property bound to curve by the curve's value at level. The curve table is
// chosen by scope and the level is clamped to the table's domain. Properties that aren't set are
// left absent.
func ApplyGrowth(
	level uint32,
	curve gamedata.PropGrowCurve,
	scope gamedata.CurveScope,
	curves gamedata.Curves,
	props *FightProperties,
) error {
	if props.Finalized {
		return eris.Wrapf(ErrFinalized, "can't apply %s", curve.GrowCurve)
	}

	table, err := curves.Table(scope)
	if err != nil {
		return err
	}
	info, err := table.Lookup(level, curve.GrowCurve)
	if err != nil {
		return eris.Wrapf(err, "%s curve for %s", scope, curve.Type)
	}

	value, ok := props.Values[curve.Type]
	if !ok {
		return nil
	}
	switch info.Arith {
	case gamedata.ArithAdd:
		props.Values[curve.Type] = value + info.Value
	case gamedata.ArithMulti, "":
		props.Values[curve.Type] = value * info.Value
	default:
		return eris.Errorf("unknown arith %s in curve %s", info.Arith, curve.GrowCurve)
	}
	return nil
}

// derived are the totals computed by Finalize, in dependency order.
var derived = []struct { //nolint:gochecknoglobals // lookup table
	prop                gamedata.FightProp
	base, percent, flat gamedata.FightProp
}{
	{gamedata.FightPropMaxHP, gamedata.FightPropBaseHP, gamedata.FightPropHPPercent, gamedata.FightPropHP},
	{gamedata.FightPropCurAttack, gamedata.FightPropBaseAttack, gamedata.FightPropAttackPercent, gamedata.FightPropAttack},
	{gamedata.FightPropCurDefense, gamedata.FightPropBaseDefense, gamedata.FightPropDefensePercent, gamedata.FightPropDefense},
}

// recognized are the properties Finalize guarantees to be present.
var recognized = []gamedata.FightProp{ //nolint:gochecknoglobals // lookup table
	gamedata.FightPropBaseHP, gamedata.FightPropHP, gamedata.FightPropHPPercent,
	gamedata.FightPropBaseAttack, gamedata.FightPropAttack, gamedata.FightPropAttackPercent,
	gamedata.FightPropBaseDefense, gamedata.FightPropDefense, gamedata.FightPropDefensePercent,
	gamedata.FightPropCritical, gamedata.FightPropAntiCritical, gamedata.FightPropCriticalHurt,
	gamedata.FightPropElementMastery, gamedata.FightPropPhysicalSubHurt, gamedata.FightPropPhysicalAddHurt,
	gamedata.FightPropFireAddHurt, gamedata.FightPropElecAddHurt, gamedata.FightPropWaterAddHurt,
	gamedata.FightPropGrassAddHurt, gamedata.FightPropWindAddHurt, gamedata.FightPropRockAddHurt,
	gamedata.FightPropIceAddHurt, gamedata.FightPropFireSubHurt, gamedata.FightPropElecSubHurt,
	gamedata.FightPropWaterSubHurt, gamedata.FightPropGrassSubHurt, gamedata.FightPropWindSubHurt,
	gamedata.FightPropRockSubHurt, gamedata.FightPropIceSubHurt,
}

// Finalize fills every recognized property that is still absent. Totals are computed as
// base*(1+percent)+flat from the already derived values; current hp starts at max hp. Every other
// absent property takes its unscaled base value, which is zero for bonuses the config doesn't carry.
// Set properties are never overwritten, so calling Finalize again changes nothing.
func Finalize(props *FightProperties) {
	if props.Values == nil {
		props.Values = make(map[gamedata.FightProp]float32)
	}

	for _, prop := range recognized {
		if _, ok := props.Values[prop]; !ok {
			props.Values[prop] = 0
		}
	}

	for _, d := range derived {
		if _, ok := props.Values[d.prop]; ok {
			continue
		}
		props.Values[d.prop] = props.Values[d.base]*(1+props.Values[d.percent]) + props.Values[d.flat]
	}
	if _, ok := props.Values[gamedata.FightPropCurHP]; !ok {
		props.Values[gamedata.FightPropCurHP] = props.Values[gamedata.FightPropMaxHP]
	}

	props.Finalized = true
}

// Derive runs the full derivation for a monster config at level. Growth curves that can't be
// resolved are reported through skipped and leave their property at its base value.
func Derive(
	level uint32,
	cfg gamedata.MonsterConfig,
	curves gamedata.Curves,
	skipped func(curve gamedata.PropGrowCurve, err error),
) FightProperties {
	props := Baseline(cfg)
	applyAll(level, cfg.PropGrowCurves, gamedata.ScopeMonster, curves, &props, skipped)
	Finalize(&props)
	return props
}

// DeriveAvatar runs the full derivation for an avatar config at level.
func DeriveAvatar(
	level uint32,
	cfg gamedata.AvatarConfig,
	curves gamedata.Curves,
	skipped func(curve gamedata.PropGrowCurve, err error),
) FightProperties {
	props := AvatarBaseline(cfg)
	applyAll(level, cfg.PropGrowCurves, gamedata.ScopeAvatar, curves, &props, skipped)
	Finalize(&props)
	return props
}

func applyAll(
	level uint32,
	growCurves []gamedata.PropGrowCurve,
	scope gamedata.CurveScope,
	curves gamedata.Curves,
	props *FightProperties,
	skipped func(curve gamedata.PropGrowCurve, err error),
) {
	for _, curve := range growCurves {
		if err := ApplyGrowth(level, curve, scope, curves, props); err != nil && skipped != nil {
			skipped(curve, err)
		}
	}
}
