package gamedata

import (
	"strconv"

	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"
)

// FightProp identifies a combat property. Values are the client's wire values.
type FightProp uint32

const (
	FightPropNone            FightProp = 0
	FightPropBaseHP          FightProp = 1
	FightPropHP              FightProp = 2
	FightPropHPPercent       FightProp = 3
	FightPropBaseAttack      FightProp = 4
	FightPropAttack          FightProp = 5
	FightPropAttackPercent   FightProp = 6
	FightPropBaseDefense     FightProp = 7
	FightPropDefense         FightProp = 8
	FightPropDefensePercent  FightProp = 9
	FightPropCritical        FightProp = 20
	FightPropAntiCritical    FightProp = 21
	FightPropCriticalHurt    FightProp = 22
	FightPropElementMastery  FightProp = 28
	FightPropPhysicalSubHurt FightProp = 29
	FightPropPhysicalAddHurt FightProp = 30
	FightPropFireAddHurt     FightProp = 40
	FightPropElecAddHurt     FightProp = 41
	FightPropWaterAddHurt    FightProp = 42
	FightPropGrassAddHurt    FightProp = 43
	FightPropWindAddHurt     FightProp = 44
	FightPropRockAddHurt     FightProp = 45
	FightPropIceAddHurt      FightProp = 46
	FightPropFireSubHurt     FightProp = 50
	FightPropElecSubHurt     FightProp = 51
	FightPropWaterSubHurt    FightProp = 52
	FightPropGrassSubHurt    FightProp = 53
	FightPropWindSubHurt     FightProp = 54
	FightPropRockSubHurt     FightProp = 55
	FightPropIceSubHurt      FightProp = 56
	FightPropCurHP           FightProp = 1010
	FightPropMaxHP           FightProp = 2000
	FightPropCurAttack       FightProp = 2001
	FightPropCurDefense      FightProp = 2002
)

var fightPropNames = map[FightProp]string{ //nolint:gochecknoglobals // lookup table
	FightPropNone:            "FIGHT_PROP_NONE",
	FightPropBaseHP:          "FIGHT_PROP_BASE_HP",
	FightPropHP:              "FIGHT_PROP_HP",
	FightPropHPPercent:       "FIGHT_PROP_HP_PERCENT",
	FightPropBaseAttack:      "FIGHT_PROP_BASE_ATTACK",
	FightPropAttack:          "FIGHT_PROP_ATTACK",
	FightPropAttackPercent:   "FIGHT_PROP_ATTACK_PERCENT",
	FightPropBaseDefense:     "FIGHT_PROP_BASE_DEFENSE",
	FightPropDefense:         "FIGHT_PROP_DEFENSE",
	FightPropDefensePercent:  "FIGHT_PROP_DEFENSE_PERCENT",
	FightPropCritical:        "FIGHT_PROP_CRITICAL",
	FightPropAntiCritical:    "FIGHT_PROP_ANTI_CRITICAL",
	FightPropCriticalHurt:    "FIGHT_PROP_CRITICAL_HURT",
	FightPropElementMastery:  "FIGHT_PROP_ELEMENT_MASTERY",
	FightPropPhysicalSubHurt: "FIGHT_PROP_PHYSICAL_SUB_HURT",
	FightPropPhysicalAddHurt: "FIGHT_PROP_PHYSICAL_ADD_HURT",
	FightPropFireAddHurt:     "FIGHT_PROP_FIRE_ADD_HURT",
	FightPropElecAddHurt:     "FIGHT_PROP_ELEC_ADD_HURT",
	FightPropWaterAddHurt:    "FIGHT_PROP_WATER_ADD_HURT",
	FightPropGrassAddHurt:    "FIGHT_PROP_GRASS_ADD_HURT",
	FightPropWindAddHurt:     "FIGHT_PROP_WIND_ADD_HURT",
	FightPropRockAddHurt:     "FIGHT_PROP_ROCK_ADD_HURT",
	FightPropIceAddHurt:      "FIGHT_PROP_ICE_ADD_HURT",
	FightPropFireSubHurt:     "FIGHT_PROP_FIRE_SUB_HURT",
	FightPropElecSubHurt:     "FIGHT_PROP_ELEC_SUB_HURT",
	FightPropWaterSubHurt:    "FIGHT_PROP_WATER_SUB_HURT",
	FightPropGrassSubHurt:    "FIGHT_PROP_GRASS_SUB_HURT",
	FightPropWindSubHurt:     "FIGHT_PROP_WIND_SUB_HURT",
	FightPropRockSubHurt:     "FIGHT_PROP_ROCK_SUB_HURT",
	FightPropIceSubHurt:      "FIGHT_PROP_ICE_SUB_HURT",
	FightPropCurHP:           "FIGHT_PROP_CUR_HP",
	FightPropMaxHP:           "FIGHT_PROP_MAX_HP",
	FightPropCurAttack:       "FIGHT_PROP_CUR_ATTACK",
	FightPropCurDefense:      "FIGHT_PROP_CUR_DEFENSE",
}

var fightPropsByName = func() map[string]FightProp { //nolint:gochecknoglobals // lookup table
	m := make(map[string]FightProp, len(fightPropNames))
	for prop, name := range fightPropNames {
		m[name] = prop
	}
	return m
}()

func (p FightProp) String() string {
	if name, ok := fightPropNames[p]; ok {
		return name
	}
	return "FIGHT_PROP_" + strconv.FormatUint(uint64(p), 10)
}

// Known reports whether p is one of the declared properties.
func (p FightProp) Known() bool {
	_, ok := fightPropNames[p]
	return ok && p != FightPropNone
}

// ParseFightProp parses a property name such as FIGHT_PROP_BASE_HP.
func ParseFightProp(name string) (FightProp, error) {
	if prop, ok := fightPropsByName[name]; ok {
		return prop, nil
	}
	return FightPropNone, eris.Errorf("unknown fight prop %q", name)
}

// UnmarshalJSON accepts either the property name or its numeric value.
func (p *FightProp) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		prop, err := ParseFightProp(name)
		if err != nil {
			return err
		}
		*p = prop
		return nil
	}

	var value uint32
	if err := json.Unmarshal(data, &value); err != nil {
		return eris.Wrapf(err, "fight prop must be a name or a number, got %s", data)
	}
	*p = FightProp(value)
	return nil
}
