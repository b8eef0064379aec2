// Package gamedata holds the static configuration tables of the scene: monster, avatar, and weapon
// records keyed by id, and the growth curves that scale their stats. Tables are read-only once
// loaded and safe for concurrent use.
package gamedata

import (
	"iter"
	"sort"

	"github.com/rotisserie/eris"
)

var (
	// ErrConfigNotFound is returned when no record exists for an id.
	ErrConfigNotFound = eris.New("config not found")

	// ErrCurveNotFound is returned when a curve table lacks a curve.
	ErrCurveNotFound = eris.New("grow curve not found")
)

// Tables is the id-keyed view over every excel table the scene consumes.
type Tables struct {
	monsters   map[uint32]MonsterConfig
	monsterIDs []uint32 // Sorted, for deterministic iteration
	avatars    map[uint32]AvatarConfig
	weapons    map[uint32]WeaponConfig
	curves     Curves
}

// TablesData is the raw content of the tables.
type TablesData struct {
	Monsters      []MonsterConfig
	Avatars       []AvatarConfig
	Weapons       []WeaponConfig
	MonsterCurves []CurveRow
	AvatarCurves  []CurveRow
}

// NewTables indexes the raw table rows. Duplicate ids are rejected.
func NewTables(data TablesData) (*Tables, error) {
	t := &Tables{
		monsters: make(map[uint32]MonsterConfig, len(data.Monsters)),
		avatars:  make(map[uint32]AvatarConfig, len(data.Avatars)),
		weapons:  make(map[uint32]WeaponConfig, len(data.Weapons)),
		curves: Curves{
			Monster: NewCurveTable(data.MonsterCurves),
			Avatar:  NewCurveTable(data.AvatarCurves),
		},
	}

	for _, cfg := range data.Monsters {
		if _, ok := t.monsters[cfg.ID]; ok {
			return nil, eris.Errorf("duplicate monster config %d", cfg.ID)
		}
		t.monsters[cfg.ID] = cfg
		t.monsterIDs = append(t.monsterIDs, cfg.ID)
	}
	sort.Slice(t.monsterIDs, func(i, j int) bool { return t.monsterIDs[i] < t.monsterIDs[j] })

	for _, cfg := range data.Avatars {
		if _, ok := t.avatars[cfg.ID]; ok {
			return nil, eris.Errorf("duplicate avatar config %d", cfg.ID)
		}
		t.avatars[cfg.ID] = cfg
	}
	for _, cfg := range data.Weapons {
		if _, ok := t.weapons[cfg.ID]; ok {
			return nil, eris.Errorf("duplicate weapon config %d", cfg.ID)
		}
		t.weapons[cfg.ID] = cfg
	}
	return t, nil
}

// Monster returns the monster config with the given id.
func (t *Tables) Monster(id uint32) (MonsterConfig, error) {
	cfg, ok := t.monsters[id]
	if !ok {
		return MonsterConfig{}, eris.Wrapf(ErrConfigNotFound, "monster %d", id)
	}
	return cfg, nil
}

// Monsters iterates the monster configs in ascending id order.
func (t *Tables) Monsters() iter.Seq[MonsterConfig] {
	return func(yield func(MonsterConfig) bool) {
		for _, id := range t.monsterIDs {
			if !yield(t.monsters[id]) {
				return
			}
		}
	}
}

// Avatar returns the avatar config with the given id.
func (t *Tables) Avatar(id uint32) (AvatarConfig, error) {
	cfg, ok := t.avatars[id]
	if !ok {
		return AvatarConfig{}, eris.Wrapf(ErrConfigNotFound, "avatar %d", id)
	}
	return cfg, nil
}

// Weapon returns the weapon config with the given id.
func (t *Tables) Weapon(id uint32) (WeaponConfig, error) {
	cfg, ok := t.weapons[id]
	if !ok {
		return WeaponConfig{}, eris.Wrapf(ErrConfigNotFound, "weapon %d", id)
	}
	return cfg, nil
}

// Curves returns both growth curve families.
func (t *Tables) Curves() Curves {
	return t.curves
}
