package gamedata

import (
	"slices"

	"github.com/rotisserie/eris"
)

// GrowCurveType names a growth curve, e.g. GROW_CURVE_HP.
type GrowCurveType string

// ArithType is the operation a curve applies to the property it scales.
type ArithType string

const (
	ArithMulti ArithType = "ARITH_MULTI"
	ArithAdd   ArithType = "ARITH_ADD"
)

// CurveScope selects the curve family. Monster and avatar curves share curve names but live in
// different tables.
type CurveScope uint8

const (
	ScopeMonster CurveScope = iota
	ScopeAvatar
)

func (s CurveScope) String() string {
	switch s {
	case ScopeMonster:
		return "monster"
	case ScopeAvatar:
		return "avatar"
	default:
		return "unknown"
	}
}

// CurveInfo is one curve's value at a level.
type CurveInfo struct {
	Type  GrowCurveType `json:"type"`
	Arith ArithType     `json:"arith"`
	Value float32       `json:"value"`
}

// CurveRow holds every curve's value at a level.
type CurveRow struct {
	Level      uint32      `json:"level"`
	CurveInfos []CurveInfo `json:"curveInfos"`
}

// PropGrowCurve binds a property to the curve that scales it.
type PropGrowCurve struct {
	Type      FightProp     `json:"type"`
	GrowCurve GrowCurveType `json:"growCurve"`
}

// CurveTable is a level-indexed table of growth curves. Levels outside [MinLevel, MaxLevel] clamp to
// the nearest endpoint. A level inside the domain without a row of its own uses the closest defined
// level below it.
type CurveTable struct {
	levels []uint32 // Ascending
	rows   map[uint32]map[GrowCurveType]CurveInfo
}

// NewCurveTable builds a table from its rows. Later rows for the same level replace earlier ones.
func NewCurveTable(rows []CurveRow) *CurveTable {
	t := &CurveTable{rows: make(map[uint32]map[GrowCurveType]CurveInfo, len(rows))}
	for _, row := range rows {
		infos := make(map[GrowCurveType]CurveInfo, len(row.CurveInfos))
		for _, info := range row.CurveInfos {
			infos[info.Type] = info
		}
		if _, ok := t.rows[row.Level]; !ok {
			t.levels = append(t.levels, row.Level)
		}
		t.rows[row.Level] = infos
	}
	slices.Sort(t.levels)
	return t
}

// Domain returns the lowest and highest levels defined by the table.
func (t *CurveTable) Domain() (uint32, uint32) {
	if len(t.levels) == 0 {
		return 0, 0
	}
	return t.levels[0], t.levels[len(t.levels)-1]
}

// Levels returns the defined levels in ascending order.
func (t *CurveTable) Levels() []uint32 {
	return slices.Clone(t.levels)
}

// Lookup returns the value of curve at level, clamping the level to the table's domain.
func (t *CurveTable) Lookup(level uint32, curve GrowCurveType) (CurveInfo, error) {
	if t == nil || len(t.levels) == 0 {
		return CurveInfo{}, eris.Wrapf(ErrCurveNotFound, "empty curve table for %s", curve)
	}

	// Index of the first level above the requested one; the row before it is the closest at or below.
	i, found := slices.BinarySearch(t.levels, level)
	if !found {
		i = max(i-1, 0)
	}
	row := t.levels[i]
	info, ok := t.rows[row][curve]
	if !ok {
		return CurveInfo{}, eris.Wrapf(ErrCurveNotFound, "curve %s at level %d", curve, row)
	}
	return info, nil
}

// Curves holds both curve families.
type Curves struct {
	Monster *CurveTable
	Avatar  *CurveTable
}

// Table returns the table of the given scope.
func (c Curves) Table(scope CurveScope) (*CurveTable, error) {
	switch scope {
	case ScopeMonster:
		return c.Monster, nil
	case ScopeAvatar:
		return c.Avatar, nil
	default:
		return nil, eris.Errorf("unknown curve scope %d", scope)
	}
}
