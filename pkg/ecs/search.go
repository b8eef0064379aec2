package ecs

import (
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/goccy/go-json"
	"github.com/kelindar/bitmap"
	"github.com/rotisserie/eris"
)

// SearchParam contains parameters for a debug search.
// We use expr lang for the where clause to filter the entities, please refer to its documentation
// for more details: https://expr-lang.org/docs/getting-started.
type SearchParam struct {
	Find  []string    `json:"find"`  // List of component names to search for
	Match SearchMatch `json:"match"` // A match type to use for the search
	Where string      `json:"where"` // Optional expr language string to filter the results
}

// SearchMatch is the type of match to use for the search.
type SearchMatch string

const (
	// MatchExact matches entities that have exactly the specified components.
	MatchExact SearchMatch = "exact"
	// MatchContains matches entities that contains the specified components, but may have other
	// components as well.
	MatchContains SearchMatch = "contains"
)

// validateAndGetFilter validates the search parameters and returns an expr VM program compiled
// from the where clause.
func (s *SearchParam) validateAndGetFilter() (*vm.Program, error) {
	if len(s.Find) == 0 {
		return nil, eris.New("component list cannot be empty")
	}

	if s.Match != MatchExact && s.Match != MatchContains {
		return nil, eris.Errorf("invalid `match` value: must be either '%s' or '%s'", MatchExact, MatchContains)
	}

	if len(s.Where) == 0 {
		return nil, nil //nolint:nilnil // no filter
	}

	filter, err := expr.Compile(s.Where, expr.AsBool())
	if err != nil {
		return nil, eris.Wrap(err, "failed to parse where clause")
	}
	return filter, nil
}

// Search returns the components of every entity matching the search parameters, keyed by component
// name, with the entity ID under "_id". Component values are converted to their JSON form so the
// where clause can address fields by their JSON names, e.g. `transform.position.y > 100`.
//
// Search reads the world directly and must not be called while a tick is running.
func (w *World) Search(params SearchParam) ([]map[string]any, error) {
	filter, err := params.validateAndGetFilter()
	if err != nil {
		return nil, eris.Wrap(err, "invalid search params")
	}

	var components bitmap.Bitmap
	for _, name := range params.Find {
		cid, err := w.state.components.getID(name)
		if err != nil {
			return nil, err
		}
		components.Set(cid)
	}

	var archs []*archetype
	switch params.Match {
	case MatchExact:
		if arch := w.state.archExact(components); arch != nil {
			archs = append(archs, arch)
		}
	case MatchContains:
		archs = w.state.archContains(components, bitmap.Bitmap{})
	}

	results := make([]map[string]any, 0)
	for _, arch := range archs {
		for row, eid := range arch.entities {
			entity, err := entityToMap(arch, row, eid)
			if err != nil {
				return nil, err
			}

			if filter != nil {
				output, err := expr.Run(filter, entity)
				if err != nil {
					return nil, eris.Wrap(err, "failed to run filter expression")
				}
				// The environment is only known while iterating, so expr.Compile can't prove the
				// expression returns a bool, e.g. for `health.hp > 200`.
				isMatch, ok := output.(bool)
				if !ok {
					return nil, eris.New("invalid where clause")
				}
				if !isMatch {
					continue
				}
			}
			results = append(results, entity)
		}
	}
	return results, nil
}

// entityToMap converts an entity to a map of its components in JSON form.
func entityToMap(arch *archetype, row int, eid EntityID) (map[string]any, error) {
	data := make(map[string]any, arch.compCount+1)
	data["_id"] = uint32(eid)

	for _, col := range arch.columns {
		raw, err := json.Marshal(col.getAbstract(row))
		if err != nil {
			return nil, eris.Wrapf(err, "failed to marshal component %s", col.name())
		}
		var value any
		if err := json.Unmarshal(raw, &value); err != nil {
			return nil, eris.Wrapf(err, "failed to unmarshal component %s", col.name())
		}
		data[col.name()] = value
	}
	return data, nil
}
