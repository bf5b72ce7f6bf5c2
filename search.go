package zecs

import (
	"github.com/TheBitDrifter/mask"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/rotisserie/eris"
)

// SearchParam describes an introspection query over component names. Where is an optional
// expr-lang boolean expression evaluated against each entity's component map, for example
// `Position.X > 10`.
type SearchParam struct {
	Find  []string    // Component names to search for
	Match SearchMatch // How Find is matched against archetypes
	Where string      // Optional filter expression
}

type SearchMatch string

const (
	// MatchExact matches entities that have exactly the listed components.
	MatchExact SearchMatch = "exact"
	// MatchContains matches entities that have at least the listed components.
	MatchContains SearchMatch = "contains"
)

func (s *SearchParam) validateAndGetFilter() (*vm.Program, error) {
	if len(s.Find) == 0 {
		return nil, eris.New("component list cannot be empty")
	}
	if s.Match != MatchExact && s.Match != MatchContains {
		return nil, eris.Errorf("invalid `match` value: must be either '%s' or '%s'", MatchExact, MatchContains)
	}
	if s.Where == "" {
		return nil, nil
	}
	filter, err := expr.Compile(s.Where, expr.AsBool())
	if err != nil {
		return nil, eris.Wrap(err, "failed to parse where clause")
	}
	return filter, nil
}

// Search returns one map per matching entity, keyed by component name, with the entity
// under "_id" as "index:generation". It is a debugging aid and locks the world while it
// runs.
func (w *World) Search(params SearchParam) ([]map[string]any, error) {
	filter, err := params.validateAndGetFilter()
	if err != nil {
		return nil, eris.Wrap(err, "invalid search params")
	}

	var find mask.Mask
	for _, name := range params.Find {
		id, ok := componentIDByName(name)
		if !ok {
			return nil, eris.Errorf("component %s not registered", name)
		}
		find.Mark(uint32(id))
	}

	w.Lock()
	defer w.Unlock()

	results := make([]map[string]any, 0)
	for _, arch := range w.archetypes.asSlice {
		switch params.Match {
		case MatchExact:
			if arch.signature != find {
				continue
			}
		case MatchContains:
			if !arch.signature.ContainsAll(find) {
				continue
			}
		}
		for row, e := range arch.entities {
			entityMap := entityToMap(arch, row, e)
			if filter == nil {
				results = append(results, entityMap)
				continue
			}
			output, err := expr.Run(filter, entityMap)
			if err != nil {
				return nil, eris.Wrap(err, "failed to run filter expression")
			}
			// The program is compiled without an environment, so the result type is only
			// known here.
			isMatch, ok := output.(bool)
			if !ok {
				return nil, eris.New("invalid where clause")
			}
			if isMatch {
				results = append(results, entityMap)
			}
		}
	}
	return results, nil
}

func entityToMap(arch *archetype, row int, e Entity) map[string]any {
	data := make(map[string]any, len(arch.componentIDs)+1)
	data["_id"] = e.String()
	for i, cid := range arch.componentIDs {
		data[componentInfoFor(cid).name] = arch.columns[i].getAbstract(row)
	}
	return data
}
