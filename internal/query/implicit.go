package query

import (
	"github.com/roach88/vcq/internal/graph"
	"github.com/roach88/vcq/internal/schema"
)

// ImplicitKey returns the computed vertex key (~id or ~label) when spec
// asks for nothing else. Such queries never touch storage.
func ImplicitKey(spec Spec, category graph.Category, s schema.Inspector) (*schema.RelationType, bool) {
	if category == graph.CategoryEdge || len(spec.Types) != 1 || len(spec.Constraints) > 0 || spec.Adjacent != nil {
		return nil, false
	}
	t, ok := s.RelationType(spec.Types[0])
	if !ok {
		return nil, false
	}
	switch t.Implicit {
	case schema.VertexID, schema.VertexLabel:
		return t, true
	default:
		return nil, false
	}
}
