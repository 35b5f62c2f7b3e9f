package condition

import (
	"fmt"

	"github.com/roach88/vcq/internal/graph"
	"github.com/roach88/vcq/internal/ir"
	"github.com/roach88/vcq/internal/schema"
)

// Evaluate reports whether r satisfies c.
func Evaluate(c Condition, r *graph.Relation) bool {
	switch cond := c.(type) {
	case And:
		for _, child := range cond.Children {
			if !Evaluate(child, r) {
				return false
			}
		}
		return true
	case Or:
		for _, child := range cond.Children {
			if Evaluate(child, r) {
				return true
			}
		}
		return false
	case Not:
		return !Evaluate(cond.Child, r)
	case Predicate:
		return cond.Op.Evaluate(predicateValue(cond.Key, r), cond.Value)
	case Direction:
		return r.IsIncidentOn(cond.Vertex, cond.Dir)
	case Incidence:
		if !r.IsEdge() || cond.Other == nil || !cond.Other.HasID() {
			return false
		}
		if !r.IsIncidentOn(cond.Vertex, graph.Both) {
			return false
		}
		return r.OtherVertex(cond.Vertex) == cond.Other.ID()
	case RelationType:
		return r.TypeID == cond.Type.Base().ID
	case Visibility:
		return r.System == cond.System
	case Category:
		return cond.Category.Includes(r.Category)
	case Fixed:
		return cond.Value
	default:
		panic(fmt.Sprintf("condition: unknown condition type %T", c))
	}
}

// predicateValue returns the value r holds for key, nil when absent.
func predicateValue(key *schema.RelationType, r *graph.Relation) ir.IRValue {
	switch key.Implicit {
	case schema.RelationID:
		return ir.IRInt(r.ID)
	case schema.NotImplicit:
		return r.ValueOf(key.ID)
	default:
		return nil
	}
}
