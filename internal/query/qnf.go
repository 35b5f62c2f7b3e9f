package query

import (
	"github.com/roach88/vcq/internal/condition"
	"github.com/roach88/vcq/internal/graph"
	"github.com/roach88/vcq/internal/ir"
	"github.com/roach88/vcq/internal/schema"
)

// normalize resolves the constraints of spec into query normal form: an
// And whose children are predicates or Ors of equalities. Contain
// predicates are rewritten; constraints on undefined keys that every
// relation satisfies are dropped. empty is true when no relation can
// match.
func normalize(constraints []Constraint, s schema.Inspector, ignoreUndefined bool) (and condition.And, empty bool, err error) {
	for _, c := range constraints {
		t, ok := s.RelationType(c.Key)
		if !ok {
			if !ignoreUndefined {
				return and, false, &Error{Code: ErrCodeInvalidArgument, Message: "undefined type used in query", Type: c.Key}
			}
			if (c.Predicate == graph.Equal && ir.IsNull(c.Value)) ||
				(c.Predicate == graph.NotEqual && !ir.IsNull(c.Value)) {
				continue
			}
			return and, true, nil
		}
		if err := checkConstraintKey(t, c); err != nil {
			return and, false, err
		}

		switch c.Predicate {
		case graph.Without:
			for _, v := range c.Value.(ir.IRArray) {
				if and, err = addConstraint(and, t, graph.NotEqual, v); err != nil {
					return and, false, err
				}
			}
		case graph.Within:
			values := c.Value.(ir.IRArray)
			switch len(values) {
			case 0:
				return and, true, nil
			case 1:
				if and, err = addConstraint(and, t, graph.Equal, values[0]); err != nil {
					return and, false, err
				}
			default:
				var or condition.And
				for _, v := range values {
					if or, err = addConstraint(or, t, graph.Equal, v); err != nil {
						return and, false, err
					}
				}
				and = and.With(condition.Or{Children: or.Children})
			}
		default:
			if and, err = addConstraint(and, t, c.Predicate, c.Value); err != nil {
				return and, false, err
			}
		}
	}
	return and, false, nil
}

func checkConstraintKey(t *schema.RelationType, c Constraint) error {
	switch {
	case t.IsEdgeLabel():
		return &Error{Code: ErrCodeInvalidArgument, Message: "constraints on edge labels are not supported", Type: t.Name}
	case t.IsIndex():
		return &Error{Code: ErrCodeInvalidArgument, Message: "relation indexes cannot be constrained", Type: t.Name}
	case t.IsImplicit() && t.Implicit != schema.RelationID:
		return &Error{Code: ErrCodeInvalidArgument, Message: "implicit keys cannot be combined with other constraints", Type: t.Name}
	case c.Predicate.IsRange() && !t.IsComparable():
		return &Error{Code: ErrCodeInvalidArgument, Message: "range predicate on a key that is not comparable", Type: t.Name}
	}
	return nil
}

// addConstraint appends a verified predicate to and unless an identical
// one is already there.
func addConstraint(and condition.And, t *schema.RelationType, op graph.Predicate, v ir.IRValue) (condition.And, error) {
	if !ir.IsNull(v) {
		if !t.DataType.Accepts(v) {
			return and, &Error{
				Code:    ErrCodeInvalidArgument,
				Message: "data type of key is not compatible with condition value " + ir.Format(v),
				Type:    t.Name,
			}
		}
		v = ir.NormalizeValue(v)
	} else {
		v = nil
	}
	pc := condition.Predicate{Key: t, Op: op, Value: v}
	for _, existing := range and.Children {
		if p, ok := existing.(condition.Predicate); ok && p.Key == t && p.Op == op && samePredicateValue(p.Value, v) {
			return and, nil
		}
	}
	return and.With(pc), nil
}

func samePredicateValue(a, b ir.IRValue) bool {
	if ir.IsNull(a) || ir.IsNull(b) {
		return ir.IsNull(a) && ir.IsNull(b)
	}
	return ir.KindOf(a) == ir.KindOf(b) && ir.Equal(a, b)
}
