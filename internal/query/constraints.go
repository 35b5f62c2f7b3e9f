package query

import (
	"github.com/roach88/vcq/internal/condition"
	"github.com/roach88/vcq/internal/graph"
	"github.com/roach88/vcq/internal/interval"
	"github.com/roach88/vcq/internal/ir"
	"github.com/roach88/vcq/internal/schema"
)

// intervalMap maps each constrained key to its admissible values.
type intervalMap map[*schema.RelationType]interval.Interval

// compileConstraints folds the children of a normalized And into
// intervals. fitted is true when every child is represented exactly, so
// that no in-memory filtering is needed for slices covering all intervals.
func compileConstraints(and condition.And, adjacent graph.Vertex) (intervalMap, bool) {
	intervals := make(intervalMap, and.Size()+1)
	fitted := true
	for _, child := range and.Children {
		var key *schema.RelationType
		var iv interval.Interval
		ok := false

		switch c := child.(type) {
		case condition.Or:
			key, iv, ok = extractOrCondition(c)
		case condition.Predicate:
			key = c.Key
			existing, has := intervals[key]
			iv, ok = intersectConstraint(existing, has, c.Op, c.Value)
		}
		if ok {
			intervals[key] = iv
		} else {
			fitted = false
		}
	}
	if adjacent != nil {
		if adjacent.HasID() {
			intervals[schema.AdjacentIDKey] = interval.Point(ir.IRInt(adjacent.ID()))
		} else {
			fitted = false
		}
	}
	return intervals, fitted
}

// extractOrCondition turns an Or of non-null equalities on one key into a
// point set.
func extractOrCondition(or condition.Or) (*schema.RelationType, interval.Interval, bool) {
	var key *schema.RelationType
	values := make([]ir.IRValue, 0, len(or.Children))
	for _, child := range or.Children {
		p, ok := child.(condition.Predicate)
		if !ok || p.Op != graph.Equal || ir.IsNull(p.Value) {
			return nil, interval.Interval{}, false
		}
		if key == nil {
			key = p.Key
		} else if key != p.Key {
			return nil, interval.Interval{}, false
		}
		values = append(values, p.Value)
	}
	if key == nil {
		return nil, interval.Interval{}, false
	}
	return key, interval.Points(values...), true
}

// intersectConstraint narrows existing (when has) by op v. It returns
// false for predicates no interval can express.
func intersectConstraint(existing interval.Interval, has bool, op graph.Predicate, v ir.IRValue) (interval.Interval, bool) {
	var next interval.Interval
	switch op {
	case graph.Equal:
		if ir.IsNull(v) {
			return interval.Interval{}, false
		}
		next = interval.Point(v)
	case graph.LessThan:
		next = interval.Range(nil, false, v, false)
	case graph.LessEqual:
		next = interval.Range(nil, false, v, true)
	case graph.GreaterThan:
		next = interval.Range(v, false, nil, false)
	case graph.GreaterEqual:
		next = interval.Range(v, true, nil, false)
	default:
		return interval.Interval{}, false
	}
	if has {
		return existing.Intersect(next), true
	}
	return next, true
}
