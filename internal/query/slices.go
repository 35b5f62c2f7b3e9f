package query

import (
	"strings"

	"github.com/roach88/vcq/internal/condition"
	"github.com/roach88/vcq/internal/graph"
	"github.com/roach88/vcq/internal/interval"
	"github.com/roach88/vcq/internal/schema"
)

// constructSlices emits one subquery per combination of points over the
// point-constrained prefix of key, each ending at the first range or
// unconstrained component.
func (c *compiler) constructSlices(key []*schema.RelationType, constraints []*interval.Interval, position int,
	best *schema.RelationType, d graph.Direction, intervals intervalMap, fittedIntervals, sorted bool) error {

	if position < len(key) {
		k := key[position]
		if iv, ok := intervals[k]; ok {
			if iv.IsPoints() {
				for _, point := range iv.PointValues() {
					cloned := append([]*interval.Interval(nil), constraints...)
					pi := interval.Point(point)
					cloned[position] = &pi
					if err := c.constructSlices(key, cloned, position+1, best, d, intervals, fittedIntervals, sorted); err != nil {
						return err
					}
				}
				return nil
			}
			constraints[position] = &iv
			position++
		}
	}

	fitted := fittedIntervals && position == len(intervals)
	if fitted && position > 0 {
		// Absent values sort last, so a range open at the top also
		// reaches relations without a value.
		last := constraints[position-1]
		if end, _ := last.End(); !last.IsPoints() && end == nil {
			fitted = false
		}
	}

	slice, err := c.env.Codec.TypeSlice(best, d, constraints)
	if err != nil {
		return err
	}
	c.subqueries = append(c.subqueries, Subquery{
		Slice:  slice.WithLimit(c.computeLimit(len(intervals)-position, c.sliceLimit)),
		Fitted: fitted,
		Sorted: sorted,
		Type:   best,
		Dir:    d,
		Bounds: renderBounds(key, constraints[:position]),
	})
	return nil
}

func renderBounds(key []*schema.RelationType, constraints []*interval.Interval) string {
	parts := make([]string, 0, len(constraints))
	for i, iv := range constraints {
		if iv == nil {
			break
		}
		parts = append(parts, key[i].Name+"="+iv.String())
	}
	return "{" + strings.Join(parts, " ") + "}"
}

func typeCondition(types []*schema.RelationType) condition.Condition {
	if len(types) == 1 {
		return condition.RelationType{Type: types[0]}
	}
	or := condition.Or{Children: make([]condition.Condition, len(types))}
	for i, t := range types {
		or.Children[i] = condition.RelationType{Type: t}
	}
	return or
}
