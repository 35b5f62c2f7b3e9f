// Package interval implements the value sets a single property constraint
// compiles to: a finite set of points, or a contiguous range whose bounds may
// be open, closed or absent.
package interval

import (
	"slices"
	"strings"

	"github.com/roach88/vcq/internal/ir"
)

// Interval is an immutable set of values of one property key.
type Interval struct {
	points   []ir.IRValue
	isPoints bool

	start, end         ir.IRValue // nil when unbounded
	startIncl, endIncl bool
}

// Points returns the interval holding exactly vals. Duplicates are dropped
// and the points are kept in ascending order.
func Points(vals ...ir.IRValue) Interval {
	ps := make([]ir.IRValue, 0, len(vals))
	for _, v := range vals {
		ps = append(ps, ir.NormalizeValue(v))
	}
	slices.SortFunc(ps, ir.Compare)
	ps = slices.CompactFunc(ps, ir.Equal)
	return Interval{points: ps, isPoints: true}
}

// Point returns the single-point interval {v}.
func Point(v ir.IRValue) Interval {
	return Points(v)
}

// Range returns the interval between start and end. A nil bound is
// unbounded and its inclusivity flag is ignored.
func Range(start ir.IRValue, startIncl bool, end ir.IRValue, endIncl bool) Interval {
	i := Interval{start: start, end: end, startIncl: startIncl, endIncl: endIncl}
	if start == nil {
		i.startIncl = false
	} else {
		i.start = ir.NormalizeValue(start)
	}
	if end == nil {
		i.endIncl = false
	} else {
		i.end = ir.NormalizeValue(end)
	}
	return i
}

// Unbounded returns the range containing every value.
func Unbounded() Interval {
	return Interval{}
}

// IsPoints reports whether the interval is a finite point set. A closed
// range whose bounds are equal counts as a single point.
func (i Interval) IsPoints() bool {
	if i.isPoints {
		return true
	}
	return i.start != nil && i.end != nil && i.startIncl && i.endIncl && ir.Compare(i.start, i.end) == 0
}

// PointValues returns the points of a point interval in ascending order.
func (i Interval) PointValues() []ir.IRValue {
	if i.isPoints {
		return slices.Clone(i.points)
	}
	if i.IsPoints() {
		return []ir.IRValue{i.start}
	}
	return nil
}

// Start returns the lower bound (nil when unbounded) and whether it is inclusive.
func (i Interval) Start() (ir.IRValue, bool) {
	if i.isPoints {
		if len(i.points) == 0 {
			return nil, false
		}
		return i.points[0], true
	}
	return i.start, i.startIncl
}

// End returns the upper bound (nil when unbounded) and whether it is inclusive.
func (i Interval) End() (ir.IRValue, bool) {
	if i.isPoints {
		if len(i.points) == 0 {
			return nil, false
		}
		return i.points[len(i.points)-1], true
	}
	return i.end, i.endIncl
}

// IsEmpty reports whether no value satisfies the interval.
func (i Interval) IsEmpty() bool {
	if i.isPoints {
		return len(i.points) == 0
	}
	if i.start == nil || i.end == nil {
		return false
	}
	c := ir.Compare(i.start, i.end)
	return c > 0 || (c == 0 && !(i.startIncl && i.endIncl))
}

// Contains reports whether v lies in the interval.
func (i Interval) Contains(v ir.IRValue) bool {
	if ir.IsNull(v) {
		return false
	}
	if i.isPoints {
		return slices.ContainsFunc(i.points, func(p ir.IRValue) bool { return ir.Equal(p, v) })
	}
	if i.start != nil {
		c := ir.Compare(v, i.start)
		if c < 0 || (c == 0 && !i.startIncl) {
			return false
		}
	}
	if i.end != nil {
		c := ir.Compare(v, i.end)
		if c > 0 || (c == 0 && !i.endIncl) {
			return false
		}
	}
	return true
}

// Intersect returns the values in both i and o.
func (i Interval) Intersect(o Interval) Interval {
	if i.isPoints {
		return i.filter(o)
	}
	if o.isPoints {
		return o.filter(i)
	}

	r := i
	if o.start != nil {
		if r.start == nil {
			r.start, r.startIncl = o.start, o.startIncl
		} else if c := ir.Compare(o.start, r.start); c > 0 {
			r.start, r.startIncl = o.start, o.startIncl
		} else if c == 0 {
			r.startIncl = r.startIncl && o.startIncl
		}
	}
	if o.end != nil {
		if r.end == nil {
			r.end, r.endIncl = o.end, o.endIncl
		} else if c := ir.Compare(o.end, r.end); c < 0 {
			r.end, r.endIncl = o.end, o.endIncl
		} else if c == 0 {
			r.endIncl = r.endIncl && o.endIncl
		}
	}
	return r
}

// filter keeps the points of i that lie in o.
func (i Interval) filter(o Interval) Interval {
	kept := make([]ir.IRValue, 0, len(i.points))
	for _, p := range i.points {
		if o.Contains(p) {
			kept = append(kept, p)
		}
	}
	return Interval{points: kept, isPoints: true}
}

func (i Interval) String() string {
	if i.isPoints {
		parts := make([]string, len(i.points))
		for n, p := range i.points {
			parts[n] = ir.Format(p)
		}
		return "{" + strings.Join(parts, ",") + "}"
	}
	var b strings.Builder
	if i.startIncl {
		b.WriteByte('[')
	} else {
		b.WriteByte('(')
	}
	if i.start == nil {
		b.WriteString("-inf")
	} else {
		b.WriteString(ir.Format(i.start))
	}
	b.WriteByte(',')
	if i.end == nil {
		b.WriteString("+inf")
	} else {
		b.WriteString(ir.Format(i.end))
	}
	if i.endIncl {
		b.WriteByte(']')
	} else {
		b.WriteByte(')')
	}
	return b.String()
}
