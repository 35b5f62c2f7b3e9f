package query

import (
	"github.com/roach88/vcq/internal/condition"
	"github.com/roach88/vcq/internal/graph"
	"github.com/roach88/vcq/internal/profile"
	"github.com/roach88/vcq/internal/schema"
	"github.com/roach88/vcq/internal/store"
)

// Subquery is one physical slice of a compiled query.
type Subquery struct {
	Slice store.SliceQuery

	// Fitted is true when the slice bounds alone enforce every constraint.
	Fitted bool
	// Sorted is true when the slice's column order is the requested order.
	Sorted bool

	// Type is the relation type or index the slice reads; nil for a
	// whole-category scan.
	Type *schema.RelationType
	// Dir is the direction of the slice's columns (BOTH for a scan over
	// both directions of a type or a whole category).
	Dir graph.Direction
	// Bounds renders the constraints encoded in the slice.
	Bounds string

	Profiler profile.Profiler
}

// Target names what the subquery scans.
func (s Subquery) Target() string {
	if s.Type == nil {
		return "*"
	}
	return s.Type.Name
}

// BaseQuery is a compiled, vertex-agnostic query. It is never mutated
// after Compile returns.
type BaseQuery struct {
	Condition  condition.Condition
	Direction  graph.Direction
	Subqueries []Subquery
	Orders     *OrderList
	Limit      int
	Adjacent   graph.Vertex

	// Types are the resolved relation types of the query, in request order.
	Types []*schema.RelationType

	profiler profile.Profiler
}

// Empty returns the query that matches nothing.
func Empty() *BaseQuery {
	orders := &OrderList{}
	orders.Lock()
	return &BaseQuery{
		Condition: condition.Fixed{Value: false},
		Direction: graph.Both,
		Orders:    orders,
		profiler:  profile.NoOp,
	}
}

// IsEmpty reports whether the query matches nothing.
func (q *BaseQuery) IsEmpty() bool { return q.Limit <= 0 }

// IsSimple reports whether the query is one fitted and sorted slice.
func (q *BaseQuery) IsSimple() bool {
	return len(q.Subqueries) == 1 && q.Subqueries[0].Fitted && q.Subqueries[0].Sorted
}

// HasLimit reports whether the query caps its results.
func (q *BaseQuery) HasLimit() bool { return q.Limit != NoLimit }

// Profiler returns the profiler the query reports to.
func (q *BaseQuery) Profiler() profile.Profiler {
	if q.profiler == nil {
		return profile.NoOp
	}
	return q.profiler
}

func (q *BaseQuery) observeWith(p profile.Profiler) {
	q.profiler = p
	p.SetAnnotation(profile.ConditionAnnotation, condition.Format(q.Condition))
	p.SetAnnotation(profile.OrdersAnnotation, q.Orders.String())
	if q.HasLimit() {
		p.SetAnnotation(profile.LimitAnnotation, q.Limit)
	}
	for i := range q.Subqueries {
		sub := p.AddNested(profile.GroupSubquery)
		sub.SetAnnotation(profile.FittedAnnotation, q.Subqueries[i].Fitted)
		sub.SetAnnotation(profile.OrderedAnnotation, q.Subqueries[i].Sorted)
		sub.SetAnnotation(profile.QueryAnnotation, q.Subqueries[i].Target()+" "+q.Subqueries[i].Dir.String()+" "+q.Subqueries[i].Bounds)
		q.Subqueries[i].Profiler = sub
	}
}

// AllCanonical reports whether querying the canonical representative of
// a partitioned vertex answers the query: every type is a property key or
// unique in the query's direction.
func (q *BaseQuery) AllCanonical() bool {
	if len(q.Types) == 0 {
		return false
	}
	for _, t := range q.Types {
		if !t.IsPropertyKey() && !t.Multiplicity.IsUnique(q.Direction) {
			return false
		}
	}
	return true
}

// VertexQuery is a base query bound to one vertex. Its condition adds the
// direction and adjacency of relations relative to that vertex.
type VertexQuery struct {
	*BaseQuery
	Vertex    int64
	Condition condition.Condition
}

// ForVertex binds q to vertex.
func (q *BaseQuery) ForVertex(vertex int64) *VertexQuery {
	cond := q.Condition
	if !q.IsEmpty() {
		var and condition.And
		if a, ok := cond.(condition.And); ok {
			and = a.With()
		} else {
			and = condition.And{Children: []condition.Condition{cond}}
		}
		and = and.With(condition.Direction{Vertex: vertex, Dir: q.Direction})
		if q.Adjacent != nil {
			and = and.With(condition.Incidence{Vertex: vertex, Other: q.Adjacent})
		}
		cond = and
	}
	return &VertexQuery{BaseQuery: q, Vertex: vertex, Condition: cond}
}

// Matches reports whether r satisfies the vertex query's condition.
func (q *VertexQuery) Matches(r *graph.Relation) bool {
	return condition.Evaluate(q.Condition, r)
}

// Compare orders relations by the query's order list.
func (q *VertexQuery) Compare(a, b *graph.Relation) int {
	return q.Orders.Compare(a, b)
}
