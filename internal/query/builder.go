package query

import (
	"slices"
	"strings"

	"github.com/roach88/vcq/internal/graph"
	"github.com/roach88/vcq/internal/ir"
	"github.com/roach88/vcq/internal/profile"
	"github.com/roach88/vcq/internal/schema"
)

// Builder accumulates the constraints of a vertex-centric query.
//
// Builder methods chain. The first invalid call records an error that
// every later call keeps and Build returns; nothing panics.
//
//	spec, err := query.NewBuilder(reg).
//		Labels("knows").
//		Direction(graph.Out).
//		Has("weight", 5).
//		Limit(10).
//		Build()
type Builder struct {
	schema schema.Inspector
	spec   Spec
	err    error
}

// NewBuilder returns a builder resolving order keys through s.
func NewBuilder(s schema.Inspector) *Builder {
	return &Builder{
		schema: s,
		spec: Spec{
			Direction: graph.Both,
			Limit:     NoLimit,
			Orders:    &OrderList{},
		},
	}
}

// Err returns the first recorded error.
func (b *Builder) Err() error { return b.err }

func (b *Builder) fail(err error) *Builder {
	if b.err == nil {
		b.err = err
	}
	return b
}

// Has requires key to equal value.
func (b *Builder) Has(key string, value any) *Builder {
	return b.HasPredicate(key, graph.Equal, value)
}

// HasNot requires key to differ from value.
func (b *Builder) HasNot(key string, value any) *Builder {
	return b.HasPredicate(key, graph.NotEqual, value)
}

// HasKey requires key to be present.
func (b *Builder) HasKey(key string) *Builder {
	return b.HasPredicate(key, graph.NotEqual, nil)
}

// HasNoKey requires key to be absent.
func (b *Builder) HasNoKey(key string) *Builder {
	return b.HasPredicate(key, graph.Equal, nil)
}

// HasPredicate requires key <pred> value. A ~adjacent equality becomes an
// adjacency constraint.
func (b *Builder) HasPredicate(key string, pred graph.Predicate, value any) *Builder {
	if b.err != nil {
		return b
	}
	if strings.TrimSpace(key) == "" {
		return b.fail(invalidf("constraint key must not be blank"))
	}
	v, err := ir.FromNative(value)
	if err != nil {
		return b.fail(invalidf("constraint on %s: %v", key, err))
	}
	if key == schema.AdjacentKey {
		id, ok := v.(ir.IRInt)
		if pred != graph.Equal || !ok || id <= 0 {
			return b.fail(invalidf("%s only supports equality with a vertex id", schema.AdjacentKey))
		}
		return b.Adjacent(graph.VertexRef(id))
	}
	if !pred.IsValidCondition(v) {
		return b.fail(invalidf("invalid condition %s %s %s", key, pred, ir.Format(v)))
	}
	b.spec.Constraints = append(b.spec.Constraints, Constraint{Key: key, Predicate: pred, Value: v})
	return b
}

// Interval requires start <= key < end.
func (b *Builder) Interval(key string, start, end any) *Builder {
	return b.HasPredicate(key, graph.GreaterEqual, start).
		HasPredicate(key, graph.LessThan, end)
}

// Types restricts the query to the named relation types.
func (b *Builder) Types(names ...string) *Builder {
	if b.err != nil {
		return b
	}
	for _, n := range names {
		if strings.TrimSpace(n) == "" {
			return b.fail(invalidf("type name must not be blank"))
		}
	}
	b.spec.Types = append(b.spec.Types, names...)
	return b
}

// Labels restricts the query to the named edge labels.
func (b *Builder) Labels(names ...string) *Builder { return b.Types(names...) }

// Keys restricts the query to the named property keys.
func (b *Builder) Keys(names ...string) *Builder { return b.Types(names...) }

// Direction sets the direction relations have from the queried vertex.
func (b *Builder) Direction(d graph.Direction) *Builder {
	if b.err != nil {
		return b
	}
	if d != graph.Out && d != graph.In && d != graph.Both {
		return b.fail(invalidf("unknown direction %s", d))
	}
	b.spec.Direction = d
	return b
}

// Limit caps the number of results. Zero yields an empty result.
func (b *Builder) Limit(n int) *Builder {
	if b.err != nil {
		return b
	}
	if n < 0 {
		return b.fail(invalidf("limit must not be negative: %d", n))
	}
	b.spec.Limit = min(n, NoLimit)
	return b
}

// OrderBy sorts results by key. Only one order is supported.
func (b *Builder) OrderBy(key string, order graph.Order) *Builder {
	if b.err != nil {
		return b
	}
	t, ok := b.schema.RelationType(key)
	switch {
	case !ok:
		return b.fail(invalidf("cannot order by undefined key %q", key))
	case !t.IsPropertyKey() || t.IsIndex():
		return b.fail(invalidf("cannot order by %q: not a property key", key))
	case !t.IsComparable():
		return b.fail(invalidf("cannot order by %q: data type %s is not comparable", key, t.DataType))
	case t.System:
		return b.fail(invalidf("cannot order by system key %q", key))
	case !b.spec.Orders.IsEmpty():
		return b.fail(invalidf("only one order can be specified"))
	}
	if err := b.spec.Orders.Add(t, order); err != nil {
		return b.fail(invalidf("%v", err))
	}
	return b
}

// Adjacent restricts edges to those incident on v.
func (b *Builder) Adjacent(v graph.Vertex) *Builder {
	if b.err != nil {
		return b
	}
	if v == nil {
		return b.fail(invalidf("adjacent vertex must not be nil"))
	}
	b.spec.Adjacent = v
	return b
}

// System queries system relations.
func (b *Builder) System() *Builder {
	b.spec.System = true
	return b
}

// QueryOnlyLoaded answers from storage alone, ignoring the transaction.
// Compile rejects it unless the query is simple.
func (b *Builder) QueryOnlyLoaded() *Builder {
	b.spec.QueryOnlyLoaded = true
	return b
}

// QueryOnlyGivenVertex queries a partitioned vertex's given representative only.
func (b *Builder) QueryOnlyGivenVertex() *Builder {
	b.spec.QueryOnlyGivenVertex = true
	return b
}

// NoPartitionRestriction fans out to every representative.
func (b *Builder) NoPartitionRestriction() *Builder {
	b.spec.NoPartitionRestriction = true
	return b
}

// Profiler attaches p to the compiled query.
func (b *Builder) Profiler(p profile.Profiler) *Builder {
	if p == nil {
		p = profile.NoOp
	}
	b.spec.Profiler = p
	return b
}

// Build returns the accumulated spec or the first error.
func (b *Builder) Build() (Spec, error) {
	if b.err != nil {
		return Spec{}, b.err
	}
	s := b.spec
	s.Types = slices.Clone(s.Types)
	s.Constraints = slices.Clone(s.Constraints)
	s.Orders = s.Orders.Clone()
	return s, nil
}
