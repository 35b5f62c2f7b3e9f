package query

import (
	"fmt"

	"github.com/roach88/vcq/internal/graph"
	"github.com/roach88/vcq/internal/ir"
	"github.com/roach88/vcq/internal/profile"
)

// Constraint is one has-condition as the caller wrote it: the key is a
// name, not yet resolved against the schema.
type Constraint struct {
	Key       string
	Predicate graph.Predicate
	Value     ir.IRValue
}

func (c Constraint) String() string {
	return fmt.Sprintf("%s %s %s", c.Key, c.Predicate, ir.Format(c.Value))
}

// Spec is the immutable result of a Builder.
type Spec struct {
	// Types restricts results to these relation types. Empty means all.
	Types       []string
	Direction   graph.Direction
	Constraints []Constraint
	Orders      *OrderList
	Limit       int
	// Adjacent restricts edges to those whose other endpoint is Adjacent.
	Adjacent graph.Vertex

	// System queries system relations instead of normal ones.
	System bool
	// QueryOnlyLoaded accepts the simple path on vertices that are new or
	// modified, ignoring transaction changes. Only simple queries accept it.
	QueryOnlyLoaded bool
	// QueryOnlyGivenVertex disables partitioned fan-out.
	QueryOnlyGivenVertex bool
	// NoPartitionRestriction lifts the local-partition restriction on the
	// representatives of a partitioned vertex.
	NoPartitionRestriction bool

	Profiler profile.Profiler
}

// HasTypes reports whether the spec names any relation type.
func (s Spec) HasTypes() bool { return len(s.Types) > 0 }

func (s Spec) profiler() profile.Profiler {
	if s.Profiler == nil {
		return profile.NoOp
	}
	return s.Profiler
}
