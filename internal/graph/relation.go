package graph

import (
	"fmt"

	"github.com/roach88/vcq/internal/ir"
)

// Lifecycle tracks where a relation came from within a transaction.
type Lifecycle int

const (
	Loaded Lifecycle = iota
	New
	Removed
)

// Relation is an edge or a property, as read from storage or added in a
// transaction. Properties carry Value; edges carry In. Both may carry
// Properties keyed by property-key id (edge properties or meta-properties).
type Relation struct {
	ID         int64
	TypeID     int64
	TypeName   string
	Category   Category
	System     bool
	Out        int64
	In         int64
	Value      ir.IRValue
	Properties map[int64]ir.IRValue
	Lifecycle  Lifecycle
}

// IsEdge reports whether r is an edge.
func (r *Relation) IsEdge() bool {
	return r.Category == CategoryEdge
}

// IsProperty reports whether r is a property.
func (r *Relation) IsProperty() bool {
	return r.Category == CategoryProperty
}

// Direction returns the direction r has relative to vertex, and false when
// vertex is not an endpoint. Self loops report Out.
func (r *Relation) Direction(vertex int64) (Direction, bool) {
	switch {
	case r.Out == vertex:
		return Out, true
	case r.IsEdge() && r.In == vertex:
		return In, true
	default:
		return 0, false
	}
}

// IsIncidentOn reports whether vertex is an endpoint of r in direction d.
func (r *Relation) IsIncidentOn(vertex int64, d Direction) bool {
	switch d {
	case Out:
		return r.Out == vertex
	case In:
		return r.IsEdge() && r.In == vertex
	default:
		return r.Out == vertex || (r.IsEdge() && r.In == vertex)
	}
}

// OtherVertex returns the endpoint of an edge opposite to vertex.
func (r *Relation) OtherVertex(vertex int64) int64 {
	if r.Out == vertex {
		return r.In
	}
	return r.Out
}

// ValueOf returns the value r holds for property key keyID: its own value
// when r is a property of that key, otherwise the nested property, or nil.
func (r *Relation) ValueOf(keyID int64) ir.IRValue {
	if r.IsProperty() && r.TypeID == keyID {
		return r.Value
	}
	if v, ok := r.Properties[keyID]; ok {
		return v
	}
	return nil
}

func (r *Relation) String() string {
	if r.IsEdge() {
		return fmt.Sprintf("e[%d][%d-%s->%d]", r.ID, r.Out, r.TypeName, r.In)
	}
	return fmt.Sprintf("p[%d][%d.%s=%s]", r.ID, r.Out, r.TypeName, ir.Format(r.Value))
}
