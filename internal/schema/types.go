package schema

import (
	"fmt"

	"github.com/roach88/vcq/internal/graph"
	"github.com/roach88/vcq/internal/ir"
)

// TypeKind distinguishes property keys from edge labels.
type TypeKind int

const (
	PropertyKey TypeKind = iota
	EdgeLabel
)

func (k TypeKind) String() string {
	if k == EdgeLabel {
		return "edge-label"
	}
	return "property-key"
}

// Status is the lifecycle state of a relation index. Only enabled indexes
// are used to answer queries; a type is always usable for itself.
type Status int

const (
	Enabled Status = iota
	Registered
	Installed
	Disabled
)

var statusNames = map[Status]string{
	Enabled:    "enabled",
	Registered: "registered",
	Installed:  "installed",
	Disabled:   "disabled",
}

func (s Status) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// ParseStatus maps a status name to a Status.
func ParseStatus(s string) (Status, error) {
	if s == "" {
		return Enabled, nil
	}
	for st, n := range statusNames {
		if n == s {
			return st, nil
		}
	}
	return 0, fmt.Errorf("unknown index status %q", s)
}

// Implicit identifies keys whose values are not stored as relations.
type Implicit int

const (
	NotImplicit Implicit = iota
	// AdjacentID is the id of the vertex on the other side of an edge.
	AdjacentID
	// RelationID is the id of the relation itself.
	RelationID
	// VertexID is the id of the queried vertex.
	VertexID
	// VertexLabel is the label of the queried vertex.
	VertexLabel
)

// RelationType describes a property key, an edge label, or a relation index
// over one of those. A relation index is itself a RelationType with its own
// id, sort key and storage direction; Base() points back to the indexed type.
type RelationType struct {
	ID           int64
	Name         string
	Kind         TypeKind
	DataType     ir.Kind
	Multiplicity graph.Multiplicity

	// SortKey lists the property keys whose values order relations of this
	// type within a vertex, most significant first.
	SortKey   []*RelationType
	SortOrder graph.Order

	// Storage is BOTH for relations stored at both endpoints, or the single
	// direction a unidirected label (or any property) is stored in.
	Storage graph.Direction

	Status   Status
	System   bool
	Implicit Implicit

	base    *RelationType
	indexes []*RelationType
}

// IsPropertyKey reports whether t is a property key.
func (t *RelationType) IsPropertyKey() bool { return t.Kind == PropertyKey }

// IsEdgeLabel reports whether t is an edge label.
func (t *RelationType) IsEdgeLabel() bool { return t.Kind == EdgeLabel }

// IsImplicit reports whether t is an implicit key.
func (t *RelationType) IsImplicit() bool { return t.Implicit != NotImplicit }

// IsIndex reports whether t is a relation index of another type.
func (t *RelationType) IsIndex() bool { return t.base != nil }

// Base returns the indexed type for a relation index, or t itself.
func (t *RelationType) Base() *RelationType {
	if t.base != nil {
		return t.base
	}
	return t
}

// IsStoredIn reports whether relations of t are written for direction d.
func (t *RelationType) IsStoredIn(d graph.Direction) bool {
	return t.Storage == graph.Both || t.Storage == d
}

// IsUnidirected reports whether t is stored in a single direction only.
func (t *RelationType) IsUnidirected() bool {
	return t.Storage != graph.Both
}

// RelationIndexes returns the candidates that can answer a query on t:
// t itself first, then its relation indexes in definition order.
func (t *RelationType) RelationIndexes() []*RelationType {
	out := make([]*RelationType, 0, 1+len(t.indexes))
	out = append(out, t)
	return append(out, t.indexes...)
}

// IsComparable reports whether values of key t can be range-compared.
func (t *RelationType) IsComparable() bool {
	return t.IsPropertyKey() && t.DataType.Comparable()
}

// Category returns the relation category t produces.
func (t *RelationType) Category() graph.Category {
	if t.IsEdgeLabel() {
		return graph.CategoryEdge
	}
	return graph.CategoryProperty
}

// Compute returns the value of an implicit vertex key.
func (t *RelationType) Compute(vertexID int64, label string) (ir.IRValue, bool) {
	switch t.Implicit {
	case VertexID:
		return ir.IRInt(vertexID), true
	case VertexLabel:
		return ir.IRString(label), true
	default:
		return nil, false
	}
}

func (t *RelationType) String() string {
	return t.Name
}

// Inspector resolves relation types by name or id.
type Inspector interface {
	RelationType(name string) (*RelationType, bool)
	TypeByID(id int64) (*RelationType, bool)
}
