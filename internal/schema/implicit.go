package schema

import (
	"github.com/roach88/vcq/internal/graph"
	"github.com/roach88/vcq/internal/ir"
)

// Names of built-in keys.
const (
	AdjacentKey    = "~adjacent"
	RelationIDKey  = "~relationid"
	VertexIDKey    = "~id"
	VertexLabelKey = "~label"
	ExistsKey      = "~exists"
)

// Ids below firstUserID are reserved for built-in types.
const firstUserID = 16

// Built-in implicit keys, shared by every registry.
var (
	AdjacentIDKey = &RelationType{
		ID: -1, Name: AdjacentKey, Kind: PropertyKey, DataType: ir.KindInt,
		Multiplicity: graph.Many2One, Storage: graph.Out, Implicit: AdjacentID, System: true,
	}
	RelationIDType = &RelationType{
		ID: -2, Name: RelationIDKey, Kind: PropertyKey, DataType: ir.KindInt,
		Multiplicity: graph.Many2One, Storage: graph.Out, Implicit: RelationID, System: true,
	}
	VertexIDType = &RelationType{
		ID: -3, Name: VertexIDKey, Kind: PropertyKey, DataType: ir.KindInt,
		Multiplicity: graph.Many2One, Storage: graph.Out, Implicit: VertexID, System: true,
	}
	VertexLabelType = &RelationType{
		ID: -4, Name: VertexLabelKey, Kind: PropertyKey, DataType: ir.KindString,
		Multiplicity: graph.Many2One, Storage: graph.Out, Implicit: VertexLabel, System: true,
	}
)

var implicitKeys = []*RelationType{AdjacentIDKey, RelationIDType, VertexIDType, VertexLabelType}

// ExtendedSortKey returns the full ordering of relations of t stored in
// direction d: the declared sort key, then the adjacent vertex id for edge
// labels that are not unique in d, then the relation id for unconstrained
// multiplicity.
func ExtendedSortKey(t *RelationType, d graph.Direction) []*RelationType {
	key := make([]*RelationType, 0, len(t.SortKey)+2)
	key = append(key, t.SortKey...)
	if !t.Multiplicity.IsUnique(d) {
		if t.IsEdgeLabel() {
			key = append(key, AdjacentIDKey)
		}
		if !t.Multiplicity.IsConstrained() {
			key = append(key, RelationIDType)
		}
	}
	return key
}
