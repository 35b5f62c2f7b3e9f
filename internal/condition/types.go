package condition

import (
	"github.com/roach88/vcq/internal/graph"
	"github.com/roach88/vcq/internal/ir"
	"github.com/roach88/vcq/internal/schema"
)

// Condition is a boolean filter over relations.
//
// This is a sealed interface - only types in this package implement it.
// The marker method pattern prevents external implementations and enables
// exhaustive type switches in Evaluate and Format.
//
// Condition types:
//   - And, Or, Not: boolean combinators
//   - Predicate: key <op> value
//   - Direction: relation is incident on a vertex in a direction
//   - Incidence: edge connects a vertex to a given other vertex
//   - RelationType: relation is of a given type
//   - Visibility: relation is a system or a normal relation
//   - Category: relation is an edge or a property
//   - Fixed: constant true or false
//
// Conditions are immutable once attached to a query; combinators return
// new values instead of mutating their receivers.
type Condition interface {
	conditionNode() // Marker method - seals interface to this package
}

// And holds when every child holds. An And without children is true.
type And struct {
	Children []Condition
}

func (And) conditionNode() {}

// With returns a copy of a with c appended.
func (a And) With(c ...Condition) And {
	children := make([]Condition, 0, len(a.Children)+len(c))
	children = append(children, a.Children...)
	return And{Children: append(children, c...)}
}

// Size returns the number of children.
func (a And) Size() int { return len(a.Children) }

// HasChildren reports whether a has at least one child.
func (a And) HasChildren() bool { return len(a.Children) > 0 }

// Or holds when at least one child holds. An Or without children is false.
type Or struct {
	Children []Condition
}

func (Or) conditionNode() {}

// Not inverts its child.
type Not struct {
	Child Condition
}

func (Not) conditionNode() {}

// Predicate compares the value a relation holds for Key with Value.
type Predicate struct {
	Key   *schema.RelationType
	Op    graph.Predicate
	Value ir.IRValue
}

func (Predicate) conditionNode() {}

// Direction holds for relations incident on Vertex in Dir.
type Direction struct {
	Vertex int64
	Dir    graph.Direction
}

func (Direction) conditionNode() {}

// Incidence holds for edges of Vertex whose opposite endpoint is Other.
// An Other without an id matches nothing stored.
type Incidence struct {
	Vertex int64
	Other  graph.Vertex
}

func (Incidence) conditionNode() {}

// RelationType holds for relations of Type.
type RelationType struct {
	Type *schema.RelationType
}

func (RelationType) conditionNode() {}

// Visibility selects system relations (System true) or normal relations.
type Visibility struct {
	System bool
}

func (Visibility) conditionNode() {}

// Category holds for relations whose category is included in Category.
type Category struct {
	Category graph.Category
}

func (Category) conditionNode() {}

// Fixed is a constant.
type Fixed struct {
	Value bool
}

func (Fixed) conditionNode() {}
