package graph

import "fmt"

// Vertex is anything a query can start from or be adjacent to.
type Vertex interface {
	ID() int64
	HasID() bool
}

// VertexRef is a bare vertex id. The zero value has no id.
type VertexRef int64

func (v VertexRef) ID() int64   { return int64(v) }
func (v VertexRef) HasID() bool { return v > 0 }

// VertexID is an opaque, comparable vertex identifier.
type VertexID struct {
	id int64
}

// NewVertexID wraps a raw id.
func NewVertexID(id int64) VertexID { return VertexID{id: id} }

// Int64 returns the raw id.
func (v VertexID) Int64() int64 { return v.id }

func (v VertexID) String() string { return fmt.Sprintf("v[%d]", v.id) }

// Vertex id layout:
//
//	count(56) | representative(7) | partitioned(1)
//
// A partitioned vertex is stored across several representatives that share
// count and differ in the representative bits. Representative 0 is canonical.
const (
	repBits            = 7
	MaxRepresentatives = 1 << repBits
	repMask            = int64(MaxRepresentatives-1) << 1
	countShift         = repBits + 1
)

// MakeVertexID builds the id of a regular vertex from its allocation count.
func MakeVertexID(count int64) int64 {
	return count << countShift
}

// MakePartitionedID builds the canonical id of a partitioned vertex.
func MakePartitionedID(count int64) int64 {
	return count<<countShift | 1
}

// IsPartitioned reports whether id belongs to a partitioned vertex.
func IsPartitioned(id int64) bool {
	return id&1 == 1
}

// CanonicalID maps any representative id to the canonical representative.
func CanonicalID(id int64) int64 {
	return id &^ repMask
}

// RepresentativeID returns the id of representative i of a partitioned vertex.
func RepresentativeID(id int64, i int) int64 {
	return CanonicalID(id) | int64(i)<<1&repMask
}

// RepresentativeIndex returns which representative id is.
func RepresentativeIndex(id int64) int {
	return int(id&repMask) >> 1
}
