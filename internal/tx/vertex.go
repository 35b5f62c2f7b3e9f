package tx

import "strconv"

// State is the lifecycle of a vertex within a transaction.
type State int

const (
	// StateNew vertices were added by the transaction.
	StateNew State = iota
	// StateLoaded vertices exist in the store and are unchanged.
	StateLoaded
	// StateModified vertices exist in the store and have relations added
	// or removed by the transaction.
	StateModified
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateLoaded:
		return "loaded"
	default:
		return "modified"
	}
}

// Vertex is a vertex handle owned by one transaction.
type Vertex struct {
	id          int64
	label       string
	state       State
	partitioned bool
}

// ID returns the vertex id; for a partitioned vertex, its canonical id.
func (v *Vertex) ID() int64           { return v.id }
func (v *Vertex) HasID() bool         { return v.id > 0 }
func (v *Vertex) Label() string       { return v.label }
func (v *Vertex) State() State        { return v.state }
func (v *Vertex) IsNew() bool         { return v.state == StateNew }
func (v *Vertex) IsModified() bool    { return v.state == StateModified }
func (v *Vertex) IsPartitioned() bool { return v.partitioned }

// IsLoaded reports whether v exists in the store and is unchanged, so that
// stored rows alone answer queries on it.
func (v *Vertex) IsLoaded() bool { return v.state == StateLoaded }

func (v *Vertex) String() string {
	return "v[" + strconv.FormatInt(v.id, 10) + "]"
}
