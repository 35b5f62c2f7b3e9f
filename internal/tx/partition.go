package tx

import (
	"github.com/roach88/vcq/internal/graph"
	"github.com/roach88/vcq/internal/schema"
)

// Canonical maps a representative id to the canonical id of its vertex.
// Ids of regular vertices are returned unchanged.
func Canonical(id int64) int64 {
	if !graph.IsPartitioned(id) {
		return id
	}
	return graph.CanonicalID(id)
}

// Representatives returns the row ids a query on v reads. A regular
// vertex has one row. With restricted set and local partitions
// configured, only the local representatives of a partitioned vertex are
// returned.
func (g *Graph) Representatives(v graph.Vertex, restricted bool) []int64 {
	id := v.ID()
	if !graph.IsPartitioned(id) {
		return []int64{id}
	}
	if restricted && len(g.opts.LocalPartitions) > 0 {
		out := make([]int64, len(g.opts.LocalPartitions))
		for i, p := range g.opts.LocalPartitions {
			out[i] = graph.RepresentativeID(id, p)
		}
		return out
	}
	out := make([]int64, g.opts.Representatives)
	for i := range out {
		out[i] = graph.RepresentativeID(id, i)
	}
	return out
}

// rowOf returns the row r is stored in at its endpoint in direction d.
func (g *Graph) rowOf(r *graph.Relation, t *schema.RelationType, d graph.Direction) int64 {
	v := endpoint(r, d)
	if !graph.IsPartitioned(v) {
		return v
	}
	if t.IsPropertyKey() || t.Multiplicity.IsUnique(d) {
		return graph.CanonicalID(v)
	}
	return graph.RepresentativeID(v, int(uint64(r.ID)%uint64(g.opts.Representatives)))
}
