package engine

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/roach88/vcq/internal/codec"
	"github.com/roach88/vcq/internal/graph"
	"github.com/roach88/vcq/internal/profile"
	"github.com/roach88/vcq/internal/query"
	"github.com/roach88/vcq/internal/schema"
	"github.com/roach88/vcq/internal/store"
	"github.com/roach88/vcq/internal/tx"
	"github.com/roach88/vcq/internal/vertexlist"
)

// executor runs one compiled query against the vertices of a transaction.
type executor struct {
	tx     *tx.Tx
	codec  *codec.Codec
	limits query.Limits
	spec   query.Spec
	q      *query.BaseQuery

	// implicit is set when the query asks for a computed vertex key only.
	implicit *schema.RelationType
	// forceFallback disables the simple path.
	forceFallback bool
}

// prepare compiles spec for category in the context of t.
func prepare(t *tx.Tx, spec query.Spec, category graph.Category) (*executor, error) {
	g := t.Graph()
	opts := g.Options()
	x := &executor{tx: t, codec: g.Codec(), limits: opts.Limits, spec: spec}
	if key, ok := query.ImplicitKey(spec, category, g.Schema()); ok {
		x.implicit = key
		return x, nil
	}
	q, err := query.Compile(spec, category, query.Env{
		Schema:               g.Schema(),
		Codec:                g.Codec(),
		Limits:               opts.Limits,
		HasModifications:     t.HasModifications(),
		IgnoreUndefinedTypes: opts.IgnoreUndefinedTypes,
	})
	if err != nil {
		return nil, err
	}
	x.q = q
	return x, nil
}

// rows returns the storage rows holding the answer for vertex v.
func (x *executor) rows(v int64) []int64 {
	switch {
	case !graph.IsPartitioned(v), x.spec.QueryOnlyGivenVertex:
		return []int64{v}
	case x.q.AllCanonical():
		return []int64{graph.CanonicalID(v)}
	default:
		return x.tx.Graph().Representatives(graph.VertexRef(v), !x.spec.NoPartitionRestriction)
	}
}

func (x *executor) isNew(v int64) bool {
	h, ok := x.tx.Handle(v).(*tx.Vertex)
	return ok && h.IsNew()
}

// simple reports whether the single slice of the query answers it for v.
func (x *executor) simple(v int64) bool {
	if !x.q.IsSimple() || x.forceFallback {
		return false
	}
	return x.spec.QueryOnlyLoaded || !x.tx.HasChanges(v)
}

func (x *executor) ordered() bool {
	return !x.q.Orders.IsEmpty()
}

// execute yields the relations of vertex v matching the query.
func (x *executor) execute(ctx context.Context, v int64) relations {
	if x.implicit != nil {
		return x.implicitProperty(ctx, v)
	}
	if x.q.IsEmpty() {
		return empty
	}
	vq := x.q.ForVertex(tx.Canonical(v))
	return distinct(x.combine(x.rowStreams(ctx, vq, x.rows(v)), vq), x.q.Limit)
}

// adjacentIDs returns the ids of the vertices on the other side of the
// matching edges of v. Unordered results from several representatives
// are merged by id; a relation reached through more than one
// representative contributes its neighbour once.
func (x *executor) adjacentIDs(ctx context.Context, v int64) (*vertexlist.LongList, error) {
	if x.q.IsEmpty() {
		return vertexlist.NewLongList(0), nil
	}
	canonical := tx.Canonical(v)
	vq := x.q.ForVertex(canonical)
	streams := x.rowStreams(ctx, vq, x.rows(v))
	other := func(r *graph.Relation) int64 { return r.OtherVertex(canonical) }

	if len(streams) == 1 || x.ordered() {
		ids, err := collect(distinct(x.combine(streams, vq), x.q.Limit), other)
		if err != nil {
			return nil, err
		}
		return vertexlist.LongListOf(ids...), nil
	}
	out := vertexlist.NewLongList(0)
	seen := make(map[int64]bool)
	for _, s := range streams {
		ids, err := collect(distinct(unseen(s, seen), x.q.Limit), other)
		if err != nil {
			return nil, err
		}
		out.AddAll(vertexlist.LongListOf(ids...))
	}
	if x.q.HasLimit() && out.Size() > x.q.Limit {
		out = out.SubList(0, x.q.Limit)
	}
	return out, nil
}

// combine merges per-source results: by the query order when there is
// one, by concatenation otherwise.
func (x *executor) combine(sources []relations, vq *query.VertexQuery) relations {
	switch {
	case len(sources) == 0:
		return empty
	case len(sources) == 1:
		return sources[0]
	case x.ordered():
		return mergeSorted(sources, vq.Compare)
	default:
		return concat(sources)
	}
}

func (x *executor) rowStreams(ctx context.Context, vq *query.VertexQuery, rows []int64) []relations {
	if len(rows) > 1 {
		x.q.Profiler().SetAnnotation(profile.PartitionsAnnotation, len(rows))
		slog.Debug("fanning out over representatives",
			"vertex", vq.Vertex,
			"rows", len(rows))
	}
	streams := make([]relations, len(rows))
	for i, row := range rows {
		streams[i] = x.row(ctx, vq, row)
	}
	return streams
}

// row yields the matching relations stored in or added to one row.
func (x *executor) row(ctx context.Context, vq *query.VertexQuery, row int64) relations {
	if x.simple(vq.Vertex) {
		sub := x.q.Subqueries[0]
		return x.limitAdjusting(ctx, row, sub, x.keeper(row, sub, vq, false))
	}

	txAware := !x.spec.QueryOnlyLoaded
	var sources []relations
	if !x.isNew(vq.Vertex) {
		for _, sub := range x.q.Subqueries {
			keep := x.keeper(row, sub, vq, txAware)
			if x.ordered() && !sub.Sorted {
				sources = append(sources, x.presorted(ctx, row, sub, keep, vq.Compare))
			} else {
				sources = append(sources, x.limitAdjusting(ctx, row, sub, keep))
			}
		}
	}
	if txAware {
		if added := x.added(vq, row); len(added) > 0 {
			sources = append(sources, sliceOf(added))
		}
	}
	return x.combine(sources, vq)
}

// keeper builds the filter for entries of sub read from row. The simple
// path only drops the second copy of a self loop; the fallback also
// checks the vertex condition on unfitted slices and, when txAware,
// hides what the transaction removed or overwrites.
func (x *executor) keeper(row int64, sub query.Subquery, vq *query.VertexQuery, txAware bool) entryFilter {
	return func(e store.Entry) (*graph.Relation, bool, error) {
		if txAware && x.tx.IsShadowed(row, e.Column) {
			return nil, false, nil
		}
		r, err := x.codec.Decode(row, e)
		if err != nil {
			return nil, false, fmt.Errorf("row %d: %w", row, err)
		}
		if sub.Dir == graph.Both && r.IsEdge() && r.Out == r.In {
			d, err := codec.EntryDirection(e)
			if err != nil {
				return nil, false, err
			}
			if d == graph.In {
				return nil, false, nil
			}
		}
		if txAware && x.tx.IsRemoved(r.ID) {
			return nil, false, nil
		}
		if !sub.Fitted && !vq.Matches(r) {
			return nil, false, nil
		}
		return r, true, nil
	}
}

// added returns the transaction's new relations in row that match vq, in
// query order when there is one.
func (x *executor) added(vq *query.VertexQuery, row int64) []*graph.Relation {
	var out []*graph.Relation
	for _, r := range x.tx.AddedRelations(row) {
		if vq.Matches(r) {
			out = append(out, r)
		}
	}
	if x.ordered() {
		slices.SortStableFunc(out, vq.Compare)
	}
	return out
}

// implicitProperty synthesizes the computed ~id or ~label property of v.
func (x *executor) implicitProperty(ctx context.Context, v int64) relations {
	if x.spec.Direction == graph.In || x.spec.Limit < 1 {
		return empty
	}
	id := tx.Canonical(v)
	label := ""
	if x.implicit.Implicit == schema.VertexLabel {
		h, err := x.tx.Vertex(ctx, id)
		if err != nil {
			return failed(err)
		}
		label = h.Label()
	}
	value, _ := x.implicit.Compute(id, label)
	return sliceOf([]*graph.Relation{{
		TypeID:    x.implicit.ID,
		TypeName:  x.implicit.Name,
		Category:  graph.CategoryProperty,
		System:    true,
		Out:       id,
		Value:     value,
		Lifecycle: graph.Loaded,
	}})
}

// prefetch warms the transaction cache for every subquery of the query
// over the rows of vertices.
func (x *executor) prefetch(ctx context.Context, vertices []graph.Vertex) error {
	if x.implicit != nil || x.q.IsEmpty() {
		return nil
	}
	var rows []int64
	for _, v := range vertices {
		if !x.isNew(v.ID()) {
			rows = append(rows, x.rows(v.ID())...)
		}
	}
	if len(rows) == 0 {
		return nil
	}

	p := x.q.Profiler().AddNested(profile.GroupPrefetch)
	p.SetAnnotation(profile.NumVerticesAnnotation, len(vertices))
	p.SetAnnotation(profile.MultiQueryAnnotation, x.tx.Graph().Store().Features().MultiQuery)
	p.StartTimer()
	defer p.StopTimer()

	for _, sub := range x.q.Subqueries {
		slice := sub.Slice
		if x.ordered() && !sub.Sorted {
			slice = slice.WithLimit(x.limits.MaxSortIteration)
		}
		if err := x.tx.Prefetch(ctx, rows, slice); err != nil {
			return fmt.Errorf("prefetch %s: %w", sub.Target(), err)
		}
	}
	return nil
}
