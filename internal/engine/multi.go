package engine

import (
	"context"

	"github.com/roach88/vcq/internal/graph"
	"github.com/roach88/vcq/internal/query"
	"github.com/roach88/vcq/internal/tx"
	"github.com/roach88/vcq/internal/vertexlist"
)

// MultiVertexQuery runs the same query over several vertices. The query
// is compiled once and every subquery costs one batched backend read for
// all vertices together. Results are keyed by the id of the vertex as
// given.
type MultiVertexQuery struct {
	surface[*MultiVertexQuery]
	tx       *tx.Tx
	vertices []graph.Vertex
}

// MultiQuery starts a query on vertices within t. Duplicate vertices are
// queried once.
func MultiQuery(t *tx.Tx, vertices ...graph.Vertex) *MultiVertexQuery {
	q := &MultiVertexQuery{tx: t}
	seen := make(map[int64]bool, len(vertices))
	for _, v := range vertices {
		if !seen[v.ID()] {
			seen[v.ID()] = true
			q.vertices = append(q.vertices, v)
		}
	}
	q.surface = surface[*MultiVertexQuery]{b: query.NewBuilder(t.Graph().Schema()), self: q}
	return q
}

// Add adds vertices to the query.
func (q *MultiVertexQuery) Add(vertices ...graph.Vertex) *MultiVertexQuery {
	for _, v := range vertices {
		if !q.contains(v.ID()) {
			q.vertices = append(q.vertices, v)
		}
	}
	return q
}

func (q *MultiVertexQuery) contains(id int64) bool {
	for _, v := range q.vertices {
		if v.ID() == id {
			return true
		}
	}
	return false
}

// run compiles once, prefetches, then calls each per vertex.
func (q *MultiVertexQuery) run(ctx context.Context, category graph.Category, each func(x *executor, v graph.Vertex) error) error {
	spec, err := q.b.Build()
	if err != nil {
		return err
	}
	x, err := prepare(q.tx, spec, category)
	if err != nil {
		return err
	}
	if err := x.prefetch(ctx, q.vertices); err != nil {
		return err
	}
	for _, v := range q.vertices {
		if err := each(x, v); err != nil {
			return err
		}
	}
	return nil
}

func (q *MultiVertexQuery) relations(ctx context.Context, category graph.Category) (map[int64][]*graph.Relation, error) {
	out := make(map[int64][]*graph.Relation, len(q.vertices))
	err := q.run(ctx, category, func(x *executor, v graph.Vertex) error {
		rels, err := collect(x.execute(ctx, v.ID()), self)
		if err != nil {
			return err
		}
		out[v.ID()] = rels
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Edges returns the matching edges per vertex.
func (q *MultiVertexQuery) Edges(ctx context.Context) (map[int64][]*graph.Relation, error) {
	return q.relations(ctx, graph.CategoryEdge)
}

// Properties returns the matching properties per vertex.
func (q *MultiVertexQuery) Properties(ctx context.Context) (map[int64][]*graph.Relation, error) {
	return q.relations(ctx, graph.CategoryProperty)
}

// Relations returns the matching edges and properties per vertex.
func (q *MultiVertexQuery) Relations(ctx context.Context) (map[int64][]*graph.Relation, error) {
	return q.relations(ctx, graph.CategoryRelation)
}

// VertexIDs returns the adjacent vertex ids per vertex.
func (q *MultiVertexQuery) VertexIDs(ctx context.Context) (map[int64]*vertexlist.LongList, error) {
	out := make(map[int64]*vertexlist.LongList, len(q.vertices))
	err := q.run(ctx, graph.CategoryEdge, func(x *executor, v graph.Vertex) error {
		ids, err := x.adjacentIDs(ctx, v.ID())
		if err != nil {
			return err
		}
		out[v.ID()] = ids
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Vertices returns the adjacent vertices per vertex.
func (q *MultiVertexQuery) Vertices(ctx context.Context) (map[int64]*vertexlist.ArrayList, error) {
	ids, err := q.VertexIDs(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]*vertexlist.ArrayList, len(ids))
	for id, l := range ids {
		out[id] = l.ToArrayList(q.tx.Handle)
	}
	return out, nil
}

// Count returns the number of matching edges per vertex.
func (q *MultiVertexQuery) Count(ctx context.Context) (map[int64]int, error) {
	out := make(map[int64]int, len(q.vertices))
	err := q.run(ctx, graph.CategoryEdge, func(x *executor, v graph.Vertex) error {
		n, err := count(x.execute(ctx, v.ID()))
		if err != nil {
			return err
		}
		out[v.ID()] = n
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
