package engine

import (
	"context"
	"iter"

	"github.com/roach88/vcq/internal/graph"
	"github.com/roach88/vcq/internal/query"
	"github.com/roach88/vcq/internal/tx"
	"github.com/roach88/vcq/internal/vertexlist"
)

// VertexQuery is a query over the relations of one vertex.
//
//	edges, err := engine.Query(t, v).
//		Labels("knows").
//		Direction(graph.Out).
//		Limit(10).
//		Edges(ctx)
type VertexQuery struct {
	surface[*VertexQuery]
	tx     *tx.Tx
	vertex graph.Vertex
}

// Query starts a query on v within t.
func Query(t *tx.Tx, v graph.Vertex) *VertexQuery {
	q := &VertexQuery{tx: t, vertex: v}
	q.surface = surface[*VertexQuery]{b: query.NewBuilder(t.Graph().Schema()), self: q}
	return q
}

func (q *VertexQuery) executor(category graph.Category) (*executor, error) {
	spec, err := q.b.Build()
	if err != nil {
		return nil, err
	}
	return prepare(q.tx, spec, category)
}

func (q *VertexQuery) stream(ctx context.Context, category graph.Category) relations {
	x, err := q.executor(category)
	if err != nil {
		return failed(err)
	}
	return x.execute(ctx, q.vertex.ID())
}

// Stream yields matching relations of any category as they are read.
func (q *VertexQuery) Stream(ctx context.Context) iter.Seq2[*graph.Relation, error] {
	return q.stream(ctx, graph.CategoryRelation)
}

// Edges returns the matching edges.
func (q *VertexQuery) Edges(ctx context.Context) ([]*graph.Relation, error) {
	return collect(q.stream(ctx, graph.CategoryEdge), self)
}

// Properties returns the matching properties.
func (q *VertexQuery) Properties(ctx context.Context) ([]*graph.Relation, error) {
	return collect(q.stream(ctx, graph.CategoryProperty), self)
}

// Relations returns the matching edges and properties.
func (q *VertexQuery) Relations(ctx context.Context) ([]*graph.Relation, error) {
	return collect(q.stream(ctx, graph.CategoryRelation), self)
}

// VertexIDs returns the ids of the adjacent vertices of the matching edges.
func (q *VertexQuery) VertexIDs(ctx context.Context) (*vertexlist.LongList, error) {
	x, err := q.executor(graph.CategoryEdge)
	if err != nil {
		return nil, err
	}
	return x.adjacentIDs(ctx, q.vertex.ID())
}

// Vertices returns the adjacent vertices of the matching edges.
func (q *VertexQuery) Vertices(ctx context.Context) (*vertexlist.ArrayList, error) {
	ids, err := q.VertexIDs(ctx)
	if err != nil {
		return nil, err
	}
	return ids.ToArrayList(q.tx.Handle), nil
}

// Count returns the number of matching edges.
func (q *VertexQuery) Count(ctx context.Context) (int, error) {
	return count(q.stream(ctx, graph.CategoryEdge))
}

// PropertyCount returns the number of matching properties.
func (q *VertexQuery) PropertyCount(ctx context.Context) (int, error) {
	return count(q.stream(ctx, graph.CategoryProperty))
}

// Plan compiles the query for category without running it.
func (q *VertexQuery) Plan(category graph.Category) (*query.BaseQuery, error) {
	x, err := q.executor(category)
	if err != nil {
		return nil, err
	}
	if x.q == nil {
		return query.Empty(), nil
	}
	return x.q, nil
}

func self(r *graph.Relation) *graph.Relation { return r }

func count(seq relations) (int, error) {
	n := 0
	for _, err := range seq {
		if err != nil {
			return 0, err
		}
		n++
	}
	return n, nil
}
