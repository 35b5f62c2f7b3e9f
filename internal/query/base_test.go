package query

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/vcq/internal/condition"
	"github.com/roach88/vcq/internal/graph"
	"github.com/roach88/vcq/internal/ir"
)

func TestForVertex(t *testing.T) {
	reg := newSchema(t)
	visits := typeOf(t, reg, "visits")
	age := typeOf(t, reg, "age")
	q := mustCompile(t, reg, NewBuilder(reg).
		Labels("visits").
		Direction(graph.Out).
		Has("age", 3).
		Adjacent(graph.VertexRef(200)), graph.CategoryEdge)

	vq := q.ForVertex(100)
	assert.Equal(t, int64(100), vq.Vertex)
	assert.Equal(t, "(age EQUAL 3 AND type=visits AND dir(100,OUT) AND adj(100,200))", condition.Format(vq.Condition))
	assert.NotEqual(t, q.Condition, vq.Condition, "binding leaves the base query untouched")

	edge := func(out, in int64, v int64) *graph.Relation {
		return &graph.Relation{
			ID: 1, TypeID: visits.ID, Category: graph.CategoryEdge, Out: out, In: in,
			Properties: map[int64]ir.IRValue{age.ID: ir.IRInt(v)},
		}
	}
	assert.True(t, vq.Matches(edge(100, 200, 3)))
	assert.False(t, vq.Matches(edge(200, 100, 3)), "wrong direction")
	assert.False(t, vq.Matches(edge(100, 300, 3)), "wrong neighbor")
	assert.False(t, vq.Matches(edge(100, 200, 4)), "wrong value")
}

func TestForVertexEmptyQuery(t *testing.T) {
	vq := Empty().ForVertex(5)
	assert.Equal(t, condition.Fixed{Value: false}, vq.Condition)
	assert.False(t, vq.Matches(&graph.Relation{Out: 5}))
}
