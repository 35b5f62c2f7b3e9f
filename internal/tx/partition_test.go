package tx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/vcq/internal/graph"
	"github.com/roach88/vcq/internal/store/memkv"
)

func TestPartitionedPlacement(t *testing.T) {
	opts := DefaultOptions()
	opts.LocalPartitions = []int{1, 3}
	g := openGraph(t, memkv.New(), opts)
	tx := g.NewTx()

	p, err := tx.AddPartitionedVertex("hub")
	require.NoError(t, err)
	assert.True(t, p.IsPartitioned())
	r, err := tx.AddVertex("leaf")
	require.NoError(t, err)
	assert.False(t, r.IsPartitioned())

	name, err := tx.AddProperty(p, "name", "hub", nil)
	require.NoError(t, err)
	assert.Contains(t, tx.AddedRelations(p.ID()), name, "properties live on the canonical row")

	for range 6 {
		e, err := tx.AddEdge(p, r, "knows", nil)
		require.NoError(t, err)
		row := graph.RepresentativeID(p.ID(), int(e.ID%int64(opts.Representatives)))
		assert.Contains(t, tx.AddedRelations(row), e)
		assert.Contains(t, tx.AddedRelations(r.ID()), e)
	}

	assert.Equal(t, []int64{graph.RepresentativeID(p.ID(), 1), graph.RepresentativeID(p.ID(), 3)},
		g.Representatives(p, true))
	all := g.Representatives(p, false)
	require.Len(t, all, opts.Representatives)
	assert.Equal(t, p.ID(), all[0])
	for _, id := range all {
		assert.Equal(t, p.ID(), Canonical(id))
	}
	assert.Equal(t, []int64{r.ID()}, g.Representatives(r, true))
	assert.Equal(t, r.ID(), Canonical(r.ID()))
}

func TestRepresentativeResolvesToCanonicalVertex(t *testing.T) {
	ctx := t.Context()
	g := openGraph(t, memkv.New(), DefaultOptions())
	tx := g.NewTx()
	p, err := tx.AddPartitionedVertex("hub")
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))

	tx = g.NewTx()
	v, err := tx.Vertex(ctx, graph.RepresentativeID(p.ID(), 2))
	require.NoError(t, err)
	assert.Equal(t, p.ID(), v.ID())
	assert.Equal(t, "hub", v.Label())
	assert.True(t, v.IsPartitioned())
}
