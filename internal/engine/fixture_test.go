package engine

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/vcq/internal/graph"
	"github.com/roach88/vcq/internal/ir"
	"github.com/roach88/vcq/internal/schema"
	"github.com/roach88/vcq/internal/store"
	"github.com/roach88/vcq/internal/store/memkv"
	"github.com/roach88/vcq/internal/tx"
)

// countingStore counts backend reads of a memory store.
type countingStore struct {
	*memkv.Store
	multi bool

	mu         sync.Mutex
	reads      int
	multiReads int
}

func (s *countingStore) Features() store.Features {
	return store.Features{Name: "counting", MultiQuery: s.multi}
}

func (s *countingStore) GetSlice(ctx context.Context, q store.KeySliceQuery) ([]store.Entry, error) {
	s.mu.Lock()
	s.reads++
	s.mu.Unlock()
	return s.Store.GetSlice(ctx, q)
}

func (s *countingStore) GetSliceMulti(ctx context.Context, keys [][]byte, q store.SliceQuery) (map[string][]store.Entry, error) {
	s.mu.Lock()
	s.multiReads++
	s.mu.Unlock()
	return s.Store.GetSliceMulti(ctx, keys, q)
}

func (s *countingStore) reset() {
	s.mu.Lock()
	s.reads, s.multiReads = 0, 0
	s.mu.Unlock()
}

func (s *countingStore) counts() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads, s.multiReads
}

func newSchema(t *testing.T) *schema.Registry {
	t.Helper()
	reg := schema.NewRegistry()
	for _, k := range []struct {
		name string
		kind ir.Kind
	}{
		{"name", ir.KindString},
		{"age", ir.KindInt},
		{"weight", ir.KindInt},
		{"lang", ir.KindString},
	} {
		_, err := reg.DefinePropertyKey(k.name, k.kind, graph.Many2One)
		require.NoError(t, err)
	}
	labels := []struct {
		name string
		opts schema.EdgeLabelOptions
	}{
		{"knows", schema.EdgeLabelOptions{Multiplicity: graph.Multi}},
		{"visits", schema.EdgeLabelOptions{Multiplicity: graph.Multi, SortKey: []string{"age"}}},
		{"speaks", schema.EdgeLabelOptions{Multiplicity: graph.Multi, SortKey: []string{"lang", "weight"}}},
		{"parent", schema.EdgeLabelOptions{Multiplicity: graph.Many2One}},
	}
	for _, l := range labels {
		_, err := reg.DefineEdgeLabel(l.name, l.opts)
		require.NoError(t, err)
	}
	return reg
}

type fixture struct {
	store *countingStore
	graph *tx.Graph
}

func newFixture(t *testing.T, opts tx.Options) *fixture {
	t.Helper()
	s := &countingStore{Store: memkv.New()}
	g, err := tx.Open(context.Background(), s, newSchema(t), opts)
	require.NoError(t, err)
	return &fixture{store: s, graph: g}
}

// commit runs build in a transaction and commits it.
func (f *fixture) commit(t *testing.T, build func(w *writer)) {
	t.Helper()
	w := &writer{t: t, tx: f.graph.NewTx()}
	build(w)
	require.NoError(t, w.tx.Commit(context.Background()))
	f.store.reset()
}

type writer struct {
	t  *testing.T
	tx *tx.Tx
}

func (w *writer) vertex(label string) *tx.Vertex {
	w.t.Helper()
	v, err := w.tx.AddVertex(label)
	require.NoError(w.t, err)
	return v
}

func (w *writer) partitioned(label string) *tx.Vertex {
	w.t.Helper()
	v, err := w.tx.AddPartitionedVertex(label)
	require.NoError(w.t, err)
	return v
}

func (w *writer) edge(out, in *tx.Vertex, label string, props map[string]any) *graph.Relation {
	w.t.Helper()
	e, err := w.tx.AddEdge(out, in, label, props)
	require.NoError(w.t, err)
	return e
}

func (w *writer) property(v *tx.Vertex, key string, value any) *graph.Relation {
	w.t.Helper()
	p, err := w.tx.AddProperty(v, key, value, nil)
	require.NoError(w.t, err)
	return p
}

func relationIDs(rels []*graph.Relation) []int64 {
	ids := make([]int64, len(rels))
	for i, r := range rels {
		ids[i] = r.ID
	}
	return ids
}

func values(rels []*graph.Relation, key *schema.RelationType) []ir.IRValue {
	out := make([]ir.IRValue, len(rels))
	for i, r := range rels {
		out[i] = r.ValueOf(key.ID)
	}
	return out
}

func keyType(t *testing.T, g *tx.Graph, name string) *schema.RelationType {
	t.Helper()
	k, ok := g.Schema().RelationType(name)
	require.True(t, ok)
	return k
}
