package tx

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/vcq/internal/codec"
	"github.com/roach88/vcq/internal/graph"
	"github.com/roach88/vcq/internal/ir"
	"github.com/roach88/vcq/internal/schema"
	"github.com/roach88/vcq/internal/store"
	"github.com/roach88/vcq/internal/store/memkv"
)

var errBoom = errors.New("boom")

// countingStore wraps a memory store, counts reads and fails reads of
// selected rows.
type countingStore struct {
	*memkv.Store
	multi bool

	mu         sync.Mutex
	reads      int
	multiReads int
	fail       map[int64]bool
	failMulti  bool
}

func newCountingStore() *countingStore {
	return &countingStore{Store: memkv.New(), fail: map[int64]bool{}}
}

func (s *countingStore) Features() store.Features {
	return store.Features{Name: "counting", MultiQuery: s.multi}
}

func (s *countingStore) GetSlice(ctx context.Context, q store.KeySliceQuery) ([]store.Entry, error) {
	s.mu.Lock()
	s.reads++
	id, err := codec.VertexIDFromKey(q.Key)
	failing := err == nil && s.fail[id]
	s.mu.Unlock()
	if failing {
		return nil, errBoom
	}
	return s.Store.GetSlice(ctx, q)
}

func (s *countingStore) GetSliceMulti(ctx context.Context, keys [][]byte, q store.SliceQuery) (map[string][]store.Entry, error) {
	s.mu.Lock()
	s.multiReads++
	failing := s.failMulti
	s.mu.Unlock()
	if failing {
		return nil, errBoom
	}
	return s.Store.GetSliceMulti(ctx, keys, q)
}

func (s *countingStore) readCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}

func newTestSchema(t *testing.T) *schema.Registry {
	t.Helper()
	reg := schema.NewRegistry()
	_, err := reg.DefinePropertyKey("name", ir.KindString, graph.Many2One)
	require.NoError(t, err)
	_, err = reg.DefinePropertyKey("weight", ir.KindInt, graph.Many2One)
	require.NoError(t, err)
	_, err = reg.DefinePropertyKey("tags", ir.KindString, graph.Simple)
	require.NoError(t, err)
	_, err = reg.DefineEdgeLabel("knows", schema.EdgeLabelOptions{Multiplicity: graph.Multi, SortKey: []string{"weight"}})
	require.NoError(t, err)
	_, err = reg.DefineEdgeLabel("parent", schema.EdgeLabelOptions{Multiplicity: graph.Many2One})
	require.NoError(t, err)
	_, err = reg.DefineEdgeLabel("likes", schema.EdgeLabelOptions{Multiplicity: graph.Multi, Unidirected: true})
	require.NoError(t, err)
	return reg
}

func openGraph(t *testing.T, s store.KeyColumnValueStore, opts Options) *Graph {
	t.Helper()
	g, err := Open(context.Background(), s, newTestSchema(t), opts)
	require.NoError(t, err)
	return g
}

// rowColumns reads the raw columns of one row.
func rowColumns(t *testing.T, s store.KeyColumnValueStore, row int64) []store.Entry {
	t.Helper()
	entries, err := s.GetSlice(context.Background(), store.KeySliceQuery{Key: codec.VertexKey(row)})
	require.NoError(t, err)
	return entries
}
