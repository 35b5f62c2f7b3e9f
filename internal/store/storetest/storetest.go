// Package storetest holds conformance tests shared by every
// store.KeyColumnValueStore implementation.
package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/vcq/internal/store"
)

// Opener returns a fresh, empty store. Implementations register cleanup
// with t themselves.
type Opener func(t *testing.T) store.KeyColumnValueStore

var (
	rowA = []byte{0, 0, 0, 1}
	rowB = []byte{0, 0, 0, 2}
	rowC = []byte{0, 0, 0, 3}
)

func seed(t *testing.T, s store.KeyColumnValueStore) {
	t.Helper()
	cols := func(prefix byte, n int) []store.Entry {
		out := make([]store.Entry, n)
		for i := range out {
			out[i] = store.Entry{Column: []byte{prefix, byte(i)}, Value: []byte{byte(i)}}
		}
		return out
	}
	err := s.Mutate(context.Background(),
		store.Mutation{Key: rowA, Additions: append(cols(0x10, 5), cols(0x20, 3)...)},
		store.Mutation{Key: rowB, Additions: cols(0x10, 2)},
	)
	require.NoError(t, err)
}

func columns(entries []store.Entry) [][]byte {
	out := make([][]byte, len(entries))
	for i, e := range entries {
		out[i] = e.Column
	}
	return out
}

// Run executes the conformance suite.
func Run(t *testing.T, open Opener) {
	ctx := context.Background()

	t.Run("slice is ordered and bounded", func(t *testing.T) {
		s := open(t)
		seed(t, s)

		got, err := s.GetSlice(ctx, store.KeySliceQuery{Key: rowA, SliceQuery: store.SliceQuery{
			Start: []byte{0x10, 0x01}, End: []byte{0x10, 0x04},
		}})
		require.NoError(t, err)
		assert.Equal(t, [][]byte{{0x10, 1}, {0x10, 2}, {0x10, 3}}, columns(got))
		assert.Equal(t, []byte{2}, got[1].Value)
	})

	t.Run("slice limit", func(t *testing.T) {
		s := open(t)
		seed(t, s)

		got, err := s.GetSlice(ctx, store.KeySliceQuery{Key: rowA, SliceQuery: store.SliceQuery{
			Start: []byte{0x10}, End: []byte{0x11}, Limit: 2,
		}})
		require.NoError(t, err)
		assert.Equal(t, [][]byte{{0x10, 0}, {0x10, 1}}, columns(got))
	})

	t.Run("unbounded end", func(t *testing.T) {
		s := open(t)
		seed(t, s)

		got, err := s.GetSlice(ctx, store.KeySliceQuery{Key: rowA, SliceQuery: store.SliceQuery{
			Start: []byte{0x20, 0x01},
		}})
		require.NoError(t, err)
		assert.Equal(t, [][]byte{{0x20, 1}, {0x20, 2}}, columns(got))
	})

	t.Run("rows are isolated", func(t *testing.T) {
		s := open(t)
		seed(t, s)

		got, err := s.GetSlice(ctx, store.KeySliceQuery{Key: rowB, SliceQuery: store.SliceQuery{}})
		require.NoError(t, err)
		assert.Len(t, got, 2)

		got, err = s.GetSlice(ctx, store.KeySliceQuery{Key: rowC, SliceQuery: store.SliceQuery{}})
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("multi slice", func(t *testing.T) {
		s := open(t)
		seed(t, s)

		got, err := s.GetSliceMulti(ctx, [][]byte{rowA, rowB, rowC}, store.SliceQuery{
			Start: []byte{0x10}, End: []byte{0x11}, Limit: 3,
		})
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Len(t, got[string(rowA)], 3)
		assert.Len(t, got[string(rowB)], 2)
		assert.Empty(t, got[string(rowC)])
	})

	t.Run("mutate overwrites and deletes", func(t *testing.T) {
		s := open(t)
		seed(t, s)

		err := s.Mutate(ctx, store.Mutation{
			Key:       rowA,
			Additions: []store.Entry{{Column: []byte{0x10, 0}, Value: []byte("new")}},
			Deletions: [][]byte{{0x10, 1}, {0x7f}},
		})
		require.NoError(t, err)

		got, err := s.GetSlice(ctx, store.KeySliceQuery{Key: rowA, SliceQuery: store.SliceQuery{
			Start: []byte{0x10}, End: []byte{0x11},
		}})
		require.NoError(t, err)
		assert.Equal(t, [][]byte{{0x10, 0}, {0x10, 2}, {0x10, 3}, {0x10, 4}}, columns(got))
		assert.Equal(t, []byte("new"), got[0].Value)
	})

	t.Run("closed store", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.Close())
		_, err := s.GetSlice(ctx, store.KeySliceQuery{Key: rowA})
		assert.ErrorIs(t, err, store.ErrClosed)
	})
}
