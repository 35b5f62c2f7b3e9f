// Package memkv is an in-memory store.KeyColumnValueStore backed by an
// ordered B-tree.
package memkv

import (
	"bytes"
	"context"
	"sync"

	"github.com/tidwall/btree"

	"github.com/roach88/vcq/internal/store"
)

type item struct {
	key    []byte
	column []byte
	value  []byte
}

func itemLess(a, b item) bool {
	if c := bytes.Compare(a.key, b.key); c != 0 {
		return c < 0
	}
	return bytes.Compare(a.column, b.column) < 0
}

// Store keeps all rows in one B-tree ordered by (key, column).
// It does not answer multi-key slices natively, so readers fan out.
type Store struct {
	mu     sync.RWMutex
	tree   *btree.BTreeG[item]
	closed bool
}

var _ store.KeyColumnValueStore = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{
		tree: btree.NewBTreeGOptions(itemLess, btree.Options{NoLocks: true}),
	}
}

// Features reports no native multi-key slices.
func (s *Store) Features() store.Features {
	return store.Features{Name: "memory", MultiQuery: false}
}

// GetSlice scans one row from the slice start.
func (s *Store) GetSlice(ctx context.Context, q store.KeySliceQuery) ([]store.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, store.ErrClosed
	}
	return s.scan(q.Key, q.SliceQuery), nil
}

// GetSliceMulti reads each key in turn.
func (s *Store) GetSliceMulti(ctx context.Context, keys [][]byte, q store.SliceQuery) (map[string][]store.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, store.ErrClosed
	}
	out := make(map[string][]store.Entry, len(keys))
	for _, k := range keys {
		out[string(k)] = s.scan(k, q)
	}
	return out, nil
}

// scan must be called with s.mu held.
func (s *Store) scan(key []byte, q store.SliceQuery) []store.Entry {
	entries := []store.Entry{}
	s.tree.Ascend(item{key: key, column: q.Start}, func(it item) bool {
		if !bytes.Equal(it.key, key) {
			return false
		}
		if q.End != nil && bytes.Compare(it.column, q.End) >= 0 {
			return false
		}
		entries = append(entries, store.Entry{
			Column: bytes.Clone(it.column),
			Value:  bytes.Clone(it.value),
		})
		return !q.HasLimit() || len(entries) < q.Limit
	})
	return entries
}

// Mutate applies all mutations under one write lock.
func (s *Store) Mutate(ctx context.Context, mutations ...store.Mutation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return store.ErrClosed
	}
	for _, m := range mutations {
		key := bytes.Clone(m.Key)
		for _, col := range m.Deletions {
			s.tree.Delete(item{key: key, column: col})
		}
		for _, e := range m.Additions {
			s.tree.Set(item{key: key, column: bytes.Clone(e.Column), value: bytes.Clone(e.Value)})
		}
	}
	return nil
}

// Len returns the number of stored columns across all rows.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree.Len()
}

// Close drops all data.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.tree.Clear()
	return nil
}
