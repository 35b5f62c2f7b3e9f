// Package badgerkv is a store.KeyColumnValueStore on the badger embedded
// LSM database.
//
// Rows and columns share badger's single key space:
//
//	len(row) uint16 | row | column
//
// so one row is a contiguous prefix and its columns sort bytewise.
package badgerkv

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"sync/atomic"

	"github.com/dgraph-io/badger/v4"

	"github.com/roach88/vcq/internal/store"
)

// Store wraps a badger database.
type Store struct {
	db     *badger.DB
	closed atomic.Bool
}

var _ store.KeyColumnValueStore = (*Store)(nil)

// Open opens (or creates) a badger database at dir. An empty dir opens an
// in-memory database.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil // suppress badger logs
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}
	return &Store{db: db}, nil
}

// Features reports no native multi-key slices.
func (s *Store) Features() store.Features {
	return store.Features{Name: "badger", MultiQuery: false}
}

func rowPrefix(key []byte) []byte {
	p := make([]byte, 2, 2+len(key))
	binary.BigEndian.PutUint16(p, uint16(len(key)))
	return append(p, key...)
}

func physicalKey(prefix, column []byte) []byte {
	k := make([]byte, 0, len(prefix)+len(column))
	return append(append(k, prefix...), column...)
}

// GetSlice iterates the row prefix from the slice start.
func (s *Store) GetSlice(ctx context.Context, q store.KeySliceQuery) ([]store.Entry, error) {
	if s.closed.Load() {
		return nil, store.ErrClosed
	}
	var entries []store.Entry
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		entries, err = s.scan(ctx, txn, q.Key, q.SliceQuery)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("badger slice: %w", err)
	}
	return entries, nil
}

// GetSliceMulti reads every key inside one read transaction.
func (s *Store) GetSliceMulti(ctx context.Context, keys [][]byte, q store.SliceQuery) (map[string][]store.Entry, error) {
	if s.closed.Load() {
		return nil, store.ErrClosed
	}
	out := make(map[string][]store.Entry, len(keys))
	err := s.db.View(func(txn *badger.Txn) error {
		for _, k := range keys {
			entries, err := s.scan(ctx, txn, k, q)
			if err != nil {
				return err
			}
			out[string(k)] = entries
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("badger multi slice: %w", err)
	}
	return out, nil
}

func (s *Store) scan(ctx context.Context, txn *badger.Txn, key []byte, q store.SliceQuery) ([]store.Entry, error) {
	prefix := rowPrefix(key)
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	if q.HasLimit() && q.Limit < opts.PrefetchSize {
		opts.PrefetchSize = q.Limit
	}
	it := txn.NewIterator(opts)
	defer it.Close()

	entries := []store.Entry{}
	for it.Seek(physicalKey(prefix, q.Start)); it.ValidForPrefix(prefix); it.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		item := it.Item()
		column := item.KeyCopy(nil)[len(prefix):]
		if q.End != nil && bytes.Compare(column, q.End) >= 0 {
			break
		}
		value, err := item.ValueCopy(nil)
		if err != nil {
			return nil, err
		}
		entries = append(entries, store.Entry{Column: column, Value: value})
		if q.HasLimit() && len(entries) >= q.Limit {
			break
		}
	}
	return entries, nil
}

// Mutate applies all mutations in one badger transaction.
func (s *Store) Mutate(ctx context.Context, mutations ...store.Mutation) error {
	if s.closed.Load() {
		return store.ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		for _, m := range mutations {
			prefix := rowPrefix(m.Key)
			for _, col := range m.Deletions {
				if err := txn.Delete(physicalKey(prefix, col)); err != nil {
					return err
				}
			}
			for _, e := range m.Additions {
				if err := txn.Set(physicalKey(prefix, e.Column), bytes.Clone(e.Value)); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("badger mutate: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}
