package tx

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/vcq/internal/codec"
	"github.com/roach88/vcq/internal/store"
)

type cachedSlice struct {
	q       store.SliceQuery
	entries []store.Entry
}

// ReadSlice returns the entries of row within q, answering from the cache
// when an earlier read covers q. The returned slice must not be modified.
func (tx *Tx) ReadSlice(ctx context.Context, row int64, q store.SliceQuery) ([]store.Entry, error) {
	tx.mu.Lock()
	if tx.closed {
		tx.mu.Unlock()
		return nil, ErrClosed
	}
	if entries, ok := tx.cached(row, q); ok {
		tx.mu.Unlock()
		return entries, nil
	}
	tx.mu.Unlock()

	entries, err := tx.g.store.GetSlice(ctx, store.KeySliceQuery{Key: codec.VertexKey(row), SliceQuery: q})
	if err != nil {
		return nil, fmt.Errorf("read row %d: %w", row, err)
	}

	tx.mu.Lock()
	tx.remember(row, q, entries)
	tx.mu.Unlock()
	return entries, nil
}

// cached must be called with tx.mu held.
func (tx *Tx) cached(row int64, q store.SliceQuery) ([]store.Entry, bool) {
	for _, c := range tx.cache[row] {
		if c.q.Subsumes(q, len(c.entries)) {
			entries := c.entries
			if q.HasLimit() && len(entries) > q.Limit {
				entries = entries[:q.Limit:q.Limit]
			}
			return entries, true
		}
	}
	return nil, false
}

// remember must be called with tx.mu held. A read replaces earlier reads
// of the same range it subsumes.
func (tx *Tx) remember(row int64, q store.SliceQuery, entries []store.Entry) {
	if tx.closed {
		return
	}
	kept := tx.cache[row][:0]
	for _, c := range tx.cache[row] {
		if !q.Subsumes(c.q, len(entries)) {
			kept = append(kept, c)
		}
	}
	tx.cache[row] = append(kept, cachedSlice{q: q, entries: entries})
}

// RowError is the failed read of one row in a batch.
type RowError struct {
	Row int64
	Err error
}

// BatchError aggregates the failures of a Prefetch. No partial results are
// used once a batch fails.
type BatchError struct {
	Rows     int
	Failures []RowError
}

func (e *BatchError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "batch read failed for %d of %d rows", len(e.Failures), e.Rows)
	for i, f := range e.Failures {
		if i == 3 {
			fmt.Fprintf(&b, "; and %d more", len(e.Failures)-i)
			break
		}
		if f.Row >= 0 {
			fmt.Fprintf(&b, "; row %d: %v", f.Row, f.Err)
		} else {
			fmt.Fprintf(&b, "; %v", f.Err)
		}
	}
	return b.String()
}

// Unwrap exposes every underlying error to errors.Is and errors.As.
func (e *BatchError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f.Err
	}
	return errs
}

// Prefetch reads q for every row not already cached, so that later
// ReadSlice calls are answered from memory.
func (tx *Tx) Prefetch(ctx context.Context, rows []int64, q store.SliceQuery) error {
	tx.mu.Lock()
	if tx.closed {
		tx.mu.Unlock()
		return ErrClosed
	}
	missing := make([]int64, 0, len(rows))
	seen := make(map[int64]bool, len(rows))
	for _, row := range rows {
		if seen[row] {
			continue
		}
		seen[row] = true
		if _, ok := tx.cached(row, q); !ok {
			missing = append(missing, row)
		}
	}
	tx.mu.Unlock()
	if len(missing) == 0 {
		return nil
	}

	features := tx.g.store.Features()
	slog.Debug("prefetching slice",
		"tx", tx.id.String(),
		"rows", len(missing),
		"backend", features.Name,
		"multi", features.MultiQuery,
		"slice", q.String())

	if features.MultiQuery {
		return tx.prefetchMulti(ctx, missing, q)
	}
	return tx.prefetchPool(ctx, missing, q)
}

func (tx *Tx) prefetchMulti(ctx context.Context, rows []int64, q store.SliceQuery) error {
	keys := make([][]byte, len(rows))
	for i, row := range rows {
		keys[i] = codec.VertexKey(row)
	}
	res, err := tx.g.store.GetSliceMulti(ctx, keys, q)
	if err != nil {
		batchErr := &BatchError{Rows: len(rows), Failures: []RowError{{Row: -1, Err: err}}}
		slog.Error("batch read failed", "tx", tx.id.String(), "error", batchErr)
		return batchErr
	}
	tx.mu.Lock()
	defer tx.mu.Unlock()
	for i, row := range rows {
		tx.remember(row, q, res[string(keys[i])])
	}
	return nil
}

// prefetchPool reads every row on a bounded pool. A read that finds the
// pool full runs on the calling goroutine.
func (tx *Tx) prefetchPool(ctx context.Context, rows []int64, q store.SliceQuery) error {
	var (
		g        errgroup.Group
		mu       sync.Mutex
		failures []RowError
	)
	g.SetLimit(tx.g.opts.Workers)
	for _, row := range rows {
		read := func() error {
			if _, err := tx.ReadSlice(ctx, row, q); err != nil {
				mu.Lock()
				failures = append(failures, RowError{Row: row, Err: err})
				mu.Unlock()
			}
			return nil
		}
		if !g.TryGo(read) {
			_ = read()
		}
	}
	_ = g.Wait()

	if len(failures) > 0 {
		batchErr := &BatchError{Rows: len(rows), Failures: failures}
		slog.Error("batch read failed", "tx", tx.id.String(), "error", batchErr)
		return batchErr
	}
	return nil
}
