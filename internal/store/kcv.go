package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/roach88/vcq/internal/ir"
)

// NoLimit marks a slice without a row limit.
const NoLimit = math.MaxInt32

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store: closed")

// Entry is one column/value pair of a row.
type Entry struct {
	Column []byte
	Value  []byte
}

// SliceQuery selects the columns c with Start <= c < End, in column order,
// returning at most Limit entries. A nil End is unbounded.
type SliceQuery struct {
	Start []byte
	End   []byte
	Limit int
}

// HasLimit reports whether q caps the number of entries.
func (q SliceQuery) HasLimit() bool {
	return q.Limit > 0 && q.Limit < NoLimit
}

// WithLimit returns q with its limit replaced.
func (q SliceQuery) WithLimit(limit int) SliceQuery {
	q.Limit = limit
	return q
}

// RaiseLimit returns q with its limit set to limit when that is larger.
// Limits of a slice only ever grow while a query is executing.
func (q SliceQuery) RaiseLimit(limit int) SliceQuery {
	if !q.HasLimit() || limit <= q.Limit {
		return q
	}
	q.Limit = limit
	return q
}

// SameBounds reports whether q and o cover the same column range.
func (q SliceQuery) SameBounds(o SliceQuery) bool {
	return bytes.Equal(q.Start, o.Start) && bytes.Equal(q.End, o.End)
}

// Subsumes reports whether the result of q, given it returned n entries,
// already answers o. That holds when both cover the same range and q either
// had no smaller limit or was exhausted before reaching its limit.
func (q SliceQuery) Subsumes(o SliceQuery, n int) bool {
	if !q.SameBounds(o) {
		return false
	}
	if !q.HasLimit() {
		return true
	}
	if o.HasLimit() && o.Limit <= q.Limit {
		return true
	}
	return n < q.Limit
}

// Contains reports whether column lies within the bounds of q.
func (q SliceQuery) Contains(column []byte) bool {
	if bytes.Compare(column, q.Start) < 0 {
		return false
	}
	return q.End == nil || bytes.Compare(column, q.End) < 0
}

// Fingerprint identifies the column range of q (not its limit).
func (q SliceQuery) Fingerprint() string {
	return ir.MustFingerprint(ir.DomainSlice, ir.IRObject{
		"start": ir.IRString(fmt.Sprintf("%x", q.Start)),
		"end":   ir.IRString(fmt.Sprintf("%x", q.End)),
		"open":  ir.IRBool(q.End == nil),
	})
}

func (q SliceQuery) String() string {
	end := "+inf"
	if q.End != nil {
		end = fmt.Sprintf("%x", q.End)
	}
	if q.HasLimit() {
		return fmt.Sprintf("[%x,%s) limit %d", q.Start, end, q.Limit)
	}
	return fmt.Sprintf("[%x,%s)", q.Start, end)
}

// KeySliceQuery is a slice of one row.
type KeySliceQuery struct {
	Key []byte
	SliceQuery
}

// Mutation adds and deletes columns of one row.
type Mutation struct {
	Key       []byte
	Additions []Entry
	Deletions [][]byte
}

// Features describes optional store capabilities.
type Features struct {
	// Name identifies the backend in logs and plans.
	Name string
	// MultiQuery is true when GetSliceMulti is answered in a single
	// round trip rather than one read per key.
	MultiQuery bool
}

// KeyColumnValueStore is an ordered key/column/value store supporting
// range scans over the columns of a row.
type KeyColumnValueStore interface {
	GetSlice(ctx context.Context, q KeySliceQuery) ([]Entry, error)
	GetSliceMulti(ctx context.Context, keys [][]byte, q SliceQuery) (map[string][]Entry, error)
	Mutate(ctx context.Context, mutations ...Mutation) error
	Features() Features
	Close() error
}

// Successor returns the smallest byte string greater than every string
// with prefix p, or nil if there is none (p is all 0xFF).
func Successor(p []byte) []byte {
	out := bytes.Clone(p)
	for i := len(out) - 1; i >= 0; i-- {
		if out[i] != 0xFF {
			out[i]++
			return out[:i+1]
		}
	}
	return nil
}
