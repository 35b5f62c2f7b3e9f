package engine

import (
	"context"
	"iter"
	"log/slog"
	"slices"

	"github.com/roach88/vcq/internal/graph"
	"github.com/roach88/vcq/internal/profile"
	"github.com/roach88/vcq/internal/query"
	"github.com/roach88/vcq/internal/store"
)

// relations is a lazily produced result. A non-nil error ends it.
type relations = iter.Seq2[*graph.Relation, error]

// entryFilter decodes a stored entry and reports whether it belongs to the
// result.
type entryFilter func(e store.Entry) (*graph.Relation, bool, error)

func empty(func(*graph.Relation, error) bool) {}

func failed(err error) relations {
	return func(yield func(*graph.Relation, error) bool) {
		yield(nil, err)
	}
}

func sliceOf(rels []*graph.Relation) relations {
	return func(yield func(*graph.Relation, error) bool) {
		for _, r := range rels {
			if !yield(r, nil) {
				return
			}
		}
	}
}

// read fetches one slice of row through the transaction cache.
func (x *executor) read(ctx context.Context, row int64, sub query.Subquery, slice store.SliceQuery) ([]store.Entry, error) {
	p := sub.Profiler
	if p == nil {
		p = profile.NoOp
	}
	backend := p.AddNested(profile.GroupBackendQuery)
	backend.SetAnnotation(profile.QueryAnnotation, slice.String())
	backend.StartTimer()
	defer backend.StopTimer()
	return x.tx.ReadSlice(ctx, row, slice)
}

// limitAdjusting yields the kept relations of a slice. When the consumer
// pulls past the end of a full slice, the slice is read again with twice
// the limit and the entries already seen are skipped. It ends when a read
// returns fewer entries than its limit.
func (x *executor) limitAdjusting(ctx context.Context, row int64, sub query.Subquery, keep entryFilter) relations {
	return func(yield func(*graph.Relation, error) bool) {
		slice := sub.Slice
		seen := 0
		for {
			entries, err := x.read(ctx, row, sub, slice)
			if err != nil {
				yield(nil, err)
				return
			}
			for _, e := range entries[min(seen, len(entries)):] {
				r, ok, err := keep(e)
				if err != nil {
					yield(nil, err)
					return
				}
				if ok && !yield(r, nil) {
					return
				}
			}
			seen = len(entries)
			if !slice.HasLimit() || len(entries) < slice.Limit {
				return
			}

			next := query.NoLimit
			if slice.Limit < query.NoLimit/2 {
				next = slice.Limit * 2
			}
			slog.Debug("adjusting slice limit",
				"row", row,
				"target", sub.Target(),
				"from", slice.Limit,
				"to", next)
			slice = slice.RaiseLimit(next)
		}
	}
}

// presorted reads a whole unsorted slice, keeps what matches and yields
// it in query order. More than limits.MaxSortIteration entries is an
// error rather than an unbounded sort.
func (x *executor) presorted(ctx context.Context, row int64, sub query.Subquery, keep entryFilter, cmp func(a, b *graph.Relation) int) relations {
	return func(yield func(*graph.Relation, error) bool) {
		limit := x.limits.MaxSortIteration
		entries, err := x.read(ctx, row, sub, sub.Slice.WithLimit(limit))
		if err != nil {
			yield(nil, err)
			return
		}
		if len(entries) >= limit {
			yield(nil, query.NewTooLargeError(limit))
			return
		}
		rels := make([]*graph.Relation, 0, len(entries))
		for _, e := range entries {
			r, ok, err := keep(e)
			if err != nil {
				yield(nil, err)
				return
			}
			if ok {
				rels = append(rels, r)
			}
		}
		slices.SortStableFunc(rels, cmp)
		for _, r := range rels {
			if !yield(r, nil) {
				return
			}
		}
	}
}

// mergeSorted merges sources that are each ordered by cmp. Ties go to the
// earlier source.
func mergeSorted(sources []relations, cmp func(a, b *graph.Relation) int) relations {
	return func(yield func(*graph.Relation, error) bool) {
		type head struct {
			r    *graph.Relation
			next func() (*graph.Relation, error, bool)
		}
		heads := make([]*head, 0, len(sources))
		for _, src := range sources {
			next, stop := iter.Pull2(src)
			defer stop()
			r, err, ok := next()
			if err != nil {
				yield(nil, err)
				return
			}
			if ok {
				heads = append(heads, &head{r: r, next: next})
			}
		}
		for len(heads) > 0 {
			best := 0
			for i := 1; i < len(heads); i++ {
				if cmp(heads[i].r, heads[best].r) < 0 {
					best = i
				}
			}
			h := heads[best]
			if !yield(h.r, nil) {
				return
			}
			r, err, ok := h.next()
			if err != nil {
				yield(nil, err)
				return
			}
			if ok {
				h.r = r
			} else {
				heads = slices.Delete(heads, best, best+1)
			}
		}
	}
}

// concat yields the sources one after another.
func concat(sources []relations) relations {
	return func(yield func(*graph.Relation, error) bool) {
		for _, src := range sources {
			for r, err := range src {
				if !yield(r, err) || err != nil {
					return
				}
			}
		}
	}
}

// distinct drops relations already yielded and stops after limit results.
func distinct(src relations, limit int) relations {
	return func(yield func(*graph.Relation, error) bool) {
		if limit <= 0 {
			return
		}
		seen := make(map[int64]bool)
		n := 0
		for r, err := range src {
			if err != nil {
				yield(nil, err)
				return
			}
			if seen[r.ID] {
				continue
			}
			seen[r.ID] = true
			if !yield(r, nil) {
				return
			}
			if n++; n >= limit {
				return
			}
		}
	}
}

// unseen drops relations whose id is already in seen and records the
// ones it yields, so several sources can share one seen set.
func unseen(src relations, seen map[int64]bool) relations {
	return func(yield func(*graph.Relation, error) bool) {
		for r, err := range src {
			if err != nil {
				yield(nil, err)
				return
			}
			if seen[r.ID] {
				continue
			}
			seen[r.ID] = true
			if !yield(r, nil) {
				return
			}
		}
	}
}

// collect drains seq into a slice of converted results.
func collect[T any](seq relations, conv func(*graph.Relation) T) ([]T, error) {
	var out []T
	for r, err := range seq {
		if err != nil {
			return nil, err
		}
		out = append(out, conv(r))
	}
	return out, nil
}
