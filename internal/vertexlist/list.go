package vertexlist

import (
	"cmp"
	"iter"
	"slices"

	"github.com/roach88/vcq/internal/graph"
)

// List is the contract shared by every representation.
type List interface {
	Size() int
	// ID returns the id of the i-th element.
	ID(i int) int64
	// IDs returns the ids of all elements in list order.
	IDs() []int64
	IsSorted() bool
	Sort()

	ToArrayList(resolve Resolver) *ArrayList
	ToIDList() *IDList
	ToLongList() *LongList
}

// Resolver turns a vertex id into a vertex handle.
type Resolver func(id int64) graph.Vertex

// sortedList is the storage behind every representation.
type sortedList[T any] struct {
	elems  []T
	sorted bool
	idOf   func(T) int64
}

func newSortedList[T any](idOf func(T) int64, capacity int) sortedList[T] {
	return sortedList[T]{elems: make([]T, 0, capacity), sorted: true, idOf: idOf}
}

func (l *sortedList[T]) add(e T) {
	if n := len(l.elems); n > 0 && l.sorted && l.idOf(l.elems[n-1]) > l.idOf(e) {
		l.sorted = false
	}
	l.elems = append(l.elems, e)
}

// addAll appends o. Two sorted lists are merged; ties keep l's element
// first.
func (l *sortedList[T]) addAll(o *sortedList[T]) {
	if len(o.elems) == 0 {
		return
	}
	if !l.sorted || !o.sorted {
		l.elems = append(l.elems, o.elems...)
		l.sorted = false
		return
	}
	merged := make([]T, 0, len(l.elems)+len(o.elems))
	i, j := 0, 0
	for i < len(l.elems) && j < len(o.elems) {
		if l.idOf(o.elems[j]) < l.idOf(l.elems[i]) {
			merged = append(merged, o.elems[j])
			j++
		} else {
			merged = append(merged, l.elems[i])
			i++
		}
	}
	merged = append(merged, l.elems[i:]...)
	l.elems = append(merged, o.elems[j:]...)
}

func (l *sortedList[T]) sort() {
	if l.sorted {
		return
	}
	slices.SortStableFunc(l.elems, func(a, b T) int {
		return cmp.Compare(l.idOf(a), l.idOf(b))
	})
	l.sorted = true
}

// subList shares the backing array; the capped capacity makes appends to
// either list copy.
func (l *sortedList[T]) subList(from, to int) sortedList[T] {
	return sortedList[T]{elems: l.elems[from:to:to], sorted: l.sorted, idOf: l.idOf}
}

func (l *sortedList[T]) ids() []int64 {
	out := make([]int64, len(l.elems))
	for i, e := range l.elems {
		out[i] = l.idOf(e)
	}
	return out
}

func (l *sortedList[T]) all() iter.Seq2[int, T] {
	return slices.All(l.elems)
}
