package vertexlist

import (
	"iter"
	"slices"

	"github.com/roach88/vcq/internal/graph"
)

// ArrayList holds vertex handles.
type ArrayList struct {
	list sortedList[graph.Vertex]
}

// NewArrayList returns an empty list with room for capacity vertices.
func NewArrayList(capacity int) *ArrayList {
	return &ArrayList{list: newSortedList(graph.Vertex.ID, capacity)}
}

func (l *ArrayList) Add(v graph.Vertex)     { l.list.add(v) }
func (l *ArrayList) AddAll(o *ArrayList)    { l.list.addAll(&o.list) }
func (l *ArrayList) Get(i int) graph.Vertex { return l.list.elems[i] }
func (l *ArrayList) Size() int              { return len(l.list.elems) }
func (l *ArrayList) ID(i int) int64         { return l.list.elems[i].ID() }
func (l *ArrayList) IDs() []int64           { return l.list.ids() }
func (l *ArrayList) IsSorted() bool         { return l.list.sorted }
func (l *ArrayList) Sort()                  { l.list.sort() }

// All iterates over the vertices in list order.
func (l *ArrayList) All() iter.Seq2[int, graph.Vertex] { return l.list.all() }

// Vertices returns a copy of the vertices.
func (l *ArrayList) Vertices() []graph.Vertex { return slices.Clone(l.list.elems) }

// SubList returns elements [from, to) with the same sortedness.
func (l *ArrayList) SubList(from, to int) *ArrayList {
	return &ArrayList{list: l.list.subList(from, to)}
}

// ToArrayList returns a copy; resolve is not needed.
func (l *ArrayList) ToArrayList(Resolver) *ArrayList {
	out := NewArrayList(l.Size())
	out.list.elems = append(out.list.elems, l.list.elems...)
	out.list.sorted = l.list.sorted
	return out
}

func (l *ArrayList) ToIDList() *IDList {
	out := NewIDList(l.Size())
	for _, v := range l.list.elems {
		out.list.elems = append(out.list.elems, graph.NewVertexID(v.ID()))
	}
	out.list.sorted = l.list.sorted
	return out
}

func (l *ArrayList) ToLongList() *LongList {
	return &LongList{list: sortedList[int64]{elems: l.list.ids(), sorted: l.list.sorted, idOf: identity}}
}

// IDList holds opaque vertex ids.
type IDList struct {
	list sortedList[graph.VertexID]
}

// NewIDList returns an empty list with room for capacity ids.
func NewIDList(capacity int) *IDList {
	return &IDList{list: newSortedList(graph.VertexID.Int64, capacity)}
}

func (l *IDList) Add(id graph.VertexID)               { l.list.add(id) }
func (l *IDList) AddAll(o *IDList)                    { l.list.addAll(&o.list) }
func (l *IDList) Get(i int) graph.VertexID            { return l.list.elems[i] }
func (l *IDList) Size() int                           { return len(l.list.elems) }
func (l *IDList) ID(i int) int64                      { return l.list.elems[i].Int64() }
func (l *IDList) IDs() []int64                        { return l.list.ids() }
func (l *IDList) IsSorted() bool                      { return l.list.sorted }
func (l *IDList) Sort()                               { l.list.sort() }
func (l *IDList) All() iter.Seq2[int, graph.VertexID] { return l.list.all() }

func (l *IDList) SubList(from, to int) *IDList {
	return &IDList{list: l.list.subList(from, to)}
}

func (l *IDList) ToArrayList(resolve Resolver) *ArrayList {
	return resolveAll(l, resolve)
}

// ToIDList returns a copy.
func (l *IDList) ToIDList() *IDList {
	out := NewIDList(l.Size())
	out.list.elems = append(out.list.elems, l.list.elems...)
	out.list.sorted = l.list.sorted
	return out
}

func (l *IDList) ToLongList() *LongList {
	return &LongList{list: sortedList[int64]{elems: l.list.ids(), sorted: l.list.sorted, idOf: identity}}
}

// LongList holds raw int64 vertex ids.
type LongList struct {
	list sortedList[int64]
}

// NewLongList returns an empty list with room for capacity ids.
func NewLongList(capacity int) *LongList {
	return &LongList{list: newSortedList(identity, capacity)}
}

// LongListOf returns a list holding ids in the given order.
func LongListOf(ids ...int64) *LongList {
	l := NewLongList(len(ids))
	for _, id := range ids {
		l.Add(id)
	}
	return l
}

func (l *LongList) Add(id int64)               { l.list.add(id) }
func (l *LongList) AddAll(o *LongList)         { l.list.addAll(&o.list) }
func (l *LongList) Get(i int) int64            { return l.list.elems[i] }
func (l *LongList) Size() int                  { return len(l.list.elems) }
func (l *LongList) ID(i int) int64             { return l.list.elems[i] }
func (l *LongList) IDs() []int64               { return slices.Clone(l.list.elems) }
func (l *LongList) IsSorted() bool             { return l.list.sorted }
func (l *LongList) Sort()                      { l.list.sort() }
func (l *LongList) All() iter.Seq2[int, int64] { return l.list.all() }

func (l *LongList) SubList(from, to int) *LongList {
	return &LongList{list: l.list.subList(from, to)}
}

func (l *LongList) ToArrayList(resolve Resolver) *ArrayList {
	return resolveAll(l, resolve)
}

func (l *LongList) ToIDList() *IDList {
	out := NewIDList(l.Size())
	for _, id := range l.list.elems {
		out.list.elems = append(out.list.elems, graph.NewVertexID(id))
	}
	out.list.sorted = l.list.sorted
	return out
}

// ToLongList returns a copy.
func (l *LongList) ToLongList() *LongList {
	return &LongList{list: sortedList[int64]{elems: l.IDs(), sorted: l.list.sorted, idOf: identity}}
}

func resolveAll(l List, resolve Resolver) *ArrayList {
	out := NewArrayList(l.Size())
	for i := range l.Size() {
		out.list.elems = append(out.list.elems, resolve(l.ID(i)))
	}
	out.list.sorted = l.IsSorted()
	return out
}

func identity(id int64) int64 { return id }

var (
	_ List = (*ArrayList)(nil)
	_ List = (*IDList)(nil)
	_ List = (*LongList)(nil)
)
