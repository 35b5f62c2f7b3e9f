package query

import (
	"errors"
	"strings"

	"github.com/roach88/vcq/internal/graph"
	"github.com/roach88/vcq/internal/ir"
	"github.com/roach88/vcq/internal/schema"
)

// ErrOrdersLocked is returned when an order is added to a compiled query.
var ErrOrdersLocked = errors.New("query: order list is locked")

// OrderEntry sorts by one property key.
type OrderEntry struct {
	Key   *schema.RelationType
	Order graph.Order
}

// OrderList is the requested result order. It is locked when the query
// is compiled and never changes afterwards.
type OrderList struct {
	entries []OrderEntry
	locked  bool
}

// Add appends an entry.
func (l *OrderList) Add(key *schema.RelationType, order graph.Order) error {
	if l.locked {
		return ErrOrdersLocked
	}
	l.entries = append(l.entries, OrderEntry{Key: key, Order: order})
	return nil
}

// Lock makes the list immutable.
func (l *OrderList) Lock() { l.locked = true }

// IsLocked reports whether Lock was called.
func (l *OrderList) IsLocked() bool { return l.locked }

func (l *OrderList) Len() int {
	if l == nil {
		return 0
	}
	return len(l.entries)
}

func (l *OrderList) IsEmpty() bool { return l.Len() == 0 }

// Entry returns the i-th entry.
func (l *OrderList) Entry(i int) OrderEntry { return l.entries[i] }

// ContainsKey reports whether key is ordered on.
func (l *OrderList) ContainsKey(key *schema.RelationType) bool {
	for _, e := range l.entriesOrNil() {
		if e.Key == key {
			return true
		}
	}
	return false
}

// CommonOrder returns the order shared by every entry. An empty list has
// the common order ASC; a mixed list has none.
func (l *OrderList) CommonOrder() (graph.Order, bool) {
	if l.IsEmpty() {
		return graph.Asc, true
	}
	o := l.entries[0].Order
	for _, e := range l.entries[1:] {
		if e.Order != o {
			return 0, false
		}
	}
	return o, true
}

// Compare orders two relations by the listed keys. A missing value sorts
// after every present value in ascending order.
func (l *OrderList) Compare(a, b *graph.Relation) int {
	for _, e := range l.entriesOrNil() {
		if c := e.Order.Apply(ir.Compare(a.ValueOf(e.Key.ID), b.ValueOf(e.Key.ID))); c != 0 {
			return c
		}
	}
	return 0
}

// Clone returns an unlocked copy.
func (l *OrderList) Clone() *OrderList {
	if l == nil {
		return &OrderList{}
	}
	return &OrderList{entries: append([]OrderEntry(nil), l.entries...)}
}

func (l *OrderList) String() string {
	parts := make([]string, 0, l.Len())
	for _, e := range l.entriesOrNil() {
		parts = append(parts, e.Key.Name+" "+e.Order.String())
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (l *OrderList) entriesOrNil() []OrderEntry {
	if l == nil {
		return nil
	}
	return l.entries
}
