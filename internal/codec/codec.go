package codec

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/roach88/vcq/internal/graph"
	"github.com/roach88/vcq/internal/interval"
	"github.com/roach88/vcq/internal/ir"
	"github.com/roach88/vcq/internal/schema"
	"github.com/roach88/vcq/internal/store"
)

// Type classes, the first byte of every column. System relations sort
// before user relations, properties before edges.
const (
	classSystemProperty byte = 0x01
	classSystemEdge     byte = 0x02
	classProperty       byte = 0x10
	classEdge           byte = 0x20
)

func class(t *schema.RelationType) byte {
	switch {
	case t.System && t.IsEdgeLabel():
		return classSystemEdge
	case t.System:
		return classSystemProperty
	case t.IsEdgeLabel():
		return classEdge
	default:
		return classProperty
	}
}

func dirByte(d graph.Direction) byte {
	if d == graph.In {
		return 1
	}
	return 0
}

// Codec maps relations to columns and typed intervals to slice queries.
//
// Column layout for a relation stored under type (or relation index) t in
// direction d:
//
//	class | t.ID | d | sort key values | [value] | [adjacent id] | [relation id]
//
// The property value is present for set properties, the adjacent id for
// edges not unique in d, the relation id for unconstrained multiplicity.
// The column value carries the whole relation as JSON.
type Codec struct {
	schema schema.Inspector
}

// New returns a codec resolving types through s.
func New(s schema.Inspector) *Codec {
	return &Codec{schema: s}
}

func typePrefix(t *schema.RelationType) []byte {
	return appendID([]byte{class(t)}, t.ID)
}

// TypeSlice returns the slice of relations of t in direction d whose
// extended sort key matches constraints position by position. constraints
// is aligned with schema.ExtendedSortKey(t, d); it is read up to the first
// nil entry, and a range entry ends it. d == BOTH scans both directions and
// accepts no constraints.
func (c *Codec) TypeSlice(t *schema.RelationType, d graph.Direction, constraints []*interval.Interval) (store.SliceQuery, error) {
	prefix := typePrefix(t)
	if d == graph.Both {
		if len(constraints) > 0 && constraints[0] != nil {
			return store.SliceQuery{}, fmt.Errorf("codec: constraints require a single direction")
		}
		return store.SliceQuery{Start: prefix, End: store.Successor(prefix), Limit: store.NoLimit}, nil
	}
	prefix = append(prefix, dirByte(d))

	key := schema.ExtendedSortKey(t, d)
	if len(constraints) > len(key) {
		return store.SliceQuery{}, fmt.Errorf("codec: %d constraints for a sort key of %d components", len(constraints), len(key))
	}
	for i, iv := range constraints {
		if iv == nil {
			break
		}
		desc := !key[i].IsImplicit() && t.SortOrder == graph.Desc
		if iv.IsPoints() {
			points := iv.PointValues()
			if len(points) != 1 {
				return store.SliceQuery{}, fmt.Errorf("codec: component %d has %d points, want 1", i, len(points))
			}
			var err error
			prefix, err = appendComponent(prefix, key[i], points[0], desc)
			if err != nil {
				return store.SliceQuery{}, err
			}
			continue
		}
		return rangeSlice(prefix, key[i], *iv, desc)
	}
	return store.SliceQuery{Start: prefix, End: store.Successor(prefix), Limit: store.NoLimit}, nil
}

func appendComponent(buf []byte, key *schema.RelationType, v ir.IRValue, desc bool) ([]byte, error) {
	if key.IsImplicit() {
		id, ok := v.(ir.IRInt)
		if !ok {
			return nil, fmt.Errorf("codec: %s requires an int value, got %s", key.Name, ir.Format(v))
		}
		return appendID(buf, int64(id)), nil
	}
	return appendValue(buf, v, desc)
}

// rangeSlice bounds the component after prefix by iv. In a descending
// component the value-space upper bound becomes the lower column bound.
func rangeSlice(prefix []byte, key *schema.RelationType, iv interval.Interval, desc bool) (store.SliceQuery, error) {
	lo, loIncl := iv.Start()
	hi, hiIncl := iv.End()
	if desc {
		lo, hi = hi, lo
		loIncl, hiIncl = hiIncl, loIncl
	}

	q := store.SliceQuery{Start: prefix, End: store.Successor(prefix), Limit: store.NoLimit}
	if lo != nil {
		b, err := appendComponent(clone(prefix), key, lo, desc)
		if err != nil {
			return q, err
		}
		if loIncl {
			q.Start = b
		} else {
			q.Start = store.Successor(b)
		}
	}
	if hi != nil {
		b, err := appendComponent(clone(prefix), key, hi, desc)
		if err != nil {
			return q, err
		}
		if hiIncl {
			q.End = store.Successor(b)
		} else {
			q.End = b
		}
	}
	return q, nil
}

func clone(b []byte) []byte {
	return append(make([]byte, 0, len(b)+16), b...)
}

// CategorySlice returns the slice covering every relation of a category,
// either the user relations or the system relations.
func (c *Codec) CategorySlice(cat graph.Category, system bool) store.SliceQuery {
	var lo, hi byte
	switch {
	case system && cat == graph.CategoryProperty:
		lo, hi = classSystemProperty, classSystemProperty
	case system && cat == graph.CategoryEdge:
		lo, hi = classSystemEdge, classSystemEdge
	case system:
		lo, hi = classSystemProperty, classSystemEdge
	case cat == graph.CategoryProperty:
		lo, hi = classProperty, classProperty
	case cat == graph.CategoryEdge:
		lo, hi = classEdge, classEdge
	default:
		lo, hi = classProperty, classEdge
	}
	return store.SliceQuery{Start: []byte{lo}, End: []byte{hi + 1}, Limit: store.NoLimit}
}

// record is the JSON column value.
type record struct {
	ID    int64           `json:"id"`
	Type  int64           `json:"type"`
	Out   int64           `json:"out"`
	In    int64           `json:"in,omitempty"`
	Value json.RawMessage `json:"value,omitempty"`
	Props ir.IRObject     `json:"props,omitempty"`
}

// Column encodes the column of r stored under t (r's type or one of its
// relation indexes) in direction d.
func (c *Codec) Column(r *graph.Relation, t *schema.RelationType, d graph.Direction) ([]byte, error) {
	col := append(typePrefix(t), dirByte(d))
	var err error
	for _, k := range t.SortKey {
		col, err = appendValue(col, r.ValueOf(k.ID), t.SortOrder == graph.Desc)
		if err != nil {
			return nil, fmt.Errorf("codec: sort key %s of %s: %w", k.Name, t.Name, err)
		}
	}
	if !t.Multiplicity.IsUnique(d) {
		if t.IsPropertyKey() && t.Multiplicity == graph.Simple {
			col, err = appendValue(col, r.Value, false)
			if err != nil {
				return nil, fmt.Errorf("codec: value of %s: %w", t.Name, err)
			}
		}
		if t.IsEdgeLabel() {
			other := r.In
			if d == graph.In {
				other = r.Out
			}
			col = appendID(col, other)
		}
		if !t.Multiplicity.IsConstrained() {
			col = appendID(col, r.ID)
		}
	}
	return col, nil
}

// Value encodes the column value of r.
func (c *Codec) Value(r *graph.Relation) ([]byte, error) {
	rec := record{ID: r.ID, Type: r.TypeID, Out: r.Out}
	if r.IsEdge() {
		rec.In = r.In
	} else {
		v, err := ir.MarshalIRValue(r.Value)
		if err != nil {
			return nil, fmt.Errorf("codec: %w", err)
		}
		rec.Value = v
	}
	if len(r.Properties) > 0 {
		rec.Props = make(ir.IRObject, len(r.Properties))
		for k, v := range r.Properties {
			rec.Props[strconv.FormatInt(k, 10)] = v
		}
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("codec: %w", err)
	}
	return b, nil
}

// Entries returns every column r occupies at the vertex on side d: one per
// enabled-or-pending relation index of its type stored in d, plus the type
// itself. Disabled indexes are not written.
func (c *Codec) Entries(r *graph.Relation, d graph.Direction) ([]store.Entry, error) {
	t, ok := c.schema.TypeByID(r.TypeID)
	if !ok {
		return nil, fmt.Errorf("codec: unknown relation type %d", r.TypeID)
	}
	value, err := c.Value(r)
	if err != nil {
		return nil, err
	}
	var entries []store.Entry
	for _, idx := range t.RelationIndexes() {
		if idx.Status == schema.Disabled || !idx.IsStoredIn(d) {
			continue
		}
		col, err := c.Column(r, idx, d)
		if err != nil {
			return nil, err
		}
		entries = append(entries, store.Entry{Column: col, Value: value})
	}
	return entries, nil
}

// Decode parses an entry read from the row of vertexID.
func (c *Codec) Decode(vertexID int64, e store.Entry) (*graph.Relation, error) {
	var rec record
	if err := json.Unmarshal(e.Value, &rec); err != nil {
		return nil, fmt.Errorf("codec: decode entry of %d: %w", vertexID, err)
	}
	t, ok := c.schema.TypeByID(rec.Type)
	if !ok {
		return nil, fmt.Errorf("codec: unknown relation type %d", rec.Type)
	}
	r := &graph.Relation{
		ID:        rec.ID,
		TypeID:    t.ID,
		TypeName:  t.Name,
		Category:  t.Category(),
		System:    t.System,
		Out:       rec.Out,
		In:        rec.In,
		Lifecycle: graph.Loaded,
	}
	if !t.IsEdgeLabel() && len(rec.Value) > 0 {
		v, err := ir.UnmarshalIRValue(rec.Value)
		if err != nil {
			return nil, fmt.Errorf("codec: decode value: %w", err)
		}
		r.Value = v
	}
	if len(rec.Props) > 0 {
		r.Properties = make(map[int64]ir.IRValue, len(rec.Props))
		for k, v := range rec.Props {
			id, err := strconv.ParseInt(k, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("codec: property key %q: %w", k, err)
			}
			r.Properties[id] = v
		}
	}
	return r, nil
}

// OtherVertexID returns the vertex on the other side of an edge entry
// without resolving its type.
func (c *Codec) OtherVertexID(vertexID int64, e store.Entry) (int64, error) {
	var ends struct {
		Out int64 `json:"out"`
		In  int64 `json:"in"`
	}
	if err := json.Unmarshal(e.Value, &ends); err != nil {
		return 0, fmt.Errorf("codec: decode entry of %d: %w", vertexID, err)
	}
	if ends.Out == vertexID {
		return ends.In, nil
	}
	return ends.Out, nil
}

// EntryDirection returns the direction an entry is stored under at its
// vertex. A self loop is stored once per direction in the same row.
func EntryDirection(e store.Entry) (graph.Direction, error) {
	if len(e.Column) < 10 {
		return 0, fmt.Errorf("codec: column has %d bytes, want at least 10", len(e.Column))
	}
	if e.Column[9] == 1 {
		return graph.In, nil
	}
	return graph.Out, nil
}
