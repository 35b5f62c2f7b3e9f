package tx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/roach88/vcq/internal/codec"
	"github.com/roach88/vcq/internal/graph"
	"github.com/roach88/vcq/internal/ir"
	"github.com/roach88/vcq/internal/schema"
	"github.com/roach88/vcq/internal/store"
)

var (
	// ErrClosed is returned by operations on a committed or rolled back
	// transaction.
	ErrClosed = errors.New("tx: transaction is closed")

	// ErrVertexNotFound is returned when no vertex has the requested id.
	ErrVertexNotFound = errors.New("tx: vertex not found")
)

// Tx is a transaction. Its methods are safe for concurrent use.
type Tx struct {
	id uuid.UUID
	g  *Graph

	mu       sync.Mutex
	closed   bool
	vertices map[int64]*Vertex
	touched  map[int64]bool
	// added holds new relations by the row they will be written to.
	added   map[int64][]*graph.Relation
	newRels map[int64]*graph.Relation
	removed map[int64]*graph.Relation
	// pending maps row and column to the new relation that will be
	// written there.
	pending map[int64]map[string]int64
	cache   map[int64][]cachedSlice
}

func newTx(g *Graph) *Tx {
	return &Tx{
		id:       uuid.Must(uuid.NewV7()),
		g:        g,
		vertices: make(map[int64]*Vertex),
		touched:  make(map[int64]bool),
		added:    make(map[int64][]*graph.Relation),
		newRels:  make(map[int64]*graph.Relation),
		removed:  make(map[int64]*graph.Relation),
		pending:  make(map[int64]map[string]int64),
		cache:    make(map[int64][]cachedSlice),
	}
}

// ID identifies the transaction in logs.
func (tx *Tx) ID() string { return tx.id.String() }

// Graph returns the graph tx runs against.
func (tx *Tx) Graph() *Graph { return tx.g }

// Vertex returns the handle of the vertex with id. Any representative id
// of a partitioned vertex resolves to the canonical handle.
func (tx *Tx) Vertex(ctx context.Context, id int64) (*Vertex, error) {
	id = Canonical(id)
	tx.mu.Lock()
	if tx.closed {
		tx.mu.Unlock()
		return nil, ErrClosed
	}
	if v, ok := tx.vertices[id]; ok {
		tx.mu.Unlock()
		return v, nil
	}
	tx.mu.Unlock()

	exists, _ := tx.g.schema.RelationType(schema.ExistsKey)
	slice, err := tx.g.codec.TypeSlice(exists, graph.Out, nil)
	if err != nil {
		return nil, err
	}
	entries, err := tx.ReadSlice(ctx, id, slice.WithLimit(1))
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: %d", ErrVertexNotFound, id)
	}
	r, err := tx.g.codec.Decode(id, entries[0])
	if err != nil {
		return nil, err
	}
	label, _ := r.ValueOf(schema.VertexLabelType.ID).(ir.IRString)

	tx.mu.Lock()
	defer tx.mu.Unlock()
	if v, ok := tx.vertices[id]; ok {
		return v, nil
	}
	v := &Vertex{id: id, label: string(label), state: StateLoaded, partitioned: graph.IsPartitioned(id)}
	if tx.touched[id] {
		v.state = StateModified
	}
	tx.vertices[id] = v
	return v, nil
}

// AddVertex creates a vertex with label.
func (tx *Tx) AddVertex(label string) (*Vertex, error) {
	return tx.addVertex(label, graph.MakeVertexID(tx.g.allocVertex()))
}

// AddPartitionedVertex creates a vertex whose relations are spread over
// the configured number of representatives.
func (tx *Tx) AddPartitionedVertex(label string) (*Vertex, error) {
	return tx.addVertex(label, graph.MakePartitionedID(tx.g.allocVertex()))
}

func (tx *Tx) addVertex(label string, id int64) (*Vertex, error) {
	exists, ok := tx.g.schema.RelationType(schema.ExistsKey)
	if !ok {
		return nil, fmt.Errorf("schema has no %s key", schema.ExistsKey)
	}
	r := &graph.Relation{
		ID:         tx.g.allocRelation(),
		TypeID:     exists.ID,
		TypeName:   exists.Name,
		Category:   graph.CategoryProperty,
		System:     true,
		Out:        id,
		Value:      ir.IRBool(true),
		Properties: map[int64]ir.IRValue{schema.VertexLabelType.ID: ir.IRString(label)},
		Lifecycle:  graph.New,
	}

	tx.mu.Lock()
	defer tx.mu.Unlock()
	if tx.closed {
		return nil, ErrClosed
	}
	if err := tx.addRelation(r, exists); err != nil {
		return nil, err
	}
	v := &Vertex{id: id, label: label, state: StateNew, partitioned: graph.IsPartitioned(id)}
	tx.vertices[id] = v
	return v, nil
}

// AddEdge adds an edge labeled label from out to in. props are edge
// properties keyed by property key name.
func (tx *Tx) AddEdge(out, in *Vertex, label string, props map[string]any) (*graph.Relation, error) {
	t, ok := tx.g.schema.RelationType(label)
	if !ok || !t.IsEdgeLabel() || t.IsIndex() {
		return nil, fmt.Errorf("add edge: %q is not an edge label", label)
	}
	properties, err := tx.resolveProperties(props)
	if err != nil {
		return nil, fmt.Errorf("add edge %s: %w", label, err)
	}
	r := &graph.Relation{
		ID:         tx.g.allocRelation(),
		TypeID:     t.ID,
		TypeName:   t.Name,
		Category:   graph.CategoryEdge,
		System:     t.System,
		Out:        out.ID(),
		In:         in.ID(),
		Properties: properties,
		Lifecycle:  graph.New,
	}

	tx.mu.Lock()
	defer tx.mu.Unlock()
	if tx.closed {
		return nil, ErrClosed
	}
	if err := tx.addRelation(r, t); err != nil {
		return nil, err
	}
	return r, nil
}

// AddProperty sets key to value on v. meta holds meta-properties. A
// single-valued key replaces the value added earlier in the transaction;
// a stored value is overwritten on commit.
func (tx *Tx) AddProperty(v *Vertex, key string, value any, meta map[string]any) (*graph.Relation, error) {
	t, ok := tx.g.schema.RelationType(key)
	if !ok || !t.IsPropertyKey() || t.IsImplicit() || t.IsIndex() {
		return nil, fmt.Errorf("add property: %q is not a property key", key)
	}
	val, err := ir.FromNative(value)
	if err != nil {
		return nil, fmt.Errorf("add property %s: %w", key, err)
	}
	if !t.DataType.Accepts(val) {
		return nil, fmt.Errorf("add property %s: value %s does not match data type %s", key, ir.Format(val), t.DataType)
	}
	properties, err := tx.resolveProperties(meta)
	if err != nil {
		return nil, fmt.Errorf("add property %s: %w", key, err)
	}
	r := &graph.Relation{
		ID:         tx.g.allocRelation(),
		TypeID:     t.ID,
		TypeName:   t.Name,
		Category:   graph.CategoryProperty,
		System:     t.System,
		Out:        v.ID(),
		Value:      ir.NormalizeValue(val),
		Properties: properties,
		Lifecycle:  graph.New,
	}

	tx.mu.Lock()
	defer tx.mu.Unlock()
	if tx.closed {
		return nil, ErrClosed
	}
	if t.Multiplicity.IsUnique(graph.Out) {
		var replaced []*graph.Relation
		for _, prev := range tx.added[v.ID()] {
			if prev.TypeID == t.ID && prev.Out == v.ID() {
				replaced = append(replaced, prev)
			}
		}
		for _, prev := range replaced {
			tx.dropNew(prev)
		}
	}
	if err := tx.addRelation(r, t); err != nil {
		return nil, err
	}
	return r, nil
}

func (tx *Tx) resolveProperties(props map[string]any) (map[int64]ir.IRValue, error) {
	if len(props) == 0 {
		return nil, nil
	}
	out := make(map[int64]ir.IRValue, len(props))
	for _, name := range slices.Sorted(maps.Keys(props)) {
		k, ok := tx.g.schema.RelationType(name)
		if !ok || !k.IsPropertyKey() || k.IsImplicit() {
			return nil, fmt.Errorf("%q is not a property key", name)
		}
		v, err := ir.FromNative(props[name])
		if err != nil {
			return nil, fmt.Errorf("property %s: %w", name, err)
		}
		if !k.DataType.Accepts(v) {
			return nil, fmt.Errorf("property %s: value %s does not match data type %s", name, ir.Format(v), k.DataType)
		}
		out[k.ID] = ir.NormalizeValue(v)
	}
	return out, nil
}

// RemoveRelation deletes r. A relation added by this transaction is
// forgotten; a stored one is deleted on commit.
func (tx *Tx) RemoveRelation(r *graph.Relation) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if tx.closed {
		return ErrClosed
	}
	if n, ok := tx.newRels[r.ID]; ok {
		tx.dropNew(n)
		return nil
	}
	if _, ok := tx.g.schema.TypeByID(r.TypeID); !ok {
		return fmt.Errorf("remove relation %d: unknown type %d", r.ID, r.TypeID)
	}
	tx.removed[r.ID] = r
	tx.touch(r.Out)
	if r.IsEdge() {
		tx.touch(r.In)
	}
	return nil
}

// addRelation must be called with tx.mu held. Nothing is recorded when r
// cannot be encoded.
func (tx *Tx) addRelation(r *graph.Relation, t *schema.RelationType) error {
	type placed struct {
		row     int64
		dir     graph.Direction
		entries []store.Entry
	}
	var placements []placed
	for _, d := range sides(r, t) {
		entries, err := tx.g.codec.Entries(r, d)
		if err != nil {
			return fmt.Errorf("add %s: %w", r.TypeName, err)
		}
		placements = append(placements, placed{row: tx.g.rowOf(r, t, d), dir: d, entries: entries})
	}

	tx.newRels[r.ID] = r
	for _, p := range placements {
		tx.added[p.row] = append(tx.added[p.row], r)
		cols := tx.pending[p.row]
		if cols == nil {
			cols = make(map[string]int64)
			tx.pending[p.row] = cols
		}
		for _, e := range p.entries {
			cols[string(e.Column)] = r.ID
		}
		tx.touch(endpoint(r, p.dir))
	}
	return nil
}

// dropNew must be called with tx.mu held.
func (tx *Tx) dropNew(r *graph.Relation) {
	delete(tx.newRels, r.ID)
	for row, rels := range tx.added {
		tx.added[row] = slices.DeleteFunc(rels, func(o *graph.Relation) bool { return o.ID == r.ID })
	}
	for _, cols := range tx.pending {
		maps.DeleteFunc(cols, func(_ string, id int64) bool { return id == r.ID })
	}
}

// touch must be called with tx.mu held.
func (tx *Tx) touch(id int64) {
	tx.touched[id] = true
	if v, ok := tx.vertices[id]; ok && v.state == StateLoaded {
		v.state = StateModified
	}
}

// AddedRelations returns the relations the transaction added to row, in
// the order they were added.
func (tx *Tx) AddedRelations(row int64) []*graph.Relation {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	return slices.Clone(tx.added[row])
}

// IsShadowed reports whether a new relation of the transaction will be
// written to column of row, replacing what storage holds there.
func (tx *Tx) IsShadowed(row int64, column []byte) bool {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	_, ok := tx.pending[row][string(column)]
	return ok
}

// HasChanges reports whether the transaction added or removed relations
// of the vertex with id.
func (tx *Tx) HasChanges(id int64) bool {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	return tx.touched[Canonical(id)]
}

// Handle returns the transaction's handle for id without reading storage,
// or a bare reference when the vertex was never loaded.
func (tx *Tx) Handle(id int64) graph.Vertex {
	id = Canonical(id)
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if v, ok := tx.vertices[id]; ok {
		return v
	}
	return graph.VertexRef(id)
}

// IsRemoved reports whether the stored relation with id was removed.
func (tx *Tx) IsRemoved(id int64) bool {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	_, ok := tx.removed[id]
	return ok
}

// HasModifications reports whether the transaction changed anything.
func (tx *Tx) HasModifications() bool {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	return len(tx.newRels) > 0 || len(tx.removed) > 0
}

// Commit writes the transaction's changes and closes it.
func (tx *Tx) Commit(ctx context.Context) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if tx.closed {
		return ErrClosed
	}

	byRow := make(map[int64]*store.Mutation)
	mutation := func(row int64) *store.Mutation {
		m, ok := byRow[row]
		if !ok {
			m = &store.Mutation{Key: codec.VertexKey(row)}
			byRow[row] = m
		}
		return m
	}
	for _, id := range slices.Sorted(maps.Keys(tx.newRels)) {
		r := tx.newRels[id]
		t, _ := tx.g.schema.TypeByID(r.TypeID)
		for _, d := range sides(r, t) {
			entries, err := tx.g.codec.Entries(r, d)
			if err != nil {
				return fmt.Errorf("commit %s: %w", r, err)
			}
			m := mutation(tx.g.rowOf(r, t, d))
			m.Additions = append(m.Additions, entries...)
		}
	}
	for _, id := range slices.Sorted(maps.Keys(tx.removed)) {
		r := tx.removed[id]
		t, _ := tx.g.schema.TypeByID(r.TypeID)
		for _, d := range sides(r, t) {
			entries, err := tx.g.codec.Entries(r, d)
			if err != nil {
				return fmt.Errorf("commit removal of %s: %w", r, err)
			}
			m := mutation(tx.g.rowOf(r, t, d))
			for _, e := range entries {
				m.Deletions = append(m.Deletions, e.Column)
			}
		}
	}

	mutations := make([]store.Mutation, 0, len(byRow)+1)
	for _, row := range slices.Sorted(maps.Keys(byRow)) {
		mutations = append(mutations, *byRow[row])
	}
	mutations = append(mutations, tx.g.counterMutation())
	if err := tx.g.store.Mutate(ctx, mutations...); err != nil {
		return fmt.Errorf("commit transaction %s: %w", tx.id, err)
	}

	slog.Info("committed transaction",
		"tx", tx.id.String(),
		"added", len(tx.newRels),
		"removed", len(tx.removed),
		"rows", len(byRow))
	tx.close()
	return nil
}

// Rollback discards the transaction's changes and closes it.
func (tx *Tx) Rollback() {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	tx.close()
}

func (tx *Tx) close() {
	tx.closed = true
	clear(tx.added)
	clear(tx.newRels)
	clear(tx.removed)
	clear(tx.pending)
	clear(tx.cache)
}

// sides returns the directions r is stored under.
func sides(r *graph.Relation, t *schema.RelationType) []graph.Direction {
	if r.IsProperty() {
		return []graph.Direction{graph.Out}
	}
	return t.Storage.Proper()
}

func endpoint(r *graph.Relation, d graph.Direction) int64 {
	if d == graph.In {
		return r.In
	}
	return r.Out
}
