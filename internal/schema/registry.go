package schema

import (
	"fmt"
	"strings"
	"sync"

	"github.com/roach88/vcq/internal/graph"
	"github.com/roach88/vcq/internal/ir"
)

// DefinitionError reports an invalid schema definition.
type DefinitionError struct {
	Field   string
	Message string
}

func (e *DefinitionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// EdgeLabelOptions configures DefineEdgeLabel.
type EdgeLabelOptions struct {
	Multiplicity graph.Multiplicity
	Unidirected  bool
	SortKey      []string
	SortOrder    graph.Order
	System       bool
}

// IndexOptions configures DefineRelationIndex.
type IndexOptions struct {
	Direction graph.Direction
	SortKey   []string
	SortOrder graph.Order
	Status    Status
}

// Registry is an in-memory Inspector. Definitions are append-only; index
// status may change.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]*RelationType
	byID   map[int64]*RelationType
	nextID int64
}

// NewRegistry returns a registry holding the built-in keys.
func NewRegistry() *Registry {
	r := &Registry{
		byName: make(map[string]*RelationType),
		byID:   make(map[int64]*RelationType),
		nextID: firstUserID,
	}
	for _, k := range implicitKeys {
		r.add(k)
	}
	r.add(&RelationType{
		ID: 1, Name: ExistsKey, Kind: PropertyKey, DataType: ir.KindBool,
		Multiplicity: graph.Many2One, Storage: graph.Out, System: true,
	})
	return r
}

func (r *Registry) add(t *RelationType) {
	r.byName[t.Name] = t
	r.byID[t.ID] = t
}

func (r *Registry) allocID() int64 {
	id := r.nextID
	r.nextID++
	return id
}

// RelationType looks a type up by name.
func (r *Registry) RelationType(name string) (*RelationType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byName[name]
	return t, ok
}

// TypeByID looks a type (or relation index) up by id.
func (r *Registry) TypeByID(id int64) (*RelationType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byID[id]
	return t, ok
}

// Types returns all user-visible types (no indexes, no implicit keys).
func (r *Registry) Types() []*RelationType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*RelationType
	for _, t := range r.byID {
		if !t.IsIndex() && !t.IsImplicit() {
			out = append(out, t)
		}
	}
	return out
}

func validateName(field, name string) error {
	if strings.TrimSpace(name) == "" {
		return &DefinitionError{Field: field, Message: "name must not be blank"}
	}
	if strings.HasPrefix(name, "~") {
		return &DefinitionError{Field: field, Message: fmt.Sprintf("%q: names starting with ~ are reserved", name)}
	}
	return nil
}

// DefinePropertyKey adds a property key. Multiplicity doubles as
// cardinality: Many2One is single, Simple is set, Multi is list.
func (r *Registry) DefinePropertyKey(name string, dataType ir.Kind, cardinality graph.Multiplicity) (*RelationType, error) {
	if err := validateName("propertyKey", name); err != nil {
		return nil, err
	}
	switch cardinality {
	case graph.Many2One, graph.Simple, graph.Multi:
	default:
		return nil, &DefinitionError{Field: "propertyKey." + name, Message: "cardinality must be single, set or list"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[name]; exists {
		return nil, &DefinitionError{Field: "propertyKey." + name, Message: "already defined"}
	}
	t := &RelationType{
		ID:           r.allocID(),
		Name:         name,
		Kind:         PropertyKey,
		DataType:     dataType,
		Multiplicity: cardinality,
		Storage:      graph.Out,
	}
	r.add(t)
	return t, nil
}

// DefineEdgeLabel adds an edge label.
func (r *Registry) DefineEdgeLabel(name string, opts EdgeLabelOptions) (*RelationType, error) {
	if err := validateName("edgeLabel", name); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[name]; exists {
		return nil, &DefinitionError{Field: "edgeLabel." + name, Message: "already defined"}
	}
	sortKey, err := r.resolveSortKey("edgeLabel."+name, opts.SortKey)
	if err != nil {
		return nil, err
	}
	storage := graph.Both
	if opts.Unidirected {
		storage = graph.Out
		if opts.Multiplicity.IsUnique(graph.In) {
			return nil, &DefinitionError{Field: "edgeLabel." + name, Message: "unidirected labels cannot be unique in the IN direction"}
		}
	}
	t := &RelationType{
		ID:           r.allocID(),
		Name:         name,
		Kind:         EdgeLabel,
		Multiplicity: opts.Multiplicity,
		SortKey:      sortKey,
		SortOrder:    opts.SortOrder,
		Storage:      storage,
		System:       opts.System,
	}
	r.add(t)
	return t, nil
}

// DefineRelationIndex adds a relation index named indexName over typeName.
func (r *Registry) DefineRelationIndex(typeName, indexName string, opts IndexOptions) (*RelationType, error) {
	field := "relationIndex." + indexName
	if err := validateName("relationIndex", indexName); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	base, ok := r.byName[typeName]
	if !ok || base.IsImplicit() || base.IsIndex() {
		return nil, &DefinitionError{Field: field, Message: fmt.Sprintf("unknown relation type %q", typeName)}
	}
	if len(opts.SortKey) == 0 {
		return nil, &DefinitionError{Field: field, Message: "sort key must not be empty"}
	}
	name := typeName + "#" + indexName
	if _, exists := r.byName[name]; exists {
		return nil, &DefinitionError{Field: field, Message: "already defined"}
	}
	sortKey, err := r.resolveSortKey(field, opts.SortKey)
	if err != nil {
		return nil, err
	}

	storage := opts.Direction
	if base.IsPropertyKey() {
		storage = graph.Out
	} else if base.IsUnidirected() {
		if storage != graph.Both && storage != base.Storage {
			return nil, &DefinitionError{Field: field, Message: fmt.Sprintf("label %q is only stored %s", typeName, base.Storage)}
		}
		storage = base.Storage
	}

	idx := &RelationType{
		ID:           r.allocID(),
		Name:         name,
		Kind:         base.Kind,
		DataType:     base.DataType,
		Multiplicity: graph.Multi,
		SortKey:      sortKey,
		SortOrder:    opts.SortOrder,
		Storage:      storage,
		Status:       opts.Status,
		System:       base.System,
		base:         base,
	}
	base.indexes = append(base.indexes, idx)
	r.add(idx)
	return idx, nil
}

// SetIndexStatus changes the status of a relation index.
func (r *Registry) SetIndexStatus(typeName, indexName string, status Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx, ok := r.byName[typeName+"#"+indexName]
	if !ok {
		return &DefinitionError{Field: "relationIndex." + indexName, Message: "not defined"}
	}
	idx.Status = status
	return nil
}

// resolveSortKey must be called with r.mu held.
func (r *Registry) resolveSortKey(field string, names []string) ([]*RelationType, error) {
	keys := make([]*RelationType, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		k, ok := r.byName[n]
		if !ok || !k.IsPropertyKey() || k.IsImplicit() {
			return nil, &DefinitionError{Field: field, Message: fmt.Sprintf("sort key %q is not a property key", n)}
		}
		if !k.IsComparable() {
			return nil, &DefinitionError{Field: field, Message: fmt.Sprintf("sort key %q has non-comparable data type %s", n, k.DataType)}
		}
		if seen[n] {
			return nil, &DefinitionError{Field: field, Message: fmt.Sprintf("sort key %q listed twice", n)}
		}
		seen[n] = true
		keys = append(keys, k)
	}
	return keys, nil
}
