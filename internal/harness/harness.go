package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/roach88/vcq/internal/engine"
	"github.com/roach88/vcq/internal/graph"
	"github.com/roach88/vcq/internal/ir"
	"github.com/roach88/vcq/internal/profile"
	"github.com/roach88/vcq/internal/query"
	"github.com/roach88/vcq/internal/schema"
	"github.com/roach88/vcq/internal/store"
	"github.com/roach88/vcq/internal/store/memkv"
	"github.com/roach88/vcq/internal/tx"
)

// Options configures a scenario run.
type Options struct {
	// Graph configures the graph the scenario is written into.
	Graph tx.Options
	// Profiler, if set, returns the profiler for the named query.
	Profiler func(query string) profile.Profiler
}

// DefaultOptions returns the default graph options and no profiler.
func DefaultOptions() Options {
	return Options{Graph: tx.DefaultOptions()}
}

// Harness holds the state of one scenario run.
type Harness struct {
	opts  Options
	graph *tx.Graph

	// vertices and edges by scenario name; names by canonical vertex id.
	vertices map[string]*tx.Vertex
	edges    map[string]*graph.Relation
	names    map[int64]string
}

// Run executes a scenario in a fresh in-memory store.
func Run(ctx context.Context, s *Scenario) (*Result, error) {
	kv := memkv.New()
	defer kv.Close()
	return RunWith(ctx, s, kv, DefaultOptions())
}

// RunWith executes a scenario against kv:
//
//  1. load the CUE schema
//  2. write and commit the graph
//  3. apply the uncommitted changes in a new transaction
//  4. run every query in that transaction
//  5. evaluate the assertions
//
// Queries only reach the rows of the scenario's own vertices, so several
// scenarios may share one store.
func RunWith(ctx context.Context, s *Scenario, kv store.KeyColumnValueStore, opts Options) (*Result, error) {
	reg, err := schema.LoadCUEFile(s.Schema)
	if err != nil {
		return nil, fmt.Errorf("failed to load schema: %w", err)
	}
	g, err := tx.Open(ctx, kv, reg, opts.Graph)
	if err != nil {
		return nil, fmt.Errorf("failed to open graph: %w", err)
	}
	h := &Harness{
		opts:     opts,
		graph:    g,
		vertices: make(map[string]*tx.Vertex),
		edges:    make(map[string]*graph.Relation),
		names:    make(map[int64]string),
	}

	setup := g.NewTx()
	if err := h.apply(setup, &s.Graph); err != nil {
		setup.Rollback()
		return nil, fmt.Errorf("failed to write graph: %w", err)
	}
	if err := setup.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit graph: %w", err)
	}

	t := g.NewTx()
	defer t.Rollback()
	if s.Changes != nil {
		if err := h.apply(t, s.Changes); err != nil {
			return nil, fmt.Errorf("failed to apply changes: %w", err)
		}
	}

	result := NewResult()
	for _, step := range s.Queries {
		out, err := h.runQuery(ctx, t, step)
		if err != nil {
			return nil, fmt.Errorf("query %s: %w", step.Name, err)
		}
		result.Outputs = append(result.Outputs, out)
	}
	for _, msg := range EvaluateAssertions(result, s.Assertions) {
		result.AddError(msg)
	}
	slog.Debug("scenario finished",
		"scenario", s.Name,
		"queries", len(s.Queries),
		"pass", result.Pass)
	return result, nil
}

// apply writes vertices, then edges, then removals into t.
func (h *Harness) apply(t *tx.Tx, g *GraphSetup) error {
	for _, spec := range g.Vertices {
		v, ok := h.vertices[spec.Name]
		if !ok {
			var err error
			if spec.Partitioned {
				v, err = t.AddPartitionedVertex(spec.Label)
			} else {
				v, err = t.AddVertex(spec.Label)
			}
			if err != nil {
				return fmt.Errorf("vertex %s: %w", spec.Name, err)
			}
			h.vertices[spec.Name] = v
			h.names[graph.CanonicalID(v.ID())] = spec.Name
		}
		for _, key := range slices.Sorted(maps.Keys(spec.Properties)) {
			if err := h.addProperty(t, v, key, spec.Properties[key]); err != nil {
				return fmt.Errorf("vertex %s: %w", spec.Name, err)
			}
		}
	}
	for i, spec := range g.Edges {
		e, err := t.AddEdge(h.vertices[spec.Out], h.vertices[spec.In], spec.Label, spec.Properties)
		if err != nil {
			return fmt.Errorf("edge %d (%s): %w", i, spec.Label, err)
		}
		if spec.Name != "" {
			h.edges[spec.Name] = e
		}
	}
	for _, name := range g.Remove {
		if err := t.RemoveRelation(h.edges[name]); err != nil {
			return fmt.Errorf("remove %s: %w", name, err)
		}
	}
	return nil
}

// addProperty adds value under key. A list on a multi-valued key adds one
// property per element.
func (h *Harness) addProperty(t *tx.Tx, v *tx.Vertex, key string, value any) error {
	typ, ok := h.graph.Schema().RelationType(key)
	list, isList := value.([]any)
	if !ok || !isList || typ.Multiplicity.IsUnique(graph.Out) {
		_, err := t.AddProperty(v, key, value, nil)
		return err
	}
	for _, elem := range list {
		if _, err := t.AddProperty(v, key, elem, nil); err != nil {
			return err
		}
	}
	return nil
}

func (h *Harness) vertex(name string) graph.Vertex {
	return h.vertices[name]
}

func (h *Harness) name(id int64) string {
	if n, ok := h.names[graph.CanonicalID(id)]; ok {
		return n
	}
	return fmt.Sprintf("v[%d]", id)
}

// queryBuilder is the builder surface shared by single- and multi-vertex
// queries.
type queryBuilder[Q any] interface {
	Types(names ...string) Q
	Direction(d graph.Direction) Q
	Has(key string, value any) Q
	HasKey(key string) Q
	HasNoKey(key string) Q
	HasPredicate(key string, pred graph.Predicate, value any) Q
	OrderBy(key string, order graph.Order) Q
	Limit(n int) Q
	Adjacent(v graph.Vertex) Q
	System() Q
	QueryOnlyLoaded() Q
	QueryOnlyGivenVertex() Q
	NoPartitionRestriction() Q
	Profiler(p profile.Profiler) Q
}

// configure applies step to q. Parse errors were reported by
// validateScenario.
func configure[Q queryBuilder[Q]](h *Harness, q Q, step QueryStep) Q {
	if len(step.Types) > 0 {
		q = q.Types(step.Types...)
	}
	dir, _ := graph.ParseDirection(step.Direction)
	q = q.Direction(dir)
	for _, c := range step.Has {
		switch {
		case c.Absent:
			q = q.HasNoKey(c.Key)
		case c.Predicate != "":
			pred, _ := graph.ParsePredicate(c.Predicate)
			q = q.HasPredicate(c.Key, pred, c.Value)
		case c.Value == nil:
			q = q.HasKey(c.Key)
		default:
			q = q.Has(c.Key, c.Value)
		}
	}
	if step.Order != nil {
		order, _ := graph.ParseOrder(step.Order.Order)
		q = q.OrderBy(step.Order.Key, order)
	}
	if step.Limit != nil {
		q = q.Limit(*step.Limit)
	}
	if step.Adjacent != "" {
		q = q.Adjacent(h.vertex(step.Adjacent))
	}
	if step.System {
		q = q.System()
	}
	if step.OnlyLoaded {
		q = q.QueryOnlyLoaded()
	}
	if step.OnlyGivenVertex {
		q = q.QueryOnlyGivenVertex()
	}
	if step.NoPartitionRestriction {
		q = q.NoPartitionRestriction()
	}
	if h.opts.Profiler != nil {
		q = q.Profiler(h.opts.Profiler(step.Name))
	}
	return q
}

func category(returns string) graph.Category {
	switch returns {
	case ReturnProperties:
		return graph.CategoryProperty
	case ReturnRelations:
		return graph.CategoryRelation
	default:
		return graph.CategoryEdge
	}
}

// runQuery runs step in t. Query errors are recorded in the output;
// only failures unrelated to the query itself are returned.
func (h *Harness) runQuery(ctx context.Context, t *tx.Tx, step QueryStep) (*QueryOutput, error) {
	out := &QueryOutput{Name: step.Name, Rows: []string{}}

	planVertex := step.Vertex
	if planVertex == "" {
		planVertex = step.Vertices[0]
	}
	plan, err := configure(h, engine.Query(t, h.vertex(planVertex)), step).Plan(category(step.Returns))
	if err != nil {
		return out, recordError(out, err)
	}
	out.Plan = query.Explain(plan)
	out.Simple = plan.IsSimple()
	out.Subqueries = len(plan.Subqueries)

	if step.Vertex != "" {
		err = h.runSingle(ctx, configure(h, engine.Query(t, h.vertex(step.Vertex)), step), step, out)
	} else {
		vs := make([]graph.Vertex, len(step.Vertices))
		for i, n := range step.Vertices {
			vs[i] = h.vertex(n)
		}
		err = h.runMulti(ctx, configure(h, engine.MultiQuery(t, vs...), step), step, out)
	}
	if err != nil {
		return out, recordError(out, err)
	}
	if step.Returns != ReturnCount {
		out.Count = len(out.Rows)
	}
	return out, nil
}

func (h *Harness) runSingle(ctx context.Context, q *engine.VertexQuery, step QueryStep, out *QueryOutput) error {
	self := h.vertex(step.Vertex).ID()
	switch step.Returns {
	case ReturnCount:
		n, err := q.Count(ctx)
		if err != nil {
			return err
		}
		out.Count = n
		out.Rows = append(out.Rows, fmt.Sprint(n))
	case ReturnVertices:
		vs, err := q.Vertices(ctx)
		if err != nil {
			return err
		}
		for _, v := range vs.Vertices() {
			out.Rows = append(out.Rows, h.name(v.ID()))
		}
	default:
		var rels []*graph.Relation
		var err error
		switch step.Returns {
		case ReturnEdges:
			rels, err = q.Edges(ctx)
		case ReturnProperties:
			rels, err = q.Properties(ctx)
		default:
			rels, err = q.Relations(ctx)
		}
		if err != nil {
			return err
		}
		for _, r := range rels {
			out.Rows = append(out.Rows, h.render(self, r))
		}
	}
	return nil
}

func (h *Harness) runMulti(ctx context.Context, q *engine.MultiVertexQuery, step QueryStep, out *QueryOutput) error {
	switch step.Returns {
	case ReturnCount:
		counts, err := q.Count(ctx)
		if err != nil {
			return err
		}
		for _, n := range step.Vertices {
			c := counts[h.vertex(n).ID()]
			out.Count += c
			out.Rows = append(out.Rows, fmt.Sprintf("%s: %d", n, c))
		}
	case ReturnVertices:
		lists, err := q.Vertices(ctx)
		if err != nil {
			return err
		}
		for _, n := range step.Vertices {
			for _, v := range lists[h.vertex(n).ID()].Vertices() {
				out.Rows = append(out.Rows, n+": "+h.name(v.ID()))
			}
		}
	default:
		var rels map[int64][]*graph.Relation
		var err error
		switch step.Returns {
		case ReturnEdges:
			rels, err = q.Edges(ctx)
		case ReturnProperties:
			rels, err = q.Properties(ctx)
		default:
			rels, err = q.Relations(ctx)
		}
		if err != nil {
			return err
		}
		for _, n := range step.Vertices {
			id := h.vertex(n).ID()
			for _, r := range rels[id] {
				out.Rows = append(out.Rows, n+": "+h.render(id, r))
			}
		}
	}
	return nil
}

// render formats r as seen from vertex: key=value for properties,
// label->other or label<-other for edges.
func (h *Harness) render(vertex int64, r *graph.Relation) string {
	if r.IsProperty() {
		return r.TypeName + "=" + ir.Format(r.Value)
	}
	if graph.CanonicalID(r.Out) == graph.CanonicalID(vertex) {
		return r.TypeName + "->" + h.name(r.In)
	}
	return r.TypeName + "<-" + h.name(r.Out)
}

// recordError stores a query error in out. Errors that are not query
// errors are returned.
func recordError(out *QueryOutput, err error) error {
	out.Err = err.Error()
	var qerr *query.Error
	if errors.As(err, &qerr) {
		out.ErrorCode = string(qerr.Code)
		return nil
	}
	return err
}
