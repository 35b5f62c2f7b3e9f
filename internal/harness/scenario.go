package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/vcq/internal/graph"
)

// Scenario is a graph plus the queries run against it and the assertions
// checked on their results.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Schema is the path of the CUE schema file, relative to the
	// scenario file.
	Schema string `yaml:"schema"`

	// Graph is written and committed before any query runs.
	Graph GraphSetup `yaml:"graph"`

	// Changes are applied in the transaction the queries run in and are
	// never committed.
	Changes *GraphSetup `yaml:"changes,omitempty"`

	Queries    []QueryStep `yaml:"queries"`
	Assertions []Assertion `yaml:"assertions"`
}

// GraphSetup lists vertices and edges by name.
type GraphSetup struct {
	Vertices []VertexSpec `yaml:"vertices"`
	Edges    []EdgeSpec   `yaml:"edges,omitempty"`
	// Remove names edges to drop. Only used in changes.
	Remove []string `yaml:"remove,omitempty"`
}

// VertexSpec declares one vertex. In changes, a vertex that already
// exists only gets its properties added.
type VertexSpec struct {
	Name        string         `yaml:"name"`
	Label       string         `yaml:"label"`
	Partitioned bool           `yaml:"partitioned,omitempty"`
	Properties  map[string]any `yaml:"properties,omitempty"`
}

// EdgeSpec declares one edge between named vertices. Name is optional
// and lets changes remove the edge.
type EdgeSpec struct {
	Name       string         `yaml:"name,omitempty"`
	Label      string         `yaml:"label"`
	Out        string         `yaml:"out"`
	In         string         `yaml:"in"`
	Properties map[string]any `yaml:"properties,omitempty"`
}

// QueryStep is one vertex-centric query.
type QueryStep struct {
	Name string `yaml:"name"`

	// Vertex starts a single-vertex query; Vertices a multi-vertex query.
	Vertex   string   `yaml:"vertex,omitempty"`
	Vertices []string `yaml:"vertices,omitempty"`

	// Returns selects the terminal operation.
	Returns string `yaml:"returns"`

	Types     []string     `yaml:"types,omitempty"`
	Direction string       `yaml:"direction,omitempty"`
	Has       []Constraint `yaml:"has,omitempty"`
	Order     *OrderSpec   `yaml:"order,omitempty"`
	Limit     *int         `yaml:"limit,omitempty"`
	Adjacent  string       `yaml:"adjacent,omitempty"`

	System                 bool `yaml:"system,omitempty"`
	OnlyLoaded             bool `yaml:"only_loaded,omitempty"`
	OnlyGivenVertex        bool `yaml:"only_given_vertex,omitempty"`
	NoPartitionRestriction bool `yaml:"no_partition_restriction,omitempty"`
}

// Constraint is one has-condition. Predicate defaults to equality; an
// absent value with no predicate means the key must be present.
type Constraint struct {
	Key       string `yaml:"key"`
	Predicate string `yaml:"predicate,omitempty"`
	Value     any    `yaml:"value,omitempty"`
	// Absent requires the key to have no value.
	Absent bool `yaml:"absent,omitempty"`
}

// OrderSpec orders results by a property key.
type OrderSpec struct {
	Key   string `yaml:"key"`
	Order string `yaml:"order,omitempty"`
}

// Terminal operations.
const (
	ReturnEdges      = "edges"
	ReturnProperties = "properties"
	ReturnRelations  = "relations"
	ReturnVertices   = "vertices"
	ReturnCount      = "count"
)

// Assertion checks the output of one query.
type Assertion struct {
	// Type is one of rows, count, plan, error.
	Type  string `yaml:"type"`
	Query string `yaml:"query"`

	// Rows are the expected rendered results (used by rows).
	Rows []string `yaml:"rows,omitempty"`
	// Unordered compares rows as a multiset (used by rows).
	Unordered bool `yaml:"unordered,omitempty"`

	// Count is the expected number of results (used by count).
	Count *int `yaml:"count,omitempty"`

	// Simple and Subqueries describe the compiled plan (used by plan).
	Simple     *bool `yaml:"simple,omitempty"`
	Subqueries *int  `yaml:"subqueries,omitempty"`

	// Code is the expected query error code (used by error).
	Code string `yaml:"code,omitempty"`
}

// Assertion type constants.
const (
	AssertRows  = "rows"
	AssertCount = "count"
	AssertPlan  = "plan"
	AssertError = "error"
)

// LoadScenario reads and parses a scenario YAML file. The schema path is
// resolved relative to the scenario file. Unknown fields are rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	s, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}
	if s.Schema != "" && !filepath.IsAbs(s.Schema) {
		s.Schema = filepath.Join(filepath.Dir(path), s.Schema)
	}
	if _, err := os.Stat(s.Schema); err != nil {
		return nil, fmt.Errorf("invalid scenario: schema file not found: %s", s.Schema)
	}
	return s, nil
}

// ParseScenario decodes and validates a scenario document. The schema
// path is left as written.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateScenario(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &s, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Schema == "" {
		return fmt.Errorf("schema is required")
	}
	if len(s.Queries) == 0 {
		return fmt.Errorf("queries list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	names := make(map[string]bool)
	if err := validateSetup("graph", &s.Graph, names); err != nil {
		return err
	}
	if s.Changes != nil {
		if err := validateSetup("changes", s.Changes, names); err != nil {
			return err
		}
	}

	queries := make(map[string]bool, len(s.Queries))
	for i, q := range s.Queries {
		if err := validateQuery(i, &q, names); err != nil {
			return err
		}
		if queries[q.Name] {
			return fmt.Errorf("queries[%d]: duplicate name %q", i, q.Name)
		}
		queries[q.Name] = true
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a, queries); err != nil {
			return err
		}
	}
	return nil
}

// validateSetup checks vertex and edge references. names collects vertex
// and edge names across graph and changes.
func validateSetup(section string, g *GraphSetup, names map[string]bool) error {
	for i, v := range g.Vertices {
		if v.Name == "" {
			return fmt.Errorf("%s.vertices[%d]: name is required", section, i)
		}
		if section == "graph" && names[v.Name] {
			return fmt.Errorf("%s.vertices[%d]: duplicate name %q", section, i, v.Name)
		}
		if !names[v.Name] && v.Label == "" {
			return fmt.Errorf("%s.vertices[%d]: label is required", section, i)
		}
		names[v.Name] = true
	}
	for i, e := range g.Edges {
		if e.Label == "" {
			return fmt.Errorf("%s.edges[%d]: label is required", section, i)
		}
		for _, end := range []string{e.Out, e.In} {
			if !names[end] {
				return fmt.Errorf("%s.edges[%d]: unknown vertex %q", section, i, end)
			}
		}
		if e.Name != "" {
			if names[e.Name] {
				return fmt.Errorf("%s.edges[%d]: duplicate name %q", section, i, e.Name)
			}
			names[e.Name] = true
		}
	}
	for i, r := range g.Remove {
		if section == "graph" {
			return fmt.Errorf("graph.remove is only allowed in changes")
		}
		if !names[r] {
			return fmt.Errorf("%s.remove[%d]: unknown edge %q", section, i, r)
		}
	}
	return nil
}

func validateQuery(i int, q *QueryStep, names map[string]bool) error {
	if q.Name == "" {
		return fmt.Errorf("queries[%d]: name is required", i)
	}
	if (q.Vertex == "") == (len(q.Vertices) == 0) {
		return fmt.Errorf("queries[%d]: exactly one of vertex and vertices is required", i)
	}
	for _, v := range append([]string{q.Vertex}, q.Vertices...) {
		if v != "" && !names[v] {
			return fmt.Errorf("queries[%d]: unknown vertex %q", i, v)
		}
	}
	if q.Adjacent != "" && !names[q.Adjacent] {
		return fmt.Errorf("queries[%d]: unknown adjacent vertex %q", i, q.Adjacent)
	}
	switch q.Returns {
	case ReturnEdges, ReturnProperties, ReturnRelations, ReturnVertices, ReturnCount:
	default:
		return fmt.Errorf("queries[%d]: returns must be one of edges, properties, relations, vertices, count", i)
	}
	if _, err := graph.ParseDirection(q.Direction); err != nil {
		return fmt.Errorf("queries[%d]: %w", i, err)
	}
	for j, c := range q.Has {
		if c.Key == "" {
			return fmt.Errorf("queries[%d].has[%d]: key is required", i, j)
		}
		if c.Predicate != "" {
			if _, err := graph.ParsePredicate(c.Predicate); err != nil {
				return fmt.Errorf("queries[%d].has[%d]: %w", i, j, err)
			}
		}
	}
	if q.Order != nil {
		if _, err := graph.ParseOrder(q.Order.Order); err != nil {
			return fmt.Errorf("queries[%d].order: %w", i, err)
		}
	}
	return nil
}

func validateAssertion(index int, a *Assertion, queries map[string]bool) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}
	if !queries[a.Query] {
		return fmt.Errorf("assertions[%d]: unknown query %q", index, a.Query)
	}

	switch a.Type {
	case AssertRows:
		if a.Rows == nil {
			return fmt.Errorf("assertions[%d]: rows list is required for rows (use [] for none)", index)
		}
	case AssertCount:
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for count", index)
		}
	case AssertPlan:
		if a.Simple == nil && a.Subqueries == nil {
			return fmt.Errorf("assertions[%d]: simple or subqueries is required for plan", index)
		}
	case AssertError:
		if a.Code == "" {
			return fmt.Errorf("assertions[%d]: code is required for error", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
