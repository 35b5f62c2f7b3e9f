package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalScenario = `
name: minimal
description: "Smallest valid scenario"
schema: social.cue
graph:
  vertices:
    - { name: alice, label: person }
queries:
  - name: q
    vertex: alice
    returns: edges
assertions:
  - type: count
    query: q
    count: 0
`

func writeScenario(t *testing.T, dir, content string) string {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "social.cue"), []byte("propertyKeys: name: {}\n"), 0644))
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	dir := t.TempDir()
	path := writeScenario(t, dir, minimalScenario)

	s, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "minimal", s.Name)
	assert.Equal(t, filepath.Join(dir, "social.cue"), s.Schema, "schema resolved next to the scenario")
	require.Len(t, s.Graph.Vertices, 1)
	require.Len(t, s.Queries, 1)
	assert.Equal(t, ReturnEdges, s.Queries[0].Returns)
	require.Len(t, s.Assertions, 1)
	assert.Equal(t, 0, *s.Assertions[0].Count)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_MissingSchema(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalScenario), 0644))

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema file not found")
}

func TestParseScenario_UnknownField(t *testing.T) {
	_, err := ParseScenario([]byte(minimalScenario + "assertion: []\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_Invalid(t *testing.T) {
	base := func(graph, queries, assertions string) string {
		return "name: bad\ndescription: \"bad\"\nschema: s.cue\n" + graph + queries + assertions
	}
	graph := "graph:\n  vertices:\n    - { name: a, label: person }\n    - { name: b, label: person }\n"
	query := "queries:\n  - { name: q, vertex: a, returns: edges }\n"
	assertion := "assertions:\n  - { type: count, query: q, count: 1 }\n"

	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"missing name", "description: x\nschema: s.cue\n" + graph + query + assertion, "name is required"},
		{"missing schema", "name: x\ndescription: x\n" + graph + query + assertion, "schema is required"},
		{"no queries", base(graph, "", assertion), "queries list is required"},
		{"no assertions", base(graph, query, ""), "assertions list is required"},
		{"duplicate vertex", base(graph+"    - { name: a, label: person }\n", query, assertion), `duplicate name "a"`},
		{"vertex without label", base("graph:\n  vertices:\n    - { name: a }\n", query, assertion), "label is required"},
		{"edge to unknown vertex", base(graph+"  edges:\n    - { label: knows, out: a, in: z }\n", query, assertion), `unknown vertex "z"`},
		{"remove in graph", base(graph+"  remove: [a]\n", query, assertion), "only allowed in changes"},
		{"vertex and vertices", base(graph, "queries:\n  - { name: q, vertex: a, vertices: [b], returns: edges }\n", assertion), "exactly one of vertex and vertices"},
		{"unknown query vertex", base(graph, "queries:\n  - { name: q, vertex: z, returns: edges }\n", assertion), `unknown vertex "z"`},
		{"bad returns", base(graph, "queries:\n  - { name: q, vertex: a, returns: paths }\n", assertion), "returns must be one of"},
		{"bad direction", base(graph, "queries:\n  - { name: q, vertex: a, returns: edges, direction: up }\n", assertion), "unknown direction"},
		{"bad predicate", base(graph, "queries:\n  - name: q\n    vertex: a\n    returns: edges\n    has: [{ key: age, predicate: like, value: 1 }]\n", assertion), "unknown predicate"},
		{"bad order", base(graph, "queries:\n  - name: q\n    vertex: a\n    returns: edges\n    order: { key: age, order: up }\n", assertion), "unknown order"},
		{"duplicate query", base(graph, query+"  - { name: q, vertex: b, returns: edges }\n", assertion), `duplicate name "q"`},
		{"unknown assertion query", base(graph, query, "assertions:\n  - { type: count, query: z, count: 1 }\n"), `unknown query "z"`},
		{"unknown assertion type", base(graph, query, "assertions:\n  - { type: trace, query: q }\n"), `unknown assertion type "trace"`},
		{"rows without rows", base(graph, query, "assertions:\n  - { type: rows, query: q }\n"), "rows list is required"},
		{"negative count", base(graph, query, "assertions:\n  - { type: count, query: q, count: -1 }\n"), "non-negative count"},
		{"empty plan", base(graph, query, "assertions:\n  - { type: plan, query: q }\n"), "simple or subqueries"},
		{"error without code", base(graph, query, "assertions:\n  - { type: error, query: q }\n"), "code is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseScenario_ChangesMayExtendGraphVertices(t *testing.T) {
	doc := `
name: changes
description: "Changes refer to committed vertices and edges"
schema: s.cue
graph:
  vertices:
    - { name: a, label: person }
    - { name: b, label: person }
  edges:
    - { name: ab, label: knows, out: a, in: b }
changes:
  vertices:
    - name: a
      properties: { name: x }
    - { name: c, label: person }
  edges:
    - { label: knows, out: a, in: c }
  remove: [ab]
queries:
  - { name: q, vertices: [a, c], returns: count }
assertions:
  - { type: rows, query: q, rows: [] }
`
	s, err := ParseScenario([]byte(doc))
	require.NoError(t, err)
	require.NotNil(t, s.Changes)
	assert.Equal(t, []string{"ab"}, s.Changes.Remove)
	assert.NotNil(t, s.Assertions[0].Rows)
	assert.Empty(t, s.Assertions[0].Rows)
}
