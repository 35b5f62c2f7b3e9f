// Package harness runs graph query scenarios.
//
// A scenario names a CUE schema, a graph to write, optional uncommitted
// changes, the queries to run and assertions on their results. It is the
// executable form of the query behaviors the engine promises.
//
// # Scenario Format
//
//	name: knows_out
//	description: "Outgoing knows edges of alice"
//	schema: ../schemas/social.cue
//	graph:
//	  vertices:
//	    - name: alice
//	      label: person
//	      properties: { age: 30 }
//	    - name: bob
//	      label: person
//	  edges:
//	    - label: knows
//	      out: alice
//	      in: bob
//	      properties: { weight: 3 }
//	queries:
//	  - name: friends
//	    vertex: alice
//	    returns: edges
//	    types: [knows]
//	    direction: out
//	    has:
//	      - { key: weight, predicate: gt, value: 1 }
//	    limit: 10
//	assertions:
//	  - type: rows
//	    query: friends
//	    rows: ["knows->bob"]
//
// A query runs on one vertex (vertex) or on several (vertices). returns
// is one of edges, properties, relations, vertices or count.
//
// # Rows
//
// Results are rendered relative to the queried vertex: key=value for a
// property, label->name for an outgoing edge, label<-name for an incoming
// one, and the vertex name for vertices. Rows of a multi-vertex query
// are prefixed with "name: ".
//
// # Assertion Types
//
//   - rows: the rendered rows, in order unless unordered is set
//   - count: the number of results
//   - plan: whether the compiled query is simple, and its subquery count
//   - error: the query error code (INVALID_ARGUMENT, UNSUPPORTED_QUERY,
//     QUERY_TOO_LARGE)
//
// # Golden Snapshots
//
// Snapshot renders rows and plans as canonical JSON; RunWithGolden
// compares it with testdata/golden using goldie.
package harness
