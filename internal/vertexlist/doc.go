// Package vertexlist holds the vertex results of multi-vertex queries.
//
// Three representations share one contract (List):
//   - ArrayList keeps vertex handles
//   - IDList keeps opaque graph.VertexID values
//   - LongList keeps raw int64 ids
//
// Every list tracks whether its elements are in ascending id order. Add
// keeps the flag current by comparing against the tail; AddAll merges two
// sorted lists in linear time and otherwise concatenates and clears the
// flag. Sort is a no-op on a sorted list.
package vertexlist
