// Package schema describes relation types: property keys, edge labels and
// the relation indexes built over them.
//
// A type's sort key and storage direction determine the physical order of
// its relations inside a vertex row, which is what lets the query compiler
// turn property constraints into contiguous column ranges. Relation indexes
// store the same relations again under a different sort key; the compiler
// scores every enabled index and picks the best one per query.
//
// Schemas are built programmatically through Registry or loaded from a CUE
// document with LoadCUE.
package schema
