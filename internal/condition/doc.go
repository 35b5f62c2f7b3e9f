// Package condition provides the boolean filter tree evaluated against
// relations that a storage slice could not filter exactly.
//
// Compiled queries keep their conditions in query normal form (QNF): an And
// of literals and Ors of literals. The compiler relies on this shape to
// derive per-key intervals; the execution engine evaluates the same tree in
// memory for unfitted slices and for relations added in a transaction.
package condition
