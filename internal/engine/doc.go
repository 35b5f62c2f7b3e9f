// Package engine executes compiled vertex-centric queries against a
// transaction.
//
// A query runs per vertex row. When the compiled query is a single fitted
// and sorted slice and the vertex has no uncommitted changes, the slice
// result is the answer (the simple path). Otherwise every subquery is read,
// filtered in memory against the vertex condition and the transaction's
// changes, and merged: by the query order when there is one, by
// concatenation when there is not. Relations are de-duplicated by id and
// the result limit applied last.
//
// Partitioned vertices fan out over their representative rows unless every
// queried type lives on the canonical row. Multi-vertex queries compile
// once and warm the transaction cache with one batched read per subquery
// before the per-vertex results are assembled from memory.
//
// Results are produced lazily: a slice is re-read with a doubled limit only
// while the consumer keeps pulling.
package engine
