// Package tx implements the transaction context queries run in.
//
// A Graph binds a store, a schema and the relation codec. A Tx created from
// it tracks vertex handles and their lifecycle, relations added or removed
// since the transaction began, and a per-row cache of slice reads. Queries
// read committed data through the cache and merge the transaction's own
// changes in memory; nothing reaches the store before Commit.
//
// # Partitioned vertices
//
// A partitioned vertex is stored across several representative rows that
// share one canonical id (see graph.RepresentativeID). Properties and
// relations unique in a direction live on the canonical representative;
// every other relation is assigned to a representative by its relation id.
// Relation endpoints always carry canonical ids.
//
// # Batched reads
//
// Prefetch warms the cache for many rows with one slice. Stores with native
// multi-key reads are asked once; otherwise the reads fan out over a
// bounded worker pool and run on the calling goroutine when the pool is
// saturated. Every failed row is reported in a single *BatchError.
package tx
