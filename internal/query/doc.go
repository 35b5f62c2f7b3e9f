// Package query builds and compiles vertex-centric queries.
//
// A Builder accumulates constraints into an immutable Spec. Compile
// resolves the Spec against the schema, folds its constraints into
// intervals, picks the best relation index per type and direction, and
// emits the slices a store must scan. The resulting BaseQuery is bound to
// a vertex with ForVertex and executed by the engine.
//
// Each subquery is tagged fitted (the slice bounds enforce every
// constraint) and sorted (the slice order is the requested order). A
// query with exactly one fitted and sorted subquery is simple and can be
// answered straight from storage.
package query
