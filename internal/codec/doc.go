// Package codec lays relations out as columns of their vertex row.
//
// Columns of one type and direction are contiguous and ordered by the
// type's extended sort key, so a conjunction of point constraints on a
// prefix of that key, optionally followed by one range, is a single slice.
// TypeSlice builds those slices; CategorySlice covers every relation of a
// category when a query names no types.
package codec
