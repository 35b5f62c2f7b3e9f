// Package store defines the ordered key/column/value contract the query
// engine reads through, and implements it on SQLite.
//
// A row is a vertex; its columns are encoded relations. Columns sort
// bytewise, so every slice query is a single contiguous range scan.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//
// Other backends live in subpackages: memkv (tidwall/btree) and badgerkv
// (badger). All of them share the conformance tests in storetest.
package store
