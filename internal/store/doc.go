// Package store provides SQLite-backed storage for build history and the
// transpilation cache.
//
// Every build is recorded with the hash of its sources. Successful builds
// also keep their generated units, so an identical later build can reuse
// them instead of running the pipeline again.
//
// # Ordering
//
// Builds carry a seq INTEGER assigned by the store (a logical clock, never
// timestamps). Queries order by seq, then id, so results are identical
// across runs. Units are returned in emission order.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Unit content hashes use SHA-256 with domain separation, the same scheme
// as compiler.SourceHash.
package store
