// Package store provides SQLite-backed durable storage for quotesync.
//
// One database file holds:
//   - Records: the local quote collection, in display order
//   - Conflicts: the append-only conflict ledger
//   - Categories: known category names, in registration order
//   - Sync State: last attempt time
//
// Store implements engine.LocalStore, engine.Ledger, engine.CategoryRegistry
// and engine.AttemptRecorder, so a single value can back a scheduler.
//
// # Critical Patterns
//
// Atomic Replace:
//   - Update reads, transforms and rewrites the records table in one
//     transaction
//   - Readers never observe a half-applied merge
//
// Ledger Write-Once:
//   - Detection columns are never updated
//   - The override columns change at most once (overridden = 0 guard)
//
// Ordering:
//   - Records ORDER BY pos, conflicts and categories ORDER BY seq
//   - Ledger indexes are positions in seq order
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - Single connection: writers are serialized in-process
//
// Memory is a process-local LocalStore for tests and dry runs.
package store
