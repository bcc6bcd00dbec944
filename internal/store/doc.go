// Package store provides SQLite-backed durable storage for session journals.
//
// A session is one engine lifetime. Every pipeline step the engine takes
// (append, hoist, bind, commit, erase, and the outcome of each device
// compile) is appended as an event row.
//
// # Ordering
//
// Events are ordered by their seq column, a logical clock stamped by the
// engine, NEVER by timestamps or insertion order. All queries include
// ORDER BY seq ASC, id ASC so two reads of the same session agree.
//
// # Idempotency
//
// UNIQUE(session_id, seq) with ON CONFLICT DO NOTHING: writing the same
// event twice is a no-op.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
