// Package store is the SQLite journal of handled events.
//
// Two append-only tables:
//   - events: one row per lifecycle event the engine handled, with its
//     canonical JSON payload
//   - mutations: every register, unregister, connect, disconnect, and
//     generator change an event caused
//
// All ordering uses the engine's logical seq, never wall time. Reads order
// by seq ASC, id ASC COLLATE BINARY so a session reads back identically on
// every run.
//
// Writes are idempotent: re-journaling an event with the same
// content-addressed id is a no-op.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL
//   - busy_timeout=5000
//   - foreign_keys=ON: a mutation must reference a journaled event
package store
