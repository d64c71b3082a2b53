// Package engine keeps generator step maps and visual connections in sync
// with the canvas.
//
// The host delivers lifecycle events (clock start, element created, removed,
// moved, attributes changed). Each event is handled to completion before the
// next starts: Handle for synchronous hosts, or Enqueue plus a single Run
// goroutine for hosts that emit events from several goroutines.
//
// Handlers never trust cached geometry. Positions are read from the spatial
// index at the moment an event is handled, so a generator and the elements
// registered on it always reflect the latest layout.
//
// Every handled event and every mutation it causes is stamped from the
// logical Clock and, when a Journal is configured, written to it. Journal
// failures are logged and never abort a handler.
//
// Identifiers that are unknown at handling time (a generator deleted before
// an attribute change arrives, a move for an element already gone) are
// no-ops. Invariant violations are returned as RuntimeError.
package engine
