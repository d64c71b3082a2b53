// Package harness runs scenario files against the real engine.
//
// A scenario drives an in-memory canvas through a list of edits. Each edit
// is applied to the canvas and then delivered to the engine as the matching
// lifecycle event, exactly as a host would. The engine journals into an
// in-memory SQLite store, and the journal is read back as the trace.
//
// # Scenario Format
//
//	name: move_out_of_range
//	description: "A sound dragged out of range loses its step and connector"
//	config:
//	  subdivision: 16
//	events:
//	  - type: create
//	    id: g
//	    element: start-trigger
//	    at: {x: 0, y: 0}
//	  - type: create
//	    id: a
//	    element: sound
//	    at: {x: 100, y: 0}
//	  - type: move
//	    id: a
//	    at: {x: 900, y: 0}
//	assertions:
//	  - type: unregistered
//	    generator: g
//	    element: a
//	  - type: not_connected
//	    generator: g
//	    element: a
//
// Event types: clock_start, create, move, remove, set_subdivision. An event
// marked silent edits the canvas without notifying the engine, which models
// a host that dropped a notification.
//
// Assertion types: step, step_map, unregistered, connected, not_connected,
// generator_count, connection_count.
//
// # Determinism
//
// Connection handles come from a sequential generator ("conn-1", ...) and
// the journal session is the scenario name, so the same scenario always
// produces the same trace. RunWithGolden compares that trace against
// testdata/golden/<name>.golden; regenerate with
//
//	go test ./internal/harness -update
package harness
