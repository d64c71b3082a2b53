// Package canvas is an in-memory stand-in for the host diagram.
//
// The engine consumes the host only through narrow roles: a spatial index
// that resolves element geometry, a connection editor that draws and removes
// generator links, and a classifier that tells start-triggers from
// sound-producing elements. Canvas implements all three so the engine can be
// driven from tests, scenario files, and the CLI without a real editor.
//
// Canvas is safe for concurrent use.
package canvas
