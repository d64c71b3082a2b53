// Package geom holds the shared geometry used to quantize canvas positions
// onto generator step rings.
//
// Coordinates are integer canvas pixels. Only distances are floating point,
// and they never leave this package unquantized.
package geom

import "math"

// Point is a position on the canvas.
type Point struct {
	X int64 `json:"x" yaml:"x"`
	Y int64 `json:"y" yaml:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y int64) Point {
	return Point{X: x, Y: y}
}

// Sub returns the offset from q to p.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Point) float64 {
	d := a.Sub(b)
	return math.Hypot(float64(d.X), float64(d.Y))
}

// InRange reports whether b lies within maxRange of a. The boundary is inclusive.
func InRange(a, b Point, maxRange float64) bool {
	return Distance(a, b) <= maxRange
}

// Quantize maps a distance onto a step of a ring with stepCount steps.
//
// The range [0, maxRange] is cut into subdivision slots of equal width and the
// distance is floored onto a slot. Slots are spread over the ring so steps
// advance in increments of stepCount/subdivision. A distance of exactly
// maxRange lands in the last slot.
//
// ok is false when the distance is beyond maxRange or the parameters describe
// an empty ring.
func Quantize(distance, maxRange float64, subdivision, stepCount int) (step int, ok bool) {
	if subdivision <= 0 || stepCount <= 0 || maxRange <= 0 {
		return 0, false
	}
	if distance < 0 || distance > maxRange || math.IsNaN(distance) {
		return 0, false
	}

	// Scale before dividing so exact slot boundaries are not rounded down.
	slot := int(math.Floor(distance * float64(subdivision) / maxRange))
	if slot >= subdivision {
		slot = subdivision - 1
	}

	step = slot * stepCount / subdivision
	if step < 0 || step >= stepCount {
		return 0, false
	}
	return step, true
}
