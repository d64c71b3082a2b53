// Package generator implements the step ring owned by each start-trigger.
//
// A Generator quantizes the position of nearby elements onto one of its
// StepCount steps and remembers which elements occupy which step. An element
// occupies at most one step of a given generator at any time.
//
// Generators are not safe for concurrent use. They are mutated only by the
// engine's single writer.
package generator

import (
	"errors"
	"fmt"
	"slices"

	"github.com/roach88/stepfield/internal/geom"
)

// Defaults for newly created generators.
const (
	// DefaultSubdivision is the number of slots the range is cut into.
	DefaultSubdivision = 16

	// DefaultMaxRange is the distance beyond which an element is out of range.
	DefaultMaxRange = 600.0
)

// ErrStepOutOfRing is returned when a step index is outside [0, StepCount).
var ErrStepOutOfRing = errors.New("step outside ring")

// ErrInvalidSubdivision is returned for a subdivision that is not positive.
var ErrInvalidSubdivision = errors.New("subdivision must be positive")

// Locator resolves the current canvas position of an element or generator.
type Locator interface {
	Position(id string) (geom.Point, bool)
}

// Generator owns one cyclic ring of steps.
type Generator struct {
	// ID is shared with the start-trigger shape that owns the generator.
	ID string

	stepCount   int
	subdivision int
	maxRange    float64

	steps map[int][]string // step -> occupants in insertion order
	where map[string]int   // occupant -> step
}

// New creates a generator with an empty ring.
func New(id string, stepCount, subdivision int, maxRange float64) *Generator {
	return &Generator{
		ID:          id,
		stepCount:   stepCount,
		subdivision: subdivision,
		maxRange:    maxRange,
		steps:       make(map[int][]string),
		where:       make(map[string]int),
	}
}

// StepCount returns the number of steps in the ring.
func (g *Generator) StepCount() int { return g.stepCount }

// Subdivision returns the current subdivision.
func (g *Generator) Subdivision() int { return g.subdivision }

// MaxRange returns the in-range distance limit.
func (g *Generator) MaxRange() float64 { return g.maxRange }

// CalculateStepNumber maps target onto a step of this generator placed at
// origin. It returns false when target is out of range. The result depends only
// on the two positions and the generator's parameters.
func (g *Generator) CalculateStepNumber(origin, target geom.Point) (int, bool) {
	return geom.Quantize(geom.Distance(origin, target), g.maxRange, g.subdivision, g.stepCount)
}

// RegisterElement places element on step. Registering an element on the step
// it already occupies is a no-op. An element registered elsewhere is moved.
func (g *Generator) RegisterElement(step int, element string) error {
	if step < 0 || step >= g.stepCount {
		return fmt.Errorf("register %s at %d on %s: %w", element, step, g.ID, ErrStepOutOfRing)
	}
	if cur, ok := g.where[element]; ok {
		if cur == step {
			return nil
		}
		g.detach(cur, element)
	}
	g.steps[step] = append(g.steps[step], element)
	g.where[element] = step
	return nil
}

// UpdateElement removes element from any step it occupies and registers it on step.
func (g *Generator) UpdateElement(step int, element string) error {
	if step < 0 || step >= g.stepCount {
		return fmt.Errorf("update %s to %d on %s: %w", element, step, g.ID, ErrStepOutOfRing)
	}
	g.RemoveElement(element)
	return g.RegisterElement(step, element)
}

// RemoveElement removes element from whichever step holds it.
// It reports whether the element was registered.
func (g *Generator) RemoveElement(element string) bool {
	step, ok := g.where[element]
	if !ok {
		return false
	}
	g.detach(step, element)
	return true
}

// RemoveSound removes element from step only. It is a no-op when the element
// is not on that step.
func (g *Generator) RemoveSound(step int, element string) bool {
	if cur, ok := g.where[element]; !ok || cur != step {
		return false
	}
	g.detach(step, element)
	return true
}

// GetStepNumFromSound returns the step element occupies.
func (g *Generator) GetStepNumFromSound(element string) (int, bool) {
	step, ok := g.where[element]
	return step, ok
}

// UpdateSubdivision switches to a new subdivision and re-quantizes every
// occupant relative to the generator's own position. Occupants that no longer
// map to a step, or whose position cannot be resolved, are dropped and
// returned in ring order.
func (g *Generator) UpdateSubdivision(subdivision int, locate Locator) ([]string, error) {
	if subdivision <= 0 {
		return nil, fmt.Errorf("update subdivision of %s to %d: %w", g.ID, subdivision, ErrInvalidSubdivision)
	}

	occupants := g.ordered()
	g.subdivision = subdivision
	g.steps = make(map[int][]string, len(g.steps))
	g.where = make(map[string]int, len(occupants))

	origin, ok := locate.Position(g.ID)
	if !ok {
		return occupants, nil
	}

	var dropped []string
	for _, element := range occupants {
		pos, ok := locate.Position(element)
		if !ok {
			dropped = append(dropped, element)
			continue
		}
		step, ok := g.CalculateStepNumber(origin, pos)
		if !ok {
			dropped = append(dropped, element)
			continue
		}
		if err := g.RegisterElement(step, element); err != nil {
			return dropped, err
		}
	}
	return dropped, nil
}

// Occupants returns a copy of the elements on step in registration order.
func (g *Generator) Occupants(step int) []string {
	return slices.Clone(g.steps[step])
}

// Steps returns the occupied step indices in ascending order.
func (g *Generator) Steps() []int {
	steps := make([]int, 0, len(g.steps))
	for s := range g.steps {
		steps = append(steps, s)
	}
	slices.Sort(steps)
	return steps
}

// Len returns the number of registered elements.
func (g *Generator) Len() int {
	return len(g.where)
}

// Snapshot returns a deep copy of the step map.
func (g *Generator) Snapshot() map[int][]string {
	out := make(map[int][]string, len(g.steps))
	for s, els := range g.steps {
		out[s] = slices.Clone(els)
	}
	return out
}

// Verify checks the single-occupancy invariant. A violation means a caller
// bypassed the registration methods and is reported as an *InvariantError.
func (g *Generator) Verify() error {
	seen := make(map[string]int, len(g.where))
	for _, step := range g.Steps() {
		for _, el := range g.steps[step] {
			if prev, dup := seen[el]; dup {
				return &InvariantError{
					Generator: g.ID,
					Element:   el,
					Message:   fmt.Sprintf("registered on steps %d and %d", prev, step),
				}
			}
			seen[el] = step
			if idx, ok := g.where[el]; !ok || idx != step {
				return &InvariantError{
					Generator: g.ID,
					Element:   el,
					Message:   fmt.Sprintf("index disagrees with step %d", step),
				}
			}
		}
	}
	if len(seen) != len(g.where) {
		return &InvariantError{
			Generator: g.ID,
			Message:   fmt.Sprintf("index holds %d elements, ring holds %d", len(g.where), len(seen)),
		}
	}
	return nil
}

// ordered lists occupants by ascending step, then registration order.
func (g *Generator) ordered() []string {
	out := make([]string, 0, len(g.where))
	for _, s := range g.Steps() {
		out = append(out, g.steps[s]...)
	}
	return out
}

func (g *Generator) detach(step int, element string) {
	els := g.steps[step]
	if i := slices.Index(els, element); i >= 0 {
		els = slices.Delete(els, i, i+1)
	}
	if len(els) == 0 {
		delete(g.steps, step)
	} else {
		g.steps[step] = els
	}
	delete(g.where, element)
}
