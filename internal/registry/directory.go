// Package registry keeps the live generators, keyed by the identifier of the
// start-trigger that owns them.
package registry

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/roach88/stepfield/internal/generator"
)

// ErrDuplicateGenerator is returned when a generator id is already registered.
var ErrDuplicateGenerator = errors.New("generator already registered")

// Directory is the in-memory generator directory.
//
// Only the engine's single writer mutates it. The mutex lets diagnostic
// readers (CLI, harness snapshots) look at it from other goroutines.
type Directory struct {
	mu         sync.RWMutex
	generators map[string]*generator.Generator
}

// NewDirectory creates an empty directory.
func NewDirectory() *Directory {
	return &Directory{generators: make(map[string]*generator.Generator)}
}

// Add registers g. Identifiers are unique.
func (d *Directory) Add(g *generator.Generator) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.generators[g.ID]; ok {
		return fmt.Errorf("add %s: %w", g.ID, ErrDuplicateGenerator)
	}
	d.generators[g.ID] = g
	return nil
}

// Remove deletes the generator with the given id and reports whether it existed.
func (d *Directory) Remove(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.generators[id]; !ok {
		return false
	}
	delete(d.generators, id)
	return true
}

// Get returns the generator with the given id.
func (d *Directory) Get(id string) (*generator.Generator, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	g, ok := d.generators[id]
	return g, ok
}

// All returns every live generator ordered by id, so that scans over the
// directory are deterministic.
func (d *Directory) All() []*generator.Generator {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]*generator.Generator, 0, len(d.generators))
	for _, g := range d.generators {
		out = append(out, g)
	}
	slices.SortFunc(out, func(a, b *generator.Generator) int {
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

// Len returns the number of live generators.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.generators)
}
