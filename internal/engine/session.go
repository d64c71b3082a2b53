package engine

import (
	"sync"

	"github.com/google/uuid"
)

// SessionGenerator produces journal session ids. One session covers the
// lifetime of an Engine.
type SessionGenerator interface {
	Generate() string
}

// UUIDv7Generator produces time-ordered session ids, so sessions listed by
// id come out in creation order.
type UUIDv7Generator struct{}

// Generate implements SessionGenerator.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator hands out predetermined session ids, for golden traces.
type FixedGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedGenerator returns a generator yielding ids in order.
func NewFixedGenerator(ids ...string) *FixedGenerator {
	return &FixedGenerator{ids: ids}
}

// Generate implements SessionGenerator. It panics once the ids run out;
// a test that asks for more sessions than it declared is misconfigured.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.ids) {
		panic("engine: FixedGenerator exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}
