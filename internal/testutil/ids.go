package testutil

import (
	"fmt"
	"sync"
)

// SequentialIDs issues predictable handles ("conn-1", "conn-2", ...).
//
// This enables deterministic test execution and golden trace comparison:
// the same scenario always produces the same connection handles.
//
// Thread-safety: SequentialIDs is safe for concurrent use via internal mutex.
type SequentialIDs struct {
	mu     sync.Mutex
	prefix string
	next   int
}

// NewSequentialIDs creates a generator with the given prefix.
// If prefix is empty, "conn" is used.
func NewSequentialIDs(prefix string) *SequentialIDs {
	if prefix == "" {
		prefix = "conn"
	}
	return &SequentialIDs{prefix: prefix}
}

// Generate returns the next handle.
func (g *SequentialIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	return fmt.Sprintf("%s-%d", g.prefix, g.next)
}

// Reset restarts the sequence at 1.
func (g *SequentialIDs) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next = 0
}
