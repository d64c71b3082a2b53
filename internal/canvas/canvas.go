package canvas

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/roach88/stepfield/internal/geom"
)

var (
	// ErrUnknownElement is returned when an element id is not on the canvas.
	ErrUnknownElement = errors.New("unknown element")

	// ErrUnknownConnection is returned when a connection handle does not exist.
	ErrUnknownConnection = errors.New("unknown connection")
)

// ConnectionID is the handle of a drawn connection.
type ConnectionID string

// Connection is a directed visual link from a generator to an element.
type Connection struct {
	ID     ConnectionID `json:"id"`
	Source string       `json:"source"`
	Target string       `json:"target"`
}

// Canvas holds elements and connections in memory.
type Canvas struct {
	mu          sync.RWMutex
	elements    map[string]Element
	connections map[ConnectionID]Connection
	ids         IDGenerator
}

// New creates an empty canvas. A nil ids uses UUIDv7Generator.
func New(ids IDGenerator) *Canvas {
	if ids == nil {
		ids = UUIDv7Generator{}
	}
	return &Canvas{
		elements:    make(map[string]Element),
		connections: make(map[ConnectionID]Connection),
		ids:         ids,
	}
}

// Put adds or replaces an element.
func (c *Canvas) Put(e Element) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.elements[e.ID] = e
}

// Move sets the position of an element and returns the updated element.
func (c *Canvas) Move(id string, to geom.Point) (Element, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.elements[id]
	if !ok {
		return Element{}, false
	}
	e.Position = to
	c.elements[id] = e
	return e, true
}

// SetSubdivision sets the subdivision attribute of an element.
func (c *Canvas) SetSubdivision(id string, subdivision int) (Element, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.elements[id]
	if !ok {
		return Element{}, false
	}
	e.Subdivision = subdivision
	c.elements[id] = e
	return e, true
}

// Delete removes an element together with every connection attached to it,
// the way the host editor does.
func (c *Canvas) Delete(id string) (Element, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.elements[id]
	if !ok {
		return Element{}, false
	}
	delete(c.elements, id)
	for cid, conn := range c.connections {
		if conn.Source == id || conn.Target == id {
			delete(c.connections, cid)
		}
	}
	return e, true
}

// Get returns the element with the given id.
func (c *Canvas) Get(id string) (Element, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.elements[id]
	return e, ok
}

// Position returns the current position of an element.
func (c *Canvas) Position(id string) (geom.Point, bool) {
	e, ok := c.Get(id)
	return e.Position, ok
}

// Filter returns the elements matching keep, ordered by id.
func (c *Canvas) Filter(keep func(Element) bool) []Element {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Element, 0)
	for _, e := range c.elements {
		if keep(e) {
			out = append(out, e)
		}
	}
	slices.SortFunc(out, func(a, b Element) int {
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

// Connect draws a connection from source to target.
func (c *Canvas) Connect(source, target string) (ConnectionID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.elements[source]; !ok {
		return "", fmt.Errorf("connect source %s: %w", source, ErrUnknownElement)
	}
	if _, ok := c.elements[target]; !ok {
		return "", fmt.Errorf("connect target %s: %w", target, ErrUnknownElement)
	}

	id := ConnectionID(c.ids.Generate())
	c.connections[id] = Connection{ID: id, Source: source, Target: target}
	return id, nil
}

// Disconnect removes a connection.
func (c *Canvas) Disconnect(id ConnectionID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.connections[id]; !ok {
		return fmt.Errorf("disconnect %s: %w", id, ErrUnknownConnection)
	}
	delete(c.connections, id)
	return nil
}

// Between returns the handles of every connection from source to target,
// ordered by handle.
func (c *Canvas) Between(source, target string) []ConnectionID {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []ConnectionID
	for id, conn := range c.connections {
		if conn.Source == source && conn.Target == target {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}

// Connections returns every connection ordered by source, target, then handle.
func (c *Canvas) Connections() []Connection {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Connection, 0, len(c.connections))
	for _, conn := range c.connections {
		out = append(out, conn)
	}
	slices.SortFunc(out, func(a, b Connection) int {
		if n := strings.Compare(a.Source, b.Source); n != 0 {
			return n
		}
		if n := strings.Compare(a.Target, b.Target); n != 0 {
			return n
		}
		return strings.Compare(string(a.ID), string(b.ID))
	})
	return out
}
