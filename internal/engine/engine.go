package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/roach88/stepfield/internal/canvas"
	"github.com/roach88/stepfield/internal/generator"
	"github.com/roach88/stepfield/internal/geom"
	"github.com/roach88/stepfield/internal/ir"
	"github.com/roach88/stepfield/internal/registry"
)

// DefaultNumSteps is the ring size used until a clock-start event arrives.
const DefaultNumSteps = 16

// Directory maps generator ids to generators. Implemented by
// *registry.Directory.
type Directory interface {
	Add(g *generator.Generator) error
	Remove(id string) bool
	Get(id string) (*generator.Generator, bool)
	All() []*generator.Generator
}

// SpatialIndex answers position and membership queries about the canvas.
// Implemented by *canvas.Canvas.
type SpatialIndex interface {
	Get(id string) (canvas.Element, bool)
	Position(id string) (geom.Point, bool)
	Filter(keep func(canvas.Element) bool) []canvas.Element
}

// ConnectionEditor draws and erases generator-to-element connectors.
// Implemented by *canvas.Canvas.
type ConnectionEditor interface {
	Connect(source, target string) (canvas.ConnectionID, error)
	Disconnect(id canvas.ConnectionID) error
	Between(source, target string) []canvas.ConnectionID
}

// Deps are the host roles the engine works against. Index and Connections
// are required. Directory defaults to an empty registry.Directory,
// Classifier to canvas.TypeClassifier, and a nil Journal records nothing.
type Deps struct {
	Directory   Directory
	Index       SpatialIndex
	Connections ConnectionEditor
	Classifier  canvas.Classifier
	Journal     Journal
}

// Engine is the synchronization controller.
//
// Thread-safety model:
//   - Handle: one event at a time; concurrent calls serialize on mu.
//   - Enqueue: safe from any goroutine.
//   - Run: exactly one goroutine.
//   - StepMap, Occupants, Generators: safe from any goroutine.
type Engine struct {
	mu sync.RWMutex

	dir      Directory
	index    SpatialIndex
	conns    ConnectionEditor
	classify canvas.Classifier
	journal  Journal

	logger   *slog.Logger
	clock    *Clock
	queue    *eventQueue
	dispatch *Dispatcher
	sessions SessionGenerator
	session  string

	subdivision int
	maxRange    float64
	numSteps    int

	// Per-event state, valid only inside Handle.
	current string
	touched map[string]struct{}
}

// Option configures an Engine.
type Option func(*Engine)

// WithSubdivision sets the subdivision given to new generators.
func WithSubdivision(n int) Option {
	return func(e *Engine) { e.subdivision = n }
}

// WithMaxRange sets the in-range distance limit for new generators.
func WithMaxRange(r float64) Option {
	return func(e *Engine) { e.maxRange = r }
}

// WithNumSteps sets the ring size used before any clock-start event.
func WithNumSteps(n int) Option {
	return func(e *Engine) { e.numSteps = n }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithSessionGenerator sets the source of the journal session id.
// Defaults to UUIDv7Generator.
func WithSessionGenerator(g SessionGenerator) Option {
	return func(e *Engine) { e.sessions = g }
}

// WithClock replaces the logical clock, for resuming a journal session.
func WithClock(c *Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// New creates an Engine wired to deps.
func New(deps Deps, opts ...Option) (*Engine, error) {
	if deps.Index == nil {
		return nil, errors.New("engine: spatial index is required")
	}
	if deps.Connections == nil {
		return nil, errors.New("engine: connection editor is required")
	}

	e := &Engine{
		dir:         deps.Directory,
		index:       deps.Index,
		conns:       deps.Connections,
		classify:    deps.Classifier,
		journal:     deps.Journal,
		logger:      slog.Default(),
		clock:       NewClock(),
		queue:       newEventQueue(),
		dispatch:    NewDispatcher(),
		sessions:    UUIDv7Generator{},
		subdivision: generator.DefaultSubdivision,
		maxRange:    generator.DefaultMaxRange,
		numSteps:    DefaultNumSteps,
	}
	if e.dir == nil {
		e.dir = registry.NewDirectory()
	}
	if e.classify == nil {
		e.classify = canvas.TypeClassifier{}
	}
	for _, opt := range opts {
		opt(e)
	}

	switch {
	case e.subdivision <= 0:
		return nil, fmt.Errorf("engine: subdivision must be positive, got %d", e.subdivision)
	case e.maxRange <= 0:
		return nil, fmt.Errorf("engine: max range must be positive, got %g", e.maxRange)
	case e.numSteps <= 0:
		return nil, fmt.Errorf("engine: num steps must be positive, got %d", e.numSteps)
	}

	e.session = e.sessions.Generate()
	e.register()
	return e, nil
}

// register subscribes the lifecycle handlers.
func (e *Engine) register() {
	on(e.dispatch, KindClockStart, e.onClockStart)
	on(e.dispatch, KindElementCreated, e.onElementCreated)
	on(e.dispatch, KindElementRemoved, e.onElementRemoved)
	on(e.dispatch, KindElementMoved, e.onElementMoved)
	on(e.dispatch, KindAttributesChanged, e.onAttributesChanged)
}

// Session returns the journal session id of this engine.
func (e *Engine) Session() string {
	return e.session
}

// NumSteps returns the ring size new generators are created with.
func (e *Engine) NumSteps() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.numSteps
}

// Handle applies one event to completion.
//
// Errors from individual generators do not stop the others; they are
// joined into the returned error.
func (e *Engine) Handle(ctx context.Context, ev Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ev == nil {
		return &RuntimeError{Code: ErrCodeInvalidEvent, Message: "nil event"}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	seq := e.clock.Next()
	payload := ev.Payload()
	id, err := ir.EventID(e.session, string(ev.Kind()), payload, seq)
	if err != nil {
		return &RuntimeError{Code: ErrCodeInvalidEvent, Message: "payload is not encodable", Err: err}
	}
	encoded, err := ir.MarshalCanonical(payload)
	if err != nil {
		return &RuntimeError{Code: ErrCodeInvalidEvent, Message: "payload is not encodable", Err: err}
	}

	e.current = id
	e.touched = make(map[string]struct{})
	defer func() {
		e.current = ""
		e.touched = nil
	}()

	e.logger.Debug("handling event",
		"kind", ev.Kind(),
		"seq", seq,
		"event_id", id,
	)
	e.recordEvent(ctx, ev, id, seq, encoded)

	err = e.dispatch.Dispatch(ctx, ev)
	if verr := e.verifyTouched(); verr != nil {
		err = errors.Join(err, verr)
	}
	return err
}

// Enqueue submits an event for the Run loop. It reports false after Stop.
func (e *Engine) Enqueue(ev Event) bool {
	return e.queue.Enqueue(ev)
}

// QueueLen returns the number of events waiting for the Run loop.
func (e *Engine) QueueLen() int {
	return e.queue.Len()
}

// Run handles queued events in FIFO order until ctx is cancelled or Stop is
// called and the queue drains.
//
// A failing event is logged and skipped. Retrying would reorder it relative
// to later events.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info("engine starting", "session", e.session)

	for {
		if ev, ok := e.queue.TryDequeue(); ok {
			if err := e.Handle(ctx, ev); err != nil {
				if ctx.Err() != nil {
					e.queue.Close()
					return ctx.Err()
				}
				e.logger.Error("event handling failed",
					"kind", ev.Kind(),
					"error", err,
				)
			}
			continue
		}

		select {
		case <-ctx.Done():
			e.logger.Info("engine stopping: context cancelled")
			e.queue.Close()
			return ctx.Err()
		case <-e.queue.Wait():
			if e.queue.Len() == 0 && e.queue.Closed() {
				e.logger.Info("engine stopping: queue closed")
				return nil
			}
		}
	}
}

// Stop closes the queue. Run returns once the pending events are handled.
func (e *Engine) Stop() {
	e.queue.Close()
}

// StepMap returns a copy of a generator's step map.
func (e *Engine) StepMap(generatorID string) (map[int][]string, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	g, ok := e.dir.Get(generatorID)
	if !ok {
		return nil, newUnknownGenerator(generatorID)
	}
	return g.Snapshot(), nil
}

// Occupants returns the elements on one step of a generator, for the
// playback clock.
func (e *Engine) Occupants(generatorID string, step int) ([]string, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	g, ok := e.dir.Get(generatorID)
	if !ok {
		return nil, newUnknownGenerator(generatorID)
	}
	if step < 0 || step >= g.StepCount() {
		return nil, &RuntimeError{
			Code:      ErrCodeInvalidEvent,
			Message:   fmt.Sprintf("step %d outside ring of %d", step, g.StepCount()),
			Generator: generatorID,
			Err:       generator.ErrStepOutOfRing,
		}
	}
	return g.Occupants(step), nil
}

// Generators returns the ids of all live generators in ascending order.
func (e *Engine) Generators() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	all := e.dir.All()
	ids := make([]string, len(all))
	for i, g := range all {
		ids[i] = g.ID
	}
	return ids
}

func (e *Engine) touch(generatorID string) {
	if e.touched != nil {
		e.touched[generatorID] = struct{}{}
	}
}

// verifyTouched checks every generator mutated by the current event.
func (e *Engine) verifyTouched() error {
	ids := make([]string, 0, len(e.touched))
	for id := range e.touched {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	var errs []error
	for _, id := range ids {
		g, ok := e.dir.Get(id)
		if !ok {
			continue
		}
		if err := g.Verify(); err != nil {
			e.logger.Error("invariant violation",
				"generator", id,
				"event_id", e.current,
				"error", err,
			)
			errs = append(errs, newInvariantError(id, err))
		}
	}
	return errors.Join(errs...)
}
