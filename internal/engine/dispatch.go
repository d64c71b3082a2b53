package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Handler reacts to one event.
type Handler func(ctx context.Context, ev Event) error

// Dispatcher routes events to the handlers subscribed for their kind.
//
// Handlers for a kind run in subscription order. Every handler runs even if
// an earlier one fails; the failures are joined.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[Kind][]Handler
}

// NewDispatcher creates an empty Dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[Kind][]Handler)}
}

// On subscribes h to events of the given kind.
func (d *Dispatcher) On(kind Kind, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[kind] = append(d.handlers[kind], h)
}

// Dispatch delivers ev to its subscribers. An event nobody subscribed to
// is not an error.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) error {
	d.mu.RLock()
	hs := d.handlers[ev.Kind()]
	d.mu.RUnlock()

	var errs []error
	for _, h := range hs {
		if err := h(ctx, ev); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", ev.Kind(), err))
		}
	}
	return errors.Join(errs...)
}

// on subscribes a handler for a concrete event type. Events of kind that
// are not a T are ignored.
func on[T Event](d *Dispatcher, kind Kind, fn func(context.Context, T) error) {
	d.On(kind, func(ctx context.Context, ev Event) error {
		typed, ok := ev.(T)
		if !ok {
			return nil
		}
		return fn(ctx, typed)
	})
}
