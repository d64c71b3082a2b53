package engine

import (
	"context"

	"github.com/roach88/stepfield/internal/canvas"
	"github.com/roach88/stepfield/internal/store"
)

// Journal receives a record of everything the engine does.
// Implemented by *store.Store.
type Journal interface {
	WriteEvent(ctx context.Context, ev store.Event) error
	WriteMutation(ctx context.Context, m store.Mutation) error
}

// Op names a journaled mutation.
type Op string

const (
	OpGeneratorAdd    Op = "generator.add"
	OpGeneratorRemove Op = "generator.remove"
	OpRegister        Op = "register"
	OpUnregister      Op = "unregister"
	OpConnect         Op = "connect"
	OpDisconnect      Op = "disconnect"
	OpSubdivision     Op = "subdivision"
	OpNumSteps        Op = "num_steps"
)

// record journals one mutation of the event being handled. value is the
// step for register/unregister and the new count for subdivision and
// num_steps.
func (e *Engine) record(ctx context.Context, op Op, generatorID, elementID string, conn canvas.ConnectionID, value int) {
	seq := e.clock.Next()
	if e.journal == nil {
		return
	}
	m := store.Mutation{
		EventID:    e.current,
		Seq:        seq,
		Op:         string(op),
		Generator:  generatorID,
		Element:    elementID,
		Connection: string(conn),
		Value:      int64(value),
	}
	if err := e.journal.WriteMutation(ctx, m); err != nil {
		e.logger.Warn("journal mutation write failed",
			"event_id", e.current,
			"op", op,
			"error", err,
		)
	}
}

func (e *Engine) recordEvent(ctx context.Context, ev Event, id string, seq int64, payload []byte) {
	if e.journal == nil {
		return
	}
	rec := store.Event{
		ID:      id,
		Session: e.session,
		Seq:     seq,
		Kind:    string(ev.Kind()),
		Payload: string(payload),
	}
	if err := e.journal.WriteEvent(ctx, rec); err != nil {
		e.logger.Warn("journal event write failed",
			"event_id", id,
			"kind", ev.Kind(),
			"error", err,
		)
	}
}
