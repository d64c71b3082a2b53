package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/stepfield/internal/canvas"
	"github.com/roach88/stepfield/internal/config"
	"github.com/roach88/stepfield/internal/engine"
	"github.com/roach88/stepfield/internal/store"
	"github.com/roach88/stepfield/internal/testutil"
)

// RunOptions tunes a scenario run.
type RunOptions struct {
	// JournalPath is the SQLite file to journal into. Empty means a fresh
	// in-memory database.
	JournalPath string

	// Config is the base configuration. Scenario overrides win.
	Config *config.Config

	// Logger receives engine logs. Nil discards them.
	Logger *slog.Logger

	// Session names the journal session. Empty means the scenario name.
	Session string
}

// Run executes a scenario in a fresh in-memory journal.
func Run(s *Scenario) (*Result, error) {
	return RunWith(context.Background(), s, RunOptions{})
}

// RunWith executes a scenario and returns the result.
//
// Execution flow:
//  1. Open the journal and build the engine over an in-memory canvas
//  2. Apply each event to the canvas, then hand it to the engine
//  3. Read the session back from the journal as the trace
//  4. Evaluate assertions against the final state
//
// The returned error covers infrastructure failures only. Engine and
// assertion failures are reported in Result.Errors.
func RunWith(ctx context.Context, s *Scenario, opts RunOptions) (*Result, error) {
	if s == nil {
		return nil, errors.New("scenario is nil")
	}

	path := opts.JournalPath
	if path == "" {
		path = store.MemoryPath
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	defer st.Close()

	session := opts.Session
	if session == "" {
		session = s.Name
	}
	last, err := st.LastSeq(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("read journal: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	cfg := config.Default()
	if opts.Config != nil {
		cfg = *opts.Config
	}
	if s.Config.Subdivision > 0 {
		cfg.Subdivision = s.Config.Subdivision
	}
	if s.Config.MaxRange > 0 {
		cfg.MaxRange = s.Config.MaxRange
	}
	if s.Config.NumSteps > 0 {
		cfg.NumSteps = s.Config.NumSteps
	}

	cv := canvas.New(testutil.NewSequentialIDs("conn"))
	engOpts := append(cfg.EngineOptions(),
		engine.WithLogger(logger),
		engine.WithSessionGenerator(engine.NewFixedGenerator(session)),
	)
	// Appending to an existing session continues its seq numbering.
	if last > 0 {
		engOpts = append(engOpts, engine.WithClock(engine.NewClockAt(last)))
	}
	eng, err := engine.New(engine.Deps{
		Index:       cv,
		Connections: cv,
		Journal:     st,
	}, engOpts...)
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}

	result := NewResult()
	result.Session = session

	for i, step := range s.Events {
		ev, err := apply(cv, step)
		if err != nil {
			result.AddError(fmt.Sprintf("events[%d] %s %s: %v", i, step.Type, step.ID, err))
			continue
		}
		if ev == nil {
			continue
		}

		err = eng.Handle(ctx, ev)
		switch {
		case step.ExpectError && err == nil:
			result.AddError(fmt.Sprintf("events[%d] %s %s: expected an error, got none", i, step.Type, step.ID))
		case !step.ExpectError && err != nil:
			result.AddError(fmt.Sprintf("events[%d] %s %s: %v", i, step.Type, step.ID, err))
		}
	}

	entries, err := st.ReadSession(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("read trace: %w", err)
	}
	for _, entry := range entries {
		result.Trace = append(result.Trace, TraceEntry{
			Seq:       entry.Event.Seq,
			Kind:      entry.Event.Kind,
			Payload:   entry.Event.Payload,
			Mutations: entry.Mutations,
		})
	}

	for _, id := range eng.Generators() {
		steps, err := eng.StepMap(id)
		if err != nil {
			return nil, fmt.Errorf("read step map %s: %w", id, err)
		}
		result.Generators[id] = steps
	}
	result.Connections = cv.Connections()

	for i, a := range s.Assertions {
		if err := evaluateAssertion(result, a); err != nil {
			result.AddError(fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}

	return result, nil
}

// apply performs one scenario step on the canvas and returns the event the
// host would emit for it. A nil event means the step was silent.
func apply(cv *canvas.Canvas, st Step) (engine.Event, error) {
	var ev engine.Event

	switch st.Type {
	case StepClockStart:
		return engine.ClockStart{NumSteps: st.NumSteps}, nil

	case StepCreate:
		el := canvas.Element{
			ID:          st.ID,
			Type:        st.Element,
			Position:    *st.At,
			Subdivision: st.Subdivision,
			LabelFor:    st.LabelFor,
		}
		cv.Put(el)
		ev = engine.ElementCreated{Element: el}

	case StepMove:
		el, ok := cv.Move(st.ID, *st.At)
		if !ok {
			return nil, canvas.ErrUnknownElement
		}
		ev = engine.ElementMoved{Element: el}

	case StepRemove:
		el, ok := cv.Delete(st.ID)
		if !ok {
			return nil, canvas.ErrUnknownElement
		}
		ev = engine.ElementRemoved{Element: el}

	case StepSetSubdivision:
		el, ok := cv.SetSubdivision(st.ID, st.Subdivision)
		if !ok {
			return nil, canvas.ErrUnknownElement
		}
		ev = engine.AttributesChanged{Elements: []canvas.Element{el}}

	default:
		return nil, fmt.Errorf("unknown event type %q", st.Type)
	}

	if st.Silent {
		return nil, nil
	}
	return ev, nil
}
