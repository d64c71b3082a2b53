package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/stepfield/internal/canvas"
	"github.com/roach88/stepfield/internal/geom"
	"github.com/roach88/stepfield/internal/store"
	"github.com/roach88/stepfield/internal/testutil"
)

func trigger(id string, x, y int64) canvas.Element {
	return canvas.Element{ID: id, Type: canvas.TypeStartTrigger, Position: geom.Pt(x, y)}
}

func sound(id string, x, y int64) canvas.Element {
	return canvas.Element{ID: id, Type: canvas.TypeSound, Position: geom.Pt(x, y)}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// countingConns counts the connection requests the engine issues.
type countingConns struct {
	*canvas.Canvas
	connects    int
	disconnects int
}

func (c *countingConns) Connect(source, target string) (canvas.ConnectionID, error) {
	c.connects++
	return c.Canvas.Connect(source, target)
}

func (c *countingConns) Disconnect(id canvas.ConnectionID) error {
	c.disconnects++
	return c.Canvas.Disconnect(id)
}

// memJournal keeps journal writes in memory.
type memJournal struct {
	events    []store.Event
	mutations []store.Mutation
	fail      error
}

func (j *memJournal) WriteEvent(_ context.Context, ev store.Event) error {
	if j.fail != nil {
		return j.fail
	}
	j.events = append(j.events, ev)
	return nil
}

func (j *memJournal) WriteMutation(_ context.Context, m store.Mutation) error {
	if j.fail != nil {
		return j.fail
	}
	j.mutations = append(j.mutations, m)
	return nil
}

func (j *memJournal) ops() []string {
	out := make([]string, len(j.mutations))
	for i, m := range j.mutations {
		out[i] = m.Op
	}
	return out
}

// hidingIndex reports no position for one element once hide is set.
type hidingIndex struct {
	*canvas.Canvas
	id   string
	hide bool
}

func (h *hidingIndex) Position(id string) (geom.Point, bool) {
	if h.hide && id == h.id {
		return geom.Point{}, false
	}
	return h.Canvas.Position(id)
}

type fixture struct {
	t       *testing.T
	canvas  *canvas.Canvas
	conns   *countingConns
	journal *memJournal
	hidden  *hidingIndex
	engine  *Engine
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	return buildFixture(t, "", opts)
}

// newHidingFixture builds a fixture whose index can hide the position of id.
func newHidingFixture(t *testing.T, id string, opts ...Option) *fixture {
	t.Helper()
	return buildFixture(t, id, opts)
}

func buildFixture(t *testing.T, hideID string, opts []Option) *fixture {
	t.Helper()
	c := canvas.New(testutil.NewSequentialIDs("conn"))
	f := &fixture{
		t:       t,
		canvas:  c,
		conns:   &countingConns{Canvas: c},
		journal: &memJournal{},
	}
	var index SpatialIndex = c
	if hideID != "" {
		f.hidden = &hidingIndex{Canvas: c, id: hideID}
		index = f.hidden
	}
	opts = append([]Option{
		WithLogger(discardLogger()),
		WithSessionGenerator(NewFixedGenerator("sess-1")),
	}, opts...)

	e, err := New(Deps{
		Index:       index,
		Connections: f.conns,
		Journal:     f.journal,
	}, opts...)
	require.NoError(t, err)
	f.engine = e
	return f
}

func (f *fixture) handle(ev Event) {
	f.t.Helper()
	require.NoError(f.t, f.engine.Handle(context.Background(), ev))
}

func (f *fixture) create(el canvas.Element) {
	f.t.Helper()
	f.canvas.Put(el)
	f.handle(ElementCreated{Element: el})
}

func (f *fixture) move(id string, x, y int64) {
	f.t.Helper()
	el, ok := f.canvas.Move(id, geom.Pt(x, y))
	require.True(f.t, ok, "move unknown element %s", id)
	f.handle(ElementMoved{Element: el})
}

func (f *fixture) remove(id string) {
	f.t.Helper()
	el, ok := f.canvas.Delete(id)
	require.True(f.t, ok, "remove unknown element %s", id)
	f.handle(ElementRemoved{Element: el})
}

func (f *fixture) setSubdivision(id string, n int) {
	f.t.Helper()
	el, ok := f.canvas.SetSubdivision(id, n)
	require.True(f.t, ok, "set subdivision on unknown element %s", id)
	f.handle(AttributesChanged{Elements: []canvas.Element{el}})
}

func (f *fixture) steps(generatorID string) map[int][]string {
	f.t.Helper()
	m, err := f.engine.StepMap(generatorID)
	require.NoError(f.t, err)
	return m
}

func (f *fixture) connected(generatorID, element string) bool {
	return len(f.canvas.Between(generatorID, element)) > 0
}

var errBoom = errors.New("boom")
