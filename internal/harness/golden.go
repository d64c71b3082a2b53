package harness

import (
	"strconv"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/stepfield/internal/ir"
)

// Snapshot renders a result as canonical JSON. Event ids and payloads are
// left out; the golden file pins what the engine did, not how events hash.
func Snapshot(name string, r *Result) ([]byte, error) {
	trace := make(ir.Array, len(r.Trace))
	for i, entry := range r.Trace {
		muts := make(ir.Array, len(entry.Mutations))
		for j, m := range entry.Mutations {
			obj := ir.Object{
				"op":    ir.String(m.Op),
				"seq":   ir.Int(m.Seq),
				"value": ir.Int(m.Value),
			}
			if m.Generator != "" {
				obj["generator"] = ir.String(m.Generator)
			}
			if m.Element != "" {
				obj["element"] = ir.String(m.Element)
			}
			if m.Connection != "" {
				obj["connection"] = ir.String(m.Connection)
			}
			muts[j] = obj
		}
		trace[i] = ir.Object{
			"seq":       ir.Int(entry.Seq),
			"kind":      ir.String(entry.Kind),
			"mutations": muts,
		}
	}

	gens := make(ir.Object, len(r.Generators))
	for id, steps := range r.Generators {
		obj := make(ir.Object, len(steps))
		for step, els := range steps {
			if len(els) == 0 {
				continue
			}
			obj[strconv.Itoa(step)] = ir.Strings(els...)
		}
		gens[id] = obj
	}

	conns := make(ir.Array, len(r.Connections))
	for i, c := range r.Connections {
		conns[i] = ir.Object{
			"id":     ir.String(string(c.ID)),
			"source": ir.String(c.Source),
			"target": ir.String(c.Target),
		}
	}

	return ir.MarshalCanonical(ir.Object{
		"scenario":    ir.String(name),
		"trace":       trace,
		"generators":  gens,
		"connections": conns,
	})
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/<name>.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, s *Scenario) error {
	t.Helper()

	result, err := Run(s)
	if err != nil {
		return err
	}
	return AssertGolden(t, s.Name, result)
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, name string, r *Result) error {
	t.Helper()

	data, err := Snapshot(name, r)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
