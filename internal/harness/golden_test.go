package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stepfield/internal/canvas"
	"github.com/roach88/stepfield/internal/store"
)

func TestGolden_Scenarios(t *testing.T) {
	for _, name := range []string{"basic_quantization", "subdivision_requantize"} {
		t.Run(name, func(t *testing.T) {
			s, err := LoadScenario("testdata/scenarios/" + name + ".yaml")
			require.NoError(t, err)
			require.NoError(t, RunWithGolden(t, s))
		})
	}
}

func TestSnapshot_Deterministic(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/trigger_after_sounds.yaml")
	require.NoError(t, err)

	first, err := Run(s)
	require.NoError(t, err)
	second, err := Run(s)
	require.NoError(t, err)

	a, err := Snapshot(s.Name, first)
	require.NoError(t, err)
	b, err := Snapshot(s.Name, second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestSnapshot_Shape(t *testing.T) {
	r := NewResult()
	r.Trace = []TraceEntry{{
		Seq:  1,
		Kind: "clock-start",
		Mutations: []store.Mutation{
			{Seq: 2, Op: "num_steps", Value: 8},
		},
	}}
	r.Generators["g"] = map[int][]string{2: {"a"}, 10: {}}
	r.Connections = []canvas.Connection{{ID: "conn-1", Source: "g", Target: "a"}}

	data, err := Snapshot("shape", r)
	require.NoError(t, err)
	assert.Equal(t,
		`{"connections":[{"id":"conn-1","source":"g","target":"a"}],`+
			`"generators":{"g":{"2":["a"]}},"scenario":"shape",`+
			`"trace":[{"kind":"clock-start","mutations":[{"op":"num_steps","seq":2,"value":8}],"seq":1}]}`,
		string(data))
}
