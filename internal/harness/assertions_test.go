package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stepfield/internal/canvas"
)

func sampleResult() *Result {
	r := NewResult()
	r.Generators["g"] = map[int][]string{2: {"a", "b"}, 8: {"c"}}
	r.Connections = []canvas.Connection{
		{ID: "conn-1", Source: "g", Target: "a"},
		{ID: "conn-2", Source: "g", Target: "c"},
	}
	return r
}

func TestEvaluateAssertion(t *testing.T) {
	tests := []struct {
		name    string
		a       Assertion
		wantErr string
	}{
		{"step holds", Assertion{Type: AssertStep, Generator: "g", Element: "c", Step: count(8)}, ""},
		{"step zero is a step", Assertion{Type: AssertStep, Generator: "g", Element: "a", Step: count(0)}, "got step 2"},
		{"step unregistered", Assertion{Type: AssertStep, Generator: "g", Element: "z", Step: count(1)}, "got unregistered"},
		{"step unknown generator", Assertion{Type: AssertStep, Generator: "h", Element: "a", Step: count(1)}, "no generator h"},
		{"step map holds", Assertion{Type: AssertStepMap, Generator: "g", Steps: map[int][]string{2: {"a", "b"}, 8: {"c"}}}, ""},
		{"step map order matters", Assertion{Type: AssertStepMap, Generator: "g", Steps: map[int][]string{2: {"b", "a"}, 8: {"c"}}}, "{2: [a b], 8: [c]}"},
		{"step map missing step", Assertion{Type: AssertStepMap, Generator: "g", Steps: map[int][]string{2: {"a", "b"}}}, "expected {2: [a b]}"},
		{"unregistered holds", Assertion{Type: AssertUnregistered, Generator: "g", Element: "z"}, ""},
		{"unregistered unknown generator", Assertion{Type: AssertUnregistered, Generator: "h", Element: "a"}, ""},
		{"unregistered fails", Assertion{Type: AssertUnregistered, Generator: "g", Element: "b"}, "got step 2"},
		{"connected holds", Assertion{Type: AssertConnected, Generator: "g", Element: "a"}, ""},
		{"connected fails", Assertion{Type: AssertConnected, Generator: "g", Element: "b"}, "got 0 connections"},
		{"not connected holds", Assertion{Type: AssertNotConnected, Generator: "g", Element: "b"}, ""},
		{"not connected fails", Assertion{Type: AssertNotConnected, Generator: "g", Element: "c"}, "got 1 connections"},
		{"generator count", Assertion{Type: AssertGeneratorCount, Count: count(1)}, ""},
		{"connection count fails", Assertion{Type: AssertConnectionCount, Count: count(3)}, "expected 3, got 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := evaluateAssertion(sampleResult(), tt.a)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)

			var aerr *AssertionError
			require.ErrorAs(t, err, &aerr)
			assert.Equal(t, tt.a.Type, aerr.Type)
		})
	}
}

func TestFormatStepMap(t *testing.T) {
	assert.Equal(t, "{}", formatStepMap(nil))
	assert.Equal(t, "{2: [a], 10: [b c]}", formatStepMap(map[int][]string{10: {"b", "c"}, 2: {"a"}}))
}
