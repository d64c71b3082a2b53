package harness

import (
	"fmt"
	"slices"
	"strings"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("%s: expected %s, got %s", e.Type, e.Expected, e.Actual)
}

func evaluateAssertion(r *Result, a Assertion) error {
	switch a.Type {
	case AssertStep:
		return assertStep(r, a)
	case AssertStepMap:
		return assertStepMap(r, a)
	case AssertUnregistered:
		return assertUnregistered(r, a)
	case AssertConnected:
		return assertConnected(r, a, true)
	case AssertNotConnected:
		return assertConnected(r, a, false)
	case AssertGeneratorCount:
		return assertCount(a.Type, *a.Count, len(r.Generators))
	case AssertConnectionCount:
		return assertCount(a.Type, *a.Count, len(r.Connections))
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func assertStep(r *Result, a Assertion) error {
	steps, ok := r.Generators[a.Generator]
	if !ok {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%s on step %d of %s", a.Element, *a.Step, a.Generator),
			Actual:   fmt.Sprintf("no generator %s", a.Generator),
		}
	}
	got, found := stepOf(steps, a.Element)
	if found && got == *a.Step {
		return nil
	}
	actual := "unregistered"
	if found {
		actual = fmt.Sprintf("step %d", got)
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("%s on step %d of %s", a.Element, *a.Step, a.Generator),
		Actual:   actual,
	}
}

func assertStepMap(r *Result, a Assertion) error {
	steps, ok := r.Generators[a.Generator]
	if !ok {
		return &AssertionError{
			Type:     a.Type,
			Expected: formatStepMap(a.Steps),
			Actual:   fmt.Sprintf("no generator %s", a.Generator),
		}
	}
	if equalStepMaps(steps, a.Steps) {
		return nil
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: formatStepMap(a.Steps),
		Actual:   formatStepMap(steps),
	}
}

// assertUnregistered passes when the generator holds no step for the
// element. A missing generator holds nothing, so it passes too.
func assertUnregistered(r *Result, a Assertion) error {
	got, found := stepOf(r.Generators[a.Generator], a.Element)
	if !found {
		return nil
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("%s absent from %s", a.Element, a.Generator),
		Actual:   fmt.Sprintf("step %d", got),
	}
}

func assertConnected(r *Result, a Assertion, want bool) error {
	n := 0
	for _, c := range r.Connections {
		if c.Source == a.Generator && c.Target == a.Element {
			n++
		}
	}
	if (n > 0) == want {
		return nil
	}
	expected := "a connection"
	if !want {
		expected = "no connection"
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("%s %s -> %s", expected, a.Generator, a.Element),
		Actual:   fmt.Sprintf("%d connections", n),
	}
}

func assertCount(kind string, want, got int) error {
	if want == got {
		return nil
	}
	return &AssertionError{
		Type:     kind,
		Expected: fmt.Sprintf("%d", want),
		Actual:   fmt.Sprintf("%d", got),
	}
}

func stepOf(steps map[int][]string, element string) (int, bool) {
	for step, occupants := range steps {
		if slices.Contains(occupants, element) {
			return step, true
		}
	}
	return 0, false
}

// equalStepMaps compares occupied steps only; occupant order matters.
func equalStepMaps(got, want map[int][]string) bool {
	occupied := func(m map[int][]string) int {
		n := 0
		for _, els := range m {
			if len(els) > 0 {
				n++
			}
		}
		return n
	}
	if occupied(got) != occupied(want) {
		return false
	}
	for step, els := range want {
		if len(els) == 0 {
			continue
		}
		if !slices.Equal(got[step], els) {
			return false
		}
	}
	return true
}

func formatStepMap(m map[int][]string) string {
	if len(m) == 0 {
		return "{}"
	}
	var b strings.Builder
	b.WriteByte('{')
	steps := make([]int, 0, len(m))
	for step := range m {
		steps = append(steps, step)
	}
	slices.Sort(steps)
	for i, step := range steps {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%d: [%s]", step, strings.Join(m[step], " "))
	}
	b.WriteByte('}')
	return b.String()
}
