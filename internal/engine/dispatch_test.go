package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stepfield/internal/canvas"
)

func TestDispatcher_SubscriptionOrder(t *testing.T) {
	d := NewDispatcher()
	var calls []string
	d.On(KindClockStart, func(context.Context, Event) error {
		calls = append(calls, "first")
		return nil
	})
	d.On(KindClockStart, func(context.Context, Event) error {
		calls = append(calls, "second")
		return nil
	})
	d.On(KindElementMoved, func(context.Context, Event) error {
		calls = append(calls, "moved")
		return nil
	})

	require.NoError(t, d.Dispatch(context.Background(), ClockStart{NumSteps: 16}))
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestDispatcher_NoSubscribers(t *testing.T) {
	d := NewDispatcher()
	assert.NoError(t, d.Dispatch(context.Background(), ClockStart{NumSteps: 16}))
}

func TestDispatcher_JoinsErrorsAndRunsAll(t *testing.T) {
	d := NewDispatcher()
	ran := 0
	d.On(KindElementRemoved, func(context.Context, Event) error {
		ran++
		return errBoom
	})
	d.On(KindElementRemoved, func(context.Context, Event) error {
		ran++
		return nil
	})

	err := d.Dispatch(context.Background(), ElementRemoved{Element: sound("a", 0, 0)})

	assert.ErrorIs(t, err, errBoom)
	assert.Contains(t, err.Error(), "element-removed")
	assert.Equal(t, 2, ran)
}

func TestOn_TypedHandler(t *testing.T) {
	d := NewDispatcher()
	var got ElementMoved
	on(d, KindElementMoved, func(_ context.Context, ev ElementMoved) error {
		got = ev
		return nil
	})

	require.NoError(t, d.Dispatch(context.Background(), moved("a")))
	assert.Equal(t, "a", got.Element.ID)
}

// misfiled claims a kind it is not.
type misfiled struct{ ClockStart }

func (misfiled) Kind() Kind { return KindElementMoved }

func TestOn_IgnoresMismatchedType(t *testing.T) {
	d := NewDispatcher()
	called := false
	on(d, KindElementMoved, func(context.Context, ElementMoved) error {
		called = true
		return nil
	})

	require.NoError(t, d.Dispatch(context.Background(), misfiled{}))
	assert.False(t, called)
}

func TestEvents_KindsAndPayloads(t *testing.T) {
	el := sound("a", 3, -4)
	el.Subdivision = 8
	label := trigger("g-label", 0, 0)
	label.LabelFor = "g"

	tests := []struct {
		ev   Event
		kind Kind
	}{
		{ClockStart{NumSteps: 16}, KindClockStart},
		{ElementCreated{Element: el}, KindElementCreated},
		{ElementRemoved{Element: el}, KindElementRemoved},
		{ElementMoved{Element: el}, KindElementMoved},
		{AttributesChanged{Elements: []canvas.Element{el, label}}, KindAttributesChanged},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.kind, tt.ev.Kind())
		assert.NotEmpty(t, tt.ev.Payload())
	}

	obj := elementValue(el)
	assert.Len(t, obj, 5)
	assert.Contains(t, obj, "subdivision")
	assert.NotContains(t, obj, "label_for")
	assert.Contains(t, elementValue(label), "label_for")
}
