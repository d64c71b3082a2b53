package engine

import (
	"github.com/roach88/stepfield/internal/canvas"
	"github.com/roach88/stepfield/internal/ir"
)

// Kind names a lifecycle event.
type Kind string

const (
	KindClockStart        Kind = "clock-start"
	KindElementCreated    Kind = "element-created"
	KindElementRemoved    Kind = "element-removed"
	KindElementMoved      Kind = "element-moved"
	KindAttributesChanged Kind = "attributes-changed"
)

// Event is a lifecycle notification from the host canvas.
//
// Payload is the canonical journal form of the event and must not contain
// anything the encoder rejects.
type Event interface {
	Kind() Kind
	Payload() ir.Object
}

// ClockStart announces the playback clock and its total step count.
type ClockStart struct {
	NumSteps int
}

// ElementCreated reports a shape added to the canvas.
type ElementCreated struct {
	Element canvas.Element
}

// ElementRemoved reports a deleted shape. Element is the shape as it was
// just before deletion; the spatial index no longer knows it.
type ElementRemoved struct {
	Element canvas.Element
}

// ElementMoved reports that a shape finished moving. Element carries the
// new position.
type ElementMoved struct {
	Element canvas.Element
}

// AttributesChanged reports an attribute edit on one or more shapes.
type AttributesChanged struct {
	Elements []canvas.Element
}

func (ClockStart) Kind() Kind        { return KindClockStart }
func (ElementCreated) Kind() Kind    { return KindElementCreated }
func (ElementRemoved) Kind() Kind    { return KindElementRemoved }
func (ElementMoved) Kind() Kind      { return KindElementMoved }
func (AttributesChanged) Kind() Kind { return KindAttributesChanged }

func (e ClockStart) Payload() ir.Object {
	return ir.Object{"num_steps": ir.Int(e.NumSteps)}
}

func (e ElementCreated) Payload() ir.Object {
	return ir.Object{"element": elementValue(e.Element)}
}

func (e ElementRemoved) Payload() ir.Object {
	return ir.Object{"element": elementValue(e.Element)}
}

func (e ElementMoved) Payload() ir.Object {
	return ir.Object{"element": elementValue(e.Element)}
}

func (e AttributesChanged) Payload() ir.Object {
	arr := make(ir.Array, len(e.Elements))
	for i, el := range e.Elements {
		arr[i] = elementValue(el)
	}
	return ir.Object{"elements": arr}
}

// elementValue encodes an element for the journal. Optional attributes are
// omitted when zero so payloads stay small.
func elementValue(el canvas.Element) ir.Object {
	obj := ir.Object{
		"id":   ir.String(el.ID),
		"type": ir.String(string(el.Type)),
		"x":    ir.Int(el.Position.X),
		"y":    ir.Int(el.Position.Y),
	}
	if el.Subdivision != 0 {
		obj["subdivision"] = ir.Int(el.Subdivision)
	}
	if el.LabelFor != "" {
		obj["label_for"] = ir.String(el.LabelFor)
	}
	return obj
}
