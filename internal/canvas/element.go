package canvas

import "github.com/roach88/stepfield/internal/geom"

// Type is the semantic type of a canvas element.
type Type string

const (
	// TypeStartTrigger owns a generator.
	TypeStartTrigger Type = "start-trigger"
	// TypeSound is quantized onto generator steps.
	TypeSound Type = "sound"
	// TypeOther is any element the engine ignores.
	TypeOther Type = "other"
)

// Element is a shape on the canvas.
type Element struct {
	ID       string     `json:"id" yaml:"id"`
	Type     Type       `json:"type" yaml:"type"`
	Position geom.Point `json:"position" yaml:"position"`

	// Subdivision is the start-trigger's subdivision attribute. Zero means
	// the engine default.
	Subdivision int `json:"subdivision,omitempty" yaml:"subdivision,omitempty"`

	// LabelFor is set on label pseudo-elements to the id of the labelled
	// shape. Labels share their owner's type but are never generators or sounds.
	LabelFor string `json:"label_for,omitempty" yaml:"label_for,omitempty"`
}

// IsLabel reports whether e is a label pseudo-element.
func (e Element) IsLabel() bool {
	return e.LabelFor != ""
}

// Classifier decides which elements take part in quantization.
type Classifier interface {
	IsSoundProducing(e Element) bool
	IsStartTrigger(e Element) bool
}

// TypeClassifier classifies elements by their Type field.
type TypeClassifier struct{}

// IsSoundProducing implements Classifier.
func (TypeClassifier) IsSoundProducing(e Element) bool {
	return e.Type == TypeSound
}

// IsStartTrigger implements Classifier.
func (TypeClassifier) IsStartTrigger(e Element) bool {
	return e.Type == TypeStartTrigger
}
