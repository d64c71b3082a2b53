package engine

import (
	"errors"
	"fmt"
)

// RuntimeError is an error raised while handling an event.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Generator and Element identify the state involved, when known.
	Generator string
	Element   string

	// Err is the underlying cause, if any.
	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeUnknownIdentifier: a lookup named a generator or element the
	// engine does not know. Event handlers treat this as a no-op; only the
	// read API returns it.
	ErrCodeUnknownIdentifier RuntimeErrorCode = "UNKNOWN_IDENTIFIER"

	// ErrCodeInvariantViolation: internal state broke a structural rule,
	// such as an element registered on two steps of one generator.
	ErrCodeInvariantViolation RuntimeErrorCode = "INVARIANT_VIOLATION"

	// ErrCodeInvalidEvent: the event itself cannot be applied.
	ErrCodeInvalidEvent RuntimeErrorCode = "INVALID_EVENT"

	// ErrCodeHostFailure: a host role (connection editor) refused a call.
	ErrCodeHostFailure RuntimeErrorCode = "HOST_FAILURE"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	switch {
	case e.Generator != "" && e.Element != "":
		msg += fmt.Sprintf(" (generator=%s, element=%s)", e.Generator, e.Element)
	case e.Generator != "":
		msg += fmt.Sprintf(" (generator=%s)", e.Generator)
	case e.Element != "":
		msg += fmt.Sprintf(" (element=%s)", e.Element)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

func hasCode(err error, code RuntimeErrorCode) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

// IsUnknownIdentifier reports whether err is an unknown identifier error.
func IsUnknownIdentifier(err error) bool {
	return hasCode(err, ErrCodeUnknownIdentifier)
}

// IsInvariantError reports whether err is an invariant violation.
func IsInvariantError(err error) bool {
	return hasCode(err, ErrCodeInvariantViolation)
}

// IsInvalidEvent reports whether err rejects the event itself.
func IsInvalidEvent(err error) bool {
	return hasCode(err, ErrCodeInvalidEvent)
}

func newUnknownGenerator(id string) *RuntimeError {
	return &RuntimeError{
		Code:      ErrCodeUnknownIdentifier,
		Message:   "no generator registered",
		Generator: id,
	}
}

func newInvariantError(generatorID string, cause error) *RuntimeError {
	return &RuntimeError{
		Code:      ErrCodeInvariantViolation,
		Message:   "generator state is inconsistent",
		Generator: generatorID,
		Err:       cause,
	}
}

func newHostError(generatorID, elementID string, cause error) *RuntimeError {
	return &RuntimeError{
		Code:      ErrCodeHostFailure,
		Message:   "connection editor failed",
		Generator: generatorID,
		Element:   elementID,
		Err:       cause,
	}
}
