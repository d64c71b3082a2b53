package generator

import (
	"errors"
	"fmt"
)

// InvariantError reports a broken single-occupancy invariant. It indicates a
// programming error and must not be silently repaired.
type InvariantError struct {
	Generator string
	Element   string
	Message   string
}

func (e *InvariantError) Error() string {
	if e.Element != "" {
		return fmt.Sprintf("invariant violation on generator %s: element %s %s", e.Generator, e.Element, e.Message)
	}
	return fmt.Sprintf("invariant violation on generator %s: %s", e.Generator, e.Message)
}

// IsInvariantError returns true if err wraps an *InvariantError.
func IsInvariantError(err error) bool {
	var ie *InvariantError
	return errors.As(err, &ie)
}
