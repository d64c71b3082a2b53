// Package ir holds the canonical value encoding used for journal payloads.
//
// Journal entries are content-addressed, so their payloads must encode to the
// same bytes on every run. The value set is deliberately narrow: strings,
// integers, booleans, arrays, and objects. There is no float and no null.
//
// ir imports nothing internal.
package ir
