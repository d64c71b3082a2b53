package engine

import "sync/atomic"

// Clock is the engine's logical clock. Every handled event and every
// mutation it causes is stamped with the next value, so journal order never
// depends on wall time.
//
// Next is atomic, but the engine only calls it from its single writer.
type Clock struct {
	seq atomic.Int64
}

// NewClock returns a clock whose first Next is 1.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt returns a clock resumed after start, for appending to an
// existing journal session.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next advances the clock and returns the new value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last value handed out.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
