package engine

import "sync/atomic"

// Clock stamps journal events with a strictly increasing sequence number.
//
// Ordering comes from the clock, never from wall time, so two runs of the
// same session journal identical sequences.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock whose first Next returns 1.
func NewClock() *Clock {
	return &Clock{}
}

// Next advances the clock and returns the new value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last value handed out.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
