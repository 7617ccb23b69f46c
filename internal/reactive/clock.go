package reactive

import "sync/atomic"

// Clock is a monotonic logical clock that stamps graph events.
//
// Every emitted Event carries a strictly increasing Seq from this clock, so
// traces order deterministically without wall-clock time.
//
// Clock is safe for concurrent use.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next sequence number.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last issued sequence number.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}

// Sequencer issues event sequence numbers. *Clock is the default; tests
// inject a resettable clock so repeated runs produce identical traces.
type Sequencer interface {
	Next() int64
	Current() int64
}
