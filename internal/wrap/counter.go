package wrap

import "sync/atomic"

// Counter is the process-wide monotonic id source for ledger entries.
//
// Every entry, declaration or statement, takes its id from one counter so
// ids are unique across the ledger and strictly increase with insertion
// order. Ids are never reused, even after rollback erases an entry.
//
// Lifecycle: created with the engine, Reset only by tests. The engine is
// single-writer; the atomic keeps Next safe should that ever change.
type Counter struct {
	seq atomic.Uint64
}

// NewCounter creates a counter whose first id is 1.
func NewCounter() *Counter {
	return &Counter{}
}

// NewCounterAt creates a counter that resumes after start.
func NewCounterAt(start uint64) *Counter {
	c := &Counter{}
	c.seq.Store(start)
	return c
}

// Next returns the next id and advances the counter.
func (c *Counter) Next() uint64 {
	return c.seq.Add(1)
}

// Current returns the last id handed out, 0 if none.
func (c *Counter) Current() uint64 {
	return c.seq.Load()
}

// Reset rewinds the counter to 0. Only safe when the ledger is empty.
func (c *Counter) Reset() {
	c.seq.Store(0)
}
