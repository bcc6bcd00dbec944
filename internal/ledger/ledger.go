// Package ledger stores code entries in insertion order.
//
// The sequence is a B-tree keyed by entry id. Ids strictly increase with
// insertion order, so id order is insertion order and both directions of
// iteration come for free. A map index gives O(1) lookup by id; every
// removal drops the tree item and the index entry together.
//
// The ledger is not safe for concurrent use. The engine is its only writer.
package ledger

import (
	"errors"
	"fmt"

	"github.com/google/btree"

	"github.com/roach88/offload/internal/ir"
)

// ErrOutOfOrder is returned when an appended id does not exceed the last id.
var ErrOutOfOrder = errors.New("entry id does not increase")

const degree = 32

// Ledger is the ordered entry store.
type Ledger struct {
	seq   *btree.BTreeG[*ir.Entry]
	index map[uint64]*ir.Entry
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{
		seq: btree.NewG(degree, func(a, b *ir.Entry) bool {
			return a.ID < b.ID
		}),
		index: make(map[uint64]*ir.Entry),
	}
}

// Append adds e after every existing entry.
func (l *Ledger) Append(e *ir.Entry) error {
	if e == nil {
		return fmt.Errorf("append: nil entry")
	}
	if last, ok := l.seq.Max(); ok && e.ID <= last.ID {
		return fmt.Errorf("append %d after %d: %w", e.ID, last.ID, ErrOutOfOrder)
	}
	l.seq.ReplaceOrInsert(e)
	l.index[e.ID] = e
	return nil
}

// Find returns the entry with the given id.
func (l *Ledger) Find(id uint64) (*ir.Entry, bool) {
	e, ok := l.index[id]
	return e, ok
}

// EraseIf removes every entry matching pred and returns their ids in
// ledger order.
func (l *Ledger) EraseIf(pred func(*ir.Entry) bool) []uint64 {
	var doomed []*ir.Entry
	l.seq.Ascend(func(e *ir.Entry) bool {
		if pred(e) {
			doomed = append(doomed, e)
		}
		return true
	})

	ids := make([]uint64, 0, len(doomed))
	for _, e := range doomed {
		l.seq.Delete(e)
		delete(l.index, e.ID)
		ids = append(ids, e.ID)
	}
	return ids
}

// Each visits entries oldest first until fn returns false.
func (l *Ledger) Each(fn func(*ir.Entry) bool) {
	l.seq.Ascend(fn)
}

// Reverse visits entries newest first until fn returns false.
func (l *Ledger) Reverse(fn func(*ir.Entry) bool) {
	l.seq.Descend(fn)
}

// BindPending assigns tx to the most recent run of owner-less entries.
// The walk goes newest to oldest and stops at the first entry that already
// has an owner: that entry belongs to an earlier, already bound run.
// Returns the newly bound ids, newest first.
func (l *Ledger) BindPending(tx ir.TxID) []uint64 {
	var bound []uint64
	l.seq.Descend(func(e *ir.Entry) bool {
		if e.Owner != ir.NoTx {
			return false
		}
		e.Owner = tx
		bound = append(bound, e.ID)
		return true
	})
	return bound
}

// CommitUnowned marks every owner-less entry committed and returns the ids
// whose flag changed, oldest first. A second call in a row returns nothing.
func (l *Ledger) CommitUnowned() []uint64 {
	var committed []uint64
	l.seq.Ascend(func(e *ir.Entry) bool {
		if e.Owner == ir.NoTx && !e.Committed {
			e.Committed = true
			committed = append(committed, e.ID)
		}
		return true
	})
	return committed
}

// Len returns the number of entries.
func (l *Ledger) Len() int {
	return l.seq.Len()
}

// Last returns the newest entry.
func (l *Ledger) Last() (*ir.Entry, bool) {
	return l.seq.Max()
}

// Entries returns the live entries in ledger order.
func (l *Ledger) Entries() []*ir.Entry {
	out := make([]*ir.Entry, 0, l.seq.Len())
	l.seq.Ascend(func(e *ir.Entry) bool {
		out = append(out, e)
		return true
	})
	return out
}

// Snapshot returns detached copies of the entries in ledger order.
func (l *Ledger) Snapshot() []ir.Entry {
	out := make([]ir.Entry, 0, l.seq.Len())
	l.seq.Ascend(func(e *ir.Entry) bool {
		out = append(out, e.Clone())
		return true
	})
	return out
}
