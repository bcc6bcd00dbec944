package engine

import (
	"context"

	"github.com/roach88/offload/internal/ir"
)

// SetTransaction hands the most recent run of owner-less entries to tx and
// returns their ids, newest first. Binding is allowed while the compiler
// runs; it never removes anything.
func (e *Engine) SetTransaction(ctx context.Context, tx ir.TxID) []uint64 {
	if tx == ir.NoTx {
		return nil
	}
	ids := e.ledger.BindPending(tx)
	for _, id := range ids {
		e.record(ctx, ir.JournalEvent{Kind: ir.EventBind, EntryID: id, Tx: tx})
	}
	return ids
}

// SetDeclSuccess records that the host accepted pending work. With a
// transaction it binds like SetTransaction; without one it commits every
// owner-less entry. No-op while the compiler runs.
func (e *Engine) SetDeclSuccess(ctx context.Context, tx ir.TxID) []uint64 {
	if e.inFlight {
		e.logger.Debug("commit ignored during compile", "tx", tx)
		return nil
	}
	if tx != ir.NoTx {
		return e.SetTransaction(ctx, tx)
	}
	ids := e.ledger.CommitUnowned()
	for _, id := range ids {
		e.record(ctx, ir.JournalEvent{Kind: ir.EventCommit, EntryID: id})
	}
	return ids
}

// RemoveCodeByTransaction erases every uncommitted entry that is owned by
// tx or by nobody, and returns the erased ids in ledger order. No-op while
// the compiler runs.
func (e *Engine) RemoveCodeByTransaction(ctx context.Context, tx ir.TxID) []uint64 {
	if e.inFlight {
		e.logger.Debug("rollback ignored during compile", "tx", tx)
		return nil
	}
	ids := e.ledger.EraseIf(func(entry *ir.Entry) bool {
		return entry.Erasable(tx)
	})
	for _, id := range ids {
		e.record(ctx, ir.JournalEvent{Kind: ir.EventErase, EntryID: id, Tx: tx})
	}
	if len(ids) > 0 {
		e.logger.Debug("rolled back entries", "tx", tx, "ids", ids)
	}
	return ids
}
