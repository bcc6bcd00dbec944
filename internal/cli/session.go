package cli

import (
	"context"
	"errors"
	"log/slog"

	"github.com/roach88/offload/internal/device"
	"github.com/roach88/offload/internal/engine"
	"github.com/roach88/offload/internal/ir"
)

var errNothingToUndo = errors.New("nothing to undo")

type sessionConfig struct {
	Profile ir.Profile
	Runner  device.Runner // nil means device.ExecRunner
	Journal engine.Journal
	TxGen   engine.TxGenerator // nil means engine.UUIDv7Generator
	Logger  *slog.Logger
}

// Session is the interactive host: every submission gets its own
// transaction, and undo rolls back the most recent one.
type Session struct {
	engine *engine.Engine
	host   *MemoryHost
	txGen  engine.TxGenerator
	logger *slog.Logger

	// pendingTx carries the transaction of a submission whose last unit
	// is still open into the lines that continue it.
	pendingTx ir.TxID
	undo      []ir.TxID
}

func newSession(cfg sessionConfig) (*Session, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	host := NewMemoryHost()

	opts := []engine.Option{engine.WithLogger(logger)}
	if cfg.Runner != nil {
		opts = append(opts, engine.WithRunner(cfg.Runner))
	}
	if cfg.Journal != nil {
		opts = append(opts, engine.WithJournal(cfg.Journal))
	}
	eng, err := engine.New(cfg.Profile, host, opts...)
	if err != nil {
		return nil, err
	}
	txGen := cfg.TxGen
	if txGen == nil {
		txGen = engine.UUIDv7Generator{}
	}
	return &Session{engine: eng, host: host, txGen: txGen, logger: logger}, nil
}

// Submit compiles one submission under a fresh transaction, or under the
// open submission's transaction when text continues it.
//
// Device compiles are not cancellable: ctx only carries values, so an
// interrupt delivered to the command does not fail later submissions.
func (s *Session) Submit(ctx context.Context, text string) (ir.TxID, error) {
	ctx = context.WithoutCancel(ctx)
	tx := s.pendingTx
	if tx == ir.NoTx {
		tx = engine.NextTx(s.txGen)
	}

	err := s.engine.Compile(ctx, text, tx, ir.KindStatement, false)
	if engine.IsIncomplete(err) {
		s.pendingTx = tx
		return tx, err
	}
	s.pendingTx = ir.NoTx
	if err != nil {
		return tx, err
	}

	if s.engine.Pending() {
		s.pendingTx = tx
	}
	s.engine.SetTransaction(ctx, tx)
	if n := len(s.undo); n == 0 || s.undo[n-1] != tx {
		s.undo = append(s.undo, tx)
	}
	return tx, nil
}

// Undo removes the most recent submission and recompiles what is left.
func (s *Session) Undo(ctx context.Context) ([]uint64, error) {
	ctx = context.WithoutCancel(ctx)
	n := len(s.undo)
	if n == 0 {
		return nil, errNothingToUndo
	}
	tx := s.undo[n-1]
	s.undo = s.undo[:n-1]

	removed := s.engine.RemoveCodeByTransaction(ctx, tx)
	s.logger.Debug("undo", "tx", tx, "removed", removed)
	return removed, s.engine.Rebuild(ctx)
}

// Discard drops an unfinished submission.
func (s *Session) Discard() {
	s.engine.DiscardPending()
	s.pendingTx = ir.NoTx
}

// Pending reports whether the last submission left a unit open.
func (s *Session) Pending() bool {
	return s.engine.Pending()
}

// Engine exposes the engine for inspection commands.
func (s *Session) Engine() *engine.Engine {
	return s.engine
}

// Host returns the in-memory host.
func (s *Session) Host() *MemoryHost {
	return s.host
}

// Close removes the generated files.
func (s *Session) Close() error {
	return s.engine.Close()
}
