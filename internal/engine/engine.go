package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/offload/internal/device"
	"github.com/roach88/offload/internal/hoist"
	"github.com/roach88/offload/internal/ir"
	"github.com/roach88/offload/internal/ledger"
	"github.com/roach88/offload/internal/segment"
	"github.com/roach88/offload/internal/serialize"
	"github.com/roach88/offload/internal/wrap"
)

// Journal receives pipeline events. Implemented by store.SessionJournal.
// Journal errors are logged and never fail a submission.
type Journal interface {
	Record(ctx context.Context, ev ir.JournalEvent) error
}

// Engine owns the ledger and drives a submission through segmentation,
// hoisting and device compilation.
type Engine struct {
	files     device.Files
	layout    serialize.Layout
	ledger    *ledger.Ledger
	synth     *wrap.Synthesizer
	segmenter *segment.Segmenter
	hoister   *hoist.Hoister
	invoker   *device.Invoker

	// inFlight is set while the device compiler and host declare run.
	inFlight bool

	// With declGate set, declaration submissions are dropped unless the
	// host armed capture with ArmDecl. Every appended unit disarms it.
	declGate  bool
	declArmed bool

	journal Journal
	clock   *Clock
	logger  *slog.Logger

	frontEnd   hoist.FrontEnd
	runner     device.Runner
	checker    segment.Checker
	classifier segment.Classifier
	counter    *wrap.Counter
}

// Option configures an Engine.
type Option func(*Engine)

// WithJournal records pipeline events to j.
func WithJournal(j Journal) Option {
	return func(e *Engine) { e.journal = j }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithFrontEnd overrides the front-end chosen by the profile.
func WithFrontEnd(f hoist.FrontEnd) Option {
	return func(e *Engine) { e.frontEnd = f }
}

// WithRunner sets the process runner for the device compiler and the clang
// front-end. The default is device.ExecRunner.
func WithRunner(r device.Runner) Option {
	return func(e *Engine) { e.runner = r }
}

// WithChecker replaces the completeness checker.
func WithChecker(c segment.Checker) Option {
	return func(e *Engine) { e.checker = c }
}

// WithClassifier replaces the boundary classifier.
func WithClassifier(c segment.Classifier) Option {
	return func(e *Engine) { e.classifier = c }
}

// WithDeclGate makes declaration submissions opt-in: a KindDecl Compile
// is recorded only after ArmDecl.
func WithDeclGate() Option {
	return func(e *Engine) { e.declGate = true }
}

// WithCounter shares an id counter, for hosts that number entries across
// engine instances.
func WithCounter(c *wrap.Counter) Option {
	return func(e *Engine) { e.counter = c }
}

// New creates an engine for profile, installing headers into host.
//
// The buffer, header and artifact files are created or truncated here and
// removed by Close.
func New(profile ir.Profile, host device.Host, opts ...Option) (*Engine, error) {
	if host == nil {
		return nil, errors.New("engine: nil host")
	}
	if profile.Compiler == "" {
		return nil, errors.New("engine: profile has no compiler")
	}
	if profile.Files.Buffer == "" || profile.Files.Header == "" || profile.Files.Artifact == "" {
		return nil, errors.New("engine: profile must name buffer, header and artifact files")
	}
	layout, err := serialize.ParseLayout(profile.Layout)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	e := &Engine{
		layout: layout,
		ledger: ledger.New(),
		clock:  NewClock(),
		logger: slog.New(slog.DiscardHandler),
		runner: device.ExecRunner{},
	}
	for _, opt := range opts {
		opt(e)
	}

	dir := profile.WorkDir
	if dir == "" {
		dir = "."
	}
	e.files = device.Files{
		Buffer:   filepath.Join(dir, profile.Files.Buffer),
		Header:   filepath.Join(dir, profile.Files.Header),
		Artifact: filepath.Join(dir, profile.Files.Artifact),
	}
	for _, path := range []string{e.files.Buffer, e.files.Header, e.files.Artifact} {
		if err := os.WriteFile(path, nil, 0o644); err != nil {
			return nil, fmt.Errorf("engine: create %s: %w", path, err)
		}
	}

	if e.frontEnd == nil {
		switch profile.FrontEnd {
		case "", "scan":
			e.frontEnd = hoist.ScanFrontEnd{}
		case "clang":
			e.frontEnd = hoist.ClangFrontEnd{Compiler: profile.Compiler, Runner: e.runner}
		default:
			return nil, fmt.Errorf("engine: unknown front-end %q", profile.FrontEnd)
		}
	}

	args := device.NewArgSet(profile.HostArgs, e.files.Buffer)
	e.invoker = device.NewInvoker(device.Config{
		Compiler:    profile.Compiler,
		DeviceFlags: profile.DeviceFlags,
		Files:       e.files,
		Args:        args,
		Runner:      e.runner,
		Host:        host,
		Logger:      e.logger,
	})
	e.hoister = hoist.New(e.frontEnd, e.files.Buffer, args.Static)
	e.synth = wrap.NewSynthesizer(e.counter)
	e.segmenter = segment.New(e.checker, e.classifier)
	return e, nil
}

// Compile submits text under transaction tx.
//
// A declaration is appended as one unit. Statement text is segmented and
// every closed unit is appended and hoisted before the next one is read.
// The buffer then goes to the device compiler. declSuccess marks a
// declaration submitted without a transaction as committed up front.
//
// On a reparse, compile or declare failure the entries of this submission
// that are not committed are removed and the *RuntimeError is returned.
// Input that ends inside an open unit, with no unit closed, returns an
// INCOMPLETE error and changes nothing.
func (e *Engine) Compile(ctx context.Context, text string, tx ir.TxID, kind ir.Kind, declSuccess bool) error {
	if e.inFlight {
		return NewBusyError()
	}
	if kind == ir.KindDecl && e.declGate && !e.declArmed {
		e.logger.Debug("declaration not armed, dropped", "tx", tx)
		return nil
	}

	appended := 0
	var err error
	if kind == ir.KindDecl {
		appended = 1
		err = e.appendUnit(ctx, ir.Unit{Kind: ir.KindDecl, Text: norm.NFC.String(text)}, tx, declSuccess)
	} else {
		err = e.segmenter.Each(text, func(u ir.Unit) error {
			appended++
			return e.appendUnit(ctx, u, tx, false)
		})
	}
	if err != nil {
		e.segmenter.Reset()
		return e.fail(ctx, tx, err)
	}

	if appended == 0 {
		if e.segmenter.Pending() {
			return NewIncompleteError()
		}
		return nil
	}
	return e.offload(ctx, tx)
}

// appendUnit adds one unit to the ledger and runs a hoist pass.
func (e *Engine) appendUnit(ctx context.Context, u ir.Unit, tx ir.TxID, committed bool) error {
	entry := e.synth.Entry(u, tx)
	entry.Committed = committed && tx == ir.NoTx
	if err := e.ledger.Append(entry); err != nil {
		return NewReparseError(err)
	}
	e.declArmed = false
	e.logger.Debug("appended entry", "id", entry.ID, "kind", entry.Kind, "tx", tx)
	e.record(ctx, ir.JournalEvent{Kind: ir.EventAppend, EntryID: entry.ID, Tx: tx, Detail: u.Kind.String()})

	res, err := e.hoister.Run(ctx, e.ledger)
	if err != nil {
		return NewReparseError(err)
	}
	for _, id := range res.Hoisted {
		e.record(ctx, ir.JournalEvent{Kind: ir.EventHoist, EntryID: id, Tx: tx})
	}
	return nil
}

// offload compiles the current buffer and swaps in the new header.
func (e *Engine) offload(ctx context.Context, tx ir.TxID) error {
	buffer, err := e.flush()
	if err != nil {
		return e.fail(ctx, tx, NewCompileError(err))
	}

	if err := e.guarded(func() error { return e.invoker.Invoke(ctx) }); err != nil {
		if device.StageOf(err) == device.StageDeclare {
			return e.fail(ctx, tx, NewDeclareError(err))
		}
		return e.fail(ctx, tx, NewCompileError(err))
	}

	id, _ := e.invoker.Active()
	e.logger.Info("offloaded buffer", "artifact", id, "entries", e.ledger.Len())
	e.record(ctx, ir.JournalEvent{Kind: ir.EventCompileOK, Tx: tx, Detail: string(id), BufferHash: ir.BufferHash(buffer)})
	return nil
}

// guarded runs fn with the in-flight flag set.
func (e *Engine) guarded(fn func() error) error {
	e.inFlight = true
	defer func() { e.inFlight = false }()
	return fn()
}

// fail rolls back the submission's uncommitted entries and returns err
// with the rollback attached.
func (e *Engine) fail(ctx context.Context, tx ir.TxID, err error) error {
	var re *RuntimeError
	if !errors.As(err, &re) {
		re = NewCompileError(err)
	}
	re.Tx = tx
	re.Removed = e.RemoveCodeByTransaction(ctx, tx)

	kind := ir.EventCompileFailed
	switch re.Code {
	case ErrCodeReparseFailed:
		kind = ir.EventReparseFailed
	case ErrCodeDeclareFailed:
		kind = ir.EventDeclareFailed
	}
	e.logger.Warn("submission failed", "code", re.Code, "tx", tx, "removed", len(re.Removed), "error", re.Err)
	e.record(ctx, ir.JournalEvent{Kind: kind, Tx: tx, Detail: fmt.Sprint(re.Err)})
	return re
}

// flush writes the buffer in the configured layout and returns it.
func (e *Engine) flush() (string, error) {
	buffer := serialize.Render(e.ledger, e.layout)
	if err := serialize.WriteFile(e.files.Buffer, buffer); err != nil {
		return "", err
	}
	return buffer, nil
}

// Rebuild recompiles the current ledger without submitting anything, for
// hosts that refresh the artifact after an explicit undo. A failure
// leaves the ledger as it is.
func (e *Engine) Rebuild(ctx context.Context) error {
	if e.inFlight {
		return NewBusyError()
	}
	buffer, err := e.flush()
	if err != nil {
		return NewCompileError(err)
	}
	if err := e.guarded(func() error { return e.invoker.Invoke(ctx) }); err != nil {
		if device.StageOf(err) == device.StageDeclare {
			return NewDeclareError(err)
		}
		return NewCompileError(err)
	}
	id, _ := e.invoker.Active()
	e.record(ctx, ir.JournalEvent{Kind: ir.EventCompileOK, Detail: string(id), BufferHash: ir.BufferHash(buffer)})
	return nil
}

// AddCompileArg registers flag, and value when non-empty, for every later
// device compiler invocation.
func (e *Engine) AddCompileArg(flag, value string) {
	e.invoker.Args().Register(flag, value)
}

// ArmDecl lets the next declaration submission through the gate set by
// WithDeclGate. It has no effect without the gate.
func (e *Engine) ArmDecl() {
	e.declArmed = true
}

// Argv returns the argument vector of the next device compile.
func (e *Engine) Argv() []string {
	return e.invoker.Argv()
}

// Buffer renders the ledger in the configured layout.
func (e *Engine) Buffer() string {
	return serialize.Render(e.ledger, e.layout)
}

// Entries returns detached copies of the ledger entries in order.
func (e *Engine) Entries() []ir.Entry {
	return e.ledger.Snapshot()
}

// HighWaterMark returns the last entry id the hoister processed.
func (e *Engine) HighWaterMark() uint64 {
	return e.hoister.HighWaterMark()
}

// Pending reports whether an unclosed unit awaits more input.
func (e *Engine) Pending() bool {
	return e.segmenter.Pending()
}

// DiscardPending drops an unclosed unit.
func (e *Engine) DiscardPending() {
	e.segmenter.Reset()
}

// Active returns the installed artifact.
func (e *Engine) Active() (device.ArtifactID, bool) {
	return e.invoker.Active()
}

// Files returns the resolved generated-file paths.
func (e *Engine) Files() device.Files {
	return e.files
}

// Close unloads the active artifact and removes the generated files.
func (e *Engine) Close() error {
	var errs []error
	if err := e.invoker.Release(context.Background()); err != nil {
		errs = append(errs, err)
	}
	for _, path := range []string{e.files.Buffer, e.files.Header, e.files.Artifact} {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (e *Engine) record(ctx context.Context, ev ir.JournalEvent) {
	if e.journal == nil {
		return
	}
	ev.Seq = e.clock.Next()
	if err := e.journal.Record(ctx, ev); err != nil {
		e.logger.Warn("journal write failed", "kind", ev.Kind, "seq", ev.Seq, "error", err)
	}
}
