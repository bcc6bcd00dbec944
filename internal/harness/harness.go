package harness

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/roach88/offload/internal/engine"
	"github.com/roach88/offload/internal/ir"
	"github.com/roach88/offload/internal/profile"
	"github.com/roach88/offload/internal/store"
	"github.com/roach88/offload/internal/testutil"
)

// Harness drives one engine through a scenario.
type Harness struct {
	engine *engine.Engine
	runner *testutil.ScriptedRunner
	host   *testutil.RecordingHost
	logger *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh temporary work directory and a fresh
// in-memory journal. An error is returned only when the run itself could
// not be set up; mismatched outcomes and failed assertions are reported in
// the Result.
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()

	dir, err := os.MkdirTemp("", "offload-harness-")
	if err != nil {
		return nil, fmt.Errorf("failed to create work dir: %w", err)
	}
	defer os.RemoveAll(dir)

	prof := scenarioProfile(scenario, dir)
	hash, err := profile.Hash(prof)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	journal, err := store.NewSessionJournal(ctx, st, hash, ir.EngineVersion)
	if err != nil {
		return nil, err
	}

	h := &Harness{
		runner: testutil.NewScriptedRunner(),
		host:   testutil.NewRecordingHost(),
		logger: slog.New(slog.DiscardHandler),
	}
	h.engine, err = engine.New(prof, h.host,
		engine.WithRunner(h.runner),
		engine.WithJournal(journal),
		engine.WithLogger(h.logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}
	defer h.engine.Close()

	result := NewResult()
	for i, step := range scenario.Steps {
		h.execute(ctx, i, step, result)
	}

	result.Buffer = h.engine.Buffer()
	result.Entries = h.engine.Entries()
	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	trace, err := st.ReadEvents(ctx, journal.Session())
	if err != nil {
		return nil, fmt.Errorf("failed to read trace: %w", err)
	}
	result.Trace = trace
	return result, nil
}

func scenarioProfile(s *Scenario, dir string) ir.Profile {
	p := profile.Default()
	p.WorkDir = dir
	if o := s.Profile; o != nil {
		if o.FrontEnd != "" {
			p.FrontEnd = o.FrontEnd
		}
		if o.Layout != "" {
			p.Layout = o.Layout
		}
		if o.DeviceFlags != nil {
			p.DeviceFlags = o.DeviceFlags
		}
		if o.HostArgs != nil {
			p.HostArgs = o.HostArgs
		}
	}
	return p
}

func (h *Harness) execute(ctx context.Context, index int, step Step, result *Result) {
	switch {
	case step.Submit != nil:
		s := step.Submit
		kind, _ := ir.ParseKind(s.Kind)
		err := h.engine.Compile(ctx, s.Text, ir.TxID(s.Tx), kind, s.DeclSuccess)

		want := s.Expect
		if want == "" {
			want = OutcomeOK
		}
		if got := Outcome(err); got != want {
			result.AddError(fmt.Sprintf("steps[%d]: submit %q: expected %s, got %s (%v)", index, s.Text, want, got, err))
		}
		h.logger.Debug("submitted", "step", index, "error", err)
	case step.Bind != nil:
		h.engine.SetTransaction(ctx, ir.TxID(step.Bind.Tx))
	case step.Commit != nil:
		h.engine.SetDeclSuccess(ctx, ir.TxID(step.Commit.Tx))
	case step.Remove != nil:
		h.engine.RemoveCodeByTransaction(ctx, ir.TxID(step.Remove.Tx))
	case step.Arg != nil:
		h.engine.AddCompileArg(step.Arg.Flag, step.Arg.Value)
	case step.FailNextCompile:
		h.runner.FailNext(1)
	case step.FailNextDeclare:
		h.host.FailNextDeclare(1)
	}
}

// Outcome maps a Compile result to its scenario outcome name.
func Outcome(err error) string {
	if err == nil {
		return OutcomeOK
	}
	switch engine.CodeOf(err) {
	case engine.ErrCodeCompileFailed:
		return OutcomeCompileFailed
	case engine.ErrCodeDeclareFailed:
		return OutcomeDeclareFailed
	case engine.ErrCodeReparseFailed:
		return OutcomeReparseFailed
	case engine.ErrCodeIncomplete:
		return OutcomeIncomplete
	case engine.ErrCodeBusy:
		return OutcomeBusy
	}
	return "error"
}
