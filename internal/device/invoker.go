package device

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
)

// Stage names the invocation step that failed.
type Stage string

const (
	StageCompile Stage = "compile"
	StageDeclare Stage = "declare"
)

// StageError reports a failed invocation step.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// StageOf returns the failed stage of err, or "" if err carries none.
func StageOf(err error) Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}

// Files holds the resolved paths of the generated files.
type Files struct {
	Buffer   string
	Header   string
	Artifact string
}

// Config configures an Invoker.
type Config struct {
	Compiler    string
	DeviceFlags []string
	Files       Files
	Args        *ArgSet
	Runner      Runner
	Host        Host
	Logger      *slog.Logger
}

// Invoker runs the device compiler and owns the active artifact.
type Invoker struct {
	compiler    string
	deviceFlags []string
	files       Files
	args        *ArgSet
	runner      Runner
	host        Host
	logger      *slog.Logger

	active    ArtifactID
	hasActive bool
}

// NewInvoker creates an invoker. A nil Runner means ExecRunner; a nil
// ArgSet gets one with no host arguments.
func NewInvoker(cfg Config) *Invoker {
	if cfg.Runner == nil {
		cfg.Runner = ExecRunner{}
	}
	if cfg.Args == nil {
		cfg.Args = NewArgSet(nil, cfg.Files.Buffer)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	return &Invoker{
		compiler:    cfg.Compiler,
		deviceFlags: append([]string(nil), cfg.DeviceFlags...),
		files:       cfg.Files,
		args:        cfg.Args,
		runner:      cfg.Runner,
		host:        cfg.Host,
		logger:      cfg.Logger,
	}
}

// Args returns the argument set shared with the hoister.
func (inv *Invoker) Args() *ArgSet {
	return inv.args
}

// Argv returns the argument vector of the next invocation.
func (inv *Invoker) Argv() []string {
	argv := append([]string(nil), inv.deviceFlags...)
	argv = append(argv, "-Xclang", "-fsycl-int-header="+inv.files.Header)
	argv = append(argv, inv.args.Static()...)
	argv = append(argv, inv.args.Registered()...)
	return append(argv, "-c", "-o", inv.files.Artifact)
}

// Invoke compiles the buffer and installs the resulting header.
//
// A compile failure leaves the active artifact installed. Once the
// compiler succeeds the previous artifact is unloaded, so a declare
// failure leaves no artifact active.
func (inv *Invoker) Invoke(ctx context.Context) error {
	if err := os.WriteFile(inv.files.Header, nil, 0o644); err != nil {
		return &StageError{Stage: StageCompile, Err: fmt.Errorf("truncate header: %w", err)}
	}

	argv := inv.Argv()
	inv.logger.Debug("running device compiler", "compiler", inv.compiler, "args", argv)

	var output bytes.Buffer
	err := inv.runner.Run(ctx, Command{
		Name:   inv.compiler,
		Args:   argv,
		Stdout: &output,
		Stderr: &output,
	})
	if err != nil {
		inv.logger.Debug("device compiler failed", "error", err, "output", output.String())
		return &StageError{Stage: StageCompile, Err: err}
	}

	if inv.hasActive {
		if err := inv.host.Unload(ctx, inv.active); err != nil {
			inv.logger.Warn("unload previous artifact", "artifact", inv.active, "error", err)
		}
		inv.active, inv.hasActive = "", false
	}

	header, err := os.ReadFile(inv.files.Header)
	if err != nil {
		return &StageError{Stage: StageDeclare, Err: fmt.Errorf("read header: %w", err)}
	}
	id, err := inv.host.Declare(ctx, string(header))
	if err != nil {
		return &StageError{Stage: StageDeclare, Err: err}
	}
	inv.active, inv.hasActive = id, true
	inv.logger.Debug("declared artifact", "artifact", id, "bytes", len(header))
	return nil
}

// Active returns the installed artifact.
func (inv *Invoker) Active() (ArtifactID, bool) {
	return inv.active, inv.hasActive
}

// Release unloads the active artifact, if any.
func (inv *Invoker) Release(ctx context.Context) error {
	if !inv.hasActive {
		return nil
	}
	id := inv.active
	inv.active, inv.hasActive = "", false
	if err := inv.host.Unload(ctx, id); err != nil {
		return fmt.Errorf("unload artifact %s: %w", id, err)
	}
	return nil
}
