package testutil

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/roach88/offload/internal/device"
)

const headerFlag = "-fsycl-int-header="

// ScriptedRunner stands in for the device compiler.
//
// Each successful run writes a numbered header to the path named by
// -fsycl-int-header= and a placeholder artifact to the path after -o.
// Scheduled failures exit with status 1 without touching either file.
//
// Thread-safety: all methods are safe for concurrent use.
type ScriptedRunner struct {
	mu       sync.Mutex
	calls    []device.Command
	failures int
	runs     int
}

// NewScriptedRunner creates a runner that succeeds until told otherwise.
func NewScriptedRunner() *ScriptedRunner {
	return &ScriptedRunner{}
}

// FailNext makes the next n runs exit with status 1.
func (r *ScriptedRunner) FailNext(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures += n
}

// Run implements device.Runner.
func (r *ScriptedRunner) Run(ctx context.Context, cmd device.Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	cmd.Args = append([]string(nil), cmd.Args...)
	r.calls = append(r.calls, cmd)

	if r.failures > 0 {
		r.failures--
		if cmd.Stderr != nil {
			fmt.Fprintf(cmd.Stderr, "%s: error: scripted failure\n", cmd.Name)
		}
		return &device.ExitError{Name: cmd.Name, Code: 1}
	}

	r.runs++
	if header := HeaderPath(cmd.Args); header != "" {
		text := fmt.Sprintf("// device integration header %d\n", r.runs)
		if err := os.WriteFile(header, []byte(text), 0o644); err != nil {
			return err
		}
	}
	if artifact := valueAfter(cmd.Args, "-o"); artifact != "" {
		if err := os.WriteFile(artifact, []byte("SPIR-V"), 0o644); err != nil {
			return err
		}
	}
	return nil
}

// Calls returns the recorded commands in order.
func (r *ScriptedRunner) Calls() []device.Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]device.Command(nil), r.calls...)
}

// Runs returns the number of successful runs.
func (r *ScriptedRunner) Runs() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runs
}

// HeaderPath extracts the header path from a device compiler argv.
func HeaderPath(args []string) string {
	for _, arg := range args {
		if path, ok := strings.CutPrefix(arg, headerFlag); ok {
			return path
		}
	}
	return ""
}

func valueAfter(args []string, flag string) string {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}
