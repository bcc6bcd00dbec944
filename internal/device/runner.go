package device

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
)

// Command is one external process invocation.
type Command struct {
	Name   string
	Args   []string
	Stdout io.Writer
	Stderr io.Writer
}

// Runner executes a command to completion.
// A non-zero exit status is reported as *ExitError.
type Runner interface {
	Run(ctx context.Context, cmd Command) error
}

// ExitError reports a process that ran and exited unsuccessfully.
type ExitError struct {
	Name string
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with status %d", e.Name, e.Code)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, cmd Command) error {
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Stdout = cmd.Stdout
	c.Stderr = cmd.Stderr
	if err := c.Run(); err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			return &ExitError{Name: cmd.Name, Code: ee.ExitCode()}
		}
		return fmt.Errorf("run %s: %w", cmd.Name, err)
	}
	return nil
}
