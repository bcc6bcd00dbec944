// Package cli implements the offload command-line host.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/offload/internal/ir"
	"github.com/roach88/offload/internal/profile"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Profile string // path to a CUE profile; empty means defaults
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the offload CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "offload",
		Short: "offload - incremental device compilation for interactive C++",
		Long: `Accumulates interactively submitted C++ fragments into a single
translation unit, recompiles it for the offload device after every
submission, and rolls back whatever a failed submission added.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Profile, "profile", "", "toolchain profile (.cue)")

	cmd.AddCommand(NewReplCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewArgsCommand(opts))
	cmd.AddCommand(NewTraceCommand(opts))

	return cmd
}

// loadProfile returns the --profile file, or the defaults when unset.
func (o *RootOptions) loadProfile() (ir.Profile, error) {
	if o.Profile == "" {
		return profile.Default(), nil
	}
	p, err := profile.Load(o.Profile)
	if err != nil {
		return ir.Profile{}, WrapExitError(ExitCommandError, "failed to load profile", err)
	}
	return p, nil
}

// logger writes text records to w: debug and up with --verbose, warnings
// otherwise.
func (o *RootOptions) logger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if o.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
