package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/offload/internal/device"
)

// ArgsResult is the device compiler command line.
type ArgsResult struct {
	Compiler string   `json:"compiler"`
	Argv     []string `json:"argv"`
}

// NewArgsCommand creates the args command.
func NewArgsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "args [host-args...]",
		Short: "Print the device compiler command",
		Long: `Print the command the device compiler is invoked with.

Host arguments given after -- replace the profile's host_args. Only
system include paths, -x, -std=c++* and -f flags survive the filter,
together with their values; everything else is dropped.

Examples:
  offload args
  offload args --profile sycl.cue -- -std=c++17 -internal-isystem /opt/include -O2`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runArgs(rootOpts, args, cmd)
		},
	}
	return cmd
}

func runArgs(opts *RootOptions, hostArgs []string, cmd *cobra.Command) error {
	prof, err := opts.loadProfile()
	if err != nil {
		return err
	}
	if len(hostArgs) > 0 {
		prof.HostArgs = hostArgs
	}

	dir := prof.WorkDir
	if dir == "" {
		dir = "."
	}
	files := device.Files{
		Buffer:   filepath.Join(dir, prof.Files.Buffer),
		Header:   filepath.Join(dir, prof.Files.Header),
		Artifact: filepath.Join(dir, prof.Files.Artifact),
	}
	inv := device.NewInvoker(device.Config{
		Compiler:    prof.Compiler,
		DeviceFlags: prof.DeviceFlags,
		Files:       files,
		Args:        device.NewArgSet(prof.HostArgs, files.Buffer),
	})

	result := ArgsResult{Compiler: prof.Compiler, Argv: inv.Argv()}
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if opts.Format == "json" {
		return out.Success(result)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), result.Compiler+" "+strings.Join(result.Argv, " "))
	return err
}
