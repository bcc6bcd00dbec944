package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/roach88/offload/internal/engine"
	"github.com/roach88/offload/internal/ir"
	"github.com/roach88/offload/internal/profile"
	"github.com/roach88/offload/internal/store"
)

const (
	promptMain     = "offload> "
	promptContinue = "    ...> "
)

// ReplOptions holds flags for the repl command.
type ReplOptions struct {
	*RootOptions
	Database string // optional journal database
	History  string // readline history file
}

// NewReplCommand creates the repl command.
func NewReplCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Interactive session",
		Long: `Start an interactive session.

Each line is a C++ declaration or statement. Lines that leave a brace,
bracket or parenthesis open are continued on the next prompt. After every
complete submission the accumulated source is recompiled for the device;
a failed submission is rolled back.

Commands:
  .buffer           Print the accumulated source
  .entries          List ledger entries
  .undo             Remove the last submission
  .arg FLAG [VALUE] Add a device compiler argument
  .argv             Print the device compiler command
  .header           Print the active integration header
  .quit             Exit

Examples:
  offload repl
  offload repl --profile sycl.cue --db session.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepl(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "record the session journal to this SQLite database")
	cmd.Flags().StringVar(&opts.History, "history", "", "readline history file")

	return cmd
}

func runRepl(ctx context.Context, opts *ReplOptions, cmd *cobra.Command) error {
	prof, err := opts.loadProfile()
	if err != nil {
		return err
	}

	cfg := sessionConfig{Profile: prof, Logger: opts.logger(cmd.ErrOrStderr())}
	if opts.Database != "" {
		st, err := store.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer st.Close()

		hash, err := profile.Hash(prof)
		if err != nil {
			return err
		}
		journal, err := store.NewSessionJournal(ctx, st, hash, ir.EngineVersion)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to start journal session", err)
		}
		cfg.Journal = journal
		fmt.Fprintf(cmd.ErrOrStderr(), "journal session %s\n", journal.Session())
	}

	sess, err := newSession(cfg)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to start session", err)
	}
	defer sess.Close()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          promptMain,
		HistoryFile:     opts.History,
		AutoComplete:    newDotCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer rl.Close()

	fmt.Fprintf(cmd.OutOrStdout(), "offload %s (compiler: %s)\n", ir.EngineVersion, prof.Compiler)
	fmt.Fprintln(cmd.OutOrStdout(), "Type .help for commands, .quit to exit")

	r := &repl{
		session:  sess,
		compiler: prof.Compiler,
		out:      cmd.OutOrStdout(),
		errOut:   &OutputFormatter{Format: opts.Format, Writer: cmd.ErrOrStderr()},
	}
	return r.loop(ctx, rl)
}

// lineReader is the part of *readline.Instance the loop needs.
type lineReader interface {
	Readline() (string, error)
	SetPrompt(prompt string)
}

type repl struct {
	session  *Session
	compiler string
	out      io.Writer
	errOut   *OutputFormatter
}

func (r *repl) loop(ctx context.Context, in lineReader) error {
	for {
		line, err := in.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			r.session.Discard()
			in.SetPrompt(promptMain)
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		trimmed := strings.TrimSpace(line)
		if !r.session.Pending() && strings.HasPrefix(trimmed, ".") {
			if quit := r.dot(ctx, trimmed); quit {
				return nil
			}
			continue
		}

		if _, err := r.session.Submit(ctx, line); err != nil && !engine.IsIncomplete(err) {
			r.report(err)
		}
		if r.session.Pending() {
			in.SetPrompt(promptContinue)
		} else {
			in.SetPrompt(promptMain)
		}
	}
}

func (r *repl) report(err error) {
	code := string(engine.CodeOf(err))
	if code == "" {
		code = "E_SESSION"
	}
	_ = r.errOut.Error(code, err.Error(), nil)
}

// dot runs a dot command and reports whether the loop should exit.
func (r *repl) dot(ctx context.Context, line string) bool {
	parts := strings.Fields(line)
	eng := r.session.Engine()

	switch parts[0] {
	case ".quit", ".exit":
		return true

	case ".help":
		printReplHelp(r.out)

	case ".buffer":
		fmt.Fprint(r.out, eng.Buffer())
		if b := eng.Buffer(); b != "" && !strings.HasSuffix(b, "\n") {
			fmt.Fprintln(r.out)
		}

	case ".entries":
		for _, e := range eng.Entries() {
			owner := string(e.Owner)
			if owner == "" {
				owner = "-"
			}
			fmt.Fprintf(r.out, "%4d  %-9s  owner=%s committed=%t  %s\n",
				e.ID, e.Kind, owner, e.Committed, firstLine(e.Body))
		}

	case ".undo":
		removed, err := r.session.Undo(ctx)
		if errors.Is(err, errNothingToUndo) {
			fmt.Fprintln(r.out, "nothing to undo")
			break
		}
		fmt.Fprintf(r.out, "removed %d entries\n", len(removed))
		if err != nil {
			r.report(err)
		}

	case ".arg":
		if len(parts) < 2 || len(parts) > 3 {
			fmt.Fprintln(r.out, "usage: .arg FLAG [VALUE]")
			break
		}
		value := ""
		if len(parts) == 3 {
			value = parts[2]
		}
		eng.AddCompileArg(parts[1], value)

	case ".argv":
		fmt.Fprintln(r.out, r.compiler+" "+strings.Join(eng.Argv(), " "))

	case ".header":
		if _, header, ok := r.session.Host().Active(); ok {
			fmt.Fprint(r.out, header)
		} else {
			fmt.Fprintln(r.out, "no active header")
		}

	default:
		fmt.Fprintf(r.out, "unknown command: %s (type .help for commands)\n", parts[0])
	}
	return false
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " ..."
	}
	return s
}

func printReplHelp(w io.Writer) {
	fmt.Fprint(w, `Commands:
  .buffer           Print the accumulated source
  .entries          List ledger entries
  .undo             Remove the last submission
  .arg FLAG [VALUE] Add a device compiler argument
  .argv             Print the device compiler command
  .header           Print the active integration header
  .quit / .exit     Exit
`)
}

func newDotCompleter() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem(".help"),
		readline.PcItem(".buffer"),
		readline.PcItem(".entries"),
		readline.PcItem(".undo"),
		readline.PcItem(".arg"),
		readline.PcItem(".argv"),
		readline.PcItem(".header"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)
}
