package cli

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/offload/internal/ir"
	"github.com/roach88/offload/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Session  string // empty means the latest session
	Kind     string // optional event kind filter
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Session  ir.Session        `json:"session"`
	Timeline []ir.JournalEvent `json:"timeline"`
	Stats    TraceStats        `json:"stats"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	TotalEvents    int `json:"total_events"`
	Appended       int `json:"appended"`
	Erased         int `json:"erased"`
	Compiles       int `json:"compiles"`
	FailedCompiles int `json:"failed_compiles"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show the journal of a session",
		Long: `Show the recorded pipeline events of a journal session.

The timeline lists appends, hoists, transaction changes, rollbacks and
compiler outcomes in the order the engine stamped them.

Examples:
  offload trace --db ./session.db
  offload trace --db ./session.db --session 0190c2a4-...
  offload trace --db ./session.db --kind erase --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Session, "session", "", "session id (default: latest)")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "filter to one event kind")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	var session ir.Session
	if opts.Session == "" {
		session, err = st.LatestSession(ctx)
	} else {
		session, err = st.ReadSession(ctx, opts.Session)
	}
	if errors.Is(err, sql.ErrNoRows) {
		if opts.Session == "" {
			return NewExitError(ExitCommandError, "no sessions recorded")
		}
		return NewExitError(ExitCommandError, fmt.Sprintf("session not found: %s", opts.Session))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read session", err)
	}

	var events []ir.JournalEvent
	if opts.Kind == "" {
		events, err = st.ReadEvents(ctx, session.ID)
	} else {
		events, err = st.ReadEventsByKind(ctx, session.ID, ir.EventKind(opts.Kind))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read events", err)
	}

	result := TraceResult{
		Session:  session,
		Timeline: events,
		Stats:    traceStats(events),
	}

	if opts.Format == "json" {
		return outputTraceJSON(cmd, result)
	}
	return outputTraceText(cmd.OutOrStdout(), result, opts.Verbose)
}

func traceStats(events []ir.JournalEvent) TraceStats {
	stats := TraceStats{TotalEvents: len(events)}
	for _, ev := range events {
		switch ev.Kind {
		case ir.EventAppend:
			stats.Appended++
		case ir.EventErase:
			stats.Erased++
		case ir.EventCompileOK:
			stats.Compiles++
		case ir.EventCompileFailed, ir.EventDeclareFailed, ir.EventReparseFailed:
			stats.FailedCompiles++
		}
	}
	return stats
}

// outputTraceJSON outputs the trace result as JSON.
func outputTraceJSON(cmd *cobra.Command, result TraceResult) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(CLIResponse{Status: "ok", Data: result})
}

// outputTraceText outputs the trace result as text.
func outputTraceText(w io.Writer, result TraceResult, verbose bool) error {
	fmt.Fprintf(w, "Trace for Session: %s\n", result.Session.ID)
	fmt.Fprintf(w, "Engine: %s  Profile: %s\n", result.Session.EngineVersion, truncateID(result.Session.ProfileHash))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Timeline ===")
	if len(result.Timeline) == 0 {
		fmt.Fprintln(w, "  (no events)")
	}
	for _, ev := range result.Timeline {
		formatTimelineEvent(w, ev, verbose)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Stats ===")
	fmt.Fprintf(w, "  Total Events:    %d\n", result.Stats.TotalEvents)
	fmt.Fprintf(w, "  Appended:        %d\n", result.Stats.Appended)
	fmt.Fprintf(w, "  Erased:          %d\n", result.Stats.Erased)
	fmt.Fprintf(w, "  Compiles:        %d\n", result.Stats.Compiles)
	fmt.Fprintf(w, "  Failed Compiles: %d\n", result.Stats.FailedCompiles)

	return nil
}

// formatTimelineEvent formats a single timeline event for text output.
func formatTimelineEvent(w io.Writer, ev ir.JournalEvent, verbose bool) {
	line := fmt.Sprintf("  [%d] %-14s", ev.Seq, ev.Kind)
	if ev.EntryID != 0 {
		line += fmt.Sprintf(" entry=%d", ev.EntryID)
	}
	if ev.Tx != ir.NoTx {
		line += " tx=" + truncateID(string(ev.Tx))
	}
	if ev.Detail != "" && (verbose || ev.Kind != ir.EventCompileFailed) {
		line += " " + ev.Detail
	}
	fmt.Fprintln(w, line)
	if verbose && ev.BufferHash != "" {
		fmt.Fprintf(w, "       Buffer: %s\n", ev.BufferHash)
	}
}

// truncateID shortens an id for display.
func truncateID(id string) string {
	if len(id) <= 12 {
		return id
	}
	return id[:12] + "..."
}
