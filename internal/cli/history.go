package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/physics-archive/formulaudit/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	History string
	Limit   int
}

// HistoryEntry is one ledger row plus its drift marker: whether the
// report fingerprint changed relative to the previous run over the same
// database and corpus paths.
type HistoryEntry struct {
	store.Run
	ReportChanged bool `json:"report_changed"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded audit runs",
		Long: `List audit runs recorded in a history ledger, newest first.

Each run is marked as changed when its report fingerprint differs from
the previous run over the same database and corpus paths, so regressions
between snapshots stand out without diffing reports by hand.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(rootOpts, opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.History, "history", "", "history ledger path")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "show at most this many runs (0 = all)")
	_ = cmd.MarkFlagRequired("history")

	return cmd
}

func runHistory(rootOpts *RootOptions, opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    rootOpts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   rootOpts.Verbose,
	}

	ledger, err := store.Open(opts.History)
	if err != nil {
		return commandError(formatter, &LoadError{Code: ErrCodeHistory, Message: err.Error()})
	}
	defer ledger.Close()

	// All rows are needed to resolve each run's predecessor; the limit
	// only trims what gets shown.
	runs, err := ledger.ListRuns(cmd.Context(), 0)
	if err != nil {
		return commandError(formatter, &LoadError{Code: ErrCodeHistory, Message: err.Error()})
	}

	entries := markChanged(runs)
	if opts.Limit > 0 && len(entries) > opts.Limit {
		entries = entries[:opts.Limit]
	}

	if rootOpts.Format == "md" {
		return renderHistoryMarkdown(formatter, entries)
	}
	enc := json.NewEncoder(formatter.Writer)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}

// markChanged computes the drift marker for each run. Runs arrive newest
// first, so a run's predecessor is the next row with the same database
// and corpus paths. The oldest run of each input pair counts as changed:
// there is nothing to be equal to.
func markChanged(runs []store.Run) []HistoryEntry {
	entries := make([]HistoryEntry, 0, len(runs))
	for i, run := range runs {
		entry := HistoryEntry{Run: run, ReportChanged: true}
		for _, prev := range runs[i+1:] {
			if prev.DatabasePath == run.DatabasePath && prev.CorpusPath == run.CorpusPath {
				entry.ReportChanged = prev.ReportHash != run.ReportHash
				break
			}
		}
		entries = append(entries, entry)
	}
	return entries
}

func renderHistoryMarkdown(formatter *OutputFormatter, entries []HistoryEntry) error {
	w := formatter.Writer
	fmt.Fprintln(w, "# Audit history")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "- runs: %d\n", len(entries))

	if len(entries) == 0 {
		return nil
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "| created | run | database | corpus | formulas | valid | matched | report |")
	fmt.Fprintln(w, "| --- | --- | --- | --- | --- | --- | --- | --- |")
	for _, e := range entries {
		status := "unchanged"
		if e.ReportChanged {
			status = "changed"
		}
		fmt.Fprintf(w, "| %s | %s | %s | %s | %d | %d | %d | %s |\n",
			e.CreatedAt.Format(time.RFC3339), shortID(e.ID),
			e.DatabasePath, e.CorpusPath,
			e.TotalFormulas, e.ValidFormulas, e.Matched, status)
	}
	return nil
}

// shortID truncates a run id for table display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
