package cli

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/physics-archive/formulaudit/internal/formula"
	"github.com/physics-archive/formulaudit/internal/graph"
	"github.com/physics-archive/formulaudit/internal/match"
	"github.com/physics-archive/formulaudit/internal/report"
	"github.com/physics-archive/formulaudit/internal/store"
)

// AuditOptions holds flags for the audit command.
type AuditOptions struct {
	Database string
	Corpus   string
	Strict   bool
	History  string
}

// NewAuditCommand creates the audit command.
func NewAuditCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AuditOptions{}

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Audit a formula database against a document corpus",
		Long: `Audit a formula database snapshot against a document corpus.

Validates every derivation chain back to established physics, extracts
the equations each document states, and reconciles the two sides. The
report is written to stdout in the configured format and is byte-stable:
the same database and corpus always produce the same bytes.

Exits 0 on a clean audit, 1 when the audit has findings, 2 on command
errors such as a missing snapshot or corpus directory.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAudit(rootOpts, opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "database", "", "formula database snapshot (.cue, .yaml or .yml)")
	cmd.Flags().StringVar(&opts.Corpus, "corpus", "", "directory of source documents")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "treat source-only equations as failures")
	cmd.Flags().StringVar(&opts.History, "history", "", "append the run to a history ledger at this path")
	_ = cmd.MarkFlagRequired("database")
	_ = cmd.MarkFlagRequired("corpus")

	return cmd
}

func runAudit(rootOpts *RootOptions, opts *AuditOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    rootOpts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   rootOpts.Verbose,
	}

	snap, err := LoadSnapshot(opts.Database)
	if err != nil {
		return commandError(formatter, err)
	}
	formatter.VerboseLog("Loaded %d formula(s) from %s", snap.RecordCount, opts.Database)

	corpus, err := ScanCorpus(opts.Corpus)
	if err != nil {
		return commandError(formatter, err)
	}
	formatter.VerboseLog("Extracted %d equation(s), %d warning(s) from %s",
		len(corpus.Occurrences), len(corpus.Warnings), opts.Corpus)

	summary := graph.Validate(snap.Store)
	rec := match.Reconcile(snap.Store, corpus.Occurrences)
	rep := report.Build(snap.Registration, summary, rec, corpus.Warnings)

	// The ledger fingerprint is always taken over the JSON rendering, so
	// runs written with --format md still hash-compare against JSON runs.
	var canonical bytes.Buffer
	if err := report.RenderJSON(&canonical, rep); err != nil {
		return commandError(formatter, err)
	}

	rendered := canonical.Bytes()
	if rootOpts.Format == "md" {
		var out bytes.Buffer
		if err := report.RenderMarkdown(&out, rep); err != nil {
			return commandError(formatter, err)
		}
		rendered = out.Bytes()
	}
	if _, err := formatter.Writer.Write(rendered); err != nil {
		return commandError(formatter, err)
	}

	if opts.History != "" {
		run := store.NewRun(opts.Database, opts.Corpus, snap.Hash,
			formula.ReportHash(canonical.Bytes()), rep)
		if err := appendHistory(cmd, opts.History, run); err != nil {
			return commandError(formatter, err)
		}
		formatter.VerboseLog("Recorded run %s in %s", run.ID, opts.History)
	}

	if rep.Failing(opts.Strict) {
		return NewExitError(ExitFailure, "audit failed")
	}
	return nil
}

// appendHistory records a finished run in the SQLite ledger.
func appendHistory(cmd *cobra.Command, path string, run store.Run) error {
	ledger, err := store.Open(path)
	if err != nil {
		return &LoadError{Code: ErrCodeHistory, Message: err.Error()}
	}
	defer ledger.Close()

	if err := ledger.WriteRun(cmd.Context(), run); err != nil {
		return &LoadError{Code: ErrCodeHistory, Message: err.Error()}
	}
	return nil
}

// commandError reports an operational error and maps it to exit code 2.
// Audit findings never come through here: they are rendered into the
// report and surfaced as ExitFailure by runAudit.
func commandError(formatter *OutputFormatter, err error) error {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		formatter.Error(loadErr.Code, loadErr.Message)
		return WrapExitError(ExitCommandError, loadErr.Code, err)
	}
	formatter.Error(ErrCodeGeneric, err.Error())
	return WrapExitError(ExitCommandError, fmt.Sprintf("%s: command failed", ErrCodeGeneric), err)
}
