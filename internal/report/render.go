package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// RenderJSON writes the report as indented JSON. HTML escaping is disabled
// so LaTeX display strings round-trip readably; map keys (the chains) are
// sorted by encoding/json, keeping the output byte-stable.
func RenderJSON(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// RenderMarkdown writes the report as a set of Markdown tables with a
// per-category count header. Itemized sections are omitted when empty; the
// count header always enumerates every category.
func RenderMarkdown(w io.Writer, r *Report) error {
	reg := r.Registration
	d := r.Derivation
	c := r.Consistency

	fmt.Fprintln(w, "# Formula audit report")

	if !reg.Clean() {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "## Snapshot loading")
		fmt.Fprintln(w)
		fmt.Fprintf(w, "- invariant violations: %d\n", len(reg.InvariantViolations))
		fmt.Fprintf(w, "- display conflicts: %d\n", len(reg.DisplayConflicts))
		fmt.Fprintf(w, "- compile errors: %d\n", len(reg.CompileErrors))

		if len(reg.InvariantViolations) > 0 {
			fmt.Fprintln(w)
			fmt.Fprintln(w, "### Invariant violations")
			fmt.Fprintln(w)
			fmt.Fprintln(w, "| id | field | message |")
			fmt.Fprintln(w, "| --- | --- | --- |")
			for _, v := range reg.InvariantViolations {
				fmt.Fprintf(w, "| %s | %s | %s |\n", v.ID, v.Field, v.Message)
			}
		}
		if len(reg.DisplayConflicts) > 0 {
			fmt.Fprintln(w)
			fmt.Fprintln(w, "### Display conflicts")
			fmt.Fprintln(w)
			fmt.Fprintln(w, "| display | existing | new |")
			fmt.Fprintln(w, "| --- | --- | --- |")
			for _, dc := range reg.DisplayConflicts {
				fmt.Fprintf(w, "| `%s` | %s | %s |\n", dc.Display, dc.ExistingID, dc.NewID)
			}
		}
		if len(reg.CompileErrors) > 0 {
			fmt.Fprintln(w)
			fmt.Fprintln(w, "### Compile errors")
			fmt.Fprintln(w)
			for _, msg := range reg.CompileErrors {
				fmt.Fprintf(w, "- %s\n", msg)
			}
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "## Derivation validation")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "- formulas: %d\n", d.Total)
	fmt.Fprintf(w, "- valid: %d\n", d.ValidCount)
	fmt.Fprintf(w, "- cycles: %d\n", len(d.Cycles))
	fmt.Fprintf(w, "- unrooted: %d\n", len(d.Unrooted))
	fmt.Fprintf(w, "- reference errors: %d\n", len(d.ReferenceErrors))

	if len(d.Cycles) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "### Cycles")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "| id | path |")
		fmt.Fprintln(w, "| --- | --- |")
		for _, cyc := range d.Cycles {
			fmt.Fprintf(w, "| %s | %s |\n", cyc.ID(), strings.Join(cyc.Path, " -> "))
		}
	}
	if len(d.Unrooted) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "### Unrooted chains")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "| id |")
		fmt.Fprintln(w, "| --- |")
		for _, u := range d.Unrooted {
			fmt.Fprintf(w, "| %s |\n", u.ID)
		}
	}
	if len(d.ReferenceErrors) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "### Reference errors")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "| id | missing parent |")
		fmt.Fprintln(w, "| --- | --- |")
		for _, re := range d.ReferenceErrors {
			fmt.Fprintf(w, "| %s | %s |\n", re.ID, re.MissingParentID)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "## Cross-source consistency")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "- matched: %d\n", len(c.MatchedPairs))
	fmt.Fprintf(w, "- source-only: %d\n", len(c.SourceOnly))
	fmt.Fprintf(w, "- target-only: %d\n", len(c.TargetOnly))
	fmt.Fprintf(w, "- extraction warnings: %d\n", len(r.ExtractionWarnings))

	if len(c.MatchedPairs) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "### Matched")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "| document | section | formula | equation |")
		fmt.Fprintln(w, "| --- | --- | --- | --- |")
		for _, p := range c.MatchedPairs {
			fmt.Fprintf(w, "| %s | %s | %s | `%s` |\n",
				p.Occurrence.Document, p.Occurrence.Section, p.FormulaID, p.Normalized)
		}
	}
	if len(c.SourceOnly) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "### Source-only equations")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "| document | section | equation |")
		fmt.Fprintln(w, "| --- | --- | --- |")
		for _, occ := range c.SourceOnly {
			fmt.Fprintf(w, "| %s | %s | `%s` |\n", occ.Document, occ.Section, occ.Raw)
		}
	}
	if len(c.TargetOnly) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "### Target-only formulas")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "| id |")
		fmt.Fprintln(w, "| --- |")
		for _, id := range c.TargetOnly {
			fmt.Fprintf(w, "| %s |\n", id)
		}
	}
	if len(r.ExtractionWarnings) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "### Extraction warnings")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "| document | section | offset | delimiter | reason |")
		fmt.Fprintln(w, "| --- | --- | --- | --- | --- |")
		for _, warn := range r.ExtractionWarnings {
			fmt.Fprintf(w, "| %s | %s | %d | `%s` | %s |\n",
				warn.Document, warn.Section, warn.Offset, warn.Delimiter, warn.Reason)
		}
	}
	return nil
}
