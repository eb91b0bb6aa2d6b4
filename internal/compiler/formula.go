// Package compiler turns a CUE formula-database snapshot into formula
// records.
//
// A snapshot declares records under a top-level "formula" struct:
//
//	formula: {
//		"newton-second-law": {
//			category: "ESTABLISHED"
//			display: ["F = ma", "$$F = ma$$"]
//		}
//		"momentum-rate": {
//			category: "DERIVED"
//			display: ["F = \\frac{dp}{dt}"]
//			parents: ["newton-second-law"]
//			steps: ["differentiate p = mv with constant m"]
//		}
//	}
//
// Field declaration order is preserved, which fixes store insertion order
// and therefore report ordering.
package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/physics-archive/formulaudit/internal/formula"
)

// CompileError reports a malformed snapshot entry with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// CompileSnapshot extracts every record under the top-level "formula"
// struct, in declaration order. All malformed entries are collected; well
// formed entries are still returned so one pass reports every problem.
func CompileSnapshot(value cue.Value) ([]formula.Record, []error) {
	var (
		records []formula.Record
		errs    []error
	)

	formulasVal := value.LookupPath(cue.ParsePath("formula"))
	if !formulasVal.Exists() {
		return nil, []error{&CompileError{
			Field:   "formula",
			Message: "snapshot must declare a top-level formula struct",
			Pos:     value.Pos(),
		}}
	}

	iter, err := formulasVal.Fields()
	if err != nil {
		return nil, []error{formatCUEError(err)}
	}
	for iter.Next() {
		rec, compileErr := CompileFormula(iter.Label(), iter.Value())
		if compileErr != nil {
			errs = append(errs, compileErr)
			continue
		}
		records = append(records, *rec)
	}

	return records, errs
}

// CompileFormula parses one record struct. The record id is the struct
// label, so snapshots cannot declare the same id twice (CUE unifies the
// bodies instead, and the unified record either compiles or fails here).
func CompileFormula(id string, v cue.Value) (*formula.Record, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	rec := &formula.Record{ID: id}

	categoryVal := v.LookupPath(cue.ParsePath("category"))
	if !categoryVal.Exists() {
		return nil, &CompileError{
			Field:   id + ".category",
			Message: "category is required",
			Pos:     v.Pos(),
		}
	}
	category, err := categoryVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	rec.Category = formula.Category(category)
	if !rec.Category.Valid() {
		return nil, &CompileError{
			Field:   id + ".category",
			Message: fmt.Sprintf("unknown category %q, must be ESTABLISHED, THEORY, DERIVED or PREDICTION", category),
			Pos:     categoryVal.Pos(),
		}
	}

	rec.DisplayVariants, err = parseStringList(v, "display")
	if err != nil {
		return nil, err
	}
	if len(rec.DisplayVariants) == 0 {
		return nil, &CompileError{
			Field:   id + ".display",
			Message: "at least one display variant is required",
			Pos:     v.Pos(),
		}
	}

	rec.ParentFormulaIDs, err = parseStringList(v, "parents")
	if err != nil {
		return nil, err
	}
	rec.EstablishedPhysicsIDs, err = parseStringList(v, "established")
	if err != nil {
		return nil, err
	}
	rec.DerivationSteps, err = parseStringList(v, "steps")
	if err != nil {
		return nil, err
	}

	rec.Comparison.PredictedValue, err = parseOptionalFloat(v, "predicted_value")
	if err != nil {
		return nil, err
	}
	rec.Comparison.ExperimentalValue, err = parseOptionalFloat(v, "experimental_value")
	if err != nil {
		return nil, err
	}
	rec.Comparison.Uncertainty, err = parseOptionalFloat(v, "uncertainty")
	if err != nil {
		return nil, err
	}

	return rec, nil
}

// parseStringList reads an optional list-of-strings field.
func parseStringList(v cue.Value, field string) ([]string, error) {
	listVal := v.LookupPath(cue.ParsePath(field))
	if !listVal.Exists() {
		return nil, nil
	}

	iter, err := listVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, s)
	}
	return out, nil
}

// parseOptionalFloat reads an optional numeric field.
func parseOptionalFloat(v cue.Value, field string) (*float64, error) {
	val := v.LookupPath(cue.ParsePath(field))
	if !val.Exists() {
		return nil, nil
	}
	f, err := val.Float64()
	if err != nil {
		return nil, formatCUEError(err)
	}
	return &f, nil
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	return &CompileError{
		Field:   "cue",
		Message: firstErr.Error(),
		Pos:     firstErr.Position(),
	}
}
