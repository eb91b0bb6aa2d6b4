package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/physics-archive/formulaudit/internal/compiler"
	"github.com/physics-archive/formulaudit/internal/formula"
	"github.com/physics-archive/formulaudit/internal/graph"
	"github.com/physics-archive/formulaudit/internal/report"
)

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeNotFound    = "E002" // Path not found
	ErrCodeUnsupported = "E003" // Unsupported snapshot extension
	ErrCodeLoadFailed  = "E004" // Snapshot unreadable or unparsable
	ErrCodeScanError   = "E005" // Corpus directory scan error
	ErrCodeNoFiles     = "E006" // No corpus documents found
	ErrCodeHistory     = "E007" // History ledger error
)

// LoadError represents an error that occurred during snapshot loading.
type LoadError struct {
	Code    string
	Message string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// SnapshotResult contains a loaded formula database snapshot.
type SnapshotResult struct {
	Store        *graph.Store
	Registration *report.Registration
	Hash         string // content fingerprint of the raw snapshot bytes
	RecordCount  int    // records successfully registered
}

// LoadSnapshot reads a formula database snapshot and registers every
// record into a fresh store. The format is chosen by extension: .cue is
// compiled through the CUE evaluator, .yaml/.yml is decoded directly.
//
// Fatal problems (missing file, unparsable bytes) come back as a
// *LoadError. Per-record problems never abort the load: malformed
// entries, invariant violations and display conflicts are collected into
// the Registration so one run reports every finding.
func LoadSnapshot(path string) (*SnapshotResult, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("database snapshot not found: %s", path)}
		}
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("reading snapshot: %v", err)}
	}

	var (
		records     []formula.Record
		compileErrs []error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".cue":
		records, compileErrs, err = loadCUESnapshot(path, raw)
	case ".yaml", ".yml":
		records, err = loadYAMLSnapshot(raw)
	default:
		return nil, &LoadError{Code: ErrCodeUnsupported, Message: fmt.Sprintf("unsupported snapshot format %q: use .cue, .yaml or .yml", ext)}
	}
	if err != nil {
		return nil, err
	}

	res := &SnapshotResult{
		Store:        graph.NewStore(),
		Registration: &report.Registration{},
		Hash:         formula.SnapshotHash(raw),
	}
	for _, cerr := range compileErrs {
		res.Registration.CompileErrors = append(res.Registration.CompileErrors, cerr.Error())
	}
	for _, rec := range records {
		if err := res.Store.Register(rec); err != nil {
			res.Registration = recordRegistrationError(res.Registration, err)
			continue
		}
		res.RecordCount++
	}
	return res, nil
}

// loadCUESnapshot compiles the snapshot through the CUE evaluator.
// Syntax errors are fatal; per-entry compile errors are collected.
func loadCUESnapshot(path string, raw []byte) ([]formula.Record, []error, error) {
	ctx := cuecontext.New()
	value := ctx.CompileBytes(raw, cue.Filename(path))
	if err := value.Err(); err != nil {
		return nil, nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("compiling CUE snapshot: %v", err)}
	}
	records, errs := compiler.CompileSnapshot(value)
	return records, errs, nil
}

// loadYAMLSnapshot decodes the snapshot with strict field checking so a
// typoed key fails loudly instead of silently dropping data.
func loadYAMLSnapshot(raw []byte) ([]formula.Record, error) {
	var snap formula.Snapshot
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&snap); err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("decoding YAML snapshot: %v", err)}
	}
	return snap.Formulas, nil
}

// recordRegistrationError files a store rejection under the matching
// Registration bucket. Unknown error shapes become compile errors so no
// finding is ever dropped.
func recordRegistrationError(reg *report.Registration, err error) *report.Registration {
	var (
		violation *graph.InvariantViolation
		conflict  *graph.DuplicateDisplayConflict
	)
	switch {
	case errors.As(err, &violation):
		reg.InvariantViolations = append(reg.InvariantViolations, violation)
	case errors.As(err, &conflict):
		reg.DisplayConflicts = append(reg.DisplayConflicts, conflict)
	default:
		reg.CompileErrors = append(reg.CompileErrors, err.Error())
	}
	return reg
}
