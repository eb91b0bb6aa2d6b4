package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/physics-archive/formulaudit/internal/report"
)

// Run is one audit run as recorded in the ledger.
type Run struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	DatabasePath string    `json:"database_path"`
	CorpusPath   string    `json:"corpus_path"`
	SnapshotHash string    `json:"snapshot_hash"`
	ReportHash   string    `json:"report_hash"`

	TotalFormulas      int `json:"total_formulas"`
	ValidFormulas      int `json:"valid_formulas"`
	Cycles             int `json:"cycles"`
	Unrooted           int `json:"unrooted"`
	ReferenceErrors    int `json:"reference_errors"`
	Matched            int `json:"matched"`
	SourceOnly         int `json:"source_only"`
	TargetOnly         int `json:"target_only"`
	ExtractionWarnings int `json:"extraction_warnings"`
}

// NewRun builds a ledger row from a finished audit. The run id is random
// (runs are events, not content), but both hashes are content-derived so
// equal inputs always produce equal hash columns.
func NewRun(databasePath, corpusPath, snapshotHash, reportHash string, r *report.Report) Run {
	return Run{
		ID:                 uuid.NewString(),
		CreatedAt:          time.Now().UTC(),
		DatabasePath:       databasePath,
		CorpusPath:         corpusPath,
		SnapshotHash:       snapshotHash,
		ReportHash:         reportHash,
		TotalFormulas:      r.Derivation.Total,
		ValidFormulas:      r.Derivation.ValidCount,
		Cycles:             len(r.Derivation.Cycles),
		Unrooted:           len(r.Derivation.Unrooted),
		ReferenceErrors:    len(r.Derivation.ReferenceErrors),
		Matched:            len(r.Consistency.MatchedPairs),
		SourceOnly:         len(r.Consistency.SourceOnly),
		TargetOnly:         len(r.Consistency.TargetOnly),
		ExtractionWarnings: len(r.ExtractionWarnings),
	}
}

// WriteRun appends a run to the ledger.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - duplicate ids are
// silently ignored.
func (s *Store) WriteRun(ctx context.Context, run Run) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs
		(id, created_at, database_path, corpus_path, snapshot_hash, report_hash,
		 total_formulas, valid_formulas, cycles, unrooted, reference_errors,
		 matched, source_only, target_only, extraction_warnings)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.CreatedAt.Format(time.RFC3339Nano),
		run.DatabasePath,
		run.CorpusPath,
		run.SnapshotHash,
		run.ReportHash,
		run.TotalFormulas,
		run.ValidFormulas,
		run.Cycles,
		run.Unrooted,
		run.ReferenceErrors,
		run.Matched,
		run.SourceOnly,
		run.TargetOnly,
		run.ExtractionWarnings,
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}

	return nil
}

// ListRuns returns the most recent runs, newest first, id as tie-breaker
// for deterministic ordering. limit <= 0 means no limit.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `
		SELECT id, created_at, database_path, corpus_path, snapshot_hash, report_hash,
		       total_formulas, valid_formulas, cycles, unrooted, reference_errors,
		       matched, source_only, target_only, extraction_warnings
		FROM runs
		ORDER BY created_at DESC, id COLLATE BINARY ASC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var (
			run     Run
			created string
		)
		if err := rows.Scan(
			&run.ID, &created, &run.DatabasePath, &run.CorpusPath,
			&run.SnapshotHash, &run.ReportHash,
			&run.TotalFormulas, &run.ValidFormulas, &run.Cycles,
			&run.Unrooted, &run.ReferenceErrors,
			&run.Matched, &run.SourceOnly, &run.TargetOnly,
			&run.ExtractionWarnings,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.CreatedAt, err = time.Parse(time.RFC3339Nano, created)
		if err != nil {
			return nil, fmt.Errorf("parse created_at %q: %w", created, err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	return runs, nil
}
