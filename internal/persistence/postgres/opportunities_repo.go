package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/crossvenue/arbengine/internal/persistence"
)

type opportunitiesRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewOpportunityLogRepo creates a PostgreSQL-backed OpportunityLogRepo.
func NewOpportunityLogRepo(db *sqlx.DB, timeout time.Duration) persistence.OpportunityLogRepo {
	return &opportunitiesRepo{db: db, timeout: timeout}
}

func (r *opportunitiesRepo) Insert(ctx context.Context, e persistence.OpportunityLogEntry) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	const query = `
		INSERT INTO opportunities_log (detected_at, kind, asset_mint, gross_gain, gross_pct, passed_gate, executed)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.ExecContext(ctx, query, e.DetectedAt, e.Kind, e.AssetMint, e.GrossGain, e.GrossPct, e.PassedGate, e.Executed)
	if err != nil {
		return fmt.Errorf("insert opportunity log entry: %w", err)
	}
	return nil
}

func (r *opportunitiesRepo) InsertBatch(ctx context.Context, entries []persistence.OpportunityLogEntry) error {
	if len(entries) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout*time.Duration(len(entries)/200+1))
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO opportunities_log (detected_at, kind, asset_mint, gross_gain, gross_pct, passed_gate, executed)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.DetectedAt, e.Kind, e.AssetMint, e.GrossGain, e.GrossPct, e.PassedGate, e.Executed); err != nil {
			return fmt.Errorf("insert opportunity log entry in batch: %w", err)
		}
	}
	return tx.Commit()
}

func (r *opportunitiesRepo) Window(ctx context.Context, tr persistence.TimeRange) ([]persistence.OpportunityLogEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	const query = `
		SELECT id, detected_at, kind, asset_mint, gross_gain, gross_pct, passed_gate, executed, created_at
		FROM opportunities_log
		WHERE detected_at >= $1 AND detected_at <= $2
		ORDER BY detected_at DESC`

	rows, err := r.db.QueryxContext(ctx, query, tr.From, tr.To)
	if err != nil {
		return nil, fmt.Errorf("query opportunity log window: %w", err)
	}
	defer rows.Close()

	var out []persistence.OpportunityLogEntry
	for rows.Next() {
		var e persistence.OpportunityLogEntry
		if err := rows.Scan(&e.ID, &e.DetectedAt, &e.Kind, &e.AssetMint, &e.GrossGain, &e.GrossPct, &e.PassedGate, &e.Executed, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan opportunity log entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *opportunitiesRepo) GateHitRate(ctx context.Context, tr persistence.TimeRange) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	const query = `
		SELECT
			COALESCE(SUM(CASE WHEN passed_gate THEN 1 ELSE 0 END), 0)::float8
			/ NULLIF(COUNT(*), 0)
		FROM opportunities_log
		WHERE detected_at >= $1 AND detected_at <= $2`

	var rate *float64
	if err := r.db.QueryRowxContext(ctx, query, tr.From, tr.To).Scan(&rate); err != nil {
		return 0, fmt.Errorf("compute gate hit rate: %w", err)
	}
	if rate == nil {
		return 0, nil
	}
	return *rate, nil
}
