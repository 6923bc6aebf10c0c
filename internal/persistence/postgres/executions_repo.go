// Package postgres implements the persistence contracts against a
// PostgreSQL database via sqlx and lib/pq.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/crossvenue/arbengine/internal/persistence"
)

type executionsRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewExecutionsRepo creates a PostgreSQL-backed ExecutionsRepo.
func NewExecutionsRepo(db *sqlx.DB, timeout time.Duration) persistence.ExecutionsRepo {
	return &executionsRepo{db: db, timeout: timeout}
}

func (r *executionsRepo) Insert(ctx context.Context, e persistence.Execution) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	attrs, err := json.Marshal(e.Attributes)
	if err != nil {
		return 0, fmt.Errorf("marshal attributes: %w", err)
	}

	const query = `
		INSERT INTO executions (detected_at, kind, asset_mint, venues, gross_gain,
			gross_pct, position_size, total_fees, final_state, bundle_id, paper_trade, attributes,
			net_profit, failure_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id`

	var id int64
	err = r.db.QueryRowxContext(ctx, query,
		e.DetectedAt, e.Kind, e.AssetMint, e.Venues, e.GrossGain,
		e.GrossPct, e.PositionSize, e.TotalFees, e.FinalState, e.BundleID, e.PaperTrade, attrs,
		e.NetProfit, e.FailureReason,
	).Scan(&id)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return 0, fmt.Errorf("duplicate execution: %w", err)
		}
		return 0, fmt.Errorf("insert execution: %w", err)
	}
	return id, nil
}

func (r *executionsRepo) UpdateFinalState(ctx context.Context, id int64, state string, netProfit *float64, failureReason *string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	const query = `
		UPDATE executions SET final_state = $2, net_profit = $3, failure_reason = $4
		WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id, state, netProfit, failureReason)
	if err != nil {
		return fmt.Errorf("update execution final state: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("no execution found with id %d", id)
	}
	return nil
}

func (r *executionsRepo) ListRecent(ctx context.Context, limit int) ([]persistence.Execution, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	const query = `
		SELECT id, detected_at, kind, asset_mint, venues, gross_gain, gross_pct,
			position_size, total_fees, net_profit, final_state, bundle_id,
			failure_reason, paper_trade, attributes, created_at
		FROM executions
		ORDER BY detected_at DESC
		LIMIT $1`

	rows, err := r.db.QueryxContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent executions: %w", err)
	}
	defer rows.Close()
	return scanExecutions(rows)
}

func (r *executionsRepo) ListByAsset(ctx context.Context, assetMint string, tr persistence.TimeRange, limit int) ([]persistence.Execution, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	const query = `
		SELECT id, detected_at, kind, asset_mint, venues, gross_gain, gross_pct,
			position_size, total_fees, net_profit, final_state, bundle_id,
			failure_reason, paper_trade, attributes, created_at
		FROM executions
		WHERE asset_mint = $1 AND detected_at >= $2 AND detected_at <= $3
		ORDER BY detected_at DESC
		LIMIT $4`

	rows, err := r.db.QueryxContext(ctx, query, assetMint, tr.From, tr.To, limit)
	if err != nil {
		return nil, fmt.Errorf("query executions by asset: %w", err)
	}
	defer rows.Close()
	return scanExecutions(rows)
}

func (r *executionsRepo) SumNetProfit(ctx context.Context, tr persistence.TimeRange) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	const query = `
		SELECT COALESCE(SUM(net_profit), 0)
		FROM executions
		WHERE detected_at >= $1 AND detected_at <= $2 AND net_profit IS NOT NULL`

	var sum float64
	if err := r.db.QueryRowxContext(ctx, query, tr.From, tr.To).Scan(&sum); err != nil {
		return 0, fmt.Errorf("sum net profit: %w", err)
	}
	return sum, nil
}

func (r *executionsRepo) CountByFinalState(ctx context.Context, tr persistence.TimeRange) (map[string]int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	const query = `
		SELECT final_state, COUNT(*)
		FROM executions
		WHERE detected_at >= $1 AND detected_at <= $2
		GROUP BY final_state`

	rows, err := r.db.QueryxContext(ctx, query, tr.From, tr.To)
	if err != nil {
		return nil, fmt.Errorf("count by final state: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var state string
		var count int64
		if err := rows.Scan(&state, &count); err != nil {
			return nil, fmt.Errorf("scan final state count: %w", err)
		}
		counts[state] = count
	}
	return counts, rows.Err()
}

func scanExecutions(rows *sqlx.Rows) ([]persistence.Execution, error) {
	var out []persistence.Execution
	for rows.Next() {
		e, err := scanExecution(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func scanExecution(rows *sqlx.Rows) (*persistence.Execution, error) {
	var e persistence.Execution
	var attrs []byte
	if err := rows.Scan(
		&e.ID, &e.DetectedAt, &e.Kind, &e.AssetMint, &e.Venues, &e.GrossGain, &e.GrossPct,
		&e.PositionSize, &e.TotalFees, &e.NetProfit, &e.FinalState, &e.BundleID,
		&e.FailureReason, &e.PaperTrade, &attrs, &e.CreatedAt,
	); err != nil {
		return nil, err
	}
	if len(attrs) > 0 {
		if err := json.Unmarshal(attrs, &e.Attributes); err != nil {
			return nil, fmt.Errorf("unmarshal attributes: %w", err)
		}
	} else {
		e.Attributes = make(map[string]interface{})
	}
	return &e, nil
}
