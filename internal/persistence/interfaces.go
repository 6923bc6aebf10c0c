// Package persistence defines the storage contracts for execution
// history and the running opportunity log; internal/persistence/postgres
// provides the sqlx/lib-pq implementation.
package persistence

import (
	"context"
	"time"
)

// TimeRange bounds a query window.
type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Execution records one completed (or abandoned) run of the C9
// execution pipeline, from detection through final state.
type Execution struct {
	ID             int64                  `json:"id" db:"id"`
	DetectedAt     time.Time              `json:"detected_at" db:"detected_at"`
	Kind           string                 `json:"kind" db:"kind"` // "pair" or "triangle"
	AssetMint      string                 `json:"asset_mint" db:"asset_mint"`
	Venues         string                 `json:"venues" db:"venues"` // "buy->sell" or "leg1->leg3"
	GrossGain      float64                `json:"gross_gain" db:"gross_gain"`
	GrossPct       float64                `json:"gross_pct" db:"gross_pct"`
	PositionSize   float64                `json:"position_size" db:"position_size"`
	TotalFees      float64                `json:"total_fees" db:"total_fees"`
	NetProfit      *float64               `json:"net_profit,omitempty" db:"net_profit"`
	FinalState     string                 `json:"final_state" db:"final_state"`
	BundleID       *string                `json:"bundle_id,omitempty" db:"bundle_id"`
	FailureReason  *string                `json:"failure_reason,omitempty" db:"failure_reason"`
	PaperTrade     bool                   `json:"paper_trade" db:"paper_trade"`
	Attributes     map[string]interface{} `json:"attributes" db:"attributes"`
	CreatedAt      time.Time              `json:"created_at" db:"created_at"`
}

// OpportunityLogEntry records every opportunity the detector surfaced,
// whether or not it was executed — the raw feed for win-rate and
// margin-distribution analysis.
type OpportunityLogEntry struct {
	ID           int64     `json:"id" db:"id"`
	DetectedAt   time.Time `json:"detected_at" db:"detected_at"`
	Kind         string    `json:"kind" db:"kind"`
	AssetMint    string    `json:"asset_mint" db:"asset_mint"`
	GrossGain    float64   `json:"gross_gain" db:"gross_gain"`
	GrossPct     float64   `json:"gross_pct" db:"gross_pct"`
	PassedGate   bool      `json:"passed_gate" db:"passed_gate"`
	Executed     bool      `json:"executed" db:"executed"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// ExecutionsRepo persists the lifecycle outcome of executed
// opportunities.
type ExecutionsRepo interface {
	Insert(ctx context.Context, e Execution) (int64, error)
	UpdateFinalState(ctx context.Context, id int64, state string, netProfit *float64, failureReason *string) error
	ListRecent(ctx context.Context, limit int) ([]Execution, error)
	ListByAsset(ctx context.Context, assetMint string, tr TimeRange, limit int) ([]Execution, error)
	SumNetProfit(ctx context.Context, tr TimeRange) (float64, error)
	CountByFinalState(ctx context.Context, tr TimeRange) (map[string]int64, error)
}

// OpportunityLogRepo persists the full opportunity feed for analysis
// independent of execution decisions.
type OpportunityLogRepo interface {
	Insert(ctx context.Context, entry OpportunityLogEntry) error
	InsertBatch(ctx context.Context, entries []OpportunityLogEntry) error
	Window(ctx context.Context, tr TimeRange) ([]OpportunityLogEntry, error)
	GateHitRate(ctx context.Context, tr TimeRange) (float64, error)
}

// Repository aggregates both stores.
type Repository struct {
	Executions ExecutionsRepo
	Opportunities OpportunityLogRepo
}

// HealthCheck reports repository connectivity status.
type HealthCheck struct {
	Healthy        bool           `json:"healthy"`
	Errors         []string       `json:"errors,omitempty"`
	ConnectionPool map[string]int `json:"connection_pool"`
	LastCheck      time.Time      `json:"last_check"`
	ResponseTimeMS int64          `json:"response_time_ms"`
}

// RepositoryHealth exposes database connectivity diagnostics. The
// monitoring server's /health endpoint does not use it.
type RepositoryHealth interface {
	Health(ctx context.Context) HealthCheck
	Ping(ctx context.Context) error
	Stats(ctx context.Context) map[string]interface{}
}
