package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/crossvenue/arbengine/internal/persistence"
)

type repositoryHealth struct {
	db *sqlx.DB
}

// NewRepositoryHealth wraps db to report its connectivity.
func NewRepositoryHealth(db *sqlx.DB) persistence.RepositoryHealth {
	return &repositoryHealth{db: db}
}

func (h *repositoryHealth) Health(ctx context.Context) persistence.HealthCheck {
	start := time.Now()
	err := h.Ping(ctx)
	stats := h.db.Stats()

	check := persistence.HealthCheck{
		Healthy: err == nil,
		ConnectionPool: map[string]int{
			"open":      stats.OpenConnections,
			"in_use":    stats.InUse,
			"idle":      stats.Idle,
			"max_open":  stats.MaxOpenConnections,
		},
		LastCheck:      time.Now(),
		ResponseTimeMS: time.Since(start).Milliseconds(),
	}
	if err != nil {
		check.Errors = []string{err.Error()}
	}
	return check
}

func (h *repositoryHealth) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return h.db.PingContext(ctx)
}

func (h *repositoryHealth) Stats(ctx context.Context) map[string]interface{} {
	stats := h.db.Stats()
	return map[string]interface{}{
		"open_connections": stats.OpenConnections,
		"in_use":           stats.InUse,
		"idle":             stats.Idle,
		"wait_count":       stats.WaitCount,
		"wait_duration_ms": stats.WaitDuration.Milliseconds(),
	}
}
