// Package stats implements the C10 runtime aggregator: a single
// writer goroutine that folds deltas from the detector and execution
// pipeline into the §3 RuntimeStatistics snapshot served by the
// monitoring HTTP server and mirrored onto the Prometheus registry.
package stats

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/crossvenue/arbengine/internal/domain"
	"github.com/crossvenue/arbengine/internal/metrics"
)

// Delta is one unit of work reported to the aggregator. Callers set
// only the fields relevant to the event being reported.
type Delta struct {
	Kind          string // "pair" or "triangle", set when Detected
	Detected      bool
	Executed      bool
	Failed        bool
	FailureReason string
	ProfitDelta   float64
	CrossVenue    bool
}

// Aggregator owns the only mutable copy of RuntimeStatistics. Deltas
// arrive over a buffered channel and are applied by Run in a single
// goroutine; Snapshot is safe to call concurrently from the HTTP
// server.
type Aggregator struct {
	deltas    chan Delta
	startedAt time.Time
	metrics   *metrics.Registry

	mu      sync.RWMutex
	current domain.RuntimeStatistics
}

// New creates an Aggregator. metrics may be nil in tests.
func New(m *metrics.Registry) *Aggregator {
	return &Aggregator{
		deltas:    make(chan Delta, 256),
		startedAt: time.Now(),
		metrics:   m,
	}
}

// Submit enqueues a delta. It never blocks: a full channel means the
// writer goroutine has fallen behind, and the delta is dropped rather
// than stalling the caller's hot path.
func (a *Aggregator) Submit(d Delta) {
	select {
	case a.deltas <- d:
	default:
		log.Warn().Msg("stats: delta channel full, dropping update")
	}
}

// Run consumes deltas until ctx is cancelled. It must be started
// exactly once.
func (a *Aggregator) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case d := <-a.deltas:
			a.apply(d)
		}
	}
}

func (a *Aggregator) apply(d Delta) {
	a.mu.Lock()
	if d.Detected {
		a.current.OpportunitiesDetected++
	}
	if d.Executed {
		a.current.OpportunitiesExecuted++
		a.current.TotalProfitInBase += d.ProfitDelta
	}
	if d.Failed {
		a.current.FailedExecutions++
	}
	if d.CrossVenue {
		a.current.CrossVenueCount++
	}
	a.current.RuntimeSeconds = time.Since(a.startedAt).Seconds()
	a.mu.Unlock()

	if a.metrics == nil {
		return
	}
	if d.Detected {
		kind := d.Kind
		if kind == "" {
			kind = "unknown"
		}
		a.metrics.OpportunitiesDetected.WithLabelValues(kind).Inc()
	}
	if d.Executed {
		a.metrics.OpportunitiesExecuted.WithLabelValues("landed").Inc()
		a.metrics.TotalProfitInBase.Add(d.ProfitDelta)
	}
	if d.Failed {
		reason := d.FailureReason
		if reason == "" {
			reason = "unknown"
		}
		a.metrics.FailedExecutions.WithLabelValues(reason).Inc()
	}
	if d.CrossVenue {
		a.metrics.CrossVenueCount.Inc()
	}
}

// Snapshot returns the current statistics. Safe for concurrent use;
// satisfies internal/httpapi's StatsSource.
func (a *Aggregator) Snapshot() domain.RuntimeStatistics {
	a.mu.RLock()
	defer a.mu.RUnlock()
	snapshot := a.current
	snapshot.RuntimeSeconds = time.Since(a.startedAt).Seconds()
	return snapshot
}
