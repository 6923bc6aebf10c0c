// Package metrics holds the Prometheus collectors exposed by the
// monitoring HTTP server: the §3 runtime counters plus per-provider
// network health (rate limit, circuit breaker, budget).
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds every Prometheus metric the engine exports.
type Registry struct {
	OpportunitiesDetected *prometheus.CounterVec
	OpportunitiesExecuted *prometheus.CounterVec
	FailedExecutions      *prometheus.CounterVec
	TotalProfitInBase     prometheus.Counter
	CrossVenueCount       prometheus.Counter

	DetectionDuration  *prometheus.HistogramVec
	ExecutionDuration  *prometheus.HistogramVec
	ExecutionState     *prometheus.CounterVec
	OpportunityGross   *prometheus.HistogramVec

	PriceCacheSize     prometheus.Gauge
	PriceCacheStale    prometheus.Counter

	TipOracleP50       prometheus.Gauge
	TipOracleStale     prometheus.Gauge

	ProviderCircuitState  *prometheus.GaugeVec
	ProviderRateLimited   *prometheus.CounterVec
	ProviderBudgetUsed    *prometheus.GaugeVec

	RiskBreakerTripped *prometheus.CounterVec
}

// NewRegistry creates and registers every collector.
func NewRegistry() *Registry {
	r := &Registry{
		OpportunitiesDetected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arbengine_opportunities_detected_total",
				Help: "Total arbitrage opportunities surfaced by the detector, by kind.",
			},
			[]string{"kind"},
		),
		OpportunitiesExecuted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arbengine_opportunities_executed_total",
				Help: "Total opportunities that reached the SUBMITTED state, by outcome.",
			},
			[]string{"outcome"},
		),
		FailedExecutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arbengine_failed_executions_total",
				Help: "Total executions that failed, by reason.",
			},
			[]string{"reason"},
		),
		TotalProfitInBase: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "arbengine_total_profit_base_units",
				Help: "Cumulative realized profit, denominated in base units.",
			},
		),
		CrossVenueCount: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "arbengine_cross_venue_total",
				Help: "Total opportunities that spanned more than one venue kind.",
			},
		),
		DetectionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "arbengine_detection_duration_seconds",
				Help:    "Wall-clock duration of one detector scan, by scan type.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
			},
			[]string{"scan"},
		),
		ExecutionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "arbengine_execution_duration_seconds",
				Help:    "Wall-clock duration of the execution pipeline, by final state.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
			},
			[]string{"state"},
		),
		ExecutionState: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arbengine_execution_state_transitions_total",
				Help: "Total execution state-machine transitions, by resulting state.",
			},
			[]string{"state"},
		),
		OpportunityGross: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "arbengine_opportunity_gross_pct",
				Help:    "Gross percentage gain of detected opportunities before cost gating, by kind.",
				Buckets: []float64{0.001, 0.002, 0.005, 0.01, 0.02, 0.05, 0.1, 0.2},
			},
			[]string{"kind"},
		),
		PriceCacheSize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "arbengine_price_cache_entries",
				Help: "Number of (asset, venue) entries currently held in the price cache.",
			},
		),
		PriceCacheStale: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "arbengine_price_cache_stale_reads_total",
				Help: "Total reads that found an entry older than the staleness cutoff.",
			},
		),
		TipOracleP50: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "arbengine_tip_oracle_p50",
				Help: "Most recent p50 priority-fee snapshot from the tip oracle.",
			},
		),
		TipOracleStale: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "arbengine_tip_oracle_stale",
				Help: "1 if the current tip snapshot is past its max age, else 0.",
			},
		),
		ProviderCircuitState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "arbengine_provider_circuit_state",
				Help: "Circuit breaker state per provider (0=closed, 1=half-open, 2=open).",
			},
			[]string{"provider"},
		),
		ProviderRateLimited: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arbengine_provider_rate_limited_total",
				Help: "Total requests that waited on a provider's rate limiter.",
			},
			[]string{"provider"},
		),
		ProviderBudgetUsed: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "arbengine_provider_budget_used_ratio",
				Help: "Fraction of a provider's daily request budget consumed (0.0 to 1.0).",
			},
			[]string{"provider"},
		),
		RiskBreakerTripped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arbengine_risk_breaker_tripped_total",
				Help: "Total times a risk breaker halted the engine, by breaker name.",
			},
			[]string{"breaker"},
		),
	}

	prometheus.MustRegister(
		r.OpportunitiesDetected, r.OpportunitiesExecuted, r.FailedExecutions,
		r.TotalProfitInBase, r.CrossVenueCount, r.DetectionDuration,
		r.ExecutionDuration, r.ExecutionState, r.OpportunityGross,
		r.PriceCacheSize, r.PriceCacheStale, r.TipOracleP50, r.TipOracleStale,
		r.ProviderCircuitState, r.ProviderRateLimited, r.ProviderBudgetUsed,
		r.RiskBreakerTripped,
	)

	return r
}

// ScanTimer times one detector scan and records its duration on Stop.
type ScanTimer struct {
	registry *Registry
	scan     string
	start    time.Time
}

// StartScanTimer begins timing a detector scan ("pair" or "triangle").
func (r *Registry) StartScanTimer(scan string) *ScanTimer {
	return &ScanTimer{registry: r, scan: scan, start: time.Now()}
}

// Stop records the elapsed duration.
func (t *ScanTimer) Stop() {
	t.registry.DetectionDuration.WithLabelValues(t.scan).Observe(time.Since(t.start).Seconds())
}

// RecordExecution records a completed execution's final state and
// duration since it entered DESCRIBED.
func (r *Registry) RecordExecution(state string, outcome string, duration time.Duration) {
	r.ExecutionState.WithLabelValues(state).Inc()
	r.ExecutionDuration.WithLabelValues(state).Observe(duration.Seconds())
	if outcome != "" {
		r.OpportunitiesExecuted.WithLabelValues(outcome).Inc()
	}
}

// circuitStateValue maps a circuit.State string to the gauge encoding
// documented on ProviderCircuitState.
func circuitStateValue(state string) float64 {
	switch state {
	case "half-open":
		return 1
	case "open":
		return 2
	default:
		return 0
	}
}

// RecordProviderHealth updates the circuit/budget gauges for one
// provider. The engine does not call it, so these gauges are only set
// by callers of this method.
func (r *Registry) RecordProviderHealth(provider, circuitState string, budgetUsedRatio float64) {
	r.ProviderCircuitState.WithLabelValues(provider).Set(circuitStateValue(circuitState))
	r.ProviderBudgetUsed.WithLabelValues(provider).Set(budgetUsedRatio)
}
