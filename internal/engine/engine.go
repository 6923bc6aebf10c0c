// Package engine wires the streaming components (C3, C7, C9, C10)
// into the main scan/execute loop (§4.8): snapshot, detect, bounded
// concurrent execution, and periodic stats reporting, gated by the
// daily risk breakers. The price cache is refreshed by its own
// background loop, not by this one.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/crossvenue/arbengine/internal/detector"
	"github.com/crossvenue/arbengine/internal/domain"
	"github.com/crossvenue/arbengine/internal/execution"
	"github.com/crossvenue/arbengine/internal/metrics"
	"github.com/crossvenue/arbengine/internal/persistence"
	"github.com/crossvenue/arbengine/internal/pricecache"
	"github.com/crossvenue/arbengine/internal/risk"
	"github.com/crossvenue/arbengine/internal/stats"
)

// Config controls scan cadence and concurrency.
type Config struct {
	Capital                    float64
	TickInterval               time.Duration
	StatsInterval              time.Duration
	MaxConcurrentOpportunities int
}

// Engine drives one tick loop per §4.8.
type Engine struct {
	cache     *pricecache.Cache
	detector  *detector.Detector
	pipeline  *execution.Pipeline
	breaker   *risk.Breaker
	stats     *stats.Aggregator
	oppLog    persistence.OpportunityLogRepo
	metrics   *metrics.Registry
	cfg       Config

	sem chan struct{}
}

// New constructs an Engine. oppLog may be nil to skip opportunity
// logging (e.g. in tests).
func New(
	cache *pricecache.Cache,
	d *detector.Detector,
	pipeline *execution.Pipeline,
	breaker *risk.Breaker,
	statsAggregator *stats.Aggregator,
	oppLog persistence.OpportunityLogRepo,
	m *metrics.Registry,
	cfg Config,
) *Engine {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}
	if cfg.StatsInterval <= 0 {
		cfg.StatsInterval = 30 * time.Second
	}
	if cfg.MaxConcurrentOpportunities <= 0 {
		cfg.MaxConcurrentOpportunities = 15
	}
	return &Engine{
		cache:    cache,
		detector: d,
		pipeline: pipeline,
		breaker:  breaker,
		stats:    statsAggregator,
		oppLog:   oppLog,
		metrics:  m,
		cfg:      cfg,
		sem:      make(chan struct{}, cfg.MaxConcurrentOpportunities),
	}
}

// Run blocks until ctx is cancelled, ticking the scan/execute loop and
// a separate periodic stats report.
func (e *Engine) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		e.stats.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		e.runTickLoop(ctx)
	}()
	go func() {
		defer wg.Done()
		e.runStatsReporter(ctx)
	}()
	wg.Wait()
	return ctx.Err()
}

func (e *Engine) runTickLoop(ctx context.Context) {
	ticker := time.NewTicker(e.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := e.breaker.Check(); err != nil {
				log.Error().Err(err).Msg("engine: risk breaker tripped, halting execution dispatch")
				continue
			}
			e.tick(ctx)
		}
	}
}

func (e *Engine) runStatsReporter(ctx context.Context) {
	ticker := time.NewTicker(e.cfg.StatsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap := e.stats.Snapshot()
			log.Info().
				Int64("detected", snap.OpportunitiesDetected).
				Int64("executed", snap.OpportunitiesExecuted).
				Int64("failed", snap.FailedExecutions).
				Float64("profit", snap.TotalProfitInBase).
				Msg("engine: periodic stats report")
		}
	}
}

// tick runs one scan and dispatches at most one execution per
// opportunity asset, bounded by MaxConcurrentOpportunities.
func (e *Engine) tick(ctx context.Context) {
	snapshot := e.cache.SnapshotByAsset()
	opps, err := e.detector.Scan(ctx, snapshot, e.cfg.Capital)
	if err != nil {
		log.Warn().Err(err).Msg("engine: detector scan failed")
		return
	}

	seen := make(map[domain.Address]bool)
	var wg sync.WaitGroup
	for _, opp := range opps {
		opp := opp
		e.logOpportunity(ctx, opp)
		e.stats.Submit(stats.Delta{Detected: true, Kind: kindLabel(opp.Kind), CrossVenue: isCrossVenue(opp)})

		key := opp.AssetKey()
		if seen[key] {
			continue
		}
		seen[key] = true

		select {
		case e.sem <- struct{}{}:
		default:
			continue // at capacity this tick, opportunity recurs next tick
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-e.sem }()
			e.execute(ctx, opp)
		}()
	}
	wg.Wait()
}

func (e *Engine) execute(ctx context.Context, opp domain.Opportunity) {
	outcome, err := e.pipeline.Execute(ctx, opp)
	if err != nil {
		log.Error().Err(err).Msg("engine: execution pipeline returned an unexpected error")
		return
	}

	e.breaker.RecordOutcome(outcome)

	delta := stats.Delta{}
	if outcome.FinalState == domain.StateLanded {
		delta.Executed = true
		delta.ProfitDelta = outcome.NetProfit
	} else {
		delta.Failed = true
		delta.FailureReason = outcome.FailureReason
	}
	e.stats.Submit(delta)
}

func (e *Engine) logOpportunity(ctx context.Context, opp domain.Opportunity) {
	if e.oppLog == nil {
		return
	}
	entry := persistence.OpportunityLogEntry{
		DetectedAt: time.Now(),
		Kind:       kindLabel(opp.Kind),
		GrossGain:  opp.GrossGain,
		GrossPct:   opp.GrossPct,
		PassedGate: true,
	}
	if opp.Kind == domain.KindPair {
		entry.AssetMint = opp.AssetMint.String()
	} else {
		entry.AssetMint = opp.AssetA.String()
	}
	if err := e.oppLog.Insert(ctx, entry); err != nil {
		log.Debug().Err(err).Msg("engine: opportunity log insert failed")
	}
}

func kindLabel(k domain.OpportunityKind) string {
	if k == domain.KindTriangle {
		return "triangle"
	}
	return "pair"
}

func isCrossVenue(opp domain.Opportunity) bool {
	if opp.Kind == domain.KindPair {
		return opp.BuyVenue != opp.SellVenue
	}
	return opp.VenueLeg1 != opp.VenueLeg3
}
