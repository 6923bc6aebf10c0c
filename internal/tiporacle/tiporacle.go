// Package tiporacle maintains the shared tip-percentile snapshot (C4):
// a background task refreshes it every 10 minutes, with retry-on-
// failure up to the provider's backoff ceiling; readers take a cheap
// read lock.
package tiporacle

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/crossvenue/arbengine/internal/domain"
)

const (
	// HardCap bounds every tip recommendation regardless of percentile.
	HardCap = 3_000_000

	refreshInterval = 10 * time.Minute
	staleWarnAfter  = 15 * time.Minute
)

// Oracle holds the current tip snapshot, refreshed by Run in the
// background. Zero value is not usable; construct with New.
type Oracle struct {
	client   *http.Client
	endpoint string

	mu       sync.RWMutex
	snapshot domain.TipSnapshot
}

// New constructs an Oracle with a conservative default snapshot
// (non-zero, so competitive_tip never returns zero before the first
// successful fetch).
func New(client *http.Client, endpoint string) *Oracle {
	return &Oracle{
		client:   client,
		endpoint: endpoint,
		snapshot: domain.TipSnapshot{
			P25: 10_000, P50: 25_000, P75: 50_000, P95: 100_000, P99: 250_000,
			EMAP50:    25_000,
			UpdatedAt: time.Time{},
		},
	}
}

// Snapshot returns the current tip percentiles under a read lock.
func (o *Oracle) Snapshot() domain.TipSnapshot {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.snapshot
}

// CompetitiveTip returns min(HardCap, round(percentile*1.10)) for the
// requested level (95 or 99).
func (o *Oracle) CompetitiveTip(level int) (uint64, error) {
	snap := o.Snapshot()
	var base uint64
	switch level {
	case 95:
		base = snap.P95
	case 99:
		base = snap.P99
	default:
		return 0, fmt.Errorf("unsupported tip percentile level %d", level)
	}
	tip := uint64(math.Round(float64(base) * 1.10))
	if tip > HardCap {
		tip = HardCap
	}
	return tip, nil
}

// Run drives the background refresh loop until ctx is canceled. It
// retries a failed fetch up to attempts times with exponential
// backoff from base, capped at max, then leaves the prior snapshot in
// place until the next scheduled refresh.
func (o *Oracle) Run(ctx context.Context, base, max time.Duration, attempts int) {
	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()

	o.refreshWithRetry(ctx, base, max, attempts)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.refreshWithRetry(ctx, base, max, attempts)
		}
	}
}

func (o *Oracle) refreshWithRetry(ctx context.Context, base, max time.Duration, attempts int) {
	backoff := base
	for attempt := 0; attempt < attempts; attempt++ {
		if err := o.refreshOnce(ctx); err == nil {
			return
		} else if attempt == attempts-1 {
			o.warnIfStale()
			log.Warn().Err(err).Msg("tip oracle refresh exhausted retries, keeping prior snapshot")
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > max {
			backoff = max
		}
	}
}

func (o *Oracle) warnIfStale() {
	if o.Snapshot().Stale(staleWarnAfter) {
		log.Warn().Msg("tip oracle snapshot stale past 15 minutes")
	}
}

type tipPercentileResponse struct {
	LandedTips25th  float64 `json:"landed_tips_25th_percentile"`
	LandedTips50th  float64 `json:"landed_tips_50th_percentile"`
	LandedTips75th  float64 `json:"landed_tips_75th_percentile"`
	LandedTips95th  float64 `json:"landed_tips_95th_percentile"`
	LandedTips99th  float64 `json:"landed_tips_99th_percentile"`
	EMALandedTips50 float64 `json:"ema_landed_tips_50th_percentile"`
}

func (o *Oracle) refreshOnce(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.endpoint, nil)
	if err != nil {
		return fmt.Errorf("build tip oracle request: %w", err)
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch tip percentiles: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tip oracle returned status %d", resp.StatusCode)
	}

	var payload []tipPercentileResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fmt.Errorf("decode tip percentile response: %w", err)
	}
	if len(payload) == 0 {
		return fmt.Errorf("tip oracle returned empty array")
	}
	first := payload[0]

	next := domain.TipSnapshot{
		P25:       uint64(first.LandedTips25th),
		P50:       uint64(first.LandedTips50th),
		P75:       uint64(first.LandedTips75th),
		P95:       uint64(first.LandedTips95th),
		P99:       uint64(first.LandedTips99th),
		EMAP50:    uint64(first.EMALandedTips50),
		UpdatedAt: time.Now(),
	}
	if !(next.P99 >= next.P95 && next.P95 >= next.P75 && next.P75 >= next.P50 && next.P50 >= next.P25) {
		return fmt.Errorf("tip oracle percentiles out of order: %+v", next)
	}

	o.mu.Lock()
	o.snapshot = next
	o.mu.Unlock()
	return nil
}
