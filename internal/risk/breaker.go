// Package risk implements the engine's daily risk breakers (C10): a
// hard stop on trade count, realized loss, and consecutive execution
// failures, each resetting at UTC midnight.
package risk

import (
	"sync"
	"time"

	"github.com/crossvenue/arbengine/internal/domain"
)

// Limits configures the three independent breakers.
type Limits struct {
	MaxDailyTrades         int
	DailyLossLimit         float64
	MaxConsecutiveFailures int
}

// Breaker tracks same-day trade count, realized loss, and consecutive
// failures, tripping on the first limit crossed. Safe for concurrent
// use.
type Breaker struct {
	limits Limits

	mu                   sync.Mutex
	dayStart             time.Time
	tradesToday          int
	lossToday            float64
	consecutiveFailures  int
}

// New constructs a Breaker bound to limits.
func New(limits Limits) *Breaker {
	return &Breaker{limits: limits, dayStart: dayStartUTC(time.Now())}
}

func dayStartUTC(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (b *Breaker) resetIfNewDayLocked() {
	today := dayStartUTC(time.Now())
	if today.After(b.dayStart) {
		b.dayStart = today
		b.tradesToday = 0
		b.lossToday = 0
		b.consecutiveFailures = 0
	}
}

// RecordOutcome folds one completed execution into the day's tally.
// A LANDED outcome with negative net profit counts toward the loss
// limit; any non-terminal-success outcome increments the consecutive
// failure streak, reset by the next landed trade.
func (b *Breaker) RecordOutcome(outcome domain.ExecutionOutcome) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.resetIfNewDayLocked()

	b.tradesToday++
	if outcome.FinalState == domain.StateLanded {
		b.consecutiveFailures = 0
		if outcome.NetProfit < 0 {
			b.lossToday += -outcome.NetProfit
		}
		return
	}
	b.consecutiveFailures++
}

// Check reports whether any breaker is currently tripped.
func (b *Breaker) Check() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.resetIfNewDayLocked()

	if b.tradesToday >= b.limits.MaxDailyTrades {
		return &domain.RiskBreakerError{Breaker: "max_daily_trades", Detail: "daily trade count limit reached"}
	}
	if b.lossToday >= b.limits.DailyLossLimit {
		return &domain.RiskBreakerError{Breaker: "daily_loss_limit", Detail: "daily realized loss limit reached"}
	}
	if b.consecutiveFailures >= b.limits.MaxConsecutiveFailures {
		return &domain.RiskBreakerError{Breaker: "max_consecutive_failures", Detail: "consecutive execution failure limit reached"}
	}
	return nil
}
