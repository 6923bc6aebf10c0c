package stats

import (
	"context"
	"testing"
	"time"
)

func runFor(a *Aggregator, d Delta) {
	ctx, cancel := context.WithCancel(context.Background())
	go a.Run(ctx)
	a.Submit(d)
	time.Sleep(10 * time.Millisecond)
	cancel()
}

func TestAggregator_AppliesDetectedDelta(t *testing.T) {
	a := New(nil)
	runFor(a, Delta{Detected: true, Kind: "pair"})

	snap := a.Snapshot()
	if snap.OpportunitiesDetected != 1 {
		t.Fatalf("expected 1 detected, got %d", snap.OpportunitiesDetected)
	}
}

func TestAggregator_AppliesExecutedDeltaWithProfit(t *testing.T) {
	a := New(nil)
	runFor(a, Delta{Executed: true, ProfitDelta: 0.25})

	snap := a.Snapshot()
	if snap.OpportunitiesExecuted != 1 {
		t.Fatalf("expected 1 executed, got %d", snap.OpportunitiesExecuted)
	}
	if snap.TotalProfitInBase != 0.25 {
		t.Fatalf("expected profit 0.25, got %v", snap.TotalProfitInBase)
	}
}

func TestAggregator_AppliesFailedAndCrossVenueDeltas(t *testing.T) {
	a := New(nil)
	runFor(a, Delta{Failed: true, FailureReason: "slippage", CrossVenue: true})

	snap := a.Snapshot()
	if snap.FailedExecutions != 1 {
		t.Fatalf("expected 1 failed, got %d", snap.FailedExecutions)
	}
	if snap.CrossVenueCount != 1 {
		t.Fatalf("expected 1 cross venue, got %d", snap.CrossVenueCount)
	}
}

func TestAggregator_SubmitNeverBlocksOnFullChannel(t *testing.T) {
	a := New(nil)
	for i := 0; i < 300; i++ {
		a.Submit(Delta{Detected: true})
	}
}

func TestAggregator_SnapshotReflectsElapsedRuntime(t *testing.T) {
	a := New(nil)
	time.Sleep(5 * time.Millisecond)
	snap := a.Snapshot()
	if snap.RuntimeSeconds <= 0 {
		t.Fatal("expected positive runtime seconds")
	}
}
