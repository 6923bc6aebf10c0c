package tiporacle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/crossvenue/arbengine/internal/domain"
)

func newTestOracle(t *testing.T, handler http.HandlerFunc) (*Oracle, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.Client(), srv.URL), srv
}

func TestNew_DefaultSnapshotIsNonZero(t *testing.T) {
	o := New(http.DefaultClient, "http://unused")
	snap := o.Snapshot()
	if snap.P95 == 0 || snap.P99 == 0 {
		t.Fatalf("expected non-zero default percentiles, got %+v", snap)
	}
	tip95, err := o.CompetitiveTip(95)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tip95 == 0 {
		t.Fatal("competitive tip must never be zero, even before first successful fetch")
	}
}

func TestCompetitiveTip_HardCapNeverExceeded(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]tipPercentileResponse{{
			LandedTips25th: 1_000_000, LandedTips50th: 5_000_000,
			LandedTips75th: 10_000_000, LandedTips95th: 50_000_000,
			LandedTips99th: 100_000_000, EMALandedTips50: 5_000_000,
		}})
	}
	o, _ := newTestOracle(t, handler)
	if err := o.refreshOnce(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	tip99, err := o.CompetitiveTip(99)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tip99 != HardCap {
		t.Fatalf("expected tip clamped to hard cap %d, got %d", HardCap, tip99)
	}
}

func TestCompetitiveTip_RoundsPercentileByTenPercent(t *testing.T) {
	// 17 * 1.10 = 18.7, which must round to 19, not truncate to 18.
	handler := func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]tipPercentileResponse{{
			LandedTips25th: 5, LandedTips50th: 10,
			LandedTips75th: 15, LandedTips95th: 17,
			LandedTips99th: 29, EMALandedTips50: 10,
		}})
	}
	o, _ := newTestOracle(t, handler)
	if err := o.refreshOnce(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	tip95, err := o.CompetitiveTip(95)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tip95 != 19 {
		t.Fatalf("expected round(17*1.10)=19, got %d", tip95)
	}

	tip99, err := o.CompetitiveTip(99)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tip99 != 32 {
		t.Fatalf("expected round(29*1.10)=32, got %d", tip99)
	}
}

func TestCompetitiveTip_RejectsUnsupportedLevel(t *testing.T) {
	o := New(http.DefaultClient, "http://unused")
	if _, err := o.CompetitiveTip(50); err == nil {
		t.Fatal("expected error for unsupported percentile level")
	}
}

func TestRefreshOnce_RejectsOutOfOrderPercentiles(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]tipPercentileResponse{{
			LandedTips25th: 5000, LandedTips50th: 1000, // out of order
			LandedTips75th: 3000, LandedTips95th: 10_000, LandedTips99th: 20_000,
		}})
	}
	o, _ := newTestOracle(t, handler)
	before := o.Snapshot()
	if err := o.refreshOnce(context.Background()); err == nil {
		t.Fatal("expected error for out-of-order percentiles")
	}
	if o.Snapshot() != before {
		t.Fatal("snapshot must be left unchanged on a rejected refresh")
	}
}

func TestRefreshOnce_KeepsPriorSnapshotOnServerError(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}
	o, _ := newTestOracle(t, handler)
	before := o.Snapshot()
	if err := o.refreshOnce(context.Background()); err == nil {
		t.Fatal("expected error for 500 response")
	}
	if o.Snapshot() != before {
		t.Fatal("snapshot must be left unchanged on fetch failure")
	}
}

func TestSnapshot_StaleReportsPast15Minutes(t *testing.T) {
	snap := domain.TipSnapshot{UpdatedAt: time.Now().Add(-16 * time.Minute)}
	if !snap.Stale(staleWarnAfter) {
		t.Fatal("expected snapshot older than 15 minutes to be stale")
	}
	fresh := domain.TipSnapshot{UpdatedAt: time.Now()}
	if fresh.Stale(staleWarnAfter) {
		t.Fatal("expected fresh snapshot to not be stale")
	}
}
