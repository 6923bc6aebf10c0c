package domain

import (
	"testing"
	"time"
)

func TestAddress_ParseRoundTrip(t *testing.T) {
	var a Address
	for i := range a {
		a[i] = byte(i * 7)
	}
	parsed, err := ParseAddress(a.String())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if parsed != a {
		t.Fatalf("expected round trip to equal original, got %v want %v", parsed, a)
	}
}

func TestParseAddress_RejectsWrongLength(t *testing.T) {
	if _, err := ParseAddress("deadbeef"); err == nil {
		t.Fatal("expected error for short hex string")
	}
}

func TestParseAddress_RejectsInvalidHex(t *testing.T) {
	bad := make([]byte, 64)
	for i := range bad {
		bad[i] = 'z'
	}
	if _, err := ParseAddress(string(bad)); err == nil {
		t.Fatal("expected error for non-hex characters")
	}
}

func TestAddress_IsZero(t *testing.T) {
	var a Address
	if !a.IsZero() {
		t.Fatal("expected zero-value address to report IsZero")
	}
	a[0] = 1
	if a.IsZero() {
		t.Fatal("expected non-zero address to not report IsZero")
	}
}

func TestTipSnapshot_Stale(t *testing.T) {
	fresh := TipSnapshot{UpdatedAt: time.Now()}
	if fresh.Stale(15 * time.Minute) {
		t.Fatal("expected fresh snapshot to not be stale")
	}
	old := TipSnapshot{UpdatedAt: time.Now().Add(-16 * time.Minute)}
	if !old.Stale(15 * time.Minute) {
		t.Fatal("expected 16-minute-old snapshot to be stale past a 15-minute bound")
	}
}

func TestOpportunity_LessOrdersByGrossGainDescending(t *testing.T) {
	higher := Opportunity{GrossGain: 2.0, GrossPct: 0.05}
	lower := Opportunity{GrossGain: 1.0, GrossPct: 0.01}
	if !higher.Less(lower) {
		t.Fatal("expected higher gross gain to sort before lower gross gain")
	}
	if lower.Less(higher) {
		t.Fatal("expected lower gross gain to not sort before higher")
	}
}

func TestOpportunity_LessTiebreaksOnLowerGrossPct(t *testing.T) {
	a := Opportunity{GrossGain: 1.0, GrossPct: 0.01}
	b := Opportunity{GrossGain: 1.0, GrossPct: 0.02}
	if !a.Less(b) {
		t.Fatal("expected equal gross gain to prefer lower gross pct")
	}
}

func TestOpportunity_AssetKey(t *testing.T) {
	pair := Opportunity{Kind: KindPair, AssetMint: Address{1}}
	if pair.AssetKey() != pair.AssetMint {
		t.Fatal("expected pair opportunity asset key to be AssetMint")
	}
	tri := Opportunity{Kind: KindTriangle, AssetA: Address{2}, AssetB: Address{3}}
	if tri.AssetKey() != tri.AssetA {
		t.Fatal("expected triangle opportunity asset key to be AssetA")
	}
}

func TestPriceRecord_Key(t *testing.T) {
	rec := PriceRecord{AssetMint: Address{5}, VenueName: "RaydiumAmmV4"}
	want := PriceKey{AssetMint: Address{5}, VenueName: "RaydiumAmmV4"}
	if rec.Key() != want {
		t.Fatalf("expected key %+v, got %+v", want, rec.Key())
	}
}
