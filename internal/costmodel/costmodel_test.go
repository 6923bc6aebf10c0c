package costmodel

import (
	"math"
	"testing"
)

func TestEvaluate_TipTiers(t *testing.T) {
	cases := []struct {
		name    string
		g       float64
		wantTip float64
	}{
		{"below_tier_1_floor", 0.0001, tipMin},
		{"tier_1_mid", 0.05, clamp(0.03*0.05, tipMin, tipMax)},
		{"tier_1_ceiling_clamped", 0.09, tipMax},
		{"tier_2_mid", 0.5, clamp(0.05*0.5, tipMin, tipMax)},
		{"tier_3_mid", 2.0, clamp(0.07*2.0, tipMin, tipMax)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Evaluate(tc.g).Tip
			if got != tc.wantTip {
				t.Fatalf("tip for g=%v: expected %v, got %v", tc.g, tc.wantTip, got)
			}
		})
	}
}

func TestEvaluate_TipNeverExceedsBounds(t *testing.T) {
	for g := 0.0; g < 10.0; g += 0.01 {
		tip := Evaluate(g).Tip
		if tip < tipMin || tip > tipMax {
			t.Fatalf("tip out of bounds for g=%v: %v", g, tip)
		}
	}
}

func TestEvaluate_FixedFees(t *testing.T) {
	c := Evaluate(0.5)
	if c.BaseFee != baseFee {
		t.Fatalf("expected base fee %v, got %v", baseFee, c.BaseFee)
	}
	if c.ComputeFee != computeFee {
		t.Fatalf("expected compute fee %v, got %v", computeFee, c.ComputeFee)
	}
}

func TestEvaluate_MinAcceptableNetComposition(t *testing.T) {
	g := 0.3
	c := Evaluate(g)
	wantMargin := marginRate * g
	if math.Abs(c.SafetyMargin-wantMargin) > 1e-12 {
		t.Fatalf("expected margin %v, got %v", wantMargin, c.SafetyMargin)
	}
	wantMin := c.TotalFees + wantMargin
	if math.Abs(c.MinAcceptableNet-wantMin) > 1e-12 {
		t.Fatalf("expected min_acceptable_net %v, got %v", wantMin, c.MinAcceptableNet)
	}
}

// Cost-gate monotonicity: min_acceptable_net(g) is non-decreasing in g.
func TestMinAcceptableNet_Monotonicity(t *testing.T) {
	prev := Evaluate(0).MinAcceptableNet
	for g := 0.0; g <= 5.0; g += 0.001 {
		cur := Evaluate(g).MinAcceptableNet
		if cur < prev-1e-12 {
			t.Fatalf("min_acceptable_net decreased at g=%v: prev=%v cur=%v", g, prev, cur)
		}
		prev = cur
	}
}

func TestIsProfitable_FalseForNonPositiveGain(t *testing.T) {
	for _, g := range []float64{0, -0.001, -1.0} {
		cost := Evaluate(g)
		if IsProfitable(g, cost) {
			t.Fatalf("expected g=%v to be unprofitable", g)
		}
	}
}

func TestIsProfitable_ExactGateRule(t *testing.T) {
	// g - total_fees >= total_fees + margin  <=>  g >= 2*total_fees + margin
	g := 1.0
	cost := Evaluate(g)
	want := g-cost.TotalFees >= cost.TotalFees+cost.SafetyMargin
	got := IsProfitable(g, cost)
	if got != want {
		t.Fatalf("gate rule mismatch: want %v got %v", want, got)
	}
}

func TestIsProfitable_TrueForLargeEnoughGain(t *testing.T) {
	g := 10.0 // large gain should comfortably clear fixed fees + 0.5% margin + tip cap
	cost := Evaluate(g)
	if !IsProfitable(g, cost) {
		t.Fatalf("expected large gain g=%v to be profitable, cost=%+v", g, cost)
	}
}

func TestGate_MatchesEvaluateAndIsProfitable(t *testing.T) {
	g := 0.25
	cost, ok := Gate(g)
	wantCost := Evaluate(g)
	wantOK := IsProfitable(g, wantCost)
	if cost != wantCost {
		t.Fatalf("expected cost %+v, got %+v", wantCost, cost)
	}
	if ok != wantOK {
		t.Fatalf("expected profitable=%v, got %v", wantOK, ok)
	}
}
