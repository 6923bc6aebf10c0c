// Package costmodel implements the pure cost-and-margin gate (C6): it
// translates a detected opportunity's gross gain into fees, a safety
// margin, and an accept/reject decision. It never makes a network
// call and holds no state.
package costmodel

import "github.com/crossvenue/arbengine/internal/domain"

const (
	baseFee    = 0.00005
	computeFee = 0.00001

	tipMin = 0.0001
	tipMax = 0.001

	marginRate = 0.005
)

// Evaluate computes the full cost breakdown for gross gain g.
func Evaluate(g float64) domain.CostBreakdown {
	tip := clamp(tipRate(g)*g, tipMin, tipMax)
	totalFees := tip + baseFee + computeFee
	margin := marginRate * g
	return domain.CostBreakdown{
		Tip:              tip,
		BaseFee:          baseFee,
		ComputeFee:       computeFee,
		TotalFees:        totalFees,
		SafetyMargin:     margin,
		MinAcceptableNet: totalFees + margin,
	}
}

// tipRate returns the multiplier applied to g for the tip tier g falls
// into (§4.4).
func tipRate(g float64) float64 {
	switch {
	case g < 0.1:
		return 0.03
	case g < 1.0:
		return 0.05
	default:
		return 0.07
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// IsProfitable applies the exact gate rule: accept iff
// g - total_fees >= total_fees + margin, i.e. g >= 2*total_fees + margin.
func IsProfitable(g float64, cost domain.CostBreakdown) bool {
	return g-cost.TotalFees >= cost.MinAcceptableNet
}

// Gate is a convenience wrapper combining Evaluate and IsProfitable —
// the call site C7 makes once per surviving candidate.
func Gate(g float64) (domain.CostBreakdown, bool) {
	cost := Evaluate(g)
	return cost, IsProfitable(g, cost)
}
