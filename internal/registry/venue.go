// Package registry holds the two startup/runtime lookup tables every
// other component consults: the static venue registry (C1, fee rates
// and capability flags per venue) and the dynamic pool registry (C2,
// full pool descriptors keyed on the full on-chain address).
package registry

import (
	"fmt"

	"github.com/crossvenue/arbengine/internal/domain"
)

// VenueRegistry is the immutable, startup-constructed C1 table. Safe
// for concurrent reads from every goroutine; never mutated after New.
type VenueRegistry struct {
	byName    map[string]domain.VenueDescriptor
	byAddress map[domain.Address]domain.VenueDescriptor
}

// NewVenueRegistry builds a registry from descriptors, rejecting
// duplicate names or program addresses.
func NewVenueRegistry(descriptors []domain.VenueDescriptor) (*VenueRegistry, error) {
	r := &VenueRegistry{
		byName:    make(map[string]domain.VenueDescriptor, len(descriptors)),
		byAddress: make(map[domain.Address]domain.VenueDescriptor, len(descriptors)),
	}
	for _, d := range descriptors {
		if _, exists := r.byName[d.Name]; exists {
			return nil, fmt.Errorf("duplicate venue name %q", d.Name)
		}
		if !d.ProgramAddress.IsZero() {
			if _, exists := r.byAddress[d.ProgramAddress]; exists {
				return nil, fmt.Errorf("duplicate venue program address for %q", d.Name)
			}
		}
		r.byName[d.Name] = d
		r.byAddress[d.ProgramAddress] = d
	}
	return r, nil
}

// ByName looks up a venue by its human-readable key.
func (r *VenueRegistry) ByName(name string) (domain.VenueDescriptor, bool) {
	d, ok := r.byName[name]
	return d, ok
}

// ByProgramAddress looks up a venue by its on-chain program address.
func (r *VenueRegistry) ByProgramAddress(addr domain.Address) (domain.VenueDescriptor, bool) {
	d, ok := r.byAddress[addr]
	return d, ok
}

// SupportsArbitrage reports whether name is a known venue flagged for
// arbitrage participation.
func (r *VenueRegistry) SupportsArbitrage(name string) bool {
	d, ok := r.byName[name]
	return ok && d.SupportsArbitrage
}

// All returns every registered venue descriptor, in no particular order.
func (r *VenueRegistry) All() []domain.VenueDescriptor {
	out := make([]domain.VenueDescriptor, 0, len(r.byName))
	for _, d := range r.byName {
		out = append(out, d)
	}
	return out
}

// DefaultVenues returns the built-in venue table: the core AMMs this
// engine's instruction builders (C8) support. It does not include the
// price-only venues listed in config/venues.yaml.
func DefaultVenues() []domain.VenueDescriptor {
	return []domain.VenueDescriptor{
		{Name: "RaydiumAmmV4", FeeRate: 0.0025, SupportsArbitrage: true, MinLiquidityThreshold: 1_000_000, TypicalSlippage: 0.001},
		{Name: "RaydiumCpmm", FeeRate: 0.0025, SupportsArbitrage: true, MinLiquidityThreshold: 1_000_000, TypicalSlippage: 0.001},
		{Name: "OrcaWhirlpool", FeeRate: 0.003, SupportsArbitrage: true, MinLiquidityThreshold: 5_000_000, TypicalSlippage: 0.002},
		{Name: "MeteoraDlmm", FeeRate: 0.003, SupportsArbitrage: true, MinLiquidityThreshold: 2_000_000, TypicalSlippage: 0.001},
		{Name: "PumpSwap", FeeRate: 0.003, SupportsArbitrage: true, MinLiquidityThreshold: 100_000, TypicalSlippage: 0.01},
	}
}
