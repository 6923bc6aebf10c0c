// Package venues implements the per-venue instruction builders (C8):
// one Builder per VenueKind that turns a pool descriptor and swap
// amounts into a chain-native Instruction, plus a constant-product
// preview helper (the detector and execution pipeline do not call it).
package venues

import (
	"github.com/crossvenue/arbengine/internal/domain"
)

// SwapParams is the input to a Builder's BuildSwap call.
type SwapParams struct {
	Pool          domain.PoolDescriptor
	UserAddress   domain.Address
	UserTokenA    domain.Address
	UserTokenB    domain.Address
	AmountIn      uint64
	MinAmountOut  uint64
	DirectionAToB bool // true: spend AssetA for AssetB. false: reverse.
}

// Builder turns one venue's pool layout and swap parameters into the
// Instruction that would execute it on chain.
type Builder interface {
	Kind() domain.VenueKind
	BuildSwap(params SwapParams) (domain.Instruction, error)
}

// Registry dispatches by VenueKind to a concrete Builder, with
// VenueUnknown always resolving to a builder that refuses.
type Registry struct {
	builders map[domain.VenueKind]Builder
}

// NewRegistry wires every supported venue kind's builder. Kinds with
// no registered builder (including VenueUnknown) fall back to
// unknownBuilder.
func NewRegistry() *Registry {
	r := &Registry{builders: make(map[domain.VenueKind]Builder)}
	for _, b := range []Builder{
		raydiumAmmV4Builder{},
		raydiumCpmmBuilder{},
		orcaWhirlpoolBuilder{},
		meteoraDlmmBuilder{},
		pumpSwapBuilder{},
	} {
		r.builders[b.Kind()] = b
	}
	return r
}

// Get returns the builder for kind, falling back to one that returns
// ErrVenueUnsupported for VenueUnknown or any unregistered kind.
func (r *Registry) Get(kind domain.VenueKind) Builder {
	if b, ok := r.builders[kind]; ok {
		return b
	}
	return unknownBuilder{kind: kind}
}

// BuildSwap resolves the builder for pool.VenueKind and invokes it.
func (r *Registry) BuildSwap(pool domain.PoolDescriptor, params SwapParams) (domain.Instruction, error) {
	kind := domain.ParseVenueKind(pool.VenueKind)
	params.Pool = pool
	return r.Get(kind).BuildSwap(params)
}

// PreviewConstantProduct computes the output amount of a standard
// constant-product swap: out = (in*(1-fee)*r_out) / (r_in + in*(1-fee)).
func PreviewConstantProduct(amountIn, reserveIn, reserveOut, feeRate float64) float64 {
	if reserveIn <= 0 || reserveOut <= 0 || amountIn <= 0 {
		return 0
	}
	inAfterFee := amountIn * (1 - feeRate)
	return (inAfterFee * reserveOut) / (reserveIn + inAfterFee)
}
