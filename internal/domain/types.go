// Package domain holds the value types shared across the arbitrage
// engine's components: asset/venue identity, price records, tip-oracle
// snapshots, cost breakdowns and detected opportunities.
package domain

import (
	"fmt"
	"time"

	"github.com/mr-tron/base58"
)

// Address is a 32-byte opaque chain address, compared by value.
type Address [32]byte

// ParseAddress decodes a 64-character lowercase hex string produced by
// Address.String back into an Address.
func ParseAddress(s string) (Address, error) {
	var a Address
	if len(s) != 64 {
		return a, fmt.Errorf("address %q: expected 64 hex characters, got %d", s, len(s))
	}
	for i := 0; i < 32; i++ {
		hi, err := hexNibble(s[i*2])
		if err != nil {
			return Address{}, fmt.Errorf("address %q: %w", s, err)
		}
		lo, err := hexNibble(s[i*2+1])
		if err != nil {
			return Address{}, fmt.Errorf("address %q: %w", s, err)
		}
		a[i] = hi<<4 | lo
	}
	return a, nil
}

func hexNibble(c byte) (byte, error) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', nil
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, nil
	default:
		return 0, fmt.Errorf("invalid hex character %q", c)
	}
}

// String renders the address as lowercase hex.
func (a Address) String() string {
	const hexdigits = "0123456789abcdef"
	buf := make([]byte, 64)
	for i, b := range a {
		buf[i*2] = hexdigits[b>>4]
		buf[i*2+1] = hexdigits[b&0x0f]
	}
	return string(buf)
}

// IsZero reports whether the address is the zero value.
func (a Address) IsZero() bool {
	return a == Address{}
}

// ParseBase58Address decodes a base58-encoded 32-byte chain address,
// the wire format venue registry config and on-chain program IDs use.
func ParseBase58Address(s string) (Address, error) {
	var a Address
	raw, err := base58.Decode(s)
	if err != nil {
		return a, fmt.Errorf("base58 address %q: %w", s, err)
	}
	if len(raw) != 32 {
		return a, fmt.Errorf("base58 address %q: expected 32 bytes, got %d", s, len(raw))
	}
	copy(a[:], raw)
	return a, nil
}

// Base58 renders the address in base58, the on-chain pubkey format.
func (a Address) Base58() string {
	return base58.Encode(a[:])
}

// VenueDescriptor is the immutable, startup-constructed record for one
// venue kind (C1). Keys are unique by Name and by ProgramAddress.
type VenueDescriptor struct {
	Name                           string
	ProgramAddress                 Address
	FeeRate                        float64 // in [0,1]
	SupportsArbitrage              bool
	SupportsConcentratedLiquidity  bool
	MinLiquidityThreshold          float64
	TypicalSlippage                float64
}

// PoolDescriptor identifies one venue instance and the accounts needed
// to swap against it (C2). Once inserted into the registry it is
// immutable; replacement requires an explicit remove.
type PoolDescriptor struct {
	FullAddress     string
	VenueKind       string
	AssetAMint      Address
	AssetBMint      Address
	ReserveAAddress Address
	ReserveBAddress Address
}

// PriceRecord is one (asset, venue) quote as absorbed by the price
// cache (C3).
type PriceRecord struct {
	AssetMint   Address
	VenueName   string
	PriceInBase float64
	Volume24h   float64
	PoolHandle  string // full pool address, NOT the short handle
	IngestedAt  time.Time
}

// Key returns the cache key for this record.
func (r PriceRecord) Key() PriceKey {
	return PriceKey{AssetMint: r.AssetMint, VenueName: r.VenueName}
}

// PriceKey identifies one (asset, venue) cache slot.
type PriceKey struct {
	AssetMint Address
	VenueName string
}

// TipSnapshot is the tip-oracle's percentile snapshot (C4).
type TipSnapshot struct {
	P25       uint64
	P50       uint64
	P75       uint64
	P95       uint64
	P99       uint64
	EMAP50    uint64
	UpdatedAt time.Time
}

// Stale reports whether the snapshot is older than the given max age.
func (s TipSnapshot) Stale(maxAge time.Duration) bool {
	return time.Since(s.UpdatedAt) > maxAge
}

// CostBreakdown is the output of the cost-and-margin gate (C6).
type CostBreakdown struct {
	Tip                float64
	BaseFee            float64
	ComputeFee         float64
	TotalFees          float64
	MinAcceptableNet   float64
	SafetyMargin       float64
}

// OpportunityKind distinguishes pair vs triangle candidates.
type OpportunityKind int

const (
	KindPair OpportunityKind = iota
	KindTriangle
)

// Opportunity is a ranked arbitrage candidate emitted by the detector
// (C7). Pair and triangle fields are mutually exclusive based on Kind.
type Opportunity struct {
	Kind OpportunityKind

	// Pair variant
	AssetMint      Address
	BuyVenue       string
	SellVenue      string
	BuyPrice       float64
	SellPrice      float64
	PoolHandleBuy  string
	PoolHandleSell string

	// Triangle variant
	AssetA        Address
	AssetB        Address
	VenueLeg1     string
	VenueLeg3     string
	PoolHandleLeg1 string
	PoolHandleLeg3 string
	InputAmount   float64

	// Shared
	GrossGain      float64
	GrossPct       float64
	PositionSize   float64
	Cost           CostBreakdown
	DetectedAt     time.Time
}

// Less orders opportunities by GrossGain descending, ties broken by
// lower GrossPct (prefer higher absolute gain per fixed capital).
func (o Opportunity) Less(other Opportunity) bool {
	if o.GrossGain != other.GrossGain {
		return o.GrossGain > other.GrossGain
	}
	return o.GrossPct < other.GrossPct
}

// AssetKey returns the asset this opportunity is keyed on for the
// "at most one execution per opportunity-asset per tick" rule (§4.7).
func (o Opportunity) AssetKey() Address {
	if o.Kind == KindTriangle {
		return o.AssetA
	}
	return o.AssetMint
}

// RuntimeStatistics holds the monotonic counters of §3, written only
// by the stats aggregator (C10).
type RuntimeStatistics struct {
	OpportunitiesDetected int64
	OpportunitiesExecuted int64
	FailedExecutions      int64
	RuntimeSeconds        float64
	TotalProfitInBase     float64
	CrossVenueCount       int64
}

// VenueKind is the closed set of venue kinds the instruction builders
// (C8) support, replacing string-keyed dispatch per §9's redesign
// flag. Unknown is the explicit catch-all for venues present in the
// price stream but not wired to a builder.
type VenueKind int

const (
	VenueUnknown VenueKind = iota
	VenueRaydiumAmmV4
	VenueRaydiumCpmm
	VenueOrcaWhirlpool
	VenueMeteoraDlmm
	VenuePumpSwap
)

// String renders the venue kind using the same names as the venue
// registry (C1), so a PoolDescriptor.VenueKind string round-trips.
func (k VenueKind) String() string {
	switch k {
	case VenueRaydiumAmmV4:
		return "RaydiumAmmV4"
	case VenueRaydiumCpmm:
		return "RaydiumCpmm"
	case VenueOrcaWhirlpool:
		return "OrcaWhirlpool"
	case VenueMeteoraDlmm:
		return "MeteoraDlmm"
	case VenuePumpSwap:
		return "PumpSwap"
	default:
		return "Unknown"
	}
}

// ParseVenueKind maps a venue registry name to its VenueKind, defaulting
// to VenueUnknown for anything not in the closed set.
func ParseVenueKind(name string) VenueKind {
	switch name {
	case "RaydiumAmmV4":
		return VenueRaydiumAmmV4
	case "RaydiumCpmm":
		return VenueRaydiumCpmm
	case "OrcaWhirlpool":
		return VenueOrcaWhirlpool
	case "MeteoraDlmm":
		return VenueMeteoraDlmm
	case "PumpSwap":
		return VenuePumpSwap
	default:
		return VenueUnknown
	}
}

// AccountRef is one account reference inside an Instruction's account
// list: an address plus its writable/signer flags. Order is
// significant — a builder that reorders these breaks the venue
// program's account deserialization.
type AccountRef struct {
	Address  Address
	Writable bool
	Signer   bool
}

// Instruction is a chain-native call: a program address, an ordered
// account list, and an opaque discriminator-prefixed payload (§4.6).
type Instruction struct {
	ProgramAddress Address
	Accounts       []AccountRef
	Data           []byte
}

// ExecutionState is the per-execution state machine of §4.7:
// INIT -> DESCRIBED -> BUILT -> SIMULATED -> SUBMITTED ->
// {LANDED, REJECTED, DROPPED, TIMEOUT}.
type ExecutionState int

const (
	StateInit ExecutionState = iota
	StateDescribed
	StateBuilt
	StateSimulated
	StateSubmitted
	StateLanded
	StateRejected
	StateDropped
	StateTimeout
)

func (s ExecutionState) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateDescribed:
		return "DESCRIBED"
	case StateBuilt:
		return "BUILT"
	case StateSimulated:
		return "SIMULATED"
	case StateSubmitted:
		return "SUBMITTED"
	case StateLanded:
		return "LANDED"
	case StateRejected:
		return "REJECTED"
	case StateDropped:
		return "DROPPED"
	case StateTimeout:
		return "TIMEOUT"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether s is one of the four terminal outcomes.
func (s ExecutionState) Terminal() bool {
	switch s {
	case StateLanded, StateRejected, StateDropped, StateTimeout:
		return true
	default:
		return false
	}
}

// ExecutionOutcome is the result of running one opportunity through
// the execution pipeline (C9).
type ExecutionOutcome struct {
	Opportunity   Opportunity
	FinalState    ExecutionState
	TxSignature   string
	LandedSlot    uint64
	FailureReason string
	NetProfit     float64
	PaperTrade    bool
	StartedAt     time.Time
	FinishedAt    time.Time
}
