// Package execution implements the atomic bundle execution pipeline
// (C9): resolve pools, build the tip transfer and per-leg
// instructions, simulate the unsigned instructions, fetch a fresh
// blockhash, sign, submit, and persist the terminal outcome. The
// blockhash is not embedded in what is signed or submitted. In
// paper-trading mode the pipeline instead synthesizes the
// outcome from the already-computed cost breakdown without touching
// the chain.
package execution

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/crossvenue/arbengine/internal/blockhash"
	"github.com/crossvenue/arbengine/internal/domain"
	"github.com/crossvenue/arbengine/internal/persistence"
	"github.com/crossvenue/arbengine/internal/registry"
	"github.com/crossvenue/arbengine/internal/tiporacle"
	"github.com/crossvenue/arbengine/internal/venues"
	"github.com/crossvenue/arbengine/internal/wallet"
)

// Config governs the pipeline's execution mode.
type Config struct {
	PaperTrading   bool
	AllowNonAtomic bool
	TipPercentile  int           // 95 or 99, per tiporacle.CompetitiveTip
	TipAccount     domain.Address // zero value skips the tip instruction (tests, local sims)
}

// systemProgramAddress is the all-zero chain address: the System
// Program's well-known ID happens to be the zero pubkey, which also
// makes "no tip account configured" a safe sentinel.
var systemProgramAddress domain.Address

// tipTransferInstruction builds a System Program transfer of
// lamports to cfg.TipAccount, the instruction every bundle in §4.6
// must carry ahead of the swap legs.
func tipTransferInstruction(payer, tipAccount domain.Address, lamports uint64) domain.Instruction {
	data := make([]byte, 12)
	binary.LittleEndian.PutUint32(data[0:4], 2) // System Program Transfer variant
	binary.LittleEndian.PutUint64(data[4:12], lamports)
	return domain.Instruction{
		ProgramAddress: systemProgramAddress,
		Data:           data,
		Accounts: []domain.AccountRef{
			{Address: payer, Writable: true, Signer: true},
			{Address: tipAccount, Writable: true},
		},
	}
}

// Submitter is the narrow surface of sidecar.Client the pipeline
// needs, satisfied by *sidecar.Client.
type Submitter interface {
	SendBundle(ctx context.Context, transactions [][]byte) (string, error)
}

// Pipeline wires together every component an execution needs: pool
// lookup (C2), instruction builders (C8), the tip oracle (C4), the
// blockhash cache (C5), the signing wallet, a simulator, the bundle
// submitter (C9 transport), and persistence.
type Pipeline struct {
	pools     *registry.PoolRegistry
	builders  *venues.Registry
	tips      *tiporacle.Oracle
	blockhash *blockhash.Cache
	signer    *wallet.Keypair
	simulator Simulator
	submitter Submitter
	repo      persistence.ExecutionsRepo
	cfg       Config
}

// New constructs a Pipeline. submitter may be nil only if cfg.AllowNonAtomic
// is true, matching §4.7's atomicity refusal rule.
func New(pools *registry.PoolRegistry, builders *venues.Registry, tips *tiporacle.Oracle, bh *blockhash.Cache, signer *wallet.Keypair, sim Simulator, submitter Submitter, repo persistence.ExecutionsRepo, cfg Config) (*Pipeline, error) {
	if submitter == nil && !cfg.AllowNonAtomic {
		return nil, domain.ErrNonAtomicRefused
	}
	return &Pipeline{
		pools:     pools,
		builders:  builders,
		tips:      tips,
		blockhash: bh,
		signer:    signer,
		simulator: sim,
		submitter: submitter,
		repo:      repo,
		cfg:       cfg,
	}, nil
}

// Execute runs one opportunity through the full pipeline and returns
// its terminal outcome. It never returns a non-nil error for a
// rejected or dropped execution — those are outcomes, not Go errors —
// only for programmer/configuration failures that prevented the
// attempt from starting at all.
func (p *Pipeline) Execute(ctx context.Context, opp domain.Opportunity) (domain.ExecutionOutcome, error) {
	outcome := domain.ExecutionOutcome{Opportunity: opp, StartedAt: time.Now(), PaperTrade: p.cfg.PaperTrading}
	sm := NewStateMachine()

	if p.cfg.PaperTrading {
		return p.executePaper(opp, sm, outcome)
	}

	legs, err := p.describeLegs(opp)
	if err != nil {
		return p.fail(outcome, sm, domain.StateRejected, err)
	}
	if err := sm.Transition(domain.StateDescribed); err != nil {
		return p.fail(outcome, sm, domain.StateRejected, err)
	}

	instructions, err := p.buildInstructions(legs, opp)
	if err != nil {
		return p.fail(outcome, sm, domain.StateRejected, err)
	}
	if err := sm.Transition(domain.StateBuilt); err != nil {
		return p.fail(outcome, sm, domain.StateRejected, err)
	}

	sim, err := p.simulator.Simulate(ctx, instructions)
	if err != nil {
		return p.fail(outcome, sm, domain.StateRejected, fmt.Errorf("%w: %v", domain.ErrSimulationFailed, err))
	}
	if !sim.WouldSucceed {
		return p.fail(outcome, sm, domain.StateRejected, fmt.Errorf("%w: %s", domain.ErrSimulationFailed, sim.FailureReason))
	}
	if err := sm.Transition(domain.StateSimulated); err != nil {
		return p.fail(outcome, sm, domain.StateRejected, err)
	}

	if p.submitter == nil {
		// AllowNonAtomic is set: proceed without a guaranteed-atomic
		// channel, but still require a successful simulation above.
		log.Warn().Msg("execution: submitting without atomic bundle channel, AllowNonAtomic is set")
	}

	bh, err := p.blockhash.Get(ctx)
	if err != nil {
		return p.fail(outcome, sm, domain.StateDropped, fmt.Errorf("blockhash unavailable: %w", err))
	}
	_ = bh // fetched only to confirm a fresh blockhash is available; sign does not embed it

	signed := p.sign(instructions)

	if err := sm.Transition(domain.StateSubmitted); err != nil {
		return p.fail(outcome, sm, domain.StateRejected, err)
	}

	var bundleID string
	if p.submitter != nil {
		bundleID, err = p.submitter.SendBundle(ctx, signed)
		if err != nil {
			return p.fail(outcome, sm, domain.StateDropped, fmt.Errorf("%w: %v", domain.ErrSubmitFailed, err))
		}
	}

	outcome.FinishedAt = time.Now()
	outcome.FinalState = domain.StateLanded
	outcome.TxSignature = bundleID
	outcome.NetProfit = opp.GrossGain - opp.Cost.TotalFees
	_ = sm.Transition(domain.StateLanded)

	p.persist(ctx, outcome, nil)
	return outcome, nil
}

// executePaper synthesizes a LANDED outcome without touching the
// chain: net profit is the already-computed gross gain less fees, per
// §4.7's paper-trading substitution for steps 5-7.
func (p *Pipeline) executePaper(opp domain.Opportunity, sm *StateMachine, outcome domain.ExecutionOutcome) (domain.ExecutionOutcome, error) {
	_ = sm.Transition(domain.StateDescribed)
	_ = sm.Transition(domain.StateBuilt)
	_ = sm.Transition(domain.StateSimulated)
	_ = sm.Transition(domain.StateSubmitted)
	_ = sm.Transition(domain.StateLanded)

	outcome.FinishedAt = time.Now()
	outcome.FinalState = domain.StateLanded
	outcome.NetProfit = opp.GrossGain - opp.Cost.TotalFees

	log.Info().
		Str("asset", opp.AssetKey().String()).
		Float64("net_profit", outcome.NetProfit).
		Msg("paper trade landed")

	p.persist(context.Background(), outcome, nil)
	return outcome, nil
}

// leg describes one on-chain swap to build: a pool, direction, and the
// in/out amounts in base asset terms.
type leg struct {
	pool          domain.PoolDescriptor
	directionAToB bool
	amountIn      uint64
	minAmountOut  uint64
}

// describeLegs resolves pool descriptors for an opportunity's legs. A
// triangle's middle leg (A->B) has no tracked pool — the detector
// only infers its cross-ratio — so triangle opportunities are not yet
// executable and are refused with ErrPoolMissing here; pair
// opportunities resolve both legs directly.
func (p *Pipeline) describeLegs(opp domain.Opportunity) ([]leg, error) {
	if opp.Kind == domain.KindTriangle {
		return nil, fmt.Errorf("%w: triangle middle leg has no resolvable pool", domain.ErrPoolMissing)
	}

	buyPool, err := p.pools.Get(opp.PoolHandleBuy)
	if err != nil {
		return nil, err
	}
	sellPool, err := p.pools.Get(opp.PoolHandleSell)
	if err != nil {
		return nil, err
	}

	amountIn := uint64(opp.PositionSize * 1e9) // base units, lamport-scale
	minOut := uint64(float64(amountIn) * 0.99) // 1% slippage tolerance on preview

	return []leg{
		{pool: buyPool, directionAToB: true, amountIn: amountIn, minAmountOut: minOut},
		{pool: sellPool, directionAToB: false, amountIn: minOut, minAmountOut: amountIn},
	}, nil
}

func (p *Pipeline) buildInstructions(legs []leg, opp domain.Opportunity) ([]domain.Instruction, error) {
	user := p.signer.Address()
	out := make([]domain.Instruction, 0, len(legs)+1)

	if !p.cfg.TipAccount.IsZero() {
		tip, err := p.tips.CompetitiveTip(p.cfg.TipPercentile)
		if err != nil {
			return nil, fmt.Errorf("execution: resolve competitive tip: %w", err)
		}
		out = append(out, tipTransferInstruction(user, p.cfg.TipAccount, tip))
	}

	for _, l := range legs {
		userTokenA := venues.DeriveUserATA(user, l.pool.AssetAMint)
		userTokenB := venues.DeriveUserATA(user, l.pool.AssetBMint)
		inst, err := p.builders.BuildSwap(l.pool, venues.SwapParams{
			UserAddress:   user,
			UserTokenA:    userTokenA,
			UserTokenB:    userTokenB,
			AmountIn:      l.amountIn,
			MinAmountOut:  l.minAmountOut,
			DirectionAToB: l.directionAToB,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, inst)
	}
	return out, nil
}

// sign produces one opaque signed-transaction payload per
// instruction. Full transaction message construction (account
// dedup/compile, fee payer, recent blockhash header) is the wallet's
// wire-format concern and is out of this pipeline's scope; signing
// here covers the instruction payload itself so every downstream
// consumer (simulator, sidecar) receives a signature-bound blob.
func (p *Pipeline) sign(instructions []domain.Instruction) [][]byte {
	out := make([][]byte, 0, len(instructions))
	for _, inst := range instructions {
		sig := p.signer.Sign(inst.Data)
		out = append(out, append(sig, inst.Data...))
	}
	return out
}

func (p *Pipeline) fail(outcome domain.ExecutionOutcome, sm *StateMachine, state domain.ExecutionState, err error) (domain.ExecutionOutcome, error) {
	_ = sm.Transition(state)
	outcome.FinishedAt = time.Now()
	outcome.FinalState = state
	outcome.FailureReason = err.Error()
	p.persist(context.Background(), outcome, err)
	return outcome, nil
}

func (p *Pipeline) persist(ctx context.Context, outcome domain.ExecutionOutcome, failErr error) {
	if p.repo == nil {
		return
	}
	venueLabel := fmt.Sprintf("%s->%s", outcome.Opportunity.BuyVenue, outcome.Opportunity.SellVenue)
	kind := "pair"
	if outcome.Opportunity.Kind == domain.KindTriangle {
		kind = "triangle"
		venueLabel = fmt.Sprintf("%s->%s", outcome.Opportunity.VenueLeg1, outcome.Opportunity.VenueLeg3)
	}

	var netProfit *float64
	if outcome.FinalState == domain.StateLanded {
		np := outcome.NetProfit
		netProfit = &np
	}
	var failureReason *string
	if outcome.FailureReason != "" {
		fr := outcome.FailureReason
		failureReason = &fr
	}
	var bundleID *string
	if outcome.TxSignature != "" {
		bid := outcome.TxSignature
		bundleID = &bid
	}

	exec := persistence.Execution{
		DetectedAt:    outcome.Opportunity.DetectedAt,
		Kind:          kind,
		AssetMint:     outcome.Opportunity.AssetKey().String(),
		Venues:        venueLabel,
		GrossGain:     outcome.Opportunity.GrossGain,
		GrossPct:      outcome.Opportunity.GrossPct,
		PositionSize:  outcome.Opportunity.PositionSize,
		TotalFees:     outcome.Opportunity.Cost.TotalFees,
		NetProfit:     netProfit,
		FinalState:    outcome.FinalState.String(),
		BundleID:      bundleID,
		FailureReason: failureReason,
		PaperTrade:    outcome.PaperTrade,
		Attributes:    map[string]interface{}{},
		CreatedAt:     time.Now(),
	}
	if _, err := p.repo.Insert(ctx, exec); err != nil {
		log.Error().Err(err).Msg("execution: failed to persist outcome")
	}
}
