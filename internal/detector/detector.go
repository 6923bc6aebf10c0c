// Package detector implements the opportunity detector (C7): per-scan
// pair and triangle enumeration over a price-cache snapshot, with IQR
// outlier filtering, venue-fee-aware profit simulation, realism caps,
// the cost-and-margin gate, and a deterministic top-N ranking.
package detector

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/crossvenue/arbengine/internal/costmodel"
	"github.com/crossvenue/arbengine/internal/domain"
)

const (
	topN = 10

	pairSpreadRealismCap = 1.0  // 100%: stream-artifact guard
	pairGrossPctCap      = 0.20 // 20%: bad-data guard
	triangleGrossPctCap  = 0.05 // 5%: triangle realism cap
	triangleLegFee       = 0.003

	maxVenuesPerAsset = 50 // spam/data-error guard
)

// VenueFees resolves a venue's fee rate by name; satisfied by
// *registry.VenueRegistry.
type VenueFees interface {
	ByName(name string) (domain.VenueDescriptor, bool)
}

// CrossChecker reports how a triangle's inferred middle-leg ratio
// compares to an external quote source; satisfied by
// *aggregator.Client. Never gates detection.
type CrossChecker interface {
	CheckRatio(ctx context.Context, assetA, assetB domain.Address, inferredRatio, amount float64)
}

// Detector runs one scan cycle over a price-cache snapshot.
type Detector struct {
	venues          VenueFees
	maxPositionSize float64
	crossCheck      CrossChecker
}

// New constructs a Detector bounded to maxPositionSize (capital per
// candidate is clamped to this).
func New(venues VenueFees, maxPositionSize float64) *Detector {
	return &Detector{venues: venues, maxPositionSize: maxPositionSize}
}

// WithCrossCheck attaches an optional aggregator cross-check, fired
// asynchronously for every triangle asset pair the scan evaluates
// (before the realism cap and the cost gate), so it never adds
// latency to the scan.
func (d *Detector) WithCrossCheck(c CrossChecker) *Detector {
	d.crossCheck = c
	return d
}

// Scan runs the pair and triangle scans over snapshotByAsset in
// parallel across assets, merges the survivors, and returns the top N
// by gross gain. capital is the position size requested by the
// caller, clamped to maxPositionSize.
func (d *Detector) Scan(ctx context.Context, snapshotByAsset map[domain.Address][]domain.PriceRecord, capital float64) ([]domain.Opportunity, error) {
	k := capital
	if k > d.maxPositionSize {
		k = d.maxPositionSize
	}

	assets := make([]domain.Address, 0, len(snapshotByAsset))
	for asset, records := range snapshotByAsset {
		if len(records) > maxVenuesPerAsset {
			continue
		}
		assets = append(assets, asset)
	}
	// Deterministic iteration order so the parallel fan-out below
	// produces the same merged result on every run.
	sort.Slice(assets, func(i, j int) bool {
		return assets[i].String() < assets[j].String()
	})

	results := make([][]domain.Opportunity, len(assets))
	g, gctx := errgroup.WithContext(ctx)
	for idx, asset := range assets {
		idx, asset := idx, asset
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			results[idx] = d.pairCandidates(asset, snapshotByAsset[asset], k)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var merged []domain.Opportunity
	for _, r := range results {
		merged = append(merged, r...)
	}
	merged = append(merged, d.triangleCandidates(ctx, snapshotByAsset, k)...)

	sort.Slice(merged, func(i, j int) bool { return merged[i].Less(merged[j]) })
	if len(merged) > topN {
		merged = merged[:topN]
	}
	return merged, nil
}

func (d *Detector) pairCandidates(asset domain.Address, records []domain.PriceRecord, k float64) []domain.Opportunity {
	if len(records) < 2 {
		return nil
	}

	prices := make([]float64, len(records))
	for i, r := range records {
		prices[i] = r.PriceInBase
	}
	surviving := filterOutliers(prices)

	var out []domain.Opportunity
	for ai := 0; ai < len(surviving); ai++ {
		for bi := ai + 1; bi < len(surviving); bi++ {
			a := records[surviving[ai]]
			b := records[surviving[bi]]
			if opp, ok := d.evaluatePair(asset, a, b, k); ok {
				out = append(out, opp)
			}
		}
	}
	return out
}

func (d *Detector) evaluatePair(asset domain.Address, a, b domain.PriceRecord, k float64) (domain.Opportunity, bool) {
	feeA, ok := d.venues.ByName(a.VenueName)
	if !ok {
		return domain.Opportunity{}, false
	}
	feeB, ok := d.venues.ByName(b.VenueName)
	if !ok {
		return domain.Opportunity{}, false
	}

	spread := abs(a.PriceInBase-b.PriceInBase) / avg(a.PriceInBase, b.PriceInBase)
	if spread > pairSpreadRealismCap {
		return domain.Opportunity{}, false
	}

	gainAToB := simulateRoundTrip(k, a.PriceInBase, feeA.FeeRate, b.PriceInBase, feeB.FeeRate)
	gainBToA := simulateRoundTrip(k, b.PriceInBase, feeB.FeeRate, a.PriceInBase, feeA.FeeRate)

	buy, sell, gain := a, b, gainAToB
	if gainBToA > gainAToB {
		buy, sell, gain = b, a, gainBToA
	}

	grossPct := gain / k
	if grossPct > pairGrossPctCap {
		return domain.Opportunity{}, false
	}

	cost, ok := costmodel.Gate(gain)
	if !ok {
		return domain.Opportunity{}, false
	}

	return domain.Opportunity{
		Kind:           domain.KindPair,
		AssetMint:      asset,
		BuyVenue:       buy.VenueName,
		SellVenue:      sell.VenueName,
		BuyPrice:       buy.PriceInBase,
		SellPrice:      sell.PriceInBase,
		PoolHandleBuy:  buy.PoolHandle,
		PoolHandleSell: sell.PoolHandle,
		GrossGain:      gain,
		GrossPct:       grossPct,
		PositionSize:   k,
		Cost:           cost,
	}, true
}

// simulateRoundTrip buys asset on the low-price venue and sells on the
// high-price venue per §4.5 step 2.
func simulateRoundTrip(k, priceBuy, feeBuy, priceSell, feeSell float64) float64 {
	if priceBuy <= 0 {
		return 0
	}
	tokens := k * (1 - feeBuy) / priceBuy
	sell := tokens * priceSell * (1 - feeSell)
	return sell - k
}

func avg(a, b float64) float64 { return (a + b) / 2 }

// triangleCandidates enumerates base->A->B->base round trips over
// every ordered pair of assets both quoted against the base asset,
// parallelizing the outer enumeration across assets.
func (d *Detector) triangleCandidates(ctx context.Context, snapshotByAsset map[domain.Address][]domain.PriceRecord, k float64) []domain.Opportunity {
	assets := make([]domain.Address, 0, len(snapshotByAsset))
	for asset, records := range snapshotByAsset {
		if len(records) > maxVenuesPerAsset {
			continue
		}
		assets = append(assets, asset)
	}
	sort.Slice(assets, func(i, j int) bool { return assets[i].String() < assets[j].String() })

	perAsset := make([][]domain.Opportunity, len(assets))
	var wg sync.WaitGroup
	for idx, a := range assets {
		idx, a := idx, a
		wg.Add(1)
		go func() {
			defer wg.Done()
			var local []domain.Opportunity
			for _, b := range assets {
				if a == b {
					continue
				}
				recsA, recsB := snapshotByAsset[a], snapshotByAsset[b]
				if len(recsA) == 0 || len(recsB) == 0 {
					continue
				}
				if opp, ok := d.evaluateTriangle(ctx, a, b, recsA, recsB, k); ok {
					local = append(local, opp)
				}
			}
			perAsset[idx] = local
		}()
	}
	wg.Wait()

	var out []domain.Opportunity
	for _, local := range perAsset {
		out = append(out, local...)
	}
	return out
}

func (d *Detector) evaluateTriangle(ctx context.Context, assetA, assetB domain.Address, recsA, recsB []domain.PriceRecord, k float64) (domain.Opportunity, bool) {
	leg1 := bestVenue(recsA)
	leg3 := bestVenue(recsB)
	if leg1.PriceInBase <= 0 || leg3.PriceInBase <= 0 {
		return domain.Opportunity{}, false
	}

	// Leg 1: base -> A.
	amountA := k * (1 - triangleLegFee) / leg1.PriceInBase
	// Leg 2: A -> B at the inferred cross-ratio, no direct market read.
	ratio := leg1.PriceInBase / leg3.PriceInBase
	if d.crossCheck != nil {
		go d.crossCheck.CheckRatio(context.WithoutCancel(ctx), assetA, assetB, ratio, amountA)
	}
	amountB := amountA * ratio * (1 - triangleLegFee)
	// Leg 3: B -> base.
	final := amountB * leg3.PriceInBase * (1 - triangleLegFee)

	gain := final - k
	grossPct := gain / k
	if grossPct > triangleGrossPctCap {
		return domain.Opportunity{}, false
	}

	cost, ok := costmodel.Gate(gain)
	if !ok {
		return domain.Opportunity{}, false
	}

	return domain.Opportunity{
		Kind:           domain.KindTriangle,
		AssetA:         assetA,
		AssetB:         assetB,
		VenueLeg1:      leg1.VenueName,
		VenueLeg3:      leg3.VenueName,
		PoolHandleLeg1: leg1.PoolHandle,
		PoolHandleLeg3: leg3.PoolHandle,
		InputAmount:    k,
		GrossGain:      gain,
		GrossPct:       grossPct,
		PositionSize:   k,
		Cost:           cost,
	}, true
}

// bestVenue deterministically picks the quote whose venue name sorts
// first; it does not compare prices. Venue selection
// for triangle legs does not require the pair scan's outlier filter
// since only one quote per asset side is needed.
func bestVenue(records []domain.PriceRecord) domain.PriceRecord {
	best := records[0]
	for _, r := range records[1:] {
		if r.VenueName < best.VenueName {
			best = r
		}
	}
	return best
}
