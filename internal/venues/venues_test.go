package venues

import (
	"bytes"
	"testing"

	"github.com/crossvenue/arbengine/internal/domain"
)

func testPool(kind string) domain.PoolDescriptor {
	return domain.PoolDescriptor{
		FullAddress:     "675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8",
		VenueKind:       kind,
		AssetAMint:      domain.Address{1},
		AssetBMint:      domain.Address{2},
		ReserveAAddress: domain.Address{3},
		ReserveBAddress: domain.Address{4},
	}
}

func testParams(kind string, directionAToB bool) SwapParams {
	return SwapParams{
		Pool:          testPool(kind),
		UserAddress:   domain.Address{9},
		UserTokenA:    domain.Address{10},
		UserTokenB:    domain.Address{11},
		AmountIn:      1_000_000,
		MinAmountOut:  900_000,
		DirectionAToB: directionAToB,
	}
}

func TestPumpSwapBuilder_BuyEncodesDiscriminatorAndArgOrder(t *testing.T) {
	b := pumpSwapBuilder{}
	inst, err := b.BuildSwap(testParams("PumpSwap", true))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !bytes.Equal(inst.Data[0:8], pumpSwapBuyDiscriminator[:]) {
		t.Fatalf("expected buy discriminator, got %x", inst.Data[0:8])
	}
	if len(inst.Accounts) != 12 {
		t.Fatalf("expected 12 accounts, got %d", len(inst.Accounts))
	}
	if !inst.Accounts[0].Signer || !inst.Accounts[0].Writable {
		t.Fatal("expected user account to be signer+writable")
	}
}

func TestPumpSwapBuilder_SellUsesSellDiscriminatorAndArgOrder(t *testing.T) {
	b := pumpSwapBuilder{}
	inst, err := b.BuildSwap(testParams("PumpSwap", false))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !bytes.Equal(inst.Data[0:8], pumpSwapSellDiscriminator[:]) {
		t.Fatalf("expected sell discriminator, got %x", inst.Data[0:8])
	}
	// sell data layout is amount_in then minimum_amount_out
	amountIn := leUint64(inst.Data[8:16])
	minOut := leUint64(inst.Data[16:24])
	if amountIn != 1_000_000 || minOut != 900_000 {
		t.Fatalf("unexpected sell arg layout: amountIn=%d minOut=%d", amountIn, minOut)
	}
}

func TestMeteoraBuilder_AccountCountAndDiscriminator(t *testing.T) {
	b := meteoraDlmmBuilder{}
	inst, err := b.BuildSwap(testParams("MeteoraDlmm", true))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !bytes.Equal(inst.Data[0:8], meteoraSwapDiscriminator[:]) {
		t.Fatalf("unexpected discriminator: %x", inst.Data[0:8])
	}
	if len(inst.Accounts) != 11 {
		t.Fatalf("expected 11 accounts, got %d", len(inst.Accounts))
	}
}

func TestRaydiumAmmV4Builder_UsesSwapBaseInTag(t *testing.T) {
	b := raydiumAmmV4Builder{}
	inst, err := b.BuildSwap(testParams("RaydiumAmmV4", true))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if inst.Data[0] != raydiumSwapBaseInTag {
		t.Fatalf("expected swap base in tag %d, got %d", raydiumSwapBaseInTag, inst.Data[0])
	}
	if len(inst.Data) != 17 {
		t.Fatalf("expected 17-byte data, got %d", len(inst.Data))
	}
}

func TestRegistry_UnknownVenueRefusesBuild(t *testing.T) {
	r := NewRegistry()
	_, err := r.BuildSwap(testPool("SomeUnlistedDex"), testParams("SomeUnlistedDex", true))
	if err != domain.ErrVenueUnsupported {
		t.Fatalf("expected ErrVenueUnsupported, got %v", err)
	}
}

func TestRegistry_DispatchesKnownVenues(t *testing.T) {
	r := NewRegistry()
	for _, kind := range []string{"RaydiumAmmV4", "RaydiumCpmm", "OrcaWhirlpool", "MeteoraDlmm", "PumpSwap"} {
		_, err := r.BuildSwap(testPool(kind), testParams(kind, true))
		if err != nil {
			t.Fatalf("expected %s to build without error, got %v", kind, err)
		}
	}
}

func TestPreviewConstantProduct_MatchesFormula(t *testing.T) {
	out := PreviewConstantProduct(100, 10000, 20000, 0.003)
	inAfterFee := 100.0 * (1 - 0.003)
	want := (inAfterFee * 20000) / (10000 + inAfterFee)
	if out != want {
		t.Fatalf("expected %v, got %v", want, out)
	}
}

func TestPreviewConstantProduct_ZeroReservesYieldsZero(t *testing.T) {
	if out := PreviewConstantProduct(100, 0, 20000, 0.003); out != 0 {
		t.Fatalf("expected 0 for empty reserve, got %v", out)
	}
}

func leUint64(b []byte) uint64 {
	var v uint64
	for i := 7; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}
