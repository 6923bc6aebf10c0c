package venues

import (
	"encoding/binary"
	"fmt"

	"github.com/crossvenue/arbengine/internal/domain"
)

// PumpSwap program address and instruction discriminators, taken from
// the bonding-curve swap builder: 8-byte Anchor-style selectors, data
// laid out as discriminator + two little-endian u64 amounts.
var (
	pumpSwapProgramAddress = mustBase58("pAMMBay6oceH9fJKBRHGP5D4bD4sWpmSwMn52FMfXEA")

	pumpSwapBuyDiscriminator  = [8]byte{102, 6, 61, 18, 1, 218, 235, 234}
	pumpSwapSellDiscriminator = [8]byte{51, 230, 133, 164, 1, 127, 131, 173}
)

type pumpSwapBuilder struct{}

func (pumpSwapBuilder) Kind() domain.VenueKind { return domain.VenuePumpSwap }

func (b pumpSwapBuilder) BuildSwap(p SwapParams) (domain.Instruction, error) {
	poolAddr, err := domain.ParseBase58Address(p.Pool.FullAddress)
	if err != nil {
		return domain.Instruction{}, fmt.Errorf("pumpswap: pool address: %w", err)
	}

	globalConfig := deriveProgramAddress(pumpSwapProgramAddress, []byte("global"))
	eventAuthority := deriveProgramAddress(pumpSwapProgramAddress, []byte("__event_authority"))
	vaultA := deriveProgramAddress(pumpSwapProgramAddress, []byte("vault"), poolAddr[:], p.Pool.AssetAMint[:])
	vaultB := deriveProgramAddress(pumpSwapProgramAddress, []byte("vault"), poolAddr[:], p.Pool.AssetBMint[:])

	data := make([]byte, 24)
	if p.DirectionAToB {
		copy(data[0:8], pumpSwapBuyDiscriminator[:])
		binary.LittleEndian.PutUint64(data[8:16], p.MinAmountOut)
		binary.LittleEndian.PutUint64(data[16:24], p.AmountIn)
	} else {
		copy(data[0:8], pumpSwapSellDiscriminator[:])
		binary.LittleEndian.PutUint64(data[8:16], p.AmountIn)
		binary.LittleEndian.PutUint64(data[16:24], p.MinAmountOut)
	}

	return domain.Instruction{
		ProgramAddress: pumpSwapProgramAddress,
		Data:           data,
		Accounts: []domain.AccountRef{
			{Address: p.UserAddress, Writable: true, Signer: true},
			{Address: p.UserTokenA, Writable: true},
			{Address: p.UserTokenB, Writable: true},
			{Address: vaultA, Writable: true},
			{Address: vaultB, Writable: true},
			{Address: p.Pool.AssetAMint},
			{Address: p.Pool.AssetBMint},
			{Address: poolAddr},
			{Address: globalConfig},
			{Address: eventAuthority},
			{Address: tokenProgramAddress},
			{Address: ataProgramAddress},
		},
	}, nil
}
