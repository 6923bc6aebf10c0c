package venues

import (
	"encoding/binary"
	"fmt"

	"github.com/crossvenue/arbengine/internal/domain"
)

// Orca Whirlpool program address. Built by analogy to the Raydium
// Cpmm/Meteora Anchor-style layouts; a concentrated-liquidity pool's
// real instruction needs per-price-range tick array accounts this
// builder does not model, so it treats the pool as flat constant
// product for preview and instruction purposes.
var (
	orcaWhirlpoolProgramAddress = mustBase58("whirLbMiicVdio4qvUfM5KAg6Ct8VwpYzGff3uctyCc")
	orcaSwapDiscriminator       = [8]byte{248, 198, 158, 145, 225, 117, 135, 200}
)

type orcaWhirlpoolBuilder struct{}

func (orcaWhirlpoolBuilder) Kind() domain.VenueKind { return domain.VenueOrcaWhirlpool }

func (b orcaWhirlpoolBuilder) BuildSwap(p SwapParams) (domain.Instruction, error) {
	whirlpool, err := domain.ParseBase58Address(p.Pool.FullAddress)
	if err != nil {
		return domain.Instruction{}, fmt.Errorf("orca whirlpool: pool address: %w", err)
	}
	oracle := deriveProgramAddress(orcaWhirlpoolProgramAddress, []byte("oracle"), whirlpool[:])

	data := make([]byte, 25)
	copy(data[0:8], orcaSwapDiscriminator[:])
	binary.LittleEndian.PutUint64(data[8:16], p.AmountIn)
	binary.LittleEndian.PutUint64(data[16:24], p.MinAmountOut)
	if p.DirectionAToB {
		data[24] = 1
	}

	vaultA, vaultB := p.Pool.ReserveAAddress, p.Pool.ReserveBAddress

	return domain.Instruction{
		ProgramAddress: orcaWhirlpoolProgramAddress,
		Data:           data,
		Accounts: []domain.AccountRef{
			{Address: p.UserAddress, Signer: true},
			{Address: whirlpool, Writable: true},
			{Address: p.UserTokenA, Writable: true},
			{Address: vaultA, Writable: true},
			{Address: p.UserTokenB, Writable: true},
			{Address: vaultB, Writable: true},
			{Address: oracle, Writable: true},
			{Address: tokenProgramAddress},
		},
	}, nil
}
