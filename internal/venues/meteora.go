package venues

import (
	"encoding/binary"
	"fmt"

	"github.com/crossvenue/arbengine/internal/domain"
)

// Meteora DLMM program address and swap discriminator, grounded on
// the LB_CLMM swap builder: data = discriminator + amount_in(u64) +
// min_amount_out(u64), little-endian.
var (
	meteoraDlmmProgramAddress = mustBase58("LBUZKhRxPF3XUpBCjp4YzTKgLccjZhTSDM9YuVaPwxo")
	meteoraSwapDiscriminator  = [8]byte{0xf8, 0xc6, 0x9e, 0x91, 0xe1, 0x75, 0x87, 0xc8}
)

type meteoraDlmmBuilder struct{}

func (meteoraDlmmBuilder) Kind() domain.VenueKind { return domain.VenueMeteoraDlmm }

func (b meteoraDlmmBuilder) BuildSwap(p SwapParams) (domain.Instruction, error) {
	lbPair, err := domain.ParseBase58Address(p.Pool.FullAddress)
	if err != nil {
		return domain.Instruction{}, fmt.Errorf("meteora: lb_pair address: %w", err)
	}

	reserveX := deriveProgramAddress(meteoraDlmmProgramAddress, []byte("reserve_x"), lbPair[:])
	reserveY := deriveProgramAddress(meteoraDlmmProgramAddress, []byte("reserve_y"), lbPair[:])
	oracle := deriveProgramAddress(meteoraDlmmProgramAddress, []byte("oracle"), lbPair[:])

	data := make([]byte, 24)
	copy(data[0:8], meteoraSwapDiscriminator[:])
	binary.LittleEndian.PutUint64(data[8:16], p.AmountIn)
	binary.LittleEndian.PutUint64(data[16:24], p.MinAmountOut)

	userTokenIn, userTokenOut := p.UserTokenA, p.UserTokenB
	if !p.DirectionAToB {
		userTokenIn, userTokenOut = p.UserTokenB, p.UserTokenA
	}

	return domain.Instruction{
		ProgramAddress: meteoraDlmmProgramAddress,
		Data:           data,
		Accounts: []domain.AccountRef{
			{Address: lbPair, Writable: true},
			{Address: reserveX, Writable: true},
			{Address: reserveY, Writable: true},
			{Address: userTokenIn, Writable: true},
			{Address: userTokenOut, Writable: true},
			{Address: p.Pool.AssetAMint},
			{Address: p.Pool.AssetBMint},
			{Address: oracle, Writable: true},
			{Address: p.UserAddress, Signer: true},
			{Address: tokenProgramAddress},
			{Address: tokenProgramAddress},
		},
	}, nil
}
