package venues

import (
	"encoding/binary"
	"fmt"

	"github.com/crossvenue/arbengine/internal/domain"
)

// Raydium program addresses, from the venue table. AmmV4 uses the
// legacy single-byte instruction tag layout (SwapBaseIn = 9); Cpmm
// uses the newer Anchor-sighash discriminator convention, built by
// analogy to the PumpSwap/Meteora account layouts since no dedicated
// swap builder for either program was available to ground against.
var (
	raydiumAmmV4ProgramAddress = mustBase58("675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8")
	raydiumCpmmProgramAddress  = mustBase58("CPMMoo8L3F4NbTegBCKVNunggL7H1ZpdTHKxQB5qKP1C")

	raydiumSwapBaseInTag         byte = 9
	raydiumCpmmSwapDiscriminator      = [8]byte{143, 190, 90, 218, 196, 30, 51, 222}
)

type raydiumAmmV4Builder struct{}

func (raydiumAmmV4Builder) Kind() domain.VenueKind { return domain.VenueRaydiumAmmV4 }

func (b raydiumAmmV4Builder) BuildSwap(p SwapParams) (domain.Instruction, error) {
	ammID, err := domain.ParseBase58Address(p.Pool.FullAddress)
	if err != nil {
		return domain.Instruction{}, fmt.Errorf("raydium amm_v4: pool address: %w", err)
	}
	authority := deriveProgramAddress(raydiumAmmV4ProgramAddress, []byte("amm_authority"))

	data := make([]byte, 17)
	data[0] = raydiumSwapBaseInTag
	binary.LittleEndian.PutUint64(data[1:9], p.AmountIn)
	binary.LittleEndian.PutUint64(data[9:17], p.MinAmountOut)

	userSource, userDest := p.UserTokenA, p.UserTokenB
	poolCoin, poolPC := p.Pool.ReserveAAddress, p.Pool.ReserveBAddress
	if !p.DirectionAToB {
		userSource, userDest = p.UserTokenB, p.UserTokenA
		poolCoin, poolPC = p.Pool.ReserveBAddress, p.Pool.ReserveAAddress
	}

	return domain.Instruction{
		ProgramAddress: raydiumAmmV4ProgramAddress,
		Data:           data,
		Accounts: []domain.AccountRef{
			{Address: tokenProgramAddress},
			{Address: ammID, Writable: true},
			{Address: authority},
			{Address: poolCoin, Writable: true},
			{Address: poolPC, Writable: true},
			{Address: userSource, Writable: true},
			{Address: userDest, Writable: true},
			{Address: p.UserAddress, Signer: true},
		},
	}, nil
}

type raydiumCpmmBuilder struct{}

func (raydiumCpmmBuilder) Kind() domain.VenueKind { return domain.VenueRaydiumCpmm }

func (b raydiumCpmmBuilder) BuildSwap(p SwapParams) (domain.Instruction, error) {
	poolState, err := domain.ParseBase58Address(p.Pool.FullAddress)
	if err != nil {
		return domain.Instruction{}, fmt.Errorf("raydium cpmm: pool address: %w", err)
	}
	authority := deriveProgramAddress(raydiumCpmmProgramAddress, []byte("vault_and_lp_mint_auth_seed"))

	data := make([]byte, 24)
	copy(data[0:8], raydiumCpmmSwapDiscriminator[:])
	binary.LittleEndian.PutUint64(data[8:16], p.AmountIn)
	binary.LittleEndian.PutUint64(data[16:24], p.MinAmountOut)

	inputToken, outputToken := p.UserTokenA, p.UserTokenB
	inputVault, outputVault := p.Pool.ReserveAAddress, p.Pool.ReserveBAddress
	inputMint, outputMint := p.Pool.AssetAMint, p.Pool.AssetBMint
	if !p.DirectionAToB {
		inputToken, outputToken = p.UserTokenB, p.UserTokenA
		inputVault, outputVault = p.Pool.ReserveBAddress, p.Pool.ReserveAAddress
		inputMint, outputMint = p.Pool.AssetBMint, p.Pool.AssetAMint
	}

	return domain.Instruction{
		ProgramAddress: raydiumCpmmProgramAddress,
		Data:           data,
		Accounts: []domain.AccountRef{
			{Address: p.UserAddress, Signer: true},
			{Address: authority},
			{Address: poolState, Writable: true},
			{Address: inputToken, Writable: true},
			{Address: outputToken, Writable: true},
			{Address: inputVault, Writable: true},
			{Address: outputVault, Writable: true},
			{Address: inputMint},
			{Address: outputMint},
			{Address: tokenProgramAddress},
		},
	}, nil
}
