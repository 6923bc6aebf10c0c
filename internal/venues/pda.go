package venues

import (
	"crypto/sha256"

	"github.com/crossvenue/arbengine/internal/domain"
)

// Well-known SPL program addresses every venue's account list
// references, grounded on the original swap builders.
var (
	tokenProgramAddress = mustBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
	ataProgramAddress   = mustBase58("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL")
)

func mustBase58(s string) domain.Address {
	a, err := domain.ParseBase58Address(s)
	if err != nil {
		panic("venues: invalid well-known address " + s + ": " + err.Error())
	}
	return a
}

// deriveProgramAddress computes a program-derived address from an
// ordered seed list and the owning program, the same seed-tuple
// derivation every venue builder here uses for vault/config/oracle
// accounts. It is a seed-hash derivation, not the curve-bump search
// real PDA derivation performs.
func deriveProgramAddress(programAddress domain.Address, seeds ...[]byte) domain.Address {
	h := sha256.New()
	for _, s := range seeds {
		h.Write(s)
	}
	h.Write(programAddress[:])
	h.Write([]byte("ProgramDerivedAddress"))
	sum := h.Sum(nil)
	var out domain.Address
	copy(out[:], sum[:32])
	return out
}

// deriveATA computes the associated token account for (owner, mint),
// mirroring the real seed tuple [owner, token_program, mint] under the
// ATA program.
func deriveATA(owner, mint domain.Address) domain.Address {
	return deriveProgramAddress(ataProgramAddress, owner[:], tokenProgramAddress[:], mint[:])
}

// DeriveUserATA is the exported form of deriveATA, used by the
// execution pipeline to compute which token accounts a signer needs
// before a builder can reference them.
func DeriveUserATA(owner, mint domain.Address) domain.Address {
	return deriveATA(owner, mint)
}
