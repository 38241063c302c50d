// internal/pda/pda.go
package pda

import (
	"github.com/gagliardetto/solana-go"

	"github.com/Rohan-Singla/solfund-backend/internal/apperr"
)

// ProgramID is the deployed crowdfunding program. Escrow and contribution
// addresses are program-derived accounts under this id, so every component
// can recompute them locally without asking the ledger first.
var ProgramID = solana.MustPublicKeyFromBase58("EW2gBEZnq5CvP4nTMAeKD1AsEMDC5RtjzfE5ofPujvPv")

var (
	campaignSeed     = []byte("campaign")
	contributionSeed = []byte("contribution")
)

// ParseIdentity parses a base58 wallet address.
func ParseIdentity(value string) (solana.PublicKey, error) {
	pk, err := solana.PublicKeyFromBase58(value)
	if err != nil {
		return solana.PublicKey{}, apperr.NewInvalidIdentity(value)
	}
	return pk, nil
}

// DeriveEscrow returns the campaign escrow address for a creator. The mapping
// is deterministic: one creator always owns the same escrow, which is also
// what makes a duplicate createCampaign collide on the ledger side.
func DeriveEscrow(creator solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress(
		[][]byte{campaignSeed, creator.Bytes()},
		ProgramID,
	)
}

// DeriveContribution returns the per-(campaign, contributor) record address.
func DeriveContribution(escrow, contributor solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress(
		[][]byte{contributionSeed, escrow.Bytes(), contributor.Bytes()},
		ProgramID,
	)
}
