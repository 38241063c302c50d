// internal/ledger/codec.go
package ledger

import (
	"encoding/binary"

	"github.com/gagliardetto/solana-go"

	"github.com/Rohan-Singla/solfund-backend/internal/pda"
)

// Anchor 8-byte instruction discriminators, fixed by the deployed program's
// IDL. Argument scalars are borsh-encoded (little-endian, fixed width).
var (
	discCreateCampaign = [8]byte{111, 131, 187, 98, 160, 193, 114, 244}
	discContribute     = [8]byte{82, 33, 68, 131, 32, 0, 205, 95}
	discRefund         = [8]byte{2, 96, 183, 251, 63, 208, 46, 46}
	discWithdraw       = [8]byte{183, 18, 70, 156, 148, 109, 161, 34}
)

func createCampaignInstruction(creator, escrow solana.PublicKey, goal uint64, deadline int64) solana.Instruction {
	data := make([]byte, 8+8+8)
	copy(data, discCreateCampaign[:])
	binary.LittleEndian.PutUint64(data[8:], goal)
	binary.LittleEndian.PutUint64(data[16:], uint64(deadline))

	return solana.NewInstruction(pda.ProgramID, solana.AccountMetaSlice{
		solana.Meta(creator).WRITE().SIGNER(),
		solana.Meta(escrow).WRITE(),
		solana.Meta(solana.SystemProgramID),
	}, data)
}

func contributeInstruction(contributor, escrow, contribution solana.PublicKey, lamports uint64) solana.Instruction {
	data := make([]byte, 8+8)
	copy(data, discContribute[:])
	binary.LittleEndian.PutUint64(data[8:], lamports)

	return solana.NewInstruction(pda.ProgramID, solana.AccountMetaSlice{
		solana.Meta(contributor).WRITE().SIGNER(),
		solana.Meta(escrow).WRITE(),
		solana.Meta(contribution).WRITE(),
		solana.Meta(solana.SystemProgramID),
	}, data)
}

func refundInstruction(contributor, escrow, contribution solana.PublicKey) solana.Instruction {
	return solana.NewInstruction(pda.ProgramID, solana.AccountMetaSlice{
		solana.Meta(contributor).WRITE().SIGNER(),
		solana.Meta(escrow).WRITE(),
		solana.Meta(contribution).WRITE(),
	}, discRefund[:])
}

func withdrawInstruction(escrow, creator solana.PublicKey) solana.Instruction {
	return solana.NewInstruction(pda.ProgramID, solana.AccountMetaSlice{
		solana.Meta(escrow).WRITE(),
		solana.Meta(creator).WRITE().SIGNER(),
		solana.Meta(solana.SystemProgramID),
	}, discWithdraw[:])
}
