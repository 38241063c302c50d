// internal/ledger/accounts.go
package ledger

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Anchor 8-byte account discriminators from the program's IDL.
var (
	discCampaignAccount     = [8]byte{50, 40, 49, 11, 157, 220, 229, 192}
	discContributionAccount = [8]byte{182, 187, 14, 111, 72, 167, 242, 212}
)

const (
	campaignAccountLen     = 8 + 32 + 8 + 8 + 8 + 1
	contributionAccountLen = 8 + 32 + 8
)

// CampaignAccount is the on-chain campaign state. These fields, not the
// mirror's, are the authoritative inputs to lifecycle classification.
type CampaignAccount struct {
	Creator      solana.PublicKey
	GoalAmount   uint64
	TotalDonated uint64
	Deadline     int64
	IsWithdrawn  bool
}

// ContributionAccount is one contributor's on-chain record. Amount drops to
// zero once the contribution has been refunded.
type ContributionAccount struct {
	Contributor solana.PublicKey
	Amount      uint64
}

// DecodeCampaignAccount parses the borsh layout of a campaign account.
func DecodeCampaignAccount(data []byte) (*CampaignAccount, error) {
	if len(data) < campaignAccountLen {
		return nil, fmt.Errorf("campaign account too short: %d bytes", len(data))
	}
	if !bytes.Equal(data[:8], discCampaignAccount[:]) {
		return nil, fmt.Errorf("not a campaign account")
	}

	acct := &CampaignAccount{
		Creator:      solana.PublicKeyFromBytes(data[8:40]),
		GoalAmount:   binary.LittleEndian.Uint64(data[40:48]),
		TotalDonated: binary.LittleEndian.Uint64(data[48:56]),
		Deadline:     int64(binary.LittleEndian.Uint64(data[56:64])),
		IsWithdrawn:  data[64] != 0,
	}
	return acct, nil
}

// DecodeContributionAccount parses the borsh layout of a contribution account.
func DecodeContributionAccount(data []byte) (*ContributionAccount, error) {
	if len(data) < contributionAccountLen {
		return nil, fmt.Errorf("contribution account too short: %d bytes", len(data))
	}
	if !bytes.Equal(data[:8], discContributionAccount[:]) {
		return nil, fmt.Errorf("not a contribution account")
	}

	acct := &ContributionAccount{
		Contributor: solana.PublicKeyFromBytes(data[8:40]),
		Amount:      binary.LittleEndian.Uint64(data[40:48]),
	}
	return acct, nil
}
