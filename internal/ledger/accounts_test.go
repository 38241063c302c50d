package ledger

import (
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"
)

func campaignBytes(creator solana.PublicKey, goal, donated uint64, deadline int64, withdrawn bool) []byte {
	data := make([]byte, campaignAccountLen)
	copy(data, discCampaignAccount[:])
	copy(data[8:], creator.Bytes())
	binary.LittleEndian.PutUint64(data[40:], goal)
	binary.LittleEndian.PutUint64(data[48:], donated)
	binary.LittleEndian.PutUint64(data[56:], uint64(deadline))
	if withdrawn {
		data[64] = 1
	}
	return data
}

func TestDecodeCampaignAccount(t *testing.T) {
	creator := solana.NewWallet().PublicKey()

	acct, err := DecodeCampaignAccount(campaignBytes(creator, 10, 4, -1200, true))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !acct.Creator.Equals(creator) {
		t.Errorf("creator = %s, want %s", acct.Creator, creator)
	}
	if acct.GoalAmount != 10 || acct.TotalDonated != 4 {
		t.Errorf("amounts = %d/%d, want 10/4", acct.GoalAmount, acct.TotalDonated)
	}
	if acct.Deadline != -1200 {
		t.Errorf("deadline = %d, want -1200 (i64 round trip)", acct.Deadline)
	}
	if !acct.IsWithdrawn {
		t.Error("withdrawn flag lost")
	}
}

func TestDecodeCampaignAccountRejectsForeignData(t *testing.T) {
	contribution := make([]byte, contributionAccountLen)
	copy(contribution, discContributionAccount[:])

	if _, err := DecodeCampaignAccount(contribution); err == nil {
		t.Error("decoded a contribution account as a campaign")
	}
	if _, err := DecodeCampaignAccount([]byte{1, 2, 3}); err == nil {
		t.Error("decoded truncated data")
	}
}

func TestDecodeContributionAccount(t *testing.T) {
	contributor := solana.NewWallet().PublicKey()
	data := make([]byte, contributionAccountLen)
	copy(data, discContributionAccount[:])
	copy(data[8:], contributor.Bytes())
	binary.LittleEndian.PutUint64(data[40:], 42)

	acct, err := DecodeContributionAccount(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !acct.Contributor.Equals(contributor) || acct.Amount != 42 {
		t.Errorf("decoded %s/%d, want %s/42", acct.Contributor, acct.Amount, contributor)
	}
}
