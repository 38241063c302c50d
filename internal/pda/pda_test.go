package pda_test

import (
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"

	"github.com/Rohan-Singla/solfund-backend/internal/apperr"
	"github.com/Rohan-Singla/solfund-backend/internal/pda"
)

func TestDeriveEscrowDeterministic(t *testing.T) {
	creator := solana.NewWallet().PublicKey()

	a1, bump1, err := pda.DeriveEscrow(creator)
	if err != nil {
		t.Fatalf("derive failed: %v", err)
	}
	a2, bump2, err := pda.DeriveEscrow(creator)
	if err != nil {
		t.Fatalf("derive failed: %v", err)
	}

	if !a1.Equals(a2) {
		t.Errorf("same creator produced different escrows: %s vs %s", a1, a2)
	}
	if bump1 != bump2 {
		t.Errorf("same creator produced different bumps: %d vs %d", bump1, bump2)
	}
}

func TestDeriveEscrowDistinctCreators(t *testing.T) {
	a, _, err := pda.DeriveEscrow(solana.NewWallet().PublicKey())
	if err != nil {
		t.Fatalf("derive failed: %v", err)
	}
	b, _, err := pda.DeriveEscrow(solana.NewWallet().PublicKey())
	if err != nil {
		t.Fatalf("derive failed: %v", err)
	}

	if a.Equals(b) {
		t.Errorf("distinct creators produced the same escrow %s", a)
	}
}

func TestDeriveContributionDistinctContributors(t *testing.T) {
	escrow, _, err := pda.DeriveEscrow(solana.NewWallet().PublicKey())
	if err != nil {
		t.Fatalf("derive failed: %v", err)
	}

	c1 := solana.NewWallet().PublicKey()
	c2 := solana.NewWallet().PublicKey()

	a1, _, err := pda.DeriveContribution(escrow, c1)
	if err != nil {
		t.Fatalf("derive failed: %v", err)
	}
	a1Again, _, err := pda.DeriveContribution(escrow, c1)
	if err != nil {
		t.Fatalf("derive failed: %v", err)
	}
	a2, _, err := pda.DeriveContribution(escrow, c2)
	if err != nil {
		t.Fatalf("derive failed: %v", err)
	}

	if !a1.Equals(a1Again) {
		t.Errorf("same pair produced different addresses: %s vs %s", a1, a1Again)
	}
	if a1.Equals(a2) {
		t.Errorf("distinct contributors produced the same address %s", a1)
	}
	if a1.Equals(escrow) || a2.Equals(escrow) {
		t.Error("contribution address collided with the escrow address")
	}
}

func TestParseIdentityRejectsMalformedInput(t *testing.T) {
	for _, raw := range []string{"", "not-base58-0OIl", "abc"} {
		_, err := pda.ParseIdentity(raw)
		if err == nil {
			t.Errorf("ParseIdentity(%q) accepted malformed input", raw)
			continue
		}
		var invalid *apperr.InvalidIdentityError
		if !errors.As(err, &invalid) {
			t.Errorf("ParseIdentity(%q) returned %T, want InvalidIdentityError", raw, err)
		}
	}
}
