// internal/service/reconciler.go
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Rohan-Singla/solfund-backend/internal/ledger"
	"github.com/Rohan-Singla/solfund-backend/internal/model"
	"github.com/Rohan-Singla/solfund-backend/internal/pda"
	"github.com/Rohan-Singla/solfund-backend/internal/repository"
)

// Reconciler replays the ledger's canonical event feed into the mirror. The
// mirror is rebuildable from this feed: the coordinator's own mirror writes
// are a cache-warming optimization, not the system of record. Every step here
// reads the ledger and upserts, so the whole pass is freely retryable;
// redeliveries are dropped by the signature journal.
type Reconciler struct {
	Campaigns     repository.CampaignRepositoryInterface
	Contributions repository.ContributionRepositoryInterface
	Journal       repository.EventJournalInterface
	Ledger        ledger.Client
	Log           zerolog.Logger
}

func (r *Reconciler) HandleEvent(ctx context.Context, ev model.LedgerEvent) error {
	if ev.Signature != "" {
		applied, err := r.Journal.Applied(ev.Signature)
		if err != nil {
			return fmt.Errorf("journal lookup: %w", err)
		}
		if applied {
			r.Log.Debug().Str("signature", ev.Signature).Msg("event already applied")
			return nil
		}
	}

	if err := r.apply(ctx, ev); err != nil {
		return err
	}

	// Journaled only after the apply, so a failed apply stays eligible for
	// redelivery. A crash between the two re-applies the event, which is
	// harmless: every apply step is an idempotent overwrite.
	if ev.Signature != "" {
		if err := r.Journal.MarkApplied(ev.Signature); err != nil {
			return fmt.Errorf("journal event: %w", err)
		}
	}
	return nil
}

func (r *Reconciler) apply(ctx context.Context, ev model.LedgerEvent) error {
	escrow, err := pda.ParseIdentity(ev.Escrow)
	if err != nil {
		return fmt.Errorf("event carries malformed escrow %q: %w", ev.Escrow, err)
	}

	switch ev.Kind {
	case model.EventCampaignCreated:
		return r.applyCampaignCreated(ctx, ev, escrow)
	case model.EventContributionMade:
		return r.applyContributionMade(ctx, ev, escrow)
	case model.EventRefundIssued:
		return r.applyRefundIssued(ctx, ev, escrow)
	case model.EventWithdrawal:
		return r.Campaigns.SetWithdrawn(ev.Escrow)
	default:
		r.Log.Warn().Str("kind", ev.Kind).Msg("unknown ledger event kind")
		return nil
	}
}

// applyCampaignCreated repairs a campaign that exists on-chain but never made
// it into the mirror (the create-then-mirror-write failure mode). Display
// fields are unknown to the ledger, so the upsert fills ledger-sourced
// columns and leaves any existing display fields alone.
func (r *Reconciler) applyCampaignCreated(ctx context.Context, ev model.LedgerEvent, escrow solana.PublicKey) error {
	acct, err := r.Ledger.GetCampaign(ctx, escrow)
	if err != nil {
		return fmt.Errorf("read campaign account %s: %w", ev.Escrow, err)
	}

	if err := r.Campaigns.Upsert(&model.Campaign{
		ID:        uuid.New(),
		Escrow:    ev.Escrow,
		Creator:   acct.Creator.String(),
		Goal:      acct.GoalAmount,
		Raised:    acct.TotalDonated,
		Deadline:  acct.Deadline,
		Withdrawn: acct.IsWithdrawn,
	}); err != nil {
		return err
	}
	// The upsert's conflict branch leaves raised alone (the coordinator's
	// atomic increments own that column on the hot path), so a pre-existing
	// row needs the canonical total written explicitly.
	return r.Campaigns.SetRaised(ev.Escrow, acct.TotalDonated)
}

// applyContributionMade overwrites the cached aggregate with the on-chain
// total rather than adding the event's delta, so drift from any earlier
// missed update self-heals on the next replay.
func (r *Reconciler) applyContributionMade(ctx context.Context, ev model.LedgerEvent, escrow solana.PublicKey) error {
	acct, err := r.Ledger.GetCampaign(ctx, escrow)
	if err != nil {
		return fmt.Errorf("read campaign account %s: %w", ev.Escrow, err)
	}
	if err := r.Campaigns.SetRaised(ev.Escrow, acct.TotalDonated); err != nil {
		return err
	}

	contributor, err := pda.ParseIdentity(ev.Contributor)
	if err != nil {
		return fmt.Errorf("event carries malformed contributor %q: %w", ev.Contributor, err)
	}
	address, _, err := pda.DeriveContribution(escrow, contributor)
	if err != nil {
		return err
	}

	// The contribution account holds the contributor's cumulative total; prefer
	// it over the event's delta so a replay cannot double-count. A refund may
	// have closed the account since, in which case the row is already settled.
	amount := ev.Amount
	if acct, err := r.Ledger.GetContribution(ctx, address); err == nil {
		amount = acct.Amount
	} else if !errors.Is(err, ledger.ErrAccountNotFound) {
		return fmt.Errorf("read contribution account %s: %w", address, err)
	}
	return r.Contributions.Upsert(&model.Contribution{
		Address:     address.String(),
		Escrow:      ev.Escrow,
		Contributor: ev.Contributor,
		Amount:      amount,
	})
}

// applyRefundIssued marks the contribution consumed. The campaign aggregate
// is left alone on purpose, matching the coordinator's refund path.
func (r *Reconciler) applyRefundIssued(ctx context.Context, ev model.LedgerEvent, escrow solana.PublicKey) error {
	contributor, err := pda.ParseIdentity(ev.Contributor)
	if err != nil {
		return fmt.Errorf("event carries malformed contributor %q: %w", ev.Contributor, err)
	}
	address, _, err := pda.DeriveContribution(escrow, contributor)
	if err != nil {
		return err
	}
	return r.Contributions.MarkRefunded(address.String())
}

// BackfillCampaign upserts one on-chain campaign account into the mirror.
// cmd/backfill walks every campaign account under the program and calls this;
// it is the out-of-band pass that repairs records lost to a mirror-write
// failure with no surviving event.
func (r *Reconciler) BackfillCampaign(escrowAddress string, acct *ledger.CampaignAccount) error {
	if acct == nil {
		return errors.New("nil campaign account")
	}
	if err := r.Campaigns.Upsert(&model.Campaign{
		ID:        uuid.New(),
		Escrow:    escrowAddress,
		Creator:   acct.Creator.String(),
		Goal:      acct.GoalAmount,
		Raised:    acct.TotalDonated,
		Deadline:  acct.Deadline,
		Withdrawn: acct.IsWithdrawn,
	}); err != nil {
		return err
	}
	// Same as applyCampaignCreated: the conflict branch never touches raised,
	// and a stale aggregate on an existing row is exactly what this pass is
	// for. Overwrite it with the on-chain total.
	return r.Campaigns.SetRaised(escrowAddress, acct.TotalDonated)
}
