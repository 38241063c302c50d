// internal/service/coordinator.go
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Rohan-Singla/solfund-backend/internal/apperr"
	"github.com/Rohan-Singla/solfund-backend/internal/ledger"
	"github.com/Rohan-Singla/solfund-backend/internal/lifecycle"
	"github.com/Rohan-Singla/solfund-backend/internal/model"
	"github.com/Rohan-Singla/solfund-backend/internal/pda"
	"github.com/Rohan-Singla/solfund-backend/internal/queue"
	"github.com/Rohan-Singla/solfund-backend/internal/repository"
)

// Coordinator orchestrates every mutating action as a two-step, non-atomic
// sequence: the ledger write first (authoritative, irreversible once
// confirmed), the mirror write second (advisory cache). A mirror failure
// never rolls back a confirmed ledger transaction, and no ledger transaction
// is ever submitted on mirror data alone: addresses are re-derived and the
// lifecycle state is classified from ledger-sourced fields.
type Coordinator struct {
	Campaigns     repository.CampaignRepositoryInterface
	Contributions repository.ContributionRepositoryInterface
	Ledger        ledger.Client
	Events        queue.Publisher
	Clock         func() time.Time
	Log           zerolog.Logger
}

func (s *Coordinator) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now()
}

var lamportsPerSOL = decimal.NewFromInt(1_000_000_000)

// ToLamports converts a display amount in SOL to lamports. Amounts that are
// not positive or do not land on a whole lamport are rejected.
func ToLamports(amount decimal.Decimal) (uint64, error) {
	if amount.Sign() <= 0 {
		return 0, apperr.NewValidation("amount", "must be greater than zero")
	}
	lamports := amount.Mul(lamportsPerSOL)
	if !lamports.IsInteger() {
		return 0, apperr.NewValidation("amount", "finer than one lamport")
	}
	big := lamports.BigInt()
	if !big.IsUint64() {
		return 0, apperr.NewValidation("amount", "exceeds the ledger's numeric range")
	}
	return big.Uint64(), nil
}

// publish feeds the event to the reconciliation queue. Best effort: the feed
// is a repair channel, the authoritative record is already on the ledger.
func (s *Coordinator) publish(ev model.LedgerEvent) {
	if s.Events == nil {
		return
	}
	if err := s.Events.Publish(queue.LedgerEventsTopic, ev); err != nil {
		s.Log.Warn().Err(err).Str("kind", ev.Kind).Msg("failed to publish ledger event")
	}
}

// sigString renders a signature for the event feed. A timeout resolved by
// re-reading post-state has no observed signature; the journal treats an
// empty one as apply-without-dedup.
func sigString(sig solana.Signature) string {
	if sig == (solana.Signature{}) {
		return ""
	}
	return sig.String()
}

type CreateCampaignInput struct {
	Creator          string
	Title            string
	ShortDescription string
	LongDescription  string
	Category         string
	CreatorName      string
	CreatorBio       string
	Receiver         string
	Goal             decimal.Decimal // SOL
	Deadline         int64           // unix seconds
}

// CreateCampaign validates input, soft-guards against a duplicate creator via
// the mirror, submits the ledger creation, then writes the mirror record.
//
// The duplicate guard is advisory only: two near-simultaneous creates from
// the same wallet can both pass it. The ledger closes the race, because the
// escrow address is a deterministic function of the creator and the second
// initialization collides (surfaced as an account_in_use rejection).
func (s *Coordinator) CreateCampaign(ctx context.Context, in CreateCampaignInput) (*model.Campaign, error) {
	creator, err := pda.ParseIdentity(in.Creator)
	if err != nil {
		return nil, err
	}
	if in.Title == "" {
		return nil, apperr.NewValidation("title", "is required")
	}
	if in.ShortDescription == "" {
		return nil, apperr.NewValidation("short_description", "is required")
	}
	goal, err := ToLamports(in.Goal)
	if err != nil {
		return nil, err
	}
	if in.Deadline <= s.now().Unix() {
		return nil, apperr.NewValidation("deadline", "must be in the future")
	}
	receiver := in.Receiver
	if receiver == "" {
		receiver = in.Creator
	} else if _, err := pda.ParseIdentity(receiver); err != nil {
		return nil, err
	}

	exists, err := s.Campaigns.ExistsForCreator(in.Creator)
	if err != nil {
		return nil, fmt.Errorf("duplicate guard: %w", err)
	}
	if exists {
		return nil, apperr.NewValidation("creator", "a campaign for this wallet already exists")
	}

	escrow, _, err := pda.DeriveEscrow(creator)
	if err != nil {
		return nil, fmt.Errorf("derive escrow: %w", err)
	}

	sig, err := s.Ledger.CreateCampaign(ctx, creator, escrow, goal, in.Deadline)
	if err != nil {
		if errors.Is(err, ledger.ErrSubmissionTimeout) {
			if !s.campaignLanded(ctx, escrow, goal, in.Deadline) {
				return nil, fmt.Errorf("createCampaign outcome unknown for %s: %w", escrow, err)
			}
			// Confirmed after the fact; continue to the mirror write.
		} else {
			return nil, err
		}
	}

	campaign := &model.Campaign{
		ID:               uuid.New(),
		Escrow:           escrow.String(),
		Creator:          in.Creator,
		Title:            in.Title,
		ShortDescription: in.ShortDescription,
		LongDescription:  in.LongDescription,
		Category:         in.Category,
		CreatorName:      in.CreatorName,
		CreatorBio:       in.CreatorBio,
		Receiver:         receiver,
		Goal:             goal,
		Raised:           0,
		Deadline:         in.Deadline,
		CreatedAt:        s.now(),
	}

	s.publish(model.LedgerEvent{
		Kind:      model.EventCampaignCreated,
		Signature: sigString(sig),
		Escrow:    campaign.Escrow,
		Creator:   in.Creator,
		Amount:    goal,
	})

	if err := s.Campaigns.Upsert(campaign); err != nil {
		// The campaign exists on-chain but is invisible to listing until the
		// reconciliation pass replays the creation event. Not retried here.
		return nil, apperr.NewConsistency("createCampaign", campaign.Escrow, err)
	}

	s.Log.Info().Str("escrow", campaign.Escrow).Str("creator", in.Creator).Msg("campaign created")
	return campaign, nil
}

// campaignLanded re-queries the ledger after an ambiguous submission and
// reports whether the expected post-state is observable.
func (s *Coordinator) campaignLanded(ctx context.Context, escrow solana.PublicKey, goal uint64, deadline int64) bool {
	acct, err := s.Ledger.GetCampaign(ctx, escrow)
	if err != nil {
		return false
	}
	return acct.GoalAmount == goal && acct.Deadline == deadline
}

// TransactionResult reports a confirmed mutating submission: contribute,
// refund and withdraw all return one.
type TransactionResult struct {
	Signature string `json:"signature"`
	Lamports  uint64 `json:"lamports"`
}

// Contribute submits a contribution for an active campaign. The mirror's
// aggregate is updated with a store-level atomic increment, never a stale
// read-modify-write, so concurrent contributors cannot under-count the cache.
func (s *Coordinator) Contribute(ctx context.Context, campaignID uuid.UUID, contributorIdentity string, displayAmount decimal.Decimal) (*TransactionResult, error) {
	contributor, err := pda.ParseIdentity(contributorIdentity)
	if err != nil {
		return nil, err
	}
	lamports, err := ToLamports(displayAmount)
	if err != nil {
		return nil, err
	}

	campaign, err := s.Campaigns.GetByID(campaignID)
	if err != nil {
		return nil, err
	}
	escrow, err := pda.ParseIdentity(campaign.Escrow)
	if err != nil {
		return nil, fmt.Errorf("mirror holds malformed escrow %q: %w", campaign.Escrow, err)
	}

	acct, err := s.Ledger.GetCampaign(ctx, escrow)
	if err != nil {
		return nil, fmt.Errorf("read campaign account: %w", err)
	}
	state := lifecycle.Classify(acct.GoalAmount, acct.TotalDonated, acct.Deadline, acct.IsWithdrawn, s.now())
	if !state.Allows(lifecycle.ActionContribute) {
		return nil, apperr.NewInvalidState("contribute", state.String())
	}

	contribution, _, err := pda.DeriveContribution(escrow, contributor)
	if err != nil {
		return nil, fmt.Errorf("derive contribution: %w", err)
	}

	prior := uint64(0)
	if prev, err := s.Ledger.GetContribution(ctx, contribution); err == nil {
		prior = prev.Amount
	} else if !errors.Is(err, ledger.ErrAccountNotFound) {
		return nil, fmt.Errorf("read contribution account: %w", err)
	}

	sig, err := s.Ledger.Contribute(ctx, contributor, escrow, contribution, lamports)
	if err != nil {
		if errors.Is(err, ledger.ErrSubmissionTimeout) {
			if !s.contributionLanded(ctx, contribution, prior+lamports) {
				return nil, fmt.Errorf("contribute outcome unknown for %s: %w", contribution, err)
			}
		} else {
			return nil, err
		}
	}

	s.publish(model.LedgerEvent{
		Kind:        model.EventContributionMade,
		Signature:   sigString(sig),
		Escrow:      campaign.Escrow,
		Contributor: contributorIdentity,
		Amount:      lamports,
	})

	if err := s.Campaigns.AddToRaised(campaign.Escrow, lamports); err != nil {
		return nil, apperr.NewConsistency("contribute", campaign.Escrow, err)
	}
	// The row carries the contributor's cumulative total, same as the on-chain
	// contribution account, so a replayed event cannot double-count it.
	if err := s.Contributions.Upsert(&model.Contribution{
		Address:     contribution.String(),
		Escrow:      campaign.Escrow,
		Contributor: contributorIdentity,
		Amount:      prior + lamports,
	}); err != nil {
		return nil, apperr.NewConsistency("contribute", campaign.Escrow, err)
	}

	return &TransactionResult{Signature: sigString(sig), Lamports: lamports}, nil
}

func (s *Coordinator) contributionLanded(ctx context.Context, contribution solana.PublicKey, want uint64) bool {
	acct, err := s.Ledger.GetContribution(ctx, contribution)
	if err != nil {
		return false
	}
	return acct.Amount >= want
}

// Refund returns a contributor's funds on an expired campaign. The ledger
// marks the contribution consumed, so a second refund fails no_contribution
// there; the coordinator adds no idempotence of its own.
//
// The mirror's raised aggregate is deliberately not decremented: it only
// backs progress display on an already-failed campaign, and decrementing it
// would need careful ordering against concurrent refunds for no reader-visible
// benefit.
func (s *Coordinator) Refund(ctx context.Context, campaignID uuid.UUID, contributorIdentity string) (*TransactionResult, error) {
	contributor, err := pda.ParseIdentity(contributorIdentity)
	if err != nil {
		return nil, err
	}
	campaign, err := s.Campaigns.GetByID(campaignID)
	if err != nil {
		return nil, err
	}
	escrow, err := pda.ParseIdentity(campaign.Escrow)
	if err != nil {
		return nil, fmt.Errorf("mirror holds malformed escrow %q: %w", campaign.Escrow, err)
	}

	acct, err := s.Ledger.GetCampaign(ctx, escrow)
	if err != nil {
		return nil, fmt.Errorf("read campaign account: %w", err)
	}
	state := lifecycle.Classify(acct.GoalAmount, acct.TotalDonated, acct.Deadline, acct.IsWithdrawn, s.now())
	if !state.Allows(lifecycle.ActionRefund) {
		return nil, apperr.NewInvalidState("refund", state.String())
	}

	contribution, _, err := pda.DeriveContribution(escrow, contributor)
	if err != nil {
		return nil, fmt.Errorf("derive contribution: %w", err)
	}

	recorded, err := s.Ledger.GetContribution(ctx, contribution)
	if err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			return nil, apperr.NewLedgerRejection(apperr.CodeNoContribution, "no contribution recorded for this wallet")
		}
		return nil, fmt.Errorf("read contribution account: %w", err)
	}
	if recorded.Amount == 0 {
		return nil, apperr.NewLedgerRejection(apperr.CodeNoContribution, "contribution already refunded")
	}

	sig, err := s.Ledger.Refund(ctx, contributor, escrow, contribution)
	if err != nil {
		if errors.Is(err, ledger.ErrSubmissionTimeout) {
			if !s.refundLanded(ctx, contribution) {
				return nil, fmt.Errorf("refund outcome unknown for %s: %w", contribution, err)
			}
		} else {
			return nil, err
		}
	}

	s.publish(model.LedgerEvent{
		Kind:        model.EventRefundIssued,
		Signature:   sigString(sig),
		Escrow:      campaign.Escrow,
		Contributor: contributorIdentity,
		Amount:      recorded.Amount,
	})

	if err := s.Contributions.MarkRefunded(contribution.String()); err != nil {
		return nil, apperr.NewConsistency("refund", campaign.Escrow, err)
	}

	return &TransactionResult{Signature: sigString(sig), Lamports: recorded.Amount}, nil
}

func (s *Coordinator) refundLanded(ctx context.Context, contribution solana.PublicKey) bool {
	acct, err := s.Ledger.GetContribution(ctx, contribution)
	if errors.Is(err, ledger.ErrAccountNotFound) {
		return true
	}
	return err == nil && acct.Amount == 0
}

// Withdraw claims the escrow for the creator of a funded campaign. The mirror
// creator check is a fast pre-check for UX only; the creator stored on the
// ledger account is re-verified before submission, and the ledger program
// itself performs the authoritative signer check during execution. The mirror
// is not a trust boundary.
func (s *Coordinator) Withdraw(ctx context.Context, campaignID uuid.UUID, callerIdentity string) (*TransactionResult, error) {
	caller, err := pda.ParseIdentity(callerIdentity)
	if err != nil {
		return nil, err
	}
	campaign, err := s.Campaigns.GetByID(campaignID)
	if err != nil {
		return nil, err
	}
	if callerIdentity != campaign.Creator {
		return nil, apperr.NewAuthorization(callerIdentity)
	}

	escrow, err := pda.ParseIdentity(campaign.Escrow)
	if err != nil {
		return nil, fmt.Errorf("mirror holds malformed escrow %q: %w", campaign.Escrow, err)
	}
	acct, err := s.Ledger.GetCampaign(ctx, escrow)
	if err != nil {
		return nil, fmt.Errorf("read campaign account: %w", err)
	}
	if !acct.Creator.Equals(caller) {
		return nil, apperr.NewAuthorization(callerIdentity)
	}

	state := lifecycle.Classify(acct.GoalAmount, acct.TotalDonated, acct.Deadline, acct.IsWithdrawn, s.now())
	if !state.Allows(lifecycle.ActionWithdraw) {
		return nil, apperr.NewInvalidState("withdraw", state.String())
	}

	sig, err := s.Ledger.Withdraw(ctx, escrow, caller)
	if err != nil {
		if errors.Is(err, ledger.ErrSubmissionTimeout) {
			if !s.withdrawalLanded(ctx, escrow) {
				return nil, fmt.Errorf("withdraw outcome unknown for %s: %w", escrow, err)
			}
		} else {
			// goal_not_met, already_withdrawn and friends surface typed; the
			// mirror is untouched.
			return nil, err
		}
	}

	s.publish(model.LedgerEvent{
		Kind:      model.EventWithdrawal,
		Signature: sigString(sig),
		Escrow:    campaign.Escrow,
		Creator:   callerIdentity,
		Amount:    acct.TotalDonated,
	})

	if err := s.Campaigns.SetWithdrawn(campaign.Escrow); err != nil {
		return nil, apperr.NewConsistency("withdraw", campaign.Escrow, err)
	}

	s.Log.Info().Str("escrow", campaign.Escrow).Uint64("lamports", acct.TotalDonated).Msg("campaign withdrawn")
	return &TransactionResult{Signature: sigString(sig), Lamports: acct.TotalDonated}, nil
}

func (s *Coordinator) withdrawalLanded(ctx context.Context, escrow solana.PublicKey) bool {
	acct, err := s.Ledger.GetCampaign(ctx, escrow)
	return err == nil && acct.IsWithdrawn
}
