// internal/service/readmodel.go
package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/Rohan-Singla/solfund-backend/internal/lifecycle"
	"github.com/Rohan-Singla/solfund-backend/internal/model"
	"github.com/Rohan-Singla/solfund-backend/internal/pda"
)

// CampaignDetails merges mirror display fields with ledger truth and attaches
// the derived lifecycle state.
type CampaignDetails struct {
	model.Campaign
	State         string `json:"state"`
	DaysRemaining int    `json:"days_remaining"`
}

// GetCampaignDetails serves one campaign. Raised and Withdrawn are replaced
// with the canonical on-chain values when the ledger is reachable; otherwise
// the cached mirror values stand in and the divergence is logged.
func (s *Coordinator) GetCampaignDetails(ctx context.Context, id uuid.UUID) (*CampaignDetails, error) {
	campaign, err := s.Campaigns.GetByID(id)
	if err != nil {
		return nil, err
	}

	if escrow, err := pda.ParseIdentity(campaign.Escrow); err == nil {
		if acct, err := s.Ledger.GetCampaign(ctx, escrow); err == nil {
			campaign.Raised = acct.TotalDonated
			campaign.Withdrawn = acct.IsWithdrawn
		} else {
			s.Log.Warn().Err(err).Str("escrow", campaign.Escrow).Msg("serving cached totals, ledger unreachable")
		}
	}

	return s.details(campaign), nil
}

// ListCampaigns serves discovery from the mirror alone; per-row ledger reads
// would defeat the point of keeping an index. State is still derived fresh on
// every read from whatever fields the mirror holds.
func (s *Coordinator) ListCampaigns(ctx context.Context, page, pageSize int, category string) ([]*CampaignDetails, map[string]int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	campaigns, total, err := s.Campaigns.List(offset, pageSize, category)
	if err != nil {
		return nil, nil, err
	}

	details := make([]*CampaignDetails, len(campaigns))
	for i, c := range campaigns {
		details[i] = s.details(c)
	}

	totalPages := (total + pageSize - 1) / pageSize
	pagination := map[string]int{
		"page":        page,
		"page_size":   pageSize,
		"total_count": total,
		"total_pages": totalPages,
	}

	return details, pagination, nil
}

func (s *Coordinator) details(c *model.Campaign) *CampaignDetails {
	state := lifecycle.Classify(c.Goal, c.Raised, c.Deadline, c.Withdrawn, s.now())
	return &CampaignDetails{
		Campaign:      *c,
		State:         state.String(),
		DaysRemaining: state.DaysRemaining(c.Deadline, s.now()),
	}
}
