package repository

import (
	"database/sql"

	"github.com/Rohan-Singla/solfund-backend/internal/model"
)

type ContributionRepositoryInterface interface {
	// Upsert is keyed by the derived contribution address, so a repeat
	// contribution by the same contributor accumulates into the same row.
	Upsert(c *model.Contribution) error
	GetByAddress(address string) (*model.Contribution, error)
	ListByCampaign(escrow string) ([]*model.Contribution, error)
	MarkRefunded(address string) error
}

type ContributionRepository struct {
	DB *sql.DB
}

// Upsert writes the contributor's cumulative amount for a campaign. Conflicts
// overwrite rather than add, so callers pass totals, not deltas.
func (r *ContributionRepository) Upsert(c *model.Contribution) error {
	query := `
		INSERT INTO contributions (address, escrow, contributor, amount, refunded, created_at)
		VALUES ($1, $2, $3, $4, FALSE, NOW())
		ON CONFLICT (address) DO UPDATE
		SET amount = EXCLUDED.amount,
		    updated_at = NOW()
	`
	_, err := r.DB.Exec(query, c.Address, c.Escrow, c.Contributor, c.Amount)
	return err
}

func (r *ContributionRepository) GetByAddress(address string) (*model.Contribution, error) {
	query := `
		SELECT address, escrow, contributor, amount, refunded, created_at, updated_at
		FROM contributions WHERE address = $1
	`
	var c model.Contribution
	err := r.DB.QueryRow(query, address).Scan(
		&c.Address, &c.Escrow, &c.Contributor, &c.Amount, &c.Refunded,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *ContributionRepository) ListByCampaign(escrow string) ([]*model.Contribution, error) {
	query := `
		SELECT address, escrow, contributor, amount, refunded, created_at, updated_at
		FROM contributions WHERE escrow = $1 ORDER BY created_at
	`
	rows, err := r.DB.Query(query, escrow)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contributions := []*model.Contribution{}
	for rows.Next() {
		c := &model.Contribution{}
		if err := rows.Scan(
			&c.Address, &c.Escrow, &c.Contributor, &c.Amount, &c.Refunded,
			&c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, err
		}
		contributions = append(contributions, c)
	}
	return contributions, rows.Err()
}

// MarkRefunded records that the ledger consumed the contribution. The row is
// kept, matching the ledger where the account survives with a zero amount.
func (r *ContributionRepository) MarkRefunded(address string) error {
	query := `UPDATE contributions SET refunded = TRUE, updated_at = NOW() WHERE address = $1`
	_, err := r.DB.Exec(query, address)
	return err
}

var _ ContributionRepositoryInterface = (*ContributionRepository)(nil)
