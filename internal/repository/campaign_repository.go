package repository

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/Rohan-Singla/solfund-backend/internal/apperr"
	"github.com/Rohan-Singla/solfund-backend/internal/model"
)

type CampaignRepositoryInterface interface {
	Upsert(c *model.Campaign) error
	GetByID(id uuid.UUID) (*model.Campaign, error)
	GetByEscrow(escrow string) (*model.Campaign, error)
	ExistsForCreator(creator string) (bool, error)
	List(offset, limit int, category string) ([]*model.Campaign, int, error)

	// AddToRaised must be a store-level atomic increment. The cached total is
	// shared by concurrent contributors; a read-modify-write here would
	// silently under-count.
	AddToRaised(escrow string, delta uint64) error

	// SetRaised overwrites the cached total with the ledger's canonical value.
	// Used by reconciliation, never by the contribute path.
	SetRaised(escrow string, total uint64) error

	SetWithdrawn(escrow string) error
}

type CampaignRepository struct {
	DB *sql.DB
}

const campaignColumns = `id, escrow, creator, title, short_description, long_description,
	category, creator_name, creator_bio, receiver, goal, raised, withdrawn, deadline,
	created_at, updated_at`

// Upsert inserts the mirror record, keyed by escrow address so the write is
// safely repeatable. A replay from the ledger event feed carries no display
// fields, so on conflict only ledger-sourced columns are overwritten.
func (r *CampaignRepository) Upsert(c *model.Campaign) error {
	query := `
		INSERT INTO campaigns (id, escrow, creator, title, short_description, long_description,
			category, creator_name, creator_bio, receiver, goal, raised, withdrawn, deadline, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW())
		ON CONFLICT (escrow) DO UPDATE
		SET goal = EXCLUDED.goal,
		    deadline = EXCLUDED.deadline,
		    withdrawn = EXCLUDED.withdrawn,
		    updated_at = NOW()
	`
	_, err := r.DB.Exec(query,
		c.ID, c.Escrow, c.Creator, c.Title, c.ShortDescription, c.LongDescription,
		c.Category, c.CreatorName, c.CreatorBio, c.Receiver, c.Goal, c.Raised,
		c.Withdrawn, c.Deadline,
	)
	return err
}

func (r *CampaignRepository) GetByID(id uuid.UUID) (*model.Campaign, error) {
	query := fmt.Sprintf(`SELECT %s FROM campaigns WHERE id = $1`, campaignColumns)
	return r.scanOne(r.DB.QueryRow(query, id), id.String())
}

func (r *CampaignRepository) GetByEscrow(escrow string) (*model.Campaign, error) {
	query := fmt.Sprintf(`SELECT %s FROM campaigns WHERE escrow = $1`, campaignColumns)
	return r.scanOne(r.DB.QueryRow(query, escrow), escrow)
}

func (r *CampaignRepository) scanOne(row *sql.Row, key string) (*model.Campaign, error) {
	var c model.Campaign
	err := row.Scan(
		&c.ID, &c.Escrow, &c.Creator, &c.Title, &c.ShortDescription, &c.LongDescription,
		&c.Category, &c.CreatorName, &c.CreatorBio, &c.Receiver, &c.Goal, &c.Raised,
		&c.Withdrawn, &c.Deadline, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperr.NewNotFound("campaign", key)
		}
		return nil, err
	}
	return &c, nil
}

// ExistsForCreator backs the duplicate-creation guard. It is a soft guard
// only: two near-simultaneous creates can both pass before either mirror
// write commits, and the ledger's deterministic escrow address is what
// actually rejects the second one.
func (r *CampaignRepository) ExistsForCreator(creator string) (bool, error) {
	var count int
	err := r.DB.QueryRow(`SELECT COUNT(*) FROM campaigns WHERE creator = $1`, creator).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *CampaignRepository) List(offset, limit int, category string) ([]*model.Campaign, int, error) {
	campaigns := []*model.Campaign{}
	query := fmt.Sprintf(`SELECT %s FROM campaigns WHERE 1=1`, campaignColumns)
	args := []interface{}{}
	argPos := 1

	if category != "" {
		query += fmt.Sprintf(" AND category=$%d", argPos)
		args = append(args, category)
		argPos++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	for rows.Next() {
		c := &model.Campaign{}
		if err := rows.Scan(
			&c.ID, &c.Escrow, &c.Creator, &c.Title, &c.ShortDescription, &c.LongDescription,
			&c.Category, &c.CreatorName, &c.CreatorBio, &c.Receiver, &c.Goal, &c.Raised,
			&c.Withdrawn, &c.Deadline, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		campaigns = append(campaigns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	countQuery := `SELECT COUNT(*) FROM campaigns WHERE 1=1`
	countArgs := []interface{}{}
	if category != "" {
		countQuery += " AND category=$1"
		countArgs = append(countArgs, category)
	}

	var total int
	if err := r.DB.QueryRow(countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	return campaigns, total, nil
}

func (r *CampaignRepository) AddToRaised(escrow string, delta uint64) error {
	// The increment happens inside the store so two contributions confirmed
	// close together both land; no client-side read-modify-write.
	query := `UPDATE campaigns SET raised = raised + $1, updated_at = NOW() WHERE escrow = $2`
	res, err := r.DB.Exec(query, delta, escrow)
	if err != nil {
		return err
	}
	return requireRow(res, escrow)
}

func (r *CampaignRepository) SetRaised(escrow string, total uint64) error {
	query := `UPDATE campaigns SET raised = $1, updated_at = NOW() WHERE escrow = $2`
	res, err := r.DB.Exec(query, total, escrow)
	if err != nil {
		return err
	}
	return requireRow(res, escrow)
}

func (r *CampaignRepository) SetWithdrawn(escrow string) error {
	query := `UPDATE campaigns SET withdrawn = TRUE, updated_at = NOW() WHERE escrow = $1`
	res, err := r.DB.Exec(query, escrow)
	if err != nil {
		return err
	}
	return requireRow(res, escrow)
}

func requireRow(res sql.Result, escrow string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NewNotFound("campaign", escrow)
	}
	return nil
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
