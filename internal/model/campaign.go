// internal/model/campaign.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// Campaign is the mirror record for one crowdfunding campaign. Goal and
// Raised are lamports; Raised is a cache of the ledger's total and may lag
// behind it after a partial failure. Lifecycle state is never stored here,
// it is derived on every read.
type Campaign struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	Escrow           string     `db:"escrow" json:"escrow"`
	Creator          string     `db:"creator" json:"creator"`
	Title            string     `db:"title" json:"title"`
	ShortDescription string     `db:"short_description" json:"short_description"`
	LongDescription  string     `db:"long_description" json:"long_description"`
	Category         string     `db:"category" json:"category"`
	CreatorName      string     `db:"creator_name" json:"creator_name"`
	CreatorBio       string     `db:"creator_bio" json:"creator_bio"`
	Receiver         string     `db:"receiver" json:"receiver"`
	Goal             uint64     `db:"goal" json:"goal"`
	Raised           uint64     `db:"raised" json:"raised"`
	Deadline         int64      `db:"deadline" json:"deadline"`
	Withdrawn        bool       `db:"withdrawn" json:"withdrawn"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}
