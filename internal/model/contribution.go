// internal/model/contribution.go
package model

import "time"

// Contribution mirrors one contributor's record on a campaign. Address is the
// derived per-(campaign, contributor) account, so there is at most one row per
// pair; a repeat contribution accumulates into the same row. Rows are never
// deleted: a refund marks the record consumed instead.
type Contribution struct {
	Address     string     `db:"address" json:"address"`
	Escrow      string     `db:"escrow" json:"escrow"`
	Contributor string     `db:"contributor" json:"contributor"`
	Amount      uint64     `db:"amount" json:"amount"`
	Refunded    bool       `db:"refunded" json:"refunded"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}
