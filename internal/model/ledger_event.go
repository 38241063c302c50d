// internal/model/ledger_event.go
package model

// Event kinds emitted by the ledger program. These are the canonical feed the
// reconciliation worker replays to repair mirror drift.
const (
	EventCampaignCreated  = "campaign_created"
	EventContributionMade = "contribution_made"
	EventRefundIssued     = "refund_issued"
	EventWithdrawal       = "withdrawal"
)

// LedgerEvent is one confirmed ledger transaction, keyed by its signature.
// Amount is lamports and is zero for kinds that carry no amount.
type LedgerEvent struct {
	Kind        string `json:"kind"`
	Signature   string `json:"signature"`
	Escrow      string `json:"escrow"`
	Creator     string `json:"creator,omitempty"`
	Contributor string `json:"contributor,omitempty"`
	Amount      uint64 `json:"amount,omitempty"`
}
