package repository

import "database/sql"

type EventJournalInterface interface {
	// Applied reports whether an event signature was already replayed into the
	// mirror, so the reconciler can skip redeliveries.
	Applied(signature string) (bool, error)

	// MarkApplied records a signature after a successful apply. Recording an
	// already-present signature is a no-op.
	MarkApplied(signature string) error
}

// EventJournal makes reconciliation idempotent under redelivery: the amqp
// feed is at-least-once, the journal turns replays into no-ops. Signatures
// are recorded only after the apply succeeds, so a failed apply stays
// eligible for redelivery.
type EventJournal struct {
	DB *sql.DB
}

func (j *EventJournal) Applied(signature string) (bool, error) {
	var applied bool
	query := `SELECT EXISTS (SELECT 1 FROM ledger_events WHERE signature = $1)`
	if err := j.DB.QueryRow(query, signature).Scan(&applied); err != nil {
		return false, err
	}
	return applied, nil
}

func (j *EventJournal) MarkApplied(signature string) error {
	query := `
		INSERT INTO ledger_events (signature, applied_at)
		VALUES ($1, NOW())
		ON CONFLICT (signature) DO NOTHING
	`
	_, err := j.DB.Exec(query, signature)
	return err
}

var _ EventJournalInterface = (*EventJournal)(nil)
