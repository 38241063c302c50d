// internal/apperr/errors.go
package apperr

import "fmt"

// ValidationError rejects malformed input before any ledger call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func NewValidation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// InvalidIdentityError marks a wallet address that does not parse.
type InvalidIdentityError struct {
	Value string
}

func (e *InvalidIdentityError) Error() string {
	return fmt.Sprintf("invalid identity %q", e.Value)
}

func NewInvalidIdentity(value string) error {
	return &InvalidIdentityError{Value: value}
}

// InvalidStateError rejects an action attempted outside its permitted
// lifecycle state.
type InvalidStateError struct {
	Action string
	State  string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s a %s campaign", e.Action, e.State)
}

func NewInvalidState(action, state string) error {
	return &InvalidStateError{Action: action, State: state}
}

// AuthorizationError rejects a caller whose identity does not match the
// identity required for the action.
type AuthorizationError struct {
	Caller string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("caller %s is not authorized for this action", e.Caller)
}

func NewAuthorization(caller string) error {
	return &AuthorizationError{Caller: caller}
}

// RejectionCode identifies a typed rejection returned by the ledger program.
type RejectionCode string

const (
	CodeDeadlinePassed      RejectionCode = "deadline_passed"
	CodeCampaignNotFinished RejectionCode = "campaign_not_finished"
	CodeGoalNotMet          RejectionCode = "goal_not_met"
	CodeAlreadyWithdrawn    RejectionCode = "already_withdrawn"
	CodeNoContribution      RejectionCode = "no_contribution"
	CodeNumericalOverflow   RejectionCode = "numerical_overflow"

	// CodeAccountInUse is the collision a second createCampaign from the same
	// creator hits: the escrow address is deterministic, so the ledger refuses
	// to initialize it twice.
	CodeAccountInUse RejectionCode = "account_in_use"
)

// LedgerRejection carries a ledger program error code to the caller verbatim.
// Rejections are never retried by the coordinator.
type LedgerRejection struct {
	Code RejectionCode
	Msg  string
}

func (e *LedgerRejection) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("ledger rejected transaction: %s", e.Code)
	}
	return fmt.Sprintf("ledger rejected transaction: %s (%s)", e.Code, e.Msg)
}

func NewLedgerRejection(code RejectionCode, msg string) error {
	return &LedgerRejection{Code: code, Msg: msg}
}

// ConsistencyError reports a mirror write that failed after the ledger write
// succeeded. Ledger state is authoritative and unaffected; callers must know
// that funds did move even though the off-chain index is now behind.
type ConsistencyError struct {
	Op     string
	Escrow string
	Cause  error
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("%s confirmed on ledger for %s but mirror update failed: %v", e.Op, e.Escrow, e.Cause)
}

func (e *ConsistencyError) Unwrap() error { return e.Cause }

func NewConsistency(op, escrow string, cause error) error {
	return &ConsistencyError{Op: op, Escrow: escrow, Cause: cause}
}

// NotFoundError is returned when a campaign or contribution record does not
// exist in the mirror.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func NewNotFound(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}
