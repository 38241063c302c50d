// internal/ledger/rejection.go
package ledger

import (
	"fmt"
	"strings"

	"github.com/Rohan-Singla/solfund-backend/internal/apperr"
)

// Anchor custom error codes emitted by the crowdfunding program.
const (
	codeDeadlinePassed      = 6000
	codeCampaignNotFinished = 6001
	codeGoalNotMet          = 6002
	codeAlreadyWithdrawn    = 6003
	codeNoContribution      = 6004
	codeNumericalOverflow   = 6005
)

var rejectionByCode = map[int]apperr.RejectionCode{
	codeDeadlinePassed:      apperr.CodeDeadlinePassed,
	codeCampaignNotFinished: apperr.CodeCampaignNotFinished,
	codeGoalNotMet:          apperr.CodeGoalNotMet,
	codeAlreadyWithdrawn:    apperr.CodeAlreadyWithdrawn,
	codeNoContribution:      apperr.CodeNoContribution,
	codeNumericalOverflow:   apperr.CodeNumericalOverflow,
}

// mapSubmissionError turns RPC transaction errors into typed rejections. The
// RPC surface reports program errors as "custom program error: 0x<code>"
// inside the instruction error, and account-initialization collisions as
// "already in use".
func mapSubmissionError(err error) error {
	msg := err.Error()

	for code, rejection := range rejectionByCode {
		if strings.Contains(msg, fmt.Sprintf("custom program error: %#x", code)) ||
			strings.Contains(msg, fmt.Sprintf(`"Custom":%d`, code)) {
			return apperr.NewLedgerRejection(rejection, msg)
		}
	}

	if strings.Contains(msg, "already in use") {
		return apperr.NewLedgerRejection(apperr.CodeAccountInUse, msg)
	}

	return fmt.Errorf("ledger submission failed: %w", err)
}
