package report

import (
	"errors"

	"github.com/temirov/otpcop/internal/audit"
)

// Process exit statuses.
const (
	ExitStatusClean         = 0
	ExitStatusConfiguration = 1
	ExitStatusFindings      = 2
)

// ErrAuditFindings signals that at least one backend failed or flagged an account.
var ErrAuditFindings = errors.New("audit reported failures or accounts without two-factor authentication")

// Evaluate returns ErrAuditFindings when the outcomes are alarming.
func Evaluate(outcomes []audit.Outcome) error {
	if audit.Alarming(outcomes) {
		return ErrAuditFindings
	}
	return nil
}

// ExitStatus maps a command error to the process exit status.
func ExitStatus(commandError error) int {
	switch {
	case commandError == nil:
		return ExitStatusClean
	case errors.Is(commandError, ErrAuditFindings):
		return ExitStatusFindings
	default:
		return ExitStatusConfiguration
	}
}
