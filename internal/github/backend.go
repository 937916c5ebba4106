package github

import (
	"context"
	"strings"

	"github.com/temirov/otpcop/internal/audit"
)

const missingDisplayNameDetailsConstant = "missing display name"

// Backend audits the members of one GitHub organization.
type Backend struct {
	organization string
	nameCheck    bool
	optionError  error
	client       *apiClient
}

// Name identifies the backend in reports.
func (backend *Backend) Name() string {
	return backendNameConstant
}

// Audit flags organization members lacking 2FA, or lacking a display name in name-check mode.
func (backend *Backend) Audit(executionContext context.Context) audit.Outcome {
	if backend.optionError != nil {
		return audit.FailureFromError(backendNameConstant, backend.optionError)
	}

	predicate := twoFactorDisabledPredicate
	if backend.nameCheck {
		predicate = missingDisplayNamePredicate
	}

	paginator := newMemberPaginator(backend.client, predicate)
	accounts, collectError := paginator.Collect(executionContext, backend.client.membersURL(backend.organization, backend.nameCheck))
	if collectError != nil {
		return audit.FailureFromError(backendNameConstant, collectError)
	}

	return audit.NewSuccessOutcome(backendNameConstant, accounts)
}

// twoFactorDisabledPredicate flags every listed member; the listing is already filtered server-side.
func twoFactorDisabledPredicate(member organizationMember, profile userProfile) (audit.FlaggedAccount, bool) {
	return enrichedAccount(member, profile), true
}

func missingDisplayNamePredicate(member organizationMember, profile userProfile) (audit.FlaggedAccount, bool) {
	if profile.Name != nil && len(strings.TrimSpace(*profile.Name)) > 0 {
		return audit.FlaggedAccount{}, false
	}
	return enrichedAccount(member, profile).WithDetails(missingDisplayNameDetailsConstant), true
}

func enrichedAccount(member organizationMember, profile userProfile) audit.FlaggedAccount {
	account := audit.NewFlaggedAccount(member.Login)
	if profile.Email != nil && len(strings.TrimSpace(*profile.Email)) > 0 {
		account = account.WithEmail(strings.TrimSpace(*profile.Email))
	}
	return account
}
