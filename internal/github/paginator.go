package github

import (
	"context"
	"errors"
	"strings"

	"github.com/temirov/otpcop/internal/audit"
)

var errMemberWithoutLogin = errors.New("member without a login")

// memberSource exposes the API calls the paginator depends on.
type memberSource interface {
	ListMembersPage(executionContext context.Context, pageURL string) ([]organizationMember, string, error)
	GetProfile(executionContext context.Context, login string) (userProfile, error)
}

// memberPredicate decides whether an enriched member is flagged.
type memberPredicate func(member organizationMember, profile userProfile) (audit.FlaggedAccount, bool)

// MemberPaginator walks the members listing page by page until the server
// stops advertising a next page. Any failure discards the accounts collected
// so far; the backend reports either the complete list or nothing.
type MemberPaginator struct {
	source    memberSource
	predicate memberPredicate
}

func newMemberPaginator(source memberSource, predicate memberPredicate) *MemberPaginator {
	return &MemberPaginator{source: source, predicate: predicate}
}

// Collect follows the cursor chain starting at firstPageURL.
func (paginator *MemberPaginator) Collect(executionContext context.Context, firstPageURL string) ([]audit.FlaggedAccount, error) {
	var accumulated []audit.FlaggedAccount
	cursor := firstPageURL

	for len(cursor) > 0 {
		if contextError := executionContext.Err(); contextError != nil {
			return nil, contextError
		}

		members, nextCursor, pageError := paginator.source.ListMembersPage(executionContext, cursor)
		if pageError != nil {
			return nil, pageError
		}

		for _, member := range members {
			if len(strings.TrimSpace(member.Login)) == 0 {
				return nil, audit.ProtocolError{Source: cursor, Cause: errMemberWithoutLogin}
			}
			profile, profileError := paginator.source.GetProfile(executionContext, member.Login)
			if profileError != nil {
				return nil, profileError
			}
			if account, flagged := paginator.predicate(member, profile); flagged {
				accumulated = append(accumulated, account)
			}
		}

		cursor = nextCursor
	}

	return accumulated, nil
}
