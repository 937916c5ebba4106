package github

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/otpcop/internal/audit"
)

type stubPage struct {
	members []organizationMember
	next    string
	err     error
}

type stubMemberSource struct {
	pages          map[string]stubPage
	profiles       map[string]userProfile
	profileError   error
	requestedPages []string
	profileLogins  []string
}

func (source *stubMemberSource) ListMembersPage(executionContext context.Context, pageURL string) ([]organizationMember, string, error) {
	source.requestedPages = append(source.requestedPages, pageURL)
	page, exists := source.pages[pageURL]
	if !exists {
		return nil, "", fmt.Errorf("unexpected page %s", pageURL)
	}
	if page.err != nil {
		return nil, "", page.err
	}
	return page.members, page.next, nil
}

func (source *stubMemberSource) GetProfile(executionContext context.Context, login string) (userProfile, error) {
	source.profileLogins = append(source.profileLogins, login)
	if source.profileError != nil {
		return userProfile{}, source.profileError
	}
	return source.profiles[login], nil
}

func accountNames(accounts []audit.FlaggedAccount) []string {
	names := make([]string, 0, len(accounts))
	for _, account := range accounts {
		names = append(names, account.Name())
	}
	return names
}

func threePageSource(secondPageError error) *stubMemberSource {
	return &stubMemberSource{
		pages: map[string]stubPage{
			"page-1": {members: []organizationMember{{Login: "ann"}, {Login: "ben"}}, next: "page-2"},
			"page-2": {members: []organizationMember{{Login: "cid"}}, next: "page-3", err: secondPageError},
			"page-3": {members: []organizationMember{{Login: "dee"}, {Login: "eve"}}},
		},
		profiles: map[string]userProfile{},
	}
}

func TestMemberPaginatorFollowsChain(testInstance *testing.T) {
	source := threePageSource(nil)

	accounts, collectError := newMemberPaginator(source, twoFactorDisabledPredicate).Collect(context.Background(), "page-1")

	require.NoError(testInstance, collectError)
	require.Equal(testInstance, []string{"page-1", "page-2", "page-3"}, source.requestedPages)
	require.Equal(testInstance, []string{"ann", "ben", "cid", "dee", "eve"}, accountNames(accounts))
}

func TestMemberPaginatorDiscardsPartialResults(testInstance *testing.T) {
	pageError := audit.APIError{Message: "Server Error"}
	source := threePageSource(pageError)

	accounts, collectError := newMemberPaginator(source, twoFactorDisabledPredicate).Collect(context.Background(), "page-1")

	require.Nil(testInstance, accounts)
	require.True(testInstance, errors.Is(collectError, pageError))
	require.Equal(testInstance, []string{"page-1", "page-2"}, source.requestedPages)
}

func TestMemberPaginatorFailsOnProfileLookupError(testInstance *testing.T) {
	source := threePageSource(nil)
	source.profileError = errors.New("profile lookup failed")

	accounts, collectError := newMemberPaginator(source, missingDisplayNamePredicate).Collect(context.Background(), "page-1")

	require.Nil(testInstance, accounts)
	require.EqualError(testInstance, collectError, "profile lookup failed")
}

func TestMemberPaginatorRejectsMembersWithoutLogin(testInstance *testing.T) {
	source := threePageSource(nil)
	source.pages["page-2"] = stubPage{members: []organizationMember{{Login: "  "}}, next: "page-3"}

	accounts, collectError := newMemberPaginator(source, twoFactorDisabledPredicate).Collect(context.Background(), "page-1")

	require.Nil(testInstance, accounts)
	require.EqualError(testInstance, collectError, "malformed response from page-2: member without a login")
	require.Equal(testInstance, []string{"ann", "ben"}, source.profileLogins)
	require.Equal(testInstance, []string{"page-1", "page-2"}, source.requestedPages)
}

func TestMemberPaginatorStopsOnCancelledContext(testInstance *testing.T) {
	source := threePageSource(nil)
	cancelledContext, cancel := context.WithCancel(context.Background())
	cancel()

	accounts, collectError := newMemberPaginator(source, twoFactorDisabledPredicate).Collect(cancelledContext, "page-1")

	require.Nil(testInstance, accounts)
	require.ErrorIs(testInstance, collectError, context.Canceled)
	require.Empty(testInstance, source.requestedPages)
}

func TestMemberPaginatorWithoutCursor(testInstance *testing.T) {
	source := threePageSource(nil)

	accounts, collectError := newMemberPaginator(source, twoFactorDisabledPredicate).Collect(context.Background(), "")

	require.NoError(testInstance, collectError)
	require.Empty(testInstance, accounts)
	require.Empty(testInstance, source.requestedPages)
}

func TestMissingDisplayNamePredicate(testInstance *testing.T) {
	displayName := "Ann Example"
	blankName := "  "
	email := "ann@example.com"

	_, flaggedNamed := missingDisplayNamePredicate(organizationMember{Login: "ann"}, userProfile{Name: &displayName})
	require.False(testInstance, flaggedNamed)

	account, flaggedBlank := missingDisplayNamePredicate(organizationMember{Login: "ann"}, userProfile{Name: &blankName, Email: &email})
	require.True(testInstance, flaggedBlank)
	details, _ := account.Details()
	require.Equal(testInstance, "missing display name", details)
	accountEmail, _ := account.Email()
	require.Equal(testInstance, email, accountEmail)

	_, flaggedNil := missingDisplayNamePredicate(organizationMember{Login: "ann"}, userProfile{})
	require.True(testInstance, flaggedNil)
}
