package slack

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/temirov/otpcop/internal/audit"
)

const (
	usersListMethodConstant         = "users.list"
	usersListPathTemplateConstant   = "%s/" + usersListMethodConstant
	tokenQueryParameterConstant     = "token"
	authorizationHeaderNameConstant = "Authorization"
	authorizationHeaderTemplate     = "Bearer %s"
	requestCreationErrorTemplate    = "unable to create users.list request: %w"
	requestExecutionErrorTemplate   = "users.list request failed: %w"
	ownerAdminDetailsConstant       = "Owner/Admin"
	ownerDetailsConstant            = "Owner"
	adminDetailsConstant            = "Admin"
)

var errUnnamedMember = errors.New("member without a name")

// HTTPClient executes HTTP requests against the Slack Web API.
type HTTPClient interface {
	Do(request *http.Request) (*http.Response, error)
}

// Backend audits a single Slack workspace.
type Backend struct {
	token      string
	endpoint   string
	httpClient HTTPClient
}

type userListResponse struct {
	OK      bool     `json:"ok"`
	Error   string   `json:"error"`
	Members []member `json:"members"`
}

type member struct {
	Name    string        `json:"name"`
	Deleted bool          `json:"deleted"`
	IsBot   *bool         `json:"is_bot"`
	Has2FA  *bool         `json:"has_2fa"`
	Profile memberProfile `json:"profile"`
	IsOwner *bool         `json:"is_owner"`
	IsAdmin *bool         `json:"is_admin"`
}

type memberProfile struct {
	Email *string `json:"email"`
}

// Name identifies the backend in reports.
func (backend *Backend) Name() string {
	return backendNameConstant
}

// Audit lists workspace members and flags active humans without two-factor authentication.
func (backend *Backend) Audit(executionContext context.Context) audit.Outcome {
	members, listError := backend.listMembers(executionContext)
	if listError != nil {
		return audit.FailureFromError(backendNameConstant, listError)
	}

	flaggedAccounts := make([]audit.FlaggedAccount, 0, len(members))
	for _, candidate := range members {
		if !requiresTwoFactor(candidate) {
			continue
		}
		if len(strings.TrimSpace(candidate.Name)) == 0 {
			return audit.FailureFromError(backendNameConstant, audit.ProtocolError{Source: usersListMethodConstant, Cause: errUnnamedMember})
		}
		flaggedAccounts = append(flaggedAccounts, flaggedAccountFor(candidate))
	}

	return audit.NewSuccessOutcome(backendNameConstant, flaggedAccounts)
}

func (backend *Backend) listMembers(executionContext context.Context) ([]member, error) {
	requestURL, parseError := url.Parse(fmt.Sprintf(usersListPathTemplateConstant, backend.endpoint))
	if parseError != nil {
		return nil, fmt.Errorf(requestCreationErrorTemplate, parseError)
	}
	query := requestURL.Query()
	query.Set(tokenQueryParameterConstant, backend.token)
	requestURL.RawQuery = query.Encode()

	request, requestError := http.NewRequestWithContext(executionContext, http.MethodGet, requestURL.String(), nil)
	if requestError != nil {
		return nil, fmt.Errorf(requestCreationErrorTemplate, requestError)
	}
	request.Header.Set(authorizationHeaderNameConstant, fmt.Sprintf(authorizationHeaderTemplate, backend.token))

	response, responseError := backend.httpClient.Do(request)
	if responseError != nil {
		return nil, fmt.Errorf(requestExecutionErrorTemplate, responseError)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, response.Body)
		return nil, audit.ProtocolError{Source: usersListMethodConstant, StatusCode: response.StatusCode}
	}

	var payload userListResponse
	if decodeError := json.NewDecoder(response.Body).Decode(&payload); decodeError != nil {
		return nil, audit.ProtocolError{Source: usersListMethodConstant, Cause: decodeError}
	}

	if !payload.OK {
		return nil, audit.APIError{Message: payload.Error}
	}

	return payload.Members, nil
}

func requiresTwoFactor(candidate member) bool {
	if candidate.Deleted || flagValue(candidate.IsBot) {
		return false
	}
	return !flagValue(candidate.Has2FA)
}

func flaggedAccountFor(candidate member) audit.FlaggedAccount {
	account := audit.NewFlaggedAccount(strings.TrimSpace(candidate.Name))
	if candidate.Profile.Email != nil && len(*candidate.Profile.Email) > 0 {
		account = account.WithEmail(*candidate.Profile.Email)
	}
	if details, annotated := roleAnnotation(flagValue(candidate.IsOwner), flagValue(candidate.IsAdmin)); annotated {
		account = account.WithDetails(details)
	}
	return account
}

func roleAnnotation(isOwner bool, isAdmin bool) (string, bool) {
	switch {
	case isOwner && isAdmin:
		return ownerAdminDetailsConstant, true
	case isOwner:
		return ownerDetailsConstant, true
	case isAdmin:
		return adminDetailsConstant, true
	default:
		return "", false
	}
}

func flagValue(value *bool) bool {
	return value != nil && *value
}
