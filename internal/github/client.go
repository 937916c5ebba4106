package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/temirov/otpcop/internal/audit"
)

const (
	userAgentHeaderValueConstant   = "otpcop"
	acceptHeaderValueConstant      = "application/vnd.github+json"
	acceptHeaderNameConstant       = "Accept"
	userAgentHeaderNameConstant    = "User-Agent"
	linkHeaderNameConstant         = "Link"
	membersPathTemplateConstant    = "%s/orgs/%s/members"
	userPathTemplateConstant       = "%s/users/%s"
	filterQueryParameterConstant   = "filter"
	perPageQueryParameterConstant  = "per_page"
	perPageValueConstant           = "100"
	twoFactorDisabledFilter        = "2fa_disabled"
	allMembersFilter               = "all"
	requestCreationErrorTemplate   = "unable to create request for %s: %w"
	requestExecutionErrorTemplate  = "request to %s failed: %w"
	responseReadErrorTemplate      = "unable to read response from %s: %w"
	linkRelationNextConstant       = "next"
	linkSegmentSeparatorConstant   = ","
	linkParameterSeparatorConstant = ";"
	linkRelationParameterConstant  = "rel"
)

// HTTPClient executes HTTP requests against the GitHub REST API.
type HTTPClient interface {
	Do(request *http.Request) (*http.Response, error)
}

type organizationMember struct {
	Login string `json:"login"`
}

type userProfile struct {
	Login string  `json:"login"`
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

type errorResponse struct {
	Message          string `json:"message"`
	DocumentationURL string `json:"documentation_url"`
}

type apiClient struct {
	endpoint   string
	username   string
	password   string
	httpClient HTTPClient
}

func (client *apiClient) membersURL(organization string, nameCheck bool) string {
	filterValue := twoFactorDisabledFilter
	if nameCheck {
		filterValue = allMembersFilter
	}

	query := url.Values{}
	query.Set(filterQueryParameterConstant, filterValue)
	query.Set(perPageQueryParameterConstant, perPageValueConstant)

	return fmt.Sprintf(membersPathTemplateConstant, client.endpoint, url.PathEscape(organization)) + "?" + query.Encode()
}

// ListMembersPage fetches one page of organization members and returns the next page URL, if any.
func (client *apiClient) ListMembersPage(executionContext context.Context, pageURL string) ([]organizationMember, string, error) {
	var members []organizationMember
	responseHeader, requestError := client.getJSON(executionContext, pageURL, &members)
	if requestError != nil {
		return nil, "", requestError
	}
	nextPageURL, _ := nextLink(responseHeader.Values(linkHeaderNameConstant))
	return members, nextPageURL, nil
}

// GetProfile fetches the public profile of a user.
func (client *apiClient) GetProfile(executionContext context.Context, login string) (userProfile, error) {
	var profile userProfile
	profileURL := fmt.Sprintf(userPathTemplateConstant, client.endpoint, url.PathEscape(login))
	if _, requestError := client.getJSON(executionContext, profileURL, &profile); requestError != nil {
		return userProfile{}, requestError
	}
	return profile, nil
}

func (client *apiClient) getJSON(executionContext context.Context, requestURL string, target any) (http.Header, error) {
	request, requestError := http.NewRequestWithContext(executionContext, http.MethodGet, requestURL, nil)
	if requestError != nil {
		return nil, fmt.Errorf(requestCreationErrorTemplate, requestURL, requestError)
	}
	request.SetBasicAuth(client.username, client.password)
	request.Header.Set(userAgentHeaderNameConstant, userAgentHeaderValueConstant)
	request.Header.Set(acceptHeaderNameConstant, acceptHeaderValueConstant)

	response, responseError := client.httpClient.Do(request)
	if responseError != nil {
		return nil, fmt.Errorf(requestExecutionErrorTemplate, requestURL, responseError)
	}
	defer response.Body.Close()

	body, readError := io.ReadAll(response.Body)
	if readError != nil {
		return nil, fmt.Errorf(responseReadErrorTemplate, requestURL, readError)
	}

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return nil, decodeErrorResponse(requestURL, response.StatusCode, body)
	}

	if decodeError := json.NewDecoder(bytes.NewReader(body)).Decode(target); decodeError != nil {
		return nil, audit.ProtocolError{Source: requestURL, Cause: decodeError}
	}

	return response.Header, nil
}

func decodeErrorResponse(requestURL string, statusCode int, body []byte) error {
	var payload errorResponse
	if decodeError := json.Unmarshal(body, &payload); decodeError == nil && len(strings.TrimSpace(payload.Message)) > 0 {
		return audit.APIError{Message: payload.Message, DocumentationURL: payload.DocumentationURL}
	}
	return audit.ProtocolError{Source: requestURL, StatusCode: statusCode}
}

// nextLink extracts the target of the rel="next" relation from Link header values.
func nextLink(headerValues []string) (string, bool) {
	for _, headerValue := range headerValues {
		for _, segment := range strings.Split(headerValue, linkSegmentSeparatorConstant) {
			parts := strings.Split(segment, linkParameterSeparatorConstant)
			target := strings.TrimSpace(parts[0])
			if !strings.HasPrefix(target, "<") || !strings.HasSuffix(target, ">") {
				continue
			}
			for _, parameter := range parts[1:] {
				if isNextRelation(parameter) {
					return strings.TrimSuffix(strings.TrimPrefix(target, "<"), ">"), true
				}
			}
		}
	}
	return "", false
}

func isNextRelation(parameter string) bool {
	key, value, found := strings.Cut(strings.TrimSpace(parameter), "=")
	if !found || !strings.EqualFold(strings.TrimSpace(key), linkRelationParameterConstant) {
		return false
	}
	for _, relation := range strings.Fields(strings.Trim(strings.TrimSpace(value), `"`)) {
		if strings.EqualFold(relation, linkRelationNextConstant) {
			return true
		}
	}
	return false
}
