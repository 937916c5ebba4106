package slack

import (
	"net/http"
	"strings"

	"github.com/temirov/otpcop/internal/audit"
)

// Option names recognized by the Slack factory.
const (
	TokenOptionName    = "slack-token"
	EndpointOptionName = "slack-endpoint"
)

const (
	backendNameConstant         = "Slack"
	defaultEndpointConstant     = "https://slack.com/api"
	tokenOptionUsageConstant    = "Slack API token (https://api.slack.com/web#authentication)"
	endpointOptionUsageConstant = "Slack Web API root URL"
)

// Factory builds Slack backends from option values.
type Factory struct {
	HTTPClient HTTPClient
}

// Name identifies the backend in reports.
func (factory Factory) Name() string {
	return backendNameConstant
}

// Options lists the options understood by the factory.
func (factory Factory) Options() []audit.OptionDescriptor {
	return []audit.OptionDescriptor{
		{Name: TokenOptionName, Usage: tokenOptionUsageConstant, Required: true},
		{Name: EndpointOptionName, Usage: endpointOptionUsageConstant},
	}
}

// Construct returns a ready backend when the token is configured.
func (factory Factory) Construct(options audit.OptionValues) audit.ConstructionResult {
	result, requiredValues := audit.RequireOptions(options, TokenOptionName)
	if result != nil {
		return *result
	}

	httpClient := factory.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return audit.Ready(&Backend{
		token:      requiredValues[TokenOptionName],
		endpoint:   strings.TrimRight(options.LookupWithDefault(EndpointOptionName, defaultEndpointConstant), "/"),
		httpClient: httpClient,
	})
}
