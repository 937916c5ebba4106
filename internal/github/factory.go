package github

import (
	"net/http"
	"strings"

	"github.com/temirov/otpcop/internal/audit"
	"github.com/temirov/otpcop/internal/utils/flags"
)

// Option names recognized by the GitHub factory.
const (
	OrganizationOptionName = "github-org"
	UsernameOptionName     = "github-username"
	PasswordOptionName     = "github-password"
	EndpointOptionName     = "github-endpoint"
	NameCheckOptionName    = "github-name-check"
)

const (
	backendNameConstant             = "GitHub"
	defaultEndpointConstant         = "https://api.github.com"
	organizationOptionUsageConstant = "GitHub organization to audit"
	usernameOptionUsageConstant     = "GitHub username used for basic authentication"
	passwordOptionUsageConstant     = "GitHub password or personal access token"
	endpointOptionUsageConstant     = "GitHub API root URL (GitHub Enterprise installations)"
	nameCheckOptionUsageConstant    = "Flag organization members without a display name instead of members without 2FA"
)

// Factory builds GitHub backends from option values.
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
		{Name: OrganizationOptionName, Usage: organizationOptionUsageConstant, Required: true},
		{Name: UsernameOptionName, Usage: usernameOptionUsageConstant, Required: true},
		{Name: PasswordOptionName, Usage: passwordOptionUsageConstant, Required: true},
		{Name: EndpointOptionName, Usage: endpointOptionUsageConstant},
		{Name: NameCheckOptionName, Usage: nameCheckOptionUsageConstant, Boolean: true},
	}
}

// Construct returns a ready backend when the organization and credentials are configured.
func (factory Factory) Construct(options audit.OptionValues) audit.ConstructionResult {
	result, requiredValues := audit.RequireOptions(options, OrganizationOptionName, UsernameOptionName, PasswordOptionName)
	if result != nil {
		return *result
	}

	httpClient := factory.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	nameCheck, nameCheckError := parseNameCheck(options)

	client := &apiClient{
		endpoint:   strings.TrimRight(options.LookupWithDefault(EndpointOptionName, defaultEndpointConstant), "/"),
		username:   requiredValues[UsernameOptionName],
		password:   requiredValues[PasswordOptionName],
		httpClient: httpClient,
	}

	return audit.Ready(&Backend{
		organization: requiredValues[OrganizationOptionName],
		nameCheck:    nameCheck,
		optionError:  nameCheckError,
		client:       client,
	})
}

// parseNameCheck accepts the same yes/no literals as the command line toggle.
// An absent value disables name-check mode.
func parseNameCheck(options audit.OptionValues) (bool, error) {
	rawValue, found := options.Lookup(NameCheckOptionName)
	if !found {
		return false, nil
	}
	return flags.ParseToggle(NameCheckOptionName, rawValue)
}
