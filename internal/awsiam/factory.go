package awsiam

import (
	"context"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/iam"

	"github.com/temirov/otpcop/internal/audit"
)

// Option names recognized by the AWS factory.
const (
	AccessKeyIDOptionName = "aws-access-key-id"
	SecretKeyOptionName   = "aws-secret-key"
	RegionOptionName      = "aws-region"
	EndpointOptionName    = "aws-endpoint"
)

const (
	backendNameConstant            = "AWS"
	defaultRegionConstant          = "us-east-1"
	accessKeyIDOptionUsageConstant = "AWS access key ID"
	secretKeyOptionUsageConstant   = "AWS secret access key"
	regionOptionUsageConstant      = "AWS region used to reach the IAM endpoint"
	endpointOptionUsageConstant    = "Override the IAM endpoint URL"
)

// ClientProvider creates an IAM client for the resolved credentials.
type ClientProvider func(executionContext context.Context, settings ClientSettings) (CredentialReportClient, error)

// ClientSettings carries the values needed to reach IAM.
type ClientSettings struct {
	AccessKeyID string
	SecretKey   string
	Region      string
	Endpoint    string
}

// Factory builds AWS IAM backends from option values.
type Factory struct {
	ClientProvider ClientProvider
	PollSettings   PollSettings
	Sleeper        Sleeper
}

// Name identifies the backend in reports.
func (factory Factory) Name() string {
	return backendNameConstant
}

// Options lists the options understood by the factory.
func (factory Factory) Options() []audit.OptionDescriptor {
	return []audit.OptionDescriptor{
		{Name: AccessKeyIDOptionName, Usage: accessKeyIDOptionUsageConstant, Required: true},
		{Name: SecretKeyOptionName, Usage: secretKeyOptionUsageConstant, Required: true},
		{Name: RegionOptionName, Usage: regionOptionUsageConstant},
		{Name: EndpointOptionName, Usage: endpointOptionUsageConstant},
	}
}

// Construct returns a ready backend when both access key options are configured.
func (factory Factory) Construct(options audit.OptionValues) audit.ConstructionResult {
	result, requiredValues := audit.RequireOptions(options, AccessKeyIDOptionName, SecretKeyOptionName)
	if result != nil {
		return *result
	}

	clientProvider := factory.ClientProvider
	if clientProvider == nil {
		clientProvider = NewSDKClient
	}

	sleeper := factory.Sleeper
	if sleeper == nil {
		sleeper = ContextSleeper
	}

	return audit.Ready(&Backend{
		settings: ClientSettings{
			AccessKeyID: requiredValues[AccessKeyIDOptionName],
			SecretKey:   requiredValues[SecretKeyOptionName],
			Region:      options.LookupWithDefault(RegionOptionName, defaultRegionConstant),
			Endpoint:    strings.TrimRight(options.LookupWithDefault(EndpointOptionName, ""), "/"),
		},
		clientProvider: clientProvider,
		pollSettings:   factory.PollSettings.Sanitize(),
		sleeper:        sleeper,
	})
}

// NewSDKClient builds an aws-sdk-go-v2 IAM client bound to static credentials.
func NewSDKClient(executionContext context.Context, settings ClientSettings) (CredentialReportClient, error) {
	sdkConfiguration, loadError := config.LoadDefaultConfig(
		executionContext,
		config.WithRegion(settings.Region),
		config.WithCredentialsProvider(aws.NewCredentialsCache(
			credentials.NewStaticCredentialsProvider(settings.AccessKeyID, settings.SecretKey, ""),
		)),
		config.WithRetryMaxAttempts(1),
	)
	if loadError != nil {
		return nil, loadError
	}

	return iam.NewFromConfig(sdkConfiguration, func(options *iam.Options) {
		if len(settings.Endpoint) > 0 {
			options.BaseEndpoint = aws.String(settings.Endpoint)
		}
	}), nil
}

// PollSettings bounds how long the backend waits for a credential report.
type PollSettings struct {
	MaxAttempts     int           `mapstructure:"max_attempts"`
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
}

const (
	defaultPollMaxAttemptsConstant     = 10
	defaultPollInitialIntervalConstant = 500 * time.Millisecond
	defaultPollMaxIntervalConstant     = 8 * time.Second
)

// DefaultPollSettings returns the baseline credential report polling policy.
func DefaultPollSettings() PollSettings {
	return PollSettings{
		MaxAttempts:     defaultPollMaxAttemptsConstant,
		InitialInterval: defaultPollInitialIntervalConstant,
		MaxInterval:     defaultPollMaxIntervalConstant,
	}
}

// Sanitize replaces non-positive values with defaults.
func (settings PollSettings) Sanitize() PollSettings {
	defaults := DefaultPollSettings()
	sanitized := settings
	if sanitized.MaxAttempts <= 0 {
		sanitized.MaxAttempts = defaults.MaxAttempts
	}
	if sanitized.InitialInterval <= 0 {
		sanitized.InitialInterval = defaults.InitialInterval
	}
	if sanitized.MaxInterval <= 0 {
		sanitized.MaxInterval = defaults.MaxInterval
	}
	if sanitized.MaxInterval < sanitized.InitialInterval {
		sanitized.MaxInterval = sanitized.InitialInterval
	}
	return sanitized
}
