package awsiam

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/aws/smithy-go"

	"github.com/temirov/otpcop/internal/audit"
)

const (
	clientCreationErrorTemplate  = "unable to create IAM client: %w"
	reportNotReadyErrorTemplate  = "credential report not ready after %d attempts"
	unknownReportStateTemplate   = "unexpected credential report state %q"
	emptyReportStateMessage      = "credential report state missing from response"
	generateReportSourceConstant = "GenerateCredentialReport"
	getReportSourceConstant      = "GetCredentialReport"
	apiErrorCodeTemplateConstant = "%s: %s"
	requestFailureErrorTemplate  = "%s failed: %w"
	backoffMultiplierConstant    = 2
)

// CredentialReportClient is the subset of the IAM API used by the backend.
type CredentialReportClient interface {
	GenerateCredentialReport(executionContext context.Context, input *iam.GenerateCredentialReportInput, optionFunctions ...func(*iam.Options)) (*iam.GenerateCredentialReportOutput, error)
	GetCredentialReport(executionContext context.Context, input *iam.GetCredentialReportInput, optionFunctions ...func(*iam.Options)) (*iam.GetCredentialReportOutput, error)
}

// Sleeper waits for the duration or until the context ends.
type Sleeper func(executionContext context.Context, duration time.Duration) error

// ContextSleeper blocks on a timer and returns the context error when cancelled first.
func ContextSleeper(executionContext context.Context, duration time.Duration) error {
	timer := time.NewTimer(duration)
	defer timer.Stop()
	select {
	case <-executionContext.Done():
		return executionContext.Err()
	case <-timer.C:
		return nil
	}
}

// Backend flags IAM users without an active MFA device.
type Backend struct {
	settings       ClientSettings
	clientProvider ClientProvider
	pollSettings   PollSettings
	sleeper        Sleeper
}

// Name identifies the backend in reports.
func (backend *Backend) Name() string {
	return backendNameConstant
}

// Audit generates the credential report, waits for it and flags users with mfa_active=false.
func (backend *Backend) Audit(executionContext context.Context) audit.Outcome {
	client, clientError := backend.clientProvider(executionContext, backend.settings)
	if clientError != nil {
		return audit.FailureFromError(backendNameConstant, fmt.Errorf(clientCreationErrorTemplate, clientError))
	}

	if waitError := backend.waitForReport(executionContext, client); waitError != nil {
		return audit.FailureFromError(backendNameConstant, waitError)
	}

	reportOutput, reportError := client.GetCredentialReport(executionContext, &iam.GetCredentialReportInput{})
	if reportError != nil {
		return audit.FailureFromError(backendNameConstant, translateRequestError(getReportSourceConstant, reportError))
	}

	entries, decodeError := decodeCredentialReport(reportOutput.Content)
	if decodeError != nil {
		return audit.FailureFromError(backendNameConstant, audit.ProtocolError{Source: getReportSourceConstant, Cause: decodeError})
	}

	flagged := make([]audit.FlaggedAccount, 0)
	for _, entry := range entries {
		if entry.multiFactorActive {
			continue
		}
		account := audit.NewFlaggedAccount(entry.user)
		if len(entry.arn) > 0 {
			account = account.WithDetails(entry.arn)
		}
		flagged = append(flagged, account)
	}

	return audit.NewSuccessOutcome(backendNameConstant, flagged)
}

// waitForReport requests report generation until IAM reports it complete,
// sleeping with exponential backoff between attempts.
func (backend *Backend) waitForReport(executionContext context.Context, client CredentialReportClient) error {
	interval := backend.pollSettings.InitialInterval

	for attempt := 1; attempt <= backend.pollSettings.MaxAttempts; attempt++ {
		generateOutput, generateError := client.GenerateCredentialReport(executionContext, &iam.GenerateCredentialReportInput{})
		if generateError != nil {
			return translateRequestError(generateReportSourceConstant, generateError)
		}

		switch generateOutput.State {
		case types.ReportStateTypeComplete:
			return nil
		case types.ReportStateTypeStarted, types.ReportStateTypeInprogress:
		case "":
			return audit.ProtocolError{Source: generateReportSourceConstant, Cause: errors.New(emptyReportStateMessage)}
		default:
			return audit.ProtocolError{Source: generateReportSourceConstant, Cause: fmt.Errorf(unknownReportStateTemplate, generateOutput.State)}
		}

		if attempt == backend.pollSettings.MaxAttempts {
			break
		}
		if sleepError := backend.sleeper(executionContext, interval); sleepError != nil {
			return sleepError
		}
		interval = nextInterval(interval, backend.pollSettings.MaxInterval)
	}

	return fmt.Errorf(reportNotReadyErrorTemplate, backend.pollSettings.MaxAttempts)
}

func nextInterval(current time.Duration, maximum time.Duration) time.Duration {
	next := current * backoffMultiplierConstant
	if next > maximum || next <= 0 {
		return maximum
	}
	return next
}

func translateRequestError(source string, requestError error) error {
	var apiError smithy.APIError
	if errors.As(requestError, &apiError) {
		return audit.APIError{Message: fmt.Sprintf(apiErrorCodeTemplateConstant, apiError.ErrorCode(), apiError.ErrorMessage())}
	}
	return fmt.Errorf(requestFailureErrorTemplate, source, requestError)
}
