package audit

import (
	"errors"
	"fmt"
	"strings"
)

const (
	configurationErrorPrefixConstant      = "missing required options"
	configurationBackendTemplateConstant  = "%s (%s)"
	configurationBackendSeparatorConstant = "; "
	configurationOptionSeparatorConstant  = ", "
	configurationErrorTemplateConstant    = "%s: %s"
	apiErrorDocumentationTemplateConstant = "%s (%s)"
	apiErrorFallbackMessageConstant       = "remote service reported an error"
	protocolErrorStatusTemplateConstant   = "unexpected response status %d from %s"
	protocolErrorTemplateConstant         = "malformed response from %s: %v"
	protocolErrorWithoutCauseTemplate     = "malformed response from %s"
	internalFaultErrorTemplateConstant    = "internal fault: %v"
	optionFlagPrefixConstant              = "--"
	unknownProtocolErrorSourceConstant    = "remote service"
)

var (
	errNilBackend   = errors.New("backend is not initialized")
	errEmptyOutcome = errors.New("backend returned no outcome")
)

// MissingBackendOptions lists the absent required options of one backend.
type MissingBackendOptions struct {
	BackendName string
	OptionNames []string
}

// ConfigurationError reports partially configured backends. It is fatal and
// prevents any backend from running.
type ConfigurationError struct {
	Missing []MissingBackendOptions
}

// Error describes every backend that is missing required options.
func (configurationError ConfigurationError) Error() string {
	backendDescriptions := make([]string, 0, len(configurationError.Missing))
	for _, missing := range configurationError.Missing {
		flagNames := make([]string, 0, len(missing.OptionNames))
		for _, optionName := range missing.OptionNames {
			flagNames = append(flagNames, optionFlagPrefixConstant+optionName)
		}
		backendDescriptions = append(backendDescriptions, fmt.Sprintf(configurationBackendTemplateConstant, missing.BackendName, strings.Join(flagNames, configurationOptionSeparatorConstant)))
	}
	return fmt.Sprintf(configurationErrorTemplateConstant, configurationErrorPrefixConstant, strings.Join(backendDescriptions, configurationBackendSeparatorConstant))
}

// APIError is a well-formed error response returned by a remote service.
type APIError struct {
	Message          string
	DocumentationURL string
}

// Error combines the service message with its documentation reference.
func (apiError APIError) Error() string {
	message := strings.TrimSpace(apiError.Message)
	if len(message) == 0 {
		message = apiErrorFallbackMessageConstant
	}
	documentationURL := strings.TrimSpace(apiError.DocumentationURL)
	if len(documentationURL) == 0 {
		return message
	}
	return fmt.Sprintf(apiErrorDocumentationTemplateConstant, message, documentationURL)
}

// ProtocolError reports an unexpected status code or an undecodable payload.
type ProtocolError struct {
	Source     string
	StatusCode int
	Cause      error
}

// Error describes the protocol violation.
func (protocolError ProtocolError) Error() string {
	source := protocolError.Source
	if len(source) == 0 {
		source = unknownProtocolErrorSourceConstant
	}
	if protocolError.StatusCode != 0 {
		return fmt.Sprintf(protocolErrorStatusTemplateConstant, protocolError.StatusCode, source)
	}
	if protocolError.Cause == nil {
		return fmt.Sprintf(protocolErrorWithoutCauseTemplate, source)
	}
	return fmt.Sprintf(protocolErrorTemplateConstant, source, protocolError.Cause)
}

// Unwrap exposes the decoding failure.
func (protocolError ProtocolError) Unwrap() error {
	return protocolError.Cause
}

// InternalFaultError wraps a value recovered from a panicking backend.
type InternalFaultError struct {
	Recovered any
}

// Error describes the recovered fault.
func (faultError InternalFaultError) Error() string {
	return fmt.Sprintf(internalFaultErrorTemplateConstant, faultError.Recovered)
}

// FailureFromError converts any backend error into a Failure outcome.
func FailureFromError(backendName string, failure error) Outcome {
	if failure == nil {
		return NewFailureOutcome(backendName, apiErrorFallbackMessageConstant)
	}
	return NewFailureOutcome(backendName, failure.Error())
}
