package audit

import (
	"context"
	"strings"
)

// Backend audits a single external platform.
type Backend interface {
	Name() string
	Audit(executionContext context.Context) Outcome
}

// OptionDescriptor documents a configuration option recognized by a factory.
type OptionDescriptor struct {
	Name     string
	Usage    string
	Required bool
	Boolean  bool
}

// BackendFactory builds a Backend from raw option values.
type BackendFactory interface {
	Name() string
	Options() []OptionDescriptor
	Construct(options OptionValues) ConstructionResult
}

// OptionValues maps recognized option names to optional raw values.
type OptionValues map[string]*string

// Lookup returns the trimmed value of an option; whitespace-only values count as absent.
func (values OptionValues) Lookup(optionName string) (string, bool) {
	if values == nil {
		return "", false
	}
	rawValue, exists := values[optionName]
	if !exists || rawValue == nil {
		return "", false
	}
	trimmedValue := strings.TrimSpace(*rawValue)
	if len(trimmedValue) == 0 {
		return "", false
	}
	return trimmedValue, true
}

// LookupWithDefault returns the option value or the provided fallback when absent.
func (values OptionValues) LookupWithDefault(optionName string, defaultValue string) string {
	if value, found := values.Lookup(optionName); found {
		return value
	}
	return defaultValue
}

// Set stores a value for the option and returns the receiver for chaining.
func (values OptionValues) Set(optionName string, value string) OptionValues {
	duplicatedValue := value
	values[optionName] = &duplicatedValue
	return values
}

// RequiredOptionValues holds resolved required options keyed by name.
type RequiredOptionValues map[string]string

// RequireOptions classifies the required options of a backend. It returns a nil
// result and the resolved values when every option is present, and a
// NotConfigured or MissingRequiredFields result otherwise.
func RequireOptions(values OptionValues, requiredOptionNames ...string) (*ConstructionResult, RequiredOptionValues) {
	resolvedValues := make(RequiredOptionValues, len(requiredOptionNames))
	missingOptionNames := make([]string, 0, len(requiredOptionNames))

	for _, optionName := range requiredOptionNames {
		value, found := values.Lookup(optionName)
		if !found {
			missingOptionNames = append(missingOptionNames, optionName)
			continue
		}
		resolvedValues[optionName] = value
	}

	switch {
	case len(missingOptionNames) == 0:
		return nil, resolvedValues
	case len(missingOptionNames) == len(requiredOptionNames):
		result := NotConfigured()
		return &result, nil
	default:
		result := MissingRequiredFields(missingOptionNames...)
		return &result, nil
	}
}

// BuildBackends asks every factory for a backend. Factories that are not
// configured are skipped; any factory reporting missing options produces a
// ConfigurationError and no backends are returned.
func BuildBackends(factories []BackendFactory, values OptionValues) ([]Backend, error) {
	backends := make([]Backend, 0, len(factories))
	var missingByBackend []MissingBackendOptions

	for _, factory := range factories {
		if factory == nil {
			continue
		}
		result := factory.Construct(values)
		switch result.Kind() {
		case ConstructionKindReady:
			if backend, ready := result.Backend(); ready {
				backends = append(backends, backend)
			}
		case ConstructionKindMissingRequiredFields:
			missingByBackend = append(missingByBackend, MissingBackendOptions{
				BackendName: factory.Name(),
				OptionNames: result.MissingFields(),
			})
		}
	}

	if len(missingByBackend) > 0 {
		return nil, ConfigurationError{Missing: missingByBackend}
	}

	return backends, nil
}
