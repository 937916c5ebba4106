package cli

import (
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/temirov/otpcop/internal/audit"
	flagutils "github.com/temirov/otpcop/internal/utils/flags"
)

// registerOptionFlags exposes every backend option as a command line flag.
func (application *Application) registerOptionFlags(flagSet *pflag.FlagSet) {
	for _, descriptor := range application.optionDescriptors {
		if flagSet.Lookup(descriptor.Name) != nil {
			continue
		}
		flagTarget := new(string)
		application.optionFlagValues[descriptor.Name] = flagTarget
		if descriptor.Boolean {
			flagutils.AddToggleFlag(flagSet, flagTarget, descriptor.Name, descriptor.Usage)
			continue
		}
		flagSet.StringVar(flagTarget, descriptor.Name, "", descriptor.Usage)
	}
}

// resolveOptionValues merges command line flags over configured options.
// Boolean options are normalized to "true" or "false".
func (application *Application) resolveOptionValues(command *cobra.Command) (audit.OptionValues, error) {
	optionValues := audit.OptionValues{}

	for _, descriptor := range application.optionDescriptors {
		rawValue, present := application.lookupOptionValue(command, descriptor.Name)
		if !present {
			continue
		}

		if descriptor.Boolean {
			enabled, parseError := flagutils.ParseToggle(descriptor.Name, rawValue)
			if parseError != nil {
				return nil, parseError
			}
			rawValue = strconv.FormatBool(enabled)
		}

		optionValues.Set(descriptor.Name, rawValue)
	}

	return optionValues, nil
}

func (application *Application) lookupOptionValue(command *cobra.Command, optionName string) (string, bool) {
	if command != nil && command.Flags().Changed(optionName) {
		if flagTarget, registered := application.optionFlagValues[optionName]; registered && flagTarget != nil {
			return *flagTarget, true
		}
	}

	configuredValue, configured := application.configuration.Options[optionName]
	if !configured || isBlank(configuredValue) {
		return "", false
	}
	return configuredValue, true
}
