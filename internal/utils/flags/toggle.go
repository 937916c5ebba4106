package flags

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
)

const (
	toggleParseErrorTemplate  = "invalid boolean value %q for %s"
	toggleTypeName            = "bool"
	toggleUsageTemplate       = "`%s` %s"
	togglePlaceholderConstant = "<yes|NO>"
)

var (
	trueLiterals  = []string{"true", "yes", "on", "1", "t", "y"}
	falseLiterals = []string{"false", "no", "off", "0", "f", "n"}
)

// ParseToggle interprets yes/no style literals. An empty value counts as true
// so that a bare --flag enables the toggle.
func ParseToggle(optionName string, rawValue string) (bool, error) {
	normalizedValue := strings.ToLower(strings.TrimSpace(rawValue))
	if len(normalizedValue) == 0 {
		return true, nil
	}
	for _, literal := range trueLiterals {
		if normalizedValue == literal {
			return true, nil
		}
	}
	for _, literal := range falseLiterals {
		if normalizedValue == literal {
			return false, nil
		}
	}
	return false, fmt.Errorf(toggleParseErrorTemplate, rawValue, optionName)
}

// AddToggleFlag registers a boolean flag whose canonical value ("true" or
// "false") is stored in target once the flag is set on the command line.
func AddToggleFlag(flagSet *pflag.FlagSet, target *string, name string, usage string) {
	if flagSet == nil || len(name) == 0 {
		return
	}
	flagSet.Var(&toggleValue{name: name, target: target}, name, fmt.Sprintf(toggleUsageTemplate, togglePlaceholderConstant, strings.TrimSpace(usage)))
	flagSet.Lookup(name).NoOptDefVal = strconv.FormatBool(true)
}

type toggleValue struct {
	name   string
	target *string
}

func (value *toggleValue) Set(rawValue string) error {
	parsedValue, parseError := ParseToggle(value.name, rawValue)
	if parseError != nil {
		return parseError
	}
	if value.target != nil {
		*value.target = strconv.FormatBool(parsedValue)
	}
	return nil
}

func (value *toggleValue) String() string {
	if value == nil || value.target == nil || len(*value.target) == 0 {
		return strconv.FormatBool(false)
	}
	return *value.target
}

func (value *toggleValue) Type() string {
	return toggleTypeName
}
