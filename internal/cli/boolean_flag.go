package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	switchTypeName        = "bool"
	switchTrueLiteral     = "true"
	switchAcceptedValues  = "true, false, yes, no, on, off, 1, 0"
	switchInvalidValueMsg = "invalid boolean value"
	flagPrefix            = "--"
)

var switchLiterals = map[string]bool{
	"true":  true,
	"t":     true,
	"1":     true,
	"yes":   true,
	"y":     true,
	"on":    true,
	"false": false,
	"f":     false,
	"0":     false,
	"no":    false,
	"n":     false,
	"off":   false,
}

// switchValue is a boolean flag that accepts yes/no style literals in addition to strconv forms.
type switchValue struct {
	target *bool
	name   string
}

func (value *switchValue) Set(input string) error {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		normalized = switchTrueLiteral
	}
	parsed, known := switchLiterals[normalized]
	if !known {
		return fmt.Errorf("%s %q for --%s; accepted values: %s", switchInvalidValueMsg, input, value.name, switchAcceptedValues)
	}
	*value.target = parsed
	return nil
}

func (value *switchValue) String() string {
	if value == nil || value.target == nil {
		return strconv.FormatBool(false)
	}
	return strconv.FormatBool(*value.target)
}

func (value *switchValue) Type() string {
	return switchTypeName
}

// registerSwitch adds a boolean flag that may be given bare, as --name=value, or as --name value.
func registerSwitch(flagSet *pflag.FlagSet, target *bool, name string, usage string) {
	flagSet.Var(&switchValue{target: target, name: name}, name, usage)
	if registered := flagSet.Lookup(name); registered != nil {
		registered.DefValue = strconv.FormatBool(*target)
		registered.NoOptDefVal = switchTrueLiteral
	}
}

// joinSwitchValues rewrites "--name value" into "--name=value" for switches followed by a
// boolean literal, so the literal is not mistaken for a positional command name.
func joinSwitchValues(command *cobra.Command, arguments []string) []string {
	switchNames := map[string]struct{}{}
	command.Flags().VisitAll(func(flag *pflag.Flag) {
		if flag.Value.Type() == switchTypeName {
			switchNames[flag.Name] = struct{}{}
		}
	})
	joined := make([]string, 0, len(arguments))
	for index := 0; index < len(arguments); index++ {
		argument := arguments[index]
		if argument == flagPrefix {
			joined = append(joined, arguments[index:]...)
			break
		}
		if strings.HasPrefix(argument, flagPrefix) && !strings.Contains(argument, "=") && index+1 < len(arguments) {
			name := strings.TrimPrefix(argument, flagPrefix)
			if _, isSwitch := switchNames[name]; isSwitch {
				if _, isLiteral := switchLiterals[strings.ToLower(strings.TrimSpace(arguments[index+1]))]; isLiteral {
					joined = append(joined, argument+"="+arguments[index+1])
					index++
					continue
				}
			}
		}
		joined = append(joined, argument)
	}
	return joined
}
