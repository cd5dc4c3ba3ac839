package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/temirov/lx/internal/types"
)

const (
	colorFlagTypeName            = "when"
	invalidColorFlagValueMessage = "invalid color mode %q; accepted values: auto, always, never"
)

type colorFlagValue struct {
	target *string
}

func (value *colorFlagValue) Set(input string) error {
	normalized := strings.ToLower(strings.TrimSpace(input))
	switch normalized {
	case types.ColorAuto, types.ColorAlways, types.ColorNever:
		*value.target = normalized
		return nil
	default:
		return fmt.Errorf(invalidColorFlagValueMessage, input)
	}
}

func (value *colorFlagValue) String() string {
	if value == nil || value.target == nil {
		return types.ColorAuto
	}
	return *value.target
}

func (value *colorFlagValue) Type() string {
	return colorFlagTypeName
}

func registerColorFlag(flagSet *pflag.FlagSet, target *string) {
	*target = types.ColorAuto
	flagSet.Var(&colorFlagValue{target: target}, colorFlagName, colorFlagDescription)
}
