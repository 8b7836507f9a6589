/*
 * Copyright Metaplay. Licensed under the Apache-2.0 license.
 */

package cmd

import (
	"fmt"
	"strings"
)

type PositionalArgSpec struct {
	Name        string  // Name of the argument (eg, SERVER)
	Description string  // Description of the argument
	IsRequired  bool    // Is the argument required (or optional)?
	ValuePtr    *string // Pointer to the parsed value.
}

// PositionalArgs declares the positional arguments of a command. Required
// arguments must come before optional ones.
type PositionalArgs struct {
	Specs []PositionalArgSpec
}

func (args *PositionalArgs) AddStringArgument(valuePtr *string, name string, description string) {
	for _, spec := range args.Specs {
		if !spec.IsRequired {
			panic(fmt.Sprintf("required argument %s declared after optional argument %s", name, spec.Name))
		}
	}
	args.Specs = append(args.Specs, PositionalArgSpec{
		Name:        name,
		Description: description,
		IsRequired:  true,
		ValuePtr:    valuePtr,
	})
}

func (args *PositionalArgs) AddStringArgumentOpt(valuePtr *string, name string, description string) {
	args.Specs = append(args.Specs, PositionalArgSpec{
		Name:        name,
		Description: description,
		IsRequired:  false,
		ValuePtr:    valuePtr,
	})
}

func (args *PositionalArgs) GetHelpText() string {
	if len(args.Specs) == 0 {
		return "No positional arguments are required for this command."
	}

	lines := []string{"Arguments:"}
	for _, spec := range args.Specs {
		optionalText := ""
		if !spec.IsRequired {
			optionalText = " (optional)"
		}
		lines = append(lines, fmt.Sprintf("  - %s%s: %s", spec.Name, optionalText, spec.Description))
	}
	return strings.Join(lines, "\n")
}

// ParseCommandLine stores argv into the declared arguments.
func (args *PositionalArgs) ParseCommandLine(argv []string) error {
	for ndx, spec := range args.Specs {
		if ndx < len(argv) {
			*spec.ValuePtr = argv[ndx]
		} else if spec.IsRequired {
			return fmt.Errorf("missing required argument %s", spec.Name)
		}
	}

	if len(argv) > len(args.Specs) {
		return fmt.Errorf("unexpected extra arguments: %s", strings.Join(argv[len(args.Specs):], " "))
	}
	return nil
}

// UsePositionalArgs is embedded in the options of commands taking positional
// arguments.
type UsePositionalArgs struct {
	args PositionalArgs
}

func (o *UsePositionalArgs) Arguments() *PositionalArgs {
	return &o.args
}
