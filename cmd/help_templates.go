/*
 * Copyright Metaplay. Licensed under the Apache-2.0 license.
 */

package cmd

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kube-config-updater/cli/pkg/styles"
)

var customUsageTemplate = `{{StyleHeading "Usage:"}}{{if .Runnable}}
  {{StyleCommand .UseLine}}{{end}}{{if .HasAvailableSubCommands}}
  {{StyleCommand .CommandPath}} [command]{{end}}{{if gt (len .Aliases) 0}}

{{StyleHeading "Aliases:"}}
  {{StyleAliases .NameAndAliases}}{{end}}{{if .HasExample}}

{{StyleHeading "Examples:"}}
{{StyleExample .Example}}{{end}}{{if .HasAvailableSubCommands}}{{$cmds := .Commands}}{{if eq (len .Groups) 0}}

{{StyleHeading "Available Commands:"}}{{range $cmds}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{StyleCommand (rpad .Name .NamePadding)}} {{.Short}}{{end}}{{end}}{{else}}{{range $group := .Groups}}

{{StyleHeading .Title}}{{range $cmds}}{{if (and (eq .GroupID $group.ID) (or .IsAvailableCommand (eq .Name "help")))}}
  {{StyleCommand (rpad .Name .NamePadding)}} {{.Short}}{{end}}{{end}}{{end}}{{if not .AllChildCommandsHaveGroup}}

{{StyleHeading "Additional Commands:"}}{{range $cmds}}{{if (and (eq .GroupID "") (or .IsAvailableCommand (eq .Name "help")))}}
  {{StyleCommand (rpad .Name .NamePadding)}} {{.Short}}{{end}}{{end}}{{end}}{{end}}{{end}}{{if .HasAvailableLocalFlags}}

{{StyleHeading "Flags:"}}
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces | StyleFlags}}{{end}}{{if .HasAvailableInheritedFlags}}

{{StyleHeading "Global Flags:"}}
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces | StyleFlags}}{{end}}{{if .HasHelpSubCommands}}

{{StyleHeading "Additional help topics:"}}{{range .Commands}}{{if .IsAdditionalHelpTopicCommand}}
  {{rpad .CommandPath .CommandPathPadding}} {{.Short}}{{end}}{{end}}{{end}}{{if .HasAvailableSubCommands}}

Use "{{.CommandPath}} [command] --help" for more information about a command.{{end}}
`

var customHelpTemplate = `{{with (or .Long .Short)}}{{. | trimTrailingWhitespaces | styleInlineCode}}

{{end}}{{if or .Runnable .HasSubCommands}}{{.UsageString}}{{end}}`

// Initialize the colored help templates for Cobra
func initColoredHelpTemplates(rootCmd *cobra.Command) {
	// Add template functions for styling
	cobra.AddTemplateFunc("StyleHeading", styles.RenderBright)
	cobra.AddTemplateFunc("StyleCommand", styles.RenderTechnical)
	cobra.AddTemplateFunc("StyleExample", styleExample)
	cobra.AddTemplateFunc("StyleFlags", styleFlags)
	cobra.AddTemplateFunc("StyleAliases", styleAliases)
	cobra.AddTemplateFunc("styleInlineCode", styleInlineCode)

	// Set the custom templates
	rootCmd.SetUsageTemplate(customUsageTemplate)
	rootCmd.SetHelpTemplate(customHelpTemplate)
}

var (
	flagLineIndentRe = regexp.MustCompile(`^(\s*)(.*?)$`)
	flagLineSplitRe  = regexp.MustCompile(`^(.+?)(\s{2,})(.*)$`)
	flagNameTypeRe   = regexp.MustCompile(`^((?:-[^,\s]+)(?:, (?:--[^\s]+))?)(?:\s+(\S+))?$`)
)

// styleFlags colors the flag names and value types of pflag's usage lines,
// eg, "  -c, --config string   Path to ...".
func styleFlags(text string) string {
	lines := strings.Split(text, "\n")
	for ndx, line := range lines {
		if styled, ok := styleFlagLine(line); ok {
			lines[ndx] = styled
		}
	}
	return strings.Join(lines, "\n")
}

func styleFlagLine(line string) (string, bool) {
	if strings.TrimSpace(line) == "" {
		return "", false
	}

	indentMatch := flagLineIndentRe.FindStringSubmatch(line)
	if len(indentMatch) < 3 {
		return "", false
	}
	indent, rest := indentMatch[1], indentMatch[2]

	// Flags and type are separated from the description by at least two spaces.
	parts := flagLineSplitRe.FindStringSubmatch(rest)
	if len(parts) < 4 {
		return "", false
	}
	leftPart, space, description := parts[1], parts[2], parts[3]

	nameType := flagNameTypeRe.FindStringSubmatch(leftPart)
	if len(nameType) < 2 {
		return "", false
	}

	names := strings.Split(nameType[1], ", ")
	for j, name := range names {
		names[j] = styles.RenderTechnical(name)
	}
	styledLeft := strings.Join(names, ", ")
	if len(nameType) > 2 && nameType[2] != "" {
		styledLeft += " " + styles.RenderMuted(nameType[2])
	}

	return fmt.Sprintf("%s%s%s%s", indent, styledLeft, space, description), true
}

// styleInlineCode colors text between backticks, keeping the backticks.
func styleInlineCode(text string) string {
	parts := strings.Split(text, "`")
	for i := 1; i < len(parts); i += 2 {
		parts[i] = styles.RenderTechnical(parts[i])
	}
	return strings.Join(parts, "`")
}

// styleExample colors comment lines of an example differently from commands.
func styleExample(text string) string {
	lines := strings.Split(text, "\n")
	for ndx, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "#"):
			lines[ndx] = styles.RenderComment(line)
		case trimmed != "":
			lines[ndx] = styles.RenderTechnical(line)
		}
	}
	return strings.Join(lines, "\n")
}

func styleAliases(text string) string {
	aliases := strings.Split(text, ", ")
	for i, alias := range aliases {
		aliases[i] = styles.RenderTechnical(alias)
	}
	return strings.Join(aliases, ", ")
}
