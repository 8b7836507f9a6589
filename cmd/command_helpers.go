/*
 * Copyright Metaplay. Licensed under the Apache-2.0 license.
 */

package cmd

import (
	"errors"
	"os"
	"strings"

	clierrors "github.com/kube-config-updater/cli/internal/errors"
	"github.com/kube-config-updater/cli/pkg/config"
	"github.com/kube-config-updater/cli/pkg/credentials"
	"github.com/kube-config-updater/cli/pkg/fleet"
	"github.com/kube-config-updater/cli/pkg/kubeconfig"
	"github.com/kube-config-updater/cli/pkg/remote"
	"github.com/kube-config-updater/cli/pkg/runstate"
	"github.com/spf13/cobra"
)

// CommandOptions is implemented by the options struct of every command.
// Prepare validates flags and arguments; Run does the work.
type CommandOptions interface {
	Prepare(cmd *cobra.Command, args []string) error
	Run(cmd *cobra.Command) error
}

// Implemented by options embedding UsePositionalArgs.
type hasPositionalArgs interface {
	Arguments() *PositionalArgs
}

// runCommand adapts opts into a cobra Run function. Argument and Prepare()
// errors are reported as usage errors. Errors terminate the process with the
// exit code of the error.
func runCommand(opts CommandOptions) func(cmd *cobra.Command, args []string) {
	return func(cmd *cobra.Command, args []string) {
		if err := prepareCommand(opts, cmd, args); err != nil {
			exitWithError(err)
		}
		if err := opts.Run(cmd); err != nil {
			exitWithError(err)
		}
	}
}

func prepareCommand(opts CommandOptions, cmd *cobra.Command, args []string) error {
	if withArgs, ok := opts.(hasPositionalArgs); ok {
		if err := withArgs.Arguments().ParseCommandLine(args); err != nil {
			return clierrors.WrapUsageError(err, "Invalid arguments").
				WithSuggestion(withArgs.Arguments().GetHelpText())
		}
	}

	if err := opts.Prepare(cmd, args); err != nil {
		if _, ok := clierrors.AsCLIError(err); ok {
			return err
		}
		return clierrors.WrapUsageError(err, err.Error())
	}
	return nil
}

func exitWithError(err error) {
	renderError(err)
	if logFile != nil {
		_ = logFile.Close()
	}
	os.Exit(clierrors.GetExitCode(err))
}

// renderLong dedents a Long help text and replaces the {Arguments} placeholder
// with the positional argument help of opts.
func renderLong(opts CommandOptions, text string) string {
	text = dedent(text)
	if withArgs, ok := opts.(hasPositionalArgs); ok {
		text = strings.ReplaceAll(text, "{Arguments}", withArgs.Arguments().GetHelpText())
	}
	return text
}

// renderExample dedents an Example text and indents it by two spaces.
func renderExample(text string) string {
	lines := strings.Split(dedent(text), "\n")
	for ndx, line := range lines {
		if line != "" {
			lines[ndx] = "  " + line
		}
	}
	return strings.Join(lines, "\n")
}

// dedent removes surrounding blank lines and the common leading whitespace.
func dedent(text string) string {
	lines := strings.Split(strings.Trim(text, "\n"), "\n")

	minIndent := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := len(line) - len(strings.TrimLeft(line, " \t"))
		if minIndent < 0 || indent < minIndent {
			minIndent = indent
		}
	}

	for ndx, line := range lines {
		if len(line) >= minIndent && minIndent > 0 {
			lines[ndx] = line[minIndent:]
		} else {
			lines[ndx] = strings.TrimSpace(line)
		}
	}
	return strings.TrimRight(strings.Join(lines, "\n"), " \t\n")
}

// configPath returns the --config value or the default location.
func configPath() string {
	if flagConfigPath != "" {
		return flagConfigPath
	}
	return config.DefaultPath()
}

// loadFleetConfig loads and validates the fleet config file.
func loadFleetConfig() (*config.FleetConfig, error) {
	path := configPath()
	cfg, err := config.Load(path)
	if errors.Is(err, config.ErrConfigNotFound) {
		return nil, clierrors.ConfigNotFound(path, err)
	}
	if err != nil {
		return nil, clierrors.Wrap(err, "Failed to load the fleet config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, clierrors.ConfigInvalid(path, err)
	}
	return cfg, nil
}

// newRunner wires the production pipeline for cfg.
func newRunner(cfg *config.FleetConfig, observer fleet.Observer) *fleet.Runner {
	return &fleet.Runner{
		Config:      cfg,
		Credentials: credentials.NewDefaultResolver(),
		Fetcher:     remote.NewSSHFetcher(),
		Merger:      kubeconfig.NewMerger(sharedKubeconfigPath()),
		State:       runstate.NewFileStore(runstate.DefaultPath()),
		Observer:    observer,
	}
}

// sharedKubeconfigPath returns the --kubeconfig value or ~/.kube/config.
func sharedKubeconfigPath() string {
	if flagKubeconfigPath != "" {
		return flagKubeconfigPath
	}
	return kubeconfig.DefaultSharedPath()
}
