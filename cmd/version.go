/*
 * Copyright Metaplay. Licensed under the Apache-2.0 license.
 */

package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/kube-config-updater/cli/internal/version"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// Show the version info of the application.
type VersionOpts struct {
	flagFormat      string
	flagCheckUpdate bool
}

func init() {
	o := VersionOpts{}

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version information of this CLI",
		Run:   runCommand(&o),
	}

	rootCmd.AddCommand(cmd)

	flags := cmd.Flags()
	flags.StringVar(&o.flagFormat, "format", "text", "Output format. Valid values are 'text' or 'json'")
	flags.BoolVar(&o.flagCheckUpdate, "check-update", true, "Check whether a newer release is available")
}

func (o *VersionOpts) Prepare(cmd *cobra.Command, args []string) error {
	// Validate format
	if o.flagFormat != "text" && o.flagFormat != "json" {
		return fmt.Errorf("invalid format %q, must be either 'text' or 'json'", o.flagFormat)
	}
	return nil
}

func (o *VersionOpts) Run(cmd *cobra.Command) error {
	if o.flagFormat == "json" {
		// Create structured version info with exported fields
		type VersionInfo struct {
			AppVersion string `json:"appVersion"`
			GitCommit  string `json:"gitCommit"`
			Prerelease bool   `json:"prerelease"`
		}
		info := VersionInfo{
			AppVersion: version.AppVersion,
			GitCommit:  version.GitCommit,
			Prerelease: version.IsDevBuild(),
		}

		// Marshal to JSON.
		infoJson, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal to JSON: %w", err)
		}

		log.Info().Msg(string(infoJson))
		return nil
	}

	log.Info().Msgf("%s (%s)", version.AppVersion, version.GitCommit)

	// Update notices go to stderr so stdout stays parseable.
	if o.flagCheckUpdate {
		stderrLogger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true, PartsExclude: []string{zerolog.LevelFieldName, zerolog.TimestampFieldName}})
		version.CheckVersion(cmd.Context(), &stderrLogger)
	}
	return nil
}
