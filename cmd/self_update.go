/*
 * Copyright Metaplay. Licensed under the Apache-2.0 license.
 */

package cmd

import (
	"fmt"

	"github.com/creativeprojects/go-selfupdate"
	"github.com/kube-config-updater/cli/internal/pathutil"
	"github.com/kube-config-updater/cli/internal/version"
	"github.com/kube-config-updater/cli/pkg/styles"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type selfUpdateOpts struct{}

func init() {
	o := selfUpdateOpts{}

	var cmd = &cobra.Command{
		Use:   "self-update",
		Short: "Update kube-config-updater to the latest release",
		Run:   runCommand(&o),
	}

	rootCmd.AddCommand(cmd)
}

func (o *selfUpdateOpts) Prepare(cmd *cobra.Command, args []string) error {
	return nil
}

func (o *selfUpdateOpts) Run(cmd *cobra.Command) error {
	if version.IsDevBuild() {
		return fmt.Errorf("the self-update command is disabled on development builds")
	}

	updater, err := version.NewUpdater()
	if err != nil {
		return err
	}

	latest, found, err := updater.DetectLatest(cmd.Context(), selfupdate.ParseSlug(version.RepositorySlug))
	if err != nil {
		return fmt.Errorf("failed to detect the latest release: %w", err)
	}
	if !found || !latest.GreaterThan(version.AppVersion) {
		log.Info().Msgf("Already running the latest version (v%s)", version.AppVersion)
		return nil
	}

	// selfupdate.GetExecutablePath() resolves symlinks with filepath.EvalSymlinks(),
	// which is broken on Windows.
	exe, err := pathutil.GetExecutablePath()
	if err != nil {
		return fmt.Errorf("could not determine the executable path: %w", err)
	}

	if err := updater.UpdateTo(cmd.Context(), latest, exe); err != nil {
		return fmt.Errorf("failed to update the binary: %w", err)
	}

	log.Info().Msg("")
	log.Info().Msgf(styles.RenderSuccess("✅ Successfully updated to version %s!"), latest.Version())
	return nil
}
