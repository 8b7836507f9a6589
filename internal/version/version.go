/*
 * Copyright Metaplay. Licensed under the Apache-2.0 license.
 */

package version

import (
	"context"
	"fmt"

	"github.com/creativeprojects/go-selfupdate"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const devBuild = "dev"

// RepositorySlug is the GitHub repository releases are published to.
const RepositorySlug = "kube-config-updater/cli"

var (
	AppVersion = devBuild         // In release builds this will be overwritten via ldflags
	GitCommit  = "unknown-commit" // -"-
)

func IsDevBuild() bool {
	return AppVersion == devBuild
}

// NewUpdater returns a self-updater reading the public GitHub releases.
func NewUpdater() (*selfupdate.Updater, error) {
	source, err := selfupdate.NewGitHubSource(selfupdate.GitHubConfig{
		APIToken: "", // Public repo doesn't need auth
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize the self-updater source: %w", err)
	}

	updater, err := selfupdate.NewUpdater(selfupdate.Config{
		Source: source,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize the self-updater: %w", err)
	}
	return updater, nil
}

// CheckVersion tells the user through stderrLogger when a newer release exists.
// Errors are only logged, never fatal.
func CheckVersion(ctx context.Context, stderrLogger *zerolog.Logger) {
	if IsDevBuild() {
		log.Debug().Msgf("Bypassing self-updater version checks for development builds (version is '%s')", AppVersion)
		return
	}

	log.Debug().Msgf("Checking for new CLI version (current: v%s)", AppVersion)

	updater, err := NewUpdater()
	if err != nil {
		log.Debug().Msgf("Error: %v", err)
		return
	}

	latest, found, err := updater.DetectLatest(ctx, selfupdate.ParseSlug(RepositorySlug))
	if err != nil {
		log.Debug().Msgf("Error: Failed to detect the latest version: %v", err)
		return
	}

	if found && latest.GreaterThan(AppVersion) {
		stderrLogger.Info().Msgf("kube-config-updater v%s is available! Your currently installed version is v%s.", latest.Version(), AppVersion)
		stderrLogger.Info().Msg("Run 'kube-config-updater self-update' to upgrade.")
	}
}
