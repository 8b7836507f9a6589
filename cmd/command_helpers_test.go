/*
 * Copyright Metaplay. Licensed under the Apache-2.0 license.
 */

package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	clierrors "github.com/kube-config-updater/cli/internal/errors"
	"github.com/kube-config-updater/cli/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if content != "" {
		require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	}
	previous := flagConfigPath
	flagConfigPath = path
	t.Cleanup(func() { flagConfigPath = previous })
	return path
}

func TestLoadFleetConfig(t *testing.T) {
	useConfigFile(t, `
local_output_dir = "/tmp/kube-configs"

[[server]]
name = "edge-1"
address = "edge-1.example.com"
target_cluster_ip = "10.0.0.5"
`)

	cfg, err := loadFleetConfig()
	require.NoError(t, err)
	assert.Equal(t, []string{"edge-1"}, cfg.ServerNames())
}

func TestLoadFleetConfigMissingFile(t *testing.T) {
	useConfigFile(t, "")

	_, err := loadFleetConfig()
	require.Error(t, err)
	assert.True(t, errors.Is(err, config.ErrConfigNotFound))

	cliErr, ok := clierrors.AsCLIError(err)
	require.True(t, ok)
	assert.Contains(t, cliErr.Suggestion, "--config")
	assert.Equal(t, 2, clierrors.GetExitCode(err))
}

func TestLoadFleetConfigListsEveryProblem(t *testing.T) {
	useConfigFile(t, `
[[server]]
name = "edge-1"

[[server]]
name = "edge-1"
address = "edge-1.example.com"
target_cluster_ip = "10.0.0.5"
`)

	_, err := loadFleetConfig()
	cliErr, ok := clierrors.AsCLIError(err)
	require.True(t, ok)
	assert.ElementsMatch(t, []string{
		"local_output_dir is required",
		"[edge-1] address not specified in config",
		"[edge-1] target_cluster_ip not specified in config",
		"[edge-1] duplicate server name",
	}, cliErr.Details)
	assert.Equal(t, 2, clierrors.GetExitCode(err))
	var missing *config.MissingFieldError
	assert.ErrorAs(t, err, &missing)
}

func TestDedent(t *testing.T) {
	text := dedent(`
		First line.
		  Indented line.

		Last line.
	`)
	assert.Equal(t, "First line.\n  Indented line.\n\nLast line.", text)
}

func TestSharedKubeconfigPathOverride(t *testing.T) {
	previous := flagKubeconfigPath
	t.Cleanup(func() { flagKubeconfigPath = previous })

	flagKubeconfigPath = ""
	assert.Equal(t, filepath.Join(homeDir(t), ".kube", "config"), sharedKubeconfigPath())

	flagKubeconfigPath = "/tmp/other-config"
	assert.Equal(t, "/tmp/other-config", sharedKubeconfigPath())
}

func homeDir(t *testing.T) string {
	t.Helper()
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	return home
}
