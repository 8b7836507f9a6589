/*
 * Copyright Metaplay. Licensed under the Apache-2.0 license.
 */

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
default_user = "admin"
default_file_path = "/etc/rancher/k3s"
default_file_name = "k3s.yaml"
default_identity_file = "/keys/id_ed25519"
local_output_dir = "/var/lib/kube-configs"

[[server]]
name = "edge-1"
address = "edge-1.example.com"
target_cluster_ip = "10.0.0.5"

[[server]]
name = "edge-2"
address = "10.0.0.6"
target_cluster_ip = "10.0.0.6"
user = "root"
file_path = "/root"
file_name = "config"
context_name = "prod-edge"
identity_file = "/keys/edge2"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "/var/lib/kube-configs", cfg.LocalOutputDir)
	require.Len(t, cfg.Servers, 2)
	assert.Equal(t, ServerSpec{
		Name:            "edge-2",
		Address:         "10.0.0.6",
		TargetClusterIP: "10.0.0.6",
		User:            "root",
		FilePath:        "/root",
		FileName:        "config",
		ContextName:     "prod-edge",
		IdentityFile:    "/keys/edge2",
	}, cfg.Servers[1])
	assert.Equal(t, []string{"edge-1", "edge-2"}, cfg.ServerNames())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, ErrConfigNotFound)
}

func TestLoadInvalidToml(t *testing.T) {
	_, err := Load(writeConfig(t, "local_output_dir = [unterminated"))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrConfigNotFound)
}

func TestResolutionHelpers(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)
	edge1, ok := cfg.Server("edge-1")
	require.True(t, ok)
	edge2, ok := cfg.Server("edge-2")
	require.True(t, ok)

	user, err := cfg.User(edge1)
	require.NoError(t, err)
	assert.Equal(t, "admin", user)
	user, err = cfg.User(edge2)
	require.NoError(t, err)
	assert.Equal(t, "root", user)

	remotePath, err := cfg.RemoteFilePath(edge1)
	require.NoError(t, err)
	assert.Equal(t, "/etc/rancher/k3s/k3s.yaml", remotePath)
	remotePath, err = cfg.RemoteFilePath(edge2)
	require.NoError(t, err)
	assert.Equal(t, "/root/config", remotePath)

	assert.Equal(t, "/keys/id_ed25519", cfg.IdentityFile(edge1))
	assert.Equal(t, "/keys/edge2", cfg.IdentityFile(edge2))
	assert.Equal(t, filepath.Join("/var/lib/kube-configs", "edge-1"), cfg.LocalPath(edge1))
}

func TestResolutionErrorsNameServerAndField(t *testing.T) {
	cfg := &FleetConfig{LocalOutputDir: "/out", DefaultFilePath: "/etc"}
	server := ServerSpec{Name: "lonely", Address: "a", TargetClusterIP: "1.2.3.4"}

	_, err := cfg.User(server)
	var missing *MissingFieldError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "lonely", missing.Server)
	assert.Equal(t, "user", missing.Field)
	assert.EqualError(t, err, "[lonely] user not specified in config")

	_, err = cfg.RemoteFilePath(server)
	assert.EqualError(t, err, "[lonely] file_name not specified in config")

	assert.Empty(t, cfg.IdentityFile(server))
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := &FleetConfig{
		Servers: []ServerSpec{
			{Name: "a", Address: "a", TargetClusterIP: "1.1.1.1"},
			{Name: "a", Address: "a", TargetClusterIP: "1.1.1.1"},
			{Name: "b"},
			{Address: "nameless"},
			{Name: "../etc", Address: "x", TargetClusterIP: "1.1.1.2"},
		},
	}

	err := cfg.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "local_output_dir is required")
	assert.Contains(t, msg, "[a] duplicate server name")
	assert.Contains(t, msg, "[b] address not specified in config")
	assert.Contains(t, msg, "[b] target_cluster_ip not specified in config")
	assert.Contains(t, msg, "server #4 has no name")
	assert.Contains(t, msg, "[../etc] server name cannot be used as a file name")
}

func TestFilterServers(t *testing.T) {
	cfg := &FleetConfig{Servers: []ServerSpec{{Name: "a"}, {Name: "b"}, {Name: "c"}}}

	assert.Len(t, cfg.FilterServers(nil), 3)

	selected := cfg.FilterServers([]string{"c", "a", "unknown"})
	require.Len(t, selected, 2)
	assert.Equal(t, "a", selected[0].Name)
	assert.Equal(t, "c", selected[1].Name)

	assert.Empty(t, cfg.FilterServers([]string{"nope"}))
}

func TestExpandHome(t *testing.T) {
	homeDir, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(homeDir, ".ssh", "id_rsa"), expandHome("~/.ssh/id_rsa"))
	assert.Equal(t, "/abs/path", expandHome("/abs/path"))
	assert.Equal(t, "~user/x", expandHome("~user/x"))
	assert.Equal(t, "", expandHome(""))
}
