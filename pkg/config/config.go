/*
 * Copyright Metaplay. Licensed under the Apache-2.0 license.
 */

// Package config loads the fleet definition: which servers to fetch
// kubeconfigs from and where to put them.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// ErrConfigNotFound is returned by Load when the config file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// ServerSpec is one [[server]] entry of the config file.
type ServerSpec struct {
	Name            string `mapstructure:"name"`
	Address         string `mapstructure:"address"`
	TargetClusterIP string `mapstructure:"target_cluster_ip"`
	User            string `mapstructure:"user"`
	FilePath        string `mapstructure:"file_path"`
	FileName        string `mapstructure:"file_name"`
	ContextName     string `mapstructure:"context_name"`
	IdentityFile    string `mapstructure:"identity_file"`
}

// FleetConfig is the whole config file. Per-server fields left empty fall
// back to the matching default.
type FleetConfig struct {
	DefaultUser         string       `mapstructure:"default_user"`
	DefaultFilePath     string       `mapstructure:"default_file_path"`
	DefaultFileName     string       `mapstructure:"default_file_name"`
	DefaultIdentityFile string       `mapstructure:"default_identity_file"`
	LocalOutputDir      string       `mapstructure:"local_output_dir"`
	Servers             []ServerSpec `mapstructure:"server"`
}

// MissingFieldError reports a server setting with neither a value nor a default.
type MissingFieldError struct {
	Server string
	Field  string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("[%s] %s not specified in config", e.Server, e.Field)
}

// DefaultPath returns ~/.kube_config_updater/config.toml.
func DefaultPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".kube_config_updater", "config.toml")
	}
	return filepath.Join(homeDir, ".kube_config_updater", "config.toml")
}

// Load reads the TOML config file at path.
func Load(path string) (*FleetConfig, error) {
	log.Debug().Msgf("Loading configuration from '%s'", path)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w at '%s'", ErrConfigNotFound, path)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read configuration file: %w", err)
	}

	var cfg FleetConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file: %w", err)
	}

	cfg.LocalOutputDir = expandHome(cfg.LocalOutputDir)
	cfg.DefaultIdentityFile = expandHome(cfg.DefaultIdentityFile)
	for ndx := range cfg.Servers {
		cfg.Servers[ndx].IdentityFile = expandHome(cfg.Servers[ndx].IdentityFile)
	}
	log.Debug().Msgf("Loaded %d server(s) from configuration", len(cfg.Servers))
	return &cfg, nil
}

// Validate reports every structural problem at once. Per-server fields that
// can fall back to a default are checked by the resolution helpers instead,
// so they only fail the affected server.
func (c *FleetConfig) Validate() error {
	var result *multierror.Error

	if strings.TrimSpace(c.LocalOutputDir) == "" {
		result = multierror.Append(result, errors.New("local_output_dir is required"))
	}

	seen := map[string]bool{}
	for ndx, server := range c.Servers {
		if server.Name == "" {
			result = multierror.Append(result, fmt.Errorf("server #%d has no name", ndx+1))
			continue
		}
		if seen[server.Name] {
			result = multierror.Append(result, fmt.Errorf("[%s] duplicate server name", server.Name))
		}
		seen[server.Name] = true
		if strings.ContainsAny(server.Name, `/\`) || server.Name == "." || server.Name == ".." {
			result = multierror.Append(result, fmt.Errorf("[%s] server name cannot be used as a file name", server.Name))
		}
		if server.Address == "" {
			result = multierror.Append(result, &MissingFieldError{Server: server.Name, Field: "address"})
		}
		if server.TargetClusterIP == "" {
			result = multierror.Append(result, &MissingFieldError{Server: server.Name, Field: "target_cluster_ip"})
		}
	}

	return result.ErrorOrNil()
}

// Server returns the server with the given name.
func (c *FleetConfig) Server(name string) (ServerSpec, bool) {
	for _, server := range c.Servers {
		if server.Name == name {
			return server, true
		}
	}
	return ServerSpec{}, false
}

// ServerNames returns the names of all servers in config order.
func (c *FleetConfig) ServerNames() []string {
	names := make([]string, 0, len(c.Servers))
	for _, server := range c.Servers {
		names = append(names, server.Name)
	}
	return names
}

// FilterServers returns the servers named in names, in config order. An empty
// list selects every server. Unknown names are logged and ignored.
func (c *FleetConfig) FilterServers(names []string) []ServerSpec {
	if len(names) == 0 {
		return c.Servers
	}

	wanted := map[string]bool{}
	for _, name := range names {
		wanted[name] = true
	}
	var selected []ServerSpec
	for _, server := range c.Servers {
		if wanted[server.Name] {
			selected = append(selected, server)
			delete(wanted, server.Name)
		}
	}
	for _, name := range names {
		if wanted[name] {
			log.Warn().Msgf("Unknown server '%s' ignored", name)
		}
	}
	return selected
}

// User returns the SSH user for server.
func (c *FleetConfig) User(server ServerSpec) (string, error) {
	return firstNonEmpty(server.Name, "user", server.User, c.DefaultUser)
}

// RemoteFilePath returns the full path of the kubeconfig on the server.
func (c *FleetConfig) RemoteFilePath(server ServerSpec) (string, error) {
	dir, err := firstNonEmpty(server.Name, "file_path", server.FilePath, c.DefaultFilePath)
	if err != nil {
		return "", err
	}
	name, err := firstNonEmpty(server.Name, "file_name", server.FileName, c.DefaultFileName)
	if err != nil {
		return "", err
	}
	return dir + "/" + name, nil
}

// IdentityFile returns the SSH private key for server, or "" when none is configured.
func (c *FleetConfig) IdentityFile(server ServerSpec) string {
	if server.IdentityFile != "" {
		return server.IdentityFile
	}
	return c.DefaultIdentityFile
}

// LocalPath returns where the fetched kubeconfig of server is cached.
func (c *FleetConfig) LocalPath(server ServerSpec) string {
	return filepath.Join(c.LocalOutputDir, server.Name)
}

func firstNonEmpty(serverName string, field string, value string, fallback string) (string, error) {
	if value != "" {
		return value, nil
	}
	if fallback != "" {
		return fallback, nil
	}
	return "", &MissingFieldError{Server: serverName, Field: field}
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(homeDir, strings.TrimPrefix(path, "~"))
}
