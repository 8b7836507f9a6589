/*
 * Copyright Metaplay. Licensed under the Apache-2.0 license.
 */

package kubeconfig

// Preference keys written into every rewritten kubeconfig.
const (
	PrefSourceHash    = "source-file-sha256"
	PrefLastUpdated   = "script-last-updated"
	PrefCertExpiresAt = "certificate-expires-at"
)

// KubeConfig is the subset of the kubeconfig format that the updater reads and
// rewrites. Keys that are not modelled explicitly are kept in the Extra maps so
// that a parse/serialize round-trip does not drop them.
type KubeConfig struct {
	ApiVersion     string                 `yaml:"apiVersion"`
	Clusters       []KubeConfigCluster    `yaml:"clusters"`
	Contexts       []KubeConfigContext    `yaml:"contexts"`
	CurrentContext string                 `yaml:"current-context"`
	Kind           string                 `yaml:"kind"`
	Preferences    Preferences            `yaml:"preferences,omitempty"`
	Users          []KubeConfigUser       `yaml:"users"`
	Extra          map[string]interface{} `yaml:",inline"`
}

type KubeConfigCluster struct {
	Cluster KubeConfigClusterData  `yaml:"cluster"`
	Name    string                 `yaml:"name"`
	Extra   map[string]interface{} `yaml:",inline"`
}

type KubeConfigClusterData struct {
	CertificateAuthorityData string                 `yaml:"certificate-authority-data,omitempty"`
	Server                   string                 `yaml:"server,omitempty"`
	Extra                    map[string]interface{} `yaml:",inline"`
}

type KubeConfigContext struct {
	Context KubeConfigContextData  `yaml:"context"`
	Name    string                 `yaml:"name"`
	Extra   map[string]interface{} `yaml:",inline"`
}

type KubeConfigContextData struct {
	Cluster   string                 `yaml:"cluster"`
	User      string                 `yaml:"user"`
	Namespace string                 `yaml:"namespace,omitempty"`
	Extra     map[string]interface{} `yaml:",inline"`
}

type KubeConfigUser struct {
	Name  string                 `yaml:"name"`
	User  KubeConfigUserData     `yaml:"user"`
	Extra map[string]interface{} `yaml:",inline"`
}

type KubeConfigUserData struct {
	ClientCertificateData string                 `yaml:"client-certificate-data,omitempty"`
	ClientKeyData         string                 `yaml:"client-key-data,omitempty"`
	Extra                 map[string]interface{} `yaml:",inline"`
}

// NewSkeleton returns an empty kubeconfig document.
func NewSkeleton() *KubeConfig {
	return &KubeConfig{
		ApiVersion: "v1",
		Kind:       "Config",
		Clusters:   []KubeConfigCluster{},
		Contexts:   []KubeConfigContext{},
		Users:      []KubeConfigUser{},
	}
}

// FindContext returns the context with the given name, or nil.
func (c *KubeConfig) FindContext(name string) *KubeConfigContext {
	for i := range c.Contexts {
		if c.Contexts[i].Name == name {
			return &c.Contexts[i]
		}
	}
	return nil
}

// FindCluster returns the cluster with the given name, or nil.
func (c *KubeConfig) FindCluster(name string) *KubeConfigCluster {
	for i := range c.Clusters {
		if c.Clusters[i].Name == name {
			return &c.Clusters[i]
		}
	}
	return nil
}

// FindUser returns the user with the given name, or nil.
func (c *KubeConfig) FindUser(name string) *KubeConfigUser {
	for i := range c.Users {
		if c.Users[i].Name == name {
			return &c.Users[i]
		}
	}
	return nil
}
